package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/iamgilwell/booster/internal/config"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "booster",
	Short: "Booster - process telemetry and termination engine",
	Long: `Booster samples running processes, ranks them by smoothed CPU, memory
and GPU usage, and terminates the ones you choose: gracefully first, and by
force only when you agree. Critical system processes, the whitelist and the
anti-malware service are never terminated.

Run 'booster interactive' for the full TUI, 'booster monitor' for a plain
text view, or 'booster serve' for the HTTP API.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "enable verbose output")
	rootCmd.PersistentFlags().String("force", "", "force-kill policy for processes that ignore the graceful request: never, ask, always")
	_ = viper.BindPFlag("safety.force_mode", rootCmd.PersistentFlags().Lookup("force"))

	rootCmd.AddCommand(monitorCmd)
	rootCmd.AddCommand(interactiveCmd)
	rootCmd.AddCommand(killCmd)
	rootCmd.AddCommand(boostCmd)
	rootCmd.AddCommand(cleanupCmd)
	rootCmd.AddCommand(autoboostCmd)
	rootCmd.AddCommand(policyCmd)
	rootCmd.AddCommand(selectCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(adviseCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(stopCmd)
	rootCmd.AddCommand(logsCmd)
}

func initConfig() {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if verbose {
		cfg.Notifications.Verbose = true
	}
	config.Global = cfg
}
