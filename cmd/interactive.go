package cmd

import (
	"github.com/spf13/cobra"

	"github.com/iamgilwell/booster/internal/ui"
)

var interactiveCmd = &cobra.Command{
	Use:   "interactive",
	Short: "Launch htop-like interactive TUI",
	Long:  `Launches the full interactive terminal UI with the ranked process table, decision panel, and keyboard controls.`,
	RunE:  runInteractive,
}

func runInteractive(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	// The TUI owns the terminal; keep logging to the file only.
	a.notifier.SetOutput(nil)

	app := ui.NewApp(a.booster, a.advisor, a.auditor, a.mode, a.cfg.Monitoring.TopLimit*5)
	return app.Run()
}
