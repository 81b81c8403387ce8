package cmd

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/iamgilwell/booster/internal/config"
	"github.com/iamgilwell/booster/internal/monitor"
	"github.com/iamgilwell/booster/internal/process"
	"github.com/iamgilwell/booster/internal/safety"
	"github.com/iamgilwell/booster/internal/store"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show current system and booster status",
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg := config.Global

	metrics := monitor.GetSystemMetrics(cmd.Context())

	fmt.Println("╔══════════════════════════════════════════╗")
	fmt.Println("║   Booster - Process Telemetry & Control  ║")
	fmt.Println("╚══════════════════════════════════════════╝")
	fmt.Println()

	// Daemon status
	if data, err := os.ReadFile(pidFilePath()); err == nil {
		fmt.Printf("Daemon:     Running (PID: %s)\n", strings.TrimSpace(string(data)))
	} else {
		fmt.Println("Daemon:     Not running")
	}
	fmt.Printf("Elevated:   %v\n", process.NewPsutilController().Elevated())
	fmt.Println()

	fmt.Println("System Metrics:")
	fmt.Printf("  CPU Usage:    %.1f%% (%d cores)\n", metrics.CPUPercent, metrics.Cores)
	fmt.Printf("  Memory:       %.1f%% (%.0f MB / %.0f MB)\n",
		metrics.MemPercent, metrics.MemUsedMB, metrics.MemTotalMB)
	fmt.Printf("  Load Average: %.2f, %.2f, %.2f\n",
		metrics.LoadAvg1, metrics.LoadAvg5, metrics.LoadAvg15)
	fmt.Printf("  Uptime:       %s\n", time.Duration(metrics.UptimeSecs)*time.Second)
	fmt.Println()

	mode, err := safety.ParseForceMode(cfg.Safety.ForceMode)
	modeDesc := safety.ModeDescription(mode)
	if err != nil {
		modeDesc = "invalid: " + cfg.Safety.ForceMode
	}

	fmt.Println("Configuration:")
	fmt.Printf("  Poll Interval:     %s\n", cfg.Monitoring.PollInterval)
	fmt.Printf("  Window Size:       %d samples\n", cfg.Monitoring.WindowSize)
	fmt.Printf("  Terminate Timeout: %s\n", cfg.Safety.TerminateTimeout)
	fmt.Printf("  Force Mode:        %s\n", modeDesc)
	fmt.Printf("  Policy Backend:    %s\n", cfg.Policy.Backend)
	fmt.Printf("  Boost:             top %d above %.1f%% CPU\n", cfg.Boost.TopN, cfg.Boost.CPUThreshold)
	fmt.Printf("  GPU Sampling:      %v\n", cfg.GPU.Enabled && monitor.NewNvidiaSMI() != nil)
	fmt.Printf("  Advisor Enabled:   %v (API key set: %v)\n", cfg.Advisor.Enabled, cfg.Anthropic.APIKey != "")
	fmt.Println()

	if critical, err := store.LoadCritical(cfg.Safety.CriticalFile); err != nil {
		fmt.Printf("Critical Processes: ERROR %v\n", err)
	} else {
		fmt.Printf("Critical Processes: %d loaded from %s\n", len(critical), cfg.Safety.CriticalFile)
	}

	return nil
}
