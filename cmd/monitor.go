package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/iamgilwell/booster/internal/monitor"
)

var monitorSort string

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Foreground process monitoring with text output",
	Long:  `Polls running processes and prints the ranked view, refreshing at the configured interval.`,
	RunE:  runMonitor,
}

func init() {
	monitorCmd.Flags().StringVar(&monitorSort, "sort", "cpu", "rank by cpu, memory, gpu or name")
}

func runMonitor(cmd *cobra.Command, args []string) error {
	metric, err := monitor.ParseMetric(monitorSort)
	if err != nil {
		return err
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	a.notifier.Info("Booster monitor starting...")

	limit := a.cfg.Monitoring.TopLimit
	mon := a.booster.Monitor()
	policy := a.booster.Policy()

	mon.OnUpdate(func(_ []monitor.Entry, metrics *monitor.SystemMetrics) {
		// Clear screen
		fmt.Print("\033[H\033[2J")

		fmt.Printf("\033[1mBooster Process Monitor\033[0m | Processes: %d | CPU: %.1f%% | Mem: %.1f%% | Load: %.2f\n",
			metrics.NumProcs, metrics.CPUPercent, metrics.MemPercent, metrics.LoadAvg1)
		fmt.Println("─────────────────────────────────────────────────────────────────────────────────────────")
		fmt.Printf("%7s %-32s %-14s %7s %7s %6s %-11s\n", "PID", "NAME", "USER", "CPU%", "MEM%", "GPU%", "STATUS")
		fmt.Println("─────────────────────────────────────────────────────────────────────────────────────────")

		for _, e := range mon.Tracker().Top(metric, limit) {
			fmt.Println(monitor.FormatEntryLine(e, policy.Classify(e.Record.Name).String()))
		}

		fmt.Printf("\nPress Ctrl+C to exit | Poll interval: %s | Window: %d samples\n",
			a.cfg.Monitoring.PollInterval, mon.Tracker().WindowSize())
	})
	mon.OnError(func(err error) {
		a.notifier.Warn(fmt.Sprintf("poll failed: %v", err))
	})

	ctx, cancel := interruptContext(func() { a.notifier.Info("Shutting down...") })
	defer cancel()

	if err := mon.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// interruptContext is cancelled on SIGINT or SIGTERM. onSignal runs first.
func interruptContext(onSignal func()) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigCh)
		select {
		case <-sigCh:
			if onSignal != nil {
				onSignal()
			}
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}
