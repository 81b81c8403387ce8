package cmd

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"

	"github.com/iamgilwell/booster/internal/monitor"
	"github.com/iamgilwell/booster/internal/process"
	"github.com/iamgilwell/booster/internal/safety"
)

var autoboostEvery time.Duration

var autoboostCmd = &cobra.Command{
	Use:   "autoboost",
	Short: "Keep boosting on an interval",
	Long: `Runs the monitor and performs a boost every --every. There is nobody to
ask, so the force prompt is treated as a decline; use --force=always to
escalate unattended. Use with caution!`,
	RunE: runAutoboost,
}

func init() {
	autoboostCmd.Flags().DurationVar(&autoboostEvery, "every", time.Minute, "time between boosts")
}

func runAutoboost(cmd *cobra.Command, args []string) error {
	if autoboostEvery <= 0 {
		return fmt.Errorf("--every must be positive")
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	decide := process.DecisionFor(a.mode, nil)
	a.notifier.Warn(fmt.Sprintf("AUTOBOOST ACTIVE - boosting every %s, force: %s", autoboostEvery, safety.ModeDescription(a.mode)))
	a.auditor.LogEvent("autoboost_start", fmt.Sprintf("every=%s force=%s", autoboostEvery, a.mode))

	var (
		last    time.Time
		running atomic.Bool
	)
	session := a.booster.Session()
	mon := a.booster.Monitor()

	mon.OnUpdate(func(_ []monitor.Entry, metrics *monitor.SystemMetrics) {
		if time.Since(last) < autoboostEvery || !running.CompareAndSwap(false, true) {
			return
		}
		last = time.Now()

		// Terminations wait on the graceful timeout; keep polling meanwhile.
		go func() {
			defer running.Store(false)
			rep := a.booster.Boost(decide)
			if len(rep.Results) > 0 {
				a.printReport(rep)
			}

			fmt.Printf("\n[%s] Processes: %d | CPU: %.1f%% | Mem: %.1f%% | Killed: %d | CPU reclaimed: %.1f%%\n",
				time.Now().Format("15:04:05"),
				metrics.NumProcs, metrics.CPUPercent, metrics.MemPercent,
				session.Count(), session.TotalCPU())
		}()
	})

	ctx, cancel := interruptContext(func() {
		a.notifier.Info("Shutting down autoboost...")
		a.auditor.LogEvent("autoboost_stop", fmt.Sprintf("killed=%d cpu_reclaimed=%.1f", session.Count(), session.TotalCPU()))
	})
	defer cancel()

	// Skip the first boost until the windows have CPU deltas.
	last = time.Now().Add(-autoboostEvery).Add(a.cfg.Monitoring.PollInterval)

	if err := mon.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
