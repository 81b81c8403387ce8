package cmd

import (
	"strings"

	"github.com/spf13/cobra"
)

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Terminate the configured background apps",
	RunE:  runCleanup,
}

func runCleanup(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if _, err := a.booster.Poll(cmd.Context()); err != nil {
		return err
	}

	a.notifier.Debug("cleanup targets: " + strings.Join(a.booster.Options().CleanupTargets, ", "))
	rep := a.booster.Cleanup(a.decision())
	a.auditor.LogEvent("cleanup", rep.Summary())
	a.printReport(rep)
	return nil
}
