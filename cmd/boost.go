package cmd

import (
	"github.com/spf13/cobra"
)

var boostCmd = &cobra.Command{
	Use:   "boost",
	Short: "One-click boost: terminate heavy and blacklisted processes",
	Long: `Ranks processes by smoothed CPU and terminates, among the top boost.top_n,
every blacklisted process and every process above boost.cpu_threshold.
Critical, whitelisted and anti-malware processes are skipped.`,
	RunE: runBoost,
}

func runBoost(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.warmup(cmd.Context()); err != nil {
		return err
	}

	rep := a.booster.Boost(a.decision())
	a.auditor.LogEvent("boost", rep.Summary())
	a.printReport(rep)
	return nil
}
