package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/iamgilwell/booster/internal/advisor"
	"github.com/iamgilwell/booster/internal/booster"
	"github.com/iamgilwell/booster/internal/monitor"
)

var adviseLimit int

var adviseCmd = &cobra.Command{
	Use:   "advise",
	Short: "Ask the AI advisor about the top processes",
	Long: `Evaluates the heaviest processes with Claude and prints a flag, keep or
protect suggestion for each. Nothing is terminated or written to policy.`,
	RunE: runAdvise,
}

func init() {
	adviseCmd.Flags().IntVar(&adviseLimit, "limit", 5, "number of processes to evaluate")
}

func runAdvise(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if a.advisor == nil {
		return fmt.Errorf("advisor is disabled: set advisor.enabled and ANTHROPIC_API_KEY")
	}

	ctx := cmd.Context()
	if err := a.warmup(ctx); err != nil {
		return err
	}

	state := monitor.GetSystemMetrics(ctx)
	for _, p := range a.booster.RankedView(booster.Query{Metric: monitor.MetricCPU, Limit: adviseLimit}) {
		rec := a.advisor.Evaluate(ctx, advisor.Candidate{Entry: p.Entry(), Verdict: p.Verdict}, state)
		a.notifier.Recommendation(rec)
		a.auditor.LogRecommendation(rec)
	}
	return nil
}
