package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/iamgilwell/booster/internal/process"
)

var killName string

var killCmd = &cobra.Command{
	Use:   "kill <pid>...",
	Short: "Terminate processes by pid",
	Long: `Requests a graceful exit for each pid and, when it does not exit within
safety.terminate_timeout, force-kills it according to --force.
Protected processes are refused before any signal is sent.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runKill,
}

func init() {
	killCmd.Flags().StringVar(&killName, "name", "", "expected process name; a pid now owned by another program is left alone")
}

func runKill(cmd *cobra.Command, args []string) error {
	pids := make([]int, 0, len(args))
	for _, s := range args {
		pid, err := strconv.Atoi(s)
		if err != nil || pid <= 0 {
			return fmt.Errorf("invalid pid %q", s)
		}
		pids = append(pids, pid)
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	// One poll so the tracker knows each pid's name.
	if _, err := a.booster.Poll(cmd.Context()); err != nil {
		a.notifier.Warn(fmt.Sprintf("poll failed: %v", err))
	}

	decide := a.decision()
	failed := 0
	for _, pid := range pids {
		var res process.Result
		if killName != "" {
			res = a.booster.TerminateRequest(process.Request{PID: pid, ExpectedName: killName}, decide)
		} else {
			res = a.booster.Terminate(pid, decide)
		}
		a.notifier.Termination(res)
		if !res.Killed() {
			failed++
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d processes were not terminated", failed, len(pids))
	}
	return nil
}
