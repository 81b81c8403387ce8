package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/iamgilwell/booster/internal/process"
)

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the booster daemon",
	RunE:  runStop,
}

func processAlive(pid int) (bool, error) {
	h, err := process.NewPsutilController().Open(pid)
	if err != nil {
		return false, err
	}
	return h.IsRunning()
}

func runStop(cmd *cobra.Command, args []string) error {
	pid, err := readPidFile()
	if os.IsNotExist(err) {
		return fmt.Errorf("booster daemon is not running (no PID file found)")
	}
	if err != nil {
		return err
	}

	h, err := process.NewPsutilController().Open(pid)
	if err != nil {
		// Process might already be dead
		os.Remove(pidFilePath())
		return fmt.Errorf("finding process %d: %w (PID file cleaned up)", pid, err)
	}

	if err := h.Terminate(); err != nil {
		os.Remove(pidFilePath())
		return fmt.Errorf("stopping PID %d: %w (PID file cleaned up)", pid, err)
	}

	os.Remove(pidFilePath())
	fmt.Printf("Booster daemon stopped (PID: %d)\n", pid)
	return nil
}
