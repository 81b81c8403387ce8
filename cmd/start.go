package cmd

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/iamgilwell/booster/internal/config"
)

var daemon bool

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start booster's API server in the background",
	RunE:  runStart,
}

func init() {
	startCmd.Flags().BoolVar(&daemon, "daemon", false, "run as background daemon")
}

func pidFilePath() string {
	return filepath.Join(os.TempDir(), "booster.pid")
}

func readPidFile() (int, error) {
	data, err := os.ReadFile(pidFilePath())
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("invalid PID file: %w", err)
	}
	return pid, nil
}

func runStart(cmd *cobra.Command, args []string) error {
	// Check if already running
	if pid, err := readPidFile(); err == nil {
		if running, _ := processAlive(pid); running {
			return fmt.Errorf("booster daemon already running (PID: %d)", pid)
		}
	}

	if !daemon {
		fmt.Println("Starting booster API server in the foreground...")
		fmt.Println("Use --daemon flag to run in background.")
		return runServe(cmd, args)
	}

	executable, err := os.Executable()
	if err != nil {
		return fmt.Errorf("finding executable: %w", err)
	}

	daemonArgs := []string{"serve"}
	if cfgFile != "" {
		daemonArgs = append(daemonArgs, "--config", cfgFile)
	}

	proc := exec.Command(executable, daemonArgs...)
	proc.Stdout = nil
	proc.Stderr = nil
	proc.Stdin = nil

	if err := proc.Start(); err != nil {
		return fmt.Errorf("starting daemon: %w", err)
	}

	if err := os.WriteFile(pidFilePath(), []byte(strconv.Itoa(proc.Process.Pid)), 0644); err != nil {
		return fmt.Errorf("writing pid file: %w", err)
	}

	fmt.Printf("Booster daemon started (PID: %d)\n", proc.Process.Pid)
	fmt.Printf("PID file: %s\n", pidFilePath())
	fmt.Printf("API: http://%s\n", config.Global.API.Listen)
	fmt.Println("Use 'booster stop' to stop the daemon.")
	fmt.Println("Use 'booster logs --follow' to watch the log output.")

	return nil
}
