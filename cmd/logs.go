package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/iamgilwell/booster/internal/config"
	"github.com/iamgilwell/booster/internal/notification"
)

var (
	followLogs bool
	auditLogs  bool
)

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "View the booster log or audit trail",
	RunE:  runLogs,
}

func init() {
	logsCmd.Flags().BoolVar(&followLogs, "follow", false, "keep printing lines as they are appended")
	logsCmd.Flags().BoolVar(&auditLogs, "audit", false, "show the audit trail instead of the log")
}

func runLogs(cmd *cobra.Command, args []string) error {
	cfg := config.Global.Notifications
	path := cfg.LogFile
	if auditLogs {
		path = cfg.AuditFile
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	// Console-only notifier: replayed lines must not be appended to the file
	// being read.
	out, err := notification.NewNotifier("", cfg.ColorEnabled, false)
	if err != nil {
		return err
	}
	out.SetOutput(cmd.OutOrStdout())

	emit := out.Replay
	if auditLogs {
		emit = func(line string) { out.Replay(notification.FormatAuditLine(line)) }
	}

	ctx, cancel := interruptContext(nil)
	defer cancel()
	return notification.Follow(ctx, f, followLogs, 500*time.Millisecond, emit)
}
