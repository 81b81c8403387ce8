package notification

import (
	"fmt"
	"io"
	"log"
	"os"
	"sync"
	"time"

	"github.com/iamgilwell/booster/internal/advisor"
	"github.com/iamgilwell/booster/internal/process"
)

// Color codes for terminal output.
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorBlue   = "\033[34m"
	colorCyan   = "\033[36m"
	colorBold   = "\033[1m"
)

// Notifier handles terminal output and file logging.
type Notifier struct {
	mu           sync.Mutex
	out          io.Writer
	logFile      *os.File
	logger       *log.Logger
	colorEnabled bool
	verbose      bool
}

// NewNotifier creates a new notifier.
func NewNotifier(logFilePath string, colorEnabled, verbose bool) (*Notifier, error) {
	n := &Notifier{
		out:          os.Stdout,
		colorEnabled: colorEnabled,
		verbose:      verbose,
	}

	if logFilePath != "" {
		f, err := os.OpenFile(logFilePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return nil, fmt.Errorf("opening log file: %w", err)
		}
		n.logFile = f
		n.logger = log.New(f, "", log.LstdFlags)
	}

	return n, nil
}

// SetOutput redirects console output. A nil writer silences the console,
// which the TUI uses while it owns the terminal.
func (n *Notifier) SetOutput(w io.Writer) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if w == nil {
		w = io.Discard
	}
	n.out = w
}

// Close closes the log file.
func (n *Notifier) Close() {
	if n.logFile != nil {
		n.logFile.Close()
	}
}

// Info logs an informational message.
func (n *Notifier) Info(msg string) { n.emit("INFO", colorGreen, msg) }

// Warn logs a warning message.
func (n *Notifier) Warn(msg string) { n.emit("WARN", colorYellow, msg) }

// Error logs an error message.
func (n *Notifier) Error(msg string) { n.emit("ERROR", colorRed, msg) }

// Debug logs a debug message (only if verbose).
func (n *Notifier) Debug(msg string) {
	if !n.verbose {
		return
	}
	n.emit("DEBUG", colorCyan, msg)
}

func (n *Notifier) emit(level, color, msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.colorEnabled {
		fmt.Fprintf(n.out, "%s[%s]%s %s\n", color, level, colorReset, msg)
	} else {
		fmt.Fprintf(n.out, "[%s] %s\n", level, msg)
	}

	if n.logger != nil {
		n.logger.Printf("[%s] %s", level, msg)
	}
}

// Termination logs the result of a termination request.
func (n *Notifier) Termination(r process.Result) {
	n.mu.Lock()
	defer n.mu.Unlock()

	var color string
	switch r.Outcome {
	case process.Killed, process.AlreadyGone:
		color = colorGreen
	case process.Protected, process.UserDeclinedForce:
		color = colorYellow
	default:
		color = colorRed
	}

	line := FormatResult(r)
	if n.colorEnabled {
		fmt.Fprintf(n.out, "%s[KILL]%s %s%-17s%s %s\n", colorBold, colorReset, color, r.Outcome, colorReset, line)
	} else {
		fmt.Fprintf(n.out, "[KILL] %-17s %s\n", r.Outcome, line)
	}
	if r.Advisory != "" {
		fmt.Fprintf(n.out, "       %s\n", r.Advisory)
	}

	if n.logger != nil {
		n.logger.Printf("[KILL] %s %s", r.Outcome, line)
	}
}

// Recommendation logs an advisor recommendation with color coding.
func (n *Notifier) Recommendation(r *advisor.Recommendation) {
	n.mu.Lock()
	defer n.mu.Unlock()

	var color string
	switch r.Action {
	case advisor.ActionFlag:
		color = colorRed
	case advisor.ActionProtect:
		color = colorBlue
	default:
		color = colorGreen
	}

	cached := ""
	if r.FromCache {
		cached = " (cached)"
	}
	if n.colorEnabled {
		fmt.Fprintf(n.out, "%s[AI]%s %s%-8s%s PID=%-7d %-24s conf=%.2f %s%s\n",
			colorBold, colorReset, color, string(r.Action), colorReset,
			r.PID, r.Name, r.Confidence, r.Reason, cached)
	} else {
		fmt.Fprintf(n.out, "[AI] %-8s PID=%-7d %-24s conf=%.2f %s%s\n",
			string(r.Action), r.PID, r.Name, r.Confidence, r.Reason, cached)
	}

	if n.logger != nil {
		n.logger.Printf("[AI] %s PID=%d %s conf=%.2f %s", string(r.Action), r.PID, r.Name, r.Confidence, r.Reason)
	}
}

// FormatResult renders a termination result on one line.
func FormatResult(r process.Result) string {
	s := fmt.Sprintf("PID=%-7d %-24s", r.PID, r.Name)
	if r.Method != "" {
		s += " via " + r.Method
	}
	if r.Cause != "" && r.Advisory == "" {
		s += " (" + r.Cause + ")"
	}
	return s
}

// FormatTimestamp formats a time for display.
func FormatTimestamp(t time.Time) string {
	return t.Format("15:04:05")
}
