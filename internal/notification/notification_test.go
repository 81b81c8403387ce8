package notification

import (
	"bufio"
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/iamgilwell/booster/internal/process"
	"github.com/iamgilwell/booster/internal/safety"
)

func TestNotifierLevels(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "booster.log")
	n, err := NewNotifier(logPath, false, false)
	require.NoError(t, err)
	defer n.Close()

	var buf bytes.Buffer
	n.SetOutput(&buf)
	n.Info("polling")
	n.Debug("hidden")
	n.Warn("slow")

	assert.Equal(t, "[INFO] polling\n[WARN] slow\n", buf.String())

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "[INFO] polling")
	assert.NotContains(t, string(data), "hidden")
}

func TestNotifierTerminationShowsAdvisory(t *testing.T) {
	n, err := NewNotifier("", false, false)
	require.NoError(t, err)

	var buf bytes.Buffer
	n.SetOutput(&buf)
	n.Termination(process.Result{
		Outcome:  process.Protected,
		PID:      9,
		Name:     safety.AntiMalwareService,
		Advisory: safety.AntiMalwareAdvisory,
	})

	assert.Contains(t, buf.String(), "Protected")
	assert.Contains(t, buf.String(), "NOT RECOMMENDED")
}

func TestAuditorWritesJSONLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.jsonl")
	a, err := NewAuditor(path)
	require.NoError(t, err)

	a.LogTermination(process.Result{Outcome: process.Killed, PID: 5, Name: "x.exe", Trace: []process.State{process.StateRequested, process.StateDone}})
	a.LogPolicy("protect", "steam.exe")
	a.Close()

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var lines []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	require.Len(t, lines, 2)
	assert.Equal(t, "Killed", gjson.Get(lines[0], "result.outcome").String())
	assert.Equal(t, "Done", gjson.Get(lines[0], "result.trace.1").String())
	assert.Equal(t, "protect steam.exe", gjson.Get(lines[1], "details").String())
}

func TestAuditorDisabled(t *testing.T) {
	a, err := NewAuditor("")
	require.NoError(t, err)
	a.LogEvent("noop", "")
	a.Close()
}

func TestFollowHoldsPartialLineUntilNewline(t *testing.T) {
	path := filepath.Join(t.TempDir(), "booster.log")
	require.NoError(t, os.WriteFile(path, []byte("[INFO] one\n[WARN] tw"), 0o644))
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	ctx, cancel := context.WithCancel(context.Background())
	lines := make(chan string, 8)
	errc := make(chan error, 1)
	go func() { errc <- Follow(ctx, f, true, 5*time.Millisecond, func(l string) { lines <- l }) }()

	assert.Equal(t, "[INFO] one", <-lines)

	w, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = w.WriteString("o\n")
	require.NoError(t, err)
	w.Close()

	select {
	case l := <-lines:
		assert.Equal(t, "[WARN] two", l)
	case <-time.After(2 * time.Second):
		t.Fatal("appended line was not followed")
	}
	cancel()
	assert.NoError(t, <-errc)
}

func TestFollowWithoutFollowFlushesTail(t *testing.T) {
	var got []string
	err := Follow(context.Background(), strings.NewReader("a\r\nb"), false, time.Millisecond, func(l string) { got = append(got, l) })
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, got)
}

func TestReplayConsoleOnly(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "booster.log")
	n, err := NewNotifier(logPath, true, false)
	require.NoError(t, err)
	defer n.Close()

	var buf bytes.Buffer
	n.SetOutput(&buf)
	n.Replay("2026/01/02 10:00:00 [ERROR] boom")
	n.Replay("plain")

	assert.Equal(t, colorRed+"2026/01/02 10:00:00 [ERROR] boom"+colorReset+"\nplain\n", buf.String())
	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Empty(t, data)
}

func TestFormatAuditLine(t *testing.T) {
	line := `{"timestamp":"2026-01-02T10:00:00Z","event":"termination","result":{"outcome":"Killed","pid":42,"name":"app.exe","method":"process-tree","cause":"left protected descendants running: pids [43]","trace":[]}}`
	got := FormatAuditLine(line)
	assert.Contains(t, got, "termination")
	assert.Contains(t, got, "PID=42")
	assert.Contains(t, got, "Killed via process-tree")
	assert.Contains(t, got, "pids [43]")

	assert.Equal(t, "not json {", FormatAuditLine("not json {"))
}
