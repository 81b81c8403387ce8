package monitor

import (
	"context"
	"errors"
	"iter"
	"os"
	"slices"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCPUPercent(t *testing.T) {
	base := time.Unix(1000, 0)
	prev := cpuBaseline{total: 10, at: base}

	assert.InDelta(t, 50.0, cpuPercent(prev, cpuBaseline{total: 11, at: base.Add(2 * time.Second)}, 4), 1e-9)
	assert.Equal(t, 0.0, cpuPercent(prev, cpuBaseline{total: 9, at: base.Add(time.Second)}, 4), "negative delta clamps to zero")
	assert.Equal(t, 400.0, cpuPercent(prev, cpuBaseline{total: 100, at: base.Add(time.Second)}, 4), "clamped to cores*100")
	assert.Equal(t, 0.0, cpuPercent(prev, cpuBaseline{total: 20, at: base}, 4), "no elapsed time")
}

func TestIsSystemOwned(t *testing.T) {
	tests := []struct {
		name, owner, exe string
		want             bool
	}{
		{"svchost.exe", `NT AUTHORITY\SYSTEM`, "", true},
		{"svchost.exe", `NT AUTHORITY\LOCAL SERVICE`, "", true},
		{"svchost.exe", "Network Service", "", true},
		{"explorer.exe", "DESKTOP\\alice", `C:\Windows\System32\explorer.exe`, true},
		{"sshd", "root", "/usr/sbin/sshd", true},
		{"systemd", "", "", true},
		{"chrome.exe", "DESKTOP\\alice", `C:\Program Files\Google\chrome.exe`, false},
		{"vim", "alice", "/usr/bin/vim", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsSystemOwned(tt.name, tt.owner, tt.exe), "%s/%s", tt.name, tt.owner)
	}
}

func TestParsePmon(t *testing.T) {
	out := `# gpu         pid   type     sm    mem    enc    dec   command
# Idx           #    C/G      %      %      %      %   name
    0       1234     G     35      -      -      -   Xorg
    0       5678     C      -      -      -      -   idle
    0       4321     C     12      -      -      -   python
    1       4321     C      8      -      -      -   python
    0          -     -      -      -      -      -   -
`
	got := parsePmon(out)
	assert.Equal(t, map[int]float64{1234: 35, 4321: 20}, got)
}

type fakeSource struct {
	polls [][]Observation
	calls atomic.Int32
	err   error
}

func (f *fakeSource) Sample(ctx context.Context) (iter.Seq[Observation], error) {
	if f.err != nil {
		return nil, f.err
	}
	i := int(f.calls.Add(1)) - 1
	if i >= len(f.polls) {
		i = len(f.polls) - 1
	}
	return slices.Values(f.polls[i]), nil
}

func testMonitor(src Source) *ProcessMonitor {
	m := NewProcessMonitor(src, NewTracker(3), 10*time.Millisecond)
	m.system = func(context.Context) *SystemMetrics { return &SystemMetrics{} }
	return m
}

func TestMonitorPollFeedsTracker(t *testing.T) {
	src := &fakeSource{polls: [][]Observation{
		{obs(1, "a", 1, nil), obs(2, "b", 1, nil)},
		{obs(1, "a", 1, sampleOf(30)), obs(2, "b", 1, sampleOf(10))},
	}}
	m := testMonitor(src)

	var got []Entry
	m.OnUpdate(func(entries []Entry, _ *SystemMetrics) { got = entries })

	require.NoError(t, m.Warmup(context.Background(), 2, time.Millisecond))
	require.Len(t, got, 2)
	assert.Equal(t, 1, got[0].Record.PID)
	assert.InDelta(t, 40.0, m.SystemMetrics().TrackedCPU, 1e-9)
	assert.Equal(t, 2, m.SystemMetrics().NumProcs)
}

func TestMonitorPollError(t *testing.T) {
	m := testMonitor(&fakeSource{err: errors.New("boom")})
	_, err := m.Poll(context.Background())
	assert.ErrorContains(t, err, "boom")
}

func TestMonitorStartReportsErrorsAndStops(t *testing.T) {
	m := testMonitor(&fakeSource{err: errors.New("denied")})

	var errs atomic.Int32
	m.OnError(func(error) { errs.Add(1) })

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := m.Start(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.GreaterOrEqual(t, errs.Load(), int32(1))
}

func TestPsutilSourceLive(t *testing.T) {
	src := NewPsutilSource(nil)
	self := os.Getpid()

	collect := func() map[int]Observation {
		seq, err := src.Sample(context.Background())
		require.NoError(t, err)
		out := make(map[int]Observation)
		for o := range seq {
			out[o.Record.PID] = o
		}
		return out
	}

	first := collect()
	require.Contains(t, first, self)
	assert.NotContains(t, first, 0)
	assert.Nil(t, first[self].Sample, "first sighting only records a baseline")

	time.Sleep(50 * time.Millisecond)
	second := collect()
	require.Contains(t, second, self)
	assert.NotContains(t, second, 0)
	require.NotNil(t, second[self].Sample)
	assert.GreaterOrEqual(t, second[self].Sample.CPU, 0.0)
	assert.NotEmpty(t, second[self].Record.Name)
}
