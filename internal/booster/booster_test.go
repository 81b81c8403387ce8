package booster

import (
	"context"
	"iter"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iamgilwell/booster/internal/monitor"
	"github.com/iamgilwell/booster/internal/process"
	"github.com/iamgilwell/booster/internal/safety"
	"github.com/iamgilwell/booster/internal/store"
)

// tableSource serves the current table on every poll.
type tableSource struct {
	mu    sync.Mutex
	table []monitor.Observation
}

func (s *tableSource) set(obs ...monitor.Observation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.table = obs
}

func (s *tableSource) Sample(context.Context) (iter.Seq[monitor.Observation], error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Values(slices.Clone(s.table)), nil
}

func proc(pid int, name string, cpu float64) monitor.Observation {
	return monitor.Observation{
		Record: monitor.ProcessRecord{PID: pid, Name: name, CreateTime: 1},
		Sample: &monitor.UsageSample{CPU: cpu, Memory: 1},
	}
}

// fakeEngine kills whatever it is asked to unless the name is listed in
// stubborn, and records the requests.
type fakeEngine struct {
	mu       sync.Mutex
	policy   *safety.Policy
	requests []process.Request
	stubborn map[string]bool
}

func (f *fakeEngine) Terminate(req process.Request, decide process.ForceDecision) process.Result {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()

	res := process.Result{PID: req.PID, Name: req.ExpectedName}
	if f.policy.Classify(req.ExpectedName) == safety.Protected {
		res.Outcome = process.Protected
		return res
	}
	if f.stubborn[req.ExpectedName] && (decide == nil || !decide(process.Target{PID: req.PID, Name: req.ExpectedName})) {
		res.Outcome = process.UserDeclinedForce
		return res
	}
	res.Outcome = process.Killed
	res.Method = "graceful"
	return res
}

func (f *fakeEngine) pids() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []int
	for _, r := range f.requests {
		out = append(out, r.PID)
	}
	return out
}

type fixture struct {
	b      *Booster
	src    *tableSource
	engine *fakeEngine
	store  *store.Memory
}

func newFixture(t *testing.T, opts Options) *fixture {
	t.Helper()
	st := store.NewMemory(map[string][]string{
		store.KeyWhitelist: {"steam.exe"},
		store.KeyBlacklist: {"bloat.exe"},
	})
	policy, err := safety.NewPolicy(st, []string{"csrss.exe"})
	require.NoError(t, err)

	src := &tableSource{}
	mon := monitor.NewProcessMonitor(src, monitor.NewTracker(3), time.Second)
	eng := &fakeEngine{policy: policy, stubborn: map[string]bool{}}

	b, err := New(Deps{Monitor: mon, Policy: policy, Engine: eng, Selection: st}, opts)
	require.NoError(t, err)
	return &fixture{b: b, src: src, engine: eng, store: st}
}

func (f *fixture) poll(t *testing.T) {
	t.Helper()
	_, err := f.b.Poll(context.Background())
	require.NoError(t, err)
}

func TestRankedViewFiltersAndLimits(t *testing.T) {
	f := newFixture(t, DefaultOptions())
	f.src.set(
		proc(1, "chrome.exe", 30),
		proc(2, "Chrome Helper", 20),
		proc(3, "bloat.exe", 5),
		proc(4, "steam.exe", 50),
	)
	f.poll(t)

	all := f.b.RankedView(Query{Metric: monitor.MetricCPU})
	require.Len(t, all, 4)
	assert.Equal(t, 4, all[0].PID)
	assert.Equal(t, safety.Protected, all[0].Verdict)

	chrome := f.b.RankedView(Query{Metric: monitor.MetricCPU, Filter: "CHROME", Limit: 1})
	require.Len(t, chrome, 1)
	assert.Equal(t, 1, chrome[0].PID)

	bl := f.b.RankedView(Query{BlacklistedOnly: true})
	require.Len(t, bl, 1)
	assert.Equal(t, "bloat.exe", bl[0].Name)
}

func TestTerminateThenPurgedOnNextPoll(t *testing.T) {
	f := newFixture(t, DefaultOptions())
	f.src.set(proc(10, "game.exe", 40), proc(11, "editor.exe", 2))
	f.poll(t)

	res := f.b.Terminate(10, process.DeclineForce)
	assert.Equal(t, process.Killed, res.Outcome)
	assert.Equal(t, "game.exe", f.engine.requests[0].ExpectedName)
	assert.Equal(t, 1, f.b.Session().Count())
	assert.InDelta(t, 40.0, f.b.Session().TotalCPU(), 1e-9)

	f.src.set(proc(11, "editor.exe", 2))
	f.poll(t)

	_, ok := f.b.Monitor().Tracker().Smoothed(10)
	assert.False(t, ok)
	assert.Len(t, f.b.RankedView(Query{}), 1)
}

func TestBoostTerminatesHeavyAndBlacklisted(t *testing.T) {
	f := newFixture(t, DefaultOptions())
	f.src.set(
		proc(1, "render.exe", 80),
		proc(2, "steam.exe", 70),
		proc(3, "MpDefenderCoreService.exe", 60),
		proc(4, "idle.exe", 3),
		proc(5, "bloat.exe", 1),
		proc(6, "csrss.exe", 90),
	)
	f.poll(t)

	rep := f.b.Boost(process.DeclineForce)
	assert.ElementsMatch(t, []int{1, 5}, f.engine.pids())
	assert.Equal(t, 2, rep.Killed)
	assert.Equal(t, 4, rep.Skipped)

	var advisory bool
	for _, r := range rep.Results {
		if r.Outcome == process.Protected && r.Advisory == safety.AntiMalwareAdvisory {
			advisory = true
		}
	}
	assert.True(t, advisory, "anti-malware skip carries the advisory")
}

func TestBoostRespectsTopN(t *testing.T) {
	f := newFixture(t, Options{TopN: 1, CPUThreshold: 10})
	f.src.set(proc(1, "a.exe", 50), proc(2, "b.exe", 40))
	f.poll(t)

	rep := f.b.Boost(nil)
	assert.Equal(t, []int{1}, f.engine.pids())
	assert.Equal(t, 1, rep.Killed)
}

func TestCleanupTargetsByName(t *testing.T) {
	f := newFixture(t, DefaultOptions())
	f.src.set(
		proc(1, "onedrive.exe", 1),
		proc(2, "YourPhone.exe", 0),
		proc(3, "notepad.exe", 0),
	)
	f.poll(t)

	rep := f.b.Cleanup(process.DeclineForce)
	assert.ElementsMatch(t, []int{1, 2}, f.engine.pids())
	assert.Equal(t, 2, rep.Killed)
}

func TestCleanupSkipsProtectedTargets(t *testing.T) {
	f := newFixture(t, DefaultOptions())
	_, err := f.b.Protect("OneDrive.exe")
	require.NoError(t, err)

	f.src.set(proc(1, "OneDrive.exe", 1))
	f.poll(t)

	rep := f.b.Cleanup(nil)
	assert.Empty(t, f.engine.pids())
	assert.Equal(t, 1, rep.Skipped)
}

func TestDeclinedForceIsReported(t *testing.T) {
	f := newFixture(t, DefaultOptions())
	f.engine.stubborn["hung.exe"] = true
	f.src.set(proc(1, "hung.exe", 50))
	f.poll(t)

	res := f.b.Terminate(1, process.DeclineForce)
	assert.Equal(t, process.UserDeclinedForce, res.Outcome)
	assert.Zero(t, f.b.Session().Count())

	res = f.b.Terminate(1, process.AcceptForce)
	assert.Equal(t, process.Killed, res.Outcome)
}

func TestSelectionPersistsAndKills(t *testing.T) {
	f := newFixture(t, DefaultOptions())
	require.NoError(t, f.b.Select("Discord.exe", "discord.exe", "spotify.exe"))
	require.NoError(t, f.b.Deselect("SPOTIFY.EXE"))

	assert.Equal(t, []string{"Discord.exe"}, f.b.Selected())
	saved, _ := f.store.Load(store.KeySelected)
	assert.Equal(t, []string{"Discord.exe"}, saved)

	f.src.set(proc(7, "discord.exe", 1), proc(8, "discord.exe", 1), proc(9, "other.exe", 1))
	f.poll(t)

	rep := f.b.KillSelected(nil)
	assert.ElementsMatch(t, []int{7, 8}, f.engine.pids())
	assert.Equal(t, 2, rep.Killed)
}

func TestPolicyPassthroughs(t *testing.T) {
	f := newFixture(t, DefaultOptions())

	changed, err := f.b.Flag("miner.exe")
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, safety.Blacklisted, f.b.Policy().Classify("MINER.EXE"))

	changed, err = f.b.Unflag("miner.exe")
	require.NoError(t, err)
	assert.True(t, changed)

	_, err = f.b.Protect("  ")
	assert.Error(t, err)
}
