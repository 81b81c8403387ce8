package booster

import (
	"fmt"

	"github.com/iamgilwell/booster/internal/monitor"
	"github.com/iamgilwell/booster/internal/process"
	"github.com/iamgilwell/booster/internal/safety"
	"github.com/iamgilwell/booster/internal/store"
)

// Report summarises a bulk action.
type Report struct {
	Action  string           `json:"action"`
	Results []process.Result `json:"results"`
	Killed  int              `json:"killed"`
	Skipped int              `json:"skipped"`
}

func (r *Report) add(res process.Result) {
	r.Results = append(r.Results, res)
	if res.Killed() {
		r.Killed++
	}
}

// Summary is a one-line description of the report.
func (r Report) Summary() string {
	return fmt.Sprintf("%s: %d terminated, %d attempted, %d skipped", r.Action, r.Killed, len(r.Results), r.Skipped)
}

// Boost looks at the top processes by smoothed CPU and terminates those that
// are blacklisted or above the CPU threshold. Protected processes are skipped;
// the anti-malware service is reported with its advisory.
func (b *Booster) Boost(decide process.ForceDecision) Report {
	rep := Report{Action: "boost"}
	snap := b.policy.Snapshot()

	for _, e := range b.tracker.Top(monitor.MetricCPU, b.opts.TopN) {
		switch snap.Classify(e.Record.Name) {
		case safety.Protected:
			rep.Skipped++
			if safety.IsAntiMalware(e.Record.Name) {
				rep.Results = append(rep.Results, process.Result{
					Outcome:  process.Protected,
					PID:      e.Record.PID,
					Name:     e.Record.Name,
					Advisory: safety.AntiMalwareAdvisory,
					Trace:    []process.State{process.StateRequested, process.StateAborted},
				})
				b.log.Warn(safety.AntiMalwareAdvisory)
			}
			continue
		case safety.Blacklisted:
		default:
			if e.Usage.CPU <= b.opts.CPUThreshold {
				rep.Skipped++
				continue
			}
		}
		req := process.Request{PID: e.Record.PID, ExpectedName: e.Record.Name}
		rep.add(b.run(req, decide, "boost"))
	}

	b.log.Info(rep.Summary())
	return rep
}

// Cleanup terminates every live process named in the cleanup targets.
func (b *Booster) Cleanup(decide process.ForceDecision) Report {
	rep := Report{Action: "cleanup"}
	targets := safety.NewNameSet(b.opts.CleanupTargets...)
	rep.Results, rep.Killed, rep.Skipped = b.killNamed(targets, decide, "cleanup")
	b.log.Info(rep.Summary())
	return rep
}

// KillSelected terminates every live process whose name is selected.
func (b *Booster) KillSelected(decide process.ForceDecision) Report {
	rep := Report{Action: "kill-selected"}
	b.selMu.Lock()
	sel := b.selected
	b.selMu.Unlock()
	rep.Results, rep.Killed, rep.Skipped = b.killNamed(sel, decide, "selected")
	b.log.Info(rep.Summary())
	return rep
}

func (b *Booster) killNamed(names safety.NameSet, decide process.ForceDecision, reason string) ([]process.Result, int, int) {
	if names.Len() == 0 {
		return nil, 0, 0
	}
	snap := b.policy.Snapshot()

	var (
		results []process.Result
		killed  int
		skipped int
	)
	for _, rec := range b.tracker.Records() {
		if !names.Contains(rec.Name) {
			continue
		}
		if snap.Classify(rec.Name) == safety.Protected {
			skipped++
			continue
		}
		res := b.run(process.Request{PID: rec.PID, ExpectedName: rec.Name}, decide, reason)
		results = append(results, res)
		if res.Killed() {
			killed++
		}
	}
	return results, killed, skipped
}

// Select adds names to the persisted selection.
func (b *Booster) Select(names ...string) error {
	return b.updateSelection(func(s safety.NameSet) safety.NameSet {
		for _, n := range names {
			s, _ = s.With(n)
		}
		return s
	})
}

// Deselect removes names from the selection.
func (b *Booster) Deselect(names ...string) error {
	return b.updateSelection(func(s safety.NameSet) safety.NameSet {
		for _, n := range names {
			s, _ = s.Without(n)
		}
		return s
	})
}

// ClearSelection empties the selection.
func (b *Booster) ClearSelection() error {
	return b.updateSelection(func(safety.NameSet) safety.NameSet { return safety.NewNameSet() })
}

// Selected returns the selected names in the order they were added.
func (b *Booster) Selected() []string {
	b.selMu.Lock()
	defer b.selMu.Unlock()
	return b.selected.Names()
}

// IsSelected reports whether name is selected.
func (b *Booster) IsSelected(name string) bool {
	b.selMu.Lock()
	defer b.selMu.Unlock()
	return b.selected.Contains(name)
}

func (b *Booster) updateSelection(fn func(safety.NameSet) safety.NameSet) error {
	b.selMu.Lock()
	defer b.selMu.Unlock()

	next := fn(b.selected)
	if b.selStore != nil {
		if err := b.selStore.Save(store.KeySelected, next.Names()); err != nil {
			return fmt.Errorf("save selection: %w", err)
		}
	}
	b.selected = next
	return nil
}
