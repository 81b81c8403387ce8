package booster

import (
	"strings"

	"github.com/iamgilwell/booster/internal/monitor"
	"github.com/iamgilwell/booster/internal/safety"
)

// Query selects and orders a ranked view.
type Query struct {
	Metric          monitor.Metric
	Limit           int // <= 0 means no limit
	Filter          string
	BlacklistedOnly bool
}

// RankedProcess is one row of a ranked view.
type RankedProcess struct {
	PID         int            `json:"pid"`
	Name        string         `json:"name"`
	Owner       string         `json:"owner,omitempty"`
	SystemOwned bool           `json:"system_owned"`
	CPU         float64        `json:"cpu"`
	Memory      float64        `json:"memory"`
	GPU         *float64       `json:"gpu,omitempty"`
	Samples     int            `json:"samples"`
	Verdict     safety.Verdict `json:"verdict"`
}

// DisplayName is the name with the system annotation.
func (r RankedProcess) DisplayName() string {
	if r.SystemOwned {
		return r.Name + " (SYSTEM)"
	}
	return r.Name
}

// Entry converts the row back to a monitor entry.
func (r RankedProcess) Entry() monitor.Entry {
	return monitor.Entry{
		Record: monitor.ProcessRecord{PID: r.PID, Name: r.Name, Owner: r.Owner, SystemOwned: r.SystemOwned},
		Usage:  monitor.Usage{CPU: r.CPU, Memory: r.Memory, GPU: r.GPU, Samples: r.Samples},
	}
}

// RankedView returns processes with data ordered by q.Metric, filtered by
// name substring and verdict, then cut to q.Limit.
func (b *Booster) RankedView(q Query) []RankedProcess {
	snap := b.policy.Snapshot()
	filter := strings.ToLower(strings.TrimSpace(q.Filter))

	var out []RankedProcess
	for _, e := range b.tracker.Top(q.Metric, 0) {
		if filter != "" && !strings.Contains(strings.ToLower(e.Record.Name), filter) {
			continue
		}
		v := snap.Classify(e.Record.Name)
		if q.BlacklistedOnly && v != safety.Blacklisted {
			continue
		}
		out = append(out, ranked(e, v))
		if q.Limit > 0 && len(out) == q.Limit {
			break
		}
	}
	return out
}

func ranked(e monitor.Entry, v safety.Verdict) RankedProcess {
	return RankedProcess{
		PID:         e.Record.PID,
		Name:        e.Record.Name,
		Owner:       e.Record.Owner,
		SystemOwned: e.Record.SystemOwned,
		CPU:         e.Usage.CPU,
		Memory:      e.Usage.Memory,
		GPU:         e.Usage.GPU,
		Samples:     e.Usage.Samples,
		Verdict:     v,
	}
}
