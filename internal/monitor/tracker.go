package monitor

import (
	"iter"
	"sort"
	"strings"
	"sync"
)

// IngestStats summarises one ingest.
type IngestStats struct {
	Observed int
	Added    int
	Recycled int
	Pruned   int
}

type tracked struct {
	record ProcessRecord
	window *RollingWindow
	gpu    *float64
}

// Tracker keeps a rolling window of usage per live pid. Ingest is the only
// writer; all reads see either the whole of a poll or none of it.
type Tracker struct {
	mu         sync.RWMutex
	windowSize int
	procs      map[int]*tracked
}

// NewTracker creates a tracker averaging over windowSize samples.
func NewTracker(windowSize int) *Tracker {
	if windowSize < 1 {
		windowSize = DefaultWindowSize
	}
	return &Tracker{
		windowSize: windowSize,
		procs:      make(map[int]*tracked),
	}
}

// WindowSize returns the configured window capacity.
func (t *Tracker) WindowSize() int {
	return t.windowSize
}

// Ingest merges one poll. Pids missing from the poll are dropped together with
// their windows, and a pid whose identity changed starts a fresh window.
func (t *Tracker) Ingest(observations iter.Seq[Observation]) IngestStats {
	// Drain first so the lock is held only for the in-memory merge.
	var batch []Observation
	for o := range observations {
		if o.Record.PID <= 0 {
			continue
		}
		batch = append(batch, o)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	stats := IngestStats{Observed: len(batch)}
	seen := make(map[int]struct{}, len(batch))

	for _, o := range batch {
		pid := o.Record.PID
		seen[pid] = struct{}{}

		cur, ok := t.procs[pid]
		switch {
		case !ok:
			cur = &tracked{window: NewRollingWindow(t.windowSize)}
			t.procs[pid] = cur
			stats.Added++
		case !cur.record.SameProcess(o.Record):
			cur.window = NewRollingWindow(t.windowSize)
			cur.gpu = nil
			stats.Recycled++
		}

		cur.record = o.Record
		if o.Sample != nil {
			cur.window.Push(*o.Sample)
		}
		if o.GPU != nil {
			v := *o.GPU
			cur.gpu = &v
		} else {
			cur.gpu = nil
		}
	}

	for pid := range t.procs {
		if _, ok := seen[pid]; !ok {
			delete(t.procs, pid)
			stats.Pruned++
		}
	}

	return stats
}

// Smoothed returns the mean usage of pid, or false when the pid is unknown or
// has no samples yet.
func (t *Tracker) Smoothed(pid int) (Usage, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	cur, ok := t.procs[pid]
	if !ok {
		return Usage{}, false
	}
	return cur.usage()
}

// Record returns the last known identity of pid.
func (t *Tracker) Record(pid int) (ProcessRecord, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	cur, ok := t.procs[pid]
	if !ok {
		return ProcessRecord{}, false
	}
	return cur.record, true
}

// Records returns every tracked record, with or without data, by pid.
func (t *Tracker) Records() []ProcessRecord {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]ProcessRecord, 0, len(t.procs))
	for _, cur := range t.procs {
		out = append(out, cur.record)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PID < out[j].PID })
	return out
}

// Len returns the number of tracked pids.
func (t *Tracker) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.procs)
}

// Top returns up to k processes that have data, ordered descending by metric
// with ties broken by ascending pid. MetricName orders alphabetically. k <= 0
// returns all of them. MetricGPU only considers processes with a GPU reading.
func (t *Tracker) Top(metric Metric, k int) []Entry {
	t.mu.RLock()
	entries := make([]Entry, 0, len(t.procs))
	for _, cur := range t.procs {
		u, ok := cur.usage()
		if !ok {
			continue
		}
		if metric == MetricGPU && u.GPU == nil {
			continue
		}
		entries = append(entries, Entry{Record: cur.record, Usage: u})
	}
	t.mu.RUnlock()

	SortEntries(entries, metric)
	if k > 0 && len(entries) > k {
		entries = entries[:k]
	}
	return entries
}

// SortEntries orders entries the way Top does.
func SortEntries(entries []Entry, metric Metric) {
	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		switch metric {
		case MetricMemory:
			if a.Usage.Memory != b.Usage.Memory {
				return a.Usage.Memory > b.Usage.Memory
			}
		case MetricGPU:
			ag, bg := gpuValue(a.Usage), gpuValue(b.Usage)
			if ag != bg {
				return ag > bg
			}
		case MetricName:
			an, bn := strings.ToLower(a.Record.Name), strings.ToLower(b.Record.Name)
			if an != bn {
				return an < bn
			}
		default:
			if a.Usage.CPU != b.Usage.CPU {
				return a.Usage.CPU > b.Usage.CPU
			}
		}
		return a.Record.PID < b.Record.PID
	})
}

func gpuValue(u Usage) float64 {
	if u.GPU == nil {
		return -1
	}
	return *u.GPU
}

func (c *tracked) usage() (Usage, bool) {
	mean, ok := c.window.Mean()
	if !ok {
		return Usage{}, false
	}
	u := Usage{CPU: mean.CPU, Memory: mean.Memory, Samples: c.window.Len()}
	if c.gpu != nil {
		v := *c.gpu
		u.GPU = &v
	}
	return u, true
}
