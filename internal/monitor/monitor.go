package monitor

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// ProcessMonitor polls a Source on an interval and feeds a Tracker.
type ProcessMonitor struct {
	source       Source
	tracker      *Tracker
	pollInterval time.Duration

	pollMu sync.Mutex // serializes polls so the tracker sees one writer

	mu       sync.RWMutex
	metrics  *SystemMetrics
	onUpdate func([]Entry, *SystemMetrics)
	onError  func(error)
	system   func(context.Context) *SystemMetrics
}

// NewProcessMonitor creates a new monitor.
func NewProcessMonitor(source Source, tracker *Tracker, pollInterval time.Duration) *ProcessMonitor {
	if pollInterval <= 0 {
		pollInterval = 2 * time.Second
	}
	return &ProcessMonitor{
		source:       source,
		tracker:      tracker,
		pollInterval: pollInterval,
		metrics:      &SystemMetrics{},
		system:       GetSystemMetrics,
	}
}

// OnUpdate sets a callback invoked after each poll with the full CPU ranking.
func (m *ProcessMonitor) OnUpdate(fn func([]Entry, *SystemMetrics)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onUpdate = fn
}

// OnError sets a callback for polls that fail.
func (m *ProcessMonitor) OnError(fn func(error)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onError = fn
}

// Tracker returns the tracker fed by this monitor.
func (m *ProcessMonitor) Tracker() *Tracker {
	return m.tracker
}

// Start begins the polling loop. A failed poll is reported and the loop
// continues with the next tick.
func (m *ProcessMonitor) Start(ctx context.Context) error {
	m.pollAndReport(ctx)

	ticker := time.NewTicker(m.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			m.pollAndReport(ctx)
		}
	}
}

// Warmup runs n polls spaced by interval so one-shot commands have CPU
// deltas to show.
func (m *ProcessMonitor) Warmup(ctx context.Context, n int, interval time.Duration) error {
	for i := 0; i < n; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(interval):
			}
		}
		if _, err := m.Poll(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Poll takes one snapshot and merges it into the tracker.
func (m *ProcessMonitor) Poll(ctx context.Context) (IngestStats, error) {
	m.pollMu.Lock()
	defer m.pollMu.Unlock()

	seq, err := m.source.Sample(ctx)
	if err != nil {
		return IngestStats{}, fmt.Errorf("sample processes: %w", err)
	}
	stats := m.tracker.Ingest(seq)
	if err := ctx.Err(); err != nil {
		return stats, err
	}

	sys := m.system(ctx)
	sys.NumProcs = stats.Observed
	ranked := m.tracker.Top(MetricCPU, 0)
	for _, e := range ranked {
		sys.TrackedCPU += e.Usage.CPU
	}
	sys.PollSamples = m.tracker.WindowSize()

	m.mu.Lock()
	m.metrics = sys
	callback := m.onUpdate
	m.mu.Unlock()

	if callback != nil {
		callback(ranked, sys)
	}
	return stats, nil
}

// SystemMetrics returns the latest system metrics.
func (m *ProcessMonitor) SystemMetrics() *SystemMetrics {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.metrics
}

func (m *ProcessMonitor) pollAndReport(ctx context.Context) {
	if _, err := m.Poll(ctx); err != nil && ctx.Err() == nil {
		m.mu.RLock()
		fn := m.onError
		m.mu.RUnlock()
		if fn != nil {
			fn(err)
		}
	}
}
