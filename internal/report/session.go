// Package report tracks what a session of terminations reclaimed.
package report

import (
	"sync"
	"time"

	"github.com/iamgilwell/booster/internal/monitor"
)

// Entry records a single reclaimed process.
type Entry struct {
	Timestamp   time.Time `json:"timestamp"`
	ProcessName string    `json:"process_name"`
	PID         int       `json:"pid"`
	CPU         float64   `json:"cpu"`
	Memory      float64   `json:"memory"`
	Reason      string    `json:"reason"`
}

// Session accumulates reclaimed CPU and memory over time.
type Session struct {
	mu          sync.RWMutex
	totalCPU    float64
	totalMemory float64
	log         []Entry
	startTime   time.Time
	now         func() time.Time
}

// NewSession creates a new session report.
func NewSession() *Session {
	return &Session{
		startTime: time.Now(),
		now:       time.Now,
	}
}

// Record logs a killed process with the smoothed usage it held.
func (s *Session) Record(name string, pid int, usage monitor.Usage, reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.totalCPU += usage.CPU
	s.totalMemory += usage.Memory
	s.log = append(s.log, Entry{
		Timestamp:   s.now(),
		ProcessName: name,
		PID:         pid,
		CPU:         usage.CPU,
		Memory:      usage.Memory,
		Reason:      reason,
	})
}

// TotalCPU returns the summed CPU percent reclaimed this session.
func (s *Session) TotalCPU() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.totalCPU
}

// TotalMemory returns the summed memory percent reclaimed this session.
func (s *Session) TotalMemory() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.totalMemory
}

// Duration returns how long the session has been running.
func (s *Session) Duration() time.Duration {
	return s.now().Sub(s.startTime)
}

// Recent returns the most recent n entries, oldest first.
func (s *Session) Recent(n int) []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if n > len(s.log) || n < 0 {
		n = len(s.log)
	}
	result := make([]Entry, n)
	copy(result, s.log[len(s.log)-n:])
	return result
}

// Count returns the number of recorded kills.
func (s *Session) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.log)
}
