package notification

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/iamgilwell/booster/internal/advisor"
	"github.com/iamgilwell/booster/internal/process"
)

// AuditEntry is a single audit log entry.
type AuditEntry struct {
	Timestamp      time.Time               `json:"timestamp"`
	Event          string                  `json:"event"`
	Result         *process.Result         `json:"result,omitempty"`
	Recommendation *advisor.Recommendation `json:"recommendation,omitempty"`
	Details        string                  `json:"details,omitempty"`
}

// Auditor writes an append-only audit trail as JSON lines.
type Auditor struct {
	mu   sync.Mutex
	file *os.File
}

// NewAuditor creates a new auditor. An empty path disables auditing.
func NewAuditor(filePath string) (*Auditor, error) {
	if filePath == "" {
		return &Auditor{}, nil
	}

	f, err := os.OpenFile(filePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("opening audit file: %w", err)
	}

	return &Auditor{file: f}, nil
}

// Close closes the audit file.
func (a *Auditor) Close() {
	if a.file != nil {
		a.file.Close()
	}
}

// LogTermination records the result of a termination request.
func (a *Auditor) LogTermination(r process.Result) {
	a.log(AuditEntry{
		Timestamp: time.Now(),
		Event:     "termination",
		Result:    &r,
	})
}

// LogPolicy records a whitelist or blacklist change.
func (a *Auditor) LogPolicy(action, name string) {
	a.log(AuditEntry{
		Timestamp: time.Now(),
		Event:     "policy",
		Details:   fmt.Sprintf("%s %s", action, name),
	})
}

// LogRecommendation records an advisor recommendation.
func (a *Auditor) LogRecommendation(r *advisor.Recommendation) {
	a.log(AuditEntry{
		Timestamp:      time.Now(),
		Event:          "recommendation",
		Recommendation: r,
	})
}

// LogEvent records a general event.
func (a *Auditor) LogEvent(event, details string) {
	a.log(AuditEntry{
		Timestamp: time.Now(),
		Event:     event,
		Details:   details,
	})
}

func (a *Auditor) log(entry AuditEntry) {
	if a.file == nil {
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	data, err := json.Marshal(entry)
	if err != nil {
		return
	}

	a.file.Write(append(data, '\n'))
}
