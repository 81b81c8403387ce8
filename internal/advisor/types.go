package advisor

import (
	"crypto/sha256"
	"fmt"
	"strings"
	"time"

	"github.com/iamgilwell/booster/internal/monitor"
	"github.com/iamgilwell/booster/internal/safety"
)

// Action is the recommended action for a process. The advisor only
// recommends; it never terminates anything itself.
type Action string

const (
	ActionFlag    Action = "flag"
	ActionKeep    Action = "keep"
	ActionProtect Action = "protect"
)

// ParseAction normalises a model answer, defaulting to keep.
func ParseAction(s string) Action {
	switch Action(strings.ToLower(strings.TrimSpace(s))) {
	case ActionFlag:
		return ActionFlag
	case ActionProtect:
		return ActionProtect
	default:
		return ActionKeep
	}
}

// Candidate is one ranked process offered for evaluation.
type Candidate struct {
	Entry   monitor.Entry
	Verdict safety.Verdict
}

// Recommendation is the advisor's evaluation of a process.
type Recommendation struct {
	PID        int       `json:"pid"`
	Name       string    `json:"name"`
	Action     Action    `json:"action"`
	Confidence float64   `json:"confidence"`
	Reason     string    `json:"reason"`
	Timestamp  time.Time `json:"timestamp"`
	FromCache  bool      `json:"from_cache"`
}

// Signature generates a cache key from the process name and its bucketed
// resource usage.
func Signature(c Candidate) string {
	cpuBucket := int(c.Entry.Usage.CPU/5) * 5
	memBucket := int(c.Entry.Usage.Memory/5) * 5

	raw := fmt.Sprintf("%s|%s|%d|%d|%s",
		strings.ToLower(c.Entry.Record.Name),
		c.Entry.Record.Owner,
		cpuBucket,
		memBucket,
		c.Verdict,
	)

	hash := sha256.Sum256([]byte(raw))
	return fmt.Sprintf("%x", hash[:8])
}
