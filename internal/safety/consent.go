package safety

import (
	"fmt"
	"strings"
)

// ForceMode says how a caller answers the force-kill question once a graceful
// termination has timed out.
type ForceMode int

const (
	ForceNever  ForceMode = iota // decline, report UserDeclinedForce
	ForceAsk                     // prompt the user
	ForceAlways                  // escalate without asking
)

func (m ForceMode) String() string {
	switch m {
	case ForceNever:
		return "never"
	case ForceAsk:
		return "ask"
	case ForceAlways:
		return "always"
	default:
		return "unknown"
	}
}

// ParseForceMode accepts never, ask and always.
func ParseForceMode(s string) (ForceMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "never", "no", "":
		return ForceNever, nil
	case "ask", "prompt":
		return ForceAsk, nil
	case "always", "yes":
		return ForceAlways, nil
	default:
		return ForceNever, fmt.Errorf("unknown force mode %q (want never, ask or always)", s)
	}
}

// ModeDescription returns a human-readable description of a force mode.
func ModeDescription(m ForceMode) string {
	switch m {
	case ForceNever:
		return "Graceful Only"
	case ForceAsk:
		return "Confirm Force"
	case ForceAlways:
		return "Force Automatically"
	default:
		return "Unknown"
	}
}
