package process

import "github.com/iamgilwell/booster/internal/safety"

// Target identifies the process a force decision is about.
type Target struct {
	PID  int
	Name string
}

// ForceDecision is asked whether to force-kill a process that ignored the
// graceful request. It may block, for example on a user prompt.
type ForceDecision func(Target) bool

// DeclineForce never escalates.
func DeclineForce(Target) bool { return false }

// AcceptForce always escalates.
func AcceptForce(Target) bool { return true }

// DecisionFor maps a force mode onto a decision. ask is used for
// safety.ForceAsk; a nil ask declines.
func DecisionFor(mode safety.ForceMode, ask ForceDecision) ForceDecision {
	switch mode {
	case safety.ForceAlways:
		return AcceptForce
	case safety.ForceAsk:
		if ask == nil {
			return DeclineForce
		}
		return ask
	default:
		return DeclineForce
	}
}
