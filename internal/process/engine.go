package process

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/iamgilwell/booster/internal/safety"
)

// Outcome is the final result of a termination request.
type Outcome int

const (
	Killed Outcome = iota
	AlreadyGone
	Protected
	PermissionDenied
	Failed
	UserDeclinedForce
)

func (o Outcome) String() string {
	switch o {
	case Killed:
		return "Killed"
	case AlreadyGone:
		return "AlreadyGone"
	case Protected:
		return "Protected"
	case PermissionDenied:
		return "PermissionDenied"
	case Failed:
		return "Failed"
	case UserDeclinedForce:
		return "UserDeclinedForce"
	default:
		return "Unknown"
	}
}

func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// State is a step of the escalation.
type State int

const (
	StateRequested State = iota
	StateGracefulSent
	StateConfirmed
	StateTimedOut
	StateForceSent
	StateDone
	StateAborted
)

func (s State) String() string {
	switch s {
	case StateRequested:
		return "Requested"
	case StateGracefulSent:
		return "GracefulSent"
	case StateConfirmed:
		return "Confirmed"
	case StateTimedOut:
		return "TimedOut"
	case StateForceSent:
		return "ForceSent"
	case StateDone:
		return "Done"
	case StateAborted:
		return "Aborted"
	default:
		return "Unknown"
	}
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Request asks for one process to be terminated. ExpectedName, when set, is
// checked against policy before the OS is touched and against the live name
// before any signal is sent.
type Request struct {
	PID          int
	ExpectedName string
	ForceAllowed bool
}

// Result reports what happened to a request.
type Result struct {
	Outcome  Outcome `json:"outcome"`
	PID      int     `json:"pid"`
	Name     string  `json:"name"`
	Cause    string  `json:"cause,omitempty"`
	Advisory string  `json:"advisory,omitempty"`
	Method   string  `json:"method,omitempty"`
	Trace    []State `json:"trace"`
}

// Killed reports whether the process is no longer running because of us.
func (r Result) Killed() bool {
	return r.Outcome == Killed
}

func (r *Result) step(s State) {
	r.Trace = append(r.Trace, s)
}

// PolicyView supplies the policy snapshot a request is classified against.
type PolicyView interface {
	Snapshot() safety.Snapshot
}

// Options tunes the engine.
type Options struct {
	// Timeout bounds the graceful wait.
	Timeout time.Duration
	// PollEvery is the liveness check interval during the graceful wait.
	PollEvery time.Duration
	// RequireElevation refuses to signal anything without admin rights.
	RequireElevation bool
}

// DefaultOptions returns a 3s graceful wait polled every 100ms.
func DefaultOptions() Options {
	return Options{
		Timeout:          3 * time.Second,
		PollEvery:        100 * time.Millisecond,
		RequireElevation: true,
	}
}

// Engine terminates processes, escalating from a graceful request to a
// forced kill, and never touches a protected process.
type Engine struct {
	ctl     Controller
	policy  PolicyView
	killers []Killer
	opts    Options
	sleep   func(time.Duration)
	now     func() time.Time
}

// NewEngine creates an engine. killers are tried in order on force.
func NewEngine(ctl Controller, policy PolicyView, killers []Killer, opts Options) *Engine {
	def := DefaultOptions()
	if opts.Timeout <= 0 {
		opts.Timeout = def.Timeout
	}
	if opts.PollEvery <= 0 {
		opts.PollEvery = def.PollEvery
	}
	return &Engine{
		ctl:     ctl,
		policy:  policy,
		killers: killers,
		opts:    opts,
		sleep:   time.Sleep,
		now:     time.Now,
	}
}

// Terminate runs one request to completion. It blocks for at most the
// graceful timeout plus the force decision and kill time; it is not
// cancellable once the graceful request has been sent.
func (e *Engine) Terminate(req Request, decide ForceDecision) (res Result) {
	res = Result{PID: req.PID, Name: req.ExpectedName}
	res.step(StateRequested)

	defer func() {
		if r := recover(); r != nil {
			res.Outcome = Failed
			res.Cause = fmt.Sprintf("panic: %v", r)
			res.step(StateAborted)
		}
	}()

	snap := e.policy.Snapshot()
	if req.ExpectedName != "" {
		if snap.Classify(req.ExpectedName) == safety.Protected {
			return e.protected(res, snap, req.ExpectedName)
		}
	}

	if e.opts.RequireElevation && !e.ctl.Elevated() {
		return abort(res, PermissionDenied, "administrator privileges are required to terminate processes")
	}

	h, err := e.ctl.Open(req.PID)
	if err != nil {
		return abortErr(res, err)
	}

	live := h.Name()
	if req.ExpectedName != "" && !strings.EqualFold(live, req.ExpectedName) {
		return abort(res, AlreadyGone, fmt.Sprintf("pid %d now belongs to %q", req.PID, live))
	}
	res.Name = live
	if req.ExpectedName == "" && snap.Classify(live) == safety.Protected {
		return e.protected(res, snap, live)
	}

	if err := h.Terminate(); err != nil {
		return abortErr(res, err)
	}
	res.step(StateGracefulSent)

	if e.waitExit(h) {
		res.step(StateConfirmed)
		res.step(StateDone)
		res.Outcome = Killed
		res.Method = "graceful"
		return res
	}
	res.step(StateTimedOut)

	allow := req.ForceAllowed
	if !allow && decide != nil {
		allow = decide(Target{PID: req.PID, Name: res.Name})
	}
	if !allow {
		return abort(res, UserDeclinedForce, fmt.Sprintf("process did not exit within %s", e.opts.Timeout))
	}

	res.step(StateForceSent)
	return e.force(res, snap)
}

func (e *Engine) force(res Result, snap safety.Snapshot) Result {
	var errs []error
	denied := 0
	for _, k := range e.killers {
		var spared []int
		var err error
		if sk, ok := k.(SparingKiller); ok {
			spared, err = sk.KillSparing(res.PID, e.protectedPID(snap))
		} else {
			err = k.Kill(res.PID)
		}
		if err == nil || errors.Is(err, ErrNotFound) {
			res.step(StateDone)
			res.Outcome = Killed
			res.Method = k.Name()
			if len(spared) > 0 {
				res.Cause = fmt.Sprintf("left protected descendants running: pids %v", spared)
			}
			return res
		}
		if errors.Is(err, ErrPermission) {
			denied++
		}
		errs = append(errs, fmt.Errorf("%s: %w", k.Name(), err))
	}
	if len(errs) == 0 {
		return abort(res, Failed, "no force-kill mechanism available")
	}
	if denied == len(errs) {
		return abort(res, PermissionDenied, errors.Join(errs...).Error())
	}
	return abort(res, Failed, errors.Join(errs...).Error())
}

// protectedPID reports whether a live pid runs a protected executable. A pid
// whose name cannot be read is not spared; it has most likely exited.
func (e *Engine) protectedPID(snap safety.Snapshot) func(int) bool {
	return func(pid int) bool {
		h, err := e.ctl.Open(pid)
		if err != nil {
			return false
		}
		return snap.Classify(h.Name()) == safety.Protected
	}
}

// waitExit polls until the process is gone or the timeout expires.
func (e *Engine) waitExit(h Handle) bool {
	deadline := e.now().Add(e.opts.Timeout)
	for {
		running, err := h.IsRunning()
		if err == nil && !running {
			return true
		}
		if errors.Is(err, ErrNotFound) {
			return true
		}
		if !e.now().Before(deadline) {
			return false
		}
		e.sleep(e.opts.PollEvery)
	}
}

func (e *Engine) protected(res Result, snap safety.Snapshot, name string) Result {
	res.Outcome = Protected
	res.Cause = snap.Reason(name)
	if safety.IsAntiMalware(name) {
		res.Advisory = safety.AntiMalwareAdvisory
	}
	res.step(StateAborted)
	return res
}

func abort(res Result, o Outcome, cause string) Result {
	res.Outcome = o
	res.Cause = cause
	res.step(StateAborted)
	return res
}

func abortErr(res Result, err error) Result {
	switch {
	case errors.Is(err, ErrNotFound):
		return abort(res, AlreadyGone, err.Error())
	case errors.Is(err, ErrPermission):
		return abort(res, PermissionDenied, err.Error())
	default:
		return abort(res, Failed, err.Error())
	}
}
