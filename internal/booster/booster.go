// Package booster ties the process monitor, policy and termination engine
// together into the operations the CLI, TUI and API expose.
package booster

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/iamgilwell/booster/internal/monitor"
	"github.com/iamgilwell/booster/internal/process"
	"github.com/iamgilwell/booster/internal/report"
	"github.com/iamgilwell/booster/internal/safety"
	"github.com/iamgilwell/booster/internal/store"
)

// DefaultCleanupTargets are background apps removed by Cleanup.
var DefaultCleanupTargets = []string{
	"GamingServices.exe",
	"YourPhone.exe",
	"OneDrive.exe",
	"SearchUI.exe",
}

// Logger receives progress messages.
type Logger interface {
	Info(msg string)
	Warn(msg string)
	Error(msg string)
	Debug(msg string)
}

// Auditor receives an audit record for every termination and policy change.
type Auditor interface {
	LogTermination(r process.Result)
	LogPolicy(action, name string)
}

// Terminator runs termination requests.
type Terminator interface {
	Terminate(req process.Request, decide process.ForceDecision) process.Result
}

// Options tunes the bulk actions.
type Options struct {
	TopN           int
	CPUThreshold   float64
	CleanupTargets []string
}

// DefaultOptions returns the top 10 by CPU with a 10% threshold.
func DefaultOptions() Options {
	return Options{
		TopN:           10,
		CPUThreshold:   10,
		CleanupTargets: DefaultCleanupTargets,
	}
}

// Deps are the collaborators a Booster needs. Selection, Logger, Auditor and
// Session are optional.
type Deps struct {
	Monitor   *monitor.ProcessMonitor
	Policy    *safety.Policy
	Engine    Terminator
	Selection store.Store
	Session   *report.Session
	Logger    Logger
	Auditor   Auditor
}

// Booster is the facade over monitoring, policy and termination.
type Booster struct {
	mon     *monitor.ProcessMonitor
	tracker *monitor.Tracker
	policy  *safety.Policy
	engine  Terminator
	session *report.Session
	log     Logger
	audit   Auditor
	opts    Options

	selStore store.Store
	selMu    sync.Mutex
	selected safety.NameSet
}

// New creates a Booster and loads the saved selection.
func New(d Deps, opts Options) (*Booster, error) {
	if opts.TopN <= 0 {
		opts.TopN = DefaultOptions().TopN
	}
	if opts.CleanupTargets == nil {
		opts.CleanupTargets = DefaultCleanupTargets
	}
	b := &Booster{
		mon:      d.Monitor,
		tracker:  d.Monitor.Tracker(),
		policy:   d.Policy,
		engine:   d.Engine,
		session:  d.Session,
		log:      d.Logger,
		audit:    d.Auditor,
		opts:     opts,
		selStore: d.Selection,
	}
	if b.session == nil {
		b.session = report.NewSession()
	}
	if b.log == nil {
		b.log = nopLogger{}
	}
	if b.audit == nil {
		b.audit = nopAuditor{}
	}
	if b.selStore != nil {
		names, err := b.selStore.Load(store.KeySelected)
		if err != nil {
			return nil, fmt.Errorf("load selection: %w", err)
		}
		b.selected = safety.NewNameSet(names...)
	}
	return b, nil
}

// Monitor returns the underlying monitor.
func (b *Booster) Monitor() *monitor.ProcessMonitor { return b.mon }

// Policy returns the policy manager.
func (b *Booster) Policy() *safety.Policy { return b.policy }

// Session returns the session report.
func (b *Booster) Session() *report.Session { return b.session }

// Options returns the bulk action settings.
func (b *Booster) Options() Options { return b.opts }

// Poll takes one snapshot of the process table.
func (b *Booster) Poll(ctx context.Context) (monitor.IngestStats, error) {
	return b.mon.Poll(ctx)
}

// Terminate terminates a tracked pid, checking its last known name against
// policy before the OS is touched. An untracked pid is classified by its live
// name instead.
func (b *Booster) Terminate(pid int, decide process.ForceDecision) process.Result {
	req := process.Request{PID: pid}
	if rec, ok := b.tracker.Record(pid); ok {
		req.ExpectedName = rec.Name
	}
	return b.run(req, decide, "manual")
}

// TerminateRequest runs an explicit request.
func (b *Booster) TerminateRequest(req process.Request, decide process.ForceDecision) process.Result {
	if req.ExpectedName == "" {
		if rec, ok := b.tracker.Record(req.PID); ok {
			req.ExpectedName = rec.Name
		}
	}
	return b.run(req, decide, "manual")
}

// TerminateMany terminates pids one after the other.
func (b *Booster) TerminateMany(pids []int, decide process.ForceDecision) []process.Result {
	results := make([]process.Result, 0, len(pids))
	for _, pid := range pids {
		results = append(results, b.Terminate(pid, decide))
	}
	return results
}

func (b *Booster) run(req process.Request, decide process.ForceDecision, reason string) process.Result {
	usage, _ := b.tracker.Smoothed(req.PID)

	res := b.engine.Terminate(req, decide)
	b.audit.LogTermination(res)

	switch res.Outcome {
	case process.Killed:
		b.session.Record(res.Name, res.PID, usage, reason)
		b.log.Info(fmt.Sprintf("terminated %s (pid %d) via %s", res.Name, res.PID, res.Method))
	case process.AlreadyGone:
		b.log.Debug(fmt.Sprintf("pid %d already gone: %s", res.PID, res.Cause))
	case process.Protected:
		b.log.Warn(fmt.Sprintf("refused to terminate %s (pid %d): %s", res.Name, res.PID, res.Cause))
	case process.UserDeclinedForce:
		b.log.Warn(fmt.Sprintf("%s (pid %d) still running: %s", res.Name, res.PID, res.Cause))
	default:
		b.log.Error(fmt.Sprintf("terminate %s (pid %d): %s: %s", res.Name, res.PID, res.Outcome, res.Cause))
	}
	return res
}

// Protect adds name to the whitelist.
func (b *Booster) Protect(name string) (bool, error) {
	return b.policyChange("protect", name, b.policy.Protect)
}

// Unprotect removes name from the whitelist.
func (b *Booster) Unprotect(name string) (bool, error) {
	return b.policyChange("unprotect", name, b.policy.Unprotect)
}

// Flag adds name to the blacklist.
func (b *Booster) Flag(name string) (bool, error) {
	return b.policyChange("flag", name, b.policy.Flag)
}

// Unflag removes name from the blacklist.
func (b *Booster) Unflag(name string) (bool, error) {
	return b.policyChange("unflag", name, b.policy.Unflag)
}

func (b *Booster) policyChange(action, name string, fn func(string) (bool, error)) (bool, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return false, fmt.Errorf("%s: empty process name", action)
	}
	changed, err := fn(name)
	if err != nil {
		return false, err
	}
	if changed {
		b.audit.LogPolicy(action, name)
		b.log.Info(fmt.Sprintf("%s %s", action, name))
	}
	return changed, nil
}

type nopLogger struct{}

func (nopLogger) Info(string)  {}
func (nopLogger) Warn(string)  {}
func (nopLogger) Error(string) {}
func (nopLogger) Debug(string) {}

type nopAuditor struct{}

func (nopAuditor) LogTermination(process.Result) {}
func (nopAuditor) LogPolicy(string, string)      {}
