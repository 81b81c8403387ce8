package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/iamgilwell/booster/internal/advisor"
	"github.com/iamgilwell/booster/internal/booster"
	"github.com/iamgilwell/booster/internal/config"
	"github.com/iamgilwell/booster/internal/monitor"
	"github.com/iamgilwell/booster/internal/notification"
	"github.com/iamgilwell/booster/internal/process"
	"github.com/iamgilwell/booster/internal/safety"
	"github.com/iamgilwell/booster/internal/store"
)

// app bundles everything a command needs. Build it with newApp and release it
// with Close.
type app struct {
	cfg      *config.Config
	notifier *notification.Notifier
	auditor  *notification.Auditor
	booster  *booster.Booster
	advisor  *advisor.Advisor
	mode     safety.ForceMode
	closers  []func() error
}

func newApp() (*app, error) {
	cfg := config.Global
	a := &app{cfg: cfg}

	mode, err := safety.ParseForceMode(cfg.Safety.ForceMode)
	if err != nil {
		return nil, err
	}
	a.mode = mode

	notifier, err := notification.NewNotifier(cfg.Notifications.LogFile, cfg.Notifications.ColorEnabled, cfg.Notifications.Verbose)
	if err != nil {
		return nil, fmt.Errorf("creating notifier: %w", err)
	}
	a.notifier = notifier
	a.closers = append(a.closers, func() error { notifier.Close(); return nil })

	auditor, err := notification.NewAuditor(cfg.Notifications.AuditFile)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("creating auditor: %w", err)
	}
	a.auditor = auditor
	a.closers = append(a.closers, func() error { auditor.Close(); return nil })

	// The critical set is the one startup failure we refuse to run without.
	critical, err := store.LoadCritical(cfg.Safety.CriticalFile)
	if err != nil {
		a.Close()
		return nil, err
	}

	st, err := a.openStore()
	if err != nil {
		a.Close()
		return nil, err
	}

	policy, err := safety.NewPolicy(st, critical)
	if err != nil {
		a.Close()
		return nil, err
	}

	var gpu monitor.GPUSource
	if cfg.GPU.Enabled {
		if smi := monitor.NewNvidiaSMI(); smi != nil {
			gpu = smi
		}
	}
	source := monitor.NewPsutilSource(gpu)
	mon := monitor.NewProcessMonitor(source, monitor.NewTracker(cfg.Monitoring.WindowSize), cfg.Monitoring.PollInterval)

	engine := process.NewEngine(process.NewPsutilController(), policy, process.DefaultKillers(), process.Options{
		Timeout:          cfg.Safety.TerminateTimeout,
		PollEvery:        100 * time.Millisecond,
		RequireElevation: cfg.Safety.RequireElevation,
	})

	b, err := booster.New(booster.Deps{
		Monitor:   mon,
		Policy:    policy,
		Engine:    engine,
		Selection: st,
		Logger:    notifier,
		Auditor:   auditor,
	}, booster.Options{
		TopN:           cfg.Boost.TopN,
		CPUThreshold:   cfg.Boost.CPUThreshold,
		CleanupTargets: cfg.Cleanup.Targets,
	})
	if err != nil {
		a.Close()
		return nil, err
	}
	a.booster = b

	if cfg.Advisor.Enabled && cfg.Anthropic.APIKey != "" {
		cache := advisor.NewCache(cfg.Advisor.CacheSize, cfg.Advisor.CacheTTL)
		a.advisor = advisor.New(cfg.Anthropic.APIKey, cfg.Anthropic.Model, cache, cfg.Advisor.ConfidenceThreshold)
	}

	return a, nil
}

func (a *app) openStore() (store.Store, error) {
	switch a.cfg.Policy.Backend {
	case "sqlite":
		st, err := store.OpenSQLite(a.cfg.Policy.SQLitePath)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, st.Close)
		return st, nil
	case "memory":
		return store.NewMemory(nil), nil
	default:
		return store.NewJSONStore(map[string]string{
			store.KeyWhitelist: a.cfg.Policy.WhitelistFile,
			store.KeyBlacklist: a.cfg.Policy.BlacklistFile,
			store.KeySelected:  a.cfg.Policy.CacheFile,
		}), nil
	}
}

// Close releases the store and log files, most recent first.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		_ = a.closers[i]()
	}
	a.closers = nil
}

// warmup polls until the rolling windows hold enough samples to rank.
func (a *app) warmup(ctx context.Context) error {
	n := a.cfg.Monitoring.WarmupPolls
	if n < 1 {
		n = 1
	}
	interval := time.Second
	if a.cfg.Monitoring.PollInterval < interval {
		interval = a.cfg.Monitoring.PollInterval
	}
	return a.booster.Monitor().Warmup(ctx, n, interval)
}

// decision maps the configured force mode onto a terminal prompt.
func (a *app) decision() process.ForceDecision {
	return process.DecisionFor(a.mode, promptForce)
}

func (a *app) printReport(rep booster.Report) {
	for _, r := range rep.Results {
		a.notifier.Termination(r)
	}
	a.notifier.Info(rep.Summary())
}

func promptForce(t process.Target) bool {
	fmt.Printf("%s (PID %d) did not exit after the graceful request. Force kill? [y/N] ", t.Name, t.PID)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}
