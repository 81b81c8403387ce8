package safety

import (
	"fmt"
	"sync"

	"github.com/iamgilwell/booster/internal/store"
)

// Snapshot is a consistent view of the three policy sets. Its sets are never
// mutated after the snapshot is taken.
type Snapshot struct {
	Critical  NameSet
	Whitelist NameSet
	Blacklist NameSet
}

// Classify classifies name against this snapshot.
func (s Snapshot) Classify(name string) Verdict {
	return Classify(name, s.Critical, s.Whitelist, s.Blacklist)
}

// Reason explains why name is protected, or returns "".
func (s Snapshot) Reason(name string) string {
	return ProtectionReason(name, s.Critical, s.Whitelist)
}

// Policy owns the critical set and the user whitelist and blacklist.
// Mutations persist first and then swap the in-memory set, so a failed save
// leaves the previous state in place.
type Policy struct {
	mu      sync.RWMutex
	writeMu sync.Mutex
	store   store.Store
	snap    Snapshot
}

// NewPolicy loads the user lists from st. critical is fixed for the life of
// the policy.
func NewPolicy(st store.Store, critical []string) (*Policy, error) {
	p := &Policy{
		store: st,
		snap:  Snapshot{Critical: NewNameSet(critical...)},
	}
	if err := p.Reload(); err != nil {
		return nil, err
	}
	return p, nil
}

// Reload rereads the whitelist and blacklist from the store.
func (p *Policy) Reload() error {
	p.writeMu.Lock()
	defer p.writeMu.Unlock()

	wl, err := p.store.Load(store.KeyWhitelist)
	if err != nil {
		return fmt.Errorf("load whitelist: %w", err)
	}
	bl, err := p.store.Load(store.KeyBlacklist)
	if err != nil {
		return fmt.Errorf("load blacklist: %w", err)
	}

	p.mu.Lock()
	p.snap.Whitelist = NewNameSet(wl...)
	p.snap.Blacklist = NewNameSet(bl...)
	p.mu.Unlock()
	return nil
}

// Snapshot returns the current sets.
func (p *Policy) Snapshot() Snapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.snap
}

// Classify classifies name against the current sets.
func (p *Policy) Classify(name string) Verdict {
	return p.Snapshot().Classify(name)
}

// Whitelist returns the user whitelist in insertion order.
func (p *Policy) Whitelist() []string {
	return p.Snapshot().Whitelist.Names()
}

// Blacklist returns the user blacklist in insertion order.
func (p *Policy) Blacklist() []string {
	return p.Snapshot().Blacklist.Names()
}

// Critical returns the system-critical names.
func (p *Policy) Critical() []string {
	return p.Snapshot().Critical.Names()
}

// Protect adds name to the whitelist. It reports whether the list changed.
func (p *Policy) Protect(name string) (bool, error) {
	return p.update(store.KeyWhitelist, func(s *Snapshot) *NameSet { return &s.Whitelist }, func(n NameSet) (NameSet, bool) { return n.With(name) })
}

// Unprotect removes name from the whitelist.
func (p *Policy) Unprotect(name string) (bool, error) {
	return p.update(store.KeyWhitelist, func(s *Snapshot) *NameSet { return &s.Whitelist }, func(n NameSet) (NameSet, bool) { return n.Without(name) })
}

// Flag adds name to the blacklist.
func (p *Policy) Flag(name string) (bool, error) {
	return p.update(store.KeyBlacklist, func(s *Snapshot) *NameSet { return &s.Blacklist }, func(n NameSet) (NameSet, bool) { return n.With(name) })
}

// Unflag removes name from the blacklist.
func (p *Policy) Unflag(name string) (bool, error) {
	return p.update(store.KeyBlacklist, func(s *Snapshot) *NameSet { return &s.Blacklist }, func(n NameSet) (NameSet, bool) { return n.Without(name) })
}

func (p *Policy) update(key string, field func(*Snapshot) *NameSet, change func(NameSet) (NameSet, bool)) (bool, error) {
	p.writeMu.Lock()
	defer p.writeMu.Unlock()

	snap := p.Snapshot()
	next, changed := change(*field(&snap))
	if !changed {
		return false, nil
	}
	if err := p.store.Save(key, next.Names()); err != nil {
		return false, fmt.Errorf("save %s: %w", key, err)
	}

	p.mu.Lock()
	*field(&p.snap) = next
	p.mu.Unlock()
	return true, nil
}
