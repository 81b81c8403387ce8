package safety

import "strings"

// NameSet is an immutable set of process names. Lookups ignore case; the
// first spelling added is the one kept, and insertion order is preserved.
type NameSet struct {
	names []string
	index map[string]int
}

// NewNameSet builds a set from names, dropping blanks and case duplicates.
func NewNameSet(names ...string) NameSet {
	s := NameSet{index: make(map[string]int, len(names))}
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		k := strings.ToLower(n)
		if _, ok := s.index[k]; ok {
			continue
		}
		s.index[k] = len(s.names)
		s.names = append(s.names, n)
	}
	return s
}

// Contains reports membership ignoring case.
func (s NameSet) Contains(name string) bool {
	_, ok := s.index[strings.ToLower(strings.TrimSpace(name))]
	return ok
}

// Len returns the number of names.
func (s NameSet) Len() int {
	return len(s.names)
}

// Names returns a copy of the names in insertion order.
func (s NameSet) Names() []string {
	out := make([]string, len(s.names))
	copy(out, s.names)
	return out
}

// With returns a set that also contains name. changed is false when name was
// already present in any case.
func (s NameSet) With(name string) (NameSet, bool) {
	if strings.TrimSpace(name) == "" || s.Contains(name) {
		return s, false
	}
	return NewNameSet(append(s.Names(), name)...), true
}

// Without returns a set without name. changed is false when it was absent.
func (s NameSet) Without(name string) (NameSet, bool) {
	k := strings.ToLower(strings.TrimSpace(name))
	i, ok := s.index[k]
	if !ok {
		return s, false
	}
	rest := make([]string, 0, len(s.names)-1)
	rest = append(rest, s.names[:i]...)
	rest = append(rest, s.names[i+1:]...)
	return NewNameSet(rest...), true
}
