package store

import "sync"

// Memory is an in-process Store, used when nothing should touch disk.
type Memory struct {
	mu   sync.RWMutex
	docs map[string][]string
}

// NewMemory creates a store seeded with docs.
func NewMemory(docs map[string][]string) *Memory {
	m := &Memory{docs: make(map[string][]string, len(docs))}
	for k, v := range docs {
		m.docs[k] = append([]string(nil), v...)
	}
	return m
}

// Load implements Store.
func (m *Memory) Load(key string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string{}, m.docs[key]...), nil
}

// Save implements Store.
func (m *Memory) Save(key string, values []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[key] = append([]string{}, values...)
	return nil
}
