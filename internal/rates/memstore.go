package rates

import (
	"context"
	"sync"
)

// memoryStore is the in-process cache backend: a concurrent map keyed
// by pair.
type memoryStore struct {
	mu      sync.RWMutex
	entries map[string]entry
}

func newMemoryStore() *memoryStore {
	return &memoryStore{entries: make(map[string]entry)}
}

func (m *memoryStore) get(_ context.Context, pair string) (entry, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[pair]
	return e, ok
}

func (m *memoryStore) put(_ context.Context, pair string, e entry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[pair] = e
}
