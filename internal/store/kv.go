package store

import "sync"

// KV is a minimal keyed store with full-scan support. The in-memory
// implementation below backs the session table; a distributed backend can be
// swapped in without touching the services built on top.
type KV[V any] interface {
	Get(key string) (V, bool)
	Set(key string, value V)
	Delete(key string)
	// Scan visits every entry until fn returns false. The snapshot is taken
	// under a read lock, so fn must not call back into the store.
	Scan(fn func(key string, value V) bool)
}

// Memory implements KV over a map guarded by an RWMutex.
type Memory[V any] struct {
	mu    sync.RWMutex
	items map[string]V
}

// NewMemory returns an empty in-memory store.
func NewMemory[V any]() *Memory[V] {
	return &Memory[V]{items: make(map[string]V)}
}

func (m *Memory[V]) Get(key string) (V, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	value, ok := m.items[key]
	return value, ok
}

func (m *Memory[V]) Set(key string, value V) {
	m.mu.Lock()
	m.items[key] = value
	m.mu.Unlock()
}

func (m *Memory[V]) Delete(key string) {
	m.mu.Lock()
	delete(m.items, key)
	m.mu.Unlock()
}

func (m *Memory[V]) Scan(fn func(key string, value V) bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for key, value := range m.items {
		if !fn(key, value) {
			return
		}
	}
}
