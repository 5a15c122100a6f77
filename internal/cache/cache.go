// file: internal/cache/cache.go
// version: 2.0.0
// guid: a1b2c3d4-e5f6-7a8b-9c0d-1e2f3a4b5c6d

package cache

import (
	"sync"
	"time"
)

// Store is the cache collaborator the resolution stages memoize through.
// Implementations must be safe for concurrent use.
type Store interface {
	// Get returns the cached value for key, or ok=false when absent.
	Get(key string) ([]byte, bool)
	// Set stores value under key.
	Set(key string, value []byte)
}

type entry struct {
	value     []byte
	expiresAt time.Time
}

// Memory is an in-process Store with an optional TTL. A zero TTL caches
// entries indefinitely, which is safe because resolution results are
// deterministic for a fixed upstream catalog state.
type Memory struct {
	mu    sync.RWMutex
	items map[string]entry
	ttl   time.Duration
}

// NewMemory creates an in-memory store. ttl <= 0 disables expiry.
func NewMemory(ttl time.Duration) *Memory {
	return &Memory{
		items: make(map[string]entry),
		ttl:   ttl,
	}
}

// Get retrieves a value if it exists and hasn't expired.
func (m *Memory) Get(key string) ([]byte, bool) {
	m.mu.RLock()
	e, ok := m.items[key]
	m.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if !e.expiresAt.IsZero() && time.Now().After(e.expiresAt) {
		return nil, false
	}
	return e.value, true
}

// Set stores a value under key.
func (m *Memory) Set(key string, value []byte) {
	e := entry{value: value}
	if m.ttl > 0 {
		e.expiresAt = time.Now().Add(m.ttl)
	}
	m.mu.Lock()
	m.items[key] = e
	m.mu.Unlock()
}

// Len returns the number of entries, counting expired ones not yet evicted.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}

// Invalidate removes a single key.
func (m *Memory) Invalidate(key string) {
	m.mu.Lock()
	delete(m.items, key)
	m.mu.Unlock()
}

// InvalidateAll removes all entries.
func (m *Memory) InvalidateAll() {
	m.mu.Lock()
	m.items = make(map[string]entry)
	m.mu.Unlock()
}
