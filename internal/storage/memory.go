package storage

import (
	"sync"
	"time"
)

// MemoryStore is an in-memory implementation of ResultStore
type MemoryStore struct {
	mu              sync.RWMutex
	entries         map[string]*Entry
	ttl             time.Duration
	cleanupInterval time.Duration
	stopCleanup     chan struct{}
	closeOnce       sync.Once
}

// NewMemoryStore creates a new in-memory result store
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	store := newMemoryStore(ttl, time.Minute)

	// Start background cleanup goroutine
	go store.cleanupLoop()

	return store
}

func newMemoryStore(ttl, cleanupInterval time.Duration) *MemoryStore {
	return &MemoryStore{
		entries:         make(map[string]*Entry),
		ttl:             ttl,
		cleanupInterval: cleanupInterval,
		stopCleanup:     make(chan struct{}),
	}
}

// Store saves a masked result
func (m *MemoryStore) Store(key, masked string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[key] = &Entry{
		Masked:   masked,
		LastUsed: time.Now(),
	}

	return nil
}

// Lookup retrieves a masked result and refreshes its last use
func (m *MemoryStore) Lookup(key string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.entries[key]
	if !ok {
		return "", false
	}
	entry.LastUsed = time.Now()

	return entry.Masked, true
}

// Cleanup removes expired entries
func (m *MemoryStore) Cleanup() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	for key, entry := range m.entries {
		if now.Sub(entry.LastUsed) > m.ttl {
			delete(m.entries, key)
		}
	}

	return nil
}

// Size returns the number of stored entries
func (m *MemoryStore) Size() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// Close stops the cleanup goroutine
func (m *MemoryStore) Close() error {
	m.closeOnce.Do(func() {
		close(m.stopCleanup)
	})
	return nil
}

// cleanupLoop periodically cleans up expired entries
func (m *MemoryStore) cleanupLoop() {
	ticker := time.NewTicker(m.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			_ = m.Cleanup()
		case <-m.stopCleanup:
			return
		}
	}
}
