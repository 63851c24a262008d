package cache

import (
	"context"
	"sync"
	"time"
)

// MemoryStoreConfig configures the in-memory store.
type MemoryStoreConfig struct {
	// Now overrides the time source used to stamp entries.
	// Tests use it to control staleness. Default: time.Now.
	Now func() time.Time
}

// MemoryStore is an in-memory store implementation. It is unbounded:
// entries are only removed by Clear or process exit.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]Entry
	now     func() time.Time
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore(config ...MemoryStoreConfig) *MemoryStore {
	now := time.Now
	if len(config) > 0 && config[0].Now != nil {
		now = config[0].Now
	}
	return &MemoryStore{
		entries: make(map[string]Entry),
		now:     now,
	}
}

// Get retrieves an entry. Returns (Entry{}, false) on miss. Staleness is
// not checked here; the reader decides freshness against its own TTL.
func (s *MemoryStore) Get(_ context.Context, key string) (Entry, bool) {
	s.mu.RLock()
	entry, ok := s.entries[key]
	s.mu.RUnlock()
	return entry, ok
}

// Set stores a payload under key, replacing any previous entry.
func (s *MemoryStore) Set(_ context.Context, key string, payload []byte) error {
	if err := ValidateKey(key); err != nil {
		return err
	}

	s.mu.Lock()
	s.entries[key] = Entry{
		Payload:  payload,
		StoredAt: s.now(),
	}
	s.mu.Unlock()

	return nil
}

// Clear drops every entry.
func (s *MemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	s.entries = make(map[string]Entry)
	s.mu.Unlock()
	return nil
}

// Len reports the number of stored entries.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Ensure MemoryStore implements Store
var _ Store = (*MemoryStore)(nil)
