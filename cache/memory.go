package cache

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-memory Store implementation.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]*memoryEntry
}

type memoryEntry struct {
	rec       Record
	expiresAt time.Time
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]*memoryEntry),
	}
}

// Get retrieves a record. Returns (Record{}, false) on miss or expiry.
func (s *MemoryStore) Get(_ context.Context, key string) (Record, bool) {
	s.mu.RLock()
	entry, ok := s.entries[key]
	s.mu.RUnlock()

	if !ok {
		return Record{}, false
	}

	// Check expiry
	if time.Now().After(entry.expiresAt) {
		// Expired - clean up lazily
		s.mu.Lock()
		delete(s.entries, key)
		s.mu.Unlock()
		return Record{}, false
	}

	return entry.rec, true
}

// Set stores a record with the given TTL. TTL=0 means immediate expiry
// (no caching). Writes older than the stored record are dropped.
func (s *MemoryStore) Set(_ context.Context, key string, rec Record, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Out-of-order write from an abandoned refresh; keep the newer record.
	if existing, ok := s.entries[key]; ok && existing.rec.ResolvedAt.After(rec.ResolvedAt) {
		return nil
	}

	s.entries[key] = &memoryEntry{
		rec:       rec,
		expiresAt: time.Now().Add(ttl),
	}
	return nil
}

// Delete removes a record. Idempotent - no error on miss.
func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()
	return nil
}

// Clear removes all records.
func (s *MemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	s.entries = make(map[string]*memoryEntry)
	s.mu.Unlock()
	return nil
}

// Len returns the number of live entries, counting expired ones that have
// not been lazily evicted yet.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Ensure MemoryStore implements Store
var _ Store = (*MemoryStore)(nil)
