package identity

import (
	"sync"
	"time"
)

// Entry is a cached customer-id resolution. Value may legitimately be empty:
// "this user has no customer record" is itself worth caching so repeated
// misses do not thrash the user service.
type Entry struct {
	Value     string
	CreatedAt time.Time
}

// Store is the cache's storage backend. The in-memory implementation covers
// a single gateway instance; a horizontally scaled deployment would swap in
// a shared store behind the same interface.
type Store interface {
	Get(key string) (Entry, bool)
	Set(key string, entry Entry)
	Delete(key string)
	Len() int
}

// MemoryStore is a concurrency-safe in-process Store.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]Entry)}
}

// Get returns the entry for key, if present.
func (s *MemoryStore) Get(key string) (Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.entries[key]
	return entry, ok
}

// Set stores or overwrites the entry for key.
func (s *MemoryStore) Set(key string, entry Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = entry
}

// Delete removes the entry for key.
func (s *MemoryStore) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
}

// Len returns the number of stored entries, expired ones included.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
