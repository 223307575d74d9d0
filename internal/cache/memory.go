package cache

import (
	"context"
	"sync"
)

// MemoryStore is an in-process Store. It backs single runs with caching
// disabled on disk and the test suite.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]*Entry
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]*Entry),
	}
}

// Get returns the entry for the key, or nil if absent.
func (s *MemoryStore) Get(_ context.Context, providerID, signature string) (*Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.entries[providerID+"\x00"+signature]
	if !ok {
		return nil, nil
	}
	// Copy so callers cannot mutate stored state.
	cp := *entry
	return &cp, nil
}

// Put stores or replaces the entry for its key.
func (s *MemoryStore) Put(_ context.Context, entry *Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *entry
	s.entries[entry.Provider+"\x00"+entry.Signature] = &cp
	return nil
}

// Delete removes the entry for the key.
func (s *MemoryStore) Delete(_ context.Context, providerID, signature string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, providerID+"\x00"+signature)
	return nil
}

// Len returns the number of stored entries.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
