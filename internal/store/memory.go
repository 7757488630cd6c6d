package store

import (
	"context"
	"fmt"
	"slices"
	"sync"
)

// MemoryStore is a thread-safe, in-memory Store. Nothing survives a
// restart; it backs tests and the "memory" store driver.
type MemoryStore struct {
	mu      sync.RWMutex
	records []Record
	index   map[string]int // name → index in records
}

// NewMemoryStore creates an empty memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{index: make(map[string]int)}
}

// Compile-time interface check.
var _ Store = (*MemoryStore)(nil)

// Save inserts rec or replaces the record with the same name in place.
func (s *MemoryStore) Save(_ context.Context, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec.Args = slices.Clone(rec.Args)
	if i, exists := s.index[rec.Name]; exists {
		s.records[i] = rec
		return nil
	}
	s.index[rec.Name] = len(s.records)
	s.records = append(s.records, rec)
	return nil
}

// Load returns the record stored under name.
func (s *MemoryStore) Load(_ context.Context, name string) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.index[name]
	if !ok {
		return Record{}, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	rec := s.records[i]
	rec.Args = slices.Clone(rec.Args)
	return rec, nil
}

// Delete removes the record stored under name.
func (s *MemoryStore) Delete(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.index[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	s.records = slices.Delete(s.records, i, i+1)
	delete(s.index, name)
	for j := i; j < len(s.records); j++ {
		s.index[s.records[j].Name] = j
	}
	return nil
}

// List returns all records in insertion order.
func (s *MemoryStore) List(_ context.Context) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Record, len(s.records))
	for i, rec := range s.records {
		rec.Args = slices.Clone(rec.Args)
		out[i] = rec
	}
	return out, nil
}

// Close is a no-op.
func (s *MemoryStore) Close() error { return nil }
