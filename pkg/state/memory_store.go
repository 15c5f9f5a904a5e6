package state

import (
	"context"
	"sync"
)

// MemoryStore is a minimal in-memory Backend intended for tests and examples.
// Values survive as long as the MemoryStore value does, which lets tests
// simulate a process restart by building a second store over the same
// MemoryStore.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]string
	saves   int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: map[string]string{}}
}

func (s *MemoryStore) Load(_ context.Context, key string) (string, bool, error) {
	if key == "" {
		return "", false, ErrEmptyKey
	}
	s.mu.RLock()
	value, ok := s.records[key]
	s.mu.RUnlock()
	return value, ok, nil
}

func (s *MemoryStore) Save(_ context.Context, key, value string) error {
	if key == "" {
		return ErrEmptyKey
	}
	s.mu.Lock()
	if s.records == nil {
		s.records = map[string]string{}
	}
	s.records[key] = value
	s.saves++
	s.mu.Unlock()
	return nil
}

// Put seeds a value without counting it as a save.
func (s *MemoryStore) Put(key, value string) {
	s.mu.Lock()
	if s.records == nil {
		s.records = map[string]string{}
	}
	s.records[key] = value
	s.mu.Unlock()
}

// Saves returns how many successful Save calls the store has seen.
func (s *MemoryStore) Saves() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.saves
}
