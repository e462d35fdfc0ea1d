// Package memory is a process-local StateStore used in tests and when no
// persistent backend is configured.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// Store keeps JSON-encoded collections in a map. Values are encoded on Save
// so callers never share memory with the store.
type Store struct {
	mu      sync.RWMutex
	data    map[string][]byte
	saves   map[string]int
	saveErr error
}

// New creates an empty store.
func New() *Store {
	return &Store{data: make(map[string][]byte), saves: make(map[string]int)}
}

// Load decodes the value stored under key into dst.
func (s *Store) Load(_ context.Context, key string, dst any) (bool, error) {
	s.mu.RLock()
	raw, ok := s.data[key]
	s.mu.RUnlock()
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

// Save replaces the value stored under key.
func (s *Store) Save(_ context.Context, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	s.data[key] = raw
	s.saves[key]++
	return nil
}

// FailSaves makes every subsequent Save return err. Pass nil to recover.
func (s *Store) FailSaves(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saveErr = err
}

// Saves returns how many times key has been written.
func (s *Store) Saves(key string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.saves[key]
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error { return nil }
