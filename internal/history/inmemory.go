package history

import (
	"context"
	"sync"
)

// InMemoryStore is a simple in-process history store for local/dev use.
type InMemoryStore struct {
	mu    sync.RWMutex
	turns map[string][]Turn
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{turns: make(map[string][]Turn)}
}

func (s *InMemoryStore) Load(_ context.Context, userID string) ([]Turn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stored := s.turns[userID]
	out := make([]Turn, len(stored))
	copy(out, stored)
	return out, nil
}

func (s *InMemoryStore) Save(_ context.Context, userID string, turns []Turn) error {
	cp := make([]Turn, len(turns))
	copy(cp, turns)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns[userID] = cp
	return nil
}

func (s *InMemoryStore) Clear(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns[userID] = nil
	return nil
}

func (s *InMemoryStore) Close() error { return nil }
