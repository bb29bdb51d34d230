package auth

import (
	"context"
	"sync"
	"time"
)

// InMemoryStore is a simple in-process account store for local/dev use.
type InMemoryStore struct {
	mu    sync.RWMutex
	users map[string]User
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{users: make(map[string]User)}
}

func (s *InMemoryStore) Create(_ context.Context, username, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[username]; ok {
		return ErrUserExists
	}
	s.users[username] = User{
		Username:  username,
		Password:  password,
		CreatedAt: time.Now().UTC(),
	}
	return nil
}

func (s *InMemoryStore) Authenticate(_ context.Context, username, password string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[username]
	if !ok || u.Password != password {
		return ErrInvalidCredentials
	}
	return nil
}

func (s *InMemoryStore) Close() error { return nil }
