package store

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

type refreshRow struct {
	userID    string
	expiresAt time.Time
}

// InMemoryUserStore is a development-only in-memory implementation.
type InMemoryUserStore struct {
	mu      sync.RWMutex
	users   map[string]User
	refresh map[string]refreshRow
}

func NewInMemoryUserStore() *InMemoryUserStore {
	return &InMemoryUserStore{
		users:   make(map[string]User),
		refresh: make(map[string]refreshRow),
	}
}

func (s *InMemoryUserStore) CreateUser(_ context.Context, p CreateUserParams) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Email, p.Email) || strings.EqualFold(u.Username, p.Username) {
			return User{}, ErrConflict
		}
	}
	u := User{
		ID:           uuid.NewString(),
		Email:        p.Email,
		Username:     p.Username,
		FullName:     p.FullName,
		PasswordHash: p.PasswordHash,
		CreatedAt:    time.Now().UTC(),
	}
	s.users[u.ID] = u
	return u, nil
}

func (s *InMemoryUserStore) FindByLogin(_ context.Context, login string) (User, error) {
	login = strings.TrimSpace(login)
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Email, login) || strings.EqualFold(u.Username, login) {
			return u, nil
		}
	}
	return User{}, ErrNotFound
}

func (s *InMemoryUserStore) GetUser(_ context.Context, id string) (User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return User{}, ErrNotFound
	}
	return u, nil
}

func (s *InMemoryUserStore) SaveRefreshToken(_ context.Context, tokenHash, userID string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refresh[tokenHash] = refreshRow{userID: userID, expiresAt: expiresAt}
	return nil
}

func (s *InMemoryUserStore) ConsumeRefreshToken(_ context.Context, tokenHash string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.refresh[tokenHash]
	if !ok || time.Now().After(row.expiresAt) {
		delete(s.refresh, tokenHash)
		return "", ErrNotFound
	}
	delete(s.refresh, tokenHash)
	return row.userID, nil
}
