package user

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"backoffice/pkg/platform/sentinel"
)

// InMemoryStore is the user store used in tests and when postgres is not
// configured.
type InMemoryStore struct {
	mu      sync.Mutex
	byLogin map[string]User
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{byLogin: make(map[string]User)}
}

func (s *InMemoryStore) Create(_ context.Context, u User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, dup := s.byLogin[u.Login]; dup {
		return sentinel.ErrAlreadyUsed
	}
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	u.CreatedAt = time.Now()
	s.byLogin[u.Login] = u
	return nil
}

func (s *InMemoryStore) FindByLogin(_ context.Context, login string) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.byLogin[login]
	if !ok {
		return User{}, sentinel.ErrNotFound
	}
	return u, nil
}
