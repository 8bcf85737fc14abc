package order

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"backoffice/pkg/platform/sentinel"
)

// Store persists orders.
type Store interface {
	Create(ctx context.Context, o Order) error
	FindByID(ctx context.Context, id uuid.UUID) (Order, error)
	ListByClient(ctx context.Context, clientCode string, page, pageSize int) ([]Order, int, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error
}

// MemoryStore is an in-memory order store guarded by one mutex.
type MemoryStore struct {
	mu     sync.Mutex
	orders map[uuid.UUID]Order
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{orders: make(map[uuid.UUID]Order)}
}

func (s *MemoryStore) Create(_ context.Context, o Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders[o.ID] = o
	return nil
}

func (s *MemoryStore) FindByID(_ context.Context, id uuid.UUID) (Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[id]
	if !ok {
		return Order{}, sentinel.ErrNotFound
	}
	return o, nil
}

// ListByClient returns one page of the client's orders, newest first.
func (s *MemoryStore) ListByClient(_ context.Context, clientCode string, page, pageSize int) ([]Order, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var matched []Order
	for _, o := range s.orders {
		if clientCode == "" || o.ClientCode == clientCode {
			matched = append(matched, o)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })

	total := len(matched)
	if pageSize <= 0 {
		pageSize = 50
	}
	if page <= 0 {
		page = 1
	}
	start := (page - 1) * pageSize
	if start > total {
		start = total
	}
	end := start + pageSize
	if end > total {
		end = total
	}
	return matched[start:end], total, nil
}

func (s *MemoryStore) UpdateStatus(_ context.Context, id uuid.UUID, status Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	o.Status = status
	o.UpdatedAt = time.Now()
	s.orders[id] = o
	return nil
}
