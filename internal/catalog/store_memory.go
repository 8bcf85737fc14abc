package catalog

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemoryLaboratoryStore is the laboratory store used in tests and when
// postgres is not configured.
type InMemoryLaboratoryStore struct {
	mu     sync.Mutex
	byName map[string]Laboratory
}

func NewInMemoryLaboratoryStore() *InMemoryLaboratoryStore {
	return &InMemoryLaboratoryStore{byName: make(map[string]Laboratory)}
}

func (s *InMemoryLaboratoryStore) GetOrCreate(_ context.Context, name string) (Laboratory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if lab, ok := s.byName[name]; ok {
		return lab, nil
	}
	lab := Laboratory{ID: uuid.New(), Name: name, CreatedAt: time.Now()}
	s.byName[name] = lab
	return lab, nil
}

func (s *InMemoryLaboratoryStore) List(_ context.Context) ([]Laboratory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	labs := make([]Laboratory, 0, len(s.byName))
	for _, lab := range s.byName {
		labs = append(labs, lab)
	}
	sort.Slice(labs, func(i, j int) bool { return labs[i].Name < labs[j].Name })
	return labs, nil
}

// InMemoryCategoryStore is the category store used in tests and when
// postgres is not configured.
type InMemoryCategoryStore struct {
	mu     sync.Mutex
	byName map[string]Category
}

func NewInMemoryCategoryStore() *InMemoryCategoryStore {
	return &InMemoryCategoryStore{byName: make(map[string]Category)}
}

func (s *InMemoryCategoryStore) GetOrCreate(_ context.Context, name string) (Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cat, ok := s.byName[name]; ok {
		return cat, nil
	}
	cat := Category{ID: uuid.New(), Name: name, CreatedAt: time.Now()}
	s.byName[name] = cat
	return cat, nil
}

func (s *InMemoryCategoryStore) List(_ context.Context) ([]Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cats := make([]Category, 0, len(s.byName))
	for _, cat := range s.byName {
		cats = append(cats, cat)
	}
	sort.Slice(cats, func(i, j int) bool { return cats[i].Name < cats[j].Name })
	return cats, nil
}
