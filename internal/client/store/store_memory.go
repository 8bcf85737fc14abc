// Package store persists client records. Both implementations enforce
// uniqueness on the two natural keys; the bulk insert reports duplicates
// per record instead of failing.
package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"backoffice/internal/client/models"
	"backoffice/internal/reconcile"
	"backoffice/pkg/platform/sentinel"
)

// ListQuery carries pagination and search parameters for List.
type ListQuery struct {
	Search   string
	Page     int
	PageSize int
}

// Memory is the in-memory client store used in tests and when postgres is
// not configured.
type Memory struct {
	mu      sync.Mutex
	byCode  map[string]models.Client
	byTaxID map[string]string // tax id -> code
}

func NewMemory() *Memory {
	return &Memory{
		byCode:  make(map[string]models.Client),
		byTaxID: make(map[string]string),
	}
}

// FindByKeys returns every persisted client whose code or tax id appears in
// the given lists.
func (s *Memory) FindByKeys(_ context.Context, codes, taxIDs []string) ([]models.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]struct{})
	var out []models.Client
	for _, code := range codes {
		if c, ok := s.byCode[code]; ok {
			if _, dup := seen[c.Code]; !dup {
				seen[c.Code] = struct{}{}
				out = append(out, c)
			}
		}
	}
	for _, taxID := range taxIDs {
		if code, ok := s.byTaxID[taxID]; ok {
			c := s.byCode[code]
			if _, dup := seen[c.Code]; !dup {
				seen[c.Code] = struct{}{}
				out = append(out, c)
			}
		}
	}
	return out, nil
}

// BulkInsert inserts records one by one under a single lock, rejecting any
// record whose code or tax id is already taken.
func (s *Memory) BulkInsert(_ context.Context, recs []models.Client) (reconcile.BulkResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var res reconcile.BulkResult
	for _, c := range recs {
		if _, dup := s.byCode[c.Code]; dup {
			res.Rejected = append(res.Rejected, reconcile.Rejection{
				Primary: c.Code, Secondary: c.TaxID, Reason: "client code already exists",
			})
			continue
		}
		if _, dup := s.byTaxID[c.TaxID]; dup {
			res.Rejected = append(res.Rejected, reconcile.Rejection{
				Primary: c.Code, Secondary: c.TaxID, Reason: "tax id already exists",
			})
			continue
		}
		c.CreatedAt = time.Now()
		s.byCode[c.Code] = c
		s.byTaxID[c.TaxID] = c.Code
		res.Inserted++
	}
	return res, nil
}

// Create inserts a single client, failing on either key collision.
func (s *Memory) Create(_ context.Context, c models.Client) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, dup := s.byCode[c.Code]; dup {
		return sentinel.ErrAlreadyUsed
	}
	if _, dup := s.byTaxID[c.TaxID]; dup {
		return sentinel.ErrAlreadyUsed
	}
	c.CreatedAt = time.Now()
	s.byCode[c.Code] = c
	s.byTaxID[c.TaxID] = c.Code
	return nil
}

func (s *Memory) FindByCode(_ context.Context, code string) (models.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.byCode[code]
	if !ok {
		return models.Client{}, sentinel.ErrNotFound
	}
	return c, nil
}

// Update replaces the descriptive fields of an existing client. Keys are
// immutable once persisted.
func (s *Memory) Update(_ context.Context, c models.Client) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.byCode[c.Code]
	if !ok {
		return sentinel.ErrNotFound
	}
	c.TaxID = existing.TaxID
	c.PasswordHash = existing.PasswordHash
	c.CreatedAt = existing.CreatedAt
	s.byCode[c.Code] = c
	return nil
}

// List returns one page of clients matching the search term (code, tax id or
// business name substring), plus the total match count.
func (s *Memory) List(_ context.Context, q ListQuery) ([]models.Client, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	term := strings.ToUpper(strings.TrimSpace(q.Search))
	var matched []models.Client
	for _, c := range s.byCode {
		if term == "" ||
			strings.Contains(c.Code, term) ||
			strings.Contains(c.TaxID, term) ||
			strings.Contains(c.BusinessName, term) {
			matched = append(matched, c)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].Code < matched[j].Code })

	total := len(matched)
	start, end := pageBounds(total, q.Page, q.PageSize)
	return matched[start:end], total, nil
}

func pageBounds(total, page, pageSize int) (int, int) {
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
	return start, end
}
