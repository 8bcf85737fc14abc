// Package store persists products. Memory backs tests and storeless runs;
// Postgres is the production store.
package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"backoffice/internal/product/models"
	"backoffice/internal/reconcile"
	"backoffice/pkg/platform/sentinel"
)

// ListQuery selects one page of products.
type ListQuery struct {
	Search   string
	Page     int
	PageSize int
}

// Memory is an in-memory product store guarded by one mutex.
type Memory struct {
	mu        sync.Mutex
	byCode    map[string]models.Product
	byBarcode map[string]string // barcode -> code
}

func NewMemory() *Memory {
	return &Memory{
		byCode:    make(map[string]models.Product),
		byBarcode: make(map[string]string),
	}
}

// FindByKeys returns every persisted product whose code or barcode appears in
// the given key lists.
func (s *Memory) FindByKeys(_ context.Context, codes, barcodes []string) ([]models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]struct{})
	var out []models.Product
	for _, code := range codes {
		if p, ok := s.byCode[code]; ok {
			if _, dup := seen[p.Code]; !dup {
				seen[p.Code] = struct{}{}
				out = append(out, p)
			}
		}
	}
	for _, barcode := range barcodes {
		if code, ok := s.byBarcode[barcode]; ok {
			if p, ok := s.byCode[code]; ok {
				if _, dup := seen[p.Code]; !dup {
					seen[p.Code] = struct{}{}
					out = append(out, p)
				}
			}
		}
	}
	return out, nil
}

// BulkInsert inserts records one by one under a single lock, rejecting any
// record whose code or barcode is already taken.
func (s *Memory) BulkInsert(_ context.Context, recs []models.Product) (reconcile.BulkResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var res reconcile.BulkResult
	for _, p := range recs {
		if _, dup := s.byCode[p.Code]; dup {
			res.Rejected = append(res.Rejected, reconcile.Rejection{
				Primary: p.Code, Secondary: p.Barcode, Reason: "product code already exists",
			})
			continue
		}
		if _, dup := s.byBarcode[p.Barcode]; dup {
			res.Rejected = append(res.Rejected, reconcile.Rejection{
				Primary: p.Code, Secondary: p.Barcode, Reason: "barcode already exists",
			})
			continue
		}
		p.CreatedAt = time.Now()
		s.byCode[p.Code] = p
		s.byBarcode[p.Barcode] = p.Code
		res.Inserted++
	}
	return res, nil
}

// Create inserts a single product, failing on either key collision.
func (s *Memory) Create(_ context.Context, p models.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, dup := s.byCode[p.Code]; dup {
		return sentinel.ErrAlreadyUsed
	}
	if _, dup := s.byBarcode[p.Barcode]; dup {
		return sentinel.ErrAlreadyUsed
	}
	p.CreatedAt = time.Now()
	s.byCode[p.Code] = p
	s.byBarcode[p.Barcode] = p.Code
	return nil
}

func (s *Memory) FindByCode(_ context.Context, code string) (models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.byCode[code]
	if !ok {
		return models.Product{}, sentinel.ErrNotFound
	}
	return p, nil
}

// Update replaces the descriptive fields of an existing product. Keys stay
// immutable.
func (s *Memory) Update(_ context.Context, p models.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.byCode[p.Code]
	if !ok {
		return sentinel.ErrNotFound
	}
	p.Barcode = existing.Barcode
	p.CreatedAt = existing.CreatedAt
	s.byCode[p.Code] = p
	return nil
}

// List returns one page of products matching the search term (code, barcode
// or description substring), plus the total match count.
func (s *Memory) List(_ context.Context, q ListQuery) ([]models.Product, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	term := strings.ToUpper(strings.TrimSpace(q.Search))
	var matched []models.Product
	for _, p := range s.byCode {
		if term == "" ||
			strings.Contains(p.Code, term) ||
			strings.Contains(p.Barcode, term) ||
			strings.Contains(p.Description, term) {
			matched = append(matched, p)
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
