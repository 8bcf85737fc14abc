// Package service orchestrates the product domain: bulk-import analyze and
// commit with catalog reference resolution, plus routine CRUD.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"backoffice/internal/audit"
	"backoffice/internal/catalog"
	"backoffice/internal/platform/metrics"
	"backoffice/internal/platform/middleware"
	"backoffice/internal/product/models"
	"backoffice/internal/product/store"
	"backoffice/internal/reconcile"
	dErrors "backoffice/pkg/domain-errors"
	"backoffice/pkg/platform/sentinel"
	pstrings "backoffice/pkg/platform/strings"
)

const entity = "products"

// Store is what the service needs from product persistence.
type Store interface {
	FindByKeys(ctx context.Context, codes, barcodes []string) ([]models.Product, error)
	BulkInsert(ctx context.Context, recs []models.Product) (reconcile.BulkResult, error)
	Create(ctx context.Context, p models.Product) error
	FindByCode(ctx context.Context, code string) (models.Product, error)
	Update(ctx context.Context, p models.Product) error
	List(ctx context.Context, q store.ListQuery) ([]models.Product, int, error)
}

// Auditor receives import events. *audit.Publisher satisfies it.
type Auditor interface {
	Emit(ctx context.Context, event audit.Event)
}

// Service runs the product reconciliation pipeline. Unlike clients, product
// rows reference laboratories and categories by name; both are resolved (and
// auto-created) through the catalog before classification, and a persisted
// code hit is only Current when the payload still matches.
type Service struct {
	products Store
	catalog  *catalog.Service
	metrics  *metrics.Metrics
	auditor  Auditor
	logger   *slog.Logger
}

// Option configures optional service dependencies.
type Option func(*Service)

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithAuditor(a Auditor) Option {
	return func(s *Service) { s.auditor = a }
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// New constructs the product service.
func New(products Store, cat *catalog.Service, opts ...Option) *Service {
	s := &Service{products: products, catalog: cat, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ConflictingProduct is a conflicting candidate with its reason.
type ConflictingProduct struct {
	models.Product
	ConflictReason string `json:"conflictReason"`
}

// AnalyzeReport is the outcome of one analyze request.
type AnalyzeReport struct {
	Summary     reconcile.Summary
	New         []models.Product
	Current     []models.Product
	Conflicting []ConflictingProduct
	Invalid     []reconcile.InvalidRow
}

// AnalyzeImport normalizes, validates and classifies one uploaded batch.
// Catalog rows for new laboratory and category names are created during
// analyze; that is the only store mutation on this path.
func (s *Service) AnalyzeImport(ctx context.Context, raws []reconcile.RawRecord) (*AnalyzeReport, error) {
	if len(raws) == 0 {
		return nil, dErrors.New(dErrors.CodeBadRequest, "products batch is required")
	}
	start := time.Now()

	var candidates []models.Product
	var invalid []reconcile.InvalidRow
	for _, raw := range raws {
		p, errs := models.FromRaw(raw)
		if len(errs) == 0 {
			var err error
			if errs, err = s.resolveReferences(ctx, &p); err != nil {
				return nil, err
			}
		}
		if len(errs) > 0 {
			invalid = append(invalid, reconcile.InvalidRow{Data: raw, Errors: errs})
			continue
		}
		candidates = append(candidates, p)
	}

	codes := make([]string, 0, len(candidates))
	barcodes := make([]string, 0, len(candidates))
	for _, p := range candidates {
		codes = append(codes, p.Code)
		barcodes = append(barcodes, p.Barcode)
	}

	persisted, err := s.products.FindByKeys(ctx, pstrings.DedupeAndTrim(codes), pstrings.DedupeAndTrim(barcodes))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "lookup existing products")
	}

	outcome := reconcile.Classify(candidates, persisted, invalid,
		reconcile.WithKeyNames[models.Product]("product code", "barcode"),
		reconcile.WithPayloadComparer(func(candidate, persisted models.Product) bool {
			return candidate.PayloadEqual(persisted)
		}, "product code already exists with different data"),
	)

	conflicting := make([]ConflictingProduct, 0, len(outcome.Conflicting))
	for _, c := range outcome.Conflicting {
		conflicting = append(conflicting, ConflictingProduct{Product: c.Record, ConflictReason: c.Reason})
	}

	if s.metrics != nil {
		s.metrics.ObserveAnalyze(entity, start)
	}
	if s.auditor != nil {
		s.auditor.Emit(ctx, audit.Event{
			Action:      audit.ActionImportAnalyzed,
			Entity:      entity,
			RequestID:   middleware.GetRequestID(ctx),
			Received:    outcome.Summary.Received,
			New:         outcome.Summary.New,
			Current:     outcome.Summary.Current,
			Conflicting: outcome.Summary.Conflicting,
			Invalid:     outcome.Summary.Invalid,
		})
	}

	return &AnalyzeReport{
		Summary:     outcome.Summary,
		New:         outcome.New,
		Current:     outcome.Current,
		Conflicting: conflicting,
		Invalid:     outcome.Invalid,
	}, nil
}

// resolveReferences fills the catalog ids for the laboratory and category
// names. Unresolvable names invalidate the row rather than conflict it;
// resolvable names missing from the catalog are created on the spot. Catalog
// store failures are not a property of the row and propagate as errors so the
// whole request fails instead of marking every row invalid.
func (s *Service) resolveReferences(ctx context.Context, p *models.Product) ([]string, error) {
	var errs []string

	labID, err := s.catalog.ResolveLaboratory(ctx, p.Laboratory)
	switch {
	case err == nil:
		p.LaboratoryID = labID
	case dErrors.HasCode(err, dErrors.CodeInternal):
		return nil, err
	default:
		errs = append(errs, "laboratory could not be resolved")
	}

	catID, err := s.catalog.ResolveCategory(ctx, p.Category)
	switch {
	case err == nil:
		p.CategoryID = catID
	case dErrors.HasCode(err, dErrors.CodeInternal):
		return nil, err
	default:
		errs = append(errs, "category could not be resolved")
	}

	return errs, nil
}

// CommitReport is the outcome of one commit request.
type CommitReport struct {
	CreatedCount     int
	DuplicateRecords []reconcile.Rejection
}

// CommitImport persists an operator-approved New subset. Catalog references
// are re-resolved so a record edited between analyze and commit still points
// at real rows. Re-committing the same subset is safe.
func (s *Service) CommitImport(ctx context.Context, recs []models.Product) (*CommitReport, error) {
	if len(recs) == 0 {
		return nil, dErrors.New(dErrors.CodeBadRequest, "newRecords is required")
	}
	start := time.Now()

	normalized := make([]models.Product, 0, len(recs))
	for i, rec := range recs {
		p, errs := rec.Normalize()
		if len(errs) == 0 {
			var err error
			if errs, err = s.resolveReferences(ctx, &p); err != nil {
				return nil, err
			}
		}
		if len(errs) > 0 {
			return nil, dErrors.Newf(dErrors.CodeBadRequest, "record %d: %v", i, errs)
		}
		normalized = append(normalized, p)
	}

	res, err := reconcile.Commit(ctx, normalized, s.products, nil)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "commit products")
	}

	if len(res.Rejected) > 0 {
		s.logger.WarnContext(ctx, "product commit rejected duplicates",
			"request_id", middleware.GetRequestID(ctx),
			"rejected", len(res.Rejected),
		)
	}
	if s.metrics != nil {
		s.metrics.ObserveCommit(entity, start, res.Inserted, len(res.Rejected))
	}
	if s.auditor != nil {
		s.auditor.Emit(ctx, audit.Event{
			Action:    audit.ActionImportCommitted,
			Entity:    entity,
			RequestID: middleware.GetRequestID(ctx),
			Created:   res.Inserted,
			Rejected:  len(res.Rejected),
		})
	}

	return &CommitReport{CreatedCount: res.Inserted, DuplicateRecords: res.Rejected}, nil
}

// Create persists one manually-entered product.
func (s *Service) Create(ctx context.Context, p models.Product) (models.Product, error) {
	normalized, errs := p.Normalize()
	if len(errs) == 0 {
		var err error
		if errs, err = s.resolveReferences(ctx, &normalized); err != nil {
			return models.Product{}, err
		}
	}
	if len(errs) > 0 {
		return models.Product{}, dErrors.Newf(dErrors.CodeInvalidInput, "%v", errs)
	}

	if err := s.products.Create(ctx, normalized); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			return models.Product{}, dErrors.New(dErrors.CodeConflict, "product code or barcode already exists")
		}
		return models.Product{}, dErrors.Wrap(err, dErrors.CodeInternal, "create product")
	}
	return normalized, nil
}

// Get fetches a product by code.
func (s *Service) Get(ctx context.Context, code string) (models.Product, error) {
	code = reconcile.AlphaNumKey(code)
	if err := models.CodeFormat.Check(code); err != nil {
		return models.Product{}, dErrors.New(dErrors.CodeBadRequest, err.Error())
	}

	p, err := s.products.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return models.Product{}, dErrors.New(dErrors.CodeNotFound, "product not found")
		}
		return models.Product{}, dErrors.Wrap(err, dErrors.CodeInternal, "find product")
	}
	return p, nil
}

// Update replaces the descriptive fields and catalog references of an
// existing product. Keys are immutable.
func (s *Service) Update(ctx context.Context, p models.Product) (models.Product, error) {
	p.Code = reconcile.AlphaNumKey(p.Code)
	if err := models.CodeFormat.Check(p.Code); err != nil {
		return models.Product{}, dErrors.New(dErrors.CodeBadRequest, err.Error())
	}
	p.Description = reconcile.FreeText(p.Description)
	p.Laboratory = reconcile.FreeText(p.Laboratory)
	p.Category = reconcile.FreeText(p.Category)
	if p.UnitPrice < 0 {
		return models.Product{}, dErrors.New(dErrors.CodeBadRequest, "unit price must not be negative")
	}
	errs, err := s.resolveReferences(ctx, &p)
	if err != nil {
		return models.Product{}, err
	}
	if len(errs) > 0 {
		return models.Product{}, dErrors.Newf(dErrors.CodeInvalidInput, "%v", errs)
	}

	if err := s.products.Update(ctx, p); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return models.Product{}, dErrors.New(dErrors.CodeNotFound, "product not found")
		}
		return models.Product{}, dErrors.Wrap(err, dErrors.CodeInternal, "update product")
	}
	return s.Get(ctx, p.Code)
}

// List returns one page of products with the total match count.
func (s *Service) List(ctx context.Context, q store.ListQuery) ([]models.Product, int, error) {
	items, total, err := s.products.List(ctx, q)
	if err != nil {
		return nil, 0, dErrors.Wrap(err, dErrors.CodeInternal, "list products")
	}
	return items, total, nil
}
