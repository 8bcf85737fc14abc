// Package service orchestrates the client domain: bulk-import analyze and
// commit on top of the reconciliation engine, plus routine CRUD.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"backoffice/internal/audit"
	"backoffice/internal/client/models"
	"backoffice/internal/client/store"
	"backoffice/internal/platform/metrics"
	"backoffice/internal/platform/middleware"
	"backoffice/internal/reconcile"
	"backoffice/internal/user/secrets"
	dErrors "backoffice/pkg/domain-errors"
	"backoffice/pkg/platform/sentinel"
	pstrings "backoffice/pkg/platform/strings"
)

const entity = "clients"

// Store is what the service needs from client persistence.
type Store interface {
	FindByKeys(ctx context.Context, codes, taxIDs []string) ([]models.Client, error)
	BulkInsert(ctx context.Context, recs []models.Client) (reconcile.BulkResult, error)
	Create(ctx context.Context, c models.Client) error
	FindByCode(ctx context.Context, code string) (models.Client, error)
	Update(ctx context.Context, c models.Client) error
	List(ctx context.Context, q store.ListQuery) ([]models.Client, int, error)
}

// Auditor receives import events. *audit.Publisher satisfies it.
type Auditor interface {
	Emit(ctx context.Context, event audit.Event)
}

// Service runs the client reconciliation pipeline.
type Service struct {
	clients Store
	metrics *metrics.Metrics
	auditor Auditor
	logger  *slog.Logger
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

// New constructs the client service.
func New(clients Store, opts ...Option) *Service {
	s := &Service{clients: clients, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ConflictingClient is a conflicting candidate with its reason, as returned
// to the operator.
type ConflictingClient struct {
	models.Client
	ConflictReason string `json:"conflictReason"`
}

// AnalyzeReport is the outcome of one analyze request.
type AnalyzeReport struct {
	Summary     reconcile.Summary
	New         []models.Client
	Current     []models.Client
	Conflicting []ConflictingClient
	Invalid     []reconcile.InvalidRow
}

// AnalyzeImport normalizes, validates and classifies one uploaded batch
// against the persisted store. Read-only: nothing is persisted until the
// operator commits the New subset.
func (s *Service) AnalyzeImport(ctx context.Context, raws []reconcile.RawRecord) (*AnalyzeReport, error) {
	if len(raws) == 0 {
		return nil, dErrors.New(dErrors.CodeBadRequest, "clients batch is required")
	}
	start := time.Now()

	var candidates []models.Client
	var invalid []reconcile.InvalidRow
	for _, raw := range raws {
		c, errs := models.FromRaw(raw)
		if len(errs) > 0 {
			invalid = append(invalid, reconcile.InvalidRow{Data: raw, Errors: errs})
			continue
		}
		candidates = append(candidates, c)
	}

	codes := make([]string, 0, len(candidates))
	taxIDs := make([]string, 0, len(candidates))
	for _, c := range candidates {
		codes = append(codes, c.Code)
		taxIDs = append(taxIDs, c.TaxID)
	}

	persisted, err := s.clients.FindByKeys(ctx, pstrings.DedupeAndTrim(codes), pstrings.DedupeAndTrim(taxIDs))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "lookup existing clients")
	}

	outcome := reconcile.Classify(candidates, persisted, invalid,
		reconcile.WithKeyNames[models.Client]("client code", "tax id"))

	conflicting := make([]ConflictingClient, 0, len(outcome.Conflicting))
	for _, c := range outcome.Conflicting {
		conflicting = append(conflicting, ConflictingClient{Client: c.Record, ConflictReason: c.Reason})
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

// CommitReport is the outcome of one commit request.
type CommitReport struct {
	CreatedCount     int
	DuplicateRecords []reconcile.Rejection
}

// CommitImport persists an operator-approved New subset. Each record gets a
// portal credential derived from its tax id before the single bulk write.
// Records that raced into the store since analyze come back as duplicates;
// re-committing the same subset is safe and reports every record rejected.
func (s *Service) CommitImport(ctx context.Context, recs []models.Client) (*CommitReport, error) {
	if len(recs) == 0 {
		return nil, dErrors.New(dErrors.CodeBadRequest, "newRecords is required")
	}
	start := time.Now()

	normalized := make([]models.Client, 0, len(recs))
	for i, rec := range recs {
		c, errs := rec.Normalize()
		if len(errs) > 0 {
			return nil, dErrors.Newf(dErrors.CodeBadRequest, "record %d: %v", i, errs)
		}
		normalized = append(normalized, c)
	}

	res, err := reconcile.Commit(ctx, normalized, s.clients, deriveCredential)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "commit clients")
	}

	if len(res.Rejected) > 0 {
		s.logger.WarnContext(ctx, "client commit rejected duplicates",
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

// deriveCredential seeds the client portal credential: the initial password
// is the tax id, stored only as a bcrypt hash.
func deriveCredential(_ context.Context, c *models.Client) error {
	hash, err := secrets.Hash(c.TaxID)
	if err != nil {
		return fmt.Errorf("seed credential for %s: %w", c.Code, err)
	}
	c.PasswordHash = hash
	return nil
}

// Create persists one manually-entered client.
func (s *Service) Create(ctx context.Context, c models.Client) (models.Client, error) {
	normalized, errs := c.Normalize()
	if len(errs) > 0 {
		return models.Client{}, dErrors.Newf(dErrors.CodeInvalidInput, "%v", errs)
	}
	if err := deriveCredential(ctx, &normalized); err != nil {
		return models.Client{}, dErrors.Wrap(err, dErrors.CodeInternal, "seed client credential")
	}

	if err := s.clients.Create(ctx, normalized); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			return models.Client{}, dErrors.New(dErrors.CodeConflict, "client code or tax id already exists")
		}
		return models.Client{}, dErrors.Wrap(err, dErrors.CodeInternal, "create client")
	}
	return normalized, nil
}

// Get fetches a client by code.
func (s *Service) Get(ctx context.Context, code string) (models.Client, error) {
	code = reconcile.AlphaNumKey(code)
	if err := models.CodeFormat.Check(code); err != nil {
		return models.Client{}, dErrors.New(dErrors.CodeBadRequest, err.Error())
	}

	c, err := s.clients.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return models.Client{}, dErrors.New(dErrors.CodeNotFound, "client not found")
		}
		return models.Client{}, dErrors.Wrap(err, dErrors.CodeInternal, "find client")
	}
	return c, nil
}

// Update replaces the descriptive fields of an existing client. Keys are
// immutable.
func (s *Service) Update(ctx context.Context, c models.Client) (models.Client, error) {
	c.Code = reconcile.AlphaNumKey(c.Code)
	if err := models.CodeFormat.Check(c.Code); err != nil {
		return models.Client{}, dErrors.New(dErrors.CodeBadRequest, err.Error())
	}
	c.BusinessName = reconcile.FreeText(c.BusinessName)
	c.ContactName = reconcile.FreeText(c.ContactName)
	c.Address = reconcile.FreeText(c.Address)
	c.Phone = reconcile.DigitKey(c.Phone)
	c.Email = reconcile.FreeText(c.Email)

	if err := s.clients.Update(ctx, c); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return models.Client{}, dErrors.New(dErrors.CodeNotFound, "client not found")
		}
		return models.Client{}, dErrors.Wrap(err, dErrors.CodeInternal, "update client")
	}
	return s.Get(ctx, c.Code)
}

// List returns one page of clients with the total match count.
func (s *Service) List(ctx context.Context, q store.ListQuery) ([]models.Client, int, error) {
	items, total, err := s.clients.List(ctx, q)
	if err != nil {
		return nil, 0, dErrors.Wrap(err, dErrors.CodeInternal, "list clients")
	}
	return items, total, nil
}
