package catalog

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"backoffice/internal/platform/redis"
	dErrors "backoffice/pkg/domain-errors"
)

const cacheTTL = time.Hour

// Service resolves laboratory and category names to IDs with an optional
// redis read-through cache in front of the store. Import batches resolve the
// same handful of names over and over, which is what the cache is for.
type Service struct {
	labs   LaboratoryStore
	cats   CategoryStore
	cache  *redis.Client
	logger *slog.Logger
}

// New constructs the catalog service. cache may be nil (no caching).
func New(labs LaboratoryStore, cats CategoryStore, cache *redis.Client, logger *slog.Logger) *Service {
	return &Service{labs: labs, cats: cats, cache: cache, logger: logger}
}

// ResolveLaboratory returns the ID for a normalized laboratory name,
// creating the row when missing. Empty names are unresolvable.
func (s *Service) ResolveLaboratory(ctx context.Context, name string) (uuid.UUID, error) {
	return s.resolve(ctx, "catalog:lab:", name, func(ctx context.Context) (uuid.UUID, error) {
		lab, err := s.labs.GetOrCreate(ctx, name)
		return lab.ID, err
	})
}

// ResolveCategory returns the ID for a normalized category name, creating
// the row when missing. Empty names are unresolvable.
func (s *Service) ResolveCategory(ctx context.Context, name string) (uuid.UUID, error) {
	return s.resolve(ctx, "catalog:cat:", name, func(ctx context.Context) (uuid.UUID, error) {
		cat, err := s.cats.GetOrCreate(ctx, name)
		return cat.ID, err
	})
}

func (s *Service) resolve(ctx context.Context, prefix, name string, fetch func(context.Context) (uuid.UUID, error)) (uuid.UUID, error) {
	if name == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "name is required")
	}

	key := prefix + name
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, key).Result(); err == nil {
			if id, err := uuid.Parse(cached); err == nil {
				return id, nil
			}
		}
	}

	id, err := fetch(ctx)
	if err != nil {
		return uuid.Nil, dErrors.Wrap(err, dErrors.CodeInternal, "resolve catalog entry")
	}

	if s.cache != nil {
		// Cache failures are not worth failing the import over.
		if err := s.cache.Set(ctx, key, id.String(), cacheTTL).Err(); err != nil {
			s.logger.DebugContext(ctx, "catalog cache set failed", "key", key, "error", err.Error())
		}
	}
	return id, nil
}

// normalizeName puts manually-entered names in the same canonical form the
// import pipeline produces, so both paths hit the same rows.
func normalizeName(v string) string {
	return strings.ToUpper(strings.TrimSpace(v))
}

// ListLaboratories returns all laboratories.
func (s *Service) ListLaboratories(ctx context.Context) ([]Laboratory, error) {
	labs, err := s.labs.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list laboratories")
	}
	return labs, nil
}

// ListCategories returns all categories.
func (s *Service) ListCategories(ctx context.Context) ([]Category, error) {
	cats, err := s.cats.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list categories")
	}
	return cats, nil
}
