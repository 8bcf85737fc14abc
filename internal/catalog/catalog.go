// Package catalog manages the laboratory and category lookup tables that
// product records reference by name. Import analysis auto-creates missing
// entries, so resolution is always get-or-create.
package catalog

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Laboratory is a product manufacturer lookup row.
type Laboratory struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// Category is a product classification lookup row.
type Category struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// LaboratoryStore persists laboratories keyed by unique name.
type LaboratoryStore interface {
	// GetOrCreate returns the laboratory with the given normalized name,
	// creating it when absent. Concurrent calls for the same name converge
	// on one row.
	GetOrCreate(ctx context.Context, name string) (Laboratory, error)
	List(ctx context.Context) ([]Laboratory, error)
}

// CategoryStore persists categories keyed by unique name.
type CategoryStore interface {
	GetOrCreate(ctx context.Context, name string) (Category, error)
	List(ctx context.Context) ([]Category, error)
}
