package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// PostgresLaboratoryStore persists laboratories with a unique index on name.
type PostgresLaboratoryStore struct {
	db *sql.DB
}

func NewPostgresLaboratoryStore(db *sql.DB) *PostgresLaboratoryStore {
	return &PostgresLaboratoryStore{db: db}
}

// GetOrCreate upserts by name in one round trip. The no-op DO UPDATE makes
// RETURNING yield the row whether it was just inserted or already existed.
func (s *PostgresLaboratoryStore) GetOrCreate(ctx context.Context, name string) (Laboratory, error) {
	query := `
		INSERT INTO laboratories (id, name, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		RETURNING id, name, created_at
	`
	var lab Laboratory
	err := s.db.QueryRowContext(ctx, query, uuid.New(), name, time.Now()).
		Scan(&lab.ID, &lab.Name, &lab.CreatedAt)
	if err != nil {
		return Laboratory{}, fmt.Errorf("get or create laboratory: %w", err)
	}
	return lab, nil
}

func (s *PostgresLaboratoryStore) List(ctx context.Context) ([]Laboratory, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, created_at FROM laboratories ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list laboratories: %w", err)
	}
	defer rows.Close()

	var labs []Laboratory
	for rows.Next() {
		var lab Laboratory
		if err := rows.Scan(&lab.ID, &lab.Name, &lab.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan laboratory: %w", err)
		}
		labs = append(labs, lab)
	}
	return labs, rows.Err()
}

// PostgresCategoryStore persists categories with a unique index on name.
type PostgresCategoryStore struct {
	db *sql.DB
}

func NewPostgresCategoryStore(db *sql.DB) *PostgresCategoryStore {
	return &PostgresCategoryStore{db: db}
}

func (s *PostgresCategoryStore) GetOrCreate(ctx context.Context, name string) (Category, error) {
	query := `
		INSERT INTO categories (id, name, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		RETURNING id, name, created_at
	`
	var cat Category
	err := s.db.QueryRowContext(ctx, query, uuid.New(), name, time.Now()).
		Scan(&cat.ID, &cat.Name, &cat.CreatedAt)
	if err != nil {
		return Category{}, fmt.Errorf("get or create category: %w", err)
	}
	return cat, nil
}

func (s *PostgresCategoryStore) List(ctx context.Context) ([]Category, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, created_at FROM categories ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var cats []Category
	for rows.Next() {
		var cat Category
		if err := rows.Scan(&cat.ID, &cat.Name, &cat.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		cats = append(cats, cat)
	}
	return cats, rows.Err()
}
