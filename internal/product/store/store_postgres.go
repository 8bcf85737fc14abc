package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"backoffice/internal/product/models"
	"backoffice/internal/reconcile"
	"backoffice/pkg/platform/sentinel"
)

// Postgres persists products in the products table, joined to the catalog
// tables for display names. Unique indexes on code and barcode are the
// server-side uniqueness backstop.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

const productSelect = `
	SELECT p.code, p.barcode, p.description,
	       l.name, p.laboratory_id,
	       c.name, p.category_id,
	       p.unit_price, p.created_at
	FROM products p
	JOIN laboratories l ON l.id = p.laboratory_id
	JOIN categories c ON c.id = p.category_id
`

func scanProduct(row interface{ Scan(...any) error }) (models.Product, error) {
	var p models.Product
	err := row.Scan(&p.Code, &p.Barcode, &p.Description,
		&p.Laboratory, &p.LaboratoryID,
		&p.Category, &p.CategoryID,
		&p.UnitPrice, &p.CreatedAt)
	return p, err
}

// FindByKeys fetches every persisted product whose code or barcode intersects
// the batch keys, in one round trip.
func (s *Postgres) FindByKeys(ctx context.Context, codes, barcodes []string) ([]models.Product, error) {
	query := productSelect + ` WHERE p.code = ANY($1) OR p.barcode = ANY($2)`
	rows, err := s.db.QueryContext(ctx, query, pq.Array(codes), pq.Array(barcodes))
	if err != nil {
		return nil, fmt.Errorf("find products by keys: %w", err)
	}
	defer rows.Close()

	var out []models.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// BulkInsert writes the whole subset in one unordered statement, with ON
// CONFLICT DO NOTHING turning uniqueness violations into skipped rows. The
// RETURNING diff identifies the rejected records.
//
// Within-payload key repeats are rejected up front; the RETURNING diff is
// keyed on code and cannot account for a code appearing twice in one payload.
func (s *Postgres) BulkInsert(ctx context.Context, recs []models.Product) (reconcile.BulkResult, error) {
	if len(recs) == 0 {
		return reconcile.BulkResult{}, nil
	}

	var res reconcile.BulkResult
	seenCodes := make(map[string]struct{}, len(recs))
	seenBarcodes := make(map[string]struct{}, len(recs))
	unique := make([]models.Product, 0, len(recs))
	for _, p := range recs {
		if _, dup := seenCodes[p.Code]; dup {
			res.Rejected = append(res.Rejected, reconcile.Rejection{
				Primary: p.Code, Secondary: p.Barcode, Reason: "product code already exists",
			})
			continue
		}
		if _, dup := seenBarcodes[p.Barcode]; dup {
			res.Rejected = append(res.Rejected, reconcile.Rejection{
				Primary: p.Code, Secondary: p.Barcode, Reason: "barcode already exists",
			})
			continue
		}
		seenCodes[p.Code] = struct{}{}
		seenBarcodes[p.Barcode] = struct{}{}
		unique = append(unique, p)
	}
	recs = unique

	now := time.Now()
	args := make([]any, 0, len(recs)*7)
	placeholders := make([]string, 0, len(recs))
	for i, p := range recs {
		base := i * 7
		placeholders = append(placeholders, fmt.Sprintf("($%d,$%d,$%d,$%d,$%d,$%d,$%d)",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7))
		args = append(args, p.Code, p.Barcode, p.Description, p.LaboratoryID, p.CategoryID, p.UnitPrice, now)
	}

	query := fmt.Sprintf(`
		INSERT INTO products (code, barcode, description, laboratory_id, category_id, unit_price, created_at)
		VALUES %s
		ON CONFLICT DO NOTHING
		RETURNING code
	`, strings.Join(placeholders, ","))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return reconcile.BulkResult{}, fmt.Errorf("bulk insert products: %w", err)
	}
	defer rows.Close()

	inserted := make(map[string]struct{}, len(recs))
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return reconcile.BulkResult{}, fmt.Errorf("scan inserted code: %w", err)
		}
		inserted[code] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return reconcile.BulkResult{}, fmt.Errorf("bulk insert products: %w", err)
	}

	res.Inserted = len(inserted)
	for _, p := range recs {
		if _, ok := inserted[p.Code]; !ok {
			res.Rejected = append(res.Rejected, reconcile.Rejection{
				Primary:   p.Code,
				Secondary: p.Barcode,
				Reason:    "product code or barcode already exists",
			})
		}
	}
	return res, nil
}

func (s *Postgres) Create(ctx context.Context, p models.Product) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO products (code, barcode, description, laboratory_id, category_id, unit_price, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`, p.Code, p.Barcode, p.Description, p.LaboratoryID, p.CategoryID, p.UnitPrice, time.Now())
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return sentinel.ErrAlreadyUsed
		}
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

func (s *Postgres) FindByCode(ctx context.Context, code string) (models.Product, error) {
	p, err := scanProduct(s.db.QueryRowContext(ctx, productSelect+` WHERE p.code = $1`, code))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Product{}, sentinel.ErrNotFound
	}
	if err != nil {
		return models.Product{}, fmt.Errorf("find product by code: %w", err)
	}
	return p, nil
}

func (s *Postgres) Update(ctx context.Context, p models.Product) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE products
		SET description = $2, laboratory_id = $3, category_id = $4, unit_price = $5
		WHERE code = $1
	`, p.Code, p.Description, p.LaboratoryID, p.CategoryID, p.UnitPrice)
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

// List returns one page of products plus the total match count.
func (s *Postgres) List(ctx context.Context, q ListQuery) ([]models.Product, int, error) {
	pageSize := q.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}
	page := q.Page
	if page <= 0 {
		page = 1
	}

	term := "%" + strings.ToUpper(strings.TrimSpace(q.Search)) + "%"
	query := `
		SELECT COUNT(*) OVER() AS total,
		       p.code, p.barcode, p.description,
		       l.name, p.laboratory_id,
		       c.name, p.category_id,
		       p.unit_price, p.created_at
		FROM products p
		JOIN laboratories l ON l.id = p.laboratory_id
		JOIN categories c ON c.id = p.category_id
		WHERE p.code LIKE $1 OR p.barcode LIKE $1 OR p.description LIKE $1
		ORDER BY p.code
		LIMIT $2 OFFSET $3
	`

	rows, err := s.db.QueryContext(ctx, query, term, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var out []models.Product
	total := 0
	for rows.Next() {
		var p models.Product
		if err := rows.Scan(&total, &p.Code, &p.Barcode, &p.Description,
			&p.Laboratory, &p.LaboratoryID, &p.Category, &p.CategoryID,
			&p.UnitPrice, &p.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan product: %w", err)
		}
		out = append(out, p)
	}
	return out, total, rows.Err()
}
