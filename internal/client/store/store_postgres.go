package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"backoffice/internal/client/models"
	"backoffice/internal/reconcile"
	"backoffice/pkg/platform/sentinel"
)

// Postgres persists clients in the clients table, which carries unique
// indexes on code and tax_id as the server-side uniqueness backstop.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

const clientColumns = "code, tax_id, business_name, contact_name, address, phone, email, password_hash, created_at"

func scanClient(row interface{ Scan(...any) error }) (models.Client, error) {
	var c models.Client
	err := row.Scan(&c.Code, &c.TaxID, &c.BusinessName, &c.ContactName, &c.Address, &c.Phone, &c.Email, &c.PasswordHash, &c.CreatedAt)
	return c, err
}

// FindByKeys fetches every persisted client whose code or tax id intersects
// the batch keys, in one round trip.
func (s *Postgres) FindByKeys(ctx context.Context, codes, taxIDs []string) ([]models.Client, error) {
	query := fmt.Sprintf(`SELECT %s FROM clients WHERE code = ANY($1) OR tax_id = ANY($2)`, clientColumns)
	rows, err := s.db.QueryContext(ctx, query, pq.Array(codes), pq.Array(taxIDs))
	if err != nil {
		return nil, fmt.Errorf("find clients by keys: %w", err)
	}
	defer rows.Close()

	var out []models.Client
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, fmt.Errorf("scan client: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// BulkInsert writes the whole subset in one unordered statement. ON CONFLICT
// DO NOTHING turns uniqueness violations into silently skipped rows; the
// RETURNING clause tells us which rows actually landed, and the difference
// is reported per record. One round trip regardless of batch size.
//
// Within-payload key repeats are rejected up front: the RETURNING diff is
// keyed on code, so a second row reusing a code (or tax id) from the same
// payload would otherwise vanish without a rejection.
func (s *Postgres) BulkInsert(ctx context.Context, recs []models.Client) (reconcile.BulkResult, error) {
	if len(recs) == 0 {
		return reconcile.BulkResult{}, nil
	}

	var res reconcile.BulkResult
	seenCodes := make(map[string]struct{}, len(recs))
	seenTaxIDs := make(map[string]struct{}, len(recs))
	unique := make([]models.Client, 0, len(recs))
	for _, c := range recs {
		if _, dup := seenCodes[c.Code]; dup {
			res.Rejected = append(res.Rejected, reconcile.Rejection{
				Primary: c.Code, Secondary: c.TaxID, Reason: "client code already exists",
			})
			continue
		}
		if _, dup := seenTaxIDs[c.TaxID]; dup {
			res.Rejected = append(res.Rejected, reconcile.Rejection{
				Primary: c.Code, Secondary: c.TaxID, Reason: "tax id already exists",
			})
			continue
		}
		seenCodes[c.Code] = struct{}{}
		seenTaxIDs[c.TaxID] = struct{}{}
		unique = append(unique, c)
	}
	recs = unique

	now := time.Now()
	args := make([]any, 0, len(recs)*9)
	placeholders := make([]string, 0, len(recs))
	for i, c := range recs {
		base := i * 9
		placeholders = append(placeholders, fmt.Sprintf("($%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d)",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7, base+8, base+9))
		args = append(args, c.Code, c.TaxID, c.BusinessName, c.ContactName, c.Address, c.Phone, c.Email, c.PasswordHash, now)
	}

	query := fmt.Sprintf(`
		INSERT INTO clients (%s)
		VALUES %s
		ON CONFLICT DO NOTHING
		RETURNING code
	`, clientColumns, strings.Join(placeholders, ","))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return reconcile.BulkResult{}, fmt.Errorf("bulk insert clients: %w", err)
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
		return reconcile.BulkResult{}, fmt.Errorf("bulk insert clients: %w", err)
	}

	res.Inserted = len(inserted)
	for _, c := range recs {
		if _, ok := inserted[c.Code]; !ok {
			res.Rejected = append(res.Rejected, reconcile.Rejection{
				Primary:   c.Code,
				Secondary: c.TaxID,
				Reason:    "client code or tax id already exists",
			})
		}
	}
	return res, nil
}

func (s *Postgres) Create(ctx context.Context, c models.Client) error {
	query := fmt.Sprintf(`INSERT INTO clients (%s) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`, clientColumns)
	_, err := s.db.ExecContext(ctx, query,
		c.Code, c.TaxID, c.BusinessName, c.ContactName, c.Address, c.Phone, c.Email, c.PasswordHash, time.Now())
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return sentinel.ErrAlreadyUsed
		}
		return fmt.Errorf("insert client: %w", err)
	}
	return nil
}

func (s *Postgres) FindByCode(ctx context.Context, code string) (models.Client, error) {
	query := fmt.Sprintf(`SELECT %s FROM clients WHERE code = $1`, clientColumns)
	c, err := scanClient(s.db.QueryRowContext(ctx, query, code))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Client{}, sentinel.ErrNotFound
	}
	if err != nil {
		return models.Client{}, fmt.Errorf("find client by code: %w", err)
	}
	return c, nil
}

func (s *Postgres) Update(ctx context.Context, c models.Client) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE clients
		SET business_name = $2, contact_name = $3, address = $4, phone = $5, email = $6
		WHERE code = $1
	`, c.Code, c.BusinessName, c.ContactName, c.Address, c.Phone, c.Email)
	if err != nil {
		return fmt.Errorf("update client: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update client: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

// List returns one page of clients plus the total match count, using a
// window count to avoid a second query.
func (s *Postgres) List(ctx context.Context, q ListQuery) ([]models.Client, int, error) {
	pageSize := q.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}
	page := q.Page
	if page <= 0 {
		page = 1
	}

	term := "%" + strings.ToUpper(strings.TrimSpace(q.Search)) + "%"
	query := fmt.Sprintf(`
		SELECT %s, COUNT(*) OVER() AS total
		FROM clients
		WHERE code LIKE $1 OR tax_id LIKE $1 OR business_name LIKE $1
		ORDER BY code
		LIMIT $2 OFFSET $3
	`, clientColumns)

	rows, err := s.db.QueryContext(ctx, query, term, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("list clients: %w", err)
	}
	defer rows.Close()

	var out []models.Client
	total := 0
	for rows.Next() {
		var c models.Client
		if err := rows.Scan(&c.Code, &c.TaxID, &c.BusinessName, &c.ContactName, &c.Address, &c.Phone, &c.Email, &c.PasswordHash, &c.CreatedAt, &total); err != nil {
			return nil, 0, fmt.Errorf("scan client: %w", err)
		}
		out = append(out, c)
	}
	return out, total, rows.Err()
}
