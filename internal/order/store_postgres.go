package order

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"backoffice/pkg/platform/sentinel"
)

// PostgresStore persists orders across the orders and order_lines tables.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Create writes the order and its lines in one transaction.
func (s *PostgresStore) Create(ctx context.Context, o Order) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create order: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO orders (id, client_code, status, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
	`, o.ID, o.ClientCode, o.Status, o.Notes, o.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	for _, l := range o.Lines {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO order_lines (order_id, product_code, quantity, unit_price)
			VALUES ($1, $2, $3, $4)
		`, o.ID, l.ProductCode, l.Quantity, l.UnitPrice)
		if err != nil {
			return fmt.Errorf("insert order line: %w", err)
		}
	}

	return tx.Commit()
}

func (s *PostgresStore) FindByID(ctx context.Context, id uuid.UUID) (Order, error) {
	var o Order
	err := s.db.QueryRowContext(ctx, `
		SELECT id, client_code, status, notes, created_at, updated_at
		FROM orders WHERE id = $1
	`, id).Scan(&o.ID, &o.ClientCode, &o.Status, &o.Notes, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Order{}, sentinel.ErrNotFound
	}
	if err != nil {
		return Order{}, fmt.Errorf("find order: %w", err)
	}

	if o.Lines, err = s.lines(ctx, id); err != nil {
		return Order{}, err
	}
	return o, nil
}

func (s *PostgresStore) lines(ctx context.Context, id uuid.UUID) ([]Line, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT product_code, quantity, unit_price
		FROM order_lines WHERE order_id = $1
		ORDER BY product_code
	`, id)
	if err != nil {
		return nil, fmt.Errorf("load order lines: %w", err)
	}
	defer rows.Close()

	var out []Line
	for rows.Next() {
		var l Line
		if err := rows.Scan(&l.ProductCode, &l.Quantity, &l.UnitPrice); err != nil {
			return nil, fmt.Errorf("scan order line: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// ListByClient returns one page of the client's orders, newest first, with
// lines loaded per order. Pages are small, so the per-order line query is
// acceptable here.
func (s *PostgresStore) ListByClient(ctx context.Context, clientCode string, page, pageSize int) ([]Order, int, error) {
	if pageSize <= 0 {
		pageSize = 50
	}
	if page <= 0 {
		page = 1
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT COUNT(*) OVER() AS total, id, client_code, status, notes, created_at, updated_at
		FROM orders
		WHERE $1 = '' OR client_code = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, clientCode, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var out []Order
	total := 0
	for rows.Next() {
		var o Order
		if err := rows.Scan(&total, &o.ID, &o.ClientCode, &o.Status, &o.Notes, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan order: %w", err)
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	for i := range out {
		if out[i].Lines, err = s.lines(ctx, out[i].ID); err != nil {
			return nil, 0, err
		}
	}
	return out, total, nil
}

func (s *PostgresStore) UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE orders SET status = $2, updated_at = $3 WHERE id = $1
	`, id, status, time.Now())
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}
