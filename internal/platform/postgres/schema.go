package postgres

import (
	"context"
	"database/sql"
	"fmt"
)

// schema is the full DDL, idempotent so it can run on every startup. The
// unique indexes on the natural keys are the server-side backstop behind the
// ON CONFLICT bulk writes.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS clients (
		code          TEXT PRIMARY KEY,
		tax_id        TEXT NOT NULL UNIQUE,
		business_name TEXT NOT NULL,
		contact_name  TEXT NOT NULL,
		address       TEXT NOT NULL,
		phone         TEXT NOT NULL,
		email         TEXT NOT NULL,
		password_hash TEXT NOT NULL,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS laboratories (
		id         UUID PRIMARY KEY,
		name       TEXT NOT NULL UNIQUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS categories (
		id         UUID PRIMARY KEY,
		name       TEXT NOT NULL UNIQUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS products (
		code          TEXT PRIMARY KEY,
		barcode       TEXT NOT NULL UNIQUE,
		description   TEXT NOT NULL,
		laboratory_id UUID NOT NULL REFERENCES laboratories(id),
		category_id   UUID NOT NULL REFERENCES categories(id),
		unit_price    NUMERIC(12,2) NOT NULL,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS users (
		id            UUID PRIMARY KEY,
		login         TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		role          TEXT NOT NULL,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS orders (
		id          UUID PRIMARY KEY,
		client_code TEXT NOT NULL REFERENCES clients(code),
		status      TEXT NOT NULL,
		notes       TEXT NOT NULL DEFAULT '',
		created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS order_lines (
		order_id     UUID NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
		product_code TEXT NOT NULL REFERENCES products(code),
		quantity     INTEGER NOT NULL,
		unit_price   NUMERIC(12,2) NOT NULL,
		PRIMARY KEY (order_id, product_code)
	)`,
	`CREATE TABLE IF NOT EXISTS audit_events (
		id         UUID PRIMARY KEY,
		action     TEXT NOT NULL,
		entity     TEXT NOT NULL,
		request_id TEXT NOT NULL DEFAULT '',
		payload    JSONB NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_orders_client_code ON orders (client_code)`,
	`CREATE INDEX IF NOT EXISTS idx_audit_events_created_at ON audit_events (created_at DESC)`,
}

// EnsureSchema applies the DDL. Safe to call on every startup.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
