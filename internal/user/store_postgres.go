package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"backoffice/pkg/platform/sentinel"
)

// PostgresStore persists users in the users table with a unique index on login.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, u User) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, login, password_hash, role, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, u.ID, u.Login, u.PasswordHash, string(u.Role), time.Now())
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return sentinel.ErrAlreadyUsed
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByLogin(ctx context.Context, login string) (User, error) {
	var u User
	var role string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, login, password_hash, role, created_at FROM users WHERE login = $1
	`, login).Scan(&u.ID, &u.Login, &u.PasswordHash, &role, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, sentinel.ErrNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("find user by login: %w", err)
	}
	u.Role = Role(role)
	return u, nil
}
