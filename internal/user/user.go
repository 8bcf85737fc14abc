// Package user holds the minimal account records behind credential seeding
// and the bootstrap administrator. There is no login flow here; sessions and
// tokens live in a separate service.
package user

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Role distinguishes the bootstrap administrator from seeded client accounts.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleClient Role = "client"
)

// User is one stored account.
type User struct {
	ID           uuid.UUID `json:"id"`
	Login        string    `json:"login"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Store persists users with a unique login.
type Store interface {
	// Create inserts a user, returning sentinel.ErrAlreadyUsed when the
	// login is taken.
	Create(ctx context.Context, u User) error
	FindByLogin(ctx context.Context, login string) (User, error)
}
