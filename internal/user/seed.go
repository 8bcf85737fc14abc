package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"backoffice/internal/user/secrets"
	"backoffice/pkg/platform/sentinel"
)

// SeedBootstrapAdmin creates the default administrator account when none
// exists. Orthogonal startup plumbing: the reconciliation pipeline never
// touches it. Safe to run on every boot.
func SeedBootstrapAdmin(ctx context.Context, store Store, login, password string, logger *slog.Logger) error {
	if password == "" {
		logger.Warn("bootstrap admin password not configured, skipping admin seed")
		return nil
	}

	if _, err := store.FindByLogin(ctx, login); err == nil {
		return nil
	} else if !errors.Is(err, sentinel.ErrNotFound) {
		return fmt.Errorf("check bootstrap admin: %w", err)
	}

	hash, err := secrets.Hash(password)
	if err != nil {
		return fmt.Errorf("hash bootstrap admin password: %w", err)
	}

	err = store.Create(ctx, User{Login: login, PasswordHash: hash, Role: RoleAdmin})
	if err != nil && !errors.Is(err, sentinel.ErrAlreadyUsed) {
		return fmt.Errorf("create bootstrap admin: %w", err)
	}
	if err == nil {
		logger.Info("bootstrap admin created", "login", login)
	}
	return nil
}
