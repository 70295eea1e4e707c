package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/Clark-Hu/cinemateca/internal/auth"
	"github.com/Clark-Hu/cinemateca/internal/domain"
)

// StaffStore creates or promotes staff accounts.
type StaffStore interface {
	EnsureStaff(ctx context.Context, username, email, passwordHash string) (domain.User, error)
}

// BootstrapStaff makes sure username exists as a staff account with the given
// password. Running it again with the same input is harmless.
func BootstrapStaff(ctx context.Context, users StaffStore, username, email, password string) (domain.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return domain.User{}, fmt.Errorf("%w: staff username is required", ErrInvalidInput)
	}
	if len(password) < 8 {
		return domain.User{}, fmt.Errorf("%w: staff password must be at least 8 characters", ErrInvalidInput)
	}
	email = strings.TrimSpace(email)
	if email == "" {
		email = username + "@localhost"
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return domain.User{}, fmt.Errorf("hash staff password: %w", err)
	}
	user, err := users.EnsureStaff(ctx, username, email, hash)
	if err != nil {
		return domain.User{}, fmt.Errorf("ensure staff %s: %w", username, err)
	}
	return user, nil
}
