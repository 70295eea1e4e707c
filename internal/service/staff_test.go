package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Clark-Hu/cinemateca/internal/auth"
	"github.com/Clark-Hu/cinemateca/internal/domain"
)

type staffRecorder struct {
	calls []domain.User
}

func (s *staffRecorder) EnsureStaff(_ context.Context, username, email, passwordHash string) (domain.User, error) {
	u := domain.User{ID: "u-1", Username: username, Email: email, PasswordHash: passwordHash, IsStaff: true}
	s.calls = append(s.calls, u)
	return u, nil
}

func TestBootstrapStaff(t *testing.T) {
	ctx := context.Background()
	store := &staffRecorder{}

	user, err := BootstrapStaff(ctx, store, " root ", "", "correct-horse")
	require.NoError(t, err)
	require.True(t, user.IsStaff)
	require.Equal(t, "root", user.Username)
	require.Equal(t, "root@localhost", user.Email)
	require.NoError(t, auth.CheckPasswordHash(user.PasswordHash, "correct-horse"))

	_, err = BootstrapStaff(ctx, store, "", "", "correct-horse")
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = BootstrapStaff(ctx, store, "root", "", "short")
	require.ErrorIs(t, err, ErrInvalidInput)

	require.Len(t, store.calls, 1)
}
