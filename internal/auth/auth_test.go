package auth

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("s3cret-pass")
	require.NoError(t, err)
	require.NotEqual(t, "s3cret-pass", hash)

	require.NoError(t, CheckPasswordHash(hash, "s3cret-pass"))
	require.ErrorIs(t, CheckPasswordHash(hash, "wrong"), ErrInvalidCredentials)
}

func TestTokensRoundTrip(t *testing.T) {
	tokens := NewTokens("test-secret", time.Hour)
	want := Principal{UserID: "3f7c1c38-3b0e-4a4b-9d7e-6f0d1c2b3a49", Username: "ana", IsStaff: true}

	token, err := tokens.MakeJWT(want)
	require.NoError(t, err)

	got, err := tokens.ValidateJWT(token)
	require.NoError(t, err)
	require.Equal(t, want, got)
}

func TestValidateJWTRejects(t *testing.T) {
	tokens := NewTokens("test-secret", time.Hour)
	valid, err := tokens.MakeJWT(Principal{UserID: "u1", Username: "u"})
	require.NoError(t, err)

	t.Run("wrong secret", func(t *testing.T) {
		_, err := NewTokens("other", time.Hour).ValidateJWT(valid)
		require.Error(t, err)
	})

	t.Run("expired", func(t *testing.T) {
		expired := NewTokens("test-secret", time.Minute)
		expired.now = func() time.Time { return time.Now().Add(-time.Hour) }
		token, err := expired.MakeJWT(Principal{UserID: "u1"})
		require.NoError(t, err)

		_, err = tokens.ValidateJWT(token)
		require.ErrorIs(t, err, jwt.ErrTokenExpired)
	})

	t.Run("no subject", func(t *testing.T) {
		token, err := tokens.MakeJWT(Principal{Username: "ghost"})
		require.NoError(t, err)
		_, err = tokens.ValidateJWT(token)
		require.ErrorIs(t, err, ErrTokenWithNoSubject)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := tokens.ValidateJWT("not-a-token")
		require.Error(t, err)
	})
}

func TestGetBearerToken(t *testing.T) {
	tests := []struct {
		name    string
		header  string
		want    string
		wantErr error
	}{
		{name: "valid", header: "Bearer abc.def", want: "abc.def"},
		{name: "extra spaces", header: "Bearer   abc  ", want: "abc"},
		{name: "missing", header: "", wantErr: ErrNoAuthorizationHeader},
		{name: "basic", header: "Basic Zm9vOmJhcg==", wantErr: ErrMalformedAuthHeader},
		{name: "empty token", header: "Bearer   ", wantErr: ErrNoTokenInAuthHeader},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			headers := http.Header{}
			if tt.header != "" {
				headers.Set("Authorization", tt.header)
			}
			got, err := GetBearerToken(headers)
			if tt.wantErr != nil {
				require.True(t, errors.Is(err, tt.wantErr), "got %v", err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestPrincipalContext(t *testing.T) {
	_, ok := PrincipalFromContext(context.Background())
	require.False(t, ok)

	ctx := WithPrincipal(context.Background(), Principal{UserID: "u1"})
	p, ok := PrincipalFromContext(ctx)
	require.True(t, ok)
	require.Equal(t, "u1", p.UserID)
}
