package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"arbor/application/services"
	"arbor/infrastructure/persistence/memory"
	"arbor/pkg/auth"
	pkgerrors "arbor/pkg/errors"
)

func newAuthService(t *testing.T, refreshTTL time.Duration) *services.AuthService {
	t.Helper()

	jwtService, err := auth.NewJWTService(auth.JWTConfig{
		SecretKey: "test-secret",
		Issuer:    "arbor-test",
		AccessTTL: 15 * time.Minute,
	})
	require.NoError(t, err)

	return services.NewAuthService(
		memory.NewUserStore(),
		memory.NewRefreshTokenStore(),
		jwtService,
		refreshTTL,
		nil,
	)
}

func TestRegister(t *testing.T) {
	ctx := context.Background()

	t.Run("creates a member account", func(t *testing.T) {
		svc := newAuthService(t, time.Hour)

		info, err := svc.Register(ctx, "alice", "sup3r-secret")
		require.NoError(t, err)
		assert.NotEmpty(t, info.ID)
		assert.Equal(t, "alice", info.Username)
		assert.Equal(t, "member", info.Role)
	})

	t.Run("rejects a taken username", func(t *testing.T) {
		svc := newAuthService(t, time.Hour)

		_, err := svc.Register(ctx, "alice", "sup3r-secret")
		require.NoError(t, err)

		_, err = svc.Register(ctx, "alice", "other-secret")
		require.Error(t, err)
		assert.True(t, pkgerrors.IsValidation(err))
	})

	t.Run("rejects a short password", func(t *testing.T) {
		svc := newAuthService(t, time.Hour)

		_, err := svc.Register(ctx, "alice", "short")
		require.Error(t, err)
		assert.True(t, pkgerrors.IsValidation(err))
	})
}

func TestLogin(t *testing.T) {
	ctx := context.Background()

	t.Run("issues a token pair for valid credentials", func(t *testing.T) {
		svc := newAuthService(t, time.Hour)

		_, err := svc.Register(ctx, "alice", "sup3r-secret")
		require.NoError(t, err)

		pair, err := svc.Login(ctx, "alice", "sup3r-secret")
		require.NoError(t, err)
		assert.NotEmpty(t, pair.AccessToken)
		assert.NotEmpty(t, pair.RefreshToken)
		assert.Equal(t, "Bearer", pair.TokenType)
		assert.Equal(t, int64((15 * time.Minute).Seconds()), pair.ExpiresIn)
	})

	t.Run("rejects a wrong password", func(t *testing.T) {
		svc := newAuthService(t, time.Hour)

		_, err := svc.Register(ctx, "alice", "sup3r-secret")
		require.NoError(t, err)

		_, err = svc.Login(ctx, "alice", "wrong-password")
		require.Error(t, err)
		assert.True(t, pkgerrors.IsType(err, pkgerrors.ErrorTypeUnauthorized))
	})

	t.Run("answers the same for an unknown user", func(t *testing.T) {
		svc := newAuthService(t, time.Hour)

		_, err := svc.Login(ctx, "nobody", "whatever-pass")
		require.Error(t, err)
		assert.True(t, pkgerrors.IsType(err, pkgerrors.ErrorTypeUnauthorized))
	})
}

func TestRefresh(t *testing.T) {
	ctx := context.Background()

	t.Run("rotates the refresh token", func(t *testing.T) {
		svc := newAuthService(t, time.Hour)

		_, err := svc.Register(ctx, "alice", "sup3r-secret")
		require.NoError(t, err)
		pair, err := svc.Login(ctx, "alice", "sup3r-secret")
		require.NoError(t, err)

		next, err := svc.Refresh(ctx, pair.RefreshToken)
		require.NoError(t, err)
		assert.NotEqual(t, pair.RefreshToken, next.RefreshToken)

		// The rotated-out token is dead
		_, err = svc.Refresh(ctx, pair.RefreshToken)
		require.Error(t, err)
		assert.True(t, pkgerrors.IsType(err, pkgerrors.ErrorTypeUnauthorized))
	})

	t.Run("reuse of a rotated token revokes the whole session", func(t *testing.T) {
		svc := newAuthService(t, time.Hour)

		_, err := svc.Register(ctx, "alice", "sup3r-secret")
		require.NoError(t, err)
		pair, err := svc.Login(ctx, "alice", "sup3r-secret")
		require.NoError(t, err)

		next, err := svc.Refresh(ctx, pair.RefreshToken)
		require.NoError(t, err)

		// Replay the old token; the fresh one must die with it
		_, err = svc.Refresh(ctx, pair.RefreshToken)
		require.Error(t, err)

		_, err = svc.Refresh(ctx, next.RefreshToken)
		require.Error(t, err)
		assert.True(t, pkgerrors.IsType(err, pkgerrors.ErrorTypeUnauthorized))
	})

	t.Run("rejects an expired token", func(t *testing.T) {
		svc := newAuthService(t, -time.Minute)

		_, err := svc.Register(ctx, "alice", "sup3r-secret")
		require.NoError(t, err)
		pair, err := svc.Login(ctx, "alice", "sup3r-secret")
		require.NoError(t, err)

		_, err = svc.Refresh(ctx, pair.RefreshToken)
		require.Error(t, err)
		assert.True(t, pkgerrors.IsType(err, pkgerrors.ErrorTypeUnauthorized))
	})

	t.Run("rejects an unknown token", func(t *testing.T) {
		svc := newAuthService(t, time.Hour)

		_, err := svc.Refresh(ctx, "never-issued")
		require.Error(t, err)
		assert.True(t, pkgerrors.IsType(err, pkgerrors.ErrorTypeUnauthorized))
	})
}

func TestLogout(t *testing.T) {
	ctx := context.Background()

	t.Run("revokes the refresh token", func(t *testing.T) {
		svc := newAuthService(t, time.Hour)

		_, err := svc.Register(ctx, "alice", "sup3r-secret")
		require.NoError(t, err)
		pair, err := svc.Login(ctx, "alice", "sup3r-secret")
		require.NoError(t, err)

		require.NoError(t, svc.Logout(ctx, pair.RefreshToken))

		_, err = svc.Refresh(ctx, pair.RefreshToken)
		require.Error(t, err)
	})

	t.Run("is idempotent for unknown tokens", func(t *testing.T) {
		svc := newAuthService(t, time.Hour)

		require.NoError(t, svc.Logout(ctx, "never-issued"))
		require.NoError(t, svc.Logout(ctx, "never-issued"))
	})
}
