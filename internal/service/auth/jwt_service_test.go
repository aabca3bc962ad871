package auth_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tmarkell/scribe-api/internal/service/auth"
)

const testSecret = "test-secret-that-is-long-enough-0123"

func TestNewJWTService(t *testing.T) {
	t.Run("rejects empty secret", func(t *testing.T) {
		_, err := auth.NewJWTService("")
		assert.ErrorIs(t, err, auth.ErrEmptySecret)
	})
}

func TestValidateToken(t *testing.T) {
	svc, err := auth.NewJWTService(testSecret)
	require.NoError(t, err)
	ctx := context.Background()

	t.Run("round-trips a valid token", func(t *testing.T) {
		userID := uuid.New()
		token, err := svc.GenerateToken(ctx, userID, time.Hour)
		require.NoError(t, err)

		claims, err := svc.ValidateToken(ctx, token)
		require.NoError(t, err)
		assert.Equal(t, userID, claims.UserID)
	})

	t.Run("rejects expired token", func(t *testing.T) {
		token, err := svc.GenerateToken(ctx, uuid.New(), -time.Minute)
		require.NoError(t, err)

		_, err = svc.ValidateToken(ctx, token)
		assert.ErrorIs(t, err, auth.ErrExpiredToken)
	})

	t.Run("rejects token signed with different secret", func(t *testing.T) {
		other, err := auth.NewJWTService(strings.Repeat("x", 36))
		require.NoError(t, err)

		token, err := other.GenerateToken(ctx, uuid.New(), time.Hour)
		require.NoError(t, err)

		_, err = svc.ValidateToken(ctx, token)
		assert.ErrorIs(t, err, auth.ErrInvalidToken)
	})

	t.Run("rejects garbage", func(t *testing.T) {
		_, err := svc.ValidateToken(ctx, "not.a.token")
		assert.ErrorIs(t, err, auth.ErrInvalidToken)
	})
}
