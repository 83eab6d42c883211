package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noteit/noteit/internal/models"
	"github.com/noteit/noteit/internal/server/storage"
)

func newTestToken(userID int64, value string, expiresAt time.Time) *models.RefreshToken {
	return &models.RefreshToken{
		ID:        uuid.New().String(),
		UserID:    userID,
		Token:     value,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now(),
	}
}

func TestTokenStorage_UpsertRefreshToken(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	userID := createTestUser(t, ctx, s, "alice", "alice@example.com")

	first := newTestToken(userID, "token-one", time.Now().Add(24*time.Hour))
	require.NoError(t, s.UpsertRefreshToken(ctx, first))

	// The second upsert for the same user must replace the record, not add one.
	second := newTestToken(userID, "token-two", time.Now().Add(48*time.Hour))
	second.Revoked = false
	require.NoError(t, s.UpsertRefreshToken(ctx, second))

	got, err := s.GetUserRefreshToken(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, "token-two", got.Token)
	assert.False(t, got.Revoked)

	_, err = s.GetRefreshToken(ctx, "token-one")
	assert.ErrorIs(t, err, storage.ErrTokenNotFound)

	var count int
	require.NoError(t, s.DB().QueryRowContext(ctx,
		"SELECT COUNT(*) FROM refresh_tokens WHERE user_id = ?", userID).Scan(&count))
	assert.Equal(t, 1, count)
}

func TestTokenStorage_GetRefreshToken(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	userID := createTestUser(t, ctx, s, "alice", "alice@example.com")
	require.NoError(t, s.UpsertRefreshToken(ctx, newTestToken(userID, "findme", time.Now().Add(24*time.Hour))))

	t.Run("by value", func(t *testing.T) {
		got, err := s.GetRefreshToken(ctx, "findme")
		require.NoError(t, err)
		assert.Equal(t, userID, got.UserID)
	})

	t.Run("by user", func(t *testing.T) {
		got, err := s.GetUserRefreshToken(ctx, userID)
		require.NoError(t, err)
		assert.Equal(t, "findme", got.Token)
	})

	t.Run("not found", func(t *testing.T) {
		_, err := s.GetRefreshToken(ctx, "missing")
		assert.ErrorIs(t, err, storage.ErrTokenNotFound)

		_, err = s.GetUserRefreshToken(ctx, 99999)
		assert.ErrorIs(t, err, storage.ErrTokenNotFound)
	})
}

func TestTokenStorage_RevokeRefreshToken(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	userID := createTestUser(t, ctx, s, "alice", "alice@example.com")
	require.NoError(t, s.UpsertRefreshToken(ctx, newTestToken(userID, "revokable", time.Now().Add(24*time.Hour))))

	require.NoError(t, s.RevokeRefreshToken(ctx, "revokable"))

	got, err := s.GetRefreshToken(ctx, "revokable")
	require.NoError(t, err)
	assert.True(t, got.Revoked)

	// Idempotent, and a no-op for unknown values.
	require.NoError(t, s.RevokeRefreshToken(ctx, "revokable"))
	require.NoError(t, s.RevokeRefreshToken(ctx, "unknown"))
}

func TestTokenStorage_DeleteUserRefreshToken(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	userID := createTestUser(t, ctx, s, "alice", "alice@example.com")
	require.NoError(t, s.UpsertRefreshToken(ctx, newTestToken(userID, "deleteme", time.Now().Add(24*time.Hour))))

	require.NoError(t, s.DeleteUserRefreshToken(ctx, userID))

	_, err := s.GetUserRefreshToken(ctx, userID)
	assert.ErrorIs(t, err, storage.ErrTokenNotFound)

	err = s.DeleteUserRefreshToken(ctx, userID)
	assert.ErrorIs(t, err, storage.ErrTokenNotFound)
}

func TestTokenStorage_DeleteRefreshToken(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	userID := createTestUser(t, ctx, s, "alice", "alice@example.com")
	require.NoError(t, s.UpsertRefreshToken(ctx, newTestToken(userID, "current", time.Now().Add(24*time.Hour))))

	t.Run("stale value is a no-op", func(t *testing.T) {
		require.NoError(t, s.DeleteRefreshToken(ctx, userID, "replaced-long-ago"))

		got, err := s.GetUserRefreshToken(ctx, userID)
		require.NoError(t, err)
		assert.Equal(t, "current", got.Token)
	})

	t.Run("matching value deletes", func(t *testing.T) {
		require.NoError(t, s.DeleteRefreshToken(ctx, userID, "current"))

		_, err := s.GetUserRefreshToken(ctx, userID)
		assert.ErrorIs(t, err, storage.ErrTokenNotFound)

		// Idempotent once gone.
		require.NoError(t, s.DeleteRefreshToken(ctx, userID, "current"))
	})
}

func TestTokenStorage_DeleteExpiredTokens(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	aliceID := createTestUser(t, ctx, s, "alice", "alice@example.com")
	bobID := createTestUser(t, ctx, s, "bob", "bob@example.com")

	require.NoError(t, s.UpsertRefreshToken(ctx, newTestToken(aliceID, "expired", time.Now().Add(-48*time.Hour))))
	require.NoError(t, s.UpsertRefreshToken(ctx, newTestToken(bobID, "live", time.Now().Add(48*time.Hour))))

	deleted, err := s.DeleteExpiredTokens(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, deleted)

	_, err = s.GetRefreshToken(ctx, "expired")
	assert.ErrorIs(t, err, storage.ErrTokenNotFound)

	_, err = s.GetRefreshToken(ctx, "live")
	assert.NoError(t, err)
}
