package refresh

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noteit/noteit/internal/models"
	"github.com/noteit/noteit/internal/server/storage"
	"github.com/noteit/noteit/internal/server/storage/sqlite"
	"github.com/noteit/noteit/internal/server/token"
)

func setupService(t *testing.T) (*Service, *sqlite.Storage) {
	t.Helper()

	store, err := sqlite.New(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, store.Close()) })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	signer := token.NewService([]byte("test-secret-key"), 15*time.Minute, 30*24*time.Hour)

	return NewService(logger, store, store, signer), store
}

func createUser(t *testing.T, store *sqlite.Storage, username, email string) *models.User {
	t.Helper()

	user := &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: "hash",
		CreatedAt:    time.Now(),
	}
	require.NoError(t, store.CreateUser(context.Background(), user))

	return user
}

func TestService_CreateOrRotate(t *testing.T) {
	ctx := context.Background()
	svc, store := setupService(t)
	user := createUser(t, store, "alice", "alice@example.com")

	first, err := svc.CreateOrRotate(ctx, user)
	require.NoError(t, err)
	assert.NotEmpty(t, first.Token)
	assert.False(t, first.Revoked)

	second, err := svc.CreateOrRotate(ctx, user)
	require.NoError(t, err)

	// Rotation replaces the single stored record.
	got, err := svc.FindByUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, second.ID, got.ID)
	assert.Equal(t, second.Token, got.Token)
}

func TestService_CreateOrRotate_Concurrent(t *testing.T) {
	ctx := context.Background()
	svc, store := setupService(t)
	user := createUser(t, store, "alice", "alice@example.com")

	const n = 20

	results := make([]*models.RefreshToken, n)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			record, err := svc.CreateOrRotate(ctx, user)
			assert.NoError(t, err)
			results[i] = record
		}(i)
	}
	wg.Wait()

	got, err := svc.FindByUser(ctx, user.ID)
	require.NoError(t, err)

	// Exactly one record survives, and it is one of the returned rotations.
	found := false
	for _, record := range results {
		if record != nil && record.ID == got.ID {
			found = true
			break
		}
	}
	assert.True(t, found, "stored record must match one returned rotation")
}

func TestService_Verify(t *testing.T) {
	ctx := context.Background()
	svc, store := setupService(t)
	user := createUser(t, store, "alice", "alice@example.com")

	t.Run("live record", func(t *testing.T) {
		record, err := svc.CreateOrRotate(ctx, user)
		require.NoError(t, err)

		assert.True(t, svc.Verify(ctx, record))

		_, err = svc.FindByUser(ctx, user.ID)
		assert.NoError(t, err)
	})

	t.Run("expired record is deleted on read", func(t *testing.T) {
		expired := &models.RefreshToken{
			ID:        uuid.New().String(),
			UserID:    user.ID,
			Token:     "expired-value",
			ExpiresAt: time.Now().Add(-time.Hour),
			CreatedAt: time.Now().Add(-48 * time.Hour),
		}
		require.NoError(t, store.UpsertRefreshToken(ctx, expired))

		assert.False(t, svc.Verify(ctx, expired))

		_, err := svc.FindByUser(ctx, user.ID)
		assert.ErrorIs(t, err, storage.ErrTokenNotFound)
	})

	t.Run("stale dead snapshot keeps a rotated record", func(t *testing.T) {
		expired := &models.RefreshToken{
			ID:        uuid.New().String(),
			UserID:    user.ID,
			Token:     "stale-value",
			ExpiresAt: time.Now().Add(-time.Hour),
			CreatedAt: time.Now().Add(-48 * time.Hour),
		}
		require.NoError(t, store.UpsertRefreshToken(ctx, expired))

		// A rotation lands after the dead record was read but before it is
		// verified. The stale snapshot must not destroy the fresh session.
		rotated, err := svc.CreateOrRotate(ctx, user)
		require.NoError(t, err)

		assert.False(t, svc.Verify(ctx, expired))

		got, err := svc.FindByUser(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, rotated.Token, got.Token)
	})

	t.Run("revoked record is deleted on read", func(t *testing.T) {
		record, err := svc.CreateOrRotate(ctx, user)
		require.NoError(t, err)

		require.NoError(t, svc.Revoke(ctx, record.Token))

		revoked, err := svc.FindByToken(ctx, record.Token)
		require.NoError(t, err)

		assert.False(t, svc.Verify(ctx, revoked))

		_, err = svc.FindByUser(ctx, user.ID)
		assert.ErrorIs(t, err, storage.ErrTokenNotFound)
	})
}

func TestService_Revoke_Idempotent(t *testing.T) {
	ctx := context.Background()
	svc, store := setupService(t)
	user := createUser(t, store, "alice", "alice@example.com")

	record, err := svc.CreateOrRotate(ctx, user)
	require.NoError(t, err)

	require.NoError(t, svc.Revoke(ctx, record.Token))
	require.NoError(t, svc.Revoke(ctx, record.Token))
	require.NoError(t, svc.Revoke(ctx, "never-issued"))

	got, err := svc.FindByToken(ctx, record.Token)
	require.NoError(t, err)
	assert.True(t, got.Revoked)
}

func TestService_MintAccessToken(t *testing.T) {
	ctx := context.Background()
	svc, store := setupService(t)
	user := createUser(t, store, "alice", "alice@example.com")

	t.Run("live refresh record", func(t *testing.T) {
		_, err := svc.CreateOrRotate(ctx, user)
		require.NoError(t, err)

		access, err := svc.MintAccessToken(ctx, user.ID)
		require.NoError(t, err)
		assert.NotEmpty(t, access)

		signer := token.NewService([]byte("test-secret-key"), 15*time.Minute, time.Hour)
		claims, err := signer.Verify(access)
		require.NoError(t, err)
		assert.Equal(t, "alice", claims.Username)
	})

	t.Run("expired refresh record", func(t *testing.T) {
		expired := &models.RefreshToken{
			ID:        uuid.New().String(),
			UserID:    user.ID,
			Token:     "expired-value",
			ExpiresAt: time.Now().Add(-time.Hour),
			CreatedAt: time.Now().Add(-48 * time.Hour),
		}
		require.NoError(t, store.UpsertRefreshToken(ctx, expired))

		_, err := svc.MintAccessToken(ctx, user.ID)
		assert.ErrorIs(t, err, ErrRefreshExpired)
	})

	t.Run("no refresh record", func(t *testing.T) {
		_, err := svc.MintAccessToken(ctx, user.ID)
		require.Error(t, err)
		assert.ErrorIs(t, err, storage.ErrTokenNotFound)
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := svc.MintAccessToken(ctx, 99999)
		assert.ErrorIs(t, err, storage.ErrUserNotFound)
	})
}
