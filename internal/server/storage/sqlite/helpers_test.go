package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noteit/noteit/internal/models"
)

// setupTestStorage creates an in-memory storage with migrations applied
func setupTestStorage(t *testing.T) (*Storage, func()) {
	t.Helper()

	s, err := New(context.Background(), ":memory:")
	require.NoError(t, err)

	return s, func() {
		require.NoError(t, s.Close())
	}
}

// createTestUser inserts a user and returns its id
func createTestUser(t *testing.T, ctx context.Context, s *Storage, username, email string) int64 {
	t.Helper()

	user := &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: "$2a$10$fakehashfakehashfakehash",
		CreatedAt:    time.Now(),
	}
	require.NoError(t, s.CreateUser(ctx, user))
	require.NotZero(t, user.ID)

	return user.ID
}
