package handlers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noteit/noteit/internal/models"
)

func TestPrincipalContext(t *testing.T) {
	t.Run("missing", func(t *testing.T) {
		_, ok := GetPrincipal(context.Background())
		assert.False(t, ok)
	})

	t.Run("round trip", func(t *testing.T) {
		ctx := WithPrincipal(context.Background(), &models.Principal{UserID: 42, Username: "alice"})

		p, ok := GetPrincipal(ctx)
		require.True(t, ok)
		assert.Equal(t, int64(42), p.UserID)
	})

	t.Run("first principal wins", func(t *testing.T) {
		ctx := WithPrincipal(context.Background(), &models.Principal{UserID: 42})
		ctx = WithPrincipal(ctx, &models.Principal{UserID: 7})

		p, ok := GetPrincipal(ctx)
		require.True(t, ok)
		assert.Equal(t, int64(42), p.UserID)
	})
}
