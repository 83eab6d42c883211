package storage

import (
	"context"

	"github.com/noteit/noteit/internal/models"
)

// TokenStorage defines interface for refresh token persistence.
// The store keeps at most one record per user: an upsert replaces the
// user's existing record atomically.
type TokenStorage interface {
	// UpsertRefreshToken stores the refresh token record for token.UserID,
	// replacing any existing record for that user in a single atomic write.
	UpsertRefreshToken(ctx context.Context, token *models.RefreshToken) error

	// GetRefreshToken retrieves a refresh token record by token value
	// Returns ErrTokenNotFound if no record holds that value
	GetRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error)

	// GetUserRefreshToken retrieves the refresh token record for a user
	// Returns ErrTokenNotFound if the user has no record
	GetUserRefreshToken(ctx context.Context, userID int64) (*models.RefreshToken, error)

	// RevokeRefreshToken marks the record holding the token value as revoked.
	// No-op (nil) if no record holds that value.
	RevokeRefreshToken(ctx context.Context, token string) error

	// DeleteUserRefreshToken deletes the record for a user
	// Returns ErrTokenNotFound if the user has no record
	DeleteUserRefreshToken(ctx context.Context, userID int64) error

	// DeleteRefreshToken deletes the user's record only if it still holds
	// the given token value. No-op (nil) when the record was already
	// replaced or removed.
	DeleteRefreshToken(ctx context.Context, userID int64, token string) error

	// DeleteExpiredTokens removes all expired records
	// Returns number of deleted records
	DeleteExpiredTokens(ctx context.Context) (int, error)
}
