package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/noteit/noteit/internal/models"
	"github.com/noteit/noteit/internal/server/storage"
)

// UpsertRefreshToken stores the refresh token record for token.UserID.
// The ON CONFLICT clause makes the overwrite of a user's record a single
// atomic statement: two concurrent rotations cannot leave a torn row.
func (s *Storage) UpsertRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	query := `
		INSERT INTO refresh_tokens (id, user_id, token, expires_at, revoked, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			token = excluded.token,
			expires_at = excluded.expires_at,
			revoked = excluded.revoked,
			created_at = excluded.created_at
	`

	_, err := s.db.ExecContext(ctx, query,
		token.ID,
		token.UserID,
		token.Token,
		token.ExpiresAt,
		token.Revoked,
		token.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to upsert refresh token: %w", err)
	}

	return nil
}

// GetRefreshToken retrieves a refresh token record by token value
func (s *Storage) GetRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	query := `
		SELECT id, user_id, token, expires_at, revoked, created_at
		FROM refresh_tokens
		WHERE token = ?
	`

	return s.scanToken(s.db.QueryRowContext(ctx, query, token))
}

// GetUserRefreshToken retrieves the refresh token record for a user
func (s *Storage) GetUserRefreshToken(ctx context.Context, userID int64) (*models.RefreshToken, error) {
	query := `
		SELECT id, user_id, token, expires_at, revoked, created_at
		FROM refresh_tokens
		WHERE user_id = ?
	`

	return s.scanToken(s.db.QueryRowContext(ctx, query, userID))
}

// RevokeRefreshToken marks the record holding the token value as revoked.
// Revocation is idempotent; revoking an unknown value is a no-op.
func (s *Storage) RevokeRefreshToken(ctx context.Context, token string) error {
	query := `UPDATE refresh_tokens SET revoked = 1 WHERE token = ?`

	if _, err := s.db.ExecContext(ctx, query, token); err != nil {
		return fmt.Errorf("failed to revoke refresh token: %w", err)
	}

	return nil
}

// DeleteUserRefreshToken deletes the record for a user
func (s *Storage) DeleteUserRefreshToken(ctx context.Context, userID int64) error {
	query := `DELETE FROM refresh_tokens WHERE user_id = ?`

	result, err := s.db.ExecContext(ctx, query, userID)
	if err != nil {
		return fmt.Errorf("failed to delete refresh token: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows == 0 {
		return storage.ErrTokenNotFound
	}

	return nil
}

// DeleteRefreshToken deletes the user's record only if it still holds the
// given token value. A caller acting on a stale snapshot can never remove a
// record written after that snapshot was taken.
func (s *Storage) DeleteRefreshToken(ctx context.Context, userID int64, token string) error {
	query := `DELETE FROM refresh_tokens WHERE user_id = ? AND token = ?`

	if _, err := s.db.ExecContext(ctx, query, userID, token); err != nil {
		return fmt.Errorf("failed to delete refresh token: %w", err)
	}

	return nil
}

// DeleteExpiredTokens removes all expired records
func (s *Storage) DeleteExpiredTokens(ctx context.Context) (int, error) {
	query := `DELETE FROM refresh_tokens WHERE expires_at < datetime('now')`

	result, err := s.db.ExecContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired tokens: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return int(rows), nil
}

func (s *Storage) scanToken(row *sql.Row) (*models.RefreshToken, error) {
	token := &models.RefreshToken{}

	err := row.Scan(
		&token.ID,
		&token.UserID,
		&token.Token,
		&token.ExpiresAt,
		&token.Revoked,
		&token.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrTokenNotFound
		}
		return nil, fmt.Errorf("failed to get refresh token: %w", err)
	}

	return token, nil
}
