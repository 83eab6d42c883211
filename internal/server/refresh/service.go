package refresh

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/noteit/noteit/internal/models"
	"github.com/noteit/noteit/internal/server/storage"
	"github.com/noteit/noteit/internal/server/token"
)

// ErrRefreshExpired reports that the user's refresh record is expired or
// revoked. Callers treat this as a normal outcome (the session simply ended),
// not an exception path.
var ErrRefreshExpired = errors.New("refresh token expired or revoked")

// Service creates, verifies, revokes, and rotates refresh tokens.
// All mutations for one user are serialized through a per-user lock, so two
// concurrent rotations converge to exactly one live record; the store's
// atomic upsert guarantees the row itself is never torn.
type Service struct {
	logger *slog.Logger
	tokens storage.TokenStorage
	users  storage.UserStorage
	signer *token.Service

	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

// NewService creates a refresh rotation service
func NewService(logger *slog.Logger, tokens storage.TokenStorage, users storage.UserStorage, signer *token.Service) *Service {
	return &Service{
		logger: logger,
		tokens: tokens,
		users:  users,
		signer: signer,
		locks:  make(map[int64]*sync.Mutex),
	}
}

// CreateOrRotate overwrites the user's single stored record with a newly
// signed rotation token and a fresh expiry, resetting the revoked flag.
func (s *Service) CreateOrRotate(ctx context.Context, user *models.User) (*models.RefreshToken, error) {
	lock := s.userLock(user.ID)
	lock.Lock()
	defer lock.Unlock()

	value, expiresAt, err := s.signer.SignRefresh(user.ID, user.Username, user.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to sign refresh token: %w", err)
	}

	record := &models.RefreshToken{
		ID:        uuid.New().String(),
		UserID:    user.ID,
		Token:     value,
		ExpiresAt: expiresAt,
		Revoked:   false,
		CreatedAt: time.Now(),
	}

	if err := s.tokens.UpsertRefreshToken(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}

	s.logger.DebugContext(ctx, "refresh token rotated", slog.Int64("user_id", user.ID))

	return record, nil
}

// Verify reports whether the stored record is still live. An expired or
// revoked record is deleted as a side effect (expire-on-read) and reported
// as not live. The delete is keyed on the exact token value: record may be a
// stale snapshot, and a rotation that ran in between must keep its fresh
// record.
func (s *Service) Verify(ctx context.Context, record *models.RefreshToken) bool {
	if time.Now().After(record.ExpiresAt) || record.Revoked {
		lock := s.userLock(record.UserID)
		lock.Lock()
		defer lock.Unlock()

		if err := s.tokens.DeleteRefreshToken(ctx, record.UserID, record.Token); err != nil {
			s.logger.WarnContext(ctx, "failed to delete dead refresh token",
				slog.Int64("user_id", record.UserID), slog.Any("error", err))
		}
		return false
	}
	return true
}

// Revoke marks the record holding the token value as revoked.
// Idempotent; revoking an unknown value is a no-op.
func (s *Service) Revoke(ctx context.Context, tokenValue string) error {
	if err := s.tokens.RevokeRefreshToken(ctx, tokenValue); err != nil {
		return fmt.Errorf("failed to revoke refresh token: %w", err)
	}
	return nil
}

// FindByToken looks up a refresh record by its opaque token value.
func (s *Service) FindByToken(ctx context.Context, tokenValue string) (*models.RefreshToken, error) {
	return s.tokens.GetRefreshToken(ctx, tokenValue)
}

// FindByUser looks up the refresh record for a user.
func (s *Service) FindByUser(ctx context.Context, userID int64) (*models.RefreshToken, error) {
	return s.tokens.GetUserRefreshToken(ctx, userID)
}

// MintAccessToken signs a new access token for the user, provided their
// stored refresh record is still live. The caller never presents the refresh
// token value itself. Returns ErrRefreshExpired when the record is expired or
// revoked; the middleware depends on exactly this capability for silent
// in-band renewal, never on the public refresh endpoint.
func (s *Service) MintAccessToken(ctx context.Context, userID int64) (string, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("failed to resolve user %d: %w", userID, err)
	}

	record, err := s.tokens.GetUserRefreshToken(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("failed to load refresh token for user %d: %w", userID, err)
	}

	if !s.Verify(ctx, record) {
		return "", ErrRefreshExpired
	}

	accessToken, err := s.signer.SignAccess(user.ID, user.Username, user.Email)
	if err != nil {
		return "", fmt.Errorf("failed to sign access token: %w", err)
	}

	return accessToken, nil
}

// userLock returns the mutex serializing mutations for one user.
func (s *Service) userLock(userID int64) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	lock, ok := s.locks[userID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[userID] = lock
	}
	return lock
}
