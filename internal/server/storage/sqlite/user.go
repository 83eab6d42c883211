package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/noteit/noteit/internal/models"
	"github.com/noteit/noteit/internal/server/storage"
)

// CreateUser creates a new user and fills in the generated ID
func (s *Storage) CreateUser(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (username, email, password_hash, created_at)
		VALUES (?, ?, ?, ?)
	`

	result, err := s.db.ExecContext(ctx, query,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.CreatedAt,
	)

	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrUserAlreadyExists
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get inserted user id: %w", err)
	}
	user.ID = id

	return nil
}

// GetUserByID retrieves a user by id
func (s *Storage) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	return s.getUser(ctx, "id = ?", id)
}

// GetUserByEmail retrieves a user by email
func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getUser(ctx, "email = ?", email)
}

// GetUserByUsername retrieves a user by username
func (s *Storage) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.getUser(ctx, "username = ?", username)
}

func (s *Storage) getUser(ctx context.Context, where string, arg interface{}) (*models.User, error) {
	query := `
		SELECT id, username, email, password_hash, created_at
		FROM users
		WHERE ` + where

	user := &models.User{}

	err := s.db.QueryRowContext(ctx, query, arg).Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return user, nil
}

// isUniqueViolation reports whether err is a UNIQUE constraint failure.
// modernc.org/sqlite exposes the constraint name only in the error text.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
