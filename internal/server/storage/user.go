package storage

import (
	"context"

	"github.com/noteit/noteit/internal/models"
)

// UserStorage defines interface for user account persistence
type UserStorage interface {
	// CreateUser creates a new user and fills in the generated ID
	// Returns ErrUserAlreadyExists if the username or email is taken
	CreateUser(ctx context.Context, user *models.User) error

	// GetUserByID retrieves a user by id
	// Returns ErrUserNotFound if the user doesn't exist
	GetUserByID(ctx context.Context, id int64) (*models.User, error)

	// GetUserByEmail retrieves a user by email
	// Returns ErrUserNotFound if the user doesn't exist
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)

	// GetUserByUsername retrieves a user by username
	// Returns ErrUserNotFound if the user doesn't exist
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
}
