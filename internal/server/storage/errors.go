package storage

import "errors"

var (
	// ErrUserNotFound is returned when a user doesn't exist
	ErrUserNotFound = errors.New("user not found")

	// ErrUserAlreadyExists is returned when trying to create a user with a taken username or email
	ErrUserAlreadyExists = errors.New("user already exists")

	// ErrTokenNotFound is returned when a refresh token record doesn't exist
	ErrTokenNotFound = errors.New("refresh token not found")

	// ErrNoteNotFound is returned when a note doesn't exist or belongs to another owner
	ErrNoteNotFound = errors.New("note not found")
)
