package storage

import (
	"context"

	"github.com/noteit/noteit/internal/models"
)

// NoteStorage defines interface for per-owner note persistence.
// Every operation is scoped to an owner id; a note is never visible
// outside its owner.
type NoteStorage interface {
	// SaveNote stores or updates a note
	SaveNote(ctx context.Context, note *models.Note) error

	// GetNote retrieves a note by id for the given owner
	// Returns ErrNoteNotFound if it doesn't exist or belongs to someone else
	GetNote(ctx context.Context, ownerID int64, id string) (*models.Note, error)

	// ListNotes returns all notes for the owner, newest first
	ListNotes(ctx context.Context, ownerID int64) ([]*models.Note, error)

	// SearchNotes returns the owner's notes whose title or content contains
	// the query, case-insensitive
	SearchNotes(ctx context.Context, ownerID int64, query string) ([]*models.Note, error)

	// DeleteNote deletes a note by id for the given owner
	// Returns ErrNoteNotFound if it doesn't exist or belongs to someone else
	DeleteNote(ctx context.Context, ownerID int64, id string) error
}
