package boltdb

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"go.etcd.io/bbolt"

	"github.com/noteit/noteit/internal/models"
	"github.com/noteit/noteit/internal/server/storage"
)

// noteKey builds the bucket key for a note. Keys are prefixed with the
// owner id so one cursor scan covers exactly one owner's notes.
func noteKey(ownerID int64, id string) []byte {
	return []byte(fmt.Sprintf("%d/%s", ownerID, id))
}

func ownerPrefix(ownerID int64) []byte {
	return []byte(fmt.Sprintf("%d/", ownerID))
}

// SaveNote stores or updates a note
func (s *Storage) SaveNote(ctx context.Context, note *models.Note) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketNotes)
		if bucket == nil {
			return fmt.Errorf("notes bucket not found")
		}

		data, err := json.Marshal(note)
		if err != nil {
			return fmt.Errorf("failed to marshal note: %w", err)
		}

		if err := bucket.Put(noteKey(note.OwnerID, note.ID), data); err != nil {
			return fmt.Errorf("failed to save note: %w", err)
		}

		return nil
	})
}

// GetNote retrieves a note by id for the given owner
func (s *Storage) GetNote(ctx context.Context, ownerID int64, id string) (*models.Note, error) {
	var note *models.Note

	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketNotes)
		if bucket == nil {
			return fmt.Errorf("notes bucket not found")
		}

		data := bucket.Get(noteKey(ownerID, id))
		if data == nil {
			return storage.ErrNoteNotFound
		}

		note = &models.Note{}
		if err := json.Unmarshal(data, note); err != nil {
			return fmt.Errorf("failed to unmarshal note: %w", err)
		}

		return nil
	})

	if err != nil {
		return nil, err
	}

	return note, nil
}

// ListNotes returns all notes for the owner, newest first
func (s *Storage) ListNotes(ctx context.Context, ownerID int64) ([]*models.Note, error) {
	return s.scanNotes(ownerID, nil)
}

// SearchNotes returns the owner's notes whose title or content contains
// the query, case-insensitive
func (s *Storage) SearchNotes(ctx context.Context, ownerID int64, query string) ([]*models.Note, error) {
	q := strings.ToLower(query)
	return s.scanNotes(ownerID, func(n *models.Note) bool {
		return strings.Contains(strings.ToLower(n.Title), q) ||
			strings.Contains(strings.ToLower(n.Content), q)
	})
}

// DeleteNote deletes a note by id for the given owner
func (s *Storage) DeleteNote(ctx context.Context, ownerID int64, id string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketNotes)
		if bucket == nil {
			return fmt.Errorf("notes bucket not found")
		}

		key := noteKey(ownerID, id)
		if bucket.Get(key) == nil {
			return storage.ErrNoteNotFound
		}

		if err := bucket.Delete(key); err != nil {
			return fmt.Errorf("failed to delete note: %w", err)
		}

		return nil
	})
}

// scanNotes iterates over the owner's key range, keeping notes that match
// the filter (nil filter keeps everything).
func (s *Storage) scanNotes(ownerID int64, match func(*models.Note) bool) ([]*models.Note, error) {
	var notes []*models.Note

	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketNotes)
		if bucket == nil {
			return fmt.Errorf("notes bucket not found")
		}

		prefix := ownerPrefix(ownerID)
		c := bucket.Cursor()

		for k, v := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
			note := &models.Note{}
			if err := json.Unmarshal(v, note); err != nil {
				return fmt.Errorf("failed to unmarshal note: %w", err)
			}

			if match == nil || match(note) {
				notes = append(notes, note)
			}
		}

		return nil
	})

	if err != nil {
		return nil, err
	}

	sort.Slice(notes, func(i, j int) bool {
		return notes[i].CreatedAt.After(notes[j].CreatedAt)
	})

	return notes, nil
}
