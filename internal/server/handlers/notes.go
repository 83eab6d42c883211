package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/noteit/noteit/internal/models"
	"github.com/noteit/noteit/internal/server/storage"
	"github.com/noteit/noteit/pkg/api"
)

// NotesHandler handles the authenticated notes CRUD surface.
// The owner always comes from the request principal, never from the payload.
type NotesHandler struct {
	logger *slog.Logger
	notes  storage.NoteStorage
}

// NewNotesHandler creates a new notes handler
func NewNotesHandler(logger *slog.Logger, notes storage.NoteStorage) *NotesHandler {
	return &NotesHandler{
		logger: logger,
		notes:  notes,
	}
}

// Create handles POST /notes
func (h *NotesHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	principal, ok := GetPrincipal(ctx)
	if !ok {
		sendError(h.logger, w, "authentication required", http.StatusUnauthorized)
		return
	}

	var req api.NoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(h.logger, w, "invalid request body", http.StatusBadRequest)
		return
	}

	now := time.Now()
	note := &models.Note{
		ID:        uuid.New().String(),
		OwnerID:   principal.UserID,
		Title:     req.Title,
		Content:   req.Content,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := h.notes.SaveNote(ctx, note); err != nil {
		h.logger.ErrorContext(ctx, "failed to save note", slog.Any("error", err))
		sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}

	sendJSON(h.logger, w, note, http.StatusCreated)
}

// List handles GET /notes
func (h *NotesHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	principal, ok := GetPrincipal(ctx)
	if !ok {
		sendError(h.logger, w, "authentication required", http.StatusUnauthorized)
		return
	}

	notes, err := h.notes.ListNotes(ctx, principal.UserID)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list notes", slog.Any("error", err))
		sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}

	if notes == nil {
		notes = []*models.Note{}
	}

	sendJSON(h.logger, w, notes, http.StatusOK)
}

// Search handles GET /notes/search?q=...
func (h *NotesHandler) Search(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	principal, ok := GetPrincipal(ctx)
	if !ok {
		sendError(h.logger, w, "authentication required", http.StatusUnauthorized)
		return
	}

	notes, err := h.notes.SearchNotes(ctx, principal.UserID, r.URL.Query().Get("q"))
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to search notes", slog.Any("error", err))
		sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}

	if notes == nil {
		notes = []*models.Note{}
	}

	sendJSON(h.logger, w, notes, http.StatusOK)
}

// Get handles GET /notes/{id}
func (h *NotesHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	principal, ok := GetPrincipal(ctx)
	if !ok {
		sendError(h.logger, w, "authentication required", http.StatusUnauthorized)
		return
	}

	note, err := h.notes.GetNote(ctx, principal.UserID, r.PathValue("id"))
	if err != nil {
		if errors.Is(err, storage.ErrNoteNotFound) {
			sendError(h.logger, w, "note not found", http.StatusNotFound)
			return
		}
		h.logger.ErrorContext(ctx, "failed to get note", slog.Any("error", err))
		sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}

	sendJSON(h.logger, w, note, http.StatusOK)
}

// Update handles PUT /notes/{id}
func (h *NotesHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	principal, ok := GetPrincipal(ctx)
	if !ok {
		sendError(h.logger, w, "authentication required", http.StatusUnauthorized)
		return
	}

	var req api.NoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(h.logger, w, "invalid request body", http.StatusBadRequest)
		return
	}

	note, err := h.notes.GetNote(ctx, principal.UserID, r.PathValue("id"))
	if err != nil {
		if errors.Is(err, storage.ErrNoteNotFound) {
			sendError(h.logger, w, "note not found", http.StatusNotFound)
			return
		}
		h.logger.ErrorContext(ctx, "failed to get note", slog.Any("error", err))
		sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}

	note.Title = req.Title
	note.Content = req.Content
	note.UpdatedAt = time.Now()

	if err := h.notes.SaveNote(ctx, note); err != nil {
		h.logger.ErrorContext(ctx, "failed to update note", slog.Any("error", err))
		sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}

	sendJSON(h.logger, w, note, http.StatusOK)
}

// Delete handles DELETE /notes/{id}
func (h *NotesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	principal, ok := GetPrincipal(ctx)
	if !ok {
		sendError(h.logger, w, "authentication required", http.StatusUnauthorized)
		return
	}

	if err := h.notes.DeleteNote(ctx, principal.UserID, r.PathValue("id")); err != nil {
		if errors.Is(err, storage.ErrNoteNotFound) {
			sendError(h.logger, w, "note not found", http.StatusNotFound)
			return
		}
		h.logger.ErrorContext(ctx, "failed to delete note", slog.Any("error", err))
		sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
