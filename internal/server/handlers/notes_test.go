package handlers

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noteit/noteit/internal/models"
	"github.com/noteit/noteit/internal/server/storage/boltdb"
	"github.com/noteit/noteit/pkg/api"
)

func setupNotesHandler(t *testing.T) *NotesHandler {
	t.Helper()

	store, err := boltdb.New(context.Background(), filepath.Join(t.TempDir(), "notes.db"))
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, store.Close()) })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewNotesHandler(logger, store)
}

// asUser builds a request carrying the principal for the given user.
func asUser(t *testing.T, userID int64, method, target string, body any) *http.Request {
	t.Helper()

	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, target, jsonBody(t, body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}

	ctx := WithPrincipal(req.Context(), &models.Principal{UserID: userID, Username: "alice"})
	return req.WithContext(ctx)
}

func createNote(t *testing.T, h *NotesHandler, userID int64, title, content string) models.Note {
	t.Helper()

	rec := httptest.NewRecorder()
	h.Create(rec, asUser(t, userID, http.MethodPost, "/notes",
		api.NoteRequest{Title: title, Content: content}))
	require.Equal(t, http.StatusCreated, rec.Code)

	var note models.Note
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &note))
	return note
}

func TestNotesHandler_CRUD(t *testing.T) {
	h := setupNotesHandler(t)

	note := createNote(t, h, 1, "groceries", "milk")
	assert.NotEmpty(t, note.ID)
	assert.Equal(t, int64(1), note.OwnerID)

	t.Run("get", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := asUser(t, 1, http.MethodGet, "/notes/"+note.ID, nil)
		req.SetPathValue("id", note.ID)
		h.Get(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)

		var got models.Note
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, "groceries", got.Title)
	})

	t.Run("update", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := asUser(t, 1, http.MethodPut, "/notes/"+note.ID,
			api.NoteRequest{Title: "groceries", Content: "milk, eggs"})
		req.SetPathValue("id", note.ID)
		h.Update(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)

		var got models.Note
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, "milk, eggs", got.Content)
	})

	t.Run("list", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.List(rec, asUser(t, 1, http.MethodGet, "/notes", nil))

		require.Equal(t, http.StatusOK, rec.Code)

		var notes []models.Note
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &notes))
		assert.Len(t, notes, 1)
	})

	t.Run("delete", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := asUser(t, 1, http.MethodDelete, "/notes/"+note.ID, nil)
		req.SetPathValue("id", note.ID)
		h.Delete(rec, req)

		assert.Equal(t, http.StatusNoContent, rec.Code)

		rec = httptest.NewRecorder()
		req = asUser(t, 1, http.MethodGet, "/notes/"+note.ID, nil)
		req.SetPathValue("id", note.ID)
		h.Get(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestNotesHandler_OwnerScoping(t *testing.T) {
	h := setupNotesHandler(t)

	note := createNote(t, h, 1, "private", "secret plans")
	createNote(t, h, 2, "other", "someone else")

	t.Run("get someone else's note", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := asUser(t, 2, http.MethodGet, "/notes/"+note.ID, nil)
		req.SetPathValue("id", note.ID)
		h.Get(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("list is scoped", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.List(rec, asUser(t, 2, http.MethodGet, "/notes", nil))

		require.Equal(t, http.StatusOK, rec.Code)

		var notes []models.Note
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &notes))
		require.Len(t, notes, 1)
		assert.Equal(t, "other", notes[0].Title)
	})

	t.Run("search is scoped", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.Search(rec, asUser(t, 2, http.MethodGet, "/notes/search?q=secret", nil))

		require.Equal(t, http.StatusOK, rec.Code)

		var notes []models.Note
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &notes))
		assert.Empty(t, notes)
	})

	t.Run("delete someone else's note", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := asUser(t, 2, http.MethodDelete, "/notes/"+note.ID, nil)
		req.SetPathValue("id", note.ID)
		h.Delete(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestNotesHandler_NoPrincipal(t *testing.T) {
	h := setupNotesHandler(t)

	rec := httptest.NewRecorder()
	h.List(rec, httptest.NewRequest(http.MethodGet, "/notes", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
