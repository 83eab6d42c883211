package api

// NoteRequest represents a note create/update request
type NoteRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}
