package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/noteit/noteit/pkg/api"
)

// sendJSON writes a JSON response
func sendJSON(logger *slog.Logger, w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("failed to encode JSON response", slog.Any("error", err))
	}
}

// sendError writes a JSON error response
func sendError(logger *slog.Logger, w http.ResponseWriter, message string, statusCode int) {
	sendJSON(logger, w, api.ErrorResponse{Error: message}, statusCode)
}

// bearerToken strips the "Bearer " prefix from a header value.
// Every endpoint that consumes a token from a header accepts both the
// prefixed and the raw form.
func bearerToken(headerValue string) string {
	return strings.TrimSpace(strings.TrimPrefix(headerValue, "Bearer "))
}
