package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/noteit/noteit/internal/server/refresh"
	"github.com/noteit/noteit/internal/server/storage"
	"github.com/noteit/noteit/internal/server/token"
	"github.com/noteit/noteit/pkg/api"
)

// TokenHandler handles the token utility endpoints: refresh, revoke,
// validation, and direct access token reissue.
type TokenHandler struct {
	logger    *slog.Logger
	signer    *token.Service
	rotation  *refresh.Service
	users     storage.UserStorage
	cookieTTL time.Duration
}

// NewTokenHandler creates a new token handler
func NewTokenHandler(
	logger *slog.Logger,
	signer *token.Service,
	rotation *refresh.Service,
	users storage.UserStorage,
	cookieTTL time.Duration,
) *TokenHandler {
	return &TokenHandler{
		logger:    logger,
		signer:    signer,
		rotation:  rotation,
		users:     users,
		cookieTTL: cookieTTL,
	}
}

// Refresh handles POST /auth/refresh.
// The Authorization header carries the refresh token value. A live record is
// rotated: the caller gets a new refresh token in the body and a new access
// token in the session cookie.
func (h *TokenHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	refreshValue := bearerToken(r.Header.Get("Authorization"))
	if refreshValue == "" {
		sendError(h.logger, w, "Authorization header is required", http.StatusUnauthorized)
		return
	}

	record, err := h.rotation.FindByToken(ctx, refreshValue)
	if err != nil {
		if errors.Is(err, storage.ErrTokenNotFound) {
			sendError(h.logger, w, "invalid refresh token", http.StatusUnauthorized)
			return
		}
		h.logger.ErrorContext(ctx, "failed to load refresh token", slog.Any("error", err))
		sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}

	if !h.rotation.Verify(ctx, record) {
		sendError(h.logger, w, "refresh token expired", http.StatusUnauthorized)
		return
	}

	user, err := h.users.GetUserByID(ctx, record.UserID)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to load user for refresh", slog.Any("error", err))
		sendError(h.logger, w, "invalid refresh token", http.StatusUnauthorized)
		return
	}

	accessToken, err := h.signer.SignAccess(user.ID, user.Username, user.Email)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to sign access token", slog.Any("error", err))
		sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}

	newRecord, err := h.rotation.CreateOrRotate(ctx, user)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to rotate refresh token", slog.Any("error", err))
		sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     AccessTokenCookie,
		Value:    accessToken,
		Path:     "/",
		MaxAge:   int(h.cookieTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	h.logger.InfoContext(ctx, "tokens refreshed", slog.Int64("user_id", user.ID))

	sendJSON(h.logger, w, api.RefreshResponse{
		RefreshToken: newRecord.Token,
		Username:     user.Username,
	}, http.StatusOK)
}

// Revoke handles POST /auth/revoke.
// Marks the refresh token from the Authorization header as revoked.
// Revocation is idempotent.
func (h *TokenHandler) Revoke(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	refreshValue := bearerToken(r.Header.Get("Authorization"))
	if refreshValue == "" {
		sendError(h.logger, w, "Authorization header is required", http.StatusUnauthorized)
		return
	}

	if err := h.rotation.Revoke(ctx, refreshValue); err != nil {
		h.logger.ErrorContext(ctx, "failed to revoke refresh token", slog.Any("error", err))
		sendError(h.logger, w, "revoke failed", http.StatusUnauthorized)
		return
	}

	w.WriteHeader(http.StatusOK)
}

// Validate handles POST /auth/validate.
// Always answers 200 with a boolean; a broken token is false, never an error.
func (h *TokenHandler) Validate(w http.ResponseWriter, r *http.Request) {
	accessValue := bearerToken(r.Header.Get("Authorization"))

	_, err := h.signer.Verify(accessValue)

	sendJSON(h.logger, w, err == nil, http.StatusOK)
}

// ValidateBoth handles POST /auth/validate-both.
// True only when the access token from Authorization and the refresh token
// from Refresh-Token both validate independently. Always answers 200.
func (h *TokenHandler) ValidateBoth(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	accessValue := bearerToken(r.Header.Get("Authorization"))
	refreshValue := bearerToken(r.Header.Get("Refresh-Token"))

	_, err := h.signer.Verify(accessValue)
	accessValid := err == nil

	refreshValid := false
	if record, err := h.rotation.FindByToken(ctx, refreshValue); err == nil {
		refreshValid = h.rotation.Verify(ctx, record)
	}

	sendJSON(h.logger, w, accessValid && refreshValid, http.StatusOK)
}

// UserInfo handles GET /auth/user-info.
// Returns the identity claims of a valid access token.
func (h *TokenHandler) UserInfo(w http.ResponseWriter, r *http.Request) {
	accessValue := bearerToken(r.Header.Get("Authorization"))

	claims, err := h.signer.Verify(accessValue)
	if err != nil {
		sendError(h.logger, w, "invalid token", http.StatusUnauthorized)
		return
	}

	sendJSON(h.logger, w, api.UserInfoResponse{
		ID:    claims.Subject,
		Email: claims.Email,
	}, http.StatusOK)
}

// RefreshAT handles GET /auth/refreshAT/{userId}.
// Mints a new access token from the user's stored refresh record. A dead
// refresh record is a normal outcome and answers 200 REFRESH_EXPIRED; only
// unexpected faults answer 500 REFRESH_ERROR.
func (h *TokenHandler) RefreshAT(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, err := strconv.ParseInt(r.PathValue("userId"), 10, 64)
	if err != nil {
		sendError(h.logger, w, "invalid user id", http.StatusBadRequest)
		return
	}

	accessToken, err := h.rotation.MintAccessToken(ctx, userID)

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	switch {
	case errors.Is(err, refresh.ErrRefreshExpired):
		h.logger.WarnContext(ctx, "refresh token expired", slog.Int64("user_id", userID))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("REFRESH_EXPIRED"))
	case err != nil:
		h.logger.ErrorContext(ctx, "failed to refresh access token",
			slog.Int64("user_id", userID), slog.Any("error", err))
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("REFRESH_ERROR"))
	default:
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(accessToken))
	}
}
