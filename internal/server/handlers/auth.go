package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/noteit/noteit/internal/server/auth"
	"github.com/noteit/noteit/internal/server/storage"
	"github.com/noteit/noteit/pkg/api"
)

// Cookie names set on login. The access token cookie is http-only; the
// companion userId cookie is readable by the caller.
const (
	AccessTokenCookie = "token"
	UserIDCookie      = "userId"
)

// AuthHandler handles signup, login, and logout
type AuthHandler struct {
	logger    *slog.Logger
	service   *auth.Service
	cookieTTL time.Duration
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(logger *slog.Logger, service *auth.Service, cookieTTL time.Duration) *AuthHandler {
	return &AuthHandler{
		logger:    logger,
		service:   service,
		cookieTTL: cookieTTL,
	}
}

// Signup handles POST /auth/signup.
// Starts registration by sending an OTP to the requested email.
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req api.SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(h.logger, w, "invalid request body", http.StatusBadRequest)
		return
	}

	if req.Username == "" || req.Email == "" {
		sendError(h.logger, w, "username and email are required", http.StatusBadRequest)
		return
	}

	if err := h.service.Signup(ctx, req.Username, req.Email); err != nil {
		if errors.Is(err, storage.ErrUserAlreadyExists) {
			sendError(h.logger, w, "username or email already taken", http.StatusBadRequest)
			return
		}
		h.logger.ErrorContext(ctx, "signup failed", slog.Any("error", err))
		sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}

	sendJSON(h.logger, w, api.MessageResponse{Message: "OTP sent to your email."}, http.StatusOK)
}

// VerifyOTP handles POST /auth/verify-otp?email=...&otp=...
// Consumes the OTP and creates the account.
func (h *AuthHandler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	email := r.URL.Query().Get("email")
	code := r.URL.Query().Get("otp")
	if email == "" || code == "" {
		sendError(h.logger, w, "email and otp are required", http.StatusBadRequest)
		return
	}

	var req api.SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(h.logger, w, "invalid request body", http.StatusBadRequest)
		return
	}

	if req.Username == "" || req.Password == "" {
		sendError(h.logger, w, "username and password are required", http.StatusBadRequest)
		return
	}

	if _, err := h.service.VerifyOTP(ctx, email, code, req.Username, req.Password); err != nil {
		switch {
		case errors.Is(err, auth.ErrInvalidOTP):
			sendError(h.logger, w, "invalid OTP", http.StatusBadRequest)
		case errors.Is(err, storage.ErrUserAlreadyExists):
			sendError(h.logger, w, "username or email already taken", http.StatusBadRequest)
		default:
			h.logger.ErrorContext(ctx, "otp verification failed", slog.Any("error", err))
			sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
		}
		return
	}

	sendJSON(h.logger, w,
		api.MessageResponse{Message: "User registered successfully. Please login to continue."},
		http.StatusOK)
}

// Login handles POST /auth/login.
// On success the access token is set as an http-only cookie, the user id as
// a readable cookie, and the full token pair is returned in the body.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req api.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(h.logger, w, "invalid request body", http.StatusBadRequest)
		return
	}

	result, err := h.service.Login(ctx, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			sendError(h.logger, w, "invalid email or password", http.StatusUnauthorized)
			return
		}
		h.logger.ErrorContext(ctx, "login failed", slog.Any("error", err))
		sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}

	h.setSessionCookies(w, result.AccessToken, result.User.ID)

	resp := api.LoginResponse{
		UserID:       result.User.ID,
		Username:     result.User.Username,
		Email:        result.User.Email,
		AccessToken:  result.AccessToken,
		RefreshToken: result.RefreshToken.Token,
	}

	sendJSON(h.logger, w, resp, http.StatusOK)
}

// Logout handles POST /auth/logout.
// Clears both session cookies. The server-side refresh record is left
// untouched and expires naturally; explicit invalidation goes through
// POST /auth/revoke.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     AccessTokenCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     UserIDCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		SameSite: http.SameSiteLaxMode,
	})

	h.logger.InfoContext(r.Context(), "user logged out")

	sendJSON(h.logger, w, api.MessageResponse{Message: "Logged out successfully"}, http.StatusOK)
}

// setSessionCookies sets the http-only access token cookie and the readable
// userId cookie.
func (h *AuthHandler) setSessionCookies(w http.ResponseWriter, accessToken string, userID int64) {
	maxAge := int(h.cookieTTL.Seconds())

	http.SetCookie(w, &http.Cookie{
		Name:     AccessTokenCookie,
		Value:    accessToken,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     UserIDCookie,
		Value:    strconv.FormatInt(userID, 10),
		Path:     "/",
		MaxAge:   maxAge,
		SameSite: http.SameSiteLaxMode,
	})
}
