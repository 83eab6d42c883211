package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/noteit/noteit/internal/models"
	"github.com/noteit/noteit/internal/server/handlers"
	"github.com/noteit/noteit/internal/server/refresh"
	"github.com/noteit/noteit/internal/server/token"
)

// Response headers used by the silent renewal protocol.
const (
	// HeaderNewAccessToken carries a silently rotated access token back to
	// the caller, which should persist it for subsequent requests. The
	// current request is served as authenticated with no extra round trip.
	HeaderNewAccessToken = "X-New-Access-Token"

	// HeaderRefreshExpired signals that the refresh record is dead and
	// re-authentication is mandatory.
	HeaderRefreshExpired = "X-Refresh-Expired"
)

const bearerPrefix = "Bearer "

// TokenMinter is the narrow capability the middleware uses for silent
// renewal: mint a new access token from the user's stored refresh record.
// The middleware depends on this capability directly, never on the public
// refresh endpoint, so renewal cannot trigger recursive authentication.
type TokenMinter interface {
	MintAccessToken(ctx context.Context, userID int64) (string, error)
}

// AuthMiddleware creates the authentication middleware.
//
// Requests to the configured public prefixes, the exact root path, and
// preflight OPTIONS requests bypass authentication entirely. Everything else
// must carry an access token in the Authorization header or the token cookie.
// A token that fails verification but still identifies its subject is renewed
// in-band from the stored refresh record; the fresh token is attached to the
// response in X-New-Access-Token and the request proceeds as authenticated.
func AuthMiddleware(
	logger *slog.Logger,
	verifier *token.Service,
	minter TokenMinter,
	publicPrefixes []string,
) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// The middleware never propagates an unstructured fault to the
			// transport layer: anything unhandled degrades to a 401.
			defer func() {
				if rec := recover(); rec != nil {
					logger.Error("auth middleware panic",
						"error", rec,
						"method", r.Method,
						"path", r.URL.Path,
					)
					writeAuthError(w, "Authentication failed")
				}
			}()

			if isPublicPath(r.URL.Path, publicPrefixes) || r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			tokenString := extractToken(r)
			if tokenString == "" {
				logger.Warn("missing token on protected endpoint",
					"method", r.Method, "path", r.URL.Path)
				writeAuthError(w, "Authentication required")
				return
			}

			claims, err := verifier.Verify(tokenString)
			if err == nil {
				forward(w, r, next, claims)
				return
			}

			// Invalid or expired. An expired token still identifies whose
			// session to renew; anything that can't even do that is rejected.
			userID, peekErr := verifier.PeekSubject(tokenString)
			if peekErr != nil {
				logger.Warn("could not resolve subject from token",
					"path", r.URL.Path, "error", peekErr)
				writeAuthError(w, "Invalid token")
				return
			}

			newToken, mintErr := minter.MintAccessToken(r.Context(), userID)
			switch {
			case errors.Is(mintErr, refresh.ErrRefreshExpired):
				logger.Warn("refresh token expired", "user_id", userID)
				w.Header().Set(HeaderRefreshExpired, "true")
				writeAuthError(w, "Session expired, please login again")

			case mintErr != nil:
				logger.Error("token refresh failed",
					"user_id", userID, "error", mintErr)
				writeAuthError(w, "Token refresh failed")

			default:
				newClaims, verifyErr := verifier.Verify(newToken)
				if verifyErr != nil {
					logger.Error("minted token failed verification",
						"user_id", userID, "error", verifyErr)
					writeAuthError(w, "Authentication failed")
					return
				}

				logger.Info("access token silently renewed", "user_id", userID)
				w.Header().Set(HeaderNewAccessToken, newToken)
				forward(w, r, next, newClaims)
			}
		})
	}
}

// forward attaches the principal from the verified claims and hands the
// request to the next handler.
func forward(w http.ResponseWriter, r *http.Request, next http.Handler, claims *token.Claims) {
	userID, err := claims.UserID()
	if err != nil {
		writeAuthError(w, "Invalid token")
		return
	}

	ctx := handlers.WithPrincipal(r.Context(), &models.Principal{
		UserID:   userID,
		Username: claims.Username,
		Email:    claims.Email,
	})

	next.ServeHTTP(w, r.WithContext(ctx))
}

// extractToken pulls the access token from a Bearer Authorization header,
// falling back to the access token cookie. A non-Bearer header (Basic,
// custom schemes) does not block the cookie fallback.
func extractToken(r *http.Request) string {
	if authHeader := r.Header.Get("Authorization"); strings.HasPrefix(authHeader, bearerPrefix) {
		return strings.TrimSpace(strings.TrimPrefix(authHeader, bearerPrefix))
	}

	if cookie, err := r.Cookie(handlers.AccessTokenCookie); err == nil {
		return cookie.Value
	}

	return ""
}

// isPublicPath reports whether the path bypasses authentication.
func isPublicPath(path string, prefixes []string) bool {
	if path == "/" {
		return true
	}
	for _, prefix := range prefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// writeAuthError sends the structured 401 body shared by every rejection
// in the authentication pipeline.
func writeAuthError(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"` + message + `"}`))
}
