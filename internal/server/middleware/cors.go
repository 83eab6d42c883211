package middleware

import "net/http"

// CORSMiddleware sets cross-origin headers and short-circuits preflight
// OPTIONS requests. The renewal headers are exposed so browser clients can
// pick up a silently rotated access token.
func CORSMiddleware(origin string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			h.Set("Access-Control-Allow-Headers", "Authorization, Content-Type, Refresh-Token")
			h.Set("Access-Control-Expose-Headers", HeaderNewAccessToken+", "+HeaderRefreshExpired)
			if origin != "*" {
				h.Set("Access-Control-Allow-Credentials", "true")
			}

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
