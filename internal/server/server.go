package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/noteit/noteit/internal/server/auth"
	"github.com/noteit/noteit/internal/server/config"
	"github.com/noteit/noteit/internal/server/handlers"
	"github.com/noteit/noteit/internal/server/middleware"
	"github.com/noteit/noteit/internal/server/otp"
	"github.com/noteit/noteit/internal/server/refresh"
	"github.com/noteit/noteit/internal/server/storage/boltdb"
	"github.com/noteit/noteit/internal/server/storage/sqlite"
	"github.com/noteit/noteit/internal/server/token"
)

// Paths that bypass authentication: the auth surface itself, uploaded
// static assets, and the health endpoint. The root path and preflight
// OPTIONS requests are handled inside the middleware.
var publicPrefixes = []string{"/auth/", "/uploads/", "/health"}

const shutdownTimeout = 10 * time.Second

// App wires the storage layers, services, and HTTP surface together.
type App struct {
	cfg        *config.Config
	logger     *slog.Logger
	store      *sqlite.Storage
	notesStore *boltdb.Storage
	otps       *otp.Cache
	httpServer *http.Server
}

// NewApp builds the application from configuration.
func NewApp(ctx context.Context, cfg *config.Config, logger *slog.Logger, version string) (*App, error) {
	secret, err := cfg.JWTSecret()
	if err != nil {
		return nil, err
	}

	store, err := sqlite.New(ctx, cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite storage: %w", err)
	}

	notesStore, err := boltdb.New(ctx, cfg.NotesDBPath)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to open notes storage: %w", err)
	}

	signer := token.NewService(secret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	rotation := refresh.NewService(logger, store, store, signer)
	otps := otp.NewCache(cfg.OTPTTL)
	mailer := otp.NewLogMailer(logger)
	authService := auth.NewService(logger, store, signer, rotation, otps, mailer)

	authHandler := handlers.NewAuthHandler(logger, authService, cfg.CookieTTL)
	tokenHandler := handlers.NewTokenHandler(logger, signer, rotation, store, cfg.CookieTTL)
	notesHandler := handlers.NewNotesHandler(logger, notesStore)
	healthHandler := handlers.NewHealthHandler(logger, version)

	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = fmt.Fprintf(w, `{"service":"noteit","version":%q}`, version)
	})
	mux.HandleFunc("GET /health", healthHandler.Health)

	mux.HandleFunc("POST /auth/signup", authHandler.Signup)
	mux.HandleFunc("POST /auth/verify-otp", authHandler.VerifyOTP)
	mux.HandleFunc("POST /auth/login", authHandler.Login)
	mux.HandleFunc("POST /auth/logout", authHandler.Logout)

	mux.HandleFunc("POST /auth/refresh", tokenHandler.Refresh)
	mux.HandleFunc("POST /auth/revoke", tokenHandler.Revoke)
	mux.HandleFunc("POST /auth/validate", tokenHandler.Validate)
	mux.HandleFunc("POST /auth/validate-both", tokenHandler.ValidateBoth)
	mux.HandleFunc("GET /auth/user-info", tokenHandler.UserInfo)
	mux.HandleFunc("GET /auth/refreshAT/{userId}", tokenHandler.RefreshAT)

	mux.HandleFunc("POST /notes", notesHandler.Create)
	mux.HandleFunc("GET /notes", notesHandler.List)
	mux.HandleFunc("GET /notes/search", notesHandler.Search)
	mux.HandleFunc("GET /notes/{id}", notesHandler.Get)
	mux.HandleFunc("PUT /notes/{id}", notesHandler.Update)
	mux.HandleFunc("DELETE /notes/{id}", notesHandler.Delete)

	// Outermost first: recovery catches everything, then request logging,
	// CORS (terminates preflight), rate limiting on the auth surface, and
	// finally authentication in front of the routing table.
	var handler http.Handler = mux
	handler = middleware.AuthMiddleware(logger, signer, rotation, publicPrefixes)(handler)
	handler = middleware.RateLimitMiddleware(cfg.AuthRateLimit, cfg.AuthRateWindow, logger, []string{"/auth/"})(handler)
	handler = middleware.CORSMiddleware(cfg.CORSOrigin)(handler)
	handler = middleware.LoggingMiddleware(logger, "/health")(handler)
	handler = middleware.RecoveryMiddleware(logger)(handler)

	return &App{
		cfg:        cfg,
		logger:     logger,
		store:      store,
		notesStore: notesStore,
		otps:       otps,
		httpServer: &http.Server{
			Addr:              cfg.Addr,
			Handler:           handler,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}, nil
}

// Run serves HTTP until the context is canceled, then shuts down gracefully.
func (a *App) Run(ctx context.Context) error {
	errC := make(chan error, 1)

	go func() {
		a.logger.Info("server listening", slog.String("addr", a.cfg.Addr))
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errC <- err
		}
	}()

	select {
	case err := <-errC:
		a.close()
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	a.logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("shutdown failed", slog.Any("error", err))
	}

	a.close()
	return nil
}

func (a *App) close() {
	a.otps.Stop()
	if err := a.notesStore.Close(); err != nil {
		a.logger.Error("failed to close notes storage", slog.Any("error", err))
	}
	if err := a.store.Close(); err != nil {
		a.logger.Error("failed to close sqlite storage", slog.Any("error", err))
	}
}
