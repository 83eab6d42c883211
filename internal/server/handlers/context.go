package handlers

import (
	"context"

	"github.com/noteit/noteit/internal/models"
)

type contextKey string

const principalKey contextKey = "principal"

// WithPrincipal attaches the authenticated principal to the context.
// Exactly one principal is attached per request: if one is already present
// it is kept and the new one is discarded.
func WithPrincipal(ctx context.Context, p *models.Principal) context.Context {
	if _, ok := GetPrincipal(ctx); ok {
		return ctx
	}
	return context.WithValue(ctx, principalKey, p)
}

// GetPrincipal returns the authenticated principal from the context.
func GetPrincipal(ctx context.Context) (*models.Principal, bool) {
	p, ok := ctx.Value(principalKey).(*models.Principal)
	return p, ok
}
