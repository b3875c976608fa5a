package auth

import (
	"context"

	"github.com/civicpulse/grievance-server/internal/models"
)

type principalKey struct{}

// WithPrincipal returns a copy of ctx carrying p
func WithPrincipal(ctx context.Context, p models.Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFrom returns the request principal, if the gate attached one
func PrincipalFrom(ctx context.Context) (models.Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(models.Principal)
	return p, ok
}
