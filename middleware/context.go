package middleware

import (
	"context"

	"github.com/stylecart/api-gateway/auth"
)

// Context key type to avoid collisions
type contextKey string

const (
	// identityKey is the context key for the resolved identity
	identityKey contextKey = "identity"
)

// WithIdentity attaches a resolved identity to the context.
func WithIdentity(ctx context.Context, id *auth.Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFromContext retrieves the resolved identity, or nil when the
// request is anonymous.
func IdentityFromContext(ctx context.Context) *auth.Identity {
	if val := ctx.Value(identityKey); val != nil {
		if id, ok := val.(*auth.Identity); ok {
			return id
		}
	}
	return nil
}
