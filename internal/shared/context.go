package shared

import (
	"context"
	"time"
)

// Identity is the verified caller carried by a bearer token.
type Identity struct {
	UserID     int64
	TenantID   int64
	TenantName string
	TokenID    string
	ExpiresAt  time.Time
}

type identityContextKey struct{}

// ContextWithIdentity stores the verified identity in context.
func ContextWithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityContextKey{}, id)
}

// IdentityFromContext extracts the verified identity from context.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityContextKey{}).(Identity)
	return id, ok
}
