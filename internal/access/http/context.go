// Package http provides HTTP middleware and handlers for the permission
// catalog and role authorization.
package http

import (
	"context"

	accessDomain "github.com/allisson/compliance/internal/access/domain"
)

// identityKey is a context key type for storing the acting identity.
type identityKey struct{}

// WithIdentity stores the acting identity in the context.
// This is typically called by the identity middleware once per request.
func WithIdentity(ctx context.Context, identity *accessDomain.Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, identity)
}

// GetIdentity retrieves the acting identity from the context.
// Returns (identity, true) if present, or (nil, false) if no identity was set.
func GetIdentity(ctx context.Context) (*accessDomain.Identity, bool) {
	identity, ok := ctx.Value(identityKey{}).(*accessDomain.Identity)
	return identity, ok
}
