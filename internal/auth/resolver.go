package auth

import "context"

// Identity is the authenticated principal store operations are scoped to.
type Identity struct {
	UserID string
	Email  string
}

// Resolver resolves the identity behind a session token.
// Implementations return domain.ErrUnauthorized when the token does
// not map to a valid identity; bookmark operations are never attempted
// without one.
type Resolver interface {
	Resolve(ctx context.Context, token string) (*Identity, error)
}
