package auth

import (
	"context"
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/marque-app/marque/internal/domain"
)

// JWTResolver validates HS256 session tokens locally. It is the
// identity source for the self-hosted (redis) deployment, where no
// external auth service is available.
type JWTResolver struct {
	secret []byte
	issuer string
}

// NewJWTResolver creates a resolver for tokens signed with the given
// shared secret. issuer is optional; when set, tokens from any other
// issuer are rejected.
func NewJWTResolver(secret, issuer string) (*JWTResolver, error) {
	if secret == "" {
		return nil, fmt.Errorf("jwt secret must not be empty")
	}
	return &JWTResolver{secret: []byte(secret), issuer: issuer}, nil
}

type sessionClaims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// Resolve parses and verifies the token and returns the identity from
// its subject claim. Any parse, signature, expiry or issuer failure
// maps to domain.ErrUnauthorized - the caller only needs to know that
// no identity is resolvable.
func (r *JWTResolver) Resolve(ctx context.Context, token string) (*Identity, error) {
	if token == "" {
		return nil, domain.ErrUnauthorized
	}

	claims := &sessionClaims{}
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{"HS256"})}
	if r.issuer != "" {
		opts = append(opts, jwt.WithIssuer(r.issuer))
	}

	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return r.secret, nil
	}, opts...)
	if err != nil || !parsed.Valid {
		return nil, domain.ErrUnauthorized
	}

	if claims.Subject == "" {
		return nil, domain.ErrUnauthorized
	}

	return &Identity{UserID: claims.Subject, Email: claims.Email}, nil
}
