package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/marque-app/marque/internal/domain"
)

func signToken(t *testing.T, secret string, claims jwt.RegisteredClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("failed to sign test token: %v", err)
	}
	return token
}

func TestJWTResolver_Resolve(t *testing.T) {
	resolver, err := NewJWTResolver("test-secret", "marque")
	if err != nil {
		t.Fatalf("NewJWTResolver failed: %v", err)
	}

	valid := signToken(t, "test-secret", jwt.RegisteredClaims{
		Subject:   "user-1",
		Issuer:    "marque",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})

	identity, err := resolver.Resolve(context.Background(), valid)
	if err != nil {
		t.Fatalf("expected valid token to resolve, got %v", err)
	}
	if identity.UserID != "user-1" {
		t.Errorf("expected user-1, got %q", identity.UserID)
	}

	cases := []struct {
		name  string
		token string
	}{
		{"empty token", ""},
		{"garbage token", "not-a-jwt"},
		{"wrong secret", signToken(t, "other-secret", jwt.RegisteredClaims{
			Subject:   "user-1",
			Issuer:    "marque",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		})},
		{"expired", signToken(t, "test-secret", jwt.RegisteredClaims{
			Subject:   "user-1",
			Issuer:    "marque",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		})},
		{"wrong issuer", signToken(t, "test-secret", jwt.RegisteredClaims{
			Subject:   "user-1",
			Issuer:    "someone-else",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		})},
		{"missing subject", signToken(t, "test-secret", jwt.RegisteredClaims{
			Issuer:    "marque",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		})},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := resolver.Resolve(context.Background(), tc.token)
			if !errors.Is(err, domain.ErrUnauthorized) {
				t.Errorf("expected ErrUnauthorized, got %v", err)
			}
		})
	}
}
