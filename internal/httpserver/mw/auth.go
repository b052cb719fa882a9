package mw

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/marque-app/marque/internal/auth"
	"github.com/marque-app/marque/internal/logger"
)

type ctxKey int

const (
	tokenCtxKey ctxKey = iota
	identityCtxKey
)

// Authenticate resolves the bearer token of each request to an
// identity before any bookmark operation runs. Requests without a
// resolvable identity get the discriminated error envelope, never a
// bare status.
func Authenticate(resolver auth.Resolver, log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractToken(r)
			if token == "" {
				unauthorized(w)
				return
			}

			identity, err := resolver.Resolve(r.Context(), token)
			if err != nil {
				log.Debug("request token did not resolve",
					logger.String("path", r.URL.Path),
					logger.Error(err))
				unauthorized(w)
				return
			}

			ctx := context.WithValue(r.Context(), tokenCtxKey, token)
			ctx = context.WithValue(ctx, identityCtxKey, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// TokenFromContext returns the session token bound by Authenticate.
func TokenFromContext(ctx context.Context) string {
	token, _ := ctx.Value(tokenCtxKey).(string)
	return token
}

// IdentityFromContext returns the identity bound by Authenticate.
func IdentityFromContext(ctx context.Context) *auth.Identity {
	identity, _ := ctx.Value(identityCtxKey).(*auth.Identity)
	return identity
}

// extractToken pulls the session token from the Authorization header
// (with or without the Bearer prefix) or the auth_token cookie.
func extractToken(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return parts[1]
		}
		return header
	}
	if cookie, err := r.Cookie("auth_token"); err == nil {
		return cookie.Value
	}
	return ""
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": "Unauthorized"})
}
