package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/mcoot/bankerscore/internal/api/apierr"
	"github.com/mcoot/bankerscore/internal/remote"
)

type contextKey string

const (
	tokenContextKey contextKey = "token"
	ownerContextKey contextKey = "owner"
)

// Auth creates authentication middleware. The bearer token is verified up
// front and kept in the context for handlers to pass on to the store.
func Auth(authenticator remote.Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractToken(r)
			if token == "" {
				apierr.WriteError(w, apierr.NewUnauthorizedError())
				return
			}

			owner, err := authenticator.Authenticate(r.Context(), token)
			if err != nil {
				apierr.WriteError(w, err)
				return
			}

			ctx := r.Context()
			ctx = context.WithValue(ctx, tokenContextKey, token)
			ctx = context.WithValue(ctx, ownerContextKey, owner)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// extractToken extracts the bearer token from the request
func extractToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	return ""
}

// GetToken returns the bearer token from the request context
func GetToken(ctx context.Context) string {
	token, _ := ctx.Value(tokenContextKey).(string)
	return token
}

// GetOwner returns the authenticated account from the request context
func GetOwner(ctx context.Context) string {
	owner, _ := ctx.Value(ownerContextKey).(string)
	return owner
}
