// Package middleware provides HTTP middleware for authentication.
package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ContextKey is a typed key for context values to avoid collisions.
type ContextKey string

const claimsKey ContextKey = "claims"

// Claims is what the middleware needs from a validated token.
type Claims interface {
	GetUserID() uuid.UUID
	GetTokenID() string
	GetExpiry() time.Time
}

// TokenValidator validates bearer tokens. Implementations may consult a
// revocation list, hence the context.
type TokenValidator interface {
	ValidateToken(ctx context.Context, tokenString string) (Claims, error)
}

// AuthMiddleware rejects requests without a valid bearer token and stores
// the token claims in the request context.
func AuthMiddleware(validator TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := BearerToken(r)
			if !ok {
				unauthorized(w)
				return
			}
			claims, err := validator.ValidateToken(r.Context(), token)
			if err != nil {
				unauthorized(w)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

// BearerToken extracts the token from an "Authorization: Bearer" header.
// The scheme is matched case-insensitively.
func BearerToken(r *http.Request) (string, bool) {
	parts := strings.Fields(r.Header.Get("Authorization"))
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	return parts[1], true
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", `Bearer realm="resume-builder"`)
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"unauthorized"}` + "\n"))
}

// WithClaims returns ctx carrying claims.
func WithClaims(ctx context.Context, claims Claims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

// GetClaims returns the claims stored by AuthMiddleware.
func GetClaims(r *http.Request) (Claims, error) {
	claims, ok := r.Context().Value(claimsKey).(Claims)
	if !ok || claims == nil {
		return nil, fmt.Errorf("claims not found in request context")
	}
	return claims, nil
}

// GetUserID extracts the authenticated user ID from the request context.
func GetUserID(r *http.Request) (uuid.UUID, error) {
	claims, err := GetClaims(r)
	if err != nil {
		return uuid.Nil, fmt.Errorf("user ID not found in request context")
	}
	return claims.GetUserID(), nil
}
