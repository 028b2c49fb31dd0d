package server

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jonathan/resume-builder/internal/config"
	"github.com/jonathan/resume-builder/internal/server/middleware"
)

// Claims represents JWT claims with user ID. RegisteredClaims.ID carries a
// per-token id used for logout.
type Claims struct {
	UserID uuid.UUID `json:"user_id"`
	jwt.RegisteredClaims
}

// GetUserID implements middleware.Claims.
func (c *Claims) GetUserID() uuid.UUID {
	return c.UserID
}

// GetTokenID implements middleware.Claims.
func (c *Claims) GetTokenID() string {
	return c.ID
}

// GetExpiry implements middleware.Claims.
func (c *Claims) GetExpiry() time.Time {
	if c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time
}

// RevocationStore records logged-out tokens until they expire.
type RevocationStore interface {
	RevokeToken(ctx context.Context, jti string, expiresAt time.Time) error
	IsTokenRevoked(ctx context.Context, jti string) (bool, error)
}

// ErrTokenRevoked is returned for a token that was logged out.
var ErrTokenRevoked = errors.New("token revoked")

// JWTService provides JWT token generation and validation functionality.
type JWTService struct {
	config      *config.JWTConfig
	revocations RevocationStore
}

// NewJWTService creates a JWT service. revocations may be nil, in which
// case logout only discards the token client-side.
func NewJWTService(cfg *config.JWTConfig, revocations RevocationStore) *JWTService {
	return &JWTService{config: cfg, revocations: revocations}
}

// GenerateToken generates a JWT token for the given user ID.
func (s *JWTService) GenerateToken(userID uuid.UUID) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(time.Duration(s.config.ExpirationHours) * time.Hour)

	claims := &Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   userID.String(),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.config.Secret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return tokenString, expiresAt, nil
}

// ValidateToken parses tokenString and rejects revoked tokens.
func (s *JWTService) ValidateToken(ctx context.Context, tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, fmt.Errorf("token string is empty")
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.Secret), nil
	})
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, fmt.Errorf("invalid token signature: %w", err)
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, fmt.Errorf("token expired: %w", err)
		case errors.Is(err, jwt.ErrTokenMalformed):
			return nil, fmt.Errorf("malformed token: %w", err)
		}
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}
	if !token.Valid || claims.UserID == uuid.Nil {
		return nil, fmt.Errorf("token is not valid")
	}

	if s.revocations != nil && claims.ID != "" {
		revoked, err := s.revocations.IsTokenRevoked(ctx, claims.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to check token revocation: %w", err)
		}
		if revoked {
			return nil, ErrTokenRevoked
		}
	}
	return claims, nil
}

// Revoke invalidates the token described by claims.
func (s *JWTService) Revoke(ctx context.Context, claims middleware.Claims) error {
	if s.revocations == nil || claims.GetTokenID() == "" {
		return nil
	}
	return s.revocations.RevokeToken(ctx, claims.GetTokenID(), claims.GetExpiry())
}

// AsTokenValidator adapts the service to middleware.TokenValidator.
func (s *JWTService) AsTokenValidator() middleware.TokenValidator {
	return &jwtServiceValidator{service: s}
}

type jwtServiceValidator struct {
	service *JWTService
}

func (v *jwtServiceValidator) ValidateToken(ctx context.Context, tokenString string) (middleware.Claims, error) {
	claims, err := v.service.ValidateToken(ctx, tokenString)
	if err != nil {
		return nil, err
	}
	return claims, nil
}

// MemoryRevocations is the RevocationStore used when no database is configured.
type MemoryRevocations struct {
	mu      sync.Mutex
	revoked map[string]time.Time
}

// NewMemoryRevocations returns an in-process RevocationStore.
func NewMemoryRevocations() *MemoryRevocations {
	return &MemoryRevocations{revoked: make(map[string]time.Time)}
}

func (m *MemoryRevocations) RevokeToken(_ context.Context, jti string, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	for id, exp := range m.revoked {
		if exp.Before(now) {
			delete(m.revoked, id)
		}
	}
	m.revoked[jti] = expiresAt
	return nil
}

func (m *MemoryRevocations) IsTokenRevoked(_ context.Context, jti string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	exp, ok := m.revoked[jti]
	return ok && exp.After(time.Now()), nil
}
