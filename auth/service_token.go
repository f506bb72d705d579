package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ServiceTokenSource mints short-lived internal tokens for gateway-initiated
// calls, such as the identity cache's customer lookup. These calls happen
// outside any client request's auth flow, so the gateway cannot reuse the
// caller's credential.
type ServiceTokenSource struct {
	secret []byte
	ttl    time.Duration
}

// NewServiceTokenSource creates a token source signing with secret. ttl
// defaults to 60 seconds, enough for a single internal round trip.
func NewServiceTokenSource(secret string, ttl time.Duration) *ServiceTokenSource {
	if ttl == 0 {
		ttl = 60 * time.Second
	}
	return &ServiceTokenSource{secret: []byte(secret), ttl: ttl}
}

// Token returns a freshly signed service token.
func (s *ServiceTokenSource) Token() (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "api-gateway",
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
		Role: RoleService,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}
