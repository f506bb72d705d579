package auth

import (
	"context"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// Claims are the JWT claims issued by the user service.
type Claims struct {
	jwt.RegisteredClaims
	Email      string `json:"email"`
	Role       string `json:"role"`
	CustomerID string `json:"customerId,omitempty"`
}

// LocalVerifier decodes tokens with the shared HS256 secret. No network
// call, so it is the fast path when the gateway and user service share the
// signing key.
type LocalVerifier struct {
	secret []byte
}

// NewLocalVerifier creates a verifier for tokens signed with secret.
func NewLocalVerifier(secret string) *LocalVerifier {
	return &LocalVerifier{secret: []byte(secret)}
}

// Verify implements CredentialVerifier. Signature or expiry failures map to
// ErrInvalidToken.
func (v *LocalVerifier) Verify(_ context.Context, credential string) (*Identity, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(credential, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	if claims.Subject == "" {
		return nil, ErrInvalidToken
	}

	return &Identity{
		UserID:     claims.Subject,
		Email:      claims.Email,
		Role:       claims.Role,
		CustomerID: claims.CustomerID,
	}, nil
}
