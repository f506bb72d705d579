package auth

import (
	"context"
	"net/http"
	"strings"
)

// CredentialVerifier validates a bearer credential and resolves it to an
// Identity. Two interchangeable implementations exist: LocalVerifier decodes
// the token with a shared secret, RemoteVerifier asks the user service.
type CredentialVerifier interface {
	Verify(ctx context.Context, credential string) (*Identity, error)
}

// ExtractBearer pulls the bearer token out of the Authorization header.
// Returns ErrNoCredential when the header is absent or not "Bearer <token>".
func ExtractBearer(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", ErrNoCredential
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", ErrNoCredential
	}

	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", ErrNoCredential
	}
	return token, nil
}
