package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// profileResponse is the user service's profile envelope.
type profileResponse struct {
	Success bool `json:"success"`
	Data    struct {
		ID         string `json:"id"`
		Email      string `json:"email"`
		Role       string `json:"role"`
		CustomerID string `json:"customerId"`
	} `json:"data"`
}

// RemoteVerifier resolves credentials by forwarding them to the user
// service's profile endpoint and trusting its answer. The gateway never
// needs the signing key in this mode.
type RemoteVerifier struct {
	profileURL string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewRemoteVerifier creates a verifier backed by the user service at
// baseURL. timeout bounds each verification call.
func NewRemoteVerifier(baseURL string, timeout time.Duration, logger *zap.Logger) *RemoteVerifier {
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &RemoteVerifier{
		profileURL: baseURL + "/api/auth/profile",
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// Verify implements CredentialVerifier. An explicit 401 from the user
// service means the credential is bad; every other failure is an upstream
// problem and must not be conflated with it.
func (v *RemoteVerifier) Verify(ctx context.Context, credential string) (*Identity, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.profileURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	req.Header.Set("Authorization", "Bearer "+credential)

	resp, err := v.httpClient.Do(req)
	if err != nil {
		v.logger.Warn("profile request failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, ErrInvalidToken
	case resp.StatusCode != http.StatusOK:
		v.logger.Warn("profile request returned unexpected status",
			zap.Int("status", resp.StatusCode))
		return nil, fmt.Errorf("%w: status %d", ErrUpstreamUnavailable, resp.StatusCode)
	}

	var body profileResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: malformed profile response: %v", ErrUpstreamUnavailable, err)
	}
	if !body.Success || body.Data.ID == "" {
		return nil, fmt.Errorf("%w: profile response missing identity", ErrUpstreamUnavailable)
	}

	return &Identity{
		UserID:     body.Data.ID,
		Email:      body.Data.Email,
		Role:       body.Data.Role,
		CustomerID: body.Data.CustomerID,
	}, nil
}
