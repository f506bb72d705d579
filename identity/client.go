// Package identity resolves the secondary identity (customer record id) for
// an authenticated user, behind a time-bounded cache so the user service is
// not consulted on every customer-scoped request.
package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// ErrLookupFailed is returned when the customer lookup could not complete.
// Failed lookups are never cached, so a transient outage is retried on the
// next request instead of being remembered for the TTL window.
var ErrLookupFailed = errors.New("customer lookup failed")

// TokenSource supplies a credential for gateway-initiated lookups.
type TokenSource interface {
	Token() (string, error)
}

// Resolver resolves a user id to its customer record id. An empty string
// with a nil error means the user has no customer record.
type Resolver interface {
	ResolveCustomerID(ctx context.Context, userID string) (string, error)
}

type customerResponse struct {
	Success bool `json:"success"`
	Data    struct {
		ID string `json:"id"`
	} `json:"data"`
}

// Client looks up customer records on the user service.
type Client struct {
	baseURL    string
	tokens     TokenSource
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a customer lookup client for the user service at baseURL.
func NewClient(baseURL string, tokens TokenSource, timeout time.Duration, logger *zap.Logger) *Client {
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    baseURL,
		tokens:     tokens,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// ResolveCustomerID implements Resolver. A 404 from the user service means
// the user simply has no customer record and resolves to "".
func (c *Client) ResolveCustomerID(ctx context.Context, userID string) (string, error) {
	token, err := c.tokens.Token()
	if err != nil {
		return "", fmt.Errorf("%w: minting service token: %v", ErrLookupFailed, err)
	}

	url := c.baseURL + "/api/customers/by-user/" + userID
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrLookupFailed, err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("customer lookup failed",
			zap.String("user_id", userID),
			zap.Error(err))
		return "", fmt.Errorf("%w: %v", ErrLookupFailed, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return "", nil
	case resp.StatusCode != http.StatusOK:
		c.logger.Warn("customer lookup returned unexpected status",
			zap.String("user_id", userID),
			zap.Int("status", resp.StatusCode))
		return "", fmt.Errorf("%w: status %d", ErrLookupFailed, resp.StatusCode)
	}

	var body customerResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("%w: malformed response: %v", ErrLookupFailed, err)
	}
	if !body.Success {
		return "", fmt.Errorf("%w: response not successful", ErrLookupFailed)
	}
	return body.Data.ID, nil
}
