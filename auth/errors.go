package auth

import "errors"

var (
	// ErrNoCredential is returned when the Authorization header is missing
	// or not a well-formed bearer header.
	ErrNoCredential = errors.New("missing or malformed authorization header")

	// ErrInvalidToken is returned when the credential fails signature or
	// expiry checks locally, or the identity service explicitly rejects it.
	ErrInvalidToken = errors.New("invalid or expired token")

	// ErrUpstreamUnavailable is returned when remote verification could not
	// complete: network failure, unexpected status, or a malformed body.
	// Deliberately distinct from ErrInvalidToken so an identity service
	// outage is never reported to the client as bad credentials.
	ErrUpstreamUnavailable = errors.New("identity service unavailable")

	// ErrUnauthenticated is returned when an authorization check runs
	// without a resolved identity.
	ErrUnauthenticated = errors.New("authentication required")

	// ErrForbidden is returned when an authenticated identity fails a role
	// or ownership check.
	ErrForbidden = errors.New("access forbidden")
)
