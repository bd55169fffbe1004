package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// Authentication errors.

	// ErrNotAuthenticated indicates no token is available at all.
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrSessionExpired indicates the refresh token itself was rejected.
	// This is terminal: stored tokens are cleared and the user must
	// sign in again.
	ErrSessionExpired = errors.New("session expired")

	// ErrUnauthorized indicates an HTTP 401 on a resource call. Unlike
	// ErrSessionExpired it is recoverable via a token refresh.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrLogoutCooldown indicates an auth entry point was called within
	// the post-logout cooldown window.
	ErrLogoutCooldown = errors.New("logout cooldown active")

	// ErrStateMismatch indicates the redirect state did not match the
	// stored login nonce, or the nonce had expired. Never retried.
	ErrStateMismatch = errors.New("state mismatch")

	// ErrMissingAuthCode indicates the redirect carried no
	// authorization code.
	ErrMissingAuthCode = errors.New("missing authorization code")

	// Sync errors.

	// ErrInvalidPayload indicates the server returned a settings
	// document that failed shape validation (e.g. pages not an array).
	ErrInvalidPayload = errors.New("invalid settings payload")
)
