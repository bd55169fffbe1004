package domain

import "time"

// OAuthStateTTL is how long a pending login state remains valid.
// A redirect arriving after the TTL fails state validation.
const OAuthStateTTL = 5 * time.Minute

// OAuthState is the ephemeral CSRF state for a pending login attempt.
// It is created on login initiation and consumed on redirect validation.
type OAuthState struct {
	// Nonce is a cryptographically random value echoed back by the
	// authorization server in the redirect's state parameter.
	Nonce string

	// CreatedAt is when the login attempt started.
	CreatedAt time.Time
}

// ExpiredAt reports whether the state has outlived its TTL at the
// given instant.
func (s *OAuthState) ExpiredAt(now time.Time) bool {
	return now.Sub(s.CreatedAt) > OAuthStateTTL
}
