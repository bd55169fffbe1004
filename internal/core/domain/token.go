package domain

import "time"

// TokenExpiryMargin is the safety window subtracted from a token's expiry
// when deciding whether it is still usable. A token inside the margin is
// treated as expired so a request never departs with a token about to lapse.
const TokenExpiryMargin = 30 * time.Second

// Token represents stored OAuth credentials.
type Token struct {
	// AccessToken is the bearer token for API access.
	AccessToken string `json:"access_token"`
	// RefreshToken is used to obtain new access tokens.
	RefreshToken string `json:"refresh_token,omitempty"`
	// ExpiresAt is when the access token expires, in Unix milliseconds.
	// A token is never stored without it.
	ExpiresAt int64 `json:"expires_at"`
}

// Expiry returns the expiry instant as a time.Time.
func (t *Token) Expiry() time.Time {
	return time.UnixMilli(t.ExpiresAt)
}

// ValidAt reports whether the token is usable at the given instant,
// applying the expiry safety margin.
func (t *Token) ValidAt(now time.Time) bool {
	if t.AccessToken == "" || t.ExpiresAt == 0 {
		return false
	}
	return now.Before(t.Expiry().Add(-TokenExpiryMargin))
}

// AuthState describes where the session is in its lifecycle.
type AuthState string

// Authentication lifecycle states.
const (
	AuthStateUnauthenticated AuthState = "unauthenticated"
	AuthStateAuthenticating  AuthState = "authenticating"
	AuthStateAuthenticated   AuthState = "authenticated"
	AuthStateRefreshing      AuthState = "refreshing"
	AuthStateLogoutCooldown  AuthState = "logged_out_cooldown"
)

// RefreshOutcome reports what a refresh call actually did.
type RefreshOutcome struct {
	// Refreshed is true when a network refresh ran and produced new tokens.
	Refreshed bool
	// Throttled is true when the call short-circuited because a refresh
	// completed recently.
	Throttled bool
}
