package driving

import (
	"context"

	"github.com/launchdeck-labs/launchdeck-cli/internal/core/domain"
)

// AuthService manages the token lifecycle for the single signed-in user.
type AuthService interface {
	// HasValidToken reports whether a token exists and is outside the
	// expiry safety margin. No side effects.
	HasValidToken() bool

	// AccessToken returns the current token, falling back to the
	// durable store if the in-memory cache is cold (e.g. after
	// restart). Returns nil and no error when no token is stored.
	AccessToken(ctx context.Context) (*domain.Token, error)

	// RefreshAccessToken refreshes the access token. Concurrent calls
	// share a single in-flight network refresh, and calls made within
	// the throttle window short-circuit with Throttled set.
	RefreshAccessToken(ctx context.Context) (domain.RefreshOutcome, error)

	// Logout clears all tokens and starts the post-logout cooldown
	// during which auth entry points are rejected.
	Logout(ctx context.Context) error

	// State returns the current lifecycle state.
	State() domain.AuthState

	// Subscription returns the subscription of the signed-in account,
	// fetching the profile from the backend when no cached copy exists
	// and a usable token is available. Returns nil when signed out or
	// when the profile cannot be obtained.
	Subscription(ctx context.Context) *domain.Subscription
}
