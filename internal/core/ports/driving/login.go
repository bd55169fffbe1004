package driving

import "context"

// LoginRequest is a prepared authorization request: the URL to open in
// the user's browser and the CSRF state bound to this attempt.
type LoginRequest struct {
	URL   string
	State string
}

// RedirectOutcome describes what handling a redirect actually did.
type RedirectOutcome string

// Redirect outcomes.
const (
	// RedirectLoginCompleted means a code was exchanged for tokens.
	RedirectLoginCompleted RedirectOutcome = "login_completed"
	// RedirectReauthRefreshed means an action=reload_auth redirect
	// refreshed the subscription state of an existing session.
	RedirectReauthRefreshed RedirectOutcome = "reauth_refreshed"
	// RedirectLoginStarted means an action=reload_auth redirect arrived
	// without a session, so a fresh login was initiated.
	RedirectLoginStarted RedirectOutcome = "login_started"
)

// RedirectResult is the outcome of handling an OAuth redirect.
type RedirectResult struct {
	Outcome RedirectOutcome

	// Login is the freshly initiated login request when Outcome is
	// RedirectLoginStarted, nil otherwise.
	Login *LoginRequest
}

// LoginFlow drives the OAuth authorization-code flow.
type LoginFlow interface {
	// InitiateLogin generates a CSRF nonce, persists it, and returns
	// the authorization URL for the caller to open in a browser.
	// Fails with domain.ErrLogoutCooldown during the logout cooldown.
	InitiateLogin(ctx context.Context) (*LoginRequest, error)

	// HandleRedirect validates and processes a redirect callback URL.
	// State mismatch or expiry fails with domain.ErrStateMismatch and
	// never reaches the network.
	HandleRedirect(ctx context.Context, rawURL string) (*RedirectResult, error)
}
