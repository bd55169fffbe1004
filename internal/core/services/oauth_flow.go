package services

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"net/url"

	"golang.org/x/oauth2"

	"github.com/launchdeck-labs/launchdeck-cli/internal/core/domain"
	"github.com/launchdeck-labs/launchdeck-cli/internal/core/ports/driven"
	"github.com/launchdeck-labs/launchdeck-cli/internal/core/ports/driving"
	"github.com/launchdeck-labs/launchdeck-cli/internal/logger"
)

// Ensure OAuthFlow implements the interface.
var _ driving.LoginFlow = (*OAuthFlow)(nil)

// reloadAuthAction is the redirect query action signalling re-auth
// rather than a code exchange.
const reloadAuthAction = "reload_auth"

// OAuthFlow drives the authorization-code login flow: it builds the
// authorization URL with a CSRF nonce, validates redirects, and
// delegates code exchange to the auth API.
type OAuthFlow struct {
	oauth    *oauth2.Config
	states   driven.OAuthStateStore
	api      driven.AuthAPI
	tokens   *TokenManager
	notifier driven.Notifier
}

// NewOAuthFlow creates a login flow. The notifier is optional.
func NewOAuthFlow(
	cfg *oauth2.Config,
	states driven.OAuthStateStore,
	api driven.AuthAPI,
	tokens *TokenManager,
	notifier driven.Notifier,
) *OAuthFlow {
	return &OAuthFlow{
		oauth:    cfg,
		states:   states,
		api:      api,
		tokens:   tokens,
		notifier: notifier,
	}
}

// InitiateLogin generates a cryptographically random nonce, persists it
// with its creation time, and returns the authorization URL for the
// caller to open in a browser. Rejected during the logout cooldown.
func (f *OAuthFlow) InitiateLogin(ctx context.Context) (*driving.LoginRequest, error) {
	if f.tokens.CooldownActive() {
		return nil, domain.ErrLogoutCooldown
	}

	nonce, err := generateNonce()
	if err != nil {
		return nil, fmt.Errorf("generate state nonce: %w", err)
	}

	state := &domain.OAuthState{Nonce: nonce, CreatedAt: f.tokens.now()}
	if err := f.states.Save(ctx, state); err != nil {
		return nil, fmt.Errorf("save login state: %w", err)
	}

	f.tokens.MarkAuthenticating()
	authURL := f.oauth.AuthCodeURL(nonce, oauth2.AccessTypeOffline)

	logger.Info("Login initiated")
	return &driving.LoginRequest{URL: authURL, State: nonce}, nil
}

// HandleRedirect processes an OAuth redirect callback URL.
//
// A redirect carrying action=reload_auth is a re-auth signal: the
// subscription state is refreshed when a session exists, otherwise a
// fresh login is started. Any other redirect must carry a code and a
// state exactly matching the stored, unexpired nonce; a mismatch or
// expiry fails with domain.ErrStateMismatch without reaching the
// network.
func (f *OAuthFlow) HandleRedirect(ctx context.Context, rawURL string) (*driving.RedirectResult, error) {
	if f.tokens.CooldownActive() {
		return nil, domain.ErrLogoutCooldown
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: parse redirect url: %v", domain.ErrInvalidInput, err)
	}
	query := u.Query()

	if query.Get("action") == reloadAuthAction {
		return f.handleReauth(ctx)
	}

	code := query.Get("code")
	if code == "" {
		return nil, domain.ErrMissingAuthCode
	}

	state, err := f.states.GetAndDelete(ctx, query.Get("state"))
	if err != nil {
		return nil, fmt.Errorf("load login state: %w", err)
	}
	if state == nil || state.ExpiredAt(f.tokens.now()) {
		return nil, domain.ErrStateMismatch
	}

	token, err := f.api.ExchangeCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchange code: %w", err)
	}
	if err := f.tokens.Adopt(ctx, token); err != nil {
		return nil, err
	}

	f.refreshProfile(ctx)
	f.notify("auth.login", nil)
	logger.Info("Login completed")

	return &driving.RedirectResult{Outcome: driving.RedirectLoginCompleted}, nil
}

// handleReauth services an action=reload_auth redirect.
func (f *OAuthFlow) handleReauth(ctx context.Context) (*driving.RedirectResult, error) {
	if f.tokens.HasValidToken() {
		f.refreshProfile(ctx)
		f.notify("auth.reloaded", nil)
		return &driving.RedirectResult{Outcome: driving.RedirectReauthRefreshed}, nil
	}

	login, err := f.InitiateLogin(ctx)
	if err != nil {
		return nil, err
	}
	return &driving.RedirectResult{Outcome: driving.RedirectLoginStarted, Login: login}, nil
}

// refreshProfile fetches and caches the account profile. Best effort: a
// failed fetch only logs.
func (f *OAuthFlow) refreshProfile(ctx context.Context) {
	token, err := f.tokens.AccessToken(ctx)
	if err != nil || token == nil {
		return
	}
	profile, err := f.api.FetchProfile(ctx, token.AccessToken)
	if err != nil {
		logger.Warn("Profile fetch failed: %v", err)
		return
	}
	f.tokens.SetProfile(profile)
}

func (f *OAuthFlow) notify(event string, payload any) {
	if f.notifier != nil {
		f.notifier.Send(event, payload)
	}
}

// generateNonce returns a cryptographically random URL-safe state value.
func generateNonce() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
