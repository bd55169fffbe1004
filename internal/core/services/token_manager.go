package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/launchdeck-labs/launchdeck-cli/internal/core/domain"
	"github.com/launchdeck-labs/launchdeck-cli/internal/core/ports/driven"
	"github.com/launchdeck-labs/launchdeck-cli/internal/core/ports/driving"
	"github.com/launchdeck-labs/launchdeck-cli/internal/logger"
)

// Ensure TokenManager implements the interface.
var _ driving.AuthService = (*TokenManager)(nil)

const (
	// RefreshThrottle is how long after a completed refresh new refresh
	// calls short-circuit without hitting the network.
	RefreshThrottle = 5 * time.Minute

	// LogoutCooldown is the window after logout during which all auth
	// entry points are rejected, preventing flapping right after a
	// user-initiated logout.
	LogoutCooldown = 5 * time.Second
)

// refreshCall is the in-flight-operation handle for a single-flight
// refresh. Concurrent callers attach to it instead of starting a second
// physical refresh; outcome and err are written before done is closed.
type refreshCall struct {
	done    chan struct{}
	outcome domain.RefreshOutcome
	err     error
}

// TokenManager owns the token lifecycle: the in-memory token cache,
// expiry evaluation, single-flight refresh coordination, and the
// post-logout cooldown.
type TokenManager struct {
	store driven.TokenStore
	api   driven.AuthAPI

	mu          sync.Mutex
	token       *domain.Token
	loaded      bool
	state       domain.AuthState
	inflight    *refreshCall
	lastRefresh time.Time
	logoutAt    time.Time
	profile     *domain.Profile

	now func() time.Time
}

// NewTokenManager creates a token manager backed by the given durable
// store and auth API.
func NewTokenManager(store driven.TokenStore, api driven.AuthAPI) *TokenManager {
	return &TokenManager{
		store: store,
		api:   api,
		state: domain.AuthStateUnauthenticated,
		now:   time.Now,
	}
}

// HasValidToken reports whether a token exists and is outside the
// 30-second expiry safety margin.
func (m *TokenManager) HasValidToken() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	token, err := m.currentTokenLocked(context.Background())
	if err != nil || token == nil {
		return false
	}
	return token.ValidAt(m.now())
}

// AccessToken returns the current token, falling back to the durable
// store when the in-memory cache is cold. Returns nil and no error when
// no token is stored.
func (m *TokenManager) AccessToken(ctx context.Context) (*domain.Token, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	token, err := m.currentTokenLocked(ctx)
	if err != nil || token == nil {
		return nil, err
	}
	copied := *token
	return &copied, nil
}

// RefreshAccessToken refreshes the access token with single-flight
// coordination: if a refresh is already in flight every caller attaches
// to it and receives the outcome of that one network call. Calls made
// within RefreshThrottle of a completed refresh short-circuit with
// Throttled set. A terminal session-expired failure clears all tokens;
// transient failures leave stored state untouched.
func (m *TokenManager) RefreshAccessToken(ctx context.Context) (domain.RefreshOutcome, error) {
	m.mu.Lock()

	if m.cooldownActiveLocked() {
		m.mu.Unlock()
		return domain.RefreshOutcome{}, domain.ErrLogoutCooldown
	}

	if call := m.inflight; call != nil {
		m.mu.Unlock()
		select {
		case <-call.done:
			return call.outcome, call.err
		case <-ctx.Done():
			return domain.RefreshOutcome{}, ctx.Err()
		}
	}

	if !m.lastRefresh.IsZero() && m.now().Sub(m.lastRefresh) < RefreshThrottle {
		m.mu.Unlock()
		return domain.RefreshOutcome{Throttled: true}, nil
	}

	token, err := m.currentTokenLocked(ctx)
	if err != nil {
		m.mu.Unlock()
		return domain.RefreshOutcome{}, fmt.Errorf("load token: %w", err)
	}
	if token == nil || token.RefreshToken == "" {
		m.mu.Unlock()
		return domain.RefreshOutcome{}, domain.ErrNotAuthenticated
	}

	call := &refreshCall{done: make(chan struct{})}
	m.inflight = call
	prevState := m.state
	m.state = domain.AuthStateRefreshing
	refreshToken := token.RefreshToken
	m.mu.Unlock()

	newToken, err := m.api.RefreshToken(ctx, refreshToken)

	m.mu.Lock()
	switch {
	case err == nil && m.cooldownActiveLocked():
		// A logout landed while the network call was in flight; its
		// cleared state wins over the refreshed token.
		call.err = domain.ErrLogoutCooldown
		logger.Info("Discarding refreshed token: logged out mid-refresh")

	case err == nil:
		// Expiry only moves forward; a refresh never regresses it.
		if m.token != nil && newToken.ExpiresAt < m.token.ExpiresAt {
			newToken.ExpiresAt = m.token.ExpiresAt
		}
		if saveErr := m.store.Save(ctx, newToken); saveErr != nil {
			m.state = prevState
			call.err = fmt.Errorf("persist token: %w", saveErr)
		} else {
			m.token = newToken
			m.loaded = true
			m.lastRefresh = m.now()
			m.state = domain.AuthStateAuthenticated
			call.outcome = domain.RefreshOutcome{Refreshed: true}
			logger.Info("Access token refreshed")
		}

	case errors.Is(err, domain.ErrSessionExpired):
		// The refresh token itself was rejected: force re-authentication.
		if clearErr := m.store.Clear(ctx); clearErr != nil {
			logger.Warn("Failed to clear tokens after session expiry: %v", clearErr)
		}
		m.token = nil
		m.loaded = true
		m.profile = nil
		m.state = domain.AuthStateUnauthenticated
		call.err = err
		logger.Warn("Session expired, tokens cleared")

	default:
		m.state = prevState
		call.err = err
		logger.Warn("Token refresh failed: %v", err)
	}

	m.inflight = nil
	close(call.done)
	m.mu.Unlock()

	return call.outcome, call.err
}

// Adopt persists freshly obtained tokens (from a code exchange) and
// makes them the current session.
func (m *TokenManager) Adopt(ctx context.Context, token *domain.Token) error {
	if token == nil || token.AccessToken == "" || token.ExpiresAt == 0 {
		return domain.ErrInvalidInput
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.store.Save(ctx, token); err != nil {
		return fmt.Errorf("persist token: %w", err)
	}
	m.token = token
	m.loaded = true
	m.state = domain.AuthStateAuthenticated
	return nil
}

// Logout clears all tokens and starts the cooldown window during which
// auth entry points are rejected. The cooldown is tracked only in
// process memory; a restart clears it.
func (m *TokenManager) Logout(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.store.Clear(ctx); err != nil {
		return fmt.Errorf("clear tokens: %w", err)
	}
	m.token = nil
	m.loaded = true
	m.profile = nil
	m.lastRefresh = time.Time{}
	m.logoutAt = m.now()
	m.state = domain.AuthStateLogoutCooldown
	logger.Info("Logged out")
	return nil
}

// State returns the current lifecycle state.
func (m *TokenManager) State() domain.AuthState {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cooldownActiveLocked() {
		return domain.AuthStateLogoutCooldown
	}
	if m.state == domain.AuthStateLogoutCooldown {
		return domain.AuthStateUnauthenticated
	}
	return m.state
}

// CooldownActive reports whether the post-logout cooldown is in effect.
func (m *TokenManager) CooldownActive() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cooldownActiveLocked()
}

// MarkAuthenticating records that a login flow has started.
func (m *TokenManager) MarkAuthenticating() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == domain.AuthStateUnauthenticated || m.state == domain.AuthStateLogoutCooldown {
		m.state = domain.AuthStateAuthenticating
	}
}

// SetProfile caches the account profile from the last fetch.
func (m *TokenManager) SetProfile(profile *domain.Profile) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profile = profile
}

// Subscription returns the subscription of the signed-in account. The
// profile cache lives only in process memory, so after a restart the
// first call fetches the profile from the backend using the stored
// token and caches the result. Returns nil when no usable token exists
// or the fetch fails.
func (m *TokenManager) Subscription(ctx context.Context) *domain.Subscription {
	m.mu.Lock()
	if m.profile != nil {
		sub := m.profile.Subscription
		m.mu.Unlock()
		return &sub
	}
	if m.cooldownActiveLocked() {
		m.mu.Unlock()
		return nil
	}
	token, err := m.currentTokenLocked(ctx)
	if err != nil || token == nil || !token.ValidAt(m.now()) {
		m.mu.Unlock()
		return nil
	}
	accessToken := token.AccessToken
	m.mu.Unlock()

	profile, err := m.api.FetchProfile(ctx, accessToken)
	if err != nil {
		logger.Warn("Failed to fetch profile: %v", err)
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.profile = profile
	sub := profile.Subscription
	return &sub
}

// currentTokenLocked returns the cached token, loading from the durable
// store once if the cache is cold. Caller must hold the lock.
func (m *TokenManager) currentTokenLocked(ctx context.Context) (*domain.Token, error) {
	if m.token != nil || m.loaded {
		return m.token, nil
	}

	token, err := m.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	m.token = token
	m.loaded = true
	if token != nil && m.state == domain.AuthStateUnauthenticated {
		m.state = domain.AuthStateAuthenticated
	}
	return m.token, nil
}

// cooldownActiveLocked reports cooldown state. Caller must hold the lock.
func (m *TokenManager) cooldownActiveLocked() bool {
	return !m.logoutAt.IsZero() && m.now().Sub(m.logoutAt) < LogoutCooldown
}
