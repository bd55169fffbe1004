package driven

import (
	"context"

	"github.com/launchdeck-labs/launchdeck-cli/internal/core/domain"
)

// AuthAPI talks to the backend's OAuth token and profile endpoints.
//
// Implementations map HTTP 401 on the token endpoint to
// domain.ErrSessionExpired, distinct from transient network or server
// failures.
type AuthAPI interface {
	// ExchangeCode exchanges an authorization code for tokens.
	// A 200 response missing access_token is a failure.
	ExchangeCode(ctx context.Context, code string) (*domain.Token, error)

	// RefreshToken obtains new tokens from a refresh token.
	RefreshToken(ctx context.Context, refreshToken string) (*domain.Token, error)

	// FetchProfile returns the account profile with its subscription.
	FetchProfile(ctx context.Context, accessToken string) (*domain.Profile, error)
}

// SettingsAPI talks to the backend's remote settings endpoint.
//
// Implementations validate response shape at the network boundary: a
// settings document whose pages field is missing or not array-typed
// fails with domain.ErrInvalidPayload before it can touch local state.
// HTTP 401 maps to domain.ErrUnauthorized.
type SettingsAPI interface {
	// GetSettings downloads the remote settings document.
	GetSettings(ctx context.Context, accessToken string) (*domain.RemoteSettings, error)

	// PutSettings uploads the settings document, replacing the server copy.
	PutSettings(ctx context.Context, accessToken string, settings *domain.RemoteSettings) error
}
