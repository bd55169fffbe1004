// Package api provides the HTTP client for the Launchdeck backend: the
// OAuth token endpoints, the account profile, and the remote settings
// document.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	retry "github.com/appleboy/go-httpretry"
	"golang.org/x/time/rate"

	"github.com/launchdeck-labs/launchdeck-cli/internal/core/domain"
	"github.com/launchdeck-labs/launchdeck-cli/internal/core/ports/driven"
)

// Ensure Client implements the driven ports.
var (
	_ driven.AuthAPI     = (*Client)(nil)
	_ driven.SettingsAPI = (*Client)(nil)
)

const requestTimeout = 30 * time.Second

// Client talks to the Launchdeck backend over HTTPS.
//
// Token and settings requests use a plain client: their retry policy
// belongs to the callers (the token manager's single-flight refresh and
// the sync engine's bounded upload retry). Only the profile fetch,
// which no caller retries, goes through the retrying client.
type Client struct {
	baseURL      string
	clientID     string
	clientSecret string
	redirectURI  string

	httpClient  *http.Client
	retryClient *retry.Client

	// limiter paces settings traffic so a runaway change feed cannot
	// hammer the backend.
	limiter *rate.Limiter
}

// NewClient creates a backend client for the given base URL.
func NewClient(baseURL, clientID, clientSecret, redirectURI string) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("%w: base URL required", domain.ErrInvalidInput)
	}

	httpClient := &http.Client{Timeout: requestTimeout}
	retryClient, err := retry.NewBackgroundClient(retry.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("create retry client: %w", err)
	}

	return &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		clientID:     clientID,
		clientSecret: clientSecret,
		redirectURI:  redirectURI,
		httpClient:   httpClient,
		retryClient:  retryClient,
		limiter:      rate.NewLimiter(rate.Every(time.Second), 5),
	}, nil
}

// tokenResponse is the token endpoint's success payload.
type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
}

// ExchangeCode exchanges an authorization code for tokens.
func (c *Client) ExchangeCode(ctx context.Context, code string) (*domain.Token, error) {
	data := url.Values{}
	data.Set("grant_type", "authorization_code")
	data.Set("client_id", c.clientID)
	data.Set("client_secret", c.clientSecret)
	data.Set("code", code)
	data.Set("redirect_uri", c.redirectURI)

	return c.tokenRequest(ctx, data)
}

// RefreshToken obtains new tokens from a refresh token.
func (c *Client) RefreshToken(ctx context.Context, refreshToken string) (*domain.Token, error) {
	data := url.Values{}
	data.Set("grant_type", "refresh_token")
	data.Set("client_id", c.clientID)
	data.Set("client_secret", c.clientSecret)
	data.Set("refresh_token", refreshToken)

	return c.tokenRequest(ctx, data)
}

// tokenRequest posts a form to the token endpoint and maps the response.
// HTTP 401 means the grant itself was rejected and maps to
// domain.ErrSessionExpired; other failures are transient.
func (c *Client) tokenRequest(ctx context.Context, data url.Values) (*domain.Token, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/oauth/token", strings.NewReader(data.Encode()))
	if err != nil {
		return nil, fmt.Errorf("create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, domain.ErrSessionExpired
	}
	if resp.StatusCode != http.StatusOK {
		var errResp struct {
			Error       string `json:"error"`
			Description string `json:"error_description"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&errResp); err == nil && errResp.Error != "" {
			return nil, fmt.Errorf("token error: %s - %s", errResp.Error, errResp.Description)
		}
		return nil, fmt.Errorf("token request failed with status %d", resp.StatusCode)
	}

	var tokenResp tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return nil, fmt.Errorf("decode token response: %w", err)
	}
	if tokenResp.AccessToken == "" {
		// A 200 without tokens is still a failure; never store an
		// empty credential.
		return nil, fmt.Errorf("token response missing access_token")
	}

	token := &domain.Token{
		AccessToken:  tokenResp.AccessToken,
		RefreshToken: tokenResp.RefreshToken,
	}
	if tokenResp.ExpiresIn > 0 {
		token.ExpiresAt = time.Now().Add(time.Duration(tokenResp.ExpiresIn) * time.Second).UnixMilli()
	}
	return token, nil
}

// FetchProfile returns the account profile with its subscription.
func (c *Client) FetchProfile(ctx context.Context, accessToken string) (*domain.Profile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/users/profile", nil)
	if err != nil {
		return nil, fmt.Errorf("create profile request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.retryClient.DoWithContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("profile request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, domain.ErrSessionExpired
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("profile request failed with status %d", resp.StatusCode)
	}

	var body struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`

		domain.Profile
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode profile response: %w", err)
	}

	// The backend wraps some responses in {success, data}; accept both.
	if len(body.Data) > 0 {
		var profile domain.Profile
		if err := json.Unmarshal(body.Data, &profile); err != nil {
			return nil, fmt.Errorf("decode profile data: %w", err)
		}
		return &profile, nil
	}
	return &body.Profile, nil
}

// settingsDocument is the wire shape of the remote settings document.
// Timestamps travel as Unix milliseconds.
type settingsDocument struct {
	Pages      json.RawMessage `json:"pages"`
	Appearance map[string]any  `json:"appearance,omitempty"`
	Advanced   map[string]any  `json:"advanced,omitempty"`

	LastSyncedDevice   string `json:"last_synced_device,omitempty"`
	LastSyncedAt       int64  `json:"last_synced_at,omitempty"`
	LastModifiedAt     int64  `json:"last_modified_at,omitempty"`
	LastModifiedDevice string `json:"last_modified_device,omitempty"`
}

// GetSettings downloads and validates the remote settings document.
// A document whose pages field is missing or not array-typed fails with
// domain.ErrInvalidPayload so it can never reach local storage.
func (c *Client) GetSettings(ctx context.Context, accessToken string) (*domain.RemoteSettings, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/users/settings", nil)
	if err != nil {
		return nil, fmt.Errorf("create settings request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("settings request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, domain.ErrUnauthorized
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("settings request failed with status %d", resp.StatusCode)
	}

	var body struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`

		settingsDocument
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: decode settings response: %v", domain.ErrInvalidPayload, err)
	}

	doc := body.settingsDocument
	if len(body.Data) > 0 {
		doc = settingsDocument{}
		if err := json.Unmarshal(body.Data, &doc); err != nil {
			return nil, fmt.Errorf("%w: decode settings data: %v", domain.ErrInvalidPayload, err)
		}
	}

	return decodeSettings(&doc)
}

// PutSettings uploads the settings document, replacing the server copy.
func (c *Client) PutSettings(ctx context.Context, accessToken string, settings *domain.RemoteSettings) error {
	if settings == nil {
		return domain.ErrInvalidInput
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	doc, err := encodeSettings(settings)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut,
		c.baseURL+"/users/settings", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create settings request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("settings upload: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return domain.ErrUnauthorized
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("settings upload failed with status %d", resp.StatusCode)
	}
	return nil
}

// decodeSettings validates the wire document and maps it to the domain.
func decodeSettings(doc *settingsDocument) (*domain.RemoteSettings, error) {
	if len(doc.Pages) == 0 {
		return nil, fmt.Errorf("%w: pages field missing", domain.ErrInvalidPayload)
	}

	// json.Unmarshal accepts a literal null into a slice, which would
	// wipe every local page on apply. Only an actual JSON array passes.
	rawPages := bytes.TrimSpace(doc.Pages)
	if len(rawPages) == 0 || rawPages[0] != '[' {
		return nil, fmt.Errorf("%w: pages is not an array", domain.ErrInvalidPayload)
	}

	var pages []domain.Page
	if err := json.Unmarshal(rawPages, &pages); err != nil {
		return nil, fmt.Errorf("%w: pages is not an array: %v", domain.ErrInvalidPayload, err)
	}

	remote := &domain.RemoteSettings{
		Snapshot: domain.ConfigSnapshot{
			Pages:      pages,
			Appearance: doc.Appearance,
			Advanced:   doc.Advanced,
		},
		LastSyncedDevice:   doc.LastSyncedDevice,
		LastModifiedDevice: doc.LastModifiedDevice,
	}
	if doc.LastSyncedAt > 0 {
		remote.LastSyncedAt = time.UnixMilli(doc.LastSyncedAt)
	}
	if doc.LastModifiedAt > 0 {
		remote.LastModifiedAt = time.UnixMilli(doc.LastModifiedAt)
	}
	return remote, nil
}

// encodeSettings maps a domain settings document to the wire shape.
func encodeSettings(settings *domain.RemoteSettings) (*settingsDocument, error) {
	pages := settings.Snapshot.Pages
	if pages == nil {
		pages = []domain.Page{}
	}
	rawPages, err := json.Marshal(pages)
	if err != nil {
		return nil, fmt.Errorf("encode pages: %w", err)
	}

	doc := &settingsDocument{
		Pages:              rawPages,
		Appearance:         settings.Snapshot.Appearance,
		Advanced:           settings.Snapshot.Advanced,
		LastSyncedDevice:   settings.LastSyncedDevice,
		LastModifiedDevice: settings.LastModifiedDevice,
	}
	if !settings.LastSyncedAt.IsZero() {
		doc.LastSyncedAt = settings.LastSyncedAt.UnixMilli()
	}
	if !settings.LastModifiedAt.IsZero() {
		doc.LastModifiedAt = settings.LastModifiedAt.UnixMilli()
	}
	return doc, nil
}
