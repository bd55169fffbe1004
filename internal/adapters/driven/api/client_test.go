package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/launchdeck-labs/launchdeck-cli/internal/core/domain"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(server.URL, "launchdeck-desktop", "secret", "launchdeck://oauth/callback")
	require.NoError(t, err)
	return client
}

func TestClientExchangeCode(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/oauth/token", r.URL.Path)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "authorization_code", r.Form.Get("grant_type"))
		assert.Equal(t, "auth-code-1", r.Form.Get("code"))
		assert.Equal(t, "launchdeck-desktop", r.Form.Get("client_id"))
		assert.Equal(t, "launchdeck://oauth/callback", r.Form.Get("redirect_uri"))

		json.NewEncoder(w).Encode(map[string]any{ //nolint:errcheck
			"access_token":  "access-1",
			"refresh_token": "refresh-1",
			"token_type":    "Bearer",
			"expires_in":    3600,
		})
	}))

	before := time.Now()
	token, err := client.ExchangeCode(context.Background(), "auth-code-1")
	require.NoError(t, err)

	assert.Equal(t, "access-1", token.AccessToken)
	assert.Equal(t, "refresh-1", token.RefreshToken)

	// expires_in is converted to an absolute epoch-ms expiry.
	wantExpiry := before.Add(time.Hour)
	assert.InDelta(t, wantExpiry.UnixMilli(), token.ExpiresAt, float64(10*time.Second.Milliseconds()))
}

func TestClientTokenEndpointFailures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		check   func(t *testing.T, err error)
	}{
		{
			name: "401 maps to session expired",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
			},
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, domain.ErrSessionExpired)
			},
		},
		{
			name: "200 without access_token is a failure",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				json.NewEncoder(w).Encode(map[string]any{"token_type": "Bearer"}) //nolint:errcheck
			},
			check: func(t *testing.T, err error) {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "access_token")
			},
		},
		{
			name: "error body is surfaced",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusBadRequest)
				json.NewEncoder(w).Encode(map[string]any{ //nolint:errcheck
					"error":             "invalid_grant",
					"error_description": "code already used",
				})
			},
			check: func(t *testing.T, err error) {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "invalid_grant")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, tt.handler)
			_, err := client.RefreshToken(context.Background(), "refresh-1")
			tt.check(t, err)
		})
	}
}

func TestClientFetchProfile(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users/profile", r.URL.Path)
		assert.Equal(t, "Bearer access-1", r.Header.Get("Authorization"))

		json.NewEncoder(w).Encode(map[string]any{ //nolint:errcheck
			"success": true,
			"data": map[string]any{
				"id":    "user-1",
				"email": "alice@example.com",
				"subscription": map[string]any{
					"status":   "active",
					"plan":     "pro",
					"features": []string{"cloud_sync"},
				},
			},
		})
	}))

	profile, err := client.FetchProfile(context.Background(), "access-1")
	require.NoError(t, err)
	assert.Equal(t, "user-1", profile.ID)
	assert.Equal(t, "alice@example.com", profile.Email)
	assert.True(t, profile.Subscription.CloudSyncEnabled())
}

func TestClientFetchProfileUnwrapped(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{ //nolint:errcheck
			"id":           "user-2",
			"email":        "bob@example.com",
			"subscription": map[string]any{"status": "expired"},
		})
	}))

	profile, err := client.FetchProfile(context.Background(), "access-1")
	require.NoError(t, err)
	assert.Equal(t, "user-2", profile.ID)
	assert.False(t, profile.Subscription.IsActive())
}

func TestClientGetSettings(t *testing.T) {
	modified := time.Date(2026, 3, 10, 11, 0, 0, 0, time.UTC)

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users/settings", r.URL.Path)
		assert.Equal(t, "Bearer access-1", r.Header.Get("Authorization"))

		json.NewEncoder(w).Encode(map[string]any{ //nolint:errcheck
			"success": true,
			"data": map[string]any{
				"pages": []map[string]any{{
					"id":      "page-1",
					"name":    "Main",
					"buttons": []map[string]any{{"id": "btn-1", "label": "Terminal"}},
				}},
				"appearance":           map[string]any{"theme": "dark"},
				"last_synced_device":   "bob@laptop (darwin)",
				"last_synced_at":       modified.UnixMilli(),
				"last_modified_at":     modified.UnixMilli(),
				"last_modified_device": "bob@laptop (darwin)",
			},
		})
	}))

	remote, err := client.GetSettings(context.Background(), "access-1")
	require.NoError(t, err)

	require.Len(t, remote.Snapshot.Pages, 1)
	assert.Equal(t, "Main", remote.Snapshot.Pages[0].Name)
	assert.Equal(t, "dark", remote.Snapshot.Appearance["theme"])
	assert.Equal(t, "bob@laptop (darwin)", remote.LastModifiedDevice)
	assert.True(t, remote.LastModifiedAt.Equal(modified))
}

func TestClientGetSettingsShapeValidation(t *testing.T) {
	tests := []struct {
		name string
		body map[string]any
	}{
		{
			name: "pages missing",
			body: map[string]any{"appearance": map[string]any{}},
		},
		{
			name: "pages not an array",
			body: map[string]any{"pages": map[string]any{"id": "page-1"}},
		},
		{
			name: "pages is a string",
			body: map[string]any{"pages": "corrupted"},
		},
		{
			name: "pages is null",
			body: map[string]any{"pages": nil},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				json.NewEncoder(w).Encode(tt.body) //nolint:errcheck
			}))

			_, err := client.GetSettings(context.Background(), "access-1")
			assert.ErrorIs(t, err, domain.ErrInvalidPayload)
		})
	}
}

func TestClientSettingsUnauthorized(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))

	_, err := client.GetSettings(context.Background(), "stale")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	err = client.PutSettings(context.Background(), "stale", &domain.RemoteSettings{})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestClientPutSettings(t *testing.T) {
	syncedAt := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	var received settingsDocument

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/users/settings", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusNoContent)
	}))

	err := client.PutSettings(context.Background(), "access-1", &domain.RemoteSettings{
		Snapshot: domain.ConfigSnapshot{
			Pages: []domain.Page{{ID: "page-1", Name: "Main"}},
		},
		LastSyncedDevice: "alice@studio (linux)",
		LastSyncedAt:     syncedAt,
		LastModifiedAt:   syncedAt,
	})
	require.NoError(t, err)

	var pages []domain.Page
	require.NoError(t, json.Unmarshal(received.Pages, &pages))
	require.Len(t, pages, 1)
	assert.Equal(t, "Main", pages[0].Name)
	assert.Equal(t, "alice@studio (linux)", received.LastSyncedDevice)
	assert.Equal(t, syncedAt.UnixMilli(), received.LastSyncedAt)
	assert.Equal(t, syncedAt.UnixMilli(), received.LastModifiedAt)
}
