package oauth

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startTestServer(t *testing.T) *CallbackServer {
	t.Helper()

	server := NewCallbackServer(0)
	require.NoError(t, server.Start())
	t.Cleanup(func() { _ = server.Stop() })

	require.NotZero(t, server.Port())
	return server
}

func TestCallbackServer_DeliversFullRedirectURL(t *testing.T) {
	server := startTestServer(t)

	url := fmt.Sprintf("http://127.0.0.1:%d/callback?code=auth-code-1&state=nonce-1", server.Port())
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "Signed in")

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	redirect, err := server.WaitForRedirect(ctx)
	require.NoError(t, err)
	assert.Equal(t,
		fmt.Sprintf("http://localhost:%d/callback?code=auth-code-1&state=nonce-1", server.Port()),
		redirect)
}

func TestCallbackServer_ProviderError(t *testing.T) {
	server := startTestServer(t)

	url := fmt.Sprintf(
		"http://127.0.0.1:%d/callback?error=access_denied&error_description=user+cancelled",
		server.Port())
	resp, err := http.Get(url)
	require.NoError(t, err)
	resp.Body.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err = server.WaitForRedirect(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "access_denied")
}

func TestCallbackServer_WaitHonorsContext(t *testing.T) {
	server := startTestServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := server.WaitForRedirect(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestCallbackServer_RedirectURI(t *testing.T) {
	server := startTestServer(t)

	assert.Equal(t,
		fmt.Sprintf("http://localhost:%d/callback", server.Port()),
		server.RedirectURI())
}

func TestCallbackServer_StopBeforeStart(t *testing.T) {
	server := NewCallbackServer(0)
	assert.NoError(t, server.Stop())
}
