package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/launchdeck-labs/launchdeck-cli/internal/adapters/driving/oauth"
	"github.com/launchdeck-labs/launchdeck-cli/internal/core/domain"
	"github.com/launchdeck-labs/launchdeck-cli/internal/core/ports/driving"
	"github.com/launchdeck-labs/launchdeck-cli/internal/logger"
)

// loginCallbackTimeout bounds how long --listen waits for the browser
// to come back before giving up.
const loginCallbackTimeout = 5 * time.Minute

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in with your Launchdeck account",
	Long: `Starts the browser sign-in flow.

The command prints an authorization URL to open in your browser. After
approving access you are redirected back to the app; paste the redirect
URL into 'launchdeck login callback' to complete the sign-in.`,
	RunE: runLogin,
}

var loginCallbackCmd = &cobra.Command{
	Use:   "callback <redirect-url>",
	Short: "Complete a sign-in from a redirect URL",
	Args:  cobra.ExactArgs(1),
	RunE:  runLoginCallback,
}

var (
	loginListenFlag bool
	loginPortFlag   int
)

func init() {
	loginCmd.Flags().BoolVar(&loginListenFlag, "listen", false,
		"Start a local callback server and complete the sign-in automatically")
	loginCmd.Flags().IntVar(&loginPortFlag, "port", 8765,
		"Local callback port used with --listen")
	loginCmd.AddCommand(loginCallbackCmd)
	rootCmd.AddCommand(loginCmd)
}

func runLogin(cmd *cobra.Command, _ []string) error {
	if loginFlow == nil {
		return errors.New("login flow not configured")
	}

	login, err := loginFlow.InitiateLogin(context.Background())
	if err != nil {
		if errors.Is(err, domain.ErrLogoutCooldown) {
			return errors.New("just logged out - wait a few seconds and try again")
		}
		return fmt.Errorf("failed to start login: %w", err)
	}

	if loginListenFlag {
		return runLoginListen(cmd, login)
	}

	cmd.Println("Open this URL in your browser to sign in:")
	cmd.Println()
	cmd.Printf("  %s\n", login.URL)
	cmd.Println()
	cmd.Println("Then run 'launchdeck login callback <redirect-url>' with the URL")
	cmd.Println("you were redirected to.")
	return nil
}

// runLoginListen completes the flow without manual URL pasting: a local
// callback server catches the redirect and feeds it straight back in.
// The account's registered redirect URI must point at the same port.
func runLoginListen(cmd *cobra.Command, login *driving.LoginRequest) error {
	server := oauth.NewCallbackServer(loginPortFlag)
	if err := server.Start(); err != nil {
		return fmt.Errorf("starting callback server: %w", err)
	}
	defer server.Stop() //nolint:errcheck

	cmd.Printf("Listening on %s\n", server.RedirectURI())
	if err := oauth.OpenBrowser(login.URL); err != nil {
		logger.Debug("Could not open browser: %v", err)
		cmd.Println("Open this URL in your browser to sign in:")
		cmd.Println()
		cmd.Printf("  %s\n", login.URL)
	}

	ctx, cancel := context.WithTimeout(context.Background(), loginCallbackTimeout)
	defer cancel()

	redirect, err := server.WaitForRedirect(ctx)
	if err != nil {
		return fmt.Errorf("sign-in did not complete: %w", err)
	}

	return completeRedirect(cmd, redirect)
}

func runLoginCallback(cmd *cobra.Command, args []string) error {
	if loginFlow == nil {
		return errors.New("login flow not configured")
	}
	return completeRedirect(cmd, args[0])
}

func completeRedirect(cmd *cobra.Command, rawURL string) error {
	result, err := loginFlow.HandleRedirect(context.Background(), rawURL)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrStateMismatch):
			return errors.New("sign-in rejected: state mismatch - start a fresh login")
		case errors.Is(err, domain.ErrMissingAuthCode):
			return errors.New("sign-in rejected: redirect is missing the authorization code")
		case errors.Is(err, domain.ErrLogoutCooldown):
			return errors.New("just logged out - wait a few seconds and try again")
		default:
			return fmt.Errorf("sign-in failed: %w", err)
		}
	}

	switch result.Outcome {
	case driving.RedirectLoginCompleted:
		cmd.Println("Signed in.")
	case driving.RedirectReauthRefreshed:
		cmd.Println("Session refreshed.")
	case driving.RedirectLoginStarted:
		cmd.Println("No active session - a new sign-in was started.")
		cmd.Println()
		cmd.Printf("  %s\n", result.Login.URL)
	}
	return nil
}
