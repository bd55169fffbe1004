// Package oauth provides a local callback server and browser helpers
// for completing the sign-in flow without pasting redirect URLs by hand.
package oauth

import (
	"context"
	"fmt"
	"html"
	"net"
	"net/http"
	"os/exec"
	"runtime"
	"sync"
	"time"
)

// CallbackServer receives the OAuth redirect on a localhost port and
// hands the full redirect URL to the caller. It does not validate the
// state parameter; the login flow owns that check.
type CallbackServer struct {
	mu         sync.Mutex
	port       int
	redirectCh chan string
	errCh      chan error
	server     *http.Server
	listener   net.Listener
}

// NewCallbackServer creates a callback server. A port of 0 picks a
// random available port on Start.
func NewCallbackServer(port int) *CallbackServer {
	return &CallbackServer{
		port:       port,
		redirectCh: make(chan string, 1),
		errCh:      make(chan error, 1),
	}
}

// Start begins listening on 127.0.0.1.
func (s *CallbackServer) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	mux := http.NewServeMux()
	mux.HandleFunc("/callback", s.handleCallback)

	s.server = &http.Server{
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	addr := fmt.Sprintf("127.0.0.1:%d", s.port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	s.listener = listener

	// Record the actual port when 0 asked for a random one.
	if tcpAddr, ok := listener.Addr().(*net.TCPAddr); ok {
		s.port = tcpAddr.Port
	}

	go func() {
		if err := s.server.Serve(listener); err != nil && err != http.ErrServerClosed {
			select {
			case s.errCh <- err:
			default:
			}
		}
	}()

	return nil
}

func (s *CallbackServer) handleCallback(w http.ResponseWriter, r *http.Request) {
	if errParam := r.URL.Query().Get("error"); errParam != "" {
		errDesc := r.URL.Query().Get("error_description")
		select {
		case s.errCh <- fmt.Errorf("authorization denied: %s - %s", errParam, errDesc):
		default:
		}
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, resultHTML("Sign-in failed", html.EscapeString(errDesc)))
		return
	}

	// Reconstruct the full redirect URL so the flow can validate state
	// and extract the code exactly as it does for pasted URLs.
	redirect := s.RedirectURI()
	if r.URL.RawQuery != "" {
		redirect += "?" + r.URL.RawQuery
	}

	select {
	case s.redirectCh <- redirect:
	default:
	}

	w.Header().Set("Content-Type", "text/html")
	fmt.Fprint(w, resultHTML("Signed in", "You can close this window and return to the terminal."))
}

// WaitForRedirect blocks until a redirect arrives, the provider reports
// an error, or ctx is cancelled.
func (s *CallbackServer) WaitForRedirect(ctx context.Context) (string, error) {
	select {
	case redirect := <-s.redirectCh:
		return redirect, nil
	case err := <-s.errCh:
		return "", err
	case <-ctx.Done():
		return "", fmt.Errorf("waiting for authorization callback: %w", ctx.Err())
	}
}

// Stop shuts down the callback server.
func (s *CallbackServer) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.server.Shutdown(ctx)
	}
	return nil
}

// Port returns the port the server is listening on.
func (s *CallbackServer) Port() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.port
}

// RedirectURI returns the redirect URI registered for this server.
func (s *CallbackServer) RedirectURI() string {
	return fmt.Sprintf("http://localhost:%d/callback", s.Port())
}

func resultHTML(title, message string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
    <title>Launchdeck</title>
    <style>
        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif;
            display: flex;
            justify-content: center;
            align-items: center;
            height: 100vh;
            margin: 0;
            background: #16161e;
            color: #c0caf5;
        }
        .card {
            text-align: center;
            background: #1a1b26;
            padding: 48px 64px;
            border-radius: 12px;
            border: 1px solid #2f334d;
        }
        h1 { margin: 0 0 8px 0; font-size: 22px; }
        p { margin: 0; color: #787c99; font-size: 15px; }
    </style>
</head>
<body>
    <div class="card">
        <h1>%s</h1>
        <p>%s</p>
    </div>
</body>
</html>`, title, message)
}

// OpenBrowser opens the default browser to the given URL.
func OpenBrowser(url string) error {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "linux":
		cmd = exec.Command("xdg-open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}

	return cmd.Start()
}
