// Command launchdeck is the Launchdeck account and settings-sync CLI.
// It wires the driven adapters (config, token and snapshot storage,
// API client, sync history) into the core services and hands them to
// the cobra command tree.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"golang.org/x/oauth2"

	"github.com/launchdeck-labs/launchdeck-cli/internal/adapters/driven/api"
	configfile "github.com/launchdeck-labs/launchdeck-cli/internal/adapters/driven/config/file"
	"github.com/launchdeck-labs/launchdeck-cli/internal/adapters/driven/notify"
	storagefile "github.com/launchdeck-labs/launchdeck-cli/internal/adapters/driven/storage/file"
	"github.com/launchdeck-labs/launchdeck-cli/internal/adapters/driven/storage/memory"
	"github.com/launchdeck-labs/launchdeck-cli/internal/adapters/driven/storage/sqlite"
	"github.com/launchdeck-labs/launchdeck-cli/internal/adapters/driving/cli"
	"github.com/launchdeck-labs/launchdeck-cli/internal/core/domain"
	"github.com/launchdeck-labs/launchdeck-cli/internal/core/ports/driven"
	"github.com/launchdeck-labs/launchdeck-cli/internal/core/services"
	"github.com/launchdeck-labs/launchdeck-cli/internal/logger"
)

// Defaults overridable via config.toml or environment.
const (
	defaultBaseURL     = "https://api.launchdeck.app"
	defaultClientID    = "launchdeck-desktop"
	defaultRedirectURI = "launchdeck://oauth/callback"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// .env is a development convenience; absence is not an error.
	_ = godotenv.Load()

	config, err := configfile.NewConfigStore("")
	if err != nil {
		return fmt.Errorf("opening config store: %w", err)
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("resolving home directory: %w", err)
	}
	appDir := filepath.Join(home, ".launchdeck")

	baseURL := configValue(config, "api.base_url", "LAUNCHDECK_API_URL", defaultBaseURL)
	clientID := configValue(config, "api.client_id", "LAUNCHDECK_CLIENT_ID", defaultClientID)
	clientSecret := configValue(config, "api.client_secret", "LAUNCHDECK_CLIENT_SECRET", "")
	redirectURI := configValue(config, "api.redirect_uri", "LAUNCHDECK_REDIRECT_URI", defaultRedirectURI)

	apiClient, err := api.NewClient(baseURL, clientID, clientSecret, redirectURI)
	if err != nil {
		return fmt.Errorf("creating API client: %w", err)
	}

	tokenStore, err := storagefile.NewTokenStore(filepath.Join(appDir, "tokens.json"))
	if err != nil {
		return fmt.Errorf("creating token store: %w", err)
	}

	snapshotPath := configValue(config, "launcher.config_path", "LAUNCHDECK_CONFIG_PATH",
		filepath.Join(appDir, "launcher.json"))
	snapshots, err := storagefile.NewSnapshotStore(snapshotPath)
	if err != nil {
		return fmt.Errorf("creating snapshot store: %w", err)
	}
	if err := snapshots.Watch(); err != nil {
		// Background change detection is degraded, manual sync still works.
		logger.Warn("File watching unavailable: %v", err)
	}
	defer snapshots.Close() //nolint:errcheck

	store, err := sqlite.NewStore("")
	if err != nil {
		return fmt.Errorf("opening sync history database: %w", err)
	}
	defer store.Close() //nolint:errcheck

	notifier := notify.NewLogNotifier()

	tokens := services.NewTokenManager(tokenStore, apiClient)
	flow := services.NewOAuthFlow(
		oauthConfig(baseURL, clientID, clientSecret, redirectURI),
		memory.NewStateStore(),
		apiClient,
		tokens,
		notifier,
	)

	device := domain.CurrentDevice(installID(config))

	engine := services.NewSyncEngine(
		apiClient,
		snapshots,
		store.HistoryStore(),
		notifier,
		tokens,
		device,
		func(ctx context.Context) {
			// A 401 from the settings endpoint usually means the access
			// token lapsed mid-operation; a refresh readies the next run.
			if _, err := tokens.RefreshAccessToken(ctx); err != nil {
				logger.Debug("Post-401 refresh failed: %v", err)
			}
		},
	)

	scheduler := services.NewSyncScheduler(schedulerConfig(config), engine, snapshots)

	cli.SetServices(tokens, flow, engine, scheduler, store.HistoryStore())
	return cli.Execute()
}

func oauthConfig(baseURL, clientID, clientSecret, redirectURI string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURI,
		Endpoint: oauth2.Endpoint{
			AuthURL:  baseURL + "/oauth/authorize",
			TokenURL: baseURL + "/oauth/token",
		},
	}
}

// installID returns the stable per-install UUID, minting and persisting
// one on first run.
func installID(config driven.ConfigStore) string {
	if id := config.GetString("device.install_id"); id != "" {
		return id
	}
	id := uuid.NewString()
	if err := config.Set("device.install_id", id); err != nil {
		logger.Warn("Could not persist install ID: %v", err)
	}
	return id
}

// schedulerConfig builds the background sync timings, starting from the
// shipped defaults and applying any config overrides.
func schedulerConfig(config driven.ConfigStore) domain.SchedulerConfig {
	cfg := domain.DefaultSchedulerConfig()
	if _, ok := config.Get("sync.enabled"); ok {
		cfg.Enabled = config.GetBool("sync.enabled")
	}
	if secs := config.GetInt("sync.debounce_seconds"); secs > 0 {
		cfg.Debounce = time.Duration(secs) * time.Second
	}
	if mins := config.GetInt("sync.interval_minutes"); mins > 0 {
		cfg.PeriodicInterval = time.Duration(mins) * time.Minute
	}
	return cfg
}

// configValue resolves a setting with precedence: config file, then
// environment, then the built-in default.
func configValue(config driven.ConfigStore, key, envKey, fallback string) string {
	if v := config.GetString(key); v != "" {
		return v
	}
	if v := os.Getenv(envKey); v != "" {
		return v
	}
	return fallback
}
