// Package cli implements the Launchdeck command-line interface.
// Commands hold no business logic; they call the driving ports and
// render the results.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/launchdeck-labs/launchdeck-cli/internal/core/ports/driven"
	"github.com/launchdeck-labs/launchdeck-cli/internal/core/ports/driving"
	"github.com/launchdeck-labs/launchdeck-cli/internal/logger"
)

// Services injected at startup. Commands check for nil so a partially
// wired binary fails with a clear message instead of a panic.
var (
	authService   driving.AuthService
	loginFlow     driving.LoginFlow
	syncService   driving.SyncService
	syncScheduler driving.SyncScheduler
	historyStore  driven.SyncHistoryStore
)

var verboseFlag bool

var rootCmd = &cobra.Command{
	Use:   "launchdeck",
	Short: "Launchdeck account and settings sync",
	Long: `Launchdeck keeps your launcher pages in sync across devices.

Sign in with your Launchdeck account, then sync your settings manually
or run the background watcher to sync on every change.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verboseFlag)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false,
		"Enable verbose logging to stderr")
}

// SetServices injects the service implementations used by the commands.
func SetServices(
	auth driving.AuthService,
	login driving.LoginFlow,
	sync driving.SyncService,
	scheduler driving.SyncScheduler,
	history driven.SyncHistoryStore,
) {
	authService = auth
	loginFlow = login
	syncService = sync
	syncScheduler = scheduler
	historyStore = history
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
