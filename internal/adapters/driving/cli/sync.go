package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/launchdeck-labs/launchdeck-cli/internal/core/domain"
)

var syncCmd = &cobra.Command{
	Use:   "sync <upload|download|resolve>",
	Short: "Sync launcher settings with your account",
	Long: `Runs one sync operation against your Launchdeck account.

  upload    - replace the server copy with your local settings
  download  - replace your local settings with the server copy
  resolve   - compare both sides and keep the newer one`,
	Args: cobra.ExactArgs(1),
	RunE: runSyncAction,
}

var syncRetryFlag bool

func init() {
	syncCmd.Flags().BoolVar(&syncRetryFlag, "retry", false,
		"Retry a failed upload up to 3 times")
	rootCmd.AddCommand(syncCmd)
}

func runSyncAction(cmd *cobra.Command, args []string) error {
	if syncService == nil {
		return errors.New("sync service not configured")
	}

	ctx := context.Background()
	action := domain.SyncAction(args[0])

	var result domain.SyncResult
	if syncRetryFlag && action == domain.SyncActionUpload {
		result = syncService.UploadSettingsWithRetry(ctx)
	} else {
		result = syncService.ManualSync(ctx, action)
	}

	printSyncResult(cmd, result)
	if !result.Success {
		return fmt.Errorf("sync failed: %s", result.Error)
	}
	return nil
}

func printSyncResult(cmd *cobra.Command, result domain.SyncResult) {
	if result.Success {
		cmd.Printf("Sync %s completed.\n", result.Action)
		if result.Resolution != "" {
			cmd.Printf("Conflict resolved: %s copy won.\n", result.Resolution)
		}
		return
	}

	cmd.Printf("Sync %s failed: %s\n", result.Action, result.Error)
	if result.Code != "" {
		cmd.Printf("  code: %s\n", result.Code)
	}
}
