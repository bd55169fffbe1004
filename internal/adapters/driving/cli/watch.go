package cli

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Run background sync until interrupted",
	Long: `Watches the local launcher config and keeps it in sync.

Local edits are uploaded after a short quiet period; a periodic resync
picks up changes made on other devices. Stop with Ctrl-C.`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, _ []string) error {
	if syncScheduler == nil {
		return errors.New("sync scheduler not configured")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cmd.Println("Watching for changes. Press Ctrl-C to stop.")

	err := syncScheduler.Start(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	cmd.Println("Stopped.")
	return nil
}
