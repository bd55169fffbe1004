package cli

import (
	"context"
	"errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/launchdeck-labs/launchdeck-cli/internal/core/domain"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show session and sync status",
	RunE:  runStatus,
}

var statusHistoryFlag int

func init() {
	statusCmd.Flags().IntVar(&statusHistoryFlag, "history", 0,
		"Also show the N most recent sync attempts")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	if authService == nil || syncService == nil {
		return errors.New("services not configured")
	}

	cmd.Println("[Session]")
	cmd.Printf("  State: %s\n", authService.State())
	if sub := authService.Subscription(cmd.Context()); sub != nil {
		cmd.Printf("  Plan: %s (%s)\n", planOrUnknown(sub.Plan), sub.Status)
		if sub.CloudSyncEnabled() {
			cmd.Println("  Cloud sync: enabled")
		} else {
			cmd.Println("  Cloud sync: disabled")
		}
	} else {
		cmd.Println("  Plan: unknown (sign in to refresh)")
	}
	cmd.Println()

	cmd.Println("[Sync]")
	status := syncService.LastStatus()
	cmd.Printf("  State: %s\n", status.State)
	if status.LastResult != nil {
		printSyncResultLine(cmd, *status.LastResult)
	} else {
		cmd.Println("  Last result: none")
	}
	if !status.LastSyncedAt.IsZero() {
		cmd.Printf("  Last synced: %s\n", status.LastSyncedAt.Local().Format(time.RFC1123))
	}

	if statusHistoryFlag > 0 && historyStore != nil {
		records, err := historyStore.Recent(context.Background(), statusHistoryFlag)
		if err != nil {
			return err
		}
		cmd.Println()
		cmd.Println("[History]")
		if len(records) == 0 {
			cmd.Println("  (empty)")
		}
		for _, record := range records {
			outcome := "ok"
			if !record.Success {
				outcome = "failed: " + record.Error
			}
			cmd.Printf("  %s  %-8s %s\n",
				record.EndedAt.Local().Format("2006-01-02 15:04:05"), record.Action, outcome)
		}
	}

	return nil
}

func printSyncResultLine(cmd *cobra.Command, result domain.SyncResult) {
	if result.Success {
		cmd.Printf("  Last result: %s ok\n", result.Action)
		return
	}
	cmd.Printf("  Last result: %s failed (%s)\n", result.Action, result.Error)
}

func planOrUnknown(plan string) string {
	if plan == "" {
		return "unknown"
	}
	return plan
}
