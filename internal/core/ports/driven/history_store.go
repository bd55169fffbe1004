package driven

import (
	"context"

	"github.com/launchdeck-labs/launchdeck-cli/internal/core/domain"
)

// SyncHistoryStore persists sync attempt outcomes for the status surface.
type SyncHistoryStore interface {
	// Record logs one sync attempt.
	Record(ctx context.Context, record *domain.SyncRecord) error

	// Recent returns the most recent records, newest first.
	Recent(ctx context.Context, limit int) ([]domain.SyncRecord, error)

	// Prune removes old records beyond the retention limit, keeping
	// the most recent 'keep' records.
	Prune(ctx context.Context, keep int) error
}
