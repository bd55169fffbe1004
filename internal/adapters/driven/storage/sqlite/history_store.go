package sqlite

import (
	"context"
	"fmt"

	"github.com/launchdeck-labs/launchdeck-cli/internal/core/domain"
	"github.com/launchdeck-labs/launchdeck-cli/internal/core/ports/driven"
)

// historyStore implements driven.SyncHistoryStore.
type historyStore struct {
	store *Store
}

var _ driven.SyncHistoryStore = (*historyStore)(nil)

// Record appends one sync attempt.
func (s *historyStore) Record(ctx context.Context, record *domain.SyncRecord) error {
	if record == nil {
		return domain.ErrInvalidInput
	}

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO sync_history (action, started_at, ended_at, success, error, device)
		VALUES (?, ?, ?, ?, ?, ?)
	`, string(record.Action), record.StartedAt.UTC(), record.EndedAt.UTC(),
		boolToInt(record.Success), record.Error, record.Device)

	if err != nil {
		return fmt.Errorf("recording sync attempt: %w", err)
	}
	return nil
}

// Recent returns the most recent sync attempts, newest first.
func (s *historyStore) Recent(ctx context.Context, limit int) ([]domain.SyncRecord, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT action, started_at, ended_at, success, error, device
		FROM sync_history
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying sync history: %w", err)
	}
	defer rows.Close()

	var records []domain.SyncRecord //nolint:prealloc // size unknown from query
	for rows.Next() {
		var record domain.SyncRecord
		var action string
		var success int
		if err := rows.Scan(&action, &record.StartedAt, &record.EndedAt,
			&success, &record.Error, &record.Device); err != nil {
			return nil, fmt.Errorf("scanning sync record: %w", err)
		}
		record.Action = domain.SyncAction(action)
		record.Success = success != 0
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating sync history: %w", err)
	}

	return records, nil
}

// Prune keeps only the most recent 'keep' records.
func (s *historyStore) Prune(ctx context.Context, keep int) error {
	_, err := s.store.db.ExecContext(ctx, `
		DELETE FROM sync_history
		WHERE id NOT IN (SELECT id FROM sync_history ORDER BY id DESC LIMIT ?)
	`, keep)
	if err != nil {
		return fmt.Errorf("pruning sync history: %w", err)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
