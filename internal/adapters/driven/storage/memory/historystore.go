package memory

import (
	"context"
	"sync"

	"github.com/launchdeck-labs/launchdeck-cli/internal/core/domain"
	"github.com/launchdeck-labs/launchdeck-cli/internal/core/ports/driven"
)

// Ensure HistoryStore implements the interface.
var _ driven.SyncHistoryStore = (*HistoryStore)(nil)

// HistoryStore is an in-memory implementation of driven.SyncHistoryStore
// for testing.
type HistoryStore struct {
	mu      sync.Mutex
	records []domain.SyncRecord
}

// NewHistoryStore creates an empty in-memory history store.
func NewHistoryStore() *HistoryStore {
	return &HistoryStore{}
}

// Record appends one sync attempt.
func (s *HistoryStore) Record(_ context.Context, record *domain.SyncRecord) error {
	if record == nil {
		return domain.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, *record)
	return nil
}

// Recent returns the most recent records, newest first.
func (s *HistoryStore) Recent(_ context.Context, limit int) ([]domain.SyncRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.records)
	if limit > n {
		limit = n
	}
	out := make([]domain.SyncRecord, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		out = append(out, s.records[i])
	}
	return out, nil
}

// Prune keeps only the most recent 'keep' records.
func (s *HistoryStore) Prune(_ context.Context, keep int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.records) > keep {
		s.records = append([]domain.SyncRecord(nil), s.records[len(s.records)-keep:]...)
	}
	return nil
}
