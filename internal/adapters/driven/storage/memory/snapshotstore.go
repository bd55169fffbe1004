package memory

import (
	"context"
	"sync"

	"github.com/launchdeck-labs/launchdeck-cli/internal/core/domain"
	"github.com/launchdeck-labs/launchdeck-cli/internal/core/ports/driven"
)

// Ensure SnapshotStore implements the interface.
var _ driven.SnapshotStore = (*SnapshotStore)(nil)

// SnapshotStore is an in-memory implementation of driven.SnapshotStore
// for testing.
type SnapshotStore struct {
	mu       sync.Mutex
	snapshot domain.ConfigSnapshot
	meta     domain.SyncMetadata
	handlers []driven.SnapshotChangeHandler

	// ApplyCount tracks how many times Apply ran.
	ApplyCount int
}

// NewSnapshotStore creates an empty in-memory snapshot store.
func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{}
}

// Snapshot returns the current snapshot.
func (s *SnapshotStore) Snapshot(_ context.Context) (*domain.ConfigSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := s.snapshot
	return &copied, nil
}

// Apply replaces the snapshot and metadata.
func (s *SnapshotStore) Apply(_ context.Context, snapshot *domain.ConfigSnapshot, meta *domain.SyncMetadata) error {
	if snapshot == nil {
		return domain.ErrInvalidInput
	}

	s.mu.Lock()
	s.snapshot = *snapshot
	if meta != nil {
		s.meta = *meta
	}
	s.ApplyCount++
	s.mu.Unlock()
	return nil
}

// Metadata returns the current sync metadata.
func (s *SnapshotStore) Metadata(_ context.Context) (*domain.SyncMetadata, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := s.meta
	return &copied, nil
}

// SetMetadata replaces the sync metadata.
func (s *SnapshotStore) SetMetadata(_ context.Context, meta *domain.SyncMetadata) error {
	if meta == nil {
		return domain.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.meta = *meta
	return nil
}

// OnChange registers a change handler.
func (s *SnapshotStore) OnChange(handler driven.SnapshotChangeHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers = append(s.handlers, handler)
}

// SimulateChange replaces the snapshot as a local edit would and fires
// the registered change handlers. Test helper.
func (s *SnapshotStore) SimulateChange(snapshot *domain.ConfigSnapshot) {
	s.mu.Lock()
	old := s.snapshot
	s.snapshot = *snapshot
	handlers := make([]driven.SnapshotChangeHandler, len(s.handlers))
	copy(handlers, s.handlers)
	s.mu.Unlock()

	for _, handler := range handlers {
		newCopy := *snapshot
		oldCopy := old
		handler(&newCopy, &oldCopy)
	}
}
