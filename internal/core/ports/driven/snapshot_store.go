package driven

import (
	"context"

	"github.com/launchdeck-labs/launchdeck-cli/internal/core/domain"
)

// SnapshotChangeHandler is invoked after the local snapshot changes.
// Both values are copies; handlers must not retain and mutate them.
type SnapshotChangeHandler func(newSnapshot, oldSnapshot *domain.ConfigSnapshot)

// SnapshotStore owns the local launcher config document and its sync
// metadata. The snapshot and metadata are mutated by at most one logical
// operation at a time, and all writes are atomic.
type SnapshotStore interface {
	// Snapshot returns the current local config snapshot.
	// Returns an empty snapshot (not nil) on first run.
	Snapshot(ctx context.Context) (*domain.ConfigSnapshot, error)

	// Apply replaces the whole local snapshot and stamps the
	// modification metadata with the given device and time.
	Apply(ctx context.Context, snapshot *domain.ConfigSnapshot, meta *domain.SyncMetadata) error

	// Metadata returns the current sync metadata.
	// Returns zero-valued metadata (not nil) on first run.
	Metadata(ctx context.Context) (*domain.SyncMetadata, error)

	// SetMetadata persists sync metadata without touching the snapshot.
	SetMetadata(ctx context.Context, meta *domain.SyncMetadata) error

	// OnChange registers a handler fired when a snapshot change is
	// detected externally (e.g. the launcher app editing the file).
	// Apply never fires handlers: a downloaded snapshot must not
	// re-trigger an upload of itself.
	OnChange(handler SnapshotChangeHandler)
}
