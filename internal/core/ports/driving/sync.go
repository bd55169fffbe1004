package driving

import (
	"context"

	"github.com/launchdeck-labs/launchdeck-cli/internal/core/domain"
)

// SyncService performs settings synchronisation against the backend.
//
// Operations are mutually exclusive: only one upload or download may be
// in flight at a time, and a concurrent call fails fast with a
// structured "Sync already in progress" result without network I/O.
// All methods return structured results; nothing propagates as a panic
// or unhandled error past this boundary.
type SyncService interface {
	// UploadSettings uploads the current snapshot. On HTTP 401 the
	// injected unauthorized callback is invoked and no automatic retry
	// happens within the call.
	UploadSettings(ctx context.Context) domain.SyncResult

	// DownloadSettings downloads and applies the remote snapshot. A
	// shape-invalid response leaves the local config untouched.
	DownloadSettings(ctx context.Context) domain.SyncResult

	// UploadSettingsWithRetry wraps UploadSettings with bounded retry:
	// up to 3 attempts with a fixed delay, then gives up.
	UploadSettingsWithRetry(ctx context.Context) domain.SyncResult

	// ResolveSync resolves local/server divergence by whole-document
	// last-writer-wins on the modification timestamp. A local win is
	// propagated back with an upload.
	ResolveSync(ctx context.Context) domain.SyncResult

	// ManualSync dispatches a user-triggered operation by action.
	ManualSync(ctx context.Context, action domain.SyncAction) domain.SyncResult

	// LastStatus returns the engine's current status record.
	LastStatus() domain.SyncStatus
}

// SyncScheduler owns the background sync timers: the trailing-edge
// debounce for local changes and the periodic resync.
type SyncScheduler interface {
	// Start subscribes to snapshot changes and runs the periodic timer
	// until Stop is called or ctx is cancelled. Blocks.
	Start(ctx context.Context) error

	// Stop cancels all pending timers and waits for in-flight work.
	// No sync is cancelled once its network call has started.
	Stop() error

	// NotifyChange restarts the debounce window. When the window
	// elapses uninterrupted, exactly one upload of the then-current
	// snapshot is triggered.
	NotifyChange()
}
