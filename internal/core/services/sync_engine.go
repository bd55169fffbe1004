package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/launchdeck-labs/launchdeck-cli/internal/core/domain"
	"github.com/launchdeck-labs/launchdeck-cli/internal/core/ports/driven"
	"github.com/launchdeck-labs/launchdeck-cli/internal/core/ports/driving"
	"github.com/launchdeck-labs/launchdeck-cli/internal/logger"
)

// Ensure SyncEngine implements the interface.
var _ driving.SyncService = (*SyncEngine)(nil)

const (
	// uploadRetryAttempts bounds UploadSettingsWithRetry.
	uploadRetryAttempts = 3

	// uploadRetryDelay is the fixed delay between retry attempts,
	// independent of the cause of failure.
	uploadRetryDelay = 5 * time.Second

	// historyRetention is how many sync records are kept per install.
	historyRetention = 100
)

// Structured failure messages surfaced to the presentation layer.
const (
	msgSyncInProgress = "Sync already in progress"
	msgNotEntitled    = "Cloud sync not enabled"
)

// SyncEngine performs mutually-exclusive upload/download/resolve
// operations against the remote settings endpoint. Only one operation
// may be in flight at a time; concurrent calls fail fast without
// network I/O. Conflicts resolve by whole-document last-writer-wins.
type SyncEngine struct {
	api       driven.SettingsAPI
	snapshots driven.SnapshotStore
	history   driven.SyncHistoryStore
	notifier  driven.Notifier
	auth      driving.AuthService
	device    domain.DeviceIdentity

	// onUnauthorized is invoked on HTTP 401 from the settings endpoint.
	// The engine never retries within the same call; the caller decides.
	onUnauthorized func(ctx context.Context)

	mu     sync.Mutex
	busy   bool
	status domain.SyncStatus

	retryAttempts int
	retryDelay    time.Duration
	now           func() time.Time
}

// NewSyncEngine creates a sync engine. history, notifier and
// onUnauthorized are optional and may be nil.
func NewSyncEngine(
	api driven.SettingsAPI,
	snapshots driven.SnapshotStore,
	history driven.SyncHistoryStore,
	notifier driven.Notifier,
	auth driving.AuthService,
	device domain.DeviceIdentity,
	onUnauthorized func(ctx context.Context),
) *SyncEngine {
	return &SyncEngine{
		api:            api,
		snapshots:      snapshots,
		history:        history,
		notifier:       notifier,
		auth:           auth,
		device:         device,
		onUnauthorized: onUnauthorized,
		status:         domain.SyncStatus{State: domain.SyncStateIdle},
		retryAttempts:  uploadRetryAttempts,
		retryDelay:     uploadRetryDelay,
		now:            time.Now,
	}
}

// UploadSettings uploads the current snapshot to the server and stamps
// the local sync metadata on success.
func (e *SyncEngine) UploadSettings(ctx context.Context) domain.SyncResult {
	return e.run(ctx, domain.SyncActionUpload, e.doUpload)
}

// DownloadSettings downloads the remote snapshot and applies it to the
// local config. A shape-invalid response leaves the local config
// untouched.
func (e *SyncEngine) DownloadSettings(ctx context.Context) domain.SyncResult {
	return e.run(ctx, domain.SyncActionDownload, e.doDownload)
}

// ResolveSync downloads the server snapshot and resolves divergence by
// whole-document last-writer-wins on the modification timestamp. The
// strictly newer side wins in full; ties go to the server. A local win
// is propagated back to the server with an upload.
func (e *SyncEngine) ResolveSync(ctx context.Context) domain.SyncResult {
	return e.run(ctx, domain.SyncActionResolve, e.doResolve)
}

// UploadSettingsWithRetry wraps UploadSettings with bounded retry: up
// to 3 attempts with a fixed delay between them, independent of the
// cause of failure. After exhausting retries it gives up; the failure
// remains observable via LastStatus but is not re-queued.
func (e *SyncEngine) UploadSettingsWithRetry(ctx context.Context) domain.SyncResult {
	var result domain.SyncResult

	for attempt := 1; attempt <= e.retryAttempts; attempt++ {
		result = e.UploadSettings(ctx)
		if result.Success {
			return result
		}
		if attempt == e.retryAttempts {
			break
		}

		logger.Warn("Upload attempt %d/%d failed: %s", attempt, e.retryAttempts, result.Error)
		e.setState(domain.SyncStateRetryScheduled)

		select {
		case <-time.After(e.retryDelay):
		case <-ctx.Done():
			e.setState(domain.SyncStateIdle)
			return result
		}
	}

	e.setState(domain.SyncStateIdle)
	logger.Warn("Upload abandoned after %d attempts: %s", e.retryAttempts, result.Error)
	return result
}

// ManualSync dispatches a user-triggered sync operation.
func (e *SyncEngine) ManualSync(ctx context.Context, action domain.SyncAction) domain.SyncResult {
	switch action {
	case domain.SyncActionUpload:
		return e.UploadSettings(ctx)
	case domain.SyncActionDownload:
		return e.DownloadSettings(ctx)
	case domain.SyncActionResolve:
		return e.ResolveSync(ctx)
	default:
		return domain.SyncFailure(action, domain.CodeInvalidAction,
			"unknown sync action: "+string(action), e.now())
	}
}

// LastStatus returns a copy of the engine's current status record.
func (e *SyncEngine) LastStatus() domain.SyncStatus {
	e.mu.Lock()
	defer e.mu.Unlock()

	status := e.status
	if e.status.LastResult != nil {
		result := *e.status.LastResult
		status.LastResult = &result
	}
	return status
}

// run executes one operation under the busy guard and records its
// outcome.
func (e *SyncEngine) run(
	ctx context.Context,
	action domain.SyncAction,
	op func(ctx context.Context) domain.SyncResult,
) domain.SyncResult {
	started := e.now()

	e.mu.Lock()
	if e.busy {
		e.mu.Unlock()
		logger.Debug("Rejected concurrent %s: sync already in progress", action)
		return domain.SyncFailure(action, domain.CodeSyncInProgress, msgSyncInProgress, e.now())
	}
	e.busy = true
	e.status.State = domain.SyncStateInProgress
	e.mu.Unlock()

	result := op(ctx)

	e.finish(ctx, started, result)
	return result
}

// eligibility is the gate evaluated before every operation: a currently
// valid token must exist and the account must be entitled to cloud
// sync. Token validity is checked without network I/O; the subscription
// lookup may fetch the profile once per process when no cached copy
// exists.
func (e *SyncEngine) eligibility(ctx context.Context, action domain.SyncAction) *domain.SyncResult {
	if !e.auth.HasValidToken() {
		result := domain.SyncFailure(action, domain.CodeNotEntitled, msgNotEntitled, e.now())
		return &result
	}

	sub := e.auth.Subscription(ctx)
	if sub == nil || !sub.CloudSyncEnabled() {
		result := domain.SyncFailure(action, domain.CodeNotEntitled, msgNotEntitled, e.now())
		return &result
	}
	return nil
}

func (e *SyncEngine) doUpload(ctx context.Context) domain.SyncResult {
	if rejected := e.eligibility(ctx, domain.SyncActionUpload); rejected != nil {
		return *rejected
	}
	return e.uploadCurrent(ctx)
}

// uploadCurrent builds and PUTs the current snapshot. Shared by the
// upload operation and the local-wins branch of resolve; the caller has
// already passed the eligibility gate.
func (e *SyncEngine) uploadCurrent(ctx context.Context) domain.SyncResult {
	action := domain.SyncActionUpload

	snapshot, err := e.snapshots.Snapshot(ctx)
	if err != nil {
		return domain.SyncFailure(action, domain.CodeStorageError, err.Error(), e.now())
	}
	meta, err := e.snapshots.Metadata(ctx)
	if err != nil {
		return domain.SyncFailure(action, domain.CodeStorageError, err.Error(), e.now())
	}
	token, err := e.auth.AccessToken(ctx)
	if err != nil || token == nil {
		return domain.SyncFailure(action, domain.CodeNotEntitled, msgNotEntitled, e.now())
	}

	now := e.now()
	hash := snapshot.Hash()
	modifiedAt := meta.LastModifiedAt
	modifiedBy := meta.LastModifiedDevice
	if modifiedAt.IsZero() || localContentChanged(meta, hash) {
		// The launcher app edits the file without stamping metadata, so
		// a content change since the last stamp counts as a fresh local
		// modification by this device.
		modifiedAt = now
		modifiedBy = e.device.Label()
	}

	remote := &domain.RemoteSettings{
		Snapshot:           *snapshot,
		LastSyncedDevice:   e.device.Label(),
		LastSyncedAt:       now,
		LastModifiedAt:     modifiedAt,
		LastModifiedDevice: modifiedBy,
	}

	if err := e.api.PutSettings(ctx, token.AccessToken, remote); err != nil {
		if errors.Is(err, domain.ErrUnauthorized) {
			e.notifyUnauthorized(ctx)
			return domain.SyncFailure(action, domain.CodeUnauthorized, err.Error(), e.now())
		}
		return domain.SyncFailure(action, domain.CodeNetworkError, err.Error(), e.now())
	}

	meta.LastSyncedAt = now
	meta.LastSyncedDevice = e.device.Label()
	meta.LastModifiedAt = modifiedAt
	meta.LastModifiedDevice = modifiedBy
	meta.DataHash = hash
	meta.IsConflicted = false
	if err := e.snapshots.SetMetadata(ctx, meta); err != nil {
		logger.Warn("Failed to stamp sync metadata: %v", err)
	}

	logger.Info("Settings uploaded")
	return domain.SyncResult{Success: true, Action: action, Timestamp: e.now()}
}

func (e *SyncEngine) doDownload(ctx context.Context) domain.SyncResult {
	action := domain.SyncActionDownload
	if rejected := e.eligibility(ctx, action); rejected != nil {
		return *rejected
	}

	remote, result := e.fetchRemote(ctx, action)
	if result != nil {
		return *result
	}

	if err := e.applyRemote(ctx, remote); err != nil {
		return domain.SyncFailure(action, domain.CodeStorageError, err.Error(), e.now())
	}

	logger.Info("Settings downloaded")
	return domain.SyncResult{Success: true, Action: action, Timestamp: e.now()}
}

func (e *SyncEngine) doResolve(ctx context.Context) domain.SyncResult {
	action := domain.SyncActionResolve
	if rejected := e.eligibility(ctx, action); rejected != nil {
		return *rejected
	}

	remote, result := e.fetchRemote(ctx, action)
	if result != nil {
		return *result
	}

	localMeta, err := e.snapshots.Metadata(ctx)
	if err != nil {
		return domain.SyncFailure(action, domain.CodeStorageError, err.Error(), e.now())
	}
	localSnapshot, err := e.snapshots.Snapshot(ctx)
	if err != nil {
		return domain.SyncFailure(action, domain.CodeStorageError, err.Error(), e.now())
	}

	serverModified := remote.LastModifiedAt
	if serverModified.IsZero() {
		serverModified = remote.LastSyncedAt
	}

	// An unstamped local edit since the last sync counts as a
	// modification happening now, so it is never silently reverted by a
	// periodic resync against an older server copy.
	localModified := localMeta.LastModifiedAt
	if localContentChanged(localMeta, localSnapshot.Hash()) {
		localModified = e.now()
	}

	// Whole-document last-writer-wins: the strictly newer side wins in
	// full. Equal timestamps go to the server.
	if localModified.After(serverModified) {
		uploaded := e.uploadCurrent(ctx)
		if !uploaded.Success {
			uploaded.Action = action
			return uploaded
		}
		logger.Info("Conflict resolved: local copy wins")
		return domain.SyncResult{
			Success: true, Action: action, Timestamp: e.now(), Resolution: "local",
		}
	}

	if err := e.applyRemote(ctx, remote); err != nil {
		return domain.SyncFailure(action, domain.CodeStorageError, err.Error(), e.now())
	}
	logger.Info("Conflict resolved: server copy wins")
	return domain.SyncResult{
		Success: true, Action: action, Timestamp: e.now(), Resolution: "server",
	}
}

// localContentChanged reports whether the local snapshot content
// diverged from the copy recorded at the last metadata stamp. A zero
// DataHash means nothing was stamped yet and there is nothing to
// compare against.
func localContentChanged(meta *domain.SyncMetadata, hash string) bool {
	return meta.DataHash != "" && hash != meta.DataHash
}

// fetchRemote downloads and validates the remote settings document.
// Returns a failure result instead of the document when the fetch or
// its shape validation fails; the local config stays untouched.
func (e *SyncEngine) fetchRemote(
	ctx context.Context,
	action domain.SyncAction,
) (*domain.RemoteSettings, *domain.SyncResult) {
	token, err := e.auth.AccessToken(ctx)
	if err != nil || token == nil {
		result := domain.SyncFailure(action, domain.CodeNotEntitled, msgNotEntitled, e.now())
		return nil, &result
	}

	remote, err := e.api.GetSettings(ctx, token.AccessToken)
	if err != nil {
		var result domain.SyncResult
		switch {
		case errors.Is(err, domain.ErrUnauthorized):
			e.notifyUnauthorized(ctx)
			result = domain.SyncFailure(action, domain.CodeUnauthorized, err.Error(), e.now())
		case errors.Is(err, domain.ErrInvalidPayload):
			result = domain.SyncFailure(action, domain.CodeInvalidPayload, err.Error(), e.now())
		default:
			result = domain.SyncFailure(action, domain.CodeNetworkError, err.Error(), e.now())
		}
		return nil, &result
	}
	return remote, nil
}

// applyRemote replaces the local snapshot with the server copy,
// preferring server-supplied metadata timestamps/device when present
// and stamping with current time/device otherwise.
func (e *SyncEngine) applyRemote(ctx context.Context, remote *domain.RemoteSettings) error {
	now := e.now()

	meta := &domain.SyncMetadata{
		LastSyncedAt:       remote.LastSyncedAt,
		LastSyncedDevice:   remote.LastSyncedDevice,
		LastModifiedAt:     remote.LastModifiedAt,
		LastModifiedDevice: remote.LastModifiedDevice,
		DataHash:           remote.Snapshot.Hash(),
	}
	if meta.LastSyncedAt.IsZero() {
		meta.LastSyncedAt = now
	}
	if meta.LastSyncedDevice == "" {
		meta.LastSyncedDevice = e.device.Label()
	}
	if meta.LastModifiedAt.IsZero() {
		meta.LastModifiedAt = meta.LastSyncedAt
	}
	if meta.LastModifiedDevice == "" {
		meta.LastModifiedDevice = meta.LastSyncedDevice
	}

	return e.snapshots.Apply(ctx, &remote.Snapshot, meta)
}

// finish releases the busy guard, updates the status record, persists
// history and notifies listeners.
func (e *SyncEngine) finish(ctx context.Context, started time.Time, result domain.SyncResult) {
	e.mu.Lock()
	e.busy = false
	e.status.State = domain.SyncStateIdle
	copied := result
	e.status.LastResult = &copied
	if result.Success {
		e.status.LastSyncedAt = result.Timestamp
	}
	e.mu.Unlock()

	if e.history != nil {
		record := &domain.SyncRecord{
			Action:    result.Action,
			StartedAt: started,
			EndedAt:   result.Timestamp,
			Success:   result.Success,
			Error:     result.Error,
			Device:    e.device.Label(),
		}
		if err := e.history.Record(ctx, record); err != nil {
			logger.Warn("Failed to record sync history: %v", err)
		}
		if err := e.history.Prune(ctx, historyRetention); err != nil {
			logger.Warn("Failed to prune sync history: %v", err)
		}
	}

	if e.notifier != nil {
		e.notifier.Send("sync.result", result)
	}
}

// setState records the retry-loop state, but never clobbers the status
// of an operation currently holding the busy guard.
func (e *SyncEngine) setState(state domain.SyncOpState) {
	e.mu.Lock()
	if !e.busy {
		e.status.State = state
	}
	e.mu.Unlock()
}

func (e *SyncEngine) notifyUnauthorized(ctx context.Context) {
	if e.onUnauthorized != nil {
		e.onUnauthorized(ctx)
	}
}
