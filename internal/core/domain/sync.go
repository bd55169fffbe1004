package domain

import "time"

// SyncAction identifies a sync operation kind.
type SyncAction string

// Sync operation kinds.
const (
	SyncActionUpload   SyncAction = "upload"
	SyncActionDownload SyncAction = "download"
	SyncActionResolve  SyncAction = "resolve"
)

// IsValid reports whether the action is a known sync operation.
func (a SyncAction) IsValid() bool {
	switch a {
	case SyncActionUpload, SyncActionDownload, SyncActionResolve:
		return true
	}
	return false
}

// SyncOpState is the per-operation state machine of the sync engine.
type SyncOpState string

// Sync engine operation states.
const (
	SyncStateIdle           SyncOpState = "idle"
	SyncStateInProgress     SyncOpState = "in_progress"
	SyncStateRetryScheduled SyncOpState = "retry_scheduled"
)

// Result codes attached to structured sync and auth failures.
const (
	CodeSyncInProgress  = "sync_in_progress"
	CodeNotEntitled     = "cloud_sync_disabled"
	CodeUnauthorized    = "unauthorized"
	CodeInvalidPayload  = "invalid_payload"
	CodeNetworkError    = "network_error"
	CodeStorageError    = "storage_error"
	CodeInvalidAction   = "invalid_action"
	CodeStateMismatch   = "state_mismatch"
	CodeMissingAuthCode = "missing_authorization_code"
	CodeLogoutCooldown  = "logout_cooldown"
)

// SyncResult is the structured outcome of a sync operation. Failures are
// reported here rather than propagated; the presentation layer turns the
// message into user-visible status.
type SyncResult struct {
	// Success reports whether the operation completed.
	Success bool `json:"success"`
	// Action is the operation that produced this result.
	Action SyncAction `json:"action"`
	// Error is the human-readable failure message, empty on success.
	Error string `json:"error,omitempty"`
	// Code is the machine-readable failure code, empty on success.
	Code string `json:"code,omitempty"`
	// Timestamp is when the operation finished.
	Timestamp time.Time `json:"timestamp"`
	// Resolution records which side won a resolve (local or server).
	Resolution string `json:"resolution,omitempty"`
}

// SyncFailure builds a failed result for an action.
func SyncFailure(action SyncAction, code, message string, at time.Time) SyncResult {
	return SyncResult{
		Success:   false,
		Action:    action,
		Error:     message,
		Code:      code,
		Timestamp: at,
	}
}

// SyncStatus is the engine's externally visible status record.
type SyncStatus struct {
	// State is the current operation state.
	State SyncOpState `json:"state"`
	// LastResult is the most recent operation outcome, nil before the
	// first operation.
	LastResult *SyncResult `json:"last_result,omitempty"`
	// LastSyncedAt is when the last successful sync finished.
	LastSyncedAt time.Time `json:"last_synced_at,omitempty"`
}

// SyncRecord is one sync attempt persisted to history.
type SyncRecord struct {
	// Action is the operation kind.
	Action SyncAction
	// StartedAt is when the operation started.
	StartedAt time.Time
	// EndedAt is when the operation finished.
	EndedAt time.Time
	// Success reports whether the operation completed.
	Success bool
	// Error is the failure message if Success is false.
	Error string
	// Device is the label of the device that ran the operation.
	Device string
}
