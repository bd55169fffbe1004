package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"
)

// Button is a single launcher button on a page.
type Button struct {
	// ID is the unique identifier for the button.
	ID string `json:"id"`
	// Label is the text shown on the button.
	Label string `json:"label"`
	// Icon is an optional icon reference.
	Icon string `json:"icon,omitempty"`
	// Action is the action type executed on press (run, open, chain...).
	Action string `json:"action,omitempty"`
	// Params holds action-specific parameters.
	Params map[string]any `json:"params,omitempty"`
}

// Page is one launcher page holding a grid of buttons.
type Page struct {
	// ID is the unique identifier for the page.
	ID string `json:"id"`
	// Name is the user-visible page name.
	Name string `json:"name"`
	// Buttons are the buttons laid out on this page.
	Buttons []Button `json:"buttons"`
}

// ConfigSnapshot is the whole-document payload unit that is uploaded and
// downloaded as one. No field-level identity is tracked; sync replaces
// the entire snapshot.
type ConfigSnapshot struct {
	Pages      []Page         `json:"pages"`
	Appearance map[string]any `json:"appearance"`
	Advanced   map[string]any `json:"advanced"`
}

// Hash returns a stable content hash of the snapshot, used to detect
// self-inflicted file-watcher events and to populate sync metadata.
func (s *ConfigSnapshot) Hash() string {
	data, err := json.Marshal(s)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// SyncMetadata tracks the provenance of the local config snapshot.
// It is stamped on every local write and on every successful sync.
type SyncMetadata struct {
	// LastSyncedAt is when the snapshot last agreed with the server.
	LastSyncedAt time.Time `json:"last_synced_at,omitempty"`
	// LastSyncedDevice identifies the device that performed that sync.
	LastSyncedDevice string `json:"last_synced_device,omitempty"`
	// LastModifiedAt is when the snapshot was last changed locally.
	LastModifiedAt time.Time `json:"last_modified_at,omitempty"`
	// LastModifiedDevice identifies the device that made that change.
	LastModifiedDevice string `json:"last_modified_device,omitempty"`
	// DataHash is the content hash of the snapshot at last stamp.
	DataHash string `json:"data_hash,omitempty"`
	// IsConflicted is set when a resolve detected diverging copies.
	IsConflicted bool `json:"is_conflicted,omitempty"`
}

// RemoteSettings is the wire-level settings document exchanged with the
// server: the snapshot plus server-side sync provenance.
type RemoteSettings struct {
	Snapshot ConfigSnapshot

	// LastSyncedDevice and LastSyncedAt identify the device and time of
	// the upload that produced this server copy.
	LastSyncedDevice string
	LastSyncedAt     time.Time

	// LastModifiedAt and LastModifiedDevice carry the modification
	// provenance used for last-writer-wins resolution. Zero when the
	// server did not supply them.
	LastModifiedAt     time.Time
	LastModifiedDevice string
}
