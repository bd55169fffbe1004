package domain

import (
	"encoding/json"
	"slices"
)

// Profile is the account profile returned by the backend.
type Profile struct {
	// ID is the account identifier.
	ID string `json:"id"`
	// Email is the account email address.
	Email string `json:"email"`
	// Name is the display name.
	Name string `json:"name,omitempty"`
	// Subscription holds the entitlement state.
	Subscription Subscription `json:"subscription"`
}

// Subscription describes the account's plan and feature entitlements.
// The backend has shipped features both as an object of boolean flags
// and as a plain array of feature names, so Features stays raw and is
// interpreted on demand.
type Subscription struct {
	// Status is the subscription status (active, subscribed, expired...).
	Status string `json:"status"`
	// Plan is the plan name.
	Plan string `json:"plan,omitempty"`
	// Features is the raw features payload, either an object of flags
	// or an array of feature names.
	Features json.RawMessage `json:"features,omitempty"`
}

// IsActive reports whether the subscription is in a paying state.
func (s *Subscription) IsActive() bool {
	return s.Status == "active" || s.Status == "subscribed"
}

// CloudSyncEnabled evaluates the cloud-sync entitlement. Precedence:
// an explicit cloud_sync boolean flag, then membership of "cloud_sync"
// in a features array, then an implicit default of true for any active
// account.
func (s *Subscription) CloudSyncEnabled() bool {
	if len(s.Features) > 0 {
		var flags map[string]json.RawMessage
		if err := json.Unmarshal(s.Features, &flags); err == nil {
			if raw, ok := flags["cloud_sync"]; ok {
				var enabled bool
				if json.Unmarshal(raw, &enabled) == nil {
					return enabled
				}
			}
		} else {
			var names []string
			if err := json.Unmarshal(s.Features, &names); err == nil {
				return slices.Contains(names, "cloud_sync")
			}
		}
	}
	return s.IsActive()
}
