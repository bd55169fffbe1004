package domain

import "time"

// SchedulerConfig holds the sync scheduler's timing configuration.
type SchedulerConfig struct {
	// Enabled is the master switch for background sync.
	Enabled bool

	// Debounce is the trailing-edge quiet window after a local config
	// change before the change is uploaded. Bursts of edits inside the
	// window collapse into a single upload.
	Debounce time.Duration

	// PeriodicInterval is how often a background resync runs regardless
	// of local activity, to pick up edits from other devices.
	PeriodicInterval time.Duration
}

// DefaultSchedulerConfig returns the shipped scheduler timings.
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		Enabled:          true,
		Debounce:         2 * time.Second,
		PeriodicInterval: 15 * time.Minute,
	}
}
