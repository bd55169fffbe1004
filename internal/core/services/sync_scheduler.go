package services

import (
	"context"
	"sync"
	"time"

	"github.com/launchdeck-labs/launchdeck-cli/internal/core/domain"
	"github.com/launchdeck-labs/launchdeck-cli/internal/core/ports/driven"
	"github.com/launchdeck-labs/launchdeck-cli/internal/core/ports/driving"
	"github.com/launchdeck-labs/launchdeck-cli/internal/logger"
)

// Ensure SyncScheduler implements the interface.
var _ driving.SyncScheduler = (*SyncScheduler)(nil)

// SyncScheduler owns every background sync timer: the trailing-edge
// debounce that collapses bursts of local edits into one upload, and
// the periodic resync that picks up edits made from other devices.
// Business logic never creates ad hoc timers; they all live here so
// teardown can cancel them without leaks.
type SyncScheduler struct {
	config    domain.SchedulerConfig
	engine    driving.SyncService
	snapshots driven.SnapshotStore

	mu       sync.Mutex
	running  bool
	stopCh   chan struct{}
	ctx      context.Context
	debounce *time.Timer
	wg       sync.WaitGroup
}

// NewSyncScheduler creates a scheduler with the given timing
// configuration.
func NewSyncScheduler(
	config domain.SchedulerConfig,
	engine driving.SyncService,
	snapshots driven.SnapshotStore,
) *SyncScheduler {
	return &SyncScheduler{
		config:    config,
		engine:    engine,
		snapshots: snapshots,
	}
}

// Start subscribes to local snapshot changes and runs the periodic
// resync loop. Blocks until Stop is called or ctx is cancelled.
func (s *SyncScheduler) Start(ctx context.Context) error {
	if !s.config.Enabled {
		logger.Info("Background sync disabled")
		return nil
	}

	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil // Already running
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.ctx = ctx
	s.mu.Unlock()

	s.snapshots.OnChange(func(_, _ *domain.ConfigSnapshot) {
		s.NotifyChange()
	})

	return s.run(ctx)
}

// Stop cancels the debounce and periodic timers and waits for in-flight
// work. A sync whose network call already started completes naturally.
func (s *SyncScheduler) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	if s.debounce != nil {
		s.debounce.Stop()
		s.debounce = nil
	}
	close(s.stopCh)
	s.mu.Unlock()

	s.wg.Wait()
	return nil
}

// NotifyChange restarts the debounce window. When the window elapses
// uninterrupted, exactly one upload of the then-current snapshot runs;
// intermediate snapshots within the window are superseded and never
// transmitted.
func (s *SyncScheduler) NotifyChange() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	if s.debounce != nil {
		s.debounce.Stop()
	}
	s.debounce = time.AfterFunc(s.config.Debounce, s.flushUpload)
}

// run is the periodic resync loop.
func (s *SyncScheduler) run(ctx context.Context) error {
	ticker := time.NewTicker(s.config.PeriodicInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			_ = s.Stop()
			return ctx.Err()
		case <-s.stopCh:
			return nil
		case <-ticker.C:
			logger.Debug("Periodic resync triggered")
			result := s.engine.ResolveSync(ctx)
			if !result.Success {
				logger.Warn("Periodic resync failed: %s", result.Error)
			}
		}
	}
}

// flushUpload fires when the debounce window elapses uninterrupted.
func (s *SyncScheduler) flushUpload() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	ctx := s.ctx
	s.debounce = nil
	s.wg.Add(1)
	s.mu.Unlock()

	defer s.wg.Done()

	logger.Debug("Debounce elapsed, uploading settings")
	result := s.engine.UploadSettingsWithRetry(ctx)
	if !result.Success {
		logger.Warn("Change-triggered upload failed: %s", result.Error)
	}
}
