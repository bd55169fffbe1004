package services

import (
	"context"
	stdsync "sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/launchdeck-labs/launchdeck-cli/internal/adapters/driven/storage/memory"
	"github.com/launchdeck-labs/launchdeck-cli/internal/core/domain"
)

// schedulerStubEngine implements driving.SyncService and counts calls.
type schedulerStubEngine struct {
	mu       stdsync.Mutex
	uploads  int
	resolves int
}

func (e *schedulerStubEngine) UploadSettings(_ context.Context) domain.SyncResult {
	return domain.SyncResult{Success: true, Action: domain.SyncActionUpload}
}

func (e *schedulerStubEngine) DownloadSettings(_ context.Context) domain.SyncResult {
	return domain.SyncResult{Success: true, Action: domain.SyncActionDownload}
}

func (e *schedulerStubEngine) UploadSettingsWithRetry(_ context.Context) domain.SyncResult {
	e.mu.Lock()
	e.uploads++
	e.mu.Unlock()
	return domain.SyncResult{Success: true, Action: domain.SyncActionUpload}
}

func (e *schedulerStubEngine) ResolveSync(_ context.Context) domain.SyncResult {
	e.mu.Lock()
	e.resolves++
	e.mu.Unlock()
	return domain.SyncResult{Success: true, Action: domain.SyncActionResolve}
}

func (e *schedulerStubEngine) ManualSync(_ context.Context, action domain.SyncAction) domain.SyncResult {
	return domain.SyncResult{Success: true, Action: action}
}

func (e *schedulerStubEngine) LastStatus() domain.SyncStatus {
	return domain.SyncStatus{State: domain.SyncStateIdle}
}

func (e *schedulerStubEngine) Uploads() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.uploads
}

func (e *schedulerStubEngine) Resolves() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.resolves
}

// startScheduler runs Start in the background and waits until the
// scheduler is actually accepting change notifications.
func startScheduler(t *testing.T, s *SyncScheduler, ctx context.Context) <-chan error {
	t.Helper()

	done := make(chan error, 1)
	go func() { done <- s.Start(ctx) }()

	require.Eventually(t, func() bool {
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.running
	}, time.Second, time.Millisecond)

	return done
}

func TestSchedulerDebounceCollapsesBurst(t *testing.T) {
	engine := &schedulerStubEngine{}
	snapshots := memory.NewSnapshotStore()
	scheduler := NewSyncScheduler(domain.SchedulerConfig{
		Enabled:          true,
		Debounce:         50 * time.Millisecond,
		PeriodicInterval: time.Hour,
	}, engine, snapshots)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	startScheduler(t, scheduler, ctx)
	defer scheduler.Stop() //nolint:errcheck

	// A burst of edits inside one debounce window.
	for i := 0; i < 5; i++ {
		snapshots.SimulateChange(testSnapshot("Edit"))
		time.Sleep(5 * time.Millisecond)
	}

	// Exactly one upload fires once the window elapses uninterrupted.
	require.Eventually(t, func() bool {
		return engine.Uploads() == 1
	}, time.Second, 5*time.Millisecond)

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 1, engine.Uploads(), "intermediate snapshots must be superseded")
}

func TestSchedulerSeparateWindowsEachUpload(t *testing.T) {
	engine := &schedulerStubEngine{}
	snapshots := memory.NewSnapshotStore()
	scheduler := NewSyncScheduler(domain.SchedulerConfig{
		Enabled:          true,
		Debounce:         20 * time.Millisecond,
		PeriodicInterval: time.Hour,
	}, engine, snapshots)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	startScheduler(t, scheduler, ctx)
	defer scheduler.Stop() //nolint:errcheck

	snapshots.SimulateChange(testSnapshot("First"))
	require.Eventually(t, func() bool {
		return engine.Uploads() == 1
	}, time.Second, 5*time.Millisecond)

	snapshots.SimulateChange(testSnapshot("Second"))
	require.Eventually(t, func() bool {
		return engine.Uploads() == 2
	}, time.Second, 5*time.Millisecond)
}

func TestSchedulerStopCancelsPendingDebounce(t *testing.T) {
	engine := &schedulerStubEngine{}
	snapshots := memory.NewSnapshotStore()
	scheduler := NewSyncScheduler(domain.SchedulerConfig{
		Enabled:          true,
		Debounce:         30 * time.Millisecond,
		PeriodicInterval: time.Hour,
	}, engine, snapshots)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := startScheduler(t, scheduler, ctx)

	scheduler.NotifyChange()
	require.NoError(t, scheduler.Stop())

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop")
	}

	// The pending debounce was cancelled; no upload may fire afterwards.
	time.Sleep(80 * time.Millisecond)
	assert.Equal(t, 0, engine.Uploads())
}

func TestSchedulerPeriodicResync(t *testing.T) {
	engine := &schedulerStubEngine{}
	snapshots := memory.NewSnapshotStore()
	scheduler := NewSyncScheduler(domain.SchedulerConfig{
		Enabled:          true,
		Debounce:         time.Hour,
		PeriodicInterval: 20 * time.Millisecond,
	}, engine, snapshots)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	startScheduler(t, scheduler, ctx)
	defer scheduler.Stop() //nolint:errcheck

	require.Eventually(t, func() bool {
		return engine.Resolves() >= 2
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, 0, engine.Uploads(), "periodic resync must not trigger uploads")
}

func TestSchedulerDisabled(t *testing.T) {
	engine := &schedulerStubEngine{}
	scheduler := NewSyncScheduler(domain.SchedulerConfig{Enabled: false},
		engine, memory.NewSnapshotStore())

	// Start returns immediately when background sync is off.
	require.NoError(t, scheduler.Start(context.Background()))
	assert.Equal(t, 0, engine.Uploads())
}

func TestSchedulerContextCancellation(t *testing.T) {
	engine := &schedulerStubEngine{}
	scheduler := NewSyncScheduler(domain.SchedulerConfig{
		Enabled:          true,
		Debounce:         time.Hour,
		PeriodicInterval: time.Hour,
	}, engine, memory.NewSnapshotStore())

	ctx, cancel := context.WithCancel(context.Background())
	done := startScheduler(t, scheduler, ctx)

	cancel()
	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("scheduler did not observe context cancellation")
	}
}

func TestSchedulerNotifyChangeBeforeStart(t *testing.T) {
	engine := &schedulerStubEngine{}
	scheduler := NewSyncScheduler(domain.SchedulerConfig{
		Enabled:          true,
		Debounce:         10 * time.Millisecond,
		PeriodicInterval: time.Hour,
	}, engine, memory.NewSnapshotStore())

	// Without Start the scheduler ignores changes instead of panicking.
	scheduler.NotifyChange()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, 0, engine.Uploads())
}
