package file

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	stdsync "sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/launchdeck-labs/launchdeck-cli/internal/core/domain"
)

func snapshotFixture(pageName string) *domain.ConfigSnapshot {
	return &domain.ConfigSnapshot{
		Pages: []domain.Page{{
			ID:      "page-1",
			Name:    pageName,
			Buttons: []domain.Button{{ID: "btn-1", Label: "Terminal"}},
		}},
		Appearance: map[string]any{"theme": "dark"},
	}
}

func TestSnapshotStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "launcher.json")

	store, err := NewSnapshotStore(path)
	require.NoError(t, err)

	// A fresh install has an empty snapshot, not an error.
	snapshot, err := store.Snapshot(ctx)
	require.NoError(t, err)
	assert.Empty(t, snapshot.Pages)

	meta := &domain.SyncMetadata{
		LastSyncedAt:     time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC),
		LastSyncedDevice: "alice@studio (linux)",
		DataHash:         snapshotFixture("Main").Hash(),
	}
	require.NoError(t, store.Apply(ctx, snapshotFixture("Main"), meta))

	snapshot, err = store.Snapshot(ctx)
	require.NoError(t, err)
	require.Len(t, snapshot.Pages, 1)
	assert.Equal(t, "Main", snapshot.Pages[0].Name)

	got, err := store.Metadata(ctx)
	require.NoError(t, err)
	assert.Equal(t, "alice@studio (linux)", got.LastSyncedDevice)
	assert.True(t, got.LastSyncedAt.Equal(meta.LastSyncedAt))

	// The metadata sidecar lives next to the config file.
	_, err = os.Stat(filepath.Join(filepath.Dir(path), "launcher.sync.json"))
	require.NoError(t, err)
}

func TestSnapshotStoreWatchDetectsExternalEdit(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "launcher.json")

	store, err := NewSnapshotStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Apply(ctx, snapshotFixture("Main"), nil))

	var mu stdsync.Mutex
	var changes []*domain.ConfigSnapshot
	store.OnChange(func(updated, _ *domain.ConfigSnapshot) {
		mu.Lock()
		changes = append(changes, updated)
		mu.Unlock()
	})

	require.NoError(t, store.Watch())
	defer store.Close() //nolint:errcheck

	// Simulates the desktop app editing the config file directly.
	edited, err := json.Marshal(snapshotFixture("Edited externally"))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, edited, 0o644))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(changes) > 0
	}, 2*time.Second, 10*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "Edited externally", changes[0].Pages[0].Name)
}

func TestSnapshotStoreWatchIgnoresOwnWrites(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "launcher.json")

	store, err := NewSnapshotStore(path)
	require.NoError(t, err)

	var mu stdsync.Mutex
	var fired int
	store.OnChange(func(_, _ *domain.ConfigSnapshot) {
		mu.Lock()
		fired++
		mu.Unlock()
	})

	require.NoError(t, store.Watch())
	defer store.Close() //nolint:errcheck

	// Sync-originated writes must not echo back as change events,
	// otherwise every download would schedule an upload.
	require.NoError(t, store.Apply(ctx, snapshotFixture("From server"), nil))
	time.Sleep(300 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 0, fired)
}

func TestSnapshotStoreWatchIgnoresUnrelatedFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "launcher.json")

	store, err := NewSnapshotStore(path)
	require.NoError(t, err)

	var mu stdsync.Mutex
	var fired int
	store.OnChange(func(_, _ *domain.ConfigSnapshot) {
		mu.Lock()
		fired++
		mu.Unlock()
	})

	require.NoError(t, store.Watch())
	defer store.Close() //nolint:errcheck

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("hi"), 0o644))
	time.Sleep(300 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 0, fired)
}

func TestSnapshotStoreCloseIsIdempotent(t *testing.T) {
	store, err := NewSnapshotStore(filepath.Join(t.TempDir(), "launcher.json"))
	require.NoError(t, err)

	require.NoError(t, store.Watch())
	require.NoError(t, store.Close())
	require.NoError(t, store.Close())
}
