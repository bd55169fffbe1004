package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/launchdeck-labs/launchdeck-cli/internal/core/domain"
	"github.com/launchdeck-labs/launchdeck-cli/internal/core/ports/driven"
	"github.com/launchdeck-labs/launchdeck-cli/internal/logger"
)

// Ensure SnapshotStore implements the interface.
var _ driven.SnapshotStore = (*SnapshotStore)(nil)

// SnapshotStore persists the launcher config snapshot as launcher.json
// next to a sync-metadata sidecar. The desktop app edits launcher.json
// directly; a filesystem watcher turns those edits into change
// notifications. Writes made through Apply are recognised by content
// hash and never reported back as changes.
type SnapshotStore struct {
	path     string
	metaPath string

	mu       sync.Mutex
	lastHash string
	handlers []driven.SnapshotChangeHandler
	snapshot *domain.ConfigSnapshot

	watcher *fsnotify.Watcher
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// NewSnapshotStore creates a snapshot store for the given config file.
// The metadata sidecar lives next to it.
func NewSnapshotStore(path string) (*SnapshotStore, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: snapshot file path required", domain.ErrInvalidInput)
	}

	ext := filepath.Ext(path)
	metaPath := path[:len(path)-len(ext)] + ".sync" + ext

	return &SnapshotStore{path: path, metaPath: metaPath}, nil
}

// Snapshot reads the current config snapshot from disk. A missing file
// yields an empty snapshot rather than an error: a fresh install has no
// config yet.
func (s *SnapshotStore) Snapshot(_ context.Context) (*domain.ConfigSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readSnapshotLocked()
}

func (s *SnapshotStore) readSnapshotLocked() (*domain.ConfigSnapshot, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return &domain.ConfigSnapshot{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var snapshot domain.ConfigSnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}
	s.snapshot = &snapshot
	return &snapshot, nil
}

// Apply replaces the local snapshot and metadata. The written content's
// hash is remembered so the resulting watcher event is ignored.
func (s *SnapshotStore) Apply(_ context.Context, snapshot *domain.ConfigSnapshot, meta *domain.SyncMetadata) error {
	if snapshot == nil {
		return domain.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := writeFileAtomic(s.path, data, 0o644); err != nil {
		return err
	}
	s.lastHash = snapshot.Hash()
	s.snapshot = snapshot

	if meta != nil {
		if err := s.writeMetadataLocked(meta); err != nil {
			return err
		}
	}
	return nil
}

// Metadata reads the sync metadata sidecar. A missing sidecar yields
// zero metadata.
func (s *SnapshotStore) Metadata(_ context.Context) (*domain.SyncMetadata, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.metaPath)
	if os.IsNotExist(err) {
		return &domain.SyncMetadata{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read sync metadata: %w", err)
	}

	var meta domain.SyncMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("parse sync metadata: %w", err)
	}
	return &meta, nil
}

// SetMetadata writes the sync metadata sidecar atomically.
func (s *SnapshotStore) SetMetadata(_ context.Context, meta *domain.SyncMetadata) error {
	if meta == nil {
		return domain.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeMetadataLocked(meta)
}

func (s *SnapshotStore) writeMetadataLocked(meta *domain.SyncMetadata) error {
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("encode sync metadata: %w", err)
	}
	return writeFileAtomic(s.metaPath, data, 0o644)
}

// OnChange registers a change handler. Handlers fire only for external
// edits, never for writes made through Apply.
func (s *SnapshotStore) OnChange(handler driven.SnapshotChangeHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers = append(s.handlers, handler)
}

// Watch starts the filesystem watcher on the config file's directory.
// Watching the directory instead of the file survives editors and
// atomic renames that replace the inode.
func (s *SnapshotStore) Watch() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.watcher != nil {
		return nil // Already watching
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close() //nolint:errcheck
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	s.watcher = watcher
	s.stopCh = make(chan struct{})
	s.wg.Add(1)
	go s.watchLoop(watcher, s.stopCh)
	return nil
}

// Close stops the filesystem watcher.
func (s *SnapshotStore) Close() error {
	s.mu.Lock()
	watcher := s.watcher
	stopCh := s.stopCh
	s.watcher = nil
	s.stopCh = nil
	s.mu.Unlock()

	if watcher == nil {
		return nil
	}
	close(stopCh)
	err := watcher.Close()
	s.wg.Wait()
	return err
}

func (s *SnapshotStore) watchLoop(watcher *fsnotify.Watcher, stopCh chan struct{}) {
	defer s.wg.Done()

	for {
		select {
		case <-stopCh:
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if event.Name != s.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			s.handleFileEvent()
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			logger.Warn("Config watcher error: %v", err)
		}
	}
}

// handleFileEvent re-reads the config and fires handlers when the
// content actually changed and the write was not our own.
func (s *SnapshotStore) handleFileEvent() {
	s.mu.Lock()
	old := s.snapshot

	updated, err := s.readSnapshotLocked()
	if err != nil {
		s.mu.Unlock()
		logger.Warn("Ignoring unreadable config edit: %v", err)
		return
	}

	hash := updated.Hash()
	if hash == s.lastHash {
		s.mu.Unlock()
		return // Our own Apply write coming back around
	}
	s.lastHash = hash

	handlers := make([]driven.SnapshotChangeHandler, len(s.handlers))
	copy(handlers, s.handlers)
	s.mu.Unlock()

	logger.Debug("Local config edit detected")
	for _, handler := range handlers {
		handler(updated, old)
	}
}
