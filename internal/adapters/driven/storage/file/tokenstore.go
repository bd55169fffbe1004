// Package file provides file-backed storage adapters. All writes are
// atomic: content goes to a temp file in the same directory which is
// then renamed over the target, so a crash mid-write can never leave a
// truncated file behind.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/launchdeck-labs/launchdeck-cli/internal/core/domain"
	"github.com/launchdeck-labs/launchdeck-cli/internal/core/ports/driven"
)

// Ensure TokenStore implements the interface.
var _ driven.TokenStore = (*TokenStore)(nil)

// TokenStore persists OAuth tokens as a JSON file with owner-only
// permissions.
type TokenStore struct {
	mu   sync.Mutex
	path string
}

// NewTokenStore creates a token store writing to the given path.
// Parent directories are created on first save.
func NewTokenStore(path string) (*TokenStore, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: token file path required", domain.ErrInvalidInput)
	}
	return &TokenStore{path: path}, nil
}

// Load reads the stored token. Returns nil and no error when the file
// does not exist.
func (s *TokenStore) Load(_ context.Context) (*domain.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, nil //nolint:nilnil // sentinel for "not found"
	}
	if err != nil {
		return nil, fmt.Errorf("read token file: %w", err)
	}

	var token domain.Token
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, fmt.Errorf("parse token file: %w", err)
	}
	return &token, nil
}

// Save writes the token atomically with 0600 permissions.
func (s *TokenStore) Save(_ context.Context, token *domain.Token) error {
	if token == nil {
		return domain.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(token, "", "  ")
	if err != nil {
		return fmt.Errorf("encode token: %w", err)
	}
	return writeFileAtomic(s.path, data, 0o600)
}

// Clear removes the stored token file. Removing a file that does not
// exist is not an error.
func (s *TokenStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove token file: %w", err)
	}
	return nil
}

// writeFileAtomic writes data to a temp file in the target's directory,
// syncs it, and renames it over the target.
func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	cleanup := func() {
		tmp.Close()        //nolint:errcheck
		os.Remove(tmpName) //nolint:errcheck
	}

	if err := tmp.Chmod(perm); err != nil {
		cleanup()
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		cleanup()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName) //nolint:errcheck
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName) //nolint:errcheck
		return fmt.Errorf("replace %s: %w", filepath.Base(path), err)
	}
	return nil
}
