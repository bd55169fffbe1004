package memory

import (
	"context"
	"sync"

	"github.com/launchdeck-labs/launchdeck-cli/internal/core/domain"
	"github.com/launchdeck-labs/launchdeck-cli/internal/core/ports/driven"
)

// Ensure TokenStore implements the interface.
var _ driven.TokenStore = (*TokenStore)(nil)

// TokenStore is an in-memory implementation of driven.TokenStore for
// testing.
type TokenStore struct {
	mu    sync.Mutex
	token *domain.Token

	// SaveCount and ClearCount track store activity for assertions.
	SaveCount  int
	ClearCount int
}

// NewTokenStore creates an empty in-memory token store.
func NewTokenStore() *TokenStore {
	return &TokenStore{}
}

// Load returns the stored token, or nil when none is stored.
func (s *TokenStore) Load(_ context.Context) (*domain.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.token == nil {
		return nil, nil //nolint:nilnil // sentinel for "not found"
	}
	copied := *s.token
	return &copied, nil
}

// Save stores the token, replacing any existing one.
func (s *TokenStore) Save(_ context.Context, token *domain.Token) error {
	if token == nil {
		return domain.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *token
	s.token = &copied
	s.SaveCount++
	return nil
}

// Clear removes the stored token.
func (s *TokenStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = nil
	s.ClearCount++
	return nil
}
