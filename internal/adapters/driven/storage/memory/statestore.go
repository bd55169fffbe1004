package memory

import (
	"context"
	"sync"
	"time"

	"github.com/launchdeck-labs/launchdeck-cli/internal/core/domain"
	"github.com/launchdeck-labs/launchdeck-cli/internal/core/ports/driven"
)

// Ensure StateStore implements the interface.
var _ driven.OAuthStateStore = (*StateStore)(nil)

// StateStore holds pending login states in process memory. Login state
// is ephemeral: it expires after domain.OAuthStateTTL and does not
// survive a restart.
type StateStore struct {
	mu     sync.Mutex
	states map[string]domain.OAuthState
	now    func() time.Time
}

// NewStateStore creates an empty state store.
func NewStateStore() *StateStore {
	return &StateStore{
		states: make(map[string]domain.OAuthState),
		now:    time.Now,
	}
}

// Save stores a login state keyed by nonce.
func (s *StateStore) Save(_ context.Context, state *domain.OAuthState) error {
	if state == nil || state.Nonce == "" {
		return domain.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[state.Nonce] = *state
	return nil
}

// GetAndDelete atomically retrieves and deletes the state for a nonce.
// Returns nil and no error for an unknown nonce.
func (s *StateStore) GetAndDelete(_ context.Context, nonce string) (*domain.OAuthState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.states[nonce]
	if !ok {
		return nil, nil //nolint:nilnil // sentinel for "not found"
	}
	delete(s.states, nonce)
	return &state, nil
}

// Cleanup removes expired states.
func (s *StateStore) Cleanup(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for nonce, state := range s.states {
		if state.ExpiredAt(now) {
			delete(s.states, nonce)
		}
	}
	return nil
}
