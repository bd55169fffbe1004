package driven

import (
	"context"

	"github.com/launchdeck-labs/launchdeck-cli/internal/core/domain"
)

// OAuthStateStore manages pending login state for CSRF protection.
// States are single-use and expire after domain.OAuthStateTTL.
type OAuthStateStore interface {
	// Save stores a new login state, replacing any pending one for the
	// same nonce.
	Save(ctx context.Context, state *domain.OAuthState) error

	// GetAndDelete atomically retrieves and deletes the state for a
	// nonce. This ensures single-use semantics.
	// Returns nil and no error if the nonce is unknown.
	GetAndDelete(ctx context.Context, nonce string) (*domain.OAuthState, error)

	// Cleanup removes expired states.
	Cleanup(ctx context.Context) error
}
