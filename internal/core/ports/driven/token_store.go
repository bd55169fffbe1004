package driven

import (
	"context"

	"github.com/launchdeck-labs/launchdeck-cli/internal/core/domain"
)

// TokenStore persists OAuth tokens durably.
//
// Implementations must write atomically (temp file + rename) so a process
// interruption mid-write can never leave a corrupted token file.
type TokenStore interface {
	// Load reads the stored token.
	// Returns nil and no error if no token is stored.
	Load(ctx context.Context) (*domain.Token, error)

	// Save persists the token, replacing any existing one.
	Save(ctx context.Context, token *domain.Token) error

	// Clear removes the stored token. Clearing an empty store is not
	// an error.
	Clear(ctx context.Context) error
}
