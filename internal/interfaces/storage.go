package interfaces

import (
	"context"

	"github.com/edumoraes/blingsync/internal/models"
)

// TokenStore persists the active token set across restarts. Implementations
// must tolerate concurrent calls from the auth service's single writer.
type TokenStore interface {
	// LoadTokenSet returns the persisted token set, or (nil, nil) when none
	// has been saved.
	LoadTokenSet(ctx context.Context) (*models.TokenSet, error)

	// SaveTokenSet replaces the persisted token set.
	SaveTokenSet(ctx context.Context, set *models.TokenSet) error

	// ClearTokenSet removes the persisted token set. Idempotent.
	ClearTokenSet(ctx context.Context) error

	// Close releases the underlying store.
	Close() error
}
