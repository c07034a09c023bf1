package interfaces

import (
	"context"

	"github.com/edumoraes/blingsync/internal/models"
)

// AuthService owns the single process-wide token set and keeps it usable
// without manual intervention.
type AuthService interface {
	// BeginAuthorization issues a fresh single-use state nonce and returns
	// the authorization URL to redirect the operator to.
	BeginAuthorization() (string, error)

	// CompleteAuthorization consumes the state nonce and exchanges the code
	// for the initial token set.
	CompleteAuthorization(ctx context.Context, code, state string) error

	// AccessToken returns a token with genuine remaining lifetime,
	// refreshing ahead of expiry when a refresh token is available.
	AccessToken(ctx context.Context) (string, error)

	// Status reports the current authentication snapshot. Pure read.
	Status() models.AuthStatus

	// Logout discards the token set and any pending states. Idempotent.
	Logout()
}

// ParserService converts pasted BN text into canonical records. It never
// fails on malformed input; problems become warnings or structural errors.
type ParserService interface {
	Parse(raw string) *models.ParseResult
}

// UpdaterService turns parsed records into remote catalog changes with
// partial-failure isolation per record.
type UpdaterService interface {
	// PatchRecords processes records sequentially. idempotencyKey may be
	// empty, in which case a batch key is generated.
	PatchRecords(ctx context.Context, records []*models.BNRecord, idempotencyKey string) (*models.BatchResult, error)
}
