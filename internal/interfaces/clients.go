// Package interfaces defines service and client contracts for blingsync.
package interfaces

import (
	"context"

	"github.com/edumoraes/blingsync/internal/models"
)

// ProductAPIClient is the outbound boundary to the Bling product catalog.
// Non-2xx responses surface as *models.APIError with the upstream body
// preserved.
type ProductAPIClient interface {
	// PatchProduct issues a partial update carrying only the fields in body.
	PatchProduct(ctx context.Context, token, id string, body map[string]any, idempotencyKey string) (map[string]any, error)

	// ReplaceImages replaces the full image set of a product with urls.
	ReplaceImages(ctx context.Context, token, id string, urls []string, idempotencyKey string) (map[string]any, error)

	// PatchImagesFallback replaces images through the generic partial-update
	// endpoint, used when the dedicated replace endpoint fails.
	PatchImagesFallback(ctx context.Context, token, id string, urls []string, idempotencyKey string) (map[string]any, error)
}

// OAuthClient is the outbound boundary to the Bling OAuth provider.
type OAuthClient interface {
	// AuthorizeURL builds the authorization redirect URL embedding state.
	AuthorizeURL(state string) (string, error)

	// ExchangeCode trades an authorization code for a token response.
	ExchangeCode(ctx context.Context, code string) (*models.TokenResponse, error)

	// RefreshToken trades a refresh token for a new token response.
	RefreshToken(ctx context.Context, refreshToken string) (*models.TokenResponse, error)
}
