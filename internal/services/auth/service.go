// Package auth owns the OAuth token lifecycle: authorization, CSRF-safe
// state, and refresh ahead of expiry.
package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/edumoraes/blingsync/internal/common"
	"github.com/edumoraes/blingsync/internal/interfaces"
	"github.com/edumoraes/blingsync/internal/models"
)

// SafetySkew is subtracted from the server-reported lifetime so a token
// considered fresh always has genuine validity margin for the outbound
// call about to be made.
const SafetySkew = 30 * time.Second

// Auth errors. Recovered only by requiring the caller to re-authorize,
// never by silently serving a stale token.
var (
	ErrUnauthenticated     = errors.New("unauthenticated")
	ErrExpiredNoRefresh    = errors.New("token expired and no refresh token available")
	ErrInvalidState        = errors.New("invalid, expired, or already used oauth state")
	ErrTokenExchangeFailed = errors.New("token exchange failed")
	ErrTokenRefreshFailed  = errors.New("token refresh failed")
)

// Service implements the AuthService interface. It is the single writer of
// the process-wide token set; all mutation goes through
// CompleteAuthorization, refresh, and Logout.
type Service struct {
	oauth  interfaces.OAuthClient
	store  interfaces.TokenStore // optional; nil means memory only
	logger *common.Logger
	now    func() time.Time // injectable clock for testing

	mu     sync.Mutex
	tokens *models.TokenSet
	states *stateStore
}

// NewService creates a new auth service. store may be nil, in which case
// the token set is held in memory only.
func NewService(oauth interfaces.OAuthClient, store interfaces.TokenStore, logger *common.Logger) *Service {
	return &Service{
		oauth:  oauth,
		store:  store,
		logger: logger,
		now:    time.Now,
		states: newStateStore(),
	}
}

// Restore loads a previously persisted token set, if any. Called once at
// startup; an already-expired set is still restored when it carries a
// refresh token, since the next AccessToken call can refresh it.
func (s *Service) Restore(ctx context.Context) error {
	if s.store == nil {
		return nil
	}

	set, err := s.store.LoadTokenSet(ctx)
	if err != nil {
		return fmt.Errorf("failed to restore token set: %w", err)
	}
	if set == nil {
		return nil
	}
	if !set.Fresh(s.now()) && set.RefreshToken == "" {
		// Nothing usable; drop it rather than surfacing a dead token.
		_ = s.store.ClearTokenSet(ctx)
		return nil
	}

	s.mu.Lock()
	s.tokens = set
	s.mu.Unlock()

	s.logger.Info().Time("expires_at", set.ExpiresAt).Msg("Token set restored from storage")
	return nil
}

// BeginAuthorization issues a fresh single-use state and returns the
// authorization URL to redirect the operator to.
func (s *Service) BeginAuthorization() (string, error) {
	state := s.states.Issue(s.now())

	authURL, err := s.oauth.AuthorizeURL(state)
	if err != nil {
		return "", err
	}

	s.logger.Info().Msg("Authorization started")
	return authURL, nil
}

// CompleteAuthorization consumes the state and exchanges the code for the
// initial token set, replacing any previous set wholesale.
func (s *Service) CompleteAuthorization(ctx context.Context, code, state string) error {
	if !s.states.Consume(state, s.now()) {
		return ErrInvalidState
	}

	tr, err := s.oauth.ExchangeCode(ctx, code)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTokenExchangeFailed, err)
	}

	s.mu.Lock()
	s.setTokensLocked(ctx, s.fromResponse(tr))
	s.mu.Unlock()

	s.logger.Info().Str("scope", tr.Scope).Msg("Authorization completed")
	return nil
}

// AccessToken returns a token with genuine remaining lifetime. The fresh
// path performs no network call. The refresh path is single-flight: the
// mutex serializes concurrent callers so only one refresh exchange is in
// flight and all callers observe its result.
func (s *Service) AccessToken(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.tokens == nil {
		return "", ErrUnauthenticated
	}

	if s.tokens.Fresh(s.now()) {
		return s.tokens.AccessToken, nil
	}

	if s.tokens.RefreshToken == "" {
		s.setTokensLocked(ctx, nil)
		return "", ErrExpiredNoRefresh
	}

	tr, err := s.oauth.RefreshToken(ctx, s.tokens.RefreshToken)
	if err != nil {
		// A refresh token is typically single-use upstream; treat the
		// stale set as unauthenticated rather than serving a rejected token.
		s.setTokensLocked(ctx, nil)
		return "", fmt.Errorf("%w: %v", ErrTokenRefreshFailed, err)
	}

	s.setTokensLocked(ctx, s.fromResponse(tr))
	s.logger.Info().Time("expires_at", s.tokens.ExpiresAt).Msg("Token refreshed")
	return s.tokens.AccessToken, nil
}

// Status reports the current authentication snapshot. Never errors, never
// mutates.
func (s *Service) Status() models.AuthStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.tokens == nil {
		return models.AuthStatus{Authenticated: false}
	}

	remaining := int(s.tokens.ExpiresAt.Sub(s.now()).Seconds())
	if remaining < 0 {
		remaining = 0
	}

	return models.AuthStatus{
		Authenticated: true,
		ExpiresIn:     remaining,
		HasRefresh:    s.tokens.RefreshToken != "",
		Scope:         s.tokens.Scope,
	}
}

// Logout discards the token set and all pending states. Idempotent.
func (s *Service) Logout() {
	s.mu.Lock()
	s.setTokensLocked(context.Background(), nil)
	s.mu.Unlock()

	s.states.Clear()
	s.logger.Info().Msg("Logged out")
}

// setTokensLocked replaces the token set wholesale and mirrors the change
// to the persistent store. Persistence failures are logged, not fatal: the
// in-memory set remains authoritative. Caller must hold s.mu.
func (s *Service) setTokensLocked(ctx context.Context, set *models.TokenSet) {
	s.tokens = set

	if s.store == nil {
		return
	}
	var err error
	if set == nil {
		err = s.store.ClearTokenSet(ctx)
	} else {
		err = s.store.SaveTokenSet(ctx, set)
	}
	if err != nil {
		s.logger.Warn().Err(err).Msg("Failed to persist token set")
	}
}

// fromResponse converts a token response into a token set, baking the
// safety skew into the absolute expiry.
func (s *Service) fromResponse(tr *models.TokenResponse) *models.TokenSet {
	tokenType := tr.TokenType
	if tokenType == "" {
		tokenType = "Bearer"
	}
	return &models.TokenSet{
		AccessToken:  tr.AccessToken,
		RefreshToken: tr.RefreshToken,
		TokenType:    tokenType,
		Scope:        tr.Scope,
		ExpiresAt:    s.now().Add(time.Duration(tr.ExpiresIn)*time.Second - SafetySkew),
	}
}

// Ensure Service implements AuthService
var _ interfaces.AuthService = (*Service)(nil)
