// Package storage provides BadgerDB-based persistence for the token set.
package storage

import (
	"context"
	"fmt"

	"github.com/timshannon/badgerhold/v4"

	"github.com/edumoraes/blingsync/internal/common"
	"github.com/edumoraes/blingsync/internal/interfaces"
	"github.com/edumoraes/blingsync/internal/models"
)

// tokenSetKey is the single key under which the active token set lives.
// The process holds exactly one token set, so there is nothing to list.
const tokenSetKey = "active"

// BadgerTokenStore persists the token set so a restart does not force the
// operator to re-authorize.
type BadgerTokenStore struct {
	store  *badgerhold.Store
	logger *common.Logger
}

// NewBadgerTokenStore opens (or creates) a badger store at path.
func NewBadgerTokenStore(logger *common.Logger, path string) (*BadgerTokenStore, error) {
	opts := badgerhold.DefaultOptions
	opts.Dir = path
	opts.ValueDir = path
	opts.Logger = nil // disable badger's internal logging

	store, err := badgerhold.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger store: %w", err)
	}

	logger.Debug().Str("path", path).Msg("Token store opened")

	return &BadgerTokenStore{
		store:  store,
		logger: logger,
	}, nil
}

// LoadTokenSet returns the persisted token set, or (nil, nil) when none
// has been saved.
func (s *BadgerTokenStore) LoadTokenSet(ctx context.Context) (*models.TokenSet, error) {
	var set models.TokenSet
	err := s.store.Get(tokenSetKey, &set)
	if err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load token set: %w", err)
	}
	return &set, nil
}

// SaveTokenSet replaces the persisted token set.
func (s *BadgerTokenStore) SaveTokenSet(ctx context.Context, set *models.TokenSet) error {
	if err := s.store.Upsert(tokenSetKey, set); err != nil {
		return fmt.Errorf("failed to save token set: %w", err)
	}
	s.logger.Debug().Time("expires_at", set.ExpiresAt).Msg("Token set saved")
	return nil
}

// ClearTokenSet removes the persisted token set. Missing is not an error.
func (s *BadgerTokenStore) ClearTokenSet(ctx context.Context) error {
	err := s.store.Delete(tokenSetKey, models.TokenSet{})
	if err != nil && err != badgerhold.ErrNotFound {
		return fmt.Errorf("failed to clear token set: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *BadgerTokenStore) Close() error {
	if s.store != nil {
		return s.store.Close()
	}
	return nil
}

// Ensure BadgerTokenStore implements TokenStore
var _ interfaces.TokenStore = (*BadgerTokenStore)(nil)
