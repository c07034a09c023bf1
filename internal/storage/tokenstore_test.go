package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edumoraes/blingsync/internal/common"
	"github.com/edumoraes/blingsync/internal/models"
)

func newTestStore(t *testing.T) *BadgerTokenStore {
	t.Helper()
	store, err := NewBadgerTokenStore(common.NewSilentLogger(), t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestTokenStore_LoadEmpty(t *testing.T) {
	store := newTestStore(t)

	set, err := store.LoadTokenSet(context.Background())
	require.NoError(t, err)
	assert.Nil(t, set)
}

func TestTokenStore_SaveAndLoad(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	saved := &models.TokenSet{
		AccessToken:  "tok-1",
		RefreshToken: "ref-1",
		TokenType:    "Bearer",
		Scope:        "produtos",
		ExpiresAt:    time.Now().Add(time.Hour).Truncate(time.Second),
	}
	require.NoError(t, store.SaveTokenSet(ctx, saved))

	loaded, err := store.LoadTokenSet(ctx)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, saved.AccessToken, loaded.AccessToken)
	assert.Equal(t, saved.RefreshToken, loaded.RefreshToken)
	assert.Equal(t, saved.Scope, loaded.Scope)
	assert.True(t, saved.ExpiresAt.Equal(loaded.ExpiresAt))
}

func TestTokenStore_SaveReplaces(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveTokenSet(ctx, &models.TokenSet{AccessToken: "tok-1"}))
	require.NoError(t, store.SaveTokenSet(ctx, &models.TokenSet{AccessToken: "tok-2"}))

	loaded, err := store.LoadTokenSet(ctx)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, "tok-2", loaded.AccessToken)
}

func TestTokenStore_Clear(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveTokenSet(ctx, &models.TokenSet{AccessToken: "tok-1"}))
	require.NoError(t, store.ClearTokenSet(ctx))

	loaded, err := store.LoadTokenSet(ctx)
	require.NoError(t, err)
	assert.Nil(t, loaded)

	// Clearing an already-empty store is fine.
	assert.NoError(t, store.ClearTokenSet(ctx))
}
