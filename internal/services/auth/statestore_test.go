package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStateStore_IssueAndConsume(t *testing.T) {
	store := newStateStore()
	now := time.Now()

	state := store.Issue(now)
	assert.NotEmpty(t, state)
	assert.True(t, store.Consume(state, now.Add(time.Minute)))
}

func TestStateStore_SingleUse(t *testing.T) {
	store := newStateStore()
	now := time.Now()

	state := store.Issue(now)
	assert.True(t, store.Consume(state, now))
	assert.False(t, store.Consume(state, now))
}

func TestStateStore_ExpiredStateRejected(t *testing.T) {
	store := newStateStore()
	now := time.Now()

	state := store.Issue(now)
	assert.False(t, store.Consume(state, now.Add(StateTTL+time.Second)))
	// Expired lookup still burned the state.
	assert.False(t, store.Consume(state, now))
}

func TestStateStore_UnknownAndEmpty(t *testing.T) {
	store := newStateStore()
	now := time.Now()

	assert.False(t, store.Consume("never-issued", now))
	assert.False(t, store.Consume("", now))
}

func TestStateStore_IssuePrunesExpired(t *testing.T) {
	store := newStateStore()
	now := time.Now()

	stale := store.Issue(now)
	store.Issue(now.Add(StateTTL + time.Minute))

	assert.False(t, store.Consume(stale, now))
}

func TestStateStore_StatesAreUnique(t *testing.T) {
	store := newStateStore()
	now := time.Now()

	seen := make(map[string]struct{})
	for i := 0; i < 50; i++ {
		state := store.Issue(now)
		_, dup := seen[state]
		assert.False(t, dup)
		seen[state] = struct{}{}
	}
}

func TestStateStore_Clear(t *testing.T) {
	store := newStateStore()
	now := time.Now()

	state := store.Issue(now)
	store.Clear()
	assert.False(t, store.Consume(state, now))
}
