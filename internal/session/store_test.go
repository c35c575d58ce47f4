package session

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"laundrybot/internal/laundry"
)

func TestGetMaterializesEmptySession(t *testing.T) {
	store := NewMemoryStore()

	sess := store.Get(1)
	assert.Zero(t, sess.PinnedLevel)
	assert.Zero(t, sess.LastViewedLevel)
	assert.Equal(t, 1, store.Count())

	_, ok := store.PinnedLevel(1)
	assert.False(t, ok, "fresh session has no pinned level")
	_, ok = store.LastViewedLevel(1)
	assert.False(t, ok)
}

func TestPinnedLevelRoundTrip(t *testing.T) {
	store := NewMemoryStore()
	for _, lvl := range []laundry.Level{5, 8, 11, 14, 17} {
		store.SetPinnedLevel(42, lvl)
		got, ok := store.PinnedLevel(42)
		require.True(t, ok)
		assert.Equal(t, lvl, got)
	}
}

func TestLastViewedIndependentOfPinned(t *testing.T) {
	store := NewMemoryStore()
	store.SetPinnedLevel(7, 8)
	store.SetLastViewedLevel(7, 14)

	pinned, ok := store.PinnedLevel(7)
	require.True(t, ok)
	assert.Equal(t, laundry.Level(8), pinned)

	viewed, ok := store.LastViewedLevel(7)
	require.True(t, ok)
	assert.Equal(t, laundry.Level(14), viewed)
}

func TestUsersDoNotInterfere(t *testing.T) {
	store := NewMemoryStore()
	store.SetPinnedLevel(1, 5)
	store.SetPinnedLevel(2, 17)

	a, _ := store.PinnedLevel(1)
	b, _ := store.PinnedLevel(2)
	assert.Equal(t, laundry.Level(5), a)
	assert.Equal(t, laundry.Level(17), b)
}

func TestGetReturnsCopy(t *testing.T) {
	store := NewMemoryStore()
	store.SetPinnedLevel(9, 11)

	sess := store.Get(9)
	sess.PinnedLevel = 5

	got, _ := store.PinnedLevel(9)
	assert.Equal(t, laundry.Level(11), got, "mutating the copy must not touch the store")
}

func TestConcurrentMutations(t *testing.T) {
	store := NewMemoryStore()
	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			userID := int64(n % 4)
			store.SetPinnedLevel(userID, 8)
			store.SetLastViewedLevel(userID, 8)
			store.Get(userID)
			store.PinnedLevel(userID)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 4, store.Count())
	for uid := int64(0); uid < 4; uid++ {
		lvl, ok := store.PinnedLevel(uid)
		require.True(t, ok)
		assert.Equal(t, laundry.Level(8), lvl)
	}
}
