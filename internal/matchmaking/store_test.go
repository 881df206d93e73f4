package matchmaking

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MatinDeevv/ByteDuel-sub000/internal/domains/entities"
)

func TestQueueStore_InsertAndGet(t *testing.T) {
	store := NewQueueStore(time.Second)
	require.NoError(t, store.Insert(testEntry("alice", 1200)))

	entry, ok := store.Get("alice")
	require.True(t, ok)
	assert.Equal(t, "alice", entry.UserId)
	assert.Equal(t, 1200, entry.Rating)
	assert.Equal(t, 1, store.Len())
}

func TestQueueStore_DuplicateInsert(t *testing.T) {
	store := NewQueueStore(time.Second)
	require.NoError(t, store.Insert(testEntry("alice", 1200)))

	err := store.Insert(testEntry("alice", 1200))
	assert.ErrorIs(t, err, ErrAlreadyQueued)

	// Joining a different bucket is still rejected.
	other := testEntry("alice", 1200)
	other.TimeControl = "5+0"
	assert.ErrorIs(t, store.Insert(other), ErrAlreadyQueued)
	assert.Equal(t, 1, store.Len())
}

func TestQueueStore_RemoveIdempotent(t *testing.T) {
	store := NewQueueStore(time.Second)
	require.NoError(t, store.Insert(testEntry("alice", 1200)))

	removed, ok := store.Remove("alice")
	require.True(t, ok)
	assert.Equal(t, "alice", removed.UserId)

	_, ok = store.Remove("alice")
	assert.False(t, ok)
	assert.Equal(t, 0, store.Len())

	// A removed user can re-queue.
	assert.NoError(t, store.Insert(testEntry("alice", 1200)))
}

func TestQueueStore_ExpandRadius(t *testing.T) {
	store := NewQueueStore(time.Second)
	require.NoError(t, store.Insert(testEntry("alice", 1200)))

	store.ExpandRadius("alice", 25)
	store.ExpandRadius("alice", 25)

	entry, ok := store.Get("alice")
	require.True(t, ok)
	assert.Equal(t, 100, entry.SearchRadius)
	assert.Equal(t, 2, entry.ExpansionCount)

	// Absent user is a no-op.
	store.ExpandRadius("nobody", 25)
}

func TestQueueStore_SnapshotBucket(t *testing.T) {
	store := NewQueueStore(time.Second)

	first := testEntry("alice", 1200)
	second := testEntry("bob", 1300)
	second.QueuedAt = first.QueuedAt.Add(5 * time.Second)
	third := testEntry("carol", 1250)
	third.TimeControl = "5+0"

	require.NoError(t, store.Insert(second))
	require.NoError(t, store.Insert(first))
	require.NoError(t, store.Insert(third))

	snapshot := store.SnapshotBucket(entities.ModeRanked, "15+0")
	require.Len(t, snapshot, 2)
	assert.Equal(t, "alice", snapshot[0].UserId, "snapshot is oldest first")
	assert.Equal(t, "bob", snapshot[1].UserId)

	assert.Empty(t, store.SnapshotBucket(entities.ModeCasual, "15+0"))
}

func TestQueueStore_Position(t *testing.T) {
	store := NewQueueStore(time.Second)

	first := testEntry("alice", 1200)
	second := testEntry("bob", 1300)
	second.QueuedAt = first.QueuedAt.Add(5 * time.Second)
	require.NoError(t, store.Insert(first))
	require.NoError(t, store.Insert(second))

	assert.Equal(t, 1, store.Position("alice"))
	assert.Equal(t, 2, store.Position("bob"))
	assert.Equal(t, 0, store.Position("nobody"))
}

func TestQueueStore_ConcurrentJoinSameUser(t *testing.T) {
	store := NewQueueStore(time.Second)

	const attempts = 32
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = store.Insert(testEntry("alice", 1200))
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			assert.ErrorIs(t, err, ErrAlreadyQueued)
		}
	}
	assert.Equal(t, 1, succeeded, "exactly one concurrent join wins")
	assert.Equal(t, 1, store.Len())
}

func TestQueueStore_LockTimeout(t *testing.T) {
	store := NewQueueStore(50 * time.Millisecond)
	require.NoError(t, store.Insert(testEntry("alice", 1200)))

	// Hold the bucket lock so Insert cannot acquire it.
	b := store.bucketFor(bucketKey{entities.ModeRanked, "15+0"})
	require.NotNil(t, b)
	b.lock()
	defer b.unlock()

	err := store.Insert(testEntry("bob", 1300))
	assert.ErrorIs(t, err, ErrLockTimeout)
}
