package matchmaking

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MatinDeevv/ByteDuel-sub000/internal/domains/entities"
)

func newTestService(t *testing.T) (*Service, *fakeProfiles, *fakeDuels, *fakeClock) {
	t.Helper()
	profiles := newFakeProfiles()
	duels := &fakeDuels{}
	clock := newFakeClock()
	svc := NewService(profiles, duels, clock, testConfig())
	t.Cleanup(svc.Stop)
	return svc, profiles, duels, clock
}

func rankedJoin() JoinOptions {
	return JoinOptions{Mode: entities.ModeRanked, TimeControl: "15+0"}
}

func TestService_JoinQueueQueuedAck(t *testing.T) {
	svc, profiles, _, _ := newTestService(t)
	profiles.ratings["alice"] = 1340

	result, err := svc.JoinQueue(context.Background(), "alice", rankedJoin())
	require.NoError(t, err)

	assert.False(t, result.Matched)
	assert.Nil(t, result.Match)
	assert.Equal(t, 1, result.Position)
	assert.Equal(t, 1340, result.Entry.Rating)
	assert.Equal(t, 50, result.Entry.SearchRadius)
	assert.Equal(t, entities.PoolStandard, result.Entry.FairPlayPool)
	assert.Equal(t, entities.ColorRandom, result.Entry.PreferredColor, "color defaults to random")
}

func TestService_JoinQueueImmediateMatch(t *testing.T) {
	svc, _, duels, _ := newTestService(t)

	_, err := svc.JoinQueue(context.Background(), "alice", rankedJoin())
	require.NoError(t, err)

	result, err := svc.JoinQueue(context.Background(), "bob", rankedJoin())
	require.NoError(t, err)

	require.True(t, result.Matched)
	require.NotNil(t, result.Match)
	assert.Equal(t, "alice", result.Match.OpponentId)
	assert.Equal(t, "duel-1", result.Match.DuelId)
	assert.Equal(t, entities.QualityExcellent, result.Match.Quality)
	assert.Equal(t, 1, duels.created())

	assert.False(t, svc.GetStatus("alice").Queued)
	assert.False(t, svc.GetStatus("bob").Queued)
}

func TestService_JoinQueueValidation(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.JoinQueue(ctx, "", rankedJoin())
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.JoinQueue(ctx, "alice", JoinOptions{Mode: "blitzkrieg", TimeControl: "15+0"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.JoinQueue(ctx, "alice", JoinOptions{Mode: entities.ModeRanked})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.JoinQueue(ctx, "alice", JoinOptions{
		Mode:           entities.ModeRanked,
		TimeControl:    "15+0",
		PreferredColor: "purple",
	})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestService_JoinQueueDuplicate(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.JoinQueue(ctx, "alice", rankedJoin())
	require.NoError(t, err)

	_, err = svc.JoinQueue(ctx, "alice", rankedJoin())
	assert.ErrorIs(t, err, ErrAlreadyQueued)

	// Other buckets reject the duplicate too.
	casual := JoinOptions{Mode: entities.ModeCasual, TimeControl: "5+0"}
	_, err = svc.JoinQueue(ctx, "alice", casual)
	assert.ErrorIs(t, err, ErrAlreadyQueued)
}

func TestService_JoinQueueClassifiesPool(t *testing.T) {
	svc, profiles, _, _ := newTestService(t)
	profiles.history["alice"] = entities.FairPlayHistory{
		entities.OutcomeRageQuit,
		entities.OutcomeRageQuit,
	}

	result, err := svc.JoinQueue(context.Background(), "alice", rankedJoin())
	require.NoError(t, err)
	assert.Equal(t, entities.PoolRageQuitters, result.Entry.FairPlayPool)
	assert.Equal(t, entities.PoolRageQuitters, svc.GetStatus("alice").Pool)
}

func TestService_JoinQueueStaysQueuedOnDuelFailure(t *testing.T) {
	svc, _, duels, _ := newTestService(t)
	duels.failures = 1
	ctx := context.Background()

	_, err := svc.JoinQueue(ctx, "alice", rankedJoin())
	require.NoError(t, err)

	// The duel backend hiccups: bob gets a queued ack, not an error.
	result, err := svc.JoinQueue(ctx, "bob", rankedJoin())
	require.NoError(t, err)
	assert.False(t, result.Matched)
	assert.True(t, svc.GetStatus("alice").Queued)
	assert.True(t, svc.GetStatus("bob").Queued)

	// The next sweep pairs them.
	matches, _ := svc.ProcessQueue(ctx)
	assert.Equal(t, 1, matches)
	assert.Equal(t, 1, duels.created())
}

func TestService_LeaveQueueIdempotent(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	_, err := svc.JoinQueue(context.Background(), "alice", rankedJoin())
	require.NoError(t, err)

	assert.NoError(t, svc.LeaveQueue("alice"))
	assert.False(t, svc.GetStatus("alice").Queued)
	assert.NoError(t, svc.LeaveQueue("alice"), "leaving while absent is not an error")
}

func TestService_ForceRemove(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	assert.ErrorIs(t, svc.ForceRemove("alice"), ErrNotQueued)

	_, err := svc.JoinQueue(context.Background(), "alice", rankedJoin())
	require.NoError(t, err)
	assert.NoError(t, svc.ForceRemove("alice"))
	assert.ErrorIs(t, svc.ForceRemove("alice"), ErrNotQueued)
}

func TestService_GetStatus(t *testing.T) {
	svc, _, _, clock := newTestService(t)

	assert.Equal(t, Status{}, svc.GetStatus("alice"))

	_, err := svc.JoinQueue(context.Background(), "alice", rankedJoin())
	require.NoError(t, err)

	clock.advance(42 * time.Second)
	status := svc.GetStatus("alice")
	assert.True(t, status.Queued)
	assert.Equal(t, 1, status.Position)
	assert.Equal(t, 50, status.SearchRadius)
	assert.Equal(t, 0, status.ExpansionCount)
	assert.Equal(t, entities.PoolStandard, status.Pool)
	assert.Equal(t, 42*time.Second, status.Waiting)
}

func TestService_ProcessQueueSweepsAllBuckets(t *testing.T) {
	svc, profiles, duels, _ := newTestService(t)
	ctx := context.Background()

	for userId, opts := range map[string]JoinOptions{
		"alice": rankedJoin(),
		"carol": {Mode: entities.ModeCasual, TimeControl: "5+0"},
	} {
		_, err := svc.JoinQueue(ctx, userId, opts)
		require.NoError(t, err)
	}
	// bob joins last and is well outside alice's radius.
	profiles.ratings["bob"] = 1600
	_, err := svc.JoinQueue(ctx, "bob", rankedJoin())
	require.NoError(t, err)

	matches, processed := svc.ProcessQueue(ctx)
	assert.Equal(t, 0, matches, "1200 versus 1600 is out of radius")
	assert.Equal(t, 3, processed)
	assert.Equal(t, 0, duels.created())
}

func TestService_ProcessQueueCreatesMatches(t *testing.T) {
	svc, _, duels, clock := newTestService(t)
	ctx := context.Background()

	_, err := svc.JoinQueue(ctx, "alice", rankedJoin())
	require.NoError(t, err)

	// Make bob unmatchable on join via a recent-opponent block, then
	// age both past the wait ceiling so the sweep relaxes it.
	_, ok := svc.store.Get("alice")
	require.True(t, ok)
	bob := testEntry("bob", 1210)
	bob.RecentOpponents = []string{"alice"}
	bob.QueuedAt = clock.Now()
	require.NoError(t, svc.store.Insert(bob))

	matches, _ := svc.ProcessQueue(ctx)
	assert.Equal(t, 0, matches)

	clock.advance(svc.cfg.MaxWait)
	matches, _ = svc.ProcessQueue(ctx)
	assert.Equal(t, 1, matches)
	assert.Equal(t, 1, duels.created())
}

func TestService_Stats(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()

	assert.Empty(t, svc.Stats())

	_, err := svc.JoinQueue(ctx, "alice", rankedJoin())
	require.NoError(t, err)
	_, err = svc.JoinQueue(ctx, "carol", JoinOptions{Mode: entities.ModeCasual, TimeControl: "5+0"})
	require.NoError(t, err)

	stats := svc.Stats()
	require.Len(t, stats, 2)
	byMode := make(map[entities.GameMode]BucketStats)
	for _, bucket := range stats {
		byMode[bucket.Mode] = bucket
	}
	assert.Equal(t, 1, byMode[entities.ModeRanked].Depth)
	assert.Equal(t, "5+0", byMode[entities.ModeCasual].TimeControl)
}

func TestService_WatchDeliversMatchFound(t *testing.T) {
	svc, _, _, clock := newTestService(t)
	ctx := context.Background()

	aliceCh := svc.Watch("alice")
	bobCh := svc.Watch("bob")
	defer svc.Unwatch("alice")
	defer svc.Unwatch("bob")

	_, err := svc.JoinQueue(ctx, "alice", rankedJoin())
	require.NoError(t, err)
	clock.advance(15 * time.Second)
	result, err := svc.JoinQueue(ctx, "bob", rankedJoin())
	require.NoError(t, err)
	require.True(t, result.Matched)

	select {
	case found := <-aliceCh:
		assert.Equal(t, "bob", found.OpponentId)
		assert.Equal(t, result.Match.DuelId, found.DuelId)
	default:
		t.Fatal("alice never got a match notification")
	}
	select {
	case found := <-bobCh:
		assert.Equal(t, "alice", found.OpponentId)
		assert.True(t, found.Color.Valid())
	default:
		t.Fatal("bob never got a match notification")
	}
}

func TestService_WaitEstimateTracksObservedWaits(t *testing.T) {
	svc, _, _, clock := newTestService(t)
	ctx := context.Background()

	key := bucketKey{entities.ModeRanked, "15+0"}
	assert.Zero(t, svc.estimateWait(key))

	_, err := svc.JoinQueue(ctx, "alice", rankedJoin())
	require.NoError(t, err)
	clock.advance(30 * time.Second)
	_, err = svc.JoinQueue(ctx, "bob", rankedJoin())
	require.NoError(t, err)

	// bob's zero wait seeds the average, then alice's 30s folds in
	// at the smoothing weight.
	estimate := svc.estimateWait(key)
	assert.Equal(t, 6*time.Second, estimate)
}

func TestService_StopIsIdempotent(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	_, err := svc.JoinQueue(context.Background(), "alice", rankedJoin())
	require.NoError(t, err)

	svc.Stop()
	svc.Stop()
}
