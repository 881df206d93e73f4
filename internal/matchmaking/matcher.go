package matchmaking

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/MatinDeevv/ByteDuel-sub000/internal/domains/entities"
	"github.com/MatinDeevv/ByteDuel-sub000/internal/metrics"
	"github.com/MatinDeevv/ByteDuel-sub000/pkg/logging"
	"go.uber.org/zap"
)

// unlimitedRadius marks an entry past the wait ceiling ("search anyone").
const unlimitedRadius = 1 << 30

// Matcher runs the pairing routine, either for a single just-inserted
// entry (on-join) or for a whole bucket (periodic sweep). Both paths
// reserve entries under the bucket lock and create the duel outside it.
type Matcher struct {
	store    *QueueStore
	profiles ProfileStore
	duels    DuelService
	clock    Clock
	cfg      Config
	coin     func() bool
}

// Pairing is the outcome of a committed match between two entries.
type Pairing struct {
	DuelId      string
	Players     [2]entities.QueueEntry
	Colors      [2]entities.Color
	Quality     entities.MatchQuality
	Mode        entities.GameMode
	TimeControl string
	CreatedAt   time.Time
}

func NewMatcher(
	store *QueueStore,
	profiles ProfileStore,
	duels DuelService,
	clock Clock,
	cfg Config,
) *Matcher {
	return &Matcher{
		store:    store,
		profiles: profiles,
		duels:    duels,
		clock:    clock,
		cfg:      cfg,
		coin:     func() bool { return rand.Intn(2) == 0 },
	}
}

// MatchQualityFor tiers a pairing by the rating gap between the sides.
func MatchQualityFor(gap int) entities.MatchQuality {
	switch {
	case gap <= 25:
		return entities.QualityExcellent
	case gap <= 75:
		return entities.QualityVeryGood
	case gap <= 150:
		return entities.QualityGood
	}
	return entities.QualityFair
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// relaxed reports whether an entry is past the wait ceiling: pool
// isolation and rematch avoidance no longer apply to it.
func (m *Matcher) relaxed(e *entities.QueueEntry, now time.Time) bool {
	return now.Sub(e.QueuedAt) >= m.cfg.MaxWait
}

func (m *Matcher) eligible(e, c *entities.QueueEntry, now time.Time) bool {
	if c.UserId == e.UserId {
		return false
	}
	radius := e.SearchRadius
	if c.SearchRadius < radius {
		radius = c.SearchRadius
	}
	if abs(c.Rating-e.Rating) > radius {
		return false
	}
	if m.relaxed(e, now) || m.relaxed(c, now) {
		return true
	}
	if c.FairPlayPool != e.FairPlayPool {
		return false
	}
	if e.HasFacedRecently(c.UserId) || c.HasFacedRecently(e.UserId) {
		return false
	}
	return true
}

// selectCandidateLocked picks the best opponent for e in bucket b:
// best quality tier first, then smallest rating gap, then the entry
// queued longest. Requires b's lock to be held.
func (m *Matcher) selectCandidateLocked(
	b *bucket,
	e *entities.QueueEntry,
	now time.Time,
	used map[string]bool,
) *entities.QueueEntry {
	var best *entities.QueueEntry
	var bestGap int
	for _, c := range b.entries {
		if used[c.UserId] {
			continue
		}
		if !m.eligible(e, c, now) {
			continue
		}
		gap := abs(c.Rating - e.Rating)
		if best == nil {
			best, bestGap = c, gap
			continue
		}
		if gap < bestGap {
			best, bestGap = c, gap
			continue
		}
		if gap == bestGap && c.QueuedAt.Before(best.QueuedAt) {
			best = c
		}
	}
	return best
}

// MatchUser is the on-join pass: attempt to pair just the given entry.
// Returns (nil, nil) if the entry is gone or no candidate fits.
func (m *Matcher) MatchUser(
	ctx context.Context,
	userId string,
	mode entities.GameMode,
	timeControl string,
) (*Pairing, error) {
	b := m.store.bucketFor(bucketKey{mode, timeControl})
	if b == nil {
		return nil, nil
	}
	if err := b.lockTimeout(m.cfg.LockTimeout); err != nil {
		return nil, err
	}
	e, ok := b.entries[userId]
	if !ok {
		b.unlock()
		return nil, nil
	}
	c := m.selectCandidateLocked(b, e, m.clock.Now(), nil)
	if c == nil {
		b.unlock()
		return nil, nil
	}
	ea, ec := *e, *c
	m.store.removeLocked(b, ea.UserId)
	m.store.removeLocked(b, ec.UserId)
	b.unlock()

	return m.finalize(ctx, ea, ec)
}

// SweepBucket pairs as much of a bucket as possible and expands the
// radius of whatever could not be paired. Pairing and expansion happen
// under the bucket lock; duel creation happens after it is released.
func (m *Matcher) SweepBucket(
	ctx context.Context,
	mode entities.GameMode,
	timeControl string,
) ([]*Pairing, int) {
	b := m.store.bucketFor(bucketKey{mode, timeControl})
	if b == nil {
		return nil, 0
	}
	b.lock()
	now := m.clock.Now()

	var reserved [][2]entities.QueueEntry
	used := make(map[string]bool)
	processed := 0
	for _, e := range b.entriesLocked() {
		if used[e.UserId] {
			continue
		}
		processed++
		c := m.selectCandidateLocked(b, e, now, used)
		if c == nil {
			continue
		}
		used[e.UserId], used[c.UserId] = true, true
		ea, ec := *e, *c
		m.store.removeLocked(b, ea.UserId)
		m.store.removeLocked(b, ec.UserId)
		reserved = append(reserved, [2]entities.QueueEntry{ea, ec})
	}

	for _, e := range b.entriesLocked() {
		m.expandLocked(e, now)
	}
	b.unlock()

	var pairings []*Pairing
	for _, pair := range reserved {
		pairing, err := m.finalize(ctx, pair[0], pair[1])
		if err != nil {
			// Both entries are back in the queue; the next sweep
			// retries them.
			continue
		}
		pairings = append(pairings, pairing)
	}
	return pairings, processed
}

// expandLocked grows an un-matched entry's radius according to its
// age: one step per ExpandEvery waited, unlimited past MaxWait.
// Requires the entry's bucket lock to be held.
func (m *Matcher) expandLocked(e *entities.QueueEntry, now time.Time) {
	age := now.Sub(e.QueuedAt)
	target := m.cfg.InitialRadius + m.cfg.RadiusStep*int(age/m.cfg.ExpandEvery)
	if age >= m.cfg.MaxWait {
		target = unlimitedRadius
	}
	if e.SearchRadius >= target {
		return
	}
	e.SearchRadius = target
	e.ExpansionCount++
	metrics.RadiusExpansions.Inc()
}

// finalize assigns colors and creates the duel for a reserved pair.
// On duel-creation failure both entries are re-inserted with their
// prior radius and expansion state; no player is dropped.
func (m *Matcher) finalize(ctx context.Context, a, b entities.QueueEntry) (*Pairing, error) {
	colorA, colorB := m.assignColors(ctx, a, b)
	duelId, err := m.duels.CreateDuel(ctx, a.UserId, b.UserId, a.Mode, a.TimeControl, colorA, colorB)
	if err != nil {
		metrics.DuelCreationFailures.Inc()
		logging.Warn("duel creation failed, re-queueing players",
			zap.String("player1", a.UserId),
			zap.String("player2", b.UserId),
			zap.Error(err),
		)
		m.reinsert(a)
		m.reinsert(b)
		return nil, fmt.Errorf("%w: %v", ErrDuelCreationFailed, err)
	}

	quality := MatchQualityFor(abs(a.Rating - b.Rating))
	metrics.MatchesCreated.WithLabelValues(string(a.Mode), a.TimeControl, string(quality)).Inc()
	metrics.QueueDepth.WithLabelValues(string(a.Mode), a.TimeControl).Sub(2)
	logging.Info("match found",
		zap.String("duel_id", duelId),
		zap.String("player1", a.UserId),
		zap.String("player2", b.UserId),
		zap.Int("rating_gap", abs(a.Rating-b.Rating)),
		zap.String("quality", string(quality)),
	)
	return &Pairing{
		DuelId:      duelId,
		Players:     [2]entities.QueueEntry{a, b},
		Colors:      [2]entities.Color{colorA, colorB},
		Quality:     quality,
		Mode:        a.Mode,
		TimeControl: a.TimeControl,
		CreatedAt:   m.clock.Now(),
	}, nil
}

func (m *Matcher) reinsert(e entities.QueueEntry) {
	if err := m.store.reinsertBlocking(e); err != nil {
		logging.Error("failed to re-queue player",
			zap.String("user_id", e.UserId),
			zap.Error(err),
		)
	}
}

// assignColors honors compatible preferences, resolves random/random
// with a coin flip, and breaks identical preferences by alternating
// against the first player's last assigned color.
func (m *Matcher) assignColors(ctx context.Context, a, b entities.QueueEntry) (entities.Color, entities.Color) {
	pa, pb := a.PreferredColor, b.PreferredColor
	switch {
	case pa == entities.ColorWhite && pb == entities.ColorBlack:
		return entities.ColorWhite, entities.ColorBlack
	case pa == entities.ColorBlack && pb == entities.ColorWhite:
		return entities.ColorBlack, entities.ColorWhite
	case pa == entities.ColorRandom && pb == entities.ColorRandom:
		if m.coin() {
			return entities.ColorWhite, entities.ColorBlack
		}
		return entities.ColorBlack, entities.ColorWhite
	case pa == entities.ColorRandom:
		if pb == entities.ColorWhite {
			return entities.ColorBlack, entities.ColorWhite
		}
		return entities.ColorWhite, entities.ColorBlack
	case pb == entities.ColorRandom:
		if pa == entities.ColorWhite {
			return entities.ColorWhite, entities.ColorBlack
		}
		return entities.ColorBlack, entities.ColorWhite
	}

	// Both want the same color: alternate on a's color history.
	last, err := m.profiles.GetLastAssignedColor(ctx, a.UserId)
	if err != nil || !last.Valid() || last == entities.ColorRandom {
		if m.coin() {
			return entities.ColorWhite, entities.ColorBlack
		}
		return entities.ColorBlack, entities.ColorWhite
	}
	if last == entities.ColorWhite {
		return entities.ColorBlack, entities.ColorWhite
	}
	return entities.ColorWhite, entities.ColorBlack
}
