package matchmaking

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/MatinDeevv/ByteDuel-sub000/internal/domains/entities"
	"github.com/MatinDeevv/ByteDuel-sub000/internal/metrics"
	"github.com/MatinDeevv/ByteDuel-sub000/pkg/logging"
	"go.uber.org/zap"
)

// JoinOptions are the caller-supplied parameters of a queue join.
type JoinOptions struct {
	Mode           entities.GameMode
	TimeControl    string
	PreferredColor entities.Color
}

func (o JoinOptions) Validate() error {
	if !o.Mode.Valid() {
		return fmt.Errorf("%w: unknown mode %q", ErrInvalidInput, o.Mode)
	}
	if o.TimeControl == "" {
		return fmt.Errorf("%w: missing time control", ErrInvalidInput)
	}
	if o.PreferredColor != "" && !o.PreferredColor.Valid() {
		return fmt.Errorf("%w: unknown color %q", ErrInvalidInput, o.PreferredColor)
	}
	return nil
}

// MatchFound is the per-player view of a committed pairing.
type MatchFound struct {
	DuelId      string                `json:"duelId"`
	OpponentId  string                `json:"opponentId"`
	Color       entities.Color        `json:"color"`
	Quality     entities.MatchQuality `json:"quality"`
	Mode        entities.GameMode     `json:"mode"`
	TimeControl string                `json:"timeControl"`
}

// JoinResult is either an immediate match or a queued acknowledgment.
type JoinResult struct {
	Matched       bool
	Match         *MatchFound
	Position      int
	EstimatedWait time.Duration
	Entry         entities.QueueEntry
}

// Status is a read-only snapshot of a user's queue membership.
type Status struct {
	Queued         bool
	Position       int
	SearchRadius   int
	ExpansionCount int
	Pool           entities.Pool
	Waiting        time.Duration
	EstimatedWait  time.Duration
}

// BucketStats is one bucket's operational numbers.
type BucketStats struct {
	Mode        entities.GameMode `json:"mode"`
	TimeControl string            `json:"timeControl"`
	Depth       int               `json:"depth"`
	AverageWait time.Duration     `json:"averageWait"`
}

// Service is the matchmaking façade. It owns the queue store, the
// matcher and one sweep scheduler per bucket, and talks to the
// external profile and duel collaborators.
type Service struct {
	store    *QueueStore
	matcher  *Matcher
	profiles ProfileStore
	clock    Clock
	cfg      Config

	wmu      sync.Mutex
	watchers map[string]chan MatchFound

	smu     sync.Mutex
	avgWait map[bucketKey]time.Duration

	schedMu    sync.Mutex
	schedulers map[bucketKey]struct{}
	stopCh     chan struct{}
	stopped    bool
	wg         sync.WaitGroup
}

func NewService(profiles ProfileStore, duels DuelService, clock Clock, cfg Config) *Service {
	if clock == nil {
		clock = SystemClock()
	}
	store := NewQueueStore(cfg.LockTimeout)
	return &Service{
		store:      store,
		matcher:    NewMatcher(store, profiles, duels, clock, cfg),
		profiles:   profiles,
		clock:      clock,
		cfg:        cfg,
		watchers:   make(map[string]chan MatchFound),
		avgWait:    make(map[bucketKey]time.Duration),
		schedulers: make(map[bucketKey]struct{}),
		stopCh:     make(chan struct{}),
	}
}

// JoinQueue inserts the user into their bucket and runs an immediate
// on-join pairing pass. A transient duel-creation failure is invisible
// to the caller: the entry stays queued for the next sweep.
func (s *Service) JoinQueue(ctx context.Context, userId string, opts JoinOptions) (JoinResult, error) {
	if userId == "" {
		return JoinResult{}, fmt.Errorf("%w: missing user id", ErrInvalidInput)
	}
	if err := opts.Validate(); err != nil {
		return JoinResult{}, err
	}
	if opts.PreferredColor == "" {
		opts.PreferredColor = entities.ColorRandom
	}

	rating, err := s.profiles.GetRating(ctx, userId)
	if err != nil {
		return JoinResult{}, fmt.Errorf("failed to get rating: %w", err)
	}
	history, err := s.profiles.GetRecentBehavior(ctx, userId, s.cfg.FairPlayWindow)
	if err != nil {
		return JoinResult{}, fmt.Errorf("failed to get recent behavior: %w", err)
	}
	recentOpponents, err := s.profiles.GetRecentOpponents(ctx, userId, s.cfg.RecentOpponentWindow)
	if err != nil {
		return JoinResult{}, fmt.Errorf("failed to get recent opponents: %w", err)
	}

	entry := entities.QueueEntry{
		UserId:          userId,
		Mode:            opts.Mode,
		TimeControl:     opts.TimeControl,
		PreferredColor:  opts.PreferredColor,
		Rating:          rating,
		SearchRadius:    s.cfg.InitialRadius,
		FairPlayPool:    ClassifyPool(history, s.cfg.FairPlayWindow),
		QueuedAt:        s.clock.Now(),
		RecentOpponents: recentOpponents,
	}
	if err := s.store.Insert(entry); err != nil {
		return JoinResult{}, err
	}
	key := bucketKey{entry.Mode, entry.TimeControl}
	metrics.QueueDepth.WithLabelValues(string(key.Mode), key.TimeControl).Inc()
	s.ensureScheduler(key)

	logging.Info("user queued",
		zap.String("user_id", userId),
		zap.String("mode", string(entry.Mode)),
		zap.String("time_control", entry.TimeControl),
		zap.Int("rating", entry.Rating),
		zap.String("pool", string(entry.FairPlayPool)),
	)

	pairing, err := s.matcher.MatchUser(ctx, userId, entry.Mode, entry.TimeControl)
	if err != nil || pairing == nil {
		// Still queued: lock contention and duel-creation failures are
		// both retried by the periodic sweep.
		return JoinResult{
			Position:      s.store.Position(userId),
			EstimatedWait: s.estimateWait(key),
			Entry:         entry,
		}, nil
	}

	s.recordPairing(pairing)
	return JoinResult{
		Matched: true,
		Match:   s.matchFoundFor(pairing, userId),
		Entry:   entry,
	}, nil
}

// LeaveQueue removes the user's entry. Leaving while absent is not an
// error.
func (s *Service) LeaveQueue(userId string) error {
	entry, ok := s.store.Remove(userId)
	if ok {
		metrics.QueueDepth.WithLabelValues(string(entry.Mode), entry.TimeControl).Dec()
		logging.Info("user left queue", zap.String("user_id", userId))
	}
	return nil
}

// ForceRemove is the administrative removal: unlike LeaveQueue it
// reports an absent entry.
func (s *Service) ForceRemove(userId string) error {
	entry, ok := s.store.Remove(userId)
	if !ok {
		return ErrNotQueued
	}
	metrics.QueueDepth.WithLabelValues(string(entry.Mode), entry.TimeControl).Dec()
	logging.Info("user force-removed from queue", zap.String("user_id", userId))
	return nil
}

// GetStatus returns a snapshot of the user's queue membership.
func (s *Service) GetStatus(userId string) Status {
	entry, ok := s.store.Get(userId)
	if !ok {
		return Status{}
	}
	key := bucketKey{entry.Mode, entry.TimeControl}
	return Status{
		Queued:         true,
		Position:       s.store.Position(userId),
		SearchRadius:   entry.SearchRadius,
		ExpansionCount: entry.ExpansionCount,
		Pool:           entry.FairPlayPool,
		Waiting:        s.clock.Now().Sub(entry.QueuedAt),
		EstimatedWait:  s.estimateWait(key),
	}
}

// ProcessQueue forces a full sweep across all buckets. Safe to call
// concurrently with the periodic schedulers; bucket locks serialize
// the passes.
func (s *Service) ProcessQueue(ctx context.Context) (matchesCreated, processed int) {
	for _, key := range s.store.bucketKeys() {
		pairings, scanned := s.matcher.SweepBucket(ctx, key.Mode, key.TimeControl)
		for _, pairing := range pairings {
			s.recordPairing(pairing)
		}
		matchesCreated += len(pairings)
		processed += scanned
	}
	return matchesCreated, processed
}

// Stats reports depth and average wait per bucket.
func (s *Service) Stats() []BucketStats {
	keys := s.store.bucketKeys()
	stats := make([]BucketStats, 0, len(keys))
	for _, key := range keys {
		stats = append(stats, BucketStats{
			Mode:        key.Mode,
			TimeControl: key.TimeControl,
			Depth:       len(s.store.SnapshotBucket(key.Mode, key.TimeControl)),
			AverageWait: s.estimateWait(key),
		})
	}
	return stats
}

// Watch returns the channel on which the user's match-found result is
// published. The channel is buffered so publication never blocks.
func (s *Service) Watch(userId string) <-chan MatchFound {
	s.wmu.Lock()
	defer s.wmu.Unlock()
	ch, ok := s.watchers[userId]
	if !ok {
		ch = make(chan MatchFound, 1)
		s.watchers[userId] = ch
	}
	return ch
}

func (s *Service) Unwatch(userId string) {
	s.wmu.Lock()
	defer s.wmu.Unlock()
	delete(s.watchers, userId)
}

// Stop halts all bucket schedulers and waits for in-flight sweeps.
func (s *Service) Stop() {
	s.schedMu.Lock()
	if s.stopped {
		s.schedMu.Unlock()
		return
	}
	s.stopped = true
	close(s.stopCh)
	s.schedMu.Unlock()
	s.wg.Wait()
	logging.Info("matchmaking service stopped")
}

// ensureScheduler lazily starts the sweep goroutine for a bucket the
// first time an entry lands in it.
func (s *Service) ensureScheduler(key bucketKey) {
	s.schedMu.Lock()
	defer s.schedMu.Unlock()
	if s.stopped {
		return
	}
	if _, ok := s.schedulers[key]; ok {
		return
	}
	s.schedulers[key] = struct{}{}
	s.wg.Add(1)
	go s.runScheduler(key)
	logging.Info("bucket scheduler started",
		zap.String("mode", string(key.Mode)),
		zap.String("time_control", key.TimeControl),
		zap.Duration("interval", s.cfg.SweepInterval),
	)
}

func (s *Service) runScheduler(key bucketKey) {
	defer s.wg.Done()
	ticker := time.NewTicker(s.cfg.SweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			// A slow sweep simply drops ticks; there is no backlog.
			pairings, _ := s.matcher.SweepBucket(context.Background(), key.Mode, key.TimeControl)
			for _, pairing := range pairings {
				s.recordPairing(pairing)
			}
		case <-s.stopCh:
			return
		}
	}
}

// recordPairing updates wait statistics and publishes the match-found
// result to both sides.
func (s *Service) recordPairing(p *Pairing) {
	key := bucketKey{p.Mode, p.TimeControl}
	for i, player := range p.Players {
		wait := p.CreatedAt.Sub(player.QueuedAt)
		metrics.WaitTime.WithLabelValues(string(key.Mode), key.TimeControl).Observe(wait.Seconds())
		s.observeWait(key, wait)
		s.notify(player.UserId, MatchFound{
			DuelId:      p.DuelId,
			OpponentId:  p.Players[1-i].UserId,
			Color:       p.Colors[i],
			Quality:     p.Quality,
			Mode:        p.Mode,
			TimeControl: p.TimeControl,
		})
	}
}

func (s *Service) notify(userId string, found MatchFound) {
	s.wmu.Lock()
	ch, ok := s.watchers[userId]
	s.wmu.Unlock()
	if !ok {
		return
	}
	select {
	case ch <- found:
	default:
	}
}

// observeWait folds one observed time-to-match into the bucket's
// exponentially weighted average.
func (s *Service) observeWait(key bucketKey, wait time.Duration) {
	s.smu.Lock()
	defer s.smu.Unlock()
	current, ok := s.avgWait[key]
	if !ok {
		s.avgWait[key] = wait
		return
	}
	s.avgWait[key] = time.Duration(float64(current)*0.8 + float64(wait)*0.2)
}

func (s *Service) estimateWait(key bucketKey) time.Duration {
	s.smu.Lock()
	defer s.smu.Unlock()
	return s.avgWait[key]
}

func (s *Service) matchFoundFor(p *Pairing, userId string) *MatchFound {
	for i, player := range p.Players {
		if player.UserId == userId {
			return &MatchFound{
				DuelId:      p.DuelId,
				OpponentId:  p.Players[1-i].UserId,
				Color:       p.Colors[i],
				Quality:     p.Quality,
				Mode:        p.Mode,
				TimeControl: p.TimeControl,
			}
		}
	}
	return nil
}
