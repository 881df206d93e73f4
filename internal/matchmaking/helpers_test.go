package matchmaking

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/MatinDeevv/ByteDuel-sub000/internal/domains/entities"
)

type fakeProfiles struct {
	mu        sync.Mutex
	ratings   map[string]int
	history   map[string]entities.FairPlayHistory
	opponents map[string][]string
	lastColor map[string]entities.Color
}

func newFakeProfiles() *fakeProfiles {
	return &fakeProfiles{
		ratings:   make(map[string]int),
		history:   make(map[string]entities.FairPlayHistory),
		opponents: make(map[string][]string),
		lastColor: make(map[string]entities.Color),
	}
}

func (p *fakeProfiles) GetRating(_ context.Context, userId string) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if rating, ok := p.ratings[userId]; ok {
		return rating, nil
	}
	return 1200, nil
}

func (p *fakeProfiles) GetRecentBehavior(_ context.Context, userId string, _ int) (entities.FairPlayHistory, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.history[userId], nil
}

func (p *fakeProfiles) GetRecentOpponents(_ context.Context, userId string, _ int) ([]string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.opponents[userId], nil
}

func (p *fakeProfiles) GetLastAssignedColor(_ context.Context, userId string) (entities.Color, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastColor[userId], nil
}

var errDuelUnavailable = errors.New("duel backend unavailable")

type duelCall struct {
	player1, player2 string
	color1, color2   entities.Color
}

type fakeDuels struct {
	mu       sync.Mutex
	calls    []duelCall
	failures int // fail this many calls before succeeding
}

func (d *fakeDuels) CreateDuel(
	_ context.Context,
	player1Id, player2Id string,
	_ entities.GameMode,
	_ string,
	color1, color2 entities.Color,
) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.failures > 0 {
		d.failures--
		return "", errDuelUnavailable
	}
	d.calls = append(d.calls, duelCall{player1Id, player2Id, color1, color2})
	return fmt.Sprintf("duel-%d", len(d.calls)), nil
}

func (d *fakeDuels) created() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.calls)
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.SweepInterval = time.Hour // schedulers stay quiet in tests
	return cfg
}

func testEntry(userId string, rating int) entities.QueueEntry {
	return entities.QueueEntry{
		UserId:         userId,
		Mode:           entities.ModeRanked,
		TimeControl:    "15+0",
		PreferredColor: entities.ColorRandom,
		Rating:         rating,
		SearchRadius:   50,
		FairPlayPool:   entities.PoolStandard,
		QueuedAt:       time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}
