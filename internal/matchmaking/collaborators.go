package matchmaking

import (
	"context"
	"time"

	"github.com/MatinDeevv/ByteDuel-sub000/internal/domains/entities"
)

// ProfileStore is the external profile collaborator. Implementations
// must be safe for concurrent use.
type ProfileStore interface {
	GetRating(ctx context.Context, userId string) (int, error)
	GetRecentBehavior(ctx context.Context, userId string, limit int) (entities.FairPlayHistory, error)
	GetRecentOpponents(ctx context.Context, userId string, limit int) ([]string, error)
	GetLastAssignedColor(ctx context.Context, userId string) (entities.Color, error)
}

// DuelService creates the duel record for a committed pairing. It may
// fail transiently; the matcher treats any error as retryable and
// rolls the pairing back.
type DuelService interface {
	CreateDuel(
		ctx context.Context,
		player1Id, player2Id string,
		mode entities.GameMode,
		timeControl string,
		color1, color2 entities.Color,
	) (string, error)
}

// Clock supplies wall-clock time so expansion thresholds and wait
// statistics are testable.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock returns the real wall clock.
func SystemClock() Clock { return systemClock{} }
