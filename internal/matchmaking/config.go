package matchmaking

import "time"

// Config holds every matchmaking threshold. The defaults are the
// product defaults; the server config file can override any of them.
type Config struct {
	// InitialRadius is the rating tolerance a fresh entry starts with.
	InitialRadius int
	// RadiusStep is added to an entry's radius per expansion.
	RadiusStep int
	// ExpandEvery is how much waiting earns one expansion step.
	ExpandEvery time.Duration
	// MaxWait is the escape-valve ceiling: past it an entry searches
	// with unlimited radius and pool isolation / rematch avoidance are
	// relaxed.
	MaxWait time.Duration
	// SweepInterval drives the per-bucket scheduler.
	SweepInterval time.Duration
	// LockTimeout bounds bucket lock acquisition on caller-facing
	// operations; exceeding it surfaces ErrLockTimeout.
	LockTimeout time.Duration
	// RecentOpponentWindow is the rematch-avoidance capacity.
	RecentOpponentWindow int
	// FairPlayWindow is how many recent outcomes the classifier reads.
	FairPlayWindow int
}

func DefaultConfig() Config {
	return Config{
		InitialRadius:        50,
		RadiusStep:           25,
		ExpandEvery:          10 * time.Second,
		MaxWait:              2 * time.Minute,
		SweepInterval:        3 * time.Second,
		LockTimeout:          time.Second,
		RecentOpponentWindow: 3,
		FairPlayWindow:       5,
	}
}
