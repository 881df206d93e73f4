package entities

import "time"

type GameMode string

const (
	ModeRanked GameMode = "ranked"
	ModeCasual GameMode = "casual"
)

type Color string

const (
	ColorWhite  Color = "white"
	ColorBlack  Color = "black"
	ColorRandom Color = "random"
)

// Pool partitions players by recent behavior. Pools are hard pairing
// boundaries until an entry's wait time exceeds the escape-valve ceiling.
type Pool string

const (
	PoolStandard     Pool = "standard"
	PoolTimeoutProne Pool = "timeout_prone"
	PoolRageQuitters Pool = "rage_quitters"
)

// MatchQuality tiers a pairing by rating gap.
type MatchQuality string

const (
	QualityExcellent MatchQuality = "excellent"
	QualityVeryGood  MatchQuality = "very_good"
	QualityGood      MatchQuality = "good"
	QualityFair      MatchQuality = "fair"
)

// QueueEntry is one player's open matchmaking request. The rating is a
// snapshot taken at enqueue time and never changes for the entry's
// lifetime; only the matcher grows SearchRadius and ExpansionCount.
type QueueEntry struct {
	UserId          string
	Mode            GameMode
	TimeControl     string
	PreferredColor  Color
	Rating          int
	SearchRadius    int
	ExpansionCount  int
	FairPlayPool    Pool
	QueuedAt        time.Time
	RecentOpponents []string
}

// HasFacedRecently reports whether opponentId is inside the entry's
// rematch-avoidance window.
func (e QueueEntry) HasFacedRecently(opponentId string) bool {
	for _, id := range e.RecentOpponents {
		if id == opponentId {
			return true
		}
	}
	return false
}

func (m GameMode) Valid() bool {
	return m == ModeRanked || m == ModeCasual
}

func (c Color) Valid() bool {
	return c == ColorWhite || c == ColorBlack || c == ColorRandom
}
