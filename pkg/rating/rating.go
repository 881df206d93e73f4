package rating

import (
	"errors"
	"math"
)

// DefaultK is the Elo K-factor used when the caller passes k <= 0.
const DefaultK = 32

// RatingFloor is the lowest rating a player can ever hold.
const RatingFloor = 100

var ErrInvalidInput = errors.New("invalid rating input")

// PerformanceMetrics describes how a player performed in a duel.
type PerformanceMetrics struct {
	ExecutionTimeMs  int `json:"executionTimeMs"`
	PerformanceScore int `json:"performanceScore"`
	WrongSubmissions int `json:"wrongSubmissions"`
	CodeQuality      int `json:"codeQuality"`
}

// UpdateResult holds the signed deltas for both sides of a duel
// plus the bonus components applied to the winner.
type UpdateResult struct {
	WinnerDelta     int     `json:"winnerDelta"`
	LoserDelta      int     `json:"loserDelta"`
	SpeedBonus      int     `json:"speedBonus"`
	QualityBonus    int     `json:"qualityBonus"`
	DifficultyBonus int     `json:"difficultyBonus"`
	Multiplier      float64 `json:"multiplier"`
}

func (m PerformanceMetrics) Validate() error {
	if m.ExecutionTimeMs < 0 || m.WrongSubmissions < 0 {
		return ErrInvalidInput
	}
	if m.PerformanceScore < 0 || m.PerformanceScore > 100 {
		return ErrInvalidInput
	}
	if m.CodeQuality < 0 || m.CodeQuality > 100 {
		return ErrInvalidInput
	}
	return nil
}

// ValidateRating rejects ratings the engine is not defined over.
func ValidateRating(r int) error {
	if r < 0 {
		return ErrInvalidInput
	}
	return nil
}

// Expected score via the logistic curve.
func expectedScore(rating, other int) float64 {
	return 1 / (1 + math.Pow(10, float64(other-rating)/400))
}

// performanceMultiplier scales the winner's base delta by execution
// speed and overall performance score, clamped to [0.5, 2.0].
func performanceMultiplier(m PerformanceMetrics) float64 {
	mult := 1.0
	switch {
	case m.ExecutionTimeMs <= 100:
		mult += 0.5
	case m.ExecutionTimeMs <= 500:
		mult += 0.3
	case m.ExecutionTimeMs <= 1000:
		mult += 0.1
	}
	if m.ExecutionTimeMs > 3000 {
		mult -= 0.2
	}
	mult += float64(m.PerformanceScore-50) / 100
	if mult < 0.5 {
		mult = 0.5
	}
	if mult > 2.0 {
		mult = 2.0
	}
	return mult
}

// speedBonus awards up to 50 extra points for fast solutions,
// scaled by the performance score.
func speedBonus(m PerformanceMetrics) int {
	var base int
	switch {
	case m.ExecutionTimeMs <= 50:
		base = 50
	case m.ExecutionTimeMs <= 100:
		base = 40
	case m.ExecutionTimeMs <= 200:
		base = 30
	case m.ExecutionTimeMs <= 500:
		base = 20
	case m.ExecutionTimeMs <= 1000:
		base = 10
	case m.ExecutionTimeMs <= 2000:
		base = 5
	}
	return int(math.Round(float64(base) * float64(m.PerformanceScore) / 100))
}

func qualityBonus(m PerformanceMetrics) int {
	penalty := m.WrongSubmissions * 3
	if penalty > 15 {
		penalty = 15
	}
	bonus := -penalty
	switch {
	case m.CodeQuality >= 90:
		bonus += 10
	case m.CodeQuality >= 80:
		bonus += 5
	case m.CodeQuality < 50:
		bonus -= 5
	}
	if m.WrongSubmissions == 0 {
		bonus += 15
	}
	return bonus
}

// difficultyBonus rewards beating a higher-rated opponent and
// discounts wins over much weaker ones.
func difficultyBonus(winnerRating, loserRating int) int {
	diff := loserRating - winnerRating
	switch {
	case diff > 200:
		bonus := int(math.Round(float64(diff) / 20))
		if bonus > 25 {
			bonus = 25
		}
		return bonus
	case diff > 100:
		bonus := int(math.Round(float64(diff) / 25))
		if bonus > 15 {
			bonus = 15
		}
		return bonus
	case diff < -200:
		return -5
	}
	return 0
}

// ComputeDeltas computes the rating deltas for both sides of a decided
// duel. loserMetrics may be nil if the loser produced no submission;
// when present it softens the loss for a strong performance. The
// result is deterministic for identical inputs. Callers must validate
// ratings and metrics first; this function never errors.
func ComputeDeltas(
	winnerRating,
	loserRating int,
	winnerMetrics PerformanceMetrics,
	loserMetrics *PerformanceMetrics,
	k int,
) UpdateResult {
	if k <= 0 {
		k = DefaultK
	}

	expectedWinner := expectedScore(winnerRating, loserRating)
	expectedLoser := expectedScore(loserRating, winnerRating)

	baseWinner := math.Round(float64(k) * (1 - expectedWinner))
	baseLoser := math.Round(float64(k) * (0 - expectedLoser))

	mult := performanceMultiplier(winnerMetrics)
	speed := speedBonus(winnerMetrics)
	quality := qualityBonus(winnerMetrics)
	difficulty := difficultyBonus(winnerRating, loserRating)

	winnerDelta := int(math.Round(baseWinner*mult)) + speed + quality + difficulty
	if winnerDelta < 1 {
		winnerDelta = 1
	}

	loserDelta := int(baseLoser)
	if loserMetrics != nil {
		loserMult := performanceMultiplier(*loserMetrics)
		loserDelta = int(math.Round(baseLoser * (2 - loserMult)))
	}
	if loserDelta > -1 {
		loserDelta = -1
	}

	return UpdateResult{
		WinnerDelta:     winnerDelta,
		LoserDelta:      loserDelta,
		SpeedBonus:      speed,
		QualityBonus:    quality,
		DifficultyBonus: difficulty,
		Multiplier:      mult,
	}
}

// ApplyDelta applies a signed delta to a rating, flooring the result.
func ApplyDelta(rating, delta int) int {
	updated := rating + delta
	if updated < RatingFloor {
		return RatingFloor
	}
	return updated
}
