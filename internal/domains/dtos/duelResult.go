package dtos

import (
	"fmt"

	"github.com/MatinDeevv/ByteDuel-sub000/internal/domains/entities"
	"github.com/MatinDeevv/ByteDuel-sub000/pkg/rating"
)

type DuelResultRequest struct {
	WinnerId      string                     `json:"winnerId"`
	LoserOutcome  entities.DuelOutcome       `json:"loserOutcome,omitempty"`
	WinnerMetrics rating.PerformanceMetrics  `json:"winnerMetrics"`
	LoserMetrics  *rating.PerformanceMetrics `json:"loserMetrics,omitempty"`
}

func (r DuelResultRequest) Validate() error {
	if r.WinnerId == "" {
		return fmt.Errorf("%w: missing winner id", rating.ErrInvalidInput)
	}
	if r.LoserOutcome != "" && !r.LoserOutcome.Valid() {
		return fmt.Errorf("%w: unknown outcome %q", rating.ErrInvalidInput, r.LoserOutcome)
	}
	if err := r.WinnerMetrics.Validate(); err != nil {
		return err
	}
	if r.LoserMetrics != nil {
		if err := r.LoserMetrics.Validate(); err != nil {
			return err
		}
	}
	return nil
}

type DuelResultResponse struct {
	DuelId          string  `json:"duelId"`
	WinnerId        string  `json:"winnerId"`
	LoserId         string  `json:"loserId"`
	WinnerDelta     int     `json:"winnerDelta"`
	LoserDelta      int     `json:"loserDelta"`
	WinnerRating    int     `json:"winnerRating"`
	LoserRating     int     `json:"loserRating"`
	SpeedBonus      int     `json:"speedBonus"`
	QualityBonus    int     `json:"qualityBonus"`
	DifficultyBonus int     `json:"difficultyBonus"`
	Multiplier      float64 `json:"multiplier"`
}
