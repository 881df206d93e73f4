package dtos

import (
	"github.com/MatinDeevv/ByteDuel-sub000/internal/domains/entities"
	"github.com/MatinDeevv/ByteDuel-sub000/internal/matchmaking"
)

type JoinQueueRequest struct {
	Mode           entities.GameMode `json:"mode"`
	TimeControl    string            `json:"timeControl"`
	PreferredColor entities.Color    `json:"preferredColor,omitempty"`
}

func (r JoinQueueRequest) ToOptions() matchmaking.JoinOptions {
	return matchmaking.JoinOptions{
		Mode:           r.Mode,
		TimeControl:    r.TimeControl,
		PreferredColor: r.PreferredColor,
	}
}

type MatchFoundResponse struct {
	DuelId      string                `json:"duelId"`
	OpponentId  string                `json:"opponentId"`
	Color       entities.Color        `json:"color"`
	Quality     entities.MatchQuality `json:"quality"`
	Mode        entities.GameMode     `json:"mode"`
	TimeControl string                `json:"timeControl"`
}

func MatchFoundResponseFromResult(found matchmaking.MatchFound) MatchFoundResponse {
	return MatchFoundResponse{
		DuelId:      found.DuelId,
		OpponentId:  found.OpponentId,
		Color:       found.Color,
		Quality:     found.Quality,
		Mode:        found.Mode,
		TimeControl: found.TimeControl,
	}
}

type JoinQueueResponse struct {
	Status          string              `json:"status"`
	Match           *MatchFoundResponse `json:"match,omitempty"`
	Position        int                 `json:"position,omitempty"`
	EstimatedWaitMs int64               `json:"estimatedWaitMs,omitempty"`
}

func JoinQueueResponseFromResult(result matchmaking.JoinResult) JoinQueueResponse {
	if result.Matched {
		match := MatchFoundResponseFromResult(*result.Match)
		return JoinQueueResponse{
			Status: "matched",
			Match:  &match,
		}
	}
	return JoinQueueResponse{
		Status:          "queued",
		Position:        result.Position,
		EstimatedWaitMs: result.EstimatedWait.Milliseconds(),
	}
}

type QueueStatusResponse struct {
	Queued          bool          `json:"queued"`
	Position        int           `json:"position,omitempty"`
	SearchRadius    int           `json:"searchRadius,omitempty"`
	ExpansionCount  int           `json:"expansionCount,omitempty"`
	Pool            entities.Pool `json:"pool,omitempty"`
	WaitingMs       int64         `json:"waitingMs,omitempty"`
	EstimatedWaitMs int64         `json:"estimatedWaitMs,omitempty"`
}

func QueueStatusResponseFromStatus(status matchmaking.Status) QueueStatusResponse {
	return QueueStatusResponse{
		Queued:          status.Queued,
		Position:        status.Position,
		SearchRadius:    status.SearchRadius,
		ExpansionCount:  status.ExpansionCount,
		Pool:            status.Pool,
		WaitingMs:       status.Waiting.Milliseconds(),
		EstimatedWaitMs: status.EstimatedWait.Milliseconds(),
	}
}

type BucketStatsResponse struct {
	Mode          entities.GameMode `json:"mode"`
	TimeControl   string            `json:"timeControl"`
	Depth         int               `json:"depth"`
	AverageWaitMs int64             `json:"averageWaitMs"`
}

type QueueStatsResponse struct {
	Buckets []BucketStatsResponse `json:"buckets"`
}

func QueueStatsResponseFromStats(stats []matchmaking.BucketStats) QueueStatsResponse {
	buckets := make([]BucketStatsResponse, 0, len(stats))
	for _, s := range stats {
		buckets = append(buckets, BucketStatsResponse{
			Mode:          s.Mode,
			TimeControl:   s.TimeControl,
			Depth:         s.Depth,
			AverageWaitMs: s.AverageWait.Milliseconds(),
		})
	}
	return QueueStatsResponse{Buckets: buckets}
}

type ProcessQueueResponse struct {
	MatchesCreated int `json:"matchesCreated"`
	Processed      int `json:"processed"`
}
