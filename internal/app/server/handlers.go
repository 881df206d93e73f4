package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/MatinDeevv/ByteDuel-sub000/internal/aws/storage"
	"github.com/MatinDeevv/ByteDuel-sub000/internal/domains/dtos"
	"github.com/MatinDeevv/ByteDuel-sub000/internal/domains/entities"
	"github.com/MatinDeevv/ByteDuel-sub000/internal/matchmaking"
	"github.com/MatinDeevv/ByteDuel-sub000/internal/metrics"
	"github.com/MatinDeevv/ByteDuel-sub000/pkg/logging"
	"github.com/MatinDeevv/ByteDuel-sub000/pkg/rating"
)

type errorResponse struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}

type socketPayload struct {
	Type string                  `json:"type"`
	Data dtos.MatchFoundResponse `json:"data"`
}

func writeJson(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, errStatus string) {
	writeJson(w, status, errorResponse{Type: "error", Error: errStatus})
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJson(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *server) handleJoinQueue(w http.ResponseWriter, r *http.Request) {
	userId, err := s.auth(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, ErrStatusUnauthorized)
		return
	}

	var req dtos.JoinQueueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrStatusInvalidRequest)
		return
	}

	result, err := s.service.JoinQueue(r.Context(), userId, req.ToOptions())
	switch {
	case err == nil:
	case errors.Is(err, matchmaking.ErrAlreadyQueued):
		writeError(w, http.StatusConflict, ErrStatusAlreadyQueued)
		return
	case errors.Is(err, matchmaking.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, ErrStatusInvalidRequest)
		return
	case errors.Is(err, matchmaking.ErrLockTimeout):
		writeError(w, http.StatusServiceUnavailable, ErrStatusQueueBusy)
		return
	default:
		logging.Error("join queue failed", zap.String("user_id", userId), zap.Error(err))
		writeError(w, http.StatusInternalServerError, ErrStatusInternal)
		return
	}

	status := http.StatusAccepted
	if result.Matched {
		status = http.StatusCreated
	}
	writeJson(w, status, dtos.JoinQueueResponseFromResult(result))
}

func (s *server) handleLeaveQueue(w http.ResponseWriter, r *http.Request) {
	userId, err := s.auth(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, ErrStatusUnauthorized)
		return
	}
	// Leaving is idempotent: an absent entry is still a success.
	if err := s.service.LeaveQueue(userId); err != nil {
		logging.Error("leave queue failed", zap.String("user_id", userId), zap.Error(err))
		writeError(w, http.StatusInternalServerError, ErrStatusInternal)
		return
	}
	writeJson(w, http.StatusOK, map[string]string{"status": "left"})
}

func (s *server) handleQueueStatus(w http.ResponseWriter, r *http.Request) {
	userId, err := s.auth(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, ErrStatusUnauthorized)
		return
	}
	status := s.service.GetStatus(userId)
	writeJson(w, http.StatusOK, dtos.QueueStatusResponseFromStatus(status))
}

func (s *server) handleQueueStats(w http.ResponseWriter, r *http.Request) {
	writeJson(w, http.StatusOK, dtos.QueueStatsResponseFromStats(s.service.Stats()))
}

func (s *server) handleProcessQueue(w http.ResponseWriter, r *http.Request) {
	matchesCreated, processed := s.service.ProcessQueue(r.Context())
	writeJson(w, http.StatusOK, dtos.ProcessQueueResponse{
		MatchesCreated: matchesCreated,
		Processed:      processed,
	})
}

func (s *server) handleForceRemove(w http.ResponseWriter, r *http.Request) {
	userId := chi.URLParam(r, "userId")
	err := s.service.ForceRemove(userId)
	if errors.Is(err, matchmaking.ErrNotQueued) {
		writeError(w, http.StatusNotFound, ErrStatusNotQueued)
		return
	}
	writeJson(w, http.StatusOK, map[string]string{"status": "removed"})
}

// handleQueueSocket pushes the match-found result to a queued player
// instead of making them poll.
func (s *server) handleQueueSocket(w http.ResponseWriter, r *http.Request) {
	userId, err := s.auth(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, ErrStatusUnauthorized)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Error("failed to upgrade connection", zap.Error(err))
		return
	}
	defer conn.Close()

	found := s.service.Watch(userId)
	defer s.service.Unwatch(userId)

	closed := make(chan struct{})
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				close(closed)
				return
			}
		}
	}()

	for {
		select {
		case match := <-found:
			err := conn.WriteJSON(socketPayload{
				Type: "match_found",
				Data: dtos.MatchFoundResponseFromResult(match),
			})
			if err != nil {
				logging.Info("connection closed",
					zap.String("remote_address", conn.RemoteAddr().String()),
					zap.Error(err),
				)
				return
			}
		case <-closed:
			return
		}
	}
}

// handleDuelResult applies a finished duel's rating changes. Replaying
// the same duel id is a no-op for the rating rows, so retries are safe.
func (s *server) handleDuelResult(w http.ResponseWriter, r *http.Request) {
	if _, err := s.auth(r); err != nil {
		writeError(w, http.StatusUnauthorized, ErrStatusUnauthorized)
		return
	}
	duelId := chi.URLParam(r, "duelId")

	var req dtos.DuelResultRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrStatusInvalidRequest)
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, ErrStatusInvalidRequest)
		return
	}

	ctx := r.Context()
	duel, err := s.storageClient.GetActiveDuel(ctx, duelId)
	if err != nil {
		if errors.Is(err, storage.ErrActiveDuelNotFound) {
			writeError(w, http.StatusNotFound, ErrStatusDuelNotFound)
			return
		}
		logging.Error("failed to get duel", zap.String("duel_id", duelId), zap.Error(err))
		writeError(w, http.StatusInternalServerError, ErrStatusInternal)
		return
	}

	var loserId string
	var winnerColor, loserColor entities.Color
	switch req.WinnerId {
	case duel.Player1Id:
		loserId, winnerColor, loserColor = duel.Player2Id, duel.Player1Color, duel.Player2Color
	case duel.Player2Id:
		loserId, winnerColor, loserColor = duel.Player1Id, duel.Player2Color, duel.Player1Color
	default:
		writeError(w, http.StatusBadRequest, ErrStatusInvalidRequest)
		return
	}

	winnerRating, err := s.storageClient.GetRating(ctx, req.WinnerId)
	if err != nil {
		logging.Error("failed to get winner rating", zap.Error(err))
		writeError(w, http.StatusInternalServerError, ErrStatusInternal)
		return
	}
	loserRating, err := s.storageClient.GetRating(ctx, loserId)
	if err != nil {
		logging.Error("failed to get loser rating", zap.Error(err))
		writeError(w, http.StatusInternalServerError, ErrStatusInternal)
		return
	}
	if rating.ValidateRating(winnerRating) != nil || rating.ValidateRating(loserRating) != nil {
		writeError(w, http.StatusBadRequest, ErrStatusInvalidRequest)
		return
	}

	result := rating.ComputeDeltas(winnerRating, loserRating, req.WinnerMetrics, req.LoserMetrics, s.config.KFactor)
	newWinnerRating := rating.ApplyDelta(winnerRating, result.WinnerDelta)
	newLoserRating := rating.ApplyDelta(loserRating, result.LoserDelta)

	now := time.Now()
	updates := []entities.RatingUpdate{
		{
			UserId:    req.WinnerId,
			DuelId:    duelId,
			OldRating: winnerRating,
			NewRating: newWinnerRating,
			Delta:     result.WinnerDelta,
			CreatedAt: now,
		},
		{
			UserId:    loserId,
			DuelId:    duelId,
			OldRating: loserRating,
			NewRating: newLoserRating,
			Delta:     result.LoserDelta,
			CreatedAt: now,
		},
	}
	sides := []string{"winner", "loser"}
	for i, update := range updates {
		err := s.storageClient.ApplyRatingUpdate(ctx, update)
		if err != nil && !errors.Is(err, storage.ErrRatingAlreadyApplied) {
			logging.Error("failed to apply rating update",
				zap.String("user_id", update.UserId),
				zap.String("duel_id", duelId),
				zap.Error(err),
			)
			writeError(w, http.StatusInternalServerError, ErrStatusInternal)
			return
		}
		if err == nil {
			metrics.RatingUpdates.WithLabelValues(sides[i]).Inc()
		}
	}

	loserOutcome := req.LoserOutcome
	if loserOutcome == "" {
		loserOutcome = entities.OutcomeCompleted
	}
	history := []entities.DuelRecord{
		{UserId: req.WinnerId, DuelId: duelId, OpponentId: loserId, AssignedColor: winnerColor, CreatedAt: now},
		{UserId: loserId, DuelId: duelId, OpponentId: req.WinnerId, AssignedColor: loserColor, CreatedAt: now},
	}
	behavior := []entities.BehaviorRecord{
		{UserId: req.WinnerId, DuelId: duelId, Outcome: entities.OutcomeCompleted, CreatedAt: now},
		{UserId: loserId, DuelId: duelId, Outcome: loserOutcome, CreatedAt: now},
	}
	for _, record := range history {
		if err := s.storageClient.RecordDuelHistory(ctx, record); err != nil {
			logging.Error("failed to record duel history", zap.Error(err))
		}
	}
	for _, record := range behavior {
		if err := s.storageClient.RecordBehavior(ctx, record); err != nil {
			logging.Error("failed to record behavior", zap.Error(err))
		}
	}
	if err := s.storageClient.FinishDuel(ctx, duelId); err != nil {
		logging.Error("failed to finish duel", zap.String("duel_id", duelId), zap.Error(err))
	}

	writeJson(w, http.StatusOK, dtos.DuelResultResponse{
		DuelId:          duelId,
		WinnerId:        req.WinnerId,
		LoserId:         loserId,
		WinnerDelta:     result.WinnerDelta,
		LoserDelta:      result.LoserDelta,
		WinnerRating:    newWinnerRating,
		LoserRating:     newLoserRating,
		SpeedBonus:      result.SpeedBonus,
		QualityBonus:    result.QualityBonus,
		DifficultyBonus: result.DifficultyBonus,
		Multiplier:      result.Multiplier,
	})
}
