package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"nenegana-backend/internal/logger"
	"nenegana-backend/internal/middleware"
	"nenegana-backend/internal/models"
	"nenegana-backend/internal/repository"
)

type attemptRepository interface {
	ListByPlayer(ctx context.Context, playerID uuid.UUID, limit int) ([]*models.QuizAttempt, error)
	Leaderboard(ctx context.Context, limit int) ([]*models.LeaderboardEntry, error)
	PlayerPosition(ctx context.Context, playerID uuid.UUID) (*models.LeaderboardEntry, error)
}

type AttemptHandler struct {
	attemptRepo attemptRepository
	log         *logger.Logger
}

func NewAttemptHandler(attemptRepo attemptRepository, log *logger.Logger) *AttemptHandler {
	return &AttemptHandler{attemptRepo: attemptRepo, log: log}
}

func (h *AttemptHandler) List(w http.ResponseWriter, r *http.Request) {
	attempts, err := h.attemptRepo.ListByPlayer(r.Context(), middleware.GetPlayerID(r.Context()), parseLimit(r))
	if err != nil {
		handleServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"attempts": attempts})
}

// Leaderboard lists each player's best attempt. The caller's own row is
// included as "me" when they have one.
func (h *AttemptHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	entries, err := h.attemptRepo.Leaderboard(r.Context(), parseLimit(r))
	if err != nil {
		handleServiceError(w, r, h.log, err)
		return
	}

	resp := map[string]interface{}{"entries": entries}

	me, err := h.attemptRepo.PlayerPosition(r.Context(), middleware.GetPlayerID(r.Context()))
	switch {
	case err == nil:
		resp["me"] = me
	case !errors.Is(err, repository.ErrNotFound):
		h.log.Warn("failed to load leaderboard position", "error", err)
	}

	writeJSON(w, http.StatusOK, resp)
}
