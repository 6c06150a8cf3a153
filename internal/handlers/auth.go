package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/google/uuid"

	"nenegana-backend/internal/logger"
	"nenegana-backend/internal/middleware"
	"nenegana-backend/internal/models"
)

type authService interface {
	Guest(ctx context.Context, req models.GuestRequest) (*models.AuthResponse, error)
	Me(ctx context.Context, playerID uuid.UUID) (*models.Player, error)
}

type AuthHandler struct {
	authService authService
	log         *logger.Logger
}

func NewAuthHandler(authService authService, log *logger.Logger) *AuthHandler {
	return &AuthHandler{authService: authService, log: log}
}

func (h *AuthHandler) Guest(w http.ResponseWriter, r *http.Request) {
	var req models.GuestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	resp, err := h.authService.Guest(r.Context(), req)
	if err != nil {
		handleServiceError(w, r, h.log, err)
		return
	}

	writeJSON(w, http.StatusCreated, resp)
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	player, err := h.authService.Me(r.Context(), middleware.GetPlayerID(r.Context()))
	if err != nil {
		handleServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, player)
}
