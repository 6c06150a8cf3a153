package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"nenegana-backend/internal/logger"
	"nenegana-backend/internal/models"
	"nenegana-backend/internal/quiz"
	"nenegana-backend/internal/services"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func errorResp(code, message string, r *http.Request) models.ErrorResponse {
	return models.ErrorResponse{
		Error: models.APIError{
			Code:      code,
			Message:   message,
			RequestID: r.Header.Get("X-Request-ID"),
		},
	}
}

func errorRespWithFields(code, message string, fields map[string]string, r *http.Request) models.ErrorResponse {
	return models.ErrorResponse{
		Error: models.APIError{
			Code:      code,
			Message:   message,
			Fields:    fields,
			RequestID: r.Header.Get("X-Request-ID"),
		},
	}
}

func handleServiceError(w http.ResponseWriter, r *http.Request, log *logger.Logger, err error) {
	var vErr *services.ValidationError
	switch {
	case errors.As(err, &vErr):
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed", vErr.Fields, r))
	case errors.Is(err, quiz.ErrInvalidInput):
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed",
			map[string]string{"question_count": "Must not be negative"}, r))
	case errors.Is(err, services.ErrSessionNotFound):
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Quiz session not found", r))
	case errors.Is(err, services.ErrPlayerNotFound):
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Player not found", r))
	case errors.Is(err, services.ErrSessionForbidden):
		writeJSON(w, http.StatusForbidden, errorResp("FORBIDDEN", "Access denied", r))
	case errors.Is(err, quiz.ErrNoCurrentQuestion):
		writeJSON(w, http.StatusConflict, errorResp("CONFLICT", "Quiz is already finished", r))
	case errors.Is(err, quiz.ErrAlreadyRecorded), errors.Is(err, services.ErrSessionBusy):
		writeJSON(w, http.StatusConflict, errorResp("CONFLICT", "Answer already being recorded", r))
	case errors.Is(err, services.ErrSpeechUnavailable):
		writeJSON(w, http.StatusServiceUnavailable, errorResp("SPEECH_UNAVAILABLE", "Speech recognition is not available. Use text input instead.", r))
	default:
		log.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "An unexpected error occurred", r))
	}
}

func parseIDParam(r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	return id, err == nil
}

// parseLimit reads ?limit=, falling back to the default and capping at the
// maximum.
func parseLimit(r *http.Request) int {
	n, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || n <= 0 {
		return defaultListLimit
	}
	if n > maxListLimit {
		return maxListLimit
	}
	return n
}

// parseList splits a comma separated query parameter. It returns nil when the
// parameter is absent and an empty slice when it is present but blank.
func parseList(r *http.Request, key string) []string {
	values, ok := r.URL.Query()[key]
	if !ok {
		return nil
	}
	out := make([]string, 0)
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
