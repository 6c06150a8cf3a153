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
	"nenegana-backend/internal/speech"
)

const maxAudioBytes = 2 << 20

type quizService interface {
	Start(ctx context.Context, playerID uuid.UUID, req models.StartQuizRequest) (*models.QuizState, error)
	State(ctx context.Context, playerID, sessionID uuid.UUID) (*models.QuizState, error)
	Answer(ctx context.Context, playerID, sessionID uuid.UUID, req models.AnswerRequest) (*models.QuizState, error)
	SpeechAnswer(ctx context.Context, playerID, sessionID uuid.UUID, audio speech.Audio) (*models.QuizState, error)
	Results(ctx context.Context, playerID, sessionID uuid.UUID) (*models.QuizResults, error)
	Abandon(ctx context.Context, playerID, sessionID uuid.UUID) error
}

type QuizHandler struct {
	quizService quizService
	log         *logger.Logger
}

func NewQuizHandler(quizService quizService, log *logger.Logger) *QuizHandler {
	return &QuizHandler{quizService: quizService, log: log}
}

func (h *QuizHandler) Start(w http.ResponseWriter, r *http.Request) {
	var req models.StartQuizRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	state, err := h.quizService.Start(r.Context(), middleware.GetPlayerID(r.Context()), req)
	if err != nil {
		handleServiceError(w, r, h.log, err)
		return
	}

	writeJSON(w, http.StatusCreated, state)
}

func (h *QuizHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid quiz session ID", r))
		return
	}

	state, err := h.quizService.State(r.Context(), middleware.GetPlayerID(r.Context()), id)
	if err != nil {
		handleServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (h *QuizHandler) Answer(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid quiz session ID", r))
		return
	}

	var req models.AnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	state, err := h.quizService.Answer(r.Context(), middleware.GetPlayerID(r.Context()), id, req)
	if err != nil {
		handleServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

// Speech takes the raw recorded clip as the request body. Content-Type is
// the clip's MIME type.
func (h *QuizHandler) Speech(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid quiz session ID", r))
		return
	}

	content, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxAudioBytes))
	if err != nil {
		writeJSON(w, http.StatusRequestEntityTooLarge, errorResp("VALIDATION_ERROR", "Audio clip is too large", r))
		return
	}

	audio := speech.Audio{Content: content, MIMEType: r.Header.Get("Content-Type")}
	state, err := h.quizService.SpeechAnswer(r.Context(), middleware.GetPlayerID(r.Context()), id, audio)
	if err != nil {
		handleServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (h *QuizHandler) Results(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid quiz session ID", r))
		return
	}

	results, err := h.quizService.Results(r.Context(), middleware.GetPlayerID(r.Context()), id)
	if err != nil {
		handleServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}

func (h *QuizHandler) Abandon(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid quiz session ID", r))
		return
	}

	if err := h.quizService.Abandon(r.Context(), middleware.GetPlayerID(r.Context()), id); err != nil {
		handleServiceError(w, r, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
