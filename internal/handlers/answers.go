package handlers

import (
	"encoding/json"
	"net/http"

	"nenegana-backend/internal/answer"
	"nenegana-backend/internal/models"
)

// CheckAnswer compares an answer with an expected romaji string without
// touching any session.
func CheckAnswer(w http.ResponseWriter, r *http.Request) {
	var req models.CheckAnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}
	if answer.Normalize(req.Expected) == "" {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed",
			map[string]string{"expected": "Expected answer is required"}, r))
		return
	}

	writeJSON(w, http.StatusOK, models.CheckAnswerResponse{
		NormalizedAnswer:   answer.Normalize(req.Answer),
		NormalizedExpected: answer.Normalize(req.Expected),
		Match:              answer.Match(req.Answer, req.Expected),
	})
}
