package models

import (
	"time"

	"github.com/google/uuid"
)

const QueueAttemptRecording = "queue:attempt-recording"

// AttemptJob asks a worker to persist one finished quiz.
type AttemptJob struct {
	ID         uuid.UUID   `json:"id"`
	Attempt    QuizAttempt `json:"attempt"`
	RetryCount int         `json:"retry_count"`
	CreatedAt  time.Time   `json:"created_at"`
}

// WebSocket message types
const (
	EventQuizProgress  = "quiz_progress"
	EventQuizCompleted = "quiz_completed"
	EventAttemptSaved  = "attempt_saved"
	EventAttemptFailed = "attempt_failed"
)

type WSMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

type QuizProgressEvent struct {
	SessionID      uuid.UUID `json:"session_id"`
	QuestionNumber int       `json:"question_number"`
	TotalQuestions int       `json:"total_questions"`
	LastCorrect    bool      `json:"last_correct"`
	Correct        int       `json:"correct"`
}

type QuizCompletedEvent struct {
	SessionID  uuid.UUID `json:"session_id"`
	Correct    int       `json:"correct"`
	Total      int       `json:"total"`
	Percentage int       `json:"percentage"`
}

type AttemptSavedEvent struct {
	AttemptID  uuid.UUID `json:"attempt_id"`
	SessionID  uuid.UUID `json:"session_id"`
	Percentage int       `json:"percentage"`
}

type AttemptFailedEvent struct {
	SessionID    uuid.UUID `json:"session_id"`
	ErrorMessage string    `json:"error_message"`
}

// API Error response
type APIError struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Fields    map[string]string `json:"fields,omitempty"`
	RequestID string            `json:"request_id"`
}

type ErrorResponse struct {
	Error APIError `json:"error"`
}
