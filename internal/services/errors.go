package services

import "errors"

var (
	ErrSessionNotFound   = errors.New("quiz session not found")
	ErrSessionForbidden  = errors.New("quiz session belongs to another player")
	ErrSessionBusy       = errors.New("quiz session is being updated")
	ErrSpeechUnavailable = errors.New("speech recognition is not configured")
	ErrPlayerNotFound    = errors.New("player not found")
)

type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string { return "Validation error" }
