package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"nenegana-backend/internal/kana"
	"nenegana-backend/internal/quiz"
	"nenegana-backend/internal/speech"
)

const (
	InputMethodText   = "text"
	InputMethodSpeech = "speech"
)

const (
	QuizStatusInProgress = "in_progress"
	QuizStatusFinished   = "finished"
)

// QuizSessionRecord is what the session store keeps between requests.
type QuizSessionRecord struct {
	ID        uuid.UUID      `json:"id"`
	PlayerID  uuid.UUID      `json:"player_id"`
	Selection kana.Selection `json:"selection"`
	Snapshot  quiz.Snapshot  `json:"snapshot"`
	StartedAt time.Time      `json:"started_at"`
	Recorded  bool           `json:"recorded"`
}

type QuizAttempt struct {
	ID           uuid.UUID       `json:"id"`
	PlayerID     uuid.UUID       `json:"player_id"`
	SessionID    uuid.UUID       `json:"session_id"`
	KanaTypes    []string        `json:"kana_types"`
	KanaGroups   []string        `json:"kana_groups"`
	CorrectCount int             `json:"correct_count"`
	TotalCount   int             `json:"total_count"`
	Percentage   int             `json:"percentage"`
	ResultsJSON  json.RawMessage `json:"results"`
	MissedJSON   json.RawMessage `json:"missed"`
	StartedAt    time.Time       `json:"started_at"`
	CompletedAt  time.Time       `json:"completed_at"`
}

type LeaderboardEntry struct {
	Rank         int       `json:"rank"`
	PlayerID     uuid.UUID `json:"player_id"`
	DisplayName  string    `json:"display_name"`
	CorrectCount int       `json:"correct_count"`
	TotalCount   int       `json:"total_count"`
	Percentage   int       `json:"percentage"`
	CompletedAt  time.Time `json:"completed_at"`
}

type StartQuizRequest struct {
	Types         []string `json:"types"`
	Groups        []string `json:"groups"`
	QuestionCount *int     `json:"question_count"`
}

type AnswerRequest struct {
	Answer      string `json:"answer"`
	InputMethod string `json:"input_method"`
	SpeechError string `json:"speech_error,omitempty"`
}

type CheckAnswerRequest struct {
	Answer   string `json:"answer"`
	Expected string `json:"expected"`
}

type CheckAnswerResponse struct {
	NormalizedAnswer   string `json:"normalized_answer"`
	NormalizedExpected string `json:"normalized_expected"`
	Match              bool   `json:"match"`
}

// Prompt is the current question as shown to the player. Romaji is withheld.
type Prompt struct {
	Char  string    `json:"char"`
	Type  kana.Type `json:"type"`
	Group string    `json:"group"`
}

type QuizState struct {
	SessionID      uuid.UUID       `json:"session_id"`
	Status         string          `json:"status"`
	QuestionNumber int             `json:"question_number"`
	TotalQuestions int             `json:"total_questions"`
	Current        *Prompt         `json:"current,omitempty"`
	LastResult     *quiz.Result    `json:"last_result,omitempty"`
	Speech         *speech.Outcome `json:"speech,omitempty"`
	Score          quiz.Score      `json:"score"`
}

type QuizResults struct {
	SessionID uuid.UUID     `json:"session_id"`
	Score     quiz.Score    `json:"score"`
	Results   []quiz.Result `json:"results"`
	Missed    []kana.Kana   `json:"missed"`
}

type PracticeCard struct {
	Char   string    `json:"char"`
	Romaji string    `json:"romaji,omitempty"`
	Type   kana.Type `json:"type"`
	Group  string    `json:"group"`
}
