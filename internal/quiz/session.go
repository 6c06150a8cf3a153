// Package quiz sequences a fixed-length, randomly ordered run of kana
// prompts and keeps score.
//
// A Session is owned by a single caller and is not safe for concurrent use.
// The expected loop is:
//
//	for !s.Finished() {
//		k, _ := s.Current()
//		// show k, collect an answer
//		s.RecordResult(answer.Match(input, k.Romaji), input)
//		s.Next()
//	}
package quiz

import (
	"errors"
	"math"
	"math/rand"
	"time"

	"nenegana-backend/internal/kana"
)

const DefaultQuestionCount = 5

var (
	ErrNoCurrentQuestion = errors.New("no current question to record result for")
	ErrAlreadyRecorded   = errors.New("result already recorded for current question")
	ErrInvalidInput      = errors.New("question count must not be negative")
)

// Rand is the subset of *rand.Rand the shuffle needs.
type Rand interface {
	Intn(n int) int
}

// Result is the outcome of one question. UserAnswer is empty when the
// caller did not supply the raw answer.
type Result struct {
	Kana       kana.Kana `json:"kana"`
	IsCorrect  bool      `json:"is_correct"`
	UserAnswer string    `json:"user_answer,omitempty"`
	Position   int       `json:"position"`
}

type Score struct {
	Correct    int `json:"correct"`
	Total      int `json:"total"`
	Percentage int `json:"percentage"`
}

type Session struct {
	questions    []kana.Kana
	currentIndex int
	results      []Result
}

type options struct {
	rng Rand
}

type Option func(*options)

// WithRand replaces the time-seeded source used to order questions.
func WithRand(r Rand) Option {
	return func(o *options) { o.rng = r }
}

// NewSession draws min(count, len(pool)) prompts from pool without
// replacement, in uniformly random order. A zero count or empty pool yields
// a session that is already finished.
func NewSession(pool []kana.Kana, count int, opts ...Option) (*Session, error) {
	if count < 0 {
		return nil, ErrInvalidInput
	}

	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.rng == nil {
		o.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	shuffled := shuffle(pool, o.rng)
	if count > len(shuffled) {
		count = len(shuffled)
	}

	return &Session{
		questions: shuffled[:count],
		results:   make([]Result, 0, count),
	}, nil
}

// shuffle returns a Fisher-Yates permutation of a copy of pool.
func shuffle(pool []kana.Kana, r Rand) []kana.Kana {
	shuffled := make([]kana.Kana, len(pool))
	copy(shuffled, pool)

	for i := len(shuffled) - 1; i > 0; i-- {
		j := r.Intn(i + 1)
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	}
	return shuffled
}

// Current returns the prompt at the cursor, or false once the session is
// finished.
func (s *Session) Current() (kana.Kana, bool) {
	if s.currentIndex >= len(s.questions) {
		return kana.Kana{}, false
	}
	return s.questions[s.currentIndex], true
}

// RecordResult stores the outcome for the current prompt without advancing.
func (s *Session) RecordResult(isCorrect bool, userAnswer string) error {
	current, ok := s.Current()
	if !ok {
		return ErrNoCurrentQuestion
	}
	if n := len(s.results); n > 0 && s.results[n-1].Position == s.currentIndex {
		return ErrAlreadyRecorded
	}

	s.results = append(s.results, Result{
		Kana:       current,
		IsCorrect:  isCorrect,
		UserAnswer: userAnswer,
		Position:   s.currentIndex,
	})
	return nil
}

// Next advances the cursor and reports whether a prompt remains. The cursor
// stops at the end of the question list.
func (s *Session) Next() bool {
	if s.currentIndex < len(s.questions) {
		s.currentIndex++
	}
	return !s.Finished()
}

func (s *Session) Finished() bool {
	return s.currentIndex >= len(s.questions)
}

func (s *Session) Results() []Result {
	out := make([]Result, len(s.results))
	copy(out, s.results)
	return out
}

func (s *Session) Score() Score {
	correct := 0
	for _, r := range s.results {
		if r.IsCorrect {
			correct++
		}
	}
	total := len(s.results)

	percentage := 0
	if total > 0 {
		percentage = int(math.Round(float64(correct) / float64(total) * 100))
	}

	return Score{Correct: correct, Total: total, Percentage: percentage}
}

// QuestionNumber is the 1-based number of the current prompt. It is one past
// TotalQuestions once the session is finished.
func (s *Session) QuestionNumber() int {
	return s.currentIndex + 1
}

func (s *Session) TotalQuestions() int {
	return len(s.questions)
}

// Missed returns the prompts answered incorrectly, in answer order.
func (s *Session) Missed() []kana.Kana {
	missed := make([]kana.Kana, 0)
	for _, r := range s.results {
		if !r.IsCorrect {
			missed = append(missed, r.Kana)
		}
	}
	return missed
}
