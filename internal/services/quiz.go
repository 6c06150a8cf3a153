package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"nenegana-backend/internal/answer"
	"nenegana-backend/internal/kana"
	"nenegana-backend/internal/logger"
	"nenegana-backend/internal/models"
	"nenegana-backend/internal/quiz"
	"nenegana-backend/internal/repository"
	"nenegana-backend/internal/speech"
)

type sessionStore interface {
	Save(ctx context.Context, rec *models.QuizSessionRecord) error
	Load(ctx context.Context, id uuid.UUID) (*models.QuizSessionRecord, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Lock(ctx context.Context, id uuid.UUID) (bool, error)
	Unlock(ctx context.Context, id uuid.UUID) error
}

type broker interface {
	PublishUpdate(ctx context.Context, playerID uuid.UUID, msg models.WSMessage) error
	Enqueue(ctx context.Context, queue string, job interface{}) error
}

// QuizService runs quiz sessions for players. Sessions live in the session
// store between requests and are restored for every call.
type QuizService struct {
	store            sessionStore
	broker           broker
	listener         *speech.Listener
	defaultQuestions int
	sessionOpts      []quiz.Option
	now              func() time.Time
	log              *logger.Logger
}

func NewQuizService(store sessionStore, b broker, listener *speech.Listener, defaultQuestions int, log *logger.Logger) *QuizService {
	if defaultQuestions <= 0 {
		defaultQuestions = quiz.DefaultQuestionCount
	}
	if log == nil {
		log = logger.NewNop()
	}
	if listener == nil {
		listener = speech.NewListener(nil, 0, log)
	}
	return &QuizService{
		store:            store,
		broker:           b,
		listener:         listener,
		defaultQuestions: defaultQuestions,
		now:              time.Now,
		log:              log.With("service", "QuizService"),
	}
}

// selectionFromRequest fills omitted fields from the default selection. An
// explicitly empty list stays empty.
func selectionFromRequest(req models.StartQuizRequest) (kana.Selection, error) {
	sel := kana.DefaultSelection()
	fields := make(map[string]string)

	if req.Types != nil {
		sel.Types = make([]kana.Type, 0, len(req.Types))
		for _, t := range req.Types {
			parsed, err := kana.ParseType(t)
			if err != nil {
				fields["types"] = err.Error()
				break
			}
			sel.Types = append(sel.Types, parsed)
		}
	}
	if req.Groups != nil {
		sel.Groups = append([]string{}, req.Groups...)
	}

	if _, bad := fields["types"]; !bad {
		if err := (kana.Selection{Groups: sel.Groups}).Validate(); err != nil {
			fields["groups"] = err.Error()
		}
	}
	if len(fields) > 0 {
		return kana.Selection{}, &ValidationError{Fields: fields}
	}
	return sel, nil
}

func (s *QuizService) Start(ctx context.Context, playerID uuid.UUID, req models.StartQuizRequest) (*models.QuizState, error) {
	sel, err := selectionFromRequest(req)
	if err != nil {
		return nil, err
	}

	count := s.defaultQuestions
	if req.QuestionCount != nil {
		count = *req.QuestionCount
	}

	sess, err := quiz.NewSession(kana.Filter(sel), count, s.sessionOpts...)
	if err != nil {
		return nil, err
	}

	rec := &models.QuizSessionRecord{
		ID:        uuid.New(),
		PlayerID:  playerID,
		Selection: sel,
		Snapshot:  sess.Snapshot(),
		StartedAt: s.now().UTC(),
	}
	if err := s.store.Save(ctx, rec); err != nil {
		return nil, fmt.Errorf("failed to store session: %w", err)
	}

	s.log.Info("quiz started", "session_id", rec.ID, "player_id", playerID, "questions", sess.TotalQuestions())
	return buildState(rec, sess, nil, nil), nil
}

func (s *QuizService) State(ctx context.Context, playerID, sessionID uuid.UUID) (*models.QuizState, error) {
	rec, sess, err := s.load(ctx, playerID, sessionID)
	if err != nil {
		return nil, err
	}
	return buildState(rec, sess, nil, nil), nil
}

// Answer grades a typed or browser-transcribed answer against the current
// prompt. A reported speech error records nothing and returns the outcome.
func (s *QuizService) Answer(ctx context.Context, playerID, sessionID uuid.UUID, req models.AnswerRequest) (*models.QuizState, error) {
	method := strings.ToLower(strings.TrimSpace(req.InputMethod))
	if method == "" {
		method = models.InputMethodText
	}
	if method != models.InputMethodText && method != models.InputMethodSpeech {
		return nil, &ValidationError{Fields: map[string]string{"input_method": "Must be text or speech"}}
	}

	if req.SpeechError != "" {
		rec, sess, err := s.load(ctx, playerID, sessionID)
		if err != nil {
			return nil, err
		}
		outcome := s.listener.Reported(speech.ParseErrorCode(req.SpeechError))
		return buildState(rec, sess, nil, &outcome), nil
	}

	if answer.Normalize(req.Answer) == "" {
		return nil, &ValidationError{Fields: map[string]string{"answer": "Answer is required"}}
	}

	return s.submit(ctx, playerID, sessionID, req.Answer, method, nil)
}

// SpeechAnswer transcribes audio and, when a transcript comes back, grades it
// like a spoken answer.
func (s *QuizService) SpeechAnswer(ctx context.Context, playerID, sessionID uuid.UUID, audio speech.Audio) (*models.QuizState, error) {
	if !s.listener.Supported() {
		return nil, ErrSpeechUnavailable
	}

	rec, sess, err := s.load(ctx, playerID, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.Finished() {
		return nil, quiz.ErrNoCurrentQuestion
	}

	outcome := s.listener.Listen(ctx, audio)
	if !outcome.Succeeded() {
		return buildState(rec, sess, nil, &outcome), nil
	}

	return s.submit(ctx, playerID, sessionID, outcome.Transcript, models.InputMethodSpeech, &outcome)
}

func (s *QuizService) submit(ctx context.Context, playerID, sessionID uuid.UUID, input, method string, outcome *speech.Outcome) (*models.QuizState, error) {
	locked, err := s.store.Lock(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock session: %w", err)
	}
	if !locked {
		return nil, ErrSessionBusy
	}
	defer s.store.Unlock(context.WithoutCancel(ctx), sessionID)

	rec, sess, err := s.load(ctx, playerID, sessionID)
	if err != nil {
		return nil, err
	}

	current, ok := sess.Current()
	if !ok {
		return nil, quiz.ErrNoCurrentQuestion
	}

	if err := sess.RecordResult(isCorrect(input, method, current), strings.TrimSpace(input)); err != nil {
		return nil, err
	}
	results := sess.Results()
	last := results[len(results)-1]
	sess.Next()

	rec.Snapshot = sess.Snapshot()
	if err := s.store.Save(ctx, rec); err != nil {
		return nil, fmt.Errorf("failed to store session: %w", err)
	}

	score := sess.Score()
	s.publish(ctx, playerID, models.WSMessage{
		Type: models.EventQuizProgress,
		Payload: models.QuizProgressEvent{
			SessionID:      rec.ID,
			QuestionNumber: sess.QuestionNumber(),
			TotalQuestions: sess.TotalQuestions(),
			LastCorrect:    last.IsCorrect,
			Correct:        score.Correct,
		},
	})

	if sess.Finished() {
		s.finish(ctx, rec, sess)
	}

	return buildState(rec, sess, &last, outcome), nil
}

// isCorrect grades input against the prompt. Spoken answers may come back as
// kana, which are romanized before matching.
func isCorrect(input, method string, prompt kana.Kana) bool {
	if method == models.InputMethodSpeech {
		if r, ok := kana.Romanize(input); ok {
			input = r
		}
	}
	return answer.Match(input, prompt.Romaji)
}

// finish queues the attempt for persistence and announces completion. A
// session is queued at most once.
func (s *QuizService) finish(ctx context.Context, rec *models.QuizSessionRecord, sess *quiz.Session) {
	score := sess.Score()

	s.publish(ctx, rec.PlayerID, models.WSMessage{
		Type: models.EventQuizCompleted,
		Payload: models.QuizCompletedEvent{
			SessionID:  rec.ID,
			Correct:    score.Correct,
			Total:      score.Total,
			Percentage: score.Percentage,
		},
	})

	if rec.Recorded || score.Total == 0 {
		return
	}

	attempt, err := buildAttempt(rec, sess, s.now().UTC())
	if err != nil {
		s.log.Error("failed to build attempt", "session_id", rec.ID, "error", err)
		return
	}

	job := models.AttemptJob{ID: uuid.New(), Attempt: *attempt, CreatedAt: attempt.CompletedAt}
	if err := s.broker.Enqueue(ctx, models.QueueAttemptRecording, job); err != nil {
		s.log.Error("failed to queue attempt", "session_id", rec.ID, "error", err)
		return
	}

	rec.Recorded = true
	if err := s.store.Save(ctx, rec); err != nil {
		s.log.Warn("failed to mark session recorded", "session_id", rec.ID, "error", err)
	}
}

func buildAttempt(rec *models.QuizSessionRecord, sess *quiz.Session, completedAt time.Time) (*models.QuizAttempt, error) {
	results, err := json.Marshal(sess.Results())
	if err != nil {
		return nil, err
	}
	missed, err := json.Marshal(sess.Missed())
	if err != nil {
		return nil, err
	}

	types := make([]string, len(rec.Selection.Types))
	for i, t := range rec.Selection.Types {
		types[i] = string(t)
	}

	score := sess.Score()
	return &models.QuizAttempt{
		PlayerID:     rec.PlayerID,
		SessionID:    rec.ID,
		KanaTypes:    types,
		KanaGroups:   append([]string{}, rec.Selection.Groups...),
		CorrectCount: score.Correct,
		TotalCount:   score.Total,
		Percentage:   score.Percentage,
		ResultsJSON:  results,
		MissedJSON:   missed,
		StartedAt:    rec.StartedAt,
		CompletedAt:  completedAt,
	}, nil
}

func (s *QuizService) Results(ctx context.Context, playerID, sessionID uuid.UUID) (*models.QuizResults, error) {
	rec, sess, err := s.load(ctx, playerID, sessionID)
	if err != nil {
		return nil, err
	}
	return &models.QuizResults{
		SessionID: rec.ID,
		Score:     sess.Score(),
		Results:   sess.Results(),
		Missed:    sess.Missed(),
	}, nil
}

func (s *QuizService) Abandon(ctx context.Context, playerID, sessionID uuid.UUID) error {
	if _, _, err := s.load(ctx, playerID, sessionID); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	s.log.Info("quiz abandoned", "session_id", sessionID, "player_id", playerID)
	return nil
}

func (s *QuizService) load(ctx context.Context, playerID, sessionID uuid.UUID) (*models.QuizSessionRecord, *quiz.Session, error) {
	rec, err := s.store.Load(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, ErrSessionNotFound
		}
		return nil, nil, fmt.Errorf("failed to load session: %w", err)
	}
	if rec.PlayerID != playerID {
		return nil, nil, ErrSessionForbidden
	}

	sess, err := quiz.Restore(rec.Snapshot)
	if err != nil {
		return nil, nil, fmt.Errorf("session %s: %w", sessionID, err)
	}
	return rec, sess, nil
}

func (s *QuizService) publish(ctx context.Context, playerID uuid.UUID, msg models.WSMessage) {
	if err := s.broker.PublishUpdate(ctx, playerID, msg); err != nil {
		s.log.Warn("failed to publish update", "type", msg.Type, "player_id", playerID, "error", err)
	}
}

func buildState(rec *models.QuizSessionRecord, sess *quiz.Session, last *quiz.Result, outcome *speech.Outcome) *models.QuizState {
	state := &models.QuizState{
		SessionID:      rec.ID,
		Status:         models.QuizStatusInProgress,
		QuestionNumber: sess.QuestionNumber(),
		TotalQuestions: sess.TotalQuestions(),
		LastResult:     last,
		Speech:         outcome,
		Score:          sess.Score(),
	}

	if current, ok := sess.Current(); ok {
		state.Current = &models.Prompt{Char: current.Char, Type: current.Type, Group: current.Group}
	} else {
		state.Status = models.QuizStatusFinished
		state.QuestionNumber = sess.TotalQuestions()
	}
	return state
}
