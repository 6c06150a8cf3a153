package services

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"nenegana-backend/internal/logger"
	"nenegana-backend/internal/models"
	"nenegana-backend/internal/quiz"
	"nenegana-backend/internal/repository"
	"nenegana-backend/internal/speech"
)

type stubSessionStore struct {
	mu       sync.Mutex
	sessions map[uuid.UUID][]byte
	locks    map[uuid.UUID]bool
	saveErr  error
}

func newStubSessionStore() *stubSessionStore {
	return &stubSessionStore{
		sessions: make(map[uuid.UUID][]byte),
		locks:    make(map[uuid.UUID]bool),
	}
}

func (s *stubSessionStore) Save(ctx context.Context, rec *models.QuizSessionRecord) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[rec.ID] = data
	return nil
}

func (s *stubSessionStore) Load(ctx context.Context, id uuid.UUID) (*models.QuizSessionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.sessions[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	rec := &models.QuizSessionRecord{}
	return rec, json.Unmarshal(data, rec)
}

func (s *stubSessionStore) Delete(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	delete(s.locks, id)
	return nil
}

func (s *stubSessionStore) Lock(ctx context.Context, id uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.locks[id] {
		return false, nil
	}
	s.locks[id] = true
	return true, nil
}

func (s *stubSessionStore) Unlock(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.locks, id)
	return nil
}

type stubBroker struct {
	mu        sync.Mutex
	published []models.WSMessage
	queued    []models.AttemptJob
}

func (b *stubBroker) PublishUpdate(ctx context.Context, playerID uuid.UUID, msg models.WSMessage) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.published = append(b.published, msg)
	return nil
}

func (b *stubBroker) Enqueue(ctx context.Context, queue string, job interface{}) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if queue != models.QueueAttemptRecording {
		return errors.New("unexpected queue " + queue)
	}
	b.queued = append(b.queued, job.(models.AttemptJob))
	return nil
}

func (b *stubBroker) types() []string {
	out := make([]string, len(b.published))
	for i, m := range b.published {
		out[i] = m.Type
	}
	return out
}

type zeroRand struct{}

func (zeroRand) Intn(int) int { return 0 }

type stubRecognizer struct {
	text string
	err  error
}

func (r stubRecognizer) Recognize(ctx context.Context, audio speech.Audio) (*speech.Transcript, error) {
	if r.err != nil {
		return nil, r.err
	}
	return &speech.Transcript{Text: r.text, Confidence: 0.9}, nil
}

func newTestQuizService(recognizer speech.Recognizer) (*QuizService, *stubSessionStore, *stubBroker) {
	store := newStubSessionStore()
	b := &stubBroker{}
	listener := speech.NewListener(recognizer, time.Second, nil)
	svc := NewQuizService(store, b, listener, 5, logger.NewNop())
	svc.sessionOpts = []quiz.Option{quiz.WithRand(zeroRand{})}
	svc.now = func() time.Time { return time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC) }
	return svc, store, b
}

func intPtr(n int) *int { return &n }

// With zeroRand the "a" group is dealt as i, u, e, o, a.
func startGroupA(t *testing.T, svc *QuizService, player uuid.UUID, count int) *models.QuizState {
	t.Helper()
	state, err := svc.Start(context.Background(), player, models.StartQuizRequest{
		Types:         []string{"hiragana"},
		Groups:        []string{"a"},
		QuestionCount: intPtr(count),
	})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	return state
}

func TestQuizService_FullRun(t *testing.T) {
	svc, _, b := newTestQuizService(nil)
	player := uuid.New()
	ctx := context.Background()

	state := startGroupA(t, svc, player, 3)
	if state.Status != models.QuizStatusInProgress || state.TotalQuestions != 3 || state.QuestionNumber != 1 {
		t.Fatalf("unexpected initial state %+v", state)
	}
	if state.Current == nil || state.Current.Char != "い" {
		t.Fatalf("expected い first, got %+v", state.Current)
	}

	answers := []struct {
		text    string
		correct bool
	}{
		{" I ", true},
		{"ka", false},
		{"e", true},
	}
	for i, a := range answers {
		state, err := svc.Answer(ctx, player, state.SessionID, models.AnswerRequest{Answer: a.text})
		if err != nil {
			t.Fatalf("answer %d: %v", i, err)
		}
		if state.LastResult == nil || state.LastResult.IsCorrect != a.correct {
			t.Errorf("answer %d: expected correct=%v, got %+v", i, a.correct, state.LastResult)
		}
	}

	res, err := svc.Results(ctx, player, state.SessionID)
	if err != nil {
		t.Fatalf("Results: %v", err)
	}
	if res.Score != (quiz.Score{Correct: 2, Total: 3, Percentage: 67}) {
		t.Errorf("unexpected score %+v", res.Score)
	}
	if len(res.Missed) != 1 || res.Missed[0].Romaji != "u" {
		t.Errorf("expected u missed, got %+v", res.Missed)
	}

	if len(b.queued) != 1 {
		t.Fatalf("expected one attempt job, got %d", len(b.queued))
	}
	job := b.queued[0]
	if job.Attempt.SessionID != state.SessionID || job.Attempt.PlayerID != player || job.Attempt.Percentage != 67 {
		t.Errorf("unexpected attempt %+v", job.Attempt)
	}
	if len(job.Attempt.KanaTypes) != 1 || job.Attempt.KanaTypes[0] != "hiragana" {
		t.Errorf("unexpected kana types %v", job.Attempt.KanaTypes)
	}

	want := []string{
		models.EventQuizProgress, models.EventQuizProgress, models.EventQuizProgress, models.EventQuizCompleted,
	}
	got := b.types()
	if len(got) != len(want) {
		t.Fatalf("published %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("event %d = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestQuizService_AnswerAfterFinish(t *testing.T) {
	svc, _, b := newTestQuizService(nil)
	player := uuid.New()
	ctx := context.Background()

	state := startGroupA(t, svc, player, 1)
	final, err := svc.Answer(ctx, player, state.SessionID, models.AnswerRequest{Answer: "i"})
	if err != nil {
		t.Fatalf("Answer: %v", err)
	}
	if final.Status != models.QuizStatusFinished || final.Current != nil {
		t.Errorf("expected finished state, got %+v", final)
	}

	_, err = svc.Answer(ctx, player, state.SessionID, models.AnswerRequest{Answer: "u"})
	if !errors.Is(err, quiz.ErrNoCurrentQuestion) {
		t.Errorf("expected ErrNoCurrentQuestion, got %v", err)
	}
	if len(b.queued) != 1 {
		t.Errorf("expected attempt queued once, got %d", len(b.queued))
	}
}

func TestQuizService_StartValidation(t *testing.T) {
	svc, _, _ := newTestQuizService(nil)
	player := uuid.New()

	tests := []struct {
		name  string
		req   models.StartQuizRequest
		field string
	}{
		{"bad type", models.StartQuizRequest{Types: []string{"kanji"}}, "types"},
		{"bad group", models.StartQuizRequest{Groups: []string{"xx"}}, "groups"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Start(context.Background(), player, tc.req)
			var vErr *ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if _, ok := vErr.Fields[tc.field]; !ok {
				t.Errorf("expected field %q in %v", tc.field, vErr.Fields)
			}
		})
	}

	_, err := svc.Start(context.Background(), player, models.StartQuizRequest{QuestionCount: intPtr(-1)})
	if !errors.Is(err, quiz.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for negative count, got %v", err)
	}
}

func TestQuizService_StartDefaultsAndEmpty(t *testing.T) {
	svc, _, _ := newTestQuizService(nil)
	player := uuid.New()
	ctx := context.Background()

	state, err := svc.Start(ctx, player, models.StartQuizRequest{})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if state.TotalQuestions != 5 {
		t.Errorf("expected default 5 questions, got %d", state.TotalQuestions)
	}

	empty, err := svc.Start(ctx, player, models.StartQuizRequest{Groups: []string{}})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if empty.Status != models.QuizStatusFinished || empty.TotalQuestions != 0 {
		t.Errorf("expected empty finished session, got %+v", empty)
	}

	zero, err := svc.Start(ctx, player, models.StartQuizRequest{QuestionCount: intPtr(0)})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if zero.Status != models.QuizStatusFinished {
		t.Errorf("expected zero-count session to be finished")
	}
}

func TestQuizService_Ownership(t *testing.T) {
	svc, _, _ := newTestQuizService(nil)
	owner := uuid.New()
	state := startGroupA(t, svc, owner, 2)
	ctx := context.Background()

	other := uuid.New()
	if _, err := svc.State(ctx, other, state.SessionID); !errors.Is(err, ErrSessionForbidden) {
		t.Errorf("expected ErrSessionForbidden, got %v", err)
	}
	if _, err := svc.Answer(ctx, other, state.SessionID, models.AnswerRequest{Answer: "i"}); !errors.Is(err, ErrSessionForbidden) {
		t.Errorf("expected ErrSessionForbidden on answer, got %v", err)
	}
	if err := svc.Abandon(ctx, other, state.SessionID); !errors.Is(err, ErrSessionForbidden) {
		t.Errorf("expected ErrSessionForbidden on abandon, got %v", err)
	}
	if _, err := svc.State(ctx, owner, uuid.New()); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestQuizService_Abandon(t *testing.T) {
	svc, _, _ := newTestQuizService(nil)
	player := uuid.New()
	state := startGroupA(t, svc, player, 2)
	ctx := context.Background()

	if err := svc.Abandon(ctx, player, state.SessionID); err != nil {
		t.Fatalf("Abandon: %v", err)
	}
	if _, err := svc.State(ctx, player, state.SessionID); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("expected session gone, got %v", err)
	}
}

func TestQuizService_Busy(t *testing.T) {
	svc, store, _ := newTestQuizService(nil)
	player := uuid.New()
	state := startGroupA(t, svc, player, 2)

	store.Lock(context.Background(), state.SessionID)

	_, err := svc.Answer(context.Background(), player, state.SessionID, models.AnswerRequest{Answer: "i"})
	if !errors.Is(err, ErrSessionBusy) {
		t.Errorf("expected ErrSessionBusy, got %v", err)
	}
}

func TestQuizService_AnswerValidation(t *testing.T) {
	svc, _, _ := newTestQuizService(nil)
	player := uuid.New()
	state := startGroupA(t, svc, player, 2)
	ctx := context.Background()

	tests := []struct {
		name  string
		req   models.AnswerRequest
		field string
	}{
		{"blank answer", models.AnswerRequest{Answer: "   "}, "answer"},
		{"bad method", models.AnswerRequest{Answer: "i", InputMethod: "gesture"}, "input_method"},
	}
	for _, tc := range tests {
		_, err := svc.Answer(ctx, player, state.SessionID, tc.req)
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("%s: expected ValidationError, got %v", tc.name, err)
		}
		if _, ok := vErr.Fields[tc.field]; !ok {
			t.Errorf("%s: expected field %q", tc.name, tc.field)
		}
	}
}

func TestQuizService_ReportedSpeechError(t *testing.T) {
	svc, _, b := newTestQuizService(nil)
	player := uuid.New()
	state := startGroupA(t, svc, player, 2)

	got, err := svc.Answer(context.Background(), player, state.SessionID, models.AnswerRequest{
		InputMethod: models.InputMethodSpeech,
		SpeechError: "not-allowed",
	})
	if err != nil {
		t.Fatalf("Answer: %v", err)
	}
	if got.Speech == nil || got.Speech.ErrorKind != speech.KindPermissionDenied || got.Speech.Status != speech.StatusError {
		t.Errorf("unexpected speech outcome %+v", got.Speech)
	}
	if got.Score.Total != 0 || got.QuestionNumber != 1 {
		t.Errorf("speech error must not record a result, got %+v", got)
	}
	if len(b.published) != 0 {
		t.Errorf("expected no progress events, got %v", b.types())
	}
}

func TestQuizService_SpokenKanaAnswer(t *testing.T) {
	svc, _, _ := newTestQuizService(nil)
	player := uuid.New()
	state := startGroupA(t, svc, player, 2)

	got, err := svc.Answer(context.Background(), player, state.SessionID, models.AnswerRequest{
		Answer:      "イ",
		InputMethod: models.InputMethodSpeech,
	})
	if err != nil {
		t.Fatalf("Answer: %v", err)
	}
	if got.LastResult == nil || !got.LastResult.IsCorrect {
		t.Errorf("expected spoken kana to match, got %+v", got.LastResult)
	}
}

func TestQuizService_SpeechAnswer(t *testing.T) {
	ctx := context.Background()
	clip := speech.Audio{Content: []byte("riff"), MIMEType: "audio/wav"}

	t.Run("unconfigured", func(t *testing.T) {
		svc, _, _ := newTestQuizService(nil)
		player := uuid.New()
		state := startGroupA(t, svc, player, 2)
		if _, err := svc.SpeechAnswer(ctx, player, state.SessionID, clip); !errors.Is(err, ErrSpeechUnavailable) {
			t.Errorf("expected ErrSpeechUnavailable, got %v", err)
		}
	})

	t.Run("transcribed", func(t *testing.T) {
		svc, _, _ := newTestQuizService(stubRecognizer{text: "い"})
		player := uuid.New()
		state := startGroupA(t, svc, player, 2)

		got, err := svc.SpeechAnswer(ctx, player, state.SessionID, clip)
		if err != nil {
			t.Fatalf("SpeechAnswer: %v", err)
		}
		if got.Speech == nil || !got.Speech.Succeeded() {
			t.Errorf("expected success outcome, got %+v", got.Speech)
		}
		if got.LastResult == nil || !got.LastResult.IsCorrect || got.QuestionNumber != 2 {
			t.Errorf("expected recorded correct answer, got %+v", got)
		}
	})

	t.Run("no speech", func(t *testing.T) {
		svc, _, _ := newTestQuizService(stubRecognizer{text: ""})
		player := uuid.New()
		state := startGroupA(t, svc, player, 2)

		got, err := svc.SpeechAnswer(ctx, player, state.SessionID, clip)
		if err != nil {
			t.Fatalf("SpeechAnswer: %v", err)
		}
		if got.Speech == nil || got.Speech.ErrorKind != speech.KindNoSpeech {
			t.Errorf("expected no-speech outcome, got %+v", got.Speech)
		}
		if got.Score.Total != 0 {
			t.Errorf("failed capture must not record a result")
		}
	})
}
