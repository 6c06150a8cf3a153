package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"nenegana-backend/internal/logger"
	"nenegana-backend/internal/models"
)

type stubAttempts struct {
	created bool
	err     error
	calls   int
}

func (s *stubAttempts) Create(ctx context.Context, a *models.QuizAttempt) (bool, error) {
	s.calls++
	if s.err != nil {
		return false, s.err
	}
	a.ID = uuid.New()
	return s.created, nil
}

type stubBroker struct {
	mu        sync.Mutex
	published []models.WSMessage
	requeued  chan models.AttemptJob
}

func (b *stubBroker) PublishUpdate(ctx context.Context, playerID uuid.UUID, msg models.WSMessage) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.published = append(b.published, msg)
	return nil
}

func (b *stubBroker) Enqueue(ctx context.Context, queue string, job interface{}) error {
	b.requeued <- job.(models.AttemptJob)
	return nil
}

func newTestPool(attempts *stubAttempts) (*Pool, *stubBroker) {
	b := &stubBroker{requeued: make(chan models.AttemptJob, 1)}
	p := NewPool(nil, attempts, b, 1, logger.NewNop())
	p.backoff = func(int) time.Duration { return 0 }
	return p, b
}

func testJob() *models.AttemptJob {
	return &models.AttemptJob{
		ID: uuid.New(),
		Attempt: models.QuizAttempt{
			PlayerID:   uuid.New(),
			SessionID:  uuid.New(),
			Percentage: 80,
		},
	}
}

func TestProcess_PublishesSaved(t *testing.T) {
	p, b := newTestPool(&stubAttempts{created: true})
	job := testJob()

	if err := p.process(context.Background(), job); err != nil {
		t.Fatalf("process: %v", err)
	}
	if len(b.published) != 1 || b.published[0].Type != models.EventAttemptSaved {
		t.Fatalf("expected attempt_saved, got %+v", b.published)
	}
	ev := b.published[0].Payload.(models.AttemptSavedEvent)
	if ev.SessionID != job.Attempt.SessionID || ev.Percentage != 80 || ev.AttemptID == uuid.Nil {
		t.Errorf("unexpected event %+v", ev)
	}
}

func TestProcess_DuplicateIsSilent(t *testing.T) {
	p, b := newTestPool(&stubAttempts{created: false})

	if err := p.process(context.Background(), testJob()); err != nil {
		t.Fatalf("process: %v", err)
	}
	if len(b.published) != 0 {
		t.Errorf("expected no events for duplicate, got %+v", b.published)
	}
}

func TestHandleFailure_Requeues(t *testing.T) {
	attempts := &stubAttempts{err: errors.New("db down")}
	p, b := newTestPool(attempts)
	job := testJob()

	err := p.process(context.Background(), job)
	if err == nil {
		t.Fatal("expected error")
	}
	p.handleFailure(context.Background(), job, err)

	select {
	case got := <-b.requeued:
		if got.ID != job.ID || got.RetryCount != 1 {
			t.Errorf("unexpected requeued job %+v", got)
		}
	case <-time.After(time.Second):
		t.Fatal("job was not requeued")
	}
	if len(b.published) != 0 {
		t.Errorf("no failure event expected before the last retry")
	}
}

func TestHandleFailure_GivesUp(t *testing.T) {
	p, b := newTestPool(&stubAttempts{})
	job := testJob()
	job.RetryCount = maxRetries - 1

	p.handleFailure(context.Background(), job, errors.New("db down"))

	if len(b.published) != 1 || b.published[0].Type != models.EventAttemptFailed {
		t.Fatalf("expected attempt_failed, got %+v", b.published)
	}
	select {
	case <-b.requeued:
		t.Error("job should not be requeued after max retries")
	case <-time.After(50 * time.Millisecond):
	}
}
