package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"nenegana-backend/internal/logger"
	"nenegana-backend/internal/models"
)

const maxRetries = 3

type attemptWriter interface {
	Create(ctx context.Context, a *models.QuizAttempt) (bool, error)
}

type broker interface {
	PublishUpdate(ctx context.Context, playerID uuid.UUID, msg models.WSMessage) error
	Enqueue(ctx context.Context, queue string, job interface{}) error
}

// Pool persists finished quiz attempts queued by the quiz service.
type Pool struct {
	redis       *redis.Client
	attempts    attemptWriter
	broker      broker
	workerCount int
	backoff     func(retry int) time.Duration
	log         *logger.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewPool(redisClient *redis.Client, attempts attemptWriter, b broker, workerCount int, log *logger.Logger) *Pool {
	if workerCount <= 0 {
		workerCount = 1
	}
	return &Pool{
		redis:       redisClient,
		attempts:    attempts,
		broker:      b,
		workerCount: workerCount,
		backoff: func(retry int) time.Duration {
			return time.Duration(1<<uint(retry)) * time.Second
		},
		log: log.With("component", "worker.Pool"),
	}
}

func (p *Pool) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel

	for i := 0; i < p.workerCount; i++ {
		p.wg.Add(1)
		go p.worker(ctx, i)
	}

	p.log.Info("worker pool started", "workers", p.workerCount, "queue", models.QueueAttemptRecording)
}

// Stop cancels blocking pops and waits for in-flight jobs.
func (p *Pool) Stop() {
	if p.cancel != nil {
		p.cancel()
	}
	p.wg.Wait()
}

func (p *Pool) worker(ctx context.Context, id int) {
	defer p.wg.Done()

	for {
		if ctx.Err() != nil {
			p.log.Debug("worker shutting down", "worker", id)
			return
		}

		result, err := p.redis.BLPop(ctx, 5*time.Second, models.QueueAttemptRecording).Result()
		if err != nil {
			if !errors.Is(err, redis.Nil) && ctx.Err() == nil {
				p.log.Warn("queue pop failed", "worker", id, "error", err)
				time.Sleep(time.Second)
			}
			continue
		}
		if len(result) < 2 {
			continue
		}

		var job models.AttemptJob
		if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
			p.log.Error("failed to parse job", "worker", id, "error", err)
			continue
		}

		// Job context outlives shutdown so a popped job is not lost mid-write.
		jobCtx := context.WithoutCancel(ctx)

		lockKey := fmt.Sprintf("job_lock:%s", job.ID.String())
		locked, err := p.redis.SetNX(jobCtx, lockKey, "1", time.Minute).Result()
		if err != nil || !locked {
			continue
		}

		if err := p.process(jobCtx, &job); err != nil {
			p.handleFailure(jobCtx, &job, err)
		}

		p.redis.Del(jobCtx, lockKey)
	}
}

func (p *Pool) process(ctx context.Context, job *models.AttemptJob) error {
	attempt := job.Attempt

	created, err := p.attempts.Create(ctx, &attempt)
	if err != nil {
		return fmt.Errorf("failed to store attempt: %w", err)
	}
	if !created {
		p.log.Info("attempt already recorded", "job_id", job.ID, "session_id", attempt.SessionID)
		return nil
	}

	p.publish(ctx, attempt.PlayerID, models.WSMessage{
		Type: models.EventAttemptSaved,
		Payload: models.AttemptSavedEvent{
			AttemptID:  attempt.ID,
			SessionID:  attempt.SessionID,
			Percentage: attempt.Percentage,
		},
	})

	p.log.Info("attempt recorded", "job_id", job.ID, "attempt_id", attempt.ID, "player_id", attempt.PlayerID)
	return nil
}

func (p *Pool) handleFailure(ctx context.Context, job *models.AttemptJob, err error) {
	job.RetryCount++

	if job.RetryCount < maxRetries {
		p.log.Warn("job failed, retrying", "job_id", job.ID, "attempt", job.RetryCount, "error", err)

		retry := *job
		time.AfterFunc(p.backoff(retry.RetryCount), func() {
			if err := p.broker.Enqueue(context.Background(), models.QueueAttemptRecording, retry); err != nil {
				p.log.Error("failed to requeue job", "job_id", retry.ID, "error", err)
			}
		})
		return
	}

	p.log.Error("job failed permanently", "job_id", job.ID, "error", err)
	p.publish(ctx, job.Attempt.PlayerID, models.WSMessage{
		Type: models.EventAttemptFailed,
		Payload: models.AttemptFailedEvent{
			SessionID:    job.Attempt.SessionID,
			ErrorMessage: "Your result could not be saved.",
		},
	})
}

func (p *Pool) publish(ctx context.Context, playerID uuid.UUID, msg models.WSMessage) {
	if err := p.broker.PublishUpdate(ctx, playerID, msg); err != nil {
		p.log.Warn("failed to publish update", "type", msg.Type, "error", err)
	}
}
