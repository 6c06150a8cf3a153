package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"nenegana-backend/internal/models"
)

// SessionStore keeps in-progress quiz sessions in redis. Sessions expire
// after the configured TTL of inactivity.
type SessionStore struct {
	redis *redis.Client
	ttl   time.Duration
}

func NewSessionStore(redisClient *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{redis: redisClient, ttl: ttl}
}

func sessionKey(id uuid.UUID) string {
	return fmt.Sprintf("quiz_session:%s", id.String())
}

func sessionLockKey(id uuid.UUID) string {
	return fmt.Sprintf("quiz_session_lock:%s", id.String())
}

func (s *SessionStore) Save(ctx context.Context, rec *models.QuizSessionRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	return s.redis.Set(ctx, sessionKey(rec.ID), data, s.ttl).Err()
}

func (s *SessionStore) Load(ctx context.Context, id uuid.UUID) (*models.QuizSessionRecord, error) {
	data, err := s.redis.Get(ctx, sessionKey(id)).Bytes()
	if err != nil {
		return nil, notFound(err)
	}
	rec := &models.QuizSessionRecord{}
	if err := json.Unmarshal(data, rec); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return rec, nil
}

func (s *SessionStore) Delete(ctx context.Context, id uuid.UUID) error {
	return s.redis.Del(ctx, sessionKey(id), sessionLockKey(id)).Err()
}

// Lock takes the per-session mutation lock. It reports false when another
// request already holds it.
func (s *SessionStore) Lock(ctx context.Context, id uuid.UUID) (bool, error) {
	return s.redis.SetNX(ctx, sessionLockKey(id), "1", 10*time.Second).Result()
}

func (s *SessionStore) Unlock(ctx context.Context, id uuid.UUID) error {
	return s.redis.Del(ctx, sessionLockKey(id)).Err()
}
