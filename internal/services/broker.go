package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"nenegana-backend/internal/models"
)

// Broker publishes realtime updates and queues background jobs over redis.
type Broker struct {
	redis *redis.Client
}

func NewBroker(redisClient *redis.Client) *Broker {
	return &Broker{redis: redisClient}
}

func UpdatesChannel(playerID uuid.UUID) string {
	return fmt.Sprintf("user_updates:%s", playerID.String())
}

// PublishUpdate sends a WebSocket update via Redis pub/sub
func (b *Broker) PublishUpdate(ctx context.Context, playerID uuid.UUID, msg models.WSMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return b.redis.Publish(ctx, UpdatesChannel(playerID), string(data)).Err()
}

func (b *Broker) Enqueue(ctx context.Context, queue string, job interface{}) error {
	data, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return b.redis.RPush(ctx, queue, string(data)).Err()
}
