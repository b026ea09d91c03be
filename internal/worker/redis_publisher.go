// internal/worker/redis_publisher.go
package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"vehicle-booking-service/internal/domain/booking"

	"github.com/redis/go-redis/v9"
)

// RedisPublisher publishes booking events on a Redis pub/sub channel
type RedisPublisher struct {
	client  redis.UniversalClient
	channel string
}

func NewRedisPublisher(client redis.UniversalClient, channel string) *RedisPublisher {
	return &RedisPublisher{client: client, channel: channel}
}

func (p *RedisPublisher) Publish(ctx context.Context, event *booking.OutboxEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	if err := p.client.Publish(ctx, p.channel, data).Err(); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", p.channel, err)
	}
	return nil
}
