package events

import (
	"context"

	"github.com/redis/go-redis/v9"

	"storefront/api/internal/models"
)

type RedisPublisher struct {
	client *redis.Client
	stream string
}

func NewRedisPublisher(client *redis.Client, stream string) *RedisPublisher {
	return &RedisPublisher{client: client, stream: stream}
}

func (p *RedisPublisher) Publish(ctx context.Context, event models.AuditEvent) error {
	return p.add(ctx, FromAudit(event))
}

// EnqueuePrune asks the worker to drop audit rows past retention.
func (p *RedisPublisher) EnqueuePrune(ctx context.Context) error {
	return p.add(ctx, Message{Type: TypePrune})
}

func (p *RedisPublisher) add(ctx context.Context, msg Message) error {
	if p == nil || p.client == nil {
		return nil
	}
	_, err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		Values: msg.Values(),
	}).Result()
	return err
}
