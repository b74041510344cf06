// Package throttle counts failed logins in Redis.
package throttle

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type RedisLimiter struct {
	client *redis.Client
	max    int
	window time.Duration
}

func NewRedisLimiter(client *redis.Client, max int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{client: client, max: max, window: window}
}

func key(subject string) string {
	return fmt.Sprintf("login:fail:%s", subject)
}

// Allow reports whether subject is still under the failure limit.
func (l *RedisLimiter) Allow(ctx context.Context, subject string) (bool, error) {
	if l.max <= 0 {
		return true, nil
	}
	count, err := l.client.Get(ctx, key(subject)).Int()
	if err == redis.Nil {
		return true, nil
	}
	if err != nil {
		return true, err
	}
	return count < l.max, nil
}

// Fail records one failure. The window starts at the first failure.
func (l *RedisLimiter) Fail(ctx context.Context, subject string) error {
	k := key(subject)
	count, err := l.client.Incr(ctx, k).Result()
	if err != nil {
		return err
	}
	if count == 1 {
		return l.client.Expire(ctx, k, l.window).Err()
	}
	return nil
}

func (l *RedisLimiter) Reset(ctx context.Context, subject string) error {
	return l.client.Del(ctx, key(subject)).Err()
}
