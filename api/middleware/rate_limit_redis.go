package middleware

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisLimiter counts requests in fixed windows shared by every instance behind the same redis.
type RedisLimiter struct {
	client redis.Cmdable
	prefix string
	limit  int64
	window time.Duration
	now    func() time.Time
}

func NewRedisLimiter(client redis.Cmdable, prefix string, limit int, window time.Duration) *RedisLimiter {
	if window <= 0 {
		window = time.Minute
	}
	return &RedisLimiter{
		client: client,
		prefix: prefix,
		limit:  int64(limit),
		window: window,
		now:    time.Now,
	}
}

func (l *RedisLimiter) key(id string, slot int64) string {
	return fmt.Sprintf("%s:%s:%d", l.prefix, id, slot)
}

func (l *RedisLimiter) Allow(ctx context.Context, id string) (bool, time.Duration, error) {
	now := l.now()
	slot := now.UnixNano() / int64(l.window)
	key := l.key(id, slot)

	count, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		return false, 0, fmt.Errorf("incr %s: %w", key, err)
	}
	if count == 1 {
		if err := l.client.Expire(ctx, key, l.window).Err(); err != nil {
			return false, 0, fmt.Errorf("expire %s: %w", key, err)
		}
	}
	if count > l.limit {
		windowEnd := time.Unix(0, (slot+1)*int64(l.window))
		return false, windowEnd.Sub(now), nil
	}
	return true, 0, nil
}
