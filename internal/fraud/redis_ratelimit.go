package fraud

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisLimiter is the shared-store strategy for multi-instance deployments:
// a fixed window per IP kept as an INCR counter with a TTL.
type RedisLimiter struct {
	rdb *redis.Client
}

// NewRedisLimiter connects to Redis and returns the limiter.
func NewRedisLimiter(addr string) (*RedisLimiter, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
	})

	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisLimiter{rdb: rdb}, nil
}

// Allow increments the IP's window counter and reports whether it is still
// within the threshold.
func (l *RedisLimiter) Allow(ctx context.Context, ip string) (bool, error) {
	key := fmt.Sprintf("ratelimit:%s", ip)

	count, err := l.rdb.Incr(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("redis INCR failed: %w", err)
	}

	// First request in the window sets the expiration.
	if count == 1 {
		if err := l.rdb.Expire(ctx, key, RateLimitWindow).Err(); err != nil {
			return false, fmt.Errorf("redis EXPIRE failed: %w", err)
		}
	}

	return count <= RateLimitMax, nil
}

// Close gracefully closes the Redis connection.
func (l *RedisLimiter) Close() error {
	return l.rdb.Close()
}
