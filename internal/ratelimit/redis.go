package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "klarpost:rl:"

// RedisStore is a Redis-backed window store shared across instances.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a window store on an existing Redis client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Incr implements Store using INCR with an expiry set on the first increment
// of each window.
func (s *RedisStore) Incr(ctx context.Context, key string, d time.Duration) (int, error) {
	rkey := redisKeyPrefix + key

	count, err := s.client.Incr(ctx, rkey).Result()
	if err != nil {
		return 0, fmt.Errorf("incr %s: %w", rkey, err)
	}
	if count == 1 {
		if err := s.client.Expire(ctx, rkey, d).Err(); err != nil {
			return 0, fmt.Errorf("expire %s: %w", rkey, err)
		}
	}
	return int(count), nil
}

// Ping verifies connectivity at startup.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
