package bucket

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"bastion/internal/ratelimit/models"
)

// RedisStore implements fixed-window rate limiting with an atomic
// INCR+EXPIRE pipeline. Fixed windows are coarser at the boundary than the
// in-memory sliding window but stay atomic under concurrent replicas, which
// is the property that matters for a security control.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a redis-backed bucket store.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func bucketKey(key string) string {
	return "ratelimit:" + key
}

// TryConsume atomically increments the window counter and compares against
// the limit. The slot consumed by a denied request is handed back so denials
// do not extend the lockout.
func (s *RedisStore) TryConsume(ctx context.Context, key string, limit int, window time.Duration) (*models.Result, error) {
	k := bucketKey(key)

	pipe := s.client.TxPipeline()
	incr := pipe.Incr(ctx, k)
	pipe.ExpireNX(ctx, k, window)
	ttl := pipe.PTTL(ctx, k)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("ratelimit try-consume: %w", err)
	}

	count := int(incr.Val())
	remaining := ttl.Val()
	if remaining < 0 {
		remaining = window
	}
	resetAt := time.Now().Add(remaining)

	if count > limit {
		// Undo our increment so the counter reflects accepted requests.
		s.client.Decr(ctx, k)
		return &models.Result{
			Allowed:    false,
			Limit:      limit,
			Remaining:  0,
			ResetAt:    resetAt,
			RetryAfter: remaining,
		}, nil
	}

	return &models.Result{
		Allowed:   true,
		Limit:     limit,
		Remaining: limit - count,
		ResetAt:   resetAt,
	}, nil
}

// Peek reports the current state without consuming quota.
func (s *RedisStore) Peek(ctx context.Context, key string, limit int, window time.Duration) (*models.Result, error) {
	k := bucketKey(key)

	pipe := s.client.TxPipeline()
	get := pipe.Get(ctx, k)
	ttl := pipe.PTTL(ctx, k)
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return nil, fmt.Errorf("ratelimit peek: %w", err)
	}

	count, _ := get.Int()
	remaining := ttl.Val()
	if remaining < 0 {
		remaining = window
	}
	resetAt := time.Now().Add(remaining)

	if count >= limit {
		return &models.Result{
			Allowed:    false,
			Limit:      limit,
			Remaining:  0,
			ResetAt:    resetAt,
			RetryAfter: remaining,
		}, nil
	}
	return &models.Result{
		Allowed:   true,
		Limit:     limit,
		Remaining: limit - count,
		ResetAt:   resetAt,
	}, nil
}

// Reset clears the counter for a key.
func (s *RedisStore) Reset(ctx context.Context, key string) error {
	return s.client.Del(ctx, bucketKey(key)).Err()
}
