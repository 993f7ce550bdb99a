package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// declineRetention bounds how long a decline streak haunts an identifier.
const declineRetention = 24 * time.Hour

// RedisStateStore tracks declines and cooldowns in redis so friction
// decisions are consistent across replicas.
type RedisStateStore struct {
	client *redis.Client
	now    func() time.Time
}

// NewRedisStateStore creates a redis-backed state store.
func NewRedisStateStore(client *redis.Client) *RedisStateStore {
	return &RedisStateStore{client: client, now: time.Now}
}

// WithClock overrides the time source for tests.
func (s *RedisStateStore) WithClock(now func() time.Time) *RedisStateStore {
	s.now = now
	return s
}

func declineKey(identifier string) string {
	return "fraud:declines:" + identifier
}

func cooldownKey(identifier string) string {
	return "fraud:cooldown:" + identifier
}

func (s *RedisStateStore) RecordDecline(ctx context.Context, identifier string) (int, error) {
	pipe := s.client.TxPipeline()
	incr := pipe.Incr(ctx, declineKey(identifier))
	pipe.ExpireNX(ctx, declineKey(identifier), declineRetention)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("record decline: %w", err)
	}
	return int(incr.Val()), nil
}

func (s *RedisStateStore) DeclineCount(ctx context.Context, identifier string) (int, error) {
	count, err := s.client.Get(ctx, declineKey(identifier)).Int()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read decline count: %w", err)
	}
	return count, nil
}

func (s *RedisStateStore) ClearDeclines(ctx context.Context, identifier string) error {
	if err := s.client.Del(ctx, declineKey(identifier)).Err(); err != nil {
		return fmt.Errorf("clear declines: %w", err)
	}
	return nil
}

func (s *RedisStateStore) StartCooldown(ctx context.Context, identifier string, until time.Time) error {
	ttl := until.Sub(s.now())
	if ttl <= 0 {
		return nil
	}
	if err := s.client.Set(ctx, cooldownKey(identifier), until.Format(time.RFC3339Nano), ttl).Err(); err != nil {
		return fmt.Errorf("start cooldown: %w", err)
	}
	return nil
}

func (s *RedisStateStore) CooldownUntil(ctx context.Context, identifier string) (time.Time, error) {
	raw, err := s.client.Get(ctx, cooldownKey(identifier)).Result()
	if errors.Is(err, redis.Nil) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("read cooldown: %w", err)
	}
	until, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse cooldown deadline: %w", err)
	}
	return until, nil
}
