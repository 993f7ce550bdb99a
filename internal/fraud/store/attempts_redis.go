package store

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"bastion/internal/fraud"
)

// RedisAttemptStore keeps recent attempts in a per-identifier sorted set
// scored by timestamp. Old members are trimmed on write and the whole key
// expires with the retention window, so velocity counts stay correct across
// replicas without unbounded growth.
type RedisAttemptStore struct {
	client    *redis.Client
	retention time.Duration
	now       func() time.Time
}

// NewRedisAttemptStore creates a redis-backed velocity store.
func NewRedisAttemptStore(client *redis.Client, retention time.Duration) *RedisAttemptStore {
	if retention <= 0 {
		retention = time.Hour
	}
	return &RedisAttemptStore{client: client, retention: retention, now: time.Now}
}

// WithClock overrides the time source for tests.
func (s *RedisAttemptStore) WithClock(now func() time.Time) *RedisAttemptStore {
	s.now = now
	return s
}

func attemptKey(identifier string) string {
	return "fraud:attempts:" + identifier
}

// Record appends the attempt timestamp and trims members past retention.
func (s *RedisAttemptStore) Record(ctx context.Context, attempt *fraud.PaymentAttempt) error {
	createdAt := attempt.CreatedAt
	if createdAt.IsZero() {
		createdAt = s.now()
	}
	key := attemptKey(attempt.Identifier())
	cutoff := s.now().Add(-s.retention)

	pipe := s.client.TxPipeline()
	pipe.ZAdd(ctx, key, redis.Z{
		Score:  float64(createdAt.UnixMilli()),
		Member: uuid.NewString(),
	})
	pipe.ZRemRangeByScore(ctx, key, "-inf", strconv.FormatInt(cutoff.UnixMilli(), 10))
	pipe.Expire(ctx, key, s.retention)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("record attempt: %w", err)
	}
	return nil
}

// CountSince counts attempts at or after since.
func (s *RedisAttemptStore) CountSince(ctx context.Context, identifier string, since time.Time) (int, error) {
	count, err := s.client.ZCount(ctx, attemptKey(identifier),
		strconv.FormatInt(since.UnixMilli(), 10), "+inf").Result()
	if err != nil {
		return 0, fmt.Errorf("count attempts: %w", err)
	}
	return int(count), nil
}
