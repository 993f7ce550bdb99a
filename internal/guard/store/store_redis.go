package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"bastion/internal/guard"
	"bastion/pkg/platform/sentinel"
)

// RedisStore persists action tokens with a TTL matching their expiry, so
// single-use holds across replicas.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a redis-backed token store.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func tokenKey(token string) string {
	return "guard:token:" + token
}

// Save persists the token until its expiry.
func (s *RedisStore) Save(ctx context.Context, token *guard.ActionToken) error {
	payload, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("marshal action token: %w", err)
	}
	ttl := time.Until(token.ExpiresAt)
	if ttl <= 0 {
		return fmt.Errorf("action token already expired: %w", sentinel.ErrExpired)
	}
	if err := s.client.Set(ctx, tokenKey(token.Token), payload, ttl).Err(); err != nil {
		return fmt.Errorf("save action token: %w", err)
	}
	return nil
}

// Take atomically claims and removes the token via GETDEL.
func (s *RedisStore) Take(ctx context.Context, token string) (*guard.ActionToken, error) {
	payload, err := s.client.GetDel(ctx, tokenKey(token)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("take action token: %w", err)
	}

	var record guard.ActionToken
	if err := json.Unmarshal(payload, &record); err != nil {
		return nil, fmt.Errorf("unmarshal action token: %w", err)
	}
	return &record, nil
}
