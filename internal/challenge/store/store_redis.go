package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"bastion/internal/challenge"
	"bastion/pkg/platform/sentinel"
)

// RedisStore persists challenges with a TTL matching their expiry, so
// challenges survive process restarts and single-use holds across replicas.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a redis-backed challenge store.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func challengeKey(id string) string {
	return "challenge:" + id
}

// Save persists the challenge until its expiry.
func (s *RedisStore) Save(ctx context.Context, ch *challenge.Challenge) error {
	payload, err := json.Marshal(ch)
	if err != nil {
		return fmt.Errorf("marshal challenge: %w", err)
	}
	ttl := time.Until(ch.ExpiresAt)
	if ttl <= 0 {
		return fmt.Errorf("challenge already expired: %w", sentinel.ErrExpired)
	}
	if err := s.client.Set(ctx, challengeKey(ch.ID), payload, ttl).Err(); err != nil {
		return fmt.Errorf("save challenge: %w", err)
	}
	return nil
}

// Take atomically claims and removes the challenge via GETDEL. Two
// concurrent verifications for one ID cannot both observe it.
func (s *RedisStore) Take(ctx context.Context, id string) (*challenge.Challenge, error) {
	payload, err := s.client.GetDel(ctx, challengeKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("take challenge: %w", err)
	}

	var ch challenge.Challenge
	if err := json.Unmarshal(payload, &ch); err != nil {
		return nil, fmt.Errorf("unmarshal challenge: %w", err)
	}
	return &ch, nil
}
