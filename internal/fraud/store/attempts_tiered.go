package store

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"bastion/internal/fraud"
)

// TieredAttemptStore pairs a durable store with a fast velocity cache. Every
// attempt is written to both; counts come from the cache and fall back to
// the durable store when the cache is unavailable. The durable write is the
// one that must succeed.
type TieredAttemptStore struct {
	durable AttemptStore
	cache   AttemptStore
	logger  *slog.Logger
}

// NewTieredAttemptStore composes a durable store and a cache.
func NewTieredAttemptStore(durable, cache AttemptStore, logger *slog.Logger) (*TieredAttemptStore, error) {
	if durable == nil || cache == nil {
		return nil, errors.New("both durable and cache attempt stores are required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &TieredAttemptStore{durable: durable, cache: cache, logger: logger}, nil
}

func (s *TieredAttemptStore) Record(ctx context.Context, attempt *fraud.PaymentAttempt) error {
	if err := s.durable.Record(ctx, attempt); err != nil {
		return err
	}
	if err := s.cache.Record(ctx, attempt); err != nil {
		// The cache rebuilds from the durable store on the next count.
		s.logger.WarnContext(ctx, "attempt cache write failed", "error", err)
	}
	return nil
}

func (s *TieredAttemptStore) CountSince(ctx context.Context, identifier string, since time.Time) (int, error) {
	count, err := s.cache.CountSince(ctx, identifier, since)
	if err == nil {
		return count, nil
	}
	s.logger.WarnContext(ctx, "attempt cache read failed, falling back", "error", err)
	return s.durable.CountSince(ctx, identifier, since)
}
