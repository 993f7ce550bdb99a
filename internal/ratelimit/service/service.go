// Package service exposes the rate limiter consumed by the guard and gate
// pipelines.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	dErrors "bastion/pkg/domain-errors"

	"bastion/internal/platform/metrics"
	"bastion/internal/ratelimit/models"
)

// BucketStore is the counter storage behind the limiter. TryConsume must be
// atomic with respect to concurrent requests for the same key.
type BucketStore interface {
	TryConsume(ctx context.Context, key string, limit int, window time.Duration) (*models.Result, error)
	Peek(ctx context.Context, key string, limit int, window time.Duration) (*models.Result, error)
	Reset(ctx context.Context, key string) error
}

// Service applies per-identifier quotas to named operations.
type Service struct {
	store    BucketStore
	logger   *slog.Logger
	metrics  *metrics.Metrics
	failOpen bool
}

type Option func(*Service)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithMetrics wires the metrics collector.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithFailOpen allows requests through when the store is unreachable.
// The default is fail closed: a security control prefers false positives.
func WithFailOpen(failOpen bool) Option {
	return func(s *Service) { s.failOpen = failOpen }
}

// New creates the limiter service.
func New(store BucketStore, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("bucket store is required")
	}
	s := &Service{store: store, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Allow atomically consumes one slot for (identifier, cfg.Key). Both
// successful and failed submissions are expected to go through Allow so
// retry-flooding counts against the quota.
func (s *Service) Allow(ctx context.Context, identifier string, cfg models.Config) (*models.Result, error) {
	result, err := s.store.TryConsume(ctx, cfg.Key+":"+identifier, cfg.MaxRequests, cfg.Window)
	if err != nil {
		return s.storeFailure(ctx, cfg, err)
	}
	if !result.Allowed && s.metrics != nil {
		s.metrics.RateLimitHits.Inc()
	}
	return result, nil
}

// Check reports the state for (identifier, cfg.Key) without consuming quota.
// Callers that act on the answer must still commit through Allow.
func (s *Service) Check(ctx context.Context, identifier string, cfg models.Config) (*models.Result, error) {
	result, err := s.store.Peek(ctx, cfg.Key+":"+identifier, cfg.MaxRequests, cfg.Window)
	if err != nil {
		return s.storeFailure(ctx, cfg, err)
	}
	return result, nil
}

// Reset clears the quota for one identifier. Operator/admin use.
func (s *Service) Reset(ctx context.Context, identifier string, cfg models.Config) error {
	return s.store.Reset(ctx, cfg.Key+":"+identifier)
}

// DeniedError converts a denied result into the domain error handed to
// transports, carrying the retry-after hint.
func DeniedError(result *models.Result) error {
	return dErrors.New(dErrors.CodeRateLimited, "rate limit exceeded").
		WithRetryAfter(result.RetryAfter)
}

func (s *Service) storeFailure(ctx context.Context, cfg models.Config, err error) (*models.Result, error) {
	s.logger.ErrorContext(ctx, "rate limit store failure", "key", cfg.Key, "error", err)
	if s.failOpen {
		return &models.Result{Allowed: true, Limit: cfg.MaxRequests, Remaining: 1}, nil
	}
	return &models.Result{
		Allowed:    false,
		Limit:      cfg.MaxRequests,
		RetryAfter: cfg.Window,
		ResetAt:    time.Now().Add(cfg.Window),
	}, nil
}
