// Package service runs the submission guard: issue an action token when a
// form is rendered, then validate the eventual post through a fixed check
// order. Honeypot and timing verdicts come first so a bot learns nothing
// about the later, more expensive checks, and neither of those rejections
// burns rate-limit quota for the client fingerprint.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"bastion/internal/audit"
	"bastion/internal/guard"
	"bastion/internal/guard/store"
	"bastion/internal/platform/metrics"
	rlmodels "bastion/internal/ratelimit/models"
	rlservice "bastion/internal/ratelimit/service"
	dErrors "bastion/pkg/domain-errors"
	"bastion/pkg/platform/sentinel"
)

const (
	defaultTokenTTL          = 30 * time.Minute
	defaultMinSubmissionTime = 2 * time.Second
)

// Limiter consumes rate-limit quota for a client fingerprint.
type Limiter interface {
	Allow(ctx context.Context, identifier string, cfg rlmodels.Config) (*rlmodels.Result, error)
}

// Service issues action tokens and validates submissions.
type Service struct {
	tokens  store.TokenStore
	limiter Limiter
	logger  *slog.Logger
	metrics *metrics.Metrics
	audit   *audit.Publisher

	limitCfg          rlmodels.Config
	tokenTTL          time.Duration
	minSubmissionTime time.Duration
	now               func() time.Time
}

type Option func(*Service)

// WithLogger sets the structured logger.
func WithLogger(log *slog.Logger) Option {
	return func(s *Service) { s.logger = log }
}

// WithMetrics wires the metrics collector.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithAudit wires the audit publisher.
func WithAudit(pub *audit.Publisher) Option {
	return func(s *Service) { s.audit = pub }
}

// WithTokenTTL sets the action token lifetime.
func WithTokenTTL(ttl time.Duration) Option {
	return func(s *Service) { s.tokenTTL = ttl }
}

// WithMinSubmissionTime sets the floor on render-to-submit elapsed time.
func WithMinSubmissionTime(d time.Duration) Option {
	return func(s *Service) { s.minSubmissionTime = d }
}

// WithClock overrides the time source for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// New validates dependencies and creates the guard service. limitCfg.Key is
// namespaced per route at validation time.
func New(tokens store.TokenStore, limiter Limiter, limitCfg rlmodels.Config, opts ...Option) (*Service, error) {
	if tokens == nil {
		return nil, fmt.Errorf("token store is required")
	}
	if limiter == nil {
		return nil, fmt.Errorf("limiter is required")
	}
	if limitCfg.MaxRequests <= 0 || limitCfg.Window <= 0 {
		return nil, fmt.Errorf("invalid rate limit config: max %d, window %s", limitCfg.MaxRequests, limitCfg.Window)
	}
	s := &Service{
		tokens:            tokens,
		limiter:           limiter,
		logger:            slog.Default(),
		limitCfg:          limitCfg,
		tokenTTL:          defaultTokenTTL,
		minSubmissionTime: defaultMinSubmissionTime,
		now:               time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// IssueToken mints a single-use action token for one form render. The
// issuance time doubles as the form-start timestamp for the timing check.
func (s *Service) IssueToken(ctx context.Context, route string) (*guard.Issued, error) {
	if route == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "route is required")
	}

	now := s.now()
	token := &guard.ActionToken{
		Token:         uuid.NewString(),
		Route:         route,
		HoneypotField: guard.RandomHoneypotField(),
		FormStartedAt: now,
		ExpiresAt:     now.Add(s.tokenTTL),
	}
	if err := s.tokens.Save(ctx, token); err != nil {
		return nil, fmt.Errorf("save action token: %w", err)
	}
	return &guard.Issued{
		Token:         token.Token,
		HoneypotField: token.HoneypotField,
		ExpiresAt:     token.ExpiresAt,
	}, nil
}

// Validate runs the guard checks in order: honeypot, timing, rate limit,
// token. The token is consumed regardless of the outcome of the later
// checks, so a rejected submission cannot retry with the same token.
func (s *Service) Validate(ctx context.Context, sub guard.Submission) error {
	fingerprint := guard.Fingerprint(sub.IP, sub.UserAgent)

	if field, tripped := guard.TrippedField(sub.Fields); tripped {
		s.record(ctx, audit.ActionHoneypotTripped, sub.Route, fingerprint, map[string]any{"field": field})
		return dErrors.New(dErrors.CodeHoneypotTriggered, "honeypot field was populated")
	}

	token, tokenErr := s.takeToken(ctx, sub.Token)
	if tokenErr == nil {
		if elapsed := s.now().Sub(token.FormStartedAt); elapsed < s.minSubmissionTime {
			s.record(ctx, audit.ActionTimingRejected, sub.Route, fingerprint, map[string]any{
				"elapsed_ms": elapsed.Milliseconds(),
			})
			return dErrors.New(dErrors.CodeTimingTooFast, "form submitted faster than a human can type")
		}
	}

	cfg := s.limitCfg
	cfg.Key = s.limitCfg.Key + ":" + sub.Route
	result, err := s.limiter.Allow(ctx, fingerprint, cfg)
	if err != nil {
		return fmt.Errorf("rate limit check: %w", err)
	}
	if !result.Allowed {
		s.record(ctx, audit.ActionRateLimitExceeded, sub.Route, fingerprint, map[string]any{
			"retry_after_ms": result.RetryAfter.Milliseconds(),
		})
		return rlservice.DeniedError(result)
	}

	if tokenErr != nil {
		return tokenErr
	}
	now := s.now()
	if token.Route != sub.Route || token.Expired(now) {
		s.record(ctx, audit.ActionTokenRejected, sub.Route, fingerprint, map[string]any{
			"token_route": token.Route,
			"expired":     token.Expired(now),
		})
		return dErrors.New(dErrors.CodeTokenMissing, "action token is not valid for this submission")
	}
	return nil
}

func (s *Service) takeToken(ctx context.Context, tokenString string) (*guard.ActionToken, error) {
	if tokenString == "" {
		return nil, dErrors.New(dErrors.CodeTokenMissing, "action token is required")
	}
	token, err := s.tokens.Take(ctx, tokenString)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeTokenMissing, "action token is unknown or already used")
	}
	if err != nil {
		return nil, fmt.Errorf("take action token: %w", err)
	}
	return token, nil
}

func (s *Service) record(ctx context.Context, action, route, fingerprint string, metadata map[string]any) {
	if s.metrics != nil {
		s.metrics.ForbiddenAttempts.Inc()
	}
	if s.audit != nil {
		if metadata == nil {
			metadata = map[string]any{}
		}
		metadata["fingerprint"] = fingerprint
		s.audit.Emit(ctx, audit.Entry{
			Action:   action,
			Target:   "route:" + route,
			Metadata: metadata,
		})
	}
}
