// Package service implements risk scoring and adaptive friction. Every
// attempt is recorded before it is counted, so the attempt being scored is
// part of its own velocity window.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mssola/useragent"

	"bastion/internal/audit"
	"bastion/internal/fraud"
	"bastion/internal/fraud/store"
	"bastion/internal/platform/config"
	"bastion/internal/platform/metrics"
	dErrors "bastion/pkg/domain-errors"
)

// Reason strings accumulate on the assessment so a blocked attempt's audit
// record names every signal that fired.
const (
	ReasonHighAmount    = "amount above high-value threshold"
	ReasonSuspicious    = "metadata matches suspicious pattern"
	ReasonHighFrequency = "too many attempts in the past hour"
	ReasonBurst         = "rapid successive attempts"
	ReasonRoundAmount   = "suspiciously round amount"
	ReasonBotUserAgent  = "automated user agent"
)

// Service scores attempts and decides friction tiers.
type Service struct {
	attempts store.AttemptStore
	state    store.StateStore
	cfg      config.FraudConfig
	logger   *slog.Logger
	metrics  *metrics.Metrics
	audit    *audit.Publisher
	now      func() time.Time
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

// WithClock overrides the time source for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// New validates dependencies and creates the scoring service.
func New(attempts store.AttemptStore, state store.StateStore, cfg config.FraudConfig, opts ...Option) (*Service, error) {
	if attempts == nil {
		return nil, fmt.Errorf("attempt store is required")
	}
	if state == nil {
		return nil, fmt.Errorf("state store is required")
	}
	if cfg.BlockThreshold <= 0 {
		return nil, fmt.Errorf("block threshold must be positive")
	}
	s := &Service{
		attempts: attempts,
		state:    state,
		cfg:      cfg,
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Score records the attempt, then evaluates every signal against the state
// including the attempt itself. A score at or above the block threshold is
// terminal: the caller must not reach the payment dependency.
func (s *Service) Score(ctx context.Context, attempt *fraud.PaymentAttempt) (*fraud.Assessment, error) {
	now := s.now()
	if attempt.CreatedAt.IsZero() {
		attempt.CreatedAt = now
	}
	if err := s.attempts.Record(ctx, attempt); err != nil {
		return nil, fmt.Errorf("record attempt: %w", err)
	}

	assessment := &fraud.Assessment{}
	add := func(points int, reason string) {
		assessment.Score += points
		assessment.Reasons = append(assessment.Reasons, reason)
	}

	if attempt.Amount > s.cfg.HighAmountThreshold {
		add(s.cfg.HighAmountPoints, ReasonHighAmount)
	}
	if fraud.MatchesSuspiciousPattern(attempt) {
		add(s.cfg.SuspiciousPoints, ReasonSuspicious)
	}

	id := attempt.Identifier()
	hourly, err := s.attempts.CountSince(ctx, id, now.Add(-s.cfg.VelocityWindow))
	if err != nil {
		return nil, fmt.Errorf("hourly velocity: %w", err)
	}
	if hourly > s.cfg.HourlyAttemptLimit {
		add(s.cfg.HourlyPoints, ReasonHighFrequency)
	}
	burst, err := s.attempts.CountSince(ctx, id, now.Add(-s.cfg.BurstWindow))
	if err != nil {
		return nil, fmt.Errorf("burst velocity: %w", err)
	}
	if burst > s.cfg.BurstAttemptLimit {
		add(s.cfg.BurstPoints, ReasonBurst)
	}

	if fraud.IsRoundAmount(attempt.Amount) {
		add(s.cfg.RoundAmountPoints, ReasonRoundAmount)
	}
	if ua := useragent.New(attempt.UserAgent); ua.Bot() {
		add(s.cfg.BotUserAgentPoints, ReasonBotUserAgent)
	}

	assessment.Blocked = assessment.Score >= s.cfg.BlockThreshold
	s.recordAssessment(ctx, attempt, assessment)
	return assessment, nil
}

// Friction maps a below-block score plus the identifier's decline history
// to a friction tier. Each prior decline weighs like DeclinePenalty extra
// risk points; crossing the block threshold this way starts a cooldown.
func (s *Service) Friction(ctx context.Context, identifier string, score int) (*fraud.Friction, error) {
	declines, err := s.state.DeclineCount(ctx, identifier)
	if err != nil {
		return nil, fmt.Errorf("decline count: %w", err)
	}

	effective := score + s.cfg.DeclinePenalty*declines
	friction := &fraud.Friction{
		RequireCaptcha: effective >= s.cfg.CaptchaThreshold,
		RequireStepUp:  effective >= s.cfg.StepUpThreshold,
	}
	if effective >= s.cfg.BlockThreshold {
		friction.Cooldown = s.cfg.CooldownPeriod
		until := s.now().Add(s.cfg.CooldownPeriod)
		if err := s.state.StartCooldown(ctx, identifier, until); err != nil {
			return nil, fmt.Errorf("start cooldown: %w", err)
		}
	}
	return friction, nil
}

// CheckCooldown returns a cooldown rejection when the identifier is inside
// an active cooldown window, and nil otherwise.
func (s *Service) CheckCooldown(ctx context.Context, identifier string) error {
	until, err := s.state.CooldownUntil(ctx, identifier)
	if err != nil {
		return fmt.Errorf("read cooldown: %w", err)
	}
	if until.IsZero() {
		return nil
	}
	remaining := until.Sub(s.now())
	if remaining <= 0 {
		return nil
	}
	if s.audit != nil {
		s.audit.Emit(ctx, audit.Entry{
			Actor:  identifier,
			Action: audit.ActionCooldownRejected,
			Metadata: map[string]any{
				"retry_after_ms": remaining.Milliseconds(),
			},
		})
	}
	return dErrors.New(dErrors.CodeCooldownActive, "too many risky attempts, try again later").
		WithRetryAfter(remaining)
}

// RecordDecline notes a downstream decline for the identifier and returns
// the new streak length.
func (s *Service) RecordDecline(ctx context.Context, identifier string) (int, error) {
	count, err := s.state.RecordDecline(ctx, identifier)
	if err != nil {
		return 0, fmt.Errorf("record decline: %w", err)
	}
	return count, nil
}

// ClearDeclines resets the identifier's decline streak after a successful
// charge.
func (s *Service) ClearDeclines(ctx context.Context, identifier string) error {
	return s.state.ClearDeclines(ctx, identifier)
}

func (s *Service) recordAssessment(ctx context.Context, attempt *fraud.PaymentAttempt, assessment *fraud.Assessment) {
	if assessment.Blocked && s.metrics != nil {
		s.metrics.FraudBlocks.Inc()
	}
	if s.audit == nil {
		return
	}
	metadata := map[string]any{
		"score":   assessment.Score,
		"reasons": assessment.Reasons,
		"amount":  attempt.Amount,
	}
	action := audit.ActionRiskScored
	if assessment.Blocked {
		action = audit.ActionFraudBlocked
	}
	s.audit.Emit(ctx, audit.Entry{
		Actor:    attempt.Identifier(),
		Action:   action,
		Target:   "payment_attempt:" + attempt.ID,
		Metadata: metadata,
	})
}
