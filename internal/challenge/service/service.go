// Package service orchestrates the proof-of-work lifecycle: issue a
// challenge, verify the client's solution exactly once, and mint a scoped
// work token on success.
package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"bastion/internal/audit"
	"bastion/internal/challenge"
	"bastion/internal/challenge/store"
	"bastion/internal/platform/metrics"
	dErrors "bastion/pkg/domain-errors"
	"bastion/pkg/platform/sentinel"
)

const (
	defaultDifficulty = 18
	maxDifficulty     = 24
	defaultTTL        = 5 * time.Minute
)

// Service issues and verifies proof-of-work challenges.
type Service struct {
	store   store.Store
	issuer  *challenge.TokenIssuer
	logger  *slog.Logger
	metrics *metrics.Metrics
	audit   *audit.Publisher

	defaultDifficulty int
	maxDifficulty     int
	ttl               time.Duration
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

// WithDifficulty sets the default and ceiling for puzzle difficulty in
// leading zero bits. Requests above the ceiling are clamped, not rejected.
func WithDifficulty(def, max int) Option {
	return func(s *Service) {
		s.defaultDifficulty = def
		s.maxDifficulty = max
	}
}

// WithTTL sets the challenge lifetime.
func WithTTL(ttl time.Duration) Option {
	return func(s *Service) { s.ttl = ttl }
}

// WithClock overrides the time source for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// New validates dependencies and creates the service.
func New(st store.Store, issuer *challenge.TokenIssuer, opts ...Option) (*Service, error) {
	if st == nil {
		return nil, fmt.Errorf("challenge store is required")
	}
	if issuer == nil {
		return nil, fmt.Errorf("token issuer is required")
	}
	s := &Service{
		store:             st,
		issuer:            issuer,
		logger:            slog.Default(),
		defaultDifficulty: defaultDifficulty,
		maxDifficulty:     maxDifficulty,
		ttl:               defaultTTL,
		now:               time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.defaultDifficulty <= 0 || s.maxDifficulty < s.defaultDifficulty {
		return nil, fmt.Errorf("invalid difficulty bounds: default %d, max %d", s.defaultDifficulty, s.maxDifficulty)
	}
	if s.ttl <= 0 {
		return nil, fmt.Errorf("challenge ttl must be positive")
	}
	return s, nil
}

// Generate issues a fresh challenge. A non-positive difficulty requests the
// default; anything above the configured ceiling is clamped so an elevated
// risk score can never demand an unsolvable puzzle.
func (s *Service) Generate(ctx context.Context, difficulty int) (*challenge.Challenge, error) {
	if difficulty <= 0 {
		difficulty = s.defaultDifficulty
	}
	if difficulty > s.maxDifficulty {
		difficulty = s.maxDifficulty
	}

	seed := make([]byte, 16)
	if _, err := rand.Read(seed); err != nil {
		return nil, fmt.Errorf("generate challenge seed: %w", err)
	}

	now := s.now()
	ch := &challenge.Challenge{
		ID:         uuid.NewString(),
		Seed:       hex.EncodeToString(seed),
		Difficulty: difficulty,
		IssuedAt:   now,
		ExpiresAt:  now.Add(s.ttl),
	}
	if err := s.store.Save(ctx, ch); err != nil {
		return nil, fmt.Errorf("save challenge: %w", err)
	}

	if s.metrics != nil {
		s.metrics.ChallengesIssued.Inc()
	}
	if s.audit != nil {
		s.audit.Emit(ctx, audit.Entry{
			Action: audit.ActionChallengeIssued,
			Target: "challenge:" + ch.ID,
			Metadata: map[string]any{
				"difficulty": difficulty,
			},
		})
	}
	return ch, nil
}

// Verify consumes the challenge and checks the solution. The challenge is
// removed from the store before any check runs, so a second attempt against
// the same ID fails regardless of this call's outcome. On success the caller
// receives a work token scoped to the given route.
func (s *Service) Verify(ctx context.Context, sol *challenge.Solution, scope string) (*challenge.WorkToken, error) {
	if sol == nil || sol.ChallengeID == "" {
		return nil, s.reject(ctx, "", dErrors.New(dErrors.CodeChallengeInvalid, "challenge solution is required"))
	}

	ch, err := s.store.Take(ctx, sol.ChallengeID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, s.reject(ctx, sol.ChallengeID, dErrors.New(dErrors.CodeChallengeInvalid, "challenge unknown or already consumed"))
		}
		return nil, fmt.Errorf("take challenge: %w", err)
	}

	if ch.Expired(s.now()) {
		return nil, s.reject(ctx, ch.ID, dErrors.New(dErrors.CodeChallengeExpired, "challenge has expired"))
	}
	if !challenge.MeetsDifficulty(challenge.HashNonce(ch.Seed, sol.Nonce), ch.Difficulty) {
		return nil, s.reject(ctx, ch.ID, dErrors.New(dErrors.CodeChallengeInvalid, "solution does not meet the required difficulty"))
	}

	token, err := s.issuer.Issue(scope, ch.Difficulty)
	if err != nil {
		return nil, fmt.Errorf("issue work token: %w", err)
	}

	if s.metrics != nil {
		s.metrics.ChallengesVerified.Inc()
		if sol.ElapsedMs > 0 {
			s.metrics.ObservePowSolveTime(time.Duration(sol.ElapsedMs) * time.Millisecond)
		}
	}
	if s.audit != nil {
		s.audit.Emit(ctx, audit.Entry{
			Action: audit.ActionChallengeVerified,
			Target: "challenge:" + ch.ID,
			Metadata: map[string]any{
				"difficulty": ch.Difficulty,
				"scope":      scope,
				"elapsed_ms": sol.ElapsedMs,
			},
		})
	}
	return token, nil
}

// ValidateToken checks a previously issued work token against a scope.
func (s *Service) ValidateToken(tokenString, scope string) error {
	_, err := s.issuer.Validate(tokenString, scope)
	return err
}

func (s *Service) reject(ctx context.Context, challengeID string, err *dErrors.Error) error {
	if s.metrics != nil {
		s.metrics.ChallengesRejected.Inc()
	}
	if s.audit != nil {
		s.audit.Emit(ctx, audit.Entry{
			Action: audit.ActionChallengeRejected,
			Target: "challenge:" + challengeID,
			Metadata: map[string]any{
				"reason": string(err.Code),
			},
		})
	}
	return err
}
