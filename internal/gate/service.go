// Package gate chains the individual protections into one submission
// pipeline: guard checks, cooldown, risk scoring, adaptive friction, and
// finally the protected operation behind its circuit breaker. A step-up
// demand is a normal outcome, not an error; the caller renders the
// challenge and resubmits.
package gate

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"bastion/internal/audit"
	"bastion/internal/fraud"
	"bastion/internal/guard"
	"bastion/internal/platform/metrics"
	dErrors "bastion/pkg/domain-errors"
	"bastion/pkg/platform/circuit"
)

// Registry keys for the protected downstream dependencies.
const (
	PaymentBreakerName = "payment"
	EmailBreakerName   = "email"
)

// Gate types named in step-up decisions.
const (
	GateCaptcha = "captcha"
	GatePow     = "pow"
)

// Outcome labels for the per-route request counter.
const (
	outcomeAllowed     = "allowed"
	outcomeRejected    = "rejected"
	outcomeBlocked     = "blocked"
	outcomeCooldown    = "cooldown"
	outcomeStepUp      = "step_up"
	outcomeCircuitOpen = "circuit_open"
	outcomeDeclined    = "declined"
)

// SubmissionGuard validates form-level anti-automation checks.
type SubmissionGuard interface {
	Validate(ctx context.Context, sub guard.Submission) error
}

// RiskEngine scores attempts and tracks per-identifier friction state.
type RiskEngine interface {
	CheckCooldown(ctx context.Context, identifier string) error
	Score(ctx context.Context, attempt *fraud.PaymentAttempt) (*fraud.Assessment, error)
	Friction(ctx context.Context, identifier string, score int) (*fraud.Friction, error)
	RecordDecline(ctx context.Context, identifier string) (int, error)
	ClearDeclines(ctx context.Context, identifier string) error
}

// CaptchaVerifier checks an interactive challenge response.
type CaptchaVerifier interface {
	Verify(ctx context.Context, responseToken, remoteIP string) error
}

// WorkTokenValidator checks a proof-of-work token against a scope.
type WorkTokenValidator interface {
	ValidateToken(tokenString, scope string) error
}

// PaymentProcessor is the external payment dependency. Charge must be safe
// to retry with the same idempotency key.
type PaymentProcessor interface {
	Charge(ctx context.Context, idempotencyKey string, attempt *fraud.PaymentAttempt) error
}

// Request is one gated submission.
type Request struct {
	Route      string
	Submission guard.Submission
	// Attempt, when set, routes the submission through risk scoring and
	// adaptive friction before the protected operation runs.
	Attempt      *fraud.PaymentAttempt
	WorkToken    string
	CaptchaToken string
	// Dependency names the breaker guarding the protected operation.
	// Empty means the payment dependency.
	Dependency string
}

// Decision tells the caller whether the operation ran or which gate must be
// satisfied first.
type Decision struct {
	Allowed      bool   `json:"allowed"`
	GateRequired bool   `json:"gate_required"`
	GateType     string `json:"gate_type,omitempty"`
	RiskScore    int    `json:"risk_score"`
}

// Service runs the gating pipeline.
type Service struct {
	guard     SubmissionGuard
	risk      RiskEngine
	captcha   CaptchaVerifier
	workToken WorkTokenValidator
	processor PaymentProcessor
	breakers  *circuit.Registry
	logger    *slog.Logger
	metrics   *metrics.Metrics
	audit     *audit.Publisher
	tracer    trace.Tracer
	now       func() time.Time
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

// WithCaptcha wires the captcha verifier used for captcha-tier step-ups.
func WithCaptcha(v CaptchaVerifier) Option {
	return func(s *Service) { s.captcha = v }
}

// WithProcessor wires the payment dependency.
func WithProcessor(p PaymentProcessor) Option {
	return func(s *Service) { s.processor = p }
}

// WithClock overrides the time source for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// New validates dependencies and creates the gate.
func New(g SubmissionGuard, risk RiskEngine, workToken WorkTokenValidator, breakers *circuit.Registry, opts ...Option) (*Service, error) {
	if g == nil {
		return nil, fmt.Errorf("submission guard is required")
	}
	if risk == nil {
		return nil, fmt.Errorf("risk engine is required")
	}
	if workToken == nil {
		return nil, fmt.Errorf("work token validator is required")
	}
	if breakers == nil {
		return nil, fmt.Errorf("breaker registry is required")
	}
	s := &Service{
		guard:     g,
		risk:      risk,
		workToken: workToken,
		breakers:  breakers,
		logger:    slog.Default(),
		tracer:    otel.Tracer("bastion/gate"),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// SubmitWithGate runs the full pipeline and, when every gate passes,
// executes op behind the payment breaker. The returned decision reports a
// required step-up when op was not run for friction reasons.
func (s *Service) SubmitWithGate(ctx context.Context, req *Request, op func(context.Context) error) (*Decision, error) {
	ctx, span := s.tracer.Start(ctx, "gate.submit",
		trace.WithAttributes(attribute.String("route", req.Route)))
	defer span.End()

	if err := s.guard.Validate(ctx, req.Submission); err != nil {
		s.count(req.Route, outcomeRejected)
		return nil, err
	}

	decision := &Decision{}
	if req.Attempt != nil {
		var err error
		decision, err = s.assess(ctx, req, span)
		if err != nil {
			return nil, err
		}
		if decision.GateRequired {
			s.count(req.Route, outcomeStepUp)
			return decision, nil
		}
	}

	if err := s.execute(ctx, req, op); err != nil {
		return nil, err
	}
	decision.Allowed = true
	s.count(req.Route, outcomeAllowed)
	return decision, nil
}

// SubmitPayment scores and gates one payment attempt and, when allowed,
// charges it through the processor with a deterministic idempotency key.
func (s *Service) SubmitPayment(ctx context.Context, req *Request) (*Decision, error) {
	if s.processor == nil {
		return nil, fmt.Errorf("no payment processor configured")
	}
	if req.Attempt == nil {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "payment attempt is required")
	}
	key := fraud.IdempotencyKey(req.Attempt.UserID, req.Attempt.Amount, s.now())
	return s.SubmitWithGate(ctx, req, func(ctx context.Context) error {
		return s.processor.Charge(ctx, key, req.Attempt)
	})
}

func (s *Service) assess(ctx context.Context, req *Request, span trace.Span) (*Decision, error) {
	identifier := req.Attempt.Identifier()

	if err := s.risk.CheckCooldown(ctx, identifier); err != nil {
		if dErrors.HasCode(err, dErrors.CodeCooldownActive) {
			s.count(req.Route, outcomeCooldown)
		}
		return nil, err
	}

	assessment, err := s.risk.Score(ctx, req.Attempt)
	if err != nil {
		return nil, fmt.Errorf("score attempt: %w", err)
	}
	span.SetAttributes(attribute.Int("risk.score", assessment.Score))
	decision := &Decision{RiskScore: assessment.Score}

	if assessment.Blocked {
		s.count(req.Route, outcomeBlocked)
		return nil, dErrors.New(dErrors.CodeRiskBlocked, "submission blocked by risk assessment")
	}

	friction, err := s.risk.Friction(ctx, identifier, assessment.Score)
	if err != nil {
		return nil, fmt.Errorf("friction decision: %w", err)
	}
	if friction.Cooldown > 0 {
		s.count(req.Route, outcomeCooldown)
		return nil, dErrors.New(dErrors.CodeCooldownActive, "too many risky attempts, try again later").
			WithRetryAfter(friction.Cooldown)
	}

	switch {
	case friction.RequireStepUp:
		// A valid work token satisfies the step-up; a captcha is not
		// strong enough at this tier.
		if req.WorkToken != "" && s.workToken.ValidateToken(req.WorkToken, req.Route) == nil {
			return decision, nil
		}
		decision.GateRequired = true
		decision.GateType = GatePow
	case friction.RequireCaptcha:
		if req.CaptchaToken != "" && s.captcha != nil {
			if err := s.captcha.Verify(ctx, req.CaptchaToken, req.Submission.IP); err == nil {
				return decision, nil
			}
		}
		// A work token also clears the captcha tier.
		if req.WorkToken != "" && s.workToken.ValidateToken(req.WorkToken, req.Route) == nil {
			return decision, nil
		}
		decision.GateRequired = true
		decision.GateType = GateCaptcha
	}
	return decision, nil
}

func (s *Service) execute(ctx context.Context, req *Request, op func(context.Context) error) error {
	dependency := req.Dependency
	if dependency == "" {
		dependency = PaymentBreakerName
	}
	err := s.breakers.Execute(dependency, func() error {
		return op(ctx)
	})
	if errors.Is(err, circuit.ErrOpen) {
		s.count(req.Route, outcomeCircuitOpen)
		s.emit(ctx, req, audit.ActionCircuitRejected, nil)
		return dErrors.New(dErrors.CodeCircuitOpen, "service temporarily unavailable due to repeated failures")
	}
	if err != nil {
		s.count(req.Route, outcomeDeclined)
		if req.Attempt != nil {
			if _, declineErr := s.risk.RecordDecline(ctx, req.Attempt.Identifier()); declineErr != nil {
				s.logger.ErrorContext(ctx, "record decline failed", "error", declineErr)
			}
			s.emit(ctx, req, audit.ActionPaymentDeclined, map[string]any{"error": err.Error()})
		}
		return fmt.Errorf("gated operation: %w", err)
	}
	if req.Attempt != nil {
		if clearErr := s.risk.ClearDeclines(ctx, req.Attempt.Identifier()); clearErr != nil {
			s.logger.ErrorContext(ctx, "clear declines failed", "error", clearErr)
		}
		s.emit(ctx, req, audit.ActionPaymentSucceeded, map[string]any{"amount": req.Attempt.Amount})
	}
	return nil
}

func (s *Service) count(route, outcome string) {
	if s.metrics != nil {
		s.metrics.RecordGatedRequest(route, outcome)
	}
}

func (s *Service) emit(ctx context.Context, req *Request, action string, metadata map[string]any) {
	if s.audit == nil {
		return
	}
	actor := ""
	if req.Attempt != nil {
		actor = req.Attempt.Identifier()
	}
	s.audit.Emit(ctx, audit.Entry{
		Actor:    actor,
		Action:   action,
		Target:   "route:" + req.Route,
		Metadata: metadata,
	})
}
