// Package metrics holds all Prometheus metrics for the gating subsystem.
// Metrics are constructed explicitly against an injected registry so tests
// can build isolated instances without cross-test pollution.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	UnauthorizedAttempts prometheus.Counter
	ForbiddenAttempts    prometheus.Counter
	RateLimitHits        prometheus.Counter
	CaptchaSuccess       prometheus.Counter
	CaptchaFailure       prometheus.Counter
	WebhookFailures      prometheus.Counter
	AuditDropped         prometheus.Counter
	ChallengesIssued     prometheus.Counter
	ChallengesVerified   prometheus.Counter
	ChallengesRejected   prometheus.Counter
	FraudBlocks          prometheus.Counter

	// GatedRequests counts hits per gated endpoint and outcome.
	GatedRequests *prometheus.CounterVec

	// PowSolveTime exposes the rolling mean client solve time in
	// milliseconds over the last 100 verified challenges.
	PowSolveTime prometheus.Gauge

	solveTimes *rollingAverage
}

// New creates and registers all metrics on the given registerer.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		UnauthorizedAttempts: factory.NewCounter(prometheus.CounterOpts{
			Name: "bastion_unauthorized_attempts_total",
			Help: "Total number of unauthorized (401) request attempts",
		}),
		ForbiddenAttempts: factory.NewCounter(prometheus.CounterOpts{
			Name: "bastion_forbidden_attempts_total",
			Help: "Total number of forbidden (403) request attempts",
		}),
		RateLimitHits: factory.NewCounter(prometheus.CounterOpts{
			Name: "bastion_rate_limit_hits_total",
			Help: "Total number of requests denied by the rate limiter",
		}),
		CaptchaSuccess: factory.NewCounter(prometheus.CounterOpts{
			Name: "bastion_captcha_success_total",
			Help: "Total number of successful captcha verifications",
		}),
		CaptchaFailure: factory.NewCounter(prometheus.CounterOpts{
			Name: "bastion_captcha_failure_total",
			Help: "Total number of failed captcha verifications",
		}),
		WebhookFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "bastion_webhook_failures_total",
			Help: "Total number of webhook delivery failures",
		}),
		AuditDropped: factory.NewCounter(prometheus.CounterOpts{
			Name: "bastion_audit_dropped_total",
			Help: "Total number of audit entries dropped (buffer full or store failure)",
		}),
		ChallengesIssued: factory.NewCounter(prometheus.CounterOpts{
			Name: "bastion_pow_challenges_issued_total",
			Help: "Total number of proof-of-work challenges issued",
		}),
		ChallengesVerified: factory.NewCounter(prometheus.CounterOpts{
			Name: "bastion_pow_challenges_verified_total",
			Help: "Total number of proof-of-work solutions verified successfully",
		}),
		ChallengesRejected: factory.NewCounter(prometheus.CounterOpts{
			Name: "bastion_pow_challenges_rejected_total",
			Help: "Total number of proof-of-work solutions rejected",
		}),
		FraudBlocks: factory.NewCounter(prometheus.CounterOpts{
			Name: "bastion_fraud_blocks_total",
			Help: "Total number of attempts blocked by risk scoring",
		}),
		GatedRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "bastion_gated_requests_total",
			Help: "Gated endpoint hits by route and outcome",
		}, []string{"route", "outcome"}),
		PowSolveTime: factory.NewGauge(prometheus.GaugeOpts{
			Name: "bastion_pow_average_solve_time_ms",
			Help: "Rolling mean proof-of-work solve time over the last 100 samples",
		}),
		solveTimes: newRollingAverage(100),
	}
}

// ObservePowSolveTime records one solve-time sample and updates the rolling
// mean gauge.
func (m *Metrics) ObservePowSolveTime(d time.Duration) {
	mean := m.solveTimes.Add(float64(d.Milliseconds()))
	m.PowSolveTime.Set(mean)
}

// RecordGatedRequest counts one hit on a gated route with its outcome.
func (m *Metrics) RecordGatedRequest(route, outcome string) {
	m.GatedRequests.WithLabelValues(route, outcome).Inc()
}
