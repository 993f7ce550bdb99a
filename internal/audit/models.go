// Package audit provides the append-only audit trail. Writes are best
// effort: a failed audit write is reported through the structured logger and
// metrics, never surfaced to the business operation that emitted it.
package audit

import "time"

// Entry is one immutable audit record. Rows are never updated or deleted by
// application code.
type Entry struct {
	ID        string         `json:"id"`
	Actor     string         `json:"actor,omitempty"`
	Action    string         `json:"action"` // namespaced, e.g. "payment.fraud_blocked"
	Target    string         `json:"target"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	CreatedAt time.Time      `json:"created_at"` // server-assigned
}

// Action namespaces. Convenience emitters prefix actions with these.
const (
	NamespaceAuth       = "auth"
	NamespaceAdmin      = "admin"
	NamespacePayment    = "payment"
	NamespaceDataAccess = "data_access"
	NamespaceSecurity   = "security"
)

// Well-known actions emitted by the gating pipeline.
const (
	ActionFraudBlocked      = "payment.fraud_blocked"
	ActionRiskScored        = "payment.risk_scored"
	ActionCooldownRejected  = "payment.cooldown_rejected"
	ActionPaymentDeclined   = "payment.declined"
	ActionPaymentSucceeded  = "payment.succeeded"
	ActionCircuitRejected   = "payment.circuit_rejected"
	ActionHoneypotTripped   = "security.honeypot_tripped"
	ActionTimingRejected    = "security.timing_rejected"
	ActionTokenRejected     = "security.token_rejected"
	ActionRateLimitExceeded = "security.rate_limit_exceeded"
	ActionChallengeIssued   = "security.challenge_issued"
	ActionChallengeVerified = "security.challenge_verified"
	ActionChallengeRejected = "security.challenge_rejected"
	ActionBreakerReset      = "admin.breaker_reset"
	ActionBreakerTripped    = "admin.breaker_tripped"
)
