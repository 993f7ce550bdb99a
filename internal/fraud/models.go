// Package fraud scores payment attempts and decides how much friction to
// put in front of them. Scoring is additive over independent signals; the
// resulting tier decides between letting the attempt through, demanding a
// captcha or proof-of-work step-up, or blocking outright.
package fraud

import "time"

// PaymentAttempt is one attempted charge. Attempts are recorded append-only
// and feed velocity scoring for later attempts by the same user.
type PaymentAttempt struct {
	ID            string            `json:"id"`
	UserID        string            `json:"user_id"`
	Amount        float64           `json:"amount"`
	Currency      string            `json:"currency"`
	PaymentMethod string            `json:"payment_method"`
	IPAddress     string            `json:"ip_address"`
	UserAgent     string            `json:"user_agent"`
	Metadata      map[string]string `json:"metadata,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
}

// Identifier returns the velocity key for the attempt. Anonymous attempts
// share one bucket, which is deliberately strict.
func (a *PaymentAttempt) Identifier() string {
	if a.UserID == "" {
		return "anon"
	}
	return a.UserID
}

// Assessment is the scoring verdict for one attempt.
type Assessment struct {
	Score   int      `json:"score"`
	Reasons []string `json:"reasons"`
	Blocked bool     `json:"blocked"`
}

// Friction is the adaptive response for a below-block score. A step-up or
// captcha requirement is normal control flow, not an error.
type Friction struct {
	RequireCaptcha bool          `json:"require_captcha"`
	RequireStepUp  bool          `json:"require_step_up"`
	Cooldown       time.Duration `json:"cooldown,omitempty"`
}
