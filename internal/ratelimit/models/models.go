// Package models holds rate limiting domain types.
package models

import "time"

// Config names one limited operation and its quota.
type Config struct {
	// Key is the limited operation name, e.g. "form:contact" or "payment".
	Key string
	// MaxRequests is the quota within Window.
	MaxRequests int
	// Window is the measurement window.
	Window time.Duration
}

// Result is the outcome of one limiter decision.
type Result struct {
	Allowed   bool          `json:"allowed"`
	Limit     int           `json:"limit"`
	Remaining int           `json:"remaining"`
	ResetAt   time.Time     `json:"reset_at"`
	// RetryAfter is only set when the request is denied; it equals the
	// remaining window time.
	RetryAfter time.Duration `json:"retry_after,omitempty"`
}
