// Package derrors defines coded domain errors. Services return these so
// transports and tests can branch on the code instead of matching strings.
package derrors

import (
	"errors"
	"fmt"
	"time"
)

// Code identifies a class of domain error. The set is closed: handlers map
// every code to exactly one HTTP status and user-facing message.
type Code string

const (
	CodeBadRequest         Code = "bad_request"
	CodeInvalidInput       Code = "invalid_input"
	CodeInvariantViolation Code = "invariant_violation"
	CodeNotFound           Code = "not_found"
	CodeUnauthorized       Code = "unauthorized"
	CodeForbidden          Code = "forbidden"
	CodeConflict           Code = "conflict"
	CodeUnavailable        Code = "unavailable"
	CodeInternal           Code = "internal"

	// Gating rejections. Honeypot, timing, and token failures deliberately
	// collapse to one generic client-facing message so automated callers
	// cannot learn which check tripped.
	CodeHoneypotTriggered Code = "honeypot_triggered"
	CodeTimingTooFast     Code = "timing_too_fast"
	CodeTokenMissing      Code = "token_missing"
	CodeRateLimited       Code = "rate_limited"
	CodeRiskBlocked       Code = "risk_blocked"
	CodeCooldownActive    Code = "cooldown_active"
	CodeChallengeExpired  Code = "challenge_expired"
	CodeChallengeInvalid  Code = "challenge_invalid"
	CodeCircuitOpen       Code = "circuit_open"
)

// Error is a domain error with a code, a message, and an optional cause.
type Error struct {
	Code    Code
	Message string

	// RetryAfter is set on rate-limit and cooldown rejections so transports
	// can disclose the wait to legitimate users.
	RetryAfter time.Duration

	cause error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// New creates a domain error with the given code and message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf creates a domain error with a formatted message.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates a domain error that wraps an underlying cause.
func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, cause: cause}
}

// WithRetryAfter returns a copy of the error carrying a retry-after hint.
func (e *Error) WithRetryAfter(d time.Duration) *Error {
	clone := *e
	clone.RetryAfter = d
	return &clone
}

// HasCode reports whether err (or anything it wraps) carries the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// CodeOf extracts the domain code from err, defaulting to CodeInternal for
// errors that did not originate in domain logic.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// RetryAfterOf extracts the retry-after hint from err, if any.
func RetryAfterOf(err error) time.Duration {
	var de *Error
	if errors.As(err, &de) {
		return de.RetryAfter
	}
	return 0
}
