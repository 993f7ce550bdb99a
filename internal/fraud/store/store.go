// Package store persists payment attempts and per-identifier fraud state.
// Attempts are append-only; velocity queries count backwards from now.
package store

import (
	"context"
	"time"

	"bastion/internal/fraud"
)

// AttemptStore records scored attempts and answers velocity queries.
type AttemptStore interface {
	// Record appends one attempt. Attempts are never updated or deleted.
	Record(ctx context.Context, attempt *fraud.PaymentAttempt) error
	// CountSince returns the number of attempts for the identifier with
	// CreatedAt at or after since.
	CountSince(ctx context.Context, identifier string, since time.Time) (int, error)
}

// StateStore tracks decline counts and active cooldowns per identifier.
type StateStore interface {
	// RecordDecline increments the decline count and returns the new value.
	RecordDecline(ctx context.Context, identifier string) (int, error)
	// DeclineCount returns the current decline count.
	DeclineCount(ctx context.Context, identifier string) (int, error)
	// ClearDeclines resets the decline count after a successful charge.
	ClearDeclines(ctx context.Context, identifier string) error
	// StartCooldown refuses further attempts for the identifier until the
	// given time.
	StartCooldown(ctx context.Context, identifier string, until time.Time) error
	// CooldownUntil returns the active cooldown deadline, or the zero time
	// when none is active.
	CooldownUntil(ctx context.Context, identifier string) (time.Time, error)
}
