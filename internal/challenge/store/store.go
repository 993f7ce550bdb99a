// Package store defines challenge persistence. Challenges are single-use:
// Take removes the challenge as it reads it, so a second verification attempt
// for the same ID cannot succeed.
package store

import (
	"context"

	"bastion/internal/challenge"
)

// Store holds pending challenges for their lifetime.
type Store interface {
	// Save persists a freshly issued challenge until its expiry.
	Save(ctx context.Context, ch *challenge.Challenge) error
	// Take atomically claims and removes a challenge. Returns
	// sentinel.ErrNotFound for unknown or already-consumed IDs.
	Take(ctx context.Context, id string) (*challenge.Challenge, error)
}
