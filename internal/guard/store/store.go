// Package store defines action-token persistence. Tokens are single-use:
// Take removes the record as it reads it.
package store

import (
	"context"

	"bastion/internal/guard"
)

// TokenStore holds pending action tokens for their lifetime.
type TokenStore interface {
	// Save persists a freshly issued token until its expiry.
	Save(ctx context.Context, token *guard.ActionToken) error
	// Take atomically claims and removes a token. Returns
	// sentinel.ErrNotFound for unknown or already-consumed tokens.
	Take(ctx context.Context, token string) (*guard.ActionToken, error)
}
