package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"bastion/internal/fraud"
)

// PostgresAttemptStore is the durable record of every scored attempt. The
// table is append-only: this store issues INSERT and SELECT statements
// only, and the schema grants no DELETE to the application role.
//
// Schema:
//
//	CREATE TABLE payment_attempts (
//	    id             UUID PRIMARY KEY,
//	    user_id        TEXT NOT NULL DEFAULT '',
//	    amount         NUMERIC(12,2) NOT NULL,
//	    currency       TEXT NOT NULL DEFAULT 'usd',
//	    payment_method TEXT NOT NULL DEFAULT '',
//	    ip_address     TEXT NOT NULL DEFAULT '',
//	    user_agent     TEXT NOT NULL DEFAULT '',
//	    metadata       JSONB,
//	    created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
//	);
//	CREATE INDEX payment_attempts_user_created ON payment_attempts (user_id, created_at);
type PostgresAttemptStore struct {
	pool *pgxpool.Pool
}

// NewPostgresAttemptStore creates a postgres-backed attempt store.
func NewPostgresAttemptStore(pool *pgxpool.Pool) *PostgresAttemptStore {
	return &PostgresAttemptStore{pool: pool}
}

func (s *PostgresAttemptStore) Record(ctx context.Context, attempt *fraud.PaymentAttempt) error {
	id := attempt.ID
	if id == "" {
		id = uuid.NewString()
	}
	createdAt := attempt.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	var metadata []byte
	if attempt.Metadata != nil {
		var err error
		metadata, err = json.Marshal(attempt.Metadata)
		if err != nil {
			return fmt.Errorf("marshal attempt metadata: %w", err)
		}
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO payment_attempts (id, user_id, amount, currency, payment_method, ip_address, user_agent, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, id, attempt.UserID, attempt.Amount, attempt.Currency, attempt.PaymentMethod,
		attempt.IPAddress, attempt.UserAgent, metadata, createdAt)
	if err != nil {
		return fmt.Errorf("insert payment attempt: %w", err)
	}
	return nil
}

func (s *PostgresAttemptStore) CountSince(ctx context.Context, identifier string, since time.Time) (int, error) {
	userID := identifier
	if identifier == "anon" {
		userID = ""
	}
	var count int
	err := s.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM payment_attempts
		WHERE user_id = $1 AND created_at >= $2
	`, userID, since).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count payment attempts: %w", err)
	}
	return count, nil
}
