package main

import (
	"context"
	"log/slog"

	"bastion/internal/fraud"
)

// acceptingProcessor is the development stand-in for the payment service
// provider client. It accepts every charge; the real PSP integration
// replaces it behind gate.PaymentProcessor without touching the pipeline.
type acceptingProcessor struct {
	logger *slog.Logger
}

func newAcceptingProcessor(logger *slog.Logger) *acceptingProcessor {
	return &acceptingProcessor{logger: logger}
}

func (p *acceptingProcessor) Charge(ctx context.Context, idempotencyKey string, attempt *fraud.PaymentAttempt) error {
	p.logger.InfoContext(ctx, "charge accepted",
		"idempotency_key", idempotencyKey,
		"user_id", attempt.UserID,
		"amount", attempt.Amount,
		"currency", attempt.Currency,
	)
	return nil
}
