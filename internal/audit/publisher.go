package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"bastion/internal/platform/logger"
	"bastion/internal/platform/metrics"
)

// Publisher is the write side of the audit trail. Emit never returns an
// error: audit logging is a side channel and must not become a point of
// failure for the primary operation.
type Publisher struct {
	store   Store
	logger  *slog.Logger
	metrics *metrics.Metrics
	inbox   chan Entry
	now     func() time.Time
}

type PublisherOption func(*Publisher)

// WithLogger sets the structured logger for failure reporting.
func WithLogger(log *slog.Logger) PublisherOption {
	return func(p *Publisher) { p.logger = log }
}

// WithMetrics wires the metrics collector for drop counting.
func WithMetrics(m *metrics.Metrics) PublisherOption {
	return func(p *Publisher) { p.metrics = m }
}

// WithBuffer enables asynchronous publishing through a bounded channel
// drained by a Worker. Without it, Emit appends synchronously.
func WithBuffer(size int) PublisherOption {
	return func(p *Publisher) {
		if size > 0 {
			p.inbox = make(chan Entry, size)
		}
	}
}

// WithClock overrides the time source for tests.
func WithClock(now func() time.Time) PublisherOption {
	return func(p *Publisher) { p.now = now }
}

// NewPublisher creates a publisher writing to the given store.
func NewPublisher(store Store, opts ...PublisherOption) *Publisher {
	p := &Publisher{
		store:  store,
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Emit records one audit entry. The entry's metadata is redacted before it
// leaves this method; the timestamp and ID are server-assigned.
func (p *Publisher) Emit(ctx context.Context, entry Entry) {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = p.now()
	}
	entry.Metadata = logger.RedactMetadata(entry.Metadata)

	if p.inbox != nil {
		select {
		case p.inbox <- entry:
		default:
			p.drop(ctx, entry, nil)
		}
		return
	}

	if err := p.store.Append(ctx, entry); err != nil {
		p.drop(ctx, entry, err)
	}
}

// Auth emits an entry under the auth namespace.
func (p *Publisher) Auth(ctx context.Context, action, actor, target string, metadata map[string]any) {
	p.Emit(ctx, Entry{Actor: actor, Action: NamespaceAuth + "." + action, Target: target, Metadata: metadata})
}

// Admin emits an entry under the admin namespace.
func (p *Publisher) Admin(ctx context.Context, action, actor, target string, metadata map[string]any) {
	p.Emit(ctx, Entry{Actor: actor, Action: NamespaceAdmin + "." + action, Target: target, Metadata: metadata})
}

// Payment emits an entry under the payment namespace.
func (p *Publisher) Payment(ctx context.Context, action, actor, target string, metadata map[string]any) {
	p.Emit(ctx, Entry{Actor: actor, Action: NamespacePayment + "." + action, Target: target, Metadata: metadata})
}

// DataAccess emits an entry under the data_access namespace.
func (p *Publisher) DataAccess(ctx context.Context, action, actor, target string, metadata map[string]any) {
	p.Emit(ctx, Entry{Actor: actor, Action: NamespaceDataAccess + "." + action, Target: target, Metadata: metadata})
}

func (p *Publisher) drop(ctx context.Context, entry Entry, cause error) {
	if p.metrics != nil {
		p.metrics.AuditDropped.Inc()
	}
	p.logger.ErrorContext(ctx, "audit entry dropped",
		"action", entry.Action,
		"target", entry.Target,
		"error", cause,
	)
}
