package audit

import (
	"context"
	"log/slog"
)

// Worker drains a publisher's inbox into the store. Store failures are
// logged and dropped, never retried into the hot path: the durable trail is
// best effort by contract.
type Worker struct {
	store  Store
	inbox  <-chan Entry
	logger *slog.Logger
}

// NewWorker creates a worker for a publisher constructed with WithBuffer.
func NewWorker(store Store, publisher *Publisher, logger *slog.Logger) *Worker {
	return &Worker{store: store, inbox: publisher.inbox, logger: logger}
}

// Run processes entries until ctx is done, then drains what is already
// buffered before returning.
func (w *Worker) Run(ctx context.Context) error {
	if w.inbox == nil {
		<-ctx.Done()
		return ctx.Err()
	}
	for {
		select {
		case <-ctx.Done():
			w.drain()
			return ctx.Err()
		case entry := <-w.inbox:
			w.append(entry)
		}
	}
}

func (w *Worker) drain() {
	for {
		select {
		case entry := <-w.inbox:
			w.append(entry)
		default:
			return
		}
	}
}

func (w *Worker) append(entry Entry) {
	// Detached context: the request that emitted this entry may be gone.
	if err := w.store.Append(context.Background(), entry); err != nil {
		w.logger.Error("audit worker append failed", "action", entry.Action, "error", err)
	}
}
