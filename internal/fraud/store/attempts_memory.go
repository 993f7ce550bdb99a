package store

import (
	"context"
	"sync"
	"time"

	"bastion/internal/fraud"
)

// InMemoryAttemptStore keeps attempts in process memory with a retention
// window. It is the fallback when neither redis nor postgres is configured
// and is only velocity-correct for a single instance.
type InMemoryAttemptStore struct {
	mu        sync.Mutex
	attempts  map[string][]time.Time
	retention time.Duration
	now       func() time.Time
}

// NewInMemoryAttemptStore creates a store retaining attempts for the given
// window.
func NewInMemoryAttemptStore(retention time.Duration) *InMemoryAttemptStore {
	if retention <= 0 {
		retention = time.Hour
	}
	return &InMemoryAttemptStore{
		attempts:  make(map[string][]time.Time),
		retention: retention,
		now:       time.Now,
	}
}

// WithClock overrides the time source for tests.
func (s *InMemoryAttemptStore) WithClock(now func() time.Time) *InMemoryAttemptStore {
	s.now = now
	return s
}

// Record appends the attempt and prunes entries past retention.
func (s *InMemoryAttemptStore) Record(ctx context.Context, attempt *fraud.PaymentAttempt) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := attempt.Identifier()
	cutoff := s.now().Add(-s.retention)
	kept := s.attempts[id][:0]
	for _, at := range s.attempts[id] {
		if at.After(cutoff) {
			kept = append(kept, at)
		}
	}
	createdAt := attempt.CreatedAt
	if createdAt.IsZero() {
		createdAt = s.now()
	}
	s.attempts[id] = append(kept, createdAt)
	return nil
}

// CountSince counts attempts at or after since.
func (s *InMemoryAttemptStore) CountSince(ctx context.Context, identifier string, since time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for _, at := range s.attempts[identifier] {
		if !at.Before(since) {
			count++
		}
	}
	return count, nil
}
