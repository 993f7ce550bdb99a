package store

import (
	"context"
	"sync"
	"time"
)

// InMemoryStateStore tracks declines and cooldowns in process memory.
type InMemoryStateStore struct {
	mu        sync.Mutex
	declines  map[string]int
	cooldowns map[string]time.Time
	now       func() time.Time
}

// NewInMemoryStateStore creates an empty in-memory state store.
func NewInMemoryStateStore() *InMemoryStateStore {
	return &InMemoryStateStore{
		declines:  make(map[string]int),
		cooldowns: make(map[string]time.Time),
		now:       time.Now,
	}
}

// WithClock overrides the time source for tests.
func (s *InMemoryStateStore) WithClock(now func() time.Time) *InMemoryStateStore {
	s.now = now
	return s
}

func (s *InMemoryStateStore) RecordDecline(ctx context.Context, identifier string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.declines[identifier]++
	return s.declines[identifier], nil
}

func (s *InMemoryStateStore) DeclineCount(ctx context.Context, identifier string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.declines[identifier], nil
}

func (s *InMemoryStateStore) ClearDeclines(ctx context.Context, identifier string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.declines, identifier)
	return nil
}

func (s *InMemoryStateStore) StartCooldown(ctx context.Context, identifier string, until time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cooldowns[identifier] = until
	return nil
}

func (s *InMemoryStateStore) CooldownUntil(ctx context.Context, identifier string) (time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	until, ok := s.cooldowns[identifier]
	if !ok || !until.After(s.now()) {
		delete(s.cooldowns, identifier)
		return time.Time{}, nil
	}
	return until, nil
}
