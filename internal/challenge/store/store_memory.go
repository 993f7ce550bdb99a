package store

import (
	"context"
	"sync"
	"time"

	"bastion/internal/challenge"
	"bastion/pkg/platform/sentinel"
)

// InMemoryStore keeps pending challenges in process memory. Expired entries
// are swept opportunistically on Save so no background goroutine is needed.
type InMemoryStore struct {
	mu         sync.Mutex
	challenges map[string]*challenge.Challenge
	now        func() time.Time
}

// NewInMemoryStore creates an empty in-memory challenge store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		challenges: make(map[string]*challenge.Challenge),
		now:        time.Now,
	}
}

// WithClock overrides the time source for tests.
func (s *InMemoryStore) WithClock(now func() time.Time) *InMemoryStore {
	s.now = now
	return s
}

// Save persists the challenge and sweeps expired entries.
func (s *InMemoryStore) Save(ctx context.Context, ch *challenge.Challenge) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for id, pending := range s.challenges {
		if pending.Expired(now) {
			delete(s.challenges, id)
		}
	}

	cp := *ch
	s.challenges[ch.ID] = &cp
	return nil
}

// Take claims and removes the challenge in one step under the store lock.
func (s *InMemoryStore) Take(ctx context.Context, id string) (*challenge.Challenge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch, ok := s.challenges[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	delete(s.challenges, id)
	cp := *ch
	return &cp, nil
}

// Len returns the number of pending challenges, for tests.
func (s *InMemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.challenges)
}
