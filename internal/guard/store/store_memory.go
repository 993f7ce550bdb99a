package store

import (
	"context"
	"sync"
	"time"

	"bastion/internal/guard"
	"bastion/pkg/platform/sentinel"
)

// InMemoryStore keeps action tokens in process memory. Expired entries are
// swept opportunistically on Save.
type InMemoryStore struct {
	mu     sync.Mutex
	tokens map[string]*guard.ActionToken
	now    func() time.Time
}

// NewInMemoryStore creates an empty in-memory token store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		tokens: make(map[string]*guard.ActionToken),
		now:    time.Now,
	}
}

// WithClock overrides the time source for tests.
func (s *InMemoryStore) WithClock(now func() time.Time) *InMemoryStore {
	s.now = now
	return s
}

// Save persists the token and sweeps expired entries.
func (s *InMemoryStore) Save(ctx context.Context, token *guard.ActionToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for key, pending := range s.tokens {
		if pending.Expired(now) {
			delete(s.tokens, key)
		}
	}

	cp := *token
	s.tokens[token.Token] = &cp
	return nil
}

// Take claims and removes the token in one step under the store lock.
func (s *InMemoryStore) Take(ctx context.Context, token string) (*guard.ActionToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.tokens[token]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	delete(s.tokens, token)
	cp := *record
	return &cp, nil
}

// Len returns the number of pending tokens, for tests.
func (s *InMemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tokens)
}
