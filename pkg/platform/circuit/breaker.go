// Package circuit implements a three-state circuit breaker for fragile
// external dependencies. A breaker fails fast while a dependency is known
// bad instead of piling timeouts onto it.
package circuit

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// State is the breaker's position in the failure-isolation state machine.
type State int

const (
	// StateClosed allows all calls through.
	StateClosed State = iota
	// StateOpen rejects all calls until the reset timeout elapses.
	StateOpen
	// StateHalfOpen allows trial calls; one failure reopens, enough
	// consecutive successes close.
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half_open"
	default:
		return "unknown"
	}
}

// ErrOpen is returned when a call is rejected because the circuit is open.
// Callers distinguish it from the wrapped dependency's own errors with
// errors.Is so they can present a "temporarily unavailable" message.
var ErrOpen = errors.New("circuit open")

const (
	defaultFailureThreshold = 5
	defaultSuccessThreshold = 3
	defaultResetTimeout     = 30 * time.Second
)

// Breaker guards calls to one named dependency.
type Breaker struct {
	mu sync.Mutex

	name             string
	failureThreshold int
	successThreshold int
	resetTimeout     time.Duration
	now              func() time.Time

	state             State
	failureCount      int
	halfOpenSuccesses int
	lastFailureAt     time.Time
	nextAttemptAt     time.Time
}

// Option configures a Breaker.
type Option func(*Breaker)

// WithFailureThreshold sets how many consecutive failures open the circuit.
func WithFailureThreshold(n int) Option {
	return func(b *Breaker) {
		if n > 0 {
			b.failureThreshold = n
		}
	}
}

// WithSuccessThreshold sets how many consecutive half-open successes close
// the circuit.
func WithSuccessThreshold(n int) Option {
	return func(b *Breaker) {
		if n > 0 {
			b.successThreshold = n
		}
	}
}

// WithResetTimeout sets how long the circuit stays open before allowing a
// half-open trial call.
func WithResetTimeout(d time.Duration) Option {
	return func(b *Breaker) {
		if d > 0 {
			b.resetTimeout = d
		}
	}
}

// WithClock overrides the time source for tests.
func WithClock(now func() time.Time) Option {
	return func(b *Breaker) {
		if now != nil {
			b.now = now
		}
	}
}

// New creates a breaker for the named dependency.
func New(name string, opts ...Option) *Breaker {
	b := &Breaker{
		name:             name,
		failureThreshold: defaultFailureThreshold,
		successThreshold: defaultSuccessThreshold,
		resetTimeout:     defaultResetTimeout,
		now:              time.Now,
		state:            StateClosed,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Name returns the dependency name this breaker guards.
func (b *Breaker) Name() string { return b.name }

// Execute runs fn through the breaker. If the circuit is open and the reset
// timeout has not elapsed, fn is never invoked and the returned error wraps
// ErrOpen. fn's own error is passed through unchanged.
func (b *Breaker) Execute(fn func() error) error {
	if err := b.allow(); err != nil {
		return err
	}
	if err := fn(); err != nil {
		b.recordFailure()
		return err
	}
	b.recordSuccess()
	return nil
}

// allow decides whether a call may proceed, transitioning open circuits to
// half-open once the reset timeout has elapsed.
func (b *Breaker) allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateClosed, StateHalfOpen:
		return nil
	case StateOpen:
		if b.now().Before(b.nextAttemptAt) {
			return fmt.Errorf("%s: %w", b.name, ErrOpen)
		}
		b.state = StateHalfOpen
		b.halfOpenSuccesses = 0
		return nil
	default:
		return nil
	}
}

func (b *Breaker) recordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.lastFailureAt = b.now()
	switch b.state {
	case StateClosed:
		b.failureCount++
		if b.failureCount >= b.failureThreshold {
			b.open()
		}
	case StateHalfOpen:
		// A single trial failure sends the circuit straight back to open
		// with a fresh timer.
		b.open()
	case StateOpen:
		b.nextAttemptAt = b.now().Add(b.resetTimeout)
	}
}

func (b *Breaker) recordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateClosed:
		b.failureCount = 0
	case StateHalfOpen:
		b.halfOpenSuccesses++
		if b.halfOpenSuccesses >= b.successThreshold {
			b.close()
		}
	}
}

// open must be called while holding b.mu.
func (b *Breaker) open() {
	b.state = StateOpen
	b.halfOpenSuccesses = 0
	b.nextAttemptAt = b.now().Add(b.resetTimeout)
}

// close must be called while holding b.mu.
func (b *Breaker) close() {
	b.state = StateClosed
	b.failureCount = 0
	b.halfOpenSuccesses = 0
}

// State returns the current state.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// IsOpen reports whether the breaker currently rejects calls.
func (b *Breaker) IsOpen() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state == StateOpen && b.now().Before(b.nextAttemptAt)
}

// Status is a point-in-time snapshot for observability endpoints.
type Status struct {
	Name              string    `json:"name"`
	State             string    `json:"state"`
	FailureCount      int       `json:"failure_count"`
	HalfOpenSuccesses int       `json:"half_open_successes"`
	LastFailureAt     time.Time `json:"last_failure_at,omitzero"`
	NextAttemptAt     time.Time `json:"next_attempt_at,omitzero"`
}

// Status returns an operator-facing snapshot of the breaker.
func (b *Breaker) Status() Status {
	b.mu.Lock()
	defer b.mu.Unlock()
	return Status{
		Name:              b.name,
		State:             b.state.String(),
		FailureCount:      b.failureCount,
		HalfOpenSuccesses: b.halfOpenSuccesses,
		LastFailureAt:     b.lastFailureAt,
		NextAttemptAt:     b.nextAttemptAt,
	}
}

// Reset closes the circuit and clears all counters. Operator override.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.close()
}

// Trip forces the circuit open. Operator override for known-bad dependencies.
func (b *Breaker) Trip() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.open()
}
