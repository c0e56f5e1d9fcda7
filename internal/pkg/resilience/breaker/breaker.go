// Package breaker implements a circuit breaker that sheds load from a
// failing dependency and probes it for recovery after a cooldown.
package breaker

import (
	"context"
	"errors"
	"sync"
	"time"

	"addresswatch/internal/pkg/logger"
)

// ErrOpen is returned by Do while the breaker is rejecting calls.
var ErrOpen = errors.New("circuit breaker is open")

// State identifies the breaker's position in its lifecycle.
type State uint8

const (
	// StateClosed lets calls through and counts failures.
	StateClosed State = iota
	// StateOpen rejects calls until the recovery timeout elapses.
	StateOpen
	// StateHalfOpen lets probe calls through to test recovery.
	StateHalfOpen
)

// String returns a human-readable label for the state.
func (s State) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half_open"
	default:
		return "closed"
	}
}

const (
	defaultFailureThreshold = 5
	defaultRecoveryTimeout  = 60 * time.Second
)

// Option configures a Breaker.
type Option func(*Breaker)

// WithFailureThreshold sets how many accumulated failures trip the breaker.
func WithFailureThreshold(n int) Option {
	return func(b *Breaker) {
		b.threshold = n
	}
}

// WithRecoveryTimeout sets how long the breaker stays open before probing.
func WithRecoveryTimeout(d time.Duration) Option {
	return func(b *Breaker) {
		b.recovery = d
	}
}

// Breaker guards calls to a single dependency. While closed, each failure
// increments a counter and each success decrements it, so a dependency
// that mostly works never trips on scattered errors. Reaching the
// threshold opens the breaker; after the recovery timeout the next call
// is let through as a probe, and its outcome decides between closing
// again and another full cooldown. It is safe for concurrent use.
type Breaker struct {
	name      string
	threshold int
	recovery  time.Duration
	now       func() time.Time

	mu       sync.Mutex
	state    State
	failures int
	openedAt time.Time
}

// New creates a Breaker with the given name, applying any provided options.
func New(name string, opts ...Option) *Breaker {
	b := &Breaker{
		name:      name,
		threshold: defaultFailureThreshold,
		recovery:  defaultRecoveryTimeout,
		now:       time.Now,
	}

	for _, opt := range opts {
		opt(b)
	}

	return b
}

// Do executes fn if the breaker admits the call. When the breaker is open
// and the recovery timeout has not elapsed, it returns ErrOpen without
// invoking fn. The error returned by fn is passed through unchanged.
func (b *Breaker) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := b.admit(ctx); err != nil {
		return err
	}

	err := fn(ctx)
	b.record(ctx, err)
	return err
}

// admit decides whether a call may proceed, moving the breaker from open
// to half-open once the cooldown has passed.
func (b *Breaker) admit(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state != StateOpen {
		return nil
	}

	if b.now().Sub(b.openedAt) < b.recovery {
		return ErrOpen
	}

	b.state = StateHalfOpen
	logger.Info(ctx, "circuit breaker probing for recovery", "breaker", b.name)
	return nil
}

// record folds the call outcome into the breaker state.
func (b *Breaker) record(ctx context.Context, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err == nil {
		switch b.state {
		case StateHalfOpen:
			b.state = StateClosed
			b.failures = 0
			logger.Info(ctx, "circuit breaker closed", "breaker", b.name)
		case StateClosed:
			if b.failures > 0 {
				b.failures--
			}
		}
		return
	}

	switch b.state {
	case StateHalfOpen:
		b.trip(ctx)
	case StateClosed:
		b.failures++
		if b.failures >= b.threshold {
			b.trip(ctx)
		}
	}
}

// trip opens the breaker and starts the cooldown. Caller must hold the lock.
func (b *Breaker) trip(ctx context.Context) {
	b.state = StateOpen
	b.openedAt = b.now()
	logger.Warn(ctx, "circuit breaker opened", "breaker", b.name, "failures", b.failures, "recovery_timeout", b.recovery)
}

// State returns the breaker's current state.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Reset forces the breaker back to closed and clears the failure count.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = StateClosed
	b.failures = 0
}
