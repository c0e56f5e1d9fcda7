// Package retry executes operations with exponential backoff and keeps
// aggregate statistics about failures and recoveries.
package retry

import (
	"context"
	"math"
	"math/rand/v2"
	"sync"
	"time"

	avastretry "github.com/avast/retry-go/v4"

	"addresswatch/internal/pkg/logger"
	"addresswatch/internal/pkg/resilience"
)

// Policy describes how an operation is retried.
type Policy struct {
	// MaxAttempts is the total number of tries, the first call included.
	MaxAttempts uint
	// BaseDelay is the wait before the first retry.
	BaseDelay time.Duration
	// MaxDelay caps the computed backoff before jitter is applied.
	MaxDelay time.Duration
	// Multiplier grows the delay between consecutive retries.
	Multiplier float64
	// Jitter scales each delay by a uniform factor in [0.5, 1.0] so
	// concurrent callers do not retry in lockstep.
	Jitter bool
	// RetryKinds is the set of failure kinds worth another attempt.
	// When empty, kinds reporting Retryable() are retried.
	RetryKinds []resilience.Kind
}

// Retries reports whether a failure of the given kind should be retried
// under this policy.
func (p Policy) Retries(k resilience.Kind) bool {
	if len(p.RetryKinds) == 0 {
		return k.Retryable()
	}
	for _, rk := range p.RetryKinds {
		if rk == k {
			return true
		}
	}
	return false
}

// Delay returns the backoff for the given retry attempt (zero-based),
// before jitter. It is exposed so the schedule can be asserted directly.
func (p Policy) Delay(attempt uint) time.Duration {
	d := float64(p.BaseDelay) * math.Pow(p.Multiplier, float64(attempt))
	if capped := float64(p.MaxDelay); d > capped {
		d = capped
	}
	return time.Duration(d)
}

// Preset policies tuned per failure surface.
var (
	// NetworkPolicy suits RPC and HTTP calls to remote nodes.
	NetworkPolicy = Policy{MaxAttempts: 3, BaseDelay: time.Second, MaxDelay: 30 * time.Second, Multiplier: 2, Jitter: true}
	// APIPolicy suits rate-limited exchange endpoints, backing off harder.
	APIPolicy = Policy{MaxAttempts: 3, BaseDelay: 2 * time.Second, MaxDelay: 60 * time.Second, Multiplier: 2.5, Jitter: true}
	// StoragePolicy suits local storage hiccups, which clear quickly or not at all.
	StoragePolicy = Policy{MaxAttempts: 2, BaseDelay: 500 * time.Millisecond, MaxDelay: 5 * time.Second, Multiplier: 2, Jitter: true}
	// CriticalPolicy is for operations that must not give up early.
	CriticalPolicy = Policy{MaxAttempts: 5, BaseDelay: time.Second, MaxDelay: 120 * time.Second, Multiplier: 2, Jitter: true}
)

// errorRecordLimit bounds the in-memory history of observed failures.
const errorRecordLimit = 1000

// Record captures one failed attempt for later inspection.
type Record struct {
	Op        string
	Kind      resilience.Kind
	Attempt   uint
	Err       error
	Timestamp time.Time
}

// Stats aggregates outcomes across every operation run through a Caller.
type Stats struct {
	TotalErrors uint64
	Retried     uint64
	Recovered   uint64
	Fatal       uint64
}

// RecoveryRate is the share of observed failures that a later attempt
// recovered from, in percent. With no failures observed it reports 100.
func (s Stats) RecoveryRate() float64 {
	if s.TotalErrors == 0 {
		return 100
	}
	return float64(s.Recovered) / float64(s.TotalErrors) * 100
}

// Caller runs operations under a retry policy and records their outcomes.
// It is safe for concurrent use.
type Caller struct {
	policy Policy

	mu      sync.Mutex
	stats   Stats
	records []Record
	next    int
	full    bool
}

// NewCaller creates a Caller with the given policy.
func NewCaller(policy Policy) *Caller {
	return &Caller{
		policy:  policy,
		records: make([]Record, 0, 64),
	}
}

// Do runs fn under the caller's policy. Only failures whose kind is
// retryable are attempted again. The last error is returned when all
// attempts are exhausted.
func (c *Caller) Do(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	var attempt uint

	err := avastretry.Do(
		func() error {
			err := fn(ctx)
			if err != nil {
				c.observe(op, attempt, err)
			}
			attempt++
			return err
		},
		avastretry.Context(ctx),
		avastretry.Attempts(c.policy.MaxAttempts),
		avastretry.LastErrorOnly(true),
		avastretry.RetryIf(func(err error) bool {
			return c.policy.Retries(resilience.KindOf(err))
		}),
		avastretry.DelayType(func(n uint, _ error, _ *avastretry.Config) time.Duration {
			d := c.policy.Delay(n)
			if c.policy.Jitter {
				d = time.Duration(float64(d) * (0.5 + rand.Float64()*0.5))
			}
			return d
		}),
		avastretry.OnRetry(func(n uint, err error) {
			logger.Warn(ctx, "operation failed, retrying",
				"op", op,
				"attempt", n+1,
				"kind", resilience.KindOf(err).String(),
				"error", err,
			)
		}),
	)

	c.settle(attempt, err)
	return err
}

// DoWithFallback runs fn like Do, and when every attempt fails it invokes
// fallback with the final error. The fallback's outcome becomes the result.
func (c *Caller) DoWithFallback(ctx context.Context, op string, fn func(ctx context.Context) error, fallback func(ctx context.Context, cause error) error) error {
	err := c.Do(ctx, op, fn)
	if err == nil {
		return nil
	}

	logger.Warn(ctx, "all attempts exhausted, running fallback", "op", op, "error", err)
	return fallback(ctx, err)
}

// observe records a single failed attempt.
func (c *Caller) observe(op string, attempt uint, err error) {
	rec := Record{
		Op:        op,
		Kind:      resilience.KindOf(err),
		Attempt:   attempt,
		Err:       err,
		Timestamp: time.Now(),
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.stats.TotalErrors++

	if c.full {
		c.records[c.next] = rec
		c.next = (c.next + 1) % errorRecordLimit
		return
	}

	c.records = append(c.records, rec)
	if len(c.records) == errorRecordLimit {
		c.full = true
		c.next = 0
	}
}

// settle folds the final outcome of one Do call into the stats.
// attempts is the number of calls made to fn.
func (c *Caller) settle(attempts uint, err error) {
	if attempts <= 1 && err == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if attempts > 1 {
		c.stats.Retried++
		if err == nil {
			c.stats.Recovered++
		}
	}
	if err != nil {
		c.stats.Fatal++
	}
}

// Stats returns a copy of the aggregate counters.
func (c *Caller) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

// Recent returns the stored failure records, oldest first.
func (c *Caller) Recent() []Record {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.full {
		out := make([]Record, len(c.records))
		copy(out, c.records)
		return out
	}

	out := make([]Record, 0, errorRecordLimit)
	out = append(out, c.records[c.next:]...)
	out = append(out, c.records[:c.next]...)
	return out
}
