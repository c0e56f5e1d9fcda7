package retry

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"addresswatch/internal/pkg/logger"
	"addresswatch/internal/pkg/resilience"
)

func init() {
	// Initialize logger for tests to prevent nil pointer dereference
	_ = logger.Init(logger.WithLevel("error")) // Use error level to reduce test output
}

func fastPolicy(attempts uint) Policy {
	return Policy{
		MaxAttempts: attempts,
		BaseDelay:   time.Millisecond,
		MaxDelay:    4 * time.Millisecond,
		Multiplier:  2,
	}
}

func TestPolicyDelay(t *testing.T) {
	p := Policy{
		MaxAttempts: 5,
		BaseDelay:   time.Second,
		MaxDelay:    5 * time.Second,
		Multiplier:  2,
	}

	assert.Equal(t, time.Second, p.Delay(0))
	assert.Equal(t, 2*time.Second, p.Delay(1))
	assert.Equal(t, 4*time.Second, p.Delay(2))
	assert.Equal(t, 5*time.Second, p.Delay(3), "delay should be capped at MaxDelay")
	assert.Equal(t, 5*time.Second, p.Delay(10))
}

func TestCallerDo(t *testing.T) {
	t.Run("succeeds on first attempt", func(t *testing.T) {
		c := NewCaller(fastPolicy(3))

		var calls int
		err := c.Do(t.Context(), "noop", func(context.Context) error {
			calls++
			return nil
		})

		require.NoError(t, err)
		assert.Equal(t, 1, calls)
		assert.Equal(t, Stats{}, c.Stats())
	})

	t.Run("recovers after transient failures", func(t *testing.T) {
		c := NewCaller(fastPolicy(3))

		var calls int
		err := c.Do(t.Context(), "flaky", func(context.Context) error {
			calls++
			if calls < 3 {
				return resilience.Transient("flaky", errors.New("connection reset"))
			}
			return nil
		})

		require.NoError(t, err)
		assert.Equal(t, 3, calls)

		stats := c.Stats()
		assert.Equal(t, uint64(2), stats.TotalErrors)
		assert.Equal(t, uint64(1), stats.Retried)
		assert.Equal(t, uint64(1), stats.Recovered)
		assert.Equal(t, uint64(0), stats.Fatal)
		assert.InDelta(t, 50, stats.RecoveryRate(), 0.001, "one of the two failed attempts recovered")
	})

	t.Run("does not retry validation failures", func(t *testing.T) {
		c := NewCaller(fastPolicy(3))

		var calls int
		err := c.Do(t.Context(), "bad-input", func(context.Context) error {
			calls++
			return resilience.Validation("bad-input", errors.New("malformed payload"))
		})

		require.Error(t, err)
		assert.Equal(t, 1, calls)

		stats := c.Stats()
		assert.Equal(t, uint64(1), stats.TotalErrors)
		assert.Equal(t, uint64(0), stats.Retried)
		assert.Equal(t, uint64(1), stats.Fatal)
		assert.InDelta(t, 0, stats.RecoveryRate(), 0.001, "a failure that was never retried cannot count as recovered")
	})

	t.Run("does not retry data-unavailable failures", func(t *testing.T) {
		c := NewCaller(fastPolicy(3))

		var calls int
		err := c.Do(t.Context(), "empty", func(context.Context) error {
			calls++
			return resilience.DataUnavailable("empty", errors.New("no rows"))
		})

		require.Error(t, err)
		assert.Equal(t, 1, calls, "caller should degrade immediately instead of retrying")
	})

	t.Run("honors a custom retried-kind set", func(t *testing.T) {
		p := fastPolicy(3)
		p.RetryKinds = []resilience.Kind{resilience.KindDataUnavailable}
		c := NewCaller(p)

		var calls int
		err := c.Do(t.Context(), "lagging", func(context.Context) error {
			calls++
			if calls < 2 {
				return resilience.DataUnavailable("lagging", errors.New("not indexed yet"))
			}
			return nil
		})

		require.NoError(t, err)
		assert.Equal(t, 2, calls)
	})

	t.Run("exhausts attempts and returns last error", func(t *testing.T) {
		c := NewCaller(fastPolicy(3))

		var calls int
		err := c.Do(t.Context(), "down", func(context.Context) error {
			calls++
			return resilience.Transient("down", fmt.Errorf("attempt %d", calls))
		})

		require.Error(t, err)
		assert.Equal(t, 3, calls)
		assert.ErrorContains(t, err, "attempt 3")

		stats := c.Stats()
		assert.Equal(t, uint64(3), stats.TotalErrors)
		assert.Equal(t, uint64(1), stats.Retried)
		assert.Equal(t, uint64(0), stats.Recovered)
		assert.Equal(t, uint64(1), stats.Fatal)
		assert.InDelta(t, 0, stats.RecoveryRate(), 0.001)
	})
}

func TestCallerDoWithFallback(t *testing.T) {
	t.Run("fallback not invoked on success", func(t *testing.T) {
		c := NewCaller(fastPolicy(2))

		var fallbackCalled bool
		err := c.DoWithFallback(t.Context(), "ok",
			func(context.Context) error { return nil },
			func(context.Context, error) error {
				fallbackCalled = true
				return nil
			},
		)

		require.NoError(t, err)
		assert.False(t, fallbackCalled)
	})

	t.Run("fallback receives final error", func(t *testing.T) {
		c := NewCaller(fastPolicy(2))
		cause := resilience.Transient("down", errors.New("still down"))

		var got error
		err := c.DoWithFallback(t.Context(), "down",
			func(context.Context) error { return cause },
			func(_ context.Context, err error) error {
				got = err
				return nil
			},
		)

		require.NoError(t, err)
		assert.ErrorIs(t, got, cause)
	})
}

func TestCallerRecent(t *testing.T) {
	t.Run("returns failures oldest first", func(t *testing.T) {
		c := NewCaller(fastPolicy(1))

		for i := 0; i < 3; i++ {
			op := fmt.Sprintf("op-%d", i)
			_ = c.Do(t.Context(), op, func(context.Context) error {
				return resilience.Fatal(op, errors.New("boom"))
			})
		}

		recent := c.Recent()
		require.Len(t, recent, 3)
		assert.Equal(t, "op-0", recent[0].Op)
		assert.Equal(t, "op-2", recent[2].Op)
	})

	t.Run("history is bounded and keeps newest entries", func(t *testing.T) {
		c := NewCaller(fastPolicy(1))

		for i := 0; i < errorRecordLimit+5; i++ {
			op := fmt.Sprintf("op-%d", i)
			_ = c.Do(t.Context(), op, func(context.Context) error {
				return resilience.Fatal(op, errors.New("boom"))
			})
		}

		recent := c.Recent()
		require.Len(t, recent, errorRecordLimit)
		assert.Equal(t, "op-5", recent[0].Op)
		assert.Equal(t, fmt.Sprintf("op-%d", errorRecordLimit+4), recent[errorRecordLimit-1].Op)
	})
}

func TestStatsRecoveryRate(t *testing.T) {
	assert.InDelta(t, 100, Stats{}.RecoveryRate(), 0.001, "no failures means nothing failed to recover")
	assert.InDelta(t, 50, Stats{TotalErrors: 4, Recovered: 2}.RecoveryRate(), 0.001)
	assert.InDelta(t, 0, Stats{TotalErrors: 1}.RecoveryRate(), 0.001, "an unrecovered failure drops the rate to zero")
}
