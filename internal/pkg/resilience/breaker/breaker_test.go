package breaker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"addresswatch/internal/pkg/logger"
)

func init() {
	// Initialize logger for tests to prevent nil pointer dereference
	_ = logger.Init(logger.WithLevel("error")) // Use error level to reduce test output
}

var errBoom = errors.New("boom")

func failing(context.Context) error { return errBoom }

func succeeding(context.Context) error { return nil }

func TestBreakerDo(t *testing.T) {
	t.Run("stays closed below the failure threshold", func(t *testing.T) {
		b := New("test", WithFailureThreshold(3))

		for i := 0; i < 2; i++ {
			err := b.Do(t.Context(), failing)
			assert.ErrorIs(t, err, errBoom)
		}

		assert.Equal(t, StateClosed, b.State())
	})

	t.Run("opens at the failure threshold and rejects calls", func(t *testing.T) {
		b := New("test", WithFailureThreshold(3), WithRecoveryTimeout(time.Minute))

		for i := 0; i < 3; i++ {
			_ = b.Do(t.Context(), failing)
		}
		require.Equal(t, StateOpen, b.State())

		var called bool
		err := b.Do(t.Context(), func(context.Context) error {
			called = true
			return nil
		})

		assert.ErrorIs(t, err, ErrOpen)
		assert.False(t, called, "function must not run while the breaker is open")
	})

	t.Run("successes heal the failure count while closed", func(t *testing.T) {
		b := New("test", WithFailureThreshold(3))

		_ = b.Do(t.Context(), failing)
		_ = b.Do(t.Context(), failing)
		require.NoError(t, b.Do(t.Context(), succeeding))

		// The healed count leaves room for one more failure before tripping.
		_ = b.Do(t.Context(), failing)
		assert.Equal(t, StateClosed, b.State())

		_ = b.Do(t.Context(), failing)
		assert.Equal(t, StateOpen, b.State())
	})

	t.Run("probes after the recovery timeout and closes on success", func(t *testing.T) {
		now := time.Now()
		b := New("test", WithFailureThreshold(1), WithRecoveryTimeout(30*time.Second))
		b.now = func() time.Time { return now }

		_ = b.Do(t.Context(), failing)
		require.Equal(t, StateOpen, b.State())

		now = now.Add(31 * time.Second)

		err := b.Do(t.Context(), succeeding)
		require.NoError(t, err)
		assert.Equal(t, StateClosed, b.State())
	})

	t.Run("failed probe reopens for a full cooldown", func(t *testing.T) {
		now := time.Now()
		b := New("test", WithFailureThreshold(1), WithRecoveryTimeout(30*time.Second))
		b.now = func() time.Time { return now }

		_ = b.Do(t.Context(), failing)
		require.Equal(t, StateOpen, b.State())

		now = now.Add(31 * time.Second)
		err := b.Do(t.Context(), failing)
		require.ErrorIs(t, err, errBoom)
		assert.Equal(t, StateOpen, b.State())

		// Still inside the new cooldown window.
		now = now.Add(29 * time.Second)
		assert.ErrorIs(t, b.Do(t.Context(), succeeding), ErrOpen)

		now = now.Add(2 * time.Second)
		assert.NoError(t, b.Do(t.Context(), succeeding))
		assert.Equal(t, StateClosed, b.State())
	})
}

func TestBreakerReset(t *testing.T) {
	b := New("test", WithFailureThreshold(1), WithRecoveryTimeout(time.Hour))

	_ = b.Do(t.Context(), failing)
	require.Equal(t, StateOpen, b.State())

	b.Reset()
	assert.Equal(t, StateClosed, b.State())
	assert.NoError(t, b.Do(t.Context(), succeeding))
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "closed", StateClosed.String())
	assert.Equal(t, "open", StateOpen.String())
	assert.Equal(t, "half_open", StateHalfOpen.String())
}
