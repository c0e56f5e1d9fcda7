package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
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

func TestSchedulerStart(t *testing.T) {
	t.Run("runs registered jobs on their cadence", func(t *testing.T) {
		s := New()

		var runs atomic.Int32
		require.NoError(t, s.Register("tick", 10*time.Millisecond, func(context.Context) error {
			runs.Add(1)
			return nil
		}))

		require.NoError(t, s.Start(t.Context()))
		defer s.Close()

		assert.Eventually(t, func() bool {
			return runs.Load() >= 3
		}, time.Second, 5*time.Millisecond)
	})

	t.Run("second start fails", func(t *testing.T) {
		s := New()
		require.NoError(t, s.Start(t.Context()))
		defer s.Close()

		assert.ErrorIs(t, s.Start(t.Context()), ErrAlreadyStarted)
	})

	t.Run("registration after start fails", func(t *testing.T) {
		s := New()
		require.NoError(t, s.Start(t.Context()))
		defer s.Close()

		err := s.Register("late", time.Second, func(context.Context) error { return nil })
		assert.ErrorIs(t, err, ErrStarted)
	})

	t.Run("slow jobs are skipped instead of overlapped", func(t *testing.T) {
		s := New()

		var concurrent, peak atomic.Int32
		require.NoError(t, s.Register("slow", 10*time.Millisecond, func(context.Context) error {
			cur := concurrent.Add(1)
			defer concurrent.Add(-1)

			for {
				old := peak.Load()
				if cur <= old || peak.CompareAndSwap(old, cur) {
					break
				}
			}

			time.Sleep(50 * time.Millisecond)
			return nil
		}))

		require.NoError(t, s.Start(t.Context()))
		time.Sleep(200 * time.Millisecond)
		s.Close()

		assert.Equal(t, int32(1), peak.Load())
	})

	t.Run("job errors do not stop the schedule", func(t *testing.T) {
		s := New()

		var runs atomic.Int32
		require.NoError(t, s.Register("failing", 10*time.Millisecond, func(context.Context) error {
			runs.Add(1)
			return errors.New("boom")
		}))

		require.NoError(t, s.Start(t.Context()))
		defer s.Close()

		assert.Eventually(t, func() bool {
			return runs.Load() >= 2
		}, time.Second, 5*time.Millisecond)
	})
}

func TestSchedulerClose(t *testing.T) {
	t.Run("waits for in-flight runs", func(t *testing.T) {
		s := New()

		var finished atomic.Bool
		started := make(chan struct{})

		require.NoError(t, s.Register("inflight", 10*time.Millisecond, func(context.Context) error {
			select {
			case started <- struct{}{}:
			default:
			}
			time.Sleep(30 * time.Millisecond)
			finished.Store(true)
			return nil
		}))

		require.NoError(t, s.Start(t.Context()))
		<-started
		s.Close()

		assert.True(t, finished.Load(), "Close must wait for the running task")
	})

	t.Run("close before start is a no-op", func(t *testing.T) {
		s := New()
		assert.NotPanics(t, s.Close)
	})

	t.Run("scheduler can be restarted after close", func(t *testing.T) {
		s := New()
		require.NoError(t, s.Start(t.Context()))
		s.Close()

		require.NoError(t, s.Start(t.Context()))
		s.Close()
	})
}
