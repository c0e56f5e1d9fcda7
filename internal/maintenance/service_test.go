package maintenance

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

type storageFake struct {
	snapshotCutoff     time.Time
	notificationCutoff time.Time
	purgeErr           error
	pingErr            error
}

func (f *storageFake) PurgeSnapshotsOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	if f.purgeErr != nil {
		return 0, f.purgeErr
	}
	f.snapshotCutoff = cutoff
	return 3, nil
}

func (f *storageFake) PurgeSentNotificationsBefore(_ context.Context, cutoff time.Time) (int64, error) {
	if f.purgeErr != nil {
		return 0, f.purgeErr
	}
	f.notificationCutoff = cutoff
	return 7, nil
}

func (f *storageFake) Ping(context.Context) error {
	return f.pingErr
}

func TestServiceCleanupOldData(t *testing.T) {
	t.Run("purges both stores with the same cutoff", func(t *testing.T) {
		storage := &storageFake{}
		s := New(storage)

		require.NoError(t, s.CleanupOldData(t.Context(), 30))

		expected := time.Now().AddDate(0, 0, -30)
		assert.WithinDuration(t, expected, storage.snapshotCutoff, time.Minute)
		assert.Equal(t, storage.snapshotCutoff, storage.notificationCutoff)
	})

	t.Run("rejects out-of-range retention", func(t *testing.T) {
		s := New(&storageFake{})

		for _, days := range []int{0, -5, 366} {
			assert.ErrorIs(t, s.CleanupOldData(t.Context(), days), ErrInvalidRetention)
		}
	})

	t.Run("accepts the boundaries", func(t *testing.T) {
		s := New(&storageFake{})

		assert.NoError(t, s.CleanupOldData(t.Context(), MinRetentionDays))
		assert.NoError(t, s.CleanupOldData(t.Context(), MaxRetentionDays))
	})

	t.Run("surfaces storage failures", func(t *testing.T) {
		storage := &storageFake{purgeErr: errors.New("redis down")}
		s := New(storage)

		assert.ErrorContains(t, s.CleanupOldData(t.Context(), 30), "redis down")
	})
}

func TestServiceHealthCheck(t *testing.T) {
	t.Run("passes when storage responds", func(t *testing.T) {
		assert.NoError(t, New(&storageFake{}).HealthCheck(t.Context()))
	})

	t.Run("fails when storage is unreachable", func(t *testing.T) {
		storage := &storageFake{pingErr: errors.New("connection refused")}
		assert.ErrorContains(t, New(storage).HealthCheck(t.Context()), "connection refused")
	})
}
