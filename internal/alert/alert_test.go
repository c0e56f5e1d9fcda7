package alert

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"addresswatch/internal/pkg/logger"
)

func init() {
	// Initialize logger for tests to prevent nil pointer dereference
	_ = logger.Init(logger.WithLevel("error")) // Use error level to reduce test output
}

type messengerFake struct {
	delivered []string
	err       error
}

func (f *messengerFake) Deliver(_ context.Context, _ int64, text string) error {
	if f.err != nil {
		return f.err
	}
	f.delivered = append(f.delivered, text)
	return nil
}

func TestManagerAlert(t *testing.T) {
	t.Run("delivers the first alert of a kind", func(t *testing.T) {
		messenger := &messengerFake{}
		m := New(messenger, 99)

		m.Alert(t.Context(), "storage_unreachable", "redis ping failed")

		assert.Len(t, messenger.delivered, 1)
		assert.Contains(t, messenger.delivered[0], "storage_unreachable")
		assert.Contains(t, messenger.delivered[0], "redis ping failed")
	})

	t.Run("mutes repeats within the cooldown", func(t *testing.T) {
		messenger := &messengerFake{}
		m := New(messenger, 99)

		m.Alert(t.Context(), "storage_unreachable", "redis ping failed")
		m.Alert(t.Context(), "storage_unreachable", "redis ping failed")

		assert.Len(t, messenger.delivered, 1)
	})

	t.Run("kinds cool down independently", func(t *testing.T) {
		messenger := &messengerFake{}
		m := New(messenger, 99)

		m.Alert(t.Context(), "storage_unreachable", "redis ping failed")
		m.Alert(t.Context(), "scan_errors", "3 scans failed")

		assert.Len(t, messenger.delivered, 2)
	})

	t.Run("delivers again once the cooldown elapses", func(t *testing.T) {
		messenger := &messengerFake{}
		m := New(messenger, 99, WithCooldown(10*time.Minute))

		current := time.Now()
		m.now = func() time.Time { return current }

		m.Alert(t.Context(), "scan_errors", "3 scans failed")
		current = current.Add(11 * time.Minute)
		m.Alert(t.Context(), "scan_errors", "5 scans failed")

		assert.Len(t, messenger.delivered, 2)
	})

	t.Run("no admin configured only logs", func(t *testing.T) {
		messenger := &messengerFake{}
		m := New(messenger, 0)

		m.Alert(t.Context(), "storage_unreachable", "redis ping failed")

		assert.Empty(t, messenger.delivered)
	})

	t.Run("delivery failure does not panic", func(t *testing.T) {
		messenger := &messengerFake{err: errors.New("blocked")}
		m := New(messenger, 99)

		m.Alert(t.Context(), "storage_unreachable", "redis ping failed")

		assert.Empty(t, messenger.delivered)
	})
}
