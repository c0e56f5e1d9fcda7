// Package alert delivers operator alerts over the notification
// messenger, with a per-kind cooldown so a condition that persists does
// not flood the operator's chat.
package alert

import (
	"context"
	"fmt"
	"sync"
	"time"

	"addresswatch/internal/notify"
	"addresswatch/internal/pkg/logger"
)

// defaultCooldown spaces repeated alerts of the same kind.
const defaultCooldown = 15 * time.Minute

// Manager rate-limits and delivers operator alerts. Every alert is
// logged; delivery to the operator only happens when an admin recipient
// is configured and the kind's cooldown has elapsed. It is safe for
// concurrent use.
type Manager struct {
	messenger notify.Messenger
	adminID   int64
	cooldown  time.Duration
	now       func() time.Time

	mu       sync.Mutex
	lastSent map[string]time.Time
}

// Option configures a Manager.
type Option func(*Manager)

// WithCooldown overrides how long repeated alerts of one kind are muted.
func WithCooldown(d time.Duration) Option {
	return func(m *Manager) {
		m.cooldown = d
	}
}

// New creates an alert manager delivering to the given admin user. An
// adminID of zero disables delivery; alerts are still logged.
func New(messenger notify.Messenger, adminID int64, opts ...Option) *Manager {
	m := &Manager{
		messenger: messenger,
		adminID:   adminID,
		cooldown:  defaultCooldown,
		now:       time.Now,
		lastSent:  make(map[string]time.Time),
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// Alert reports one operator-facing condition. Alerts of the same kind
// raised within the cooldown window are logged but not delivered.
func (m *Manager) Alert(ctx context.Context, kind, message string) {
	logger.Error(ctx, "operator alert", "kind", kind, "message", message)

	if m.adminID == 0 {
		return
	}

	if !m.admit(kind) {
		return
	}

	text := fmt.Sprintf("⚠️ *%s*\n\n%s", kind, message)
	if err := m.messenger.Deliver(ctx, m.adminID, text); err != nil {
		logger.Error(ctx, "failed to deliver operator alert", "kind", kind, "error", err)
	}
}

// admit reports whether the kind's cooldown has elapsed, stamping the
// send time when it has.
func (m *Manager) admit(kind string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if last, ok := m.lastSent[kind]; ok && now.Sub(last) < m.cooldown {
		return false
	}

	m.lastSent[kind] = now
	return true
}
