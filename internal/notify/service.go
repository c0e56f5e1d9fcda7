// Package notify formats detected changes into messages, queues them,
// and dispatches the queue to a messenger.
package notify

import (
	"context"
	"time"

	"github.com/google/uuid"

	"addresswatch/internal/addrscan"
	"addresswatch/internal/pkg/logger"
)

// defaultBatchSize bounds how many pending notifications one dispatch
// pass drains.
const defaultBatchSize = 50

// Service queues change notifications and dispatches them to users.
type Service interface {
	// NotifyChanges formats each change and enqueues one notification
	// per change for the user. It satisfies the scanner's notifier port.
	NotifyChanges(ctx context.Context, userID int64, changes []addrscan.Change) error

	// DispatchPending delivers up to one batch of pending notifications.
	// Notifications are only marked sent after successful delivery, so a
	// failed delivery is retried on the next pass.
	DispatchPending(ctx context.Context) error
}

type service struct {
	queue     Queue
	messenger Messenger
	batchSize int
}

var _ Service = (*service)(nil)
var _ addrscan.ChangeNotifier = (*service)(nil)

type config struct {
	batchSize int
}

// Option configures the notification service.
type Option func(*config)

// WithBatchSize overrides how many notifications one dispatch pass drains.
func WithBatchSize(n int) Option {
	return func(c *config) {
		c.batchSize = n
	}
}

// New creates the notification service, applying any provided options.
func New(queue Queue, messenger Messenger, opts ...Option) *service {
	cfg := config{
		batchSize: defaultBatchSize,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	return &service{
		queue:     queue,
		messenger: messenger,
		batchSize: cfg.batchSize,
	}
}

// kindOf classifies a change for the queue record.
func kindOf(c addrscan.Change) Kind {
	switch c.Type {
	case addrscan.ChangeTypeInitial:
		return KindInitialMonitor
	case addrscan.ChangeTypeBalance:
		if c.NewBalance.LessThan(c.OldBalance) {
			return KindBalanceDecrease
		}
		return KindBalanceIncrease
	case addrscan.ChangeTypeTransaction:
		return KindNewTransaction
	default:
		return KindUnknown
	}
}

func (s *service) NotifyChanges(ctx context.Context, userID int64, changes []addrscan.Change) error {
	for _, change := range changes {
		n := Notification{
			ID:        uuid.NewString(),
			UserID:    userID,
			Address:   change.Address,
			Kind:      kindOf(change),
			Message:   FormatChange(change),
			CreatedAt: time.Now().UTC(),
		}
		if change.Tx != nil {
			n.TxHash = change.Tx.Hash
		}

		if err := s.queue.Enqueue(ctx, n); err != nil {
			return err
		}
	}

	return nil
}

func (s *service) DispatchPending(ctx context.Context) error {
	pending, err := s.queue.DequeuePending(ctx, s.batchSize)
	if err != nil {
		return err
	}

	for _, n := range pending {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := s.messenger.Deliver(ctx, n.UserID, n.Message); err != nil {
			logger.Warn(ctx, "notification delivery failed, will retry",
				"notification_id", n.ID,
				"user_id", n.UserID,
				"error", err,
			)
			continue
		}

		if err := s.queue.MarkSent(ctx, n.ID); err != nil {
			// The message reached the user but stays pending, so the
			// next pass may deliver it again.
			logger.Error(ctx, "failed to mark notification as sent",
				"notification_id", n.ID,
				"error", err,
			)
		}
	}

	return nil
}
