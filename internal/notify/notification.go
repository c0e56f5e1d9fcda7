package notify

import (
	"context"
	"time"
)

// Kind labels what a queued notification reports.
type Kind string

const (
	KindInitialMonitor  Kind = "initial_monitor"
	KindBalanceIncrease Kind = "balance_increase"
	KindBalanceDecrease Kind = "balance_decrease"
	KindNewTransaction  Kind = "new_transaction"
	KindUnknown         Kind = "unknown"
)

// Notification is one message queued for delivery to a user. Queued
// notifications survive restarts; delivery is at-least-once.
type Notification struct {
	// ID uniquely identifies the notification.
	ID string `json:"id"`

	// UserID is the recipient.
	UserID int64 `json:"user_id"`

	// Address is the watched account the notification is about.
	Address string `json:"address"`

	// TxHash is set when the notification reports a single transaction.
	TxHash string `json:"tx_hash,omitempty"`

	// Kind classifies what the notification reports.
	Kind Kind `json:"kind"`

	// Message is the fully formatted text to deliver.
	Message string `json:"message"`

	// CreatedAt orders pending notifications for dispatch.
	CreatedAt time.Time `json:"created_at"`

	// SentAt is zero while the notification is pending.
	SentAt time.Time `json:"sent_at,omitempty"`
}

// Queue defines the persistence contract for pending notifications.
type Queue interface {
	// Enqueue stores a notification as pending.
	Enqueue(ctx context.Context, n Notification) error

	// DequeuePending returns up to limit pending notifications, oldest
	// first, without removing them. A notification stays pending until
	// MarkSent is called, so a crashed dispatcher redelivers rather
	// than losing messages.
	DequeuePending(ctx context.Context, limit int) ([]Notification, error)

	// MarkSent moves a notification from pending to sent.
	MarkSent(ctx context.Context, id string) error
}

// Messenger delivers formatted text to a user over the transport of the
// implementation, typically a chat bot.
type Messenger interface {
	// Deliver sends the text to the user.
	Deliver(ctx context.Context, userID int64, text string) error
}
