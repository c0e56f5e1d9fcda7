// Package maintenance handles periodic housekeeping: pruning aged data
// and checking storage health.
package maintenance

import (
	"context"
	"errors"
	"time"

	"addresswatch/internal/pkg/logger"
)

// ErrInvalidRetention is returned when a retention period falls outside
// the accepted range.
var ErrInvalidRetention = errors.New("retention days out of range")

// Retention bounds, in days.
const (
	MinRetentionDays = 1
	MaxRetentionDays = 365
)

// Storage defines the pruning and health operations the service needs
// from the persistence layer.
type Storage interface {
	// PurgeSnapshotsOlderThan deletes snapshots last scanned before the
	// cutoff and returns how many were removed.
	PurgeSnapshotsOlderThan(ctx context.Context, cutoff time.Time) (int64, error)

	// PurgeSentNotificationsBefore deletes sent notifications older than
	// the cutoff and returns how many were removed.
	PurgeSentNotificationsBefore(ctx context.Context, cutoff time.Time) (int64, error)

	// Ping verifies the storage backend is reachable.
	Ping(ctx context.Context) error
}

// Service performs housekeeping against the configured storage.
type Service interface {
	// CleanupOldData removes snapshots and sent notifications older than
	// the given number of days.
	//
	// Returns ErrInvalidRetention if days is outside
	// [MinRetentionDays, MaxRetentionDays].
	CleanupOldData(ctx context.Context, days int) error

	// HealthCheck verifies the storage backend is reachable and logs
	// the outcome.
	HealthCheck(ctx context.Context) error
}

type service struct {
	storage Storage
}

var _ Service = (*service)(nil)

// New creates the maintenance service.
func New(storage Storage) *service {
	return &service{storage: storage}
}

func (s *service) CleanupOldData(ctx context.Context, days int) error {
	if days < MinRetentionDays || days > MaxRetentionDays {
		return ErrInvalidRetention
	}

	cutoff := time.Now().AddDate(0, 0, -days)

	snapshots, err := s.storage.PurgeSnapshotsOlderThan(ctx, cutoff)
	if err != nil {
		return err
	}

	notifications, err := s.storage.PurgeSentNotificationsBefore(ctx, cutoff)
	if err != nil {
		return err
	}

	logger.Info(ctx, "old data cleaned up",
		"retention_days", days,
		"snapshots_removed", snapshots,
		"notifications_removed", notifications,
	)
	return nil
}

func (s *service) HealthCheck(ctx context.Context) error {
	if err := s.storage.Ping(ctx); err != nil {
		logger.Error(ctx, "storage health check failed", "error", err)
		return err
	}

	logger.Debug(ctx, "storage health check passed")
	return nil
}
