// Package registry manages which addresses each user watches and their
// scan preferences.
package registry

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrAddressLimitReached is returned when a user tries to watch more
	// addresses than the configured cap allows.
	ErrAddressLimitReached = errors.New("address limit reached for user")

	// ErrInvalidInterval is returned when a scan interval falls outside
	// the accepted range.
	ErrInvalidInterval = errors.New("scan interval out of range")
)

// Scan interval bounds. The lower bound protects the providers from
// per-user hammering; the upper bound keeps watches from going stale
// for more than a day.
const (
	MinScanInterval = 10 * time.Second
	MaxScanInterval = 24 * time.Hour
)

// defaultMaxAddressesPerUser caps how many addresses one user may watch.
const defaultMaxAddressesPerUser = 20

// Service defines the interface for managing watch registrations.
//
// Implementations are responsible for validating input and delegating
// persistence to the configured WatchStorage.
type Service interface {
	// StartWatching registers an address for monitoring on behalf of a
	// user. The label is an optional display name shown in listings.
	//
	// Returns:
	//   - ErrAddressLimitReached if the user is at their address cap.
	//   - A validation error if the address or user is malformed.
	//   - Any storage error otherwise.
	StartWatching(ctx context.Context, userID int64, address, label string) error

	// StopWatching removes an address from the user's watches.
	StopWatching(ctx context.Context, userID int64, address string) error

	// ListAddresses returns every address the user currently watches.
	ListAddresses(ctx context.Context, userID int64) ([]WatchEntry, error)

	// SetScanInterval stores the user's preferred scan spacing.
	//
	// Returns ErrInvalidInterval if the interval is outside
	// [MinScanInterval, MaxScanInterval].
	SetScanInterval(ctx context.Context, userID int64, interval time.Duration) error
}

// service is the concrete implementation of the Service interface.
type service struct {
	watchStorage WatchStorage
	maxAddresses int
}

// Ensure compile-time compliance with the Service interface.
var _ Service = (*service)(nil)

type config struct {
	maxAddresses int
}

// Option configures the registry service.
type Option func(*config)

// WithMaxAddressesPerUser overrides the per-user address cap.
func WithMaxAddressesPerUser(n int) Option {
	return func(c *config) {
		c.maxAddresses = n
	}
}

// New creates a new registry service using the provided WatchStorage
// implementation, applying any provided options.
func New(ws WatchStorage, opts ...Option) *service {
	cfg := config{
		maxAddresses: defaultMaxAddressesPerUser,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	return &service{
		watchStorage: ws,
		maxAddresses: cfg.maxAddresses,
	}
}

// StartWatching validates the input, enforces the per-user address cap,
// and persists the watch.
func (s *service) StartWatching(ctx context.Context, userID int64, address, label string) error {
	entry, err := buildWatchEntry(userID, address, label)
	if err != nil {
		return err
	}

	existing, err := s.watchStorage.ListUserAddresses(ctx, userID)
	if err != nil {
		return err
	}

	for _, watched := range existing {
		// Re-registering an already watched address only refreshes its
		// label, it does not consume a slot.
		if watched.Address == entry.Address {
			if watched.Label == entry.Label {
				return nil
			}
			return s.watchStorage.RegisterWatch(ctx, entry)
		}
	}

	if len(existing) >= s.maxAddresses {
		return ErrAddressLimitReached
	}

	return s.watchStorage.RegisterWatch(ctx, entry)
}

// StopWatching validates the input and removes the watch.
func (s *service) StopWatching(ctx context.Context, userID int64, address string) error {
	entry, err := buildWatchEntry(userID, address, "")
	if err != nil {
		return err
	}

	return s.watchStorage.UnregisterWatch(ctx, entry)
}

// ListAddresses returns every address the user currently watches.
func (s *service) ListAddresses(ctx context.Context, userID int64) ([]WatchEntry, error) {
	return s.watchStorage.ListUserAddresses(ctx, userID)
}

// SetScanInterval validates the interval bounds and stores the preference.
func (s *service) SetScanInterval(ctx context.Context, userID int64, interval time.Duration) error {
	if interval < MinScanInterval || interval > MaxScanInterval {
		return ErrInvalidInterval
	}

	return s.watchStorage.SetUserInterval(ctx, userID, interval)
}
