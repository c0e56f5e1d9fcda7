package registry

import (
	"context"
	"strings"
	"time"

	"addresswatch/internal/pkg/validator"
)

// WatchEntry binds a user to an address they want monitored.
//
// Both fields are required and validated upon creation. Addresses are
// normalized to lowercase so the same account never registers twice
// under different casings.
type WatchEntry struct {
	UserID  int64  `validate:"required,gt=0"`     // Telegram user identifier
	Address string `validate:"required,eth_addr"` // EVM account address to watch
	Label   string `validate:"max=64"`            // optional display name for listings
}

// WatchStorage defines the persistence interface for watch registrations
// and per-user scan preferences.
type WatchStorage interface {
	// RegisterWatch adds the entry to the set of active watches.
	//
	// This method should be idempotent and safe to call multiple times
	// with the same entry.
	RegisterWatch(ctx context.Context, entry WatchEntry) error

	// UnregisterWatch removes the entry from the set of active watches.
	//
	// After this call, the user should no longer receive notifications
	// for the address.
	UnregisterWatch(ctx context.Context, entry WatchEntry) error

	// ListUserAddresses returns every address the user currently watches,
	// labels included.
	ListUserAddresses(ctx context.Context, userID int64) ([]WatchEntry, error)

	// SetUserInterval stores the user's preferred scan spacing.
	SetUserInterval(ctx context.Context, userID int64, interval time.Duration) error
}

// buildWatchEntry constructs and validates a WatchEntry for the given user
// and address. It returns an error if validation fails.
func buildWatchEntry(userID int64, address, label string) (WatchEntry, error) {
	entry := WatchEntry{
		UserID:  userID,
		Address: strings.ToLower(address),
		Label:   strings.TrimSpace(label),
	}

	return entry, validator.Validate(entry)
}
