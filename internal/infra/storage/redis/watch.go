package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"addresswatch/internal/addrscan"
	"addresswatch/internal/pkg/logger"
	"addresswatch/internal/registry"
)

// watchKeyPrefix namespaces all watch registration keys.
const watchKeyPrefix = "registry"

// watchSetKey is the set of all active watches, each member encoded as
// "{userID}:{address}".
//
// Format: "registry:watches"
const watchSetKey = watchKeyPrefix + ":watches"

// userAddressesKey returns the Redis key for the set of addresses one
// user watches.
//
// Format: "registry:user:{userID}:addresses"
func userAddressesKey(userID int64) string {
	return fmt.Sprintf("%s:user:%d:addresses", watchKeyPrefix, userID)
}

// userIntervalKey returns the Redis key holding a user's scan interval,
// stored in seconds.
//
// Format: "registry:user:{userID}:interval"
func userIntervalKey(userID int64) string {
	return fmt.Sprintf("%s:user:%d:interval", watchKeyPrefix, userID)
}

// userLabelsKey returns the Redis key of the hash mapping a user's watched
// addresses to their display labels. Unlabeled addresses have no field.
//
// Format: "registry:user:{userID}:labels"
func userLabelsKey(userID int64) string {
	return fmt.Sprintf("%s:user:%d:labels", watchKeyPrefix, userID)
}

// encodeWatch flattens a watch into the member format of the global set.
func encodeWatch(userID int64, address string) string {
	return fmt.Sprintf("%d:%s", userID, address)
}

// decodeWatch parses a member of the global watch set. Addresses never
// contain a colon, so the first one separates the two fields.
func decodeWatch(member string) (int64, string, error) {
	rawID, address, ok := strings.Cut(member, ":")
	if !ok {
		return 0, "", fmt.Errorf("malformed watch entry: %q", member)
	}

	userID, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		return 0, "", fmt.Errorf("malformed watch entry: %q", member)
	}

	return userID, address, nil
}

// RegisterWatch implements the registry.WatchStorage interface.
//
// The per-user set and the global watch set are updated in one pipeline
// so scans and listings never disagree.
func (c *client) RegisterWatch(ctx context.Context, entry registry.WatchEntry) error {
	pipe := c.conn.TxPipeline()
	pipe.SAdd(ctx, userAddressesKey(entry.UserID), entry.Address)
	pipe.SAdd(ctx, watchSetKey, encodeWatch(entry.UserID, entry.Address))
	if entry.Label == "" {
		pipe.HDel(ctx, userLabelsKey(entry.UserID), entry.Address)
	} else {
		pipe.HSet(ctx, userLabelsKey(entry.UserID), entry.Address, entry.Label)
	}

	_, err := pipe.Exec(ctx)
	return err
}

// UnregisterWatch implements the registry.WatchStorage interface.
func (c *client) UnregisterWatch(ctx context.Context, entry registry.WatchEntry) error {
	pipe := c.conn.TxPipeline()
	pipe.SRem(ctx, userAddressesKey(entry.UserID), entry.Address)
	pipe.SRem(ctx, watchSetKey, encodeWatch(entry.UserID, entry.Address))
	pipe.HDel(ctx, userLabelsKey(entry.UserID), entry.Address)

	_, err := pipe.Exec(ctx)
	return err
}

// ListUserAddresses implements the registry.WatchStorage interface.
func (c *client) ListUserAddresses(ctx context.Context, userID int64) ([]registry.WatchEntry, error) {
	addresses, err := c.conn.SMembers(ctx, userAddressesKey(userID)).Result()
	if err != nil {
		return nil, err
	}

	labels, err := c.conn.HGetAll(ctx, userLabelsKey(userID)).Result()
	if err != nil {
		return nil, err
	}

	entries := make([]registry.WatchEntry, 0, len(addresses))
	for _, address := range addresses {
		entries = append(entries, registry.WatchEntry{
			UserID:  userID,
			Address: address,
			Label:   labels[address],
		})
	}
	return entries, nil
}

// SetUserInterval implements the registry.WatchStorage interface.
func (c *client) SetUserInterval(ctx context.Context, userID int64, interval time.Duration) error {
	seconds := int64(interval / time.Second)
	return c.conn.Set(ctx, userIntervalKey(userID), seconds, 0).Err()
}

// userInterval loads a user's stored scan interval. A missing key means
// the user never chose one, reported as zero.
func (c *client) userInterval(ctx context.Context, userID int64) (time.Duration, error) {
	seconds, err := c.conn.Get(ctx, userIntervalKey(userID)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, err
	}

	return time.Duration(seconds) * time.Second, nil
}

// ListWatches implements the addrscan.WatchProvider interface.
//
// Malformed members are logged and skipped so one bad entry cannot take
// down every scan cycle.
func (c *client) ListWatches(ctx context.Context) ([]addrscan.Watch, error) {
	members, err := c.conn.SMembers(ctx, watchSetKey).Result()
	if err != nil {
		return nil, err
	}

	intervals := make(map[int64]time.Duration)

	watches := make([]addrscan.Watch, 0, len(members))
	for _, member := range members {
		userID, address, err := decodeWatch(member)
		if err != nil {
			logger.Error(ctx, "skipping malformed watch entry", "member", member, "error", err)
			continue
		}

		interval, ok := intervals[userID]
		if !ok {
			interval, err = c.userInterval(ctx, userID)
			if err != nil {
				return nil, err
			}
			intervals[userID] = interval
		}

		watches = append(watches, addrscan.Watch{
			UserID:   userID,
			Address:  address,
			Interval: interval,
		})
	}

	return watches, nil
}

// Compile-time assertions for the watch-related ports.
var (
	_ registry.WatchStorage  = new(client)
	_ addrscan.WatchProvider = new(client)
)
