package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"addresswatch/internal/addrscan"
)

// snapshotKeyPrefix namespaces all snapshot keys.
const snapshotKeyPrefix = "addrscan"

// snapshotKey returns the Redis key holding the snapshot for an address.
//
// Format: "addrscan:snapshot:{address}"
func snapshotKey(address string) string {
	return fmt.Sprintf("%s:snapshot:%s", snapshotKeyPrefix, address)
}

// snapshotIndexKey is the sorted set indexing snapshot addresses by scan
// time, used to find stale snapshots during cleanup.
//
// Format: "addrscan:snapshots"
const snapshotIndexKey = snapshotKeyPrefix + ":snapshots"

// GetSnapshot implements the addrscan.SnapshotStorage interface.
//
// Returns addrscan.ErrSnapshotNotFound when the address has never been
// scanned.
func (c *client) GetSnapshot(ctx context.Context, address string) (addrscan.Snapshot, error) {
	payload, err := c.conn.Get(ctx, snapshotKey(address)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return addrscan.Snapshot{}, addrscan.ErrSnapshotNotFound
		}
		return addrscan.Snapshot{}, err
	}

	var snap addrscan.Snapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		return addrscan.Snapshot{}, fmt.Errorf("corrupt snapshot for %s: %w", address, err)
	}

	return snap, nil
}

// PutSnapshot implements the addrscan.SnapshotStorage interface.
//
// The snapshot document and its scan-time index entry are written in one
// pipeline so cleanup never sees one without the other.
func (c *client) PutSnapshot(ctx context.Context, snapshot addrscan.Snapshot) error {
	payload, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}

	pipe := c.conn.TxPipeline()
	pipe.Set(ctx, snapshotKey(snapshot.Address), payload, 0)
	pipe.ZAdd(ctx, snapshotIndexKey, redis.Z{
		Score:  float64(snapshot.ScanTime.Unix()),
		Member: snapshot.Address,
	})

	_, err = pipe.Exec(ctx)
	return err
}

// PurgeSnapshotsOlderThan implements part of the maintenance.Storage
// interface. It removes every snapshot whose last scan predates the cutoff.
func (c *client) PurgeSnapshotsOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	maxScore := strconv.FormatInt(cutoff.Unix(), 10)

	stale, err := c.conn.ZRangeByScore(ctx, snapshotIndexKey, &redis.ZRangeBy{
		Min: "-inf",
		Max: maxScore,
	}).Result()
	if err != nil {
		return 0, err
	}

	if len(stale) == 0 {
		return 0, nil
	}

	keys := make([]string, len(stale))
	for i, address := range stale {
		keys[i] = snapshotKey(address)
	}

	pipe := c.conn.TxPipeline()
	pipe.Del(ctx, keys...)
	pipe.ZRemRangeByScore(ctx, snapshotIndexKey, "-inf", maxScore)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}

	return int64(len(stale)), nil
}

// Compile-time assertion to ensure *client satisfies the addrscan.SnapshotStorage interface
var _ addrscan.SnapshotStorage = new(client)
