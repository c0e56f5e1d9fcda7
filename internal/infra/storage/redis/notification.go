package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"addresswatch/internal/notify"
	"addresswatch/internal/pkg/logger"
)

// notifyKeyPrefix namespaces all notification queue keys.
const notifyKeyPrefix = "notify"

const (
	// notifyPendingKey is the sorted set of pending notification IDs,
	// scored by creation time so dispatch drains oldest first.
	//
	// Format: "notify:pending"
	notifyPendingKey = notifyKeyPrefix + ":pending"

	// notifySentKey is the sorted set of sent notification IDs, scored
	// by send time so cleanup can prune by age.
	//
	// Format: "notify:sent"
	notifySentKey = notifyKeyPrefix + ":sent"
)

// notifyItemKey returns the Redis key holding one notification document.
//
// Format: "notify:item:{id}"
func notifyItemKey(id string) string {
	return fmt.Sprintf("%s:item:%s", notifyKeyPrefix, id)
}

// Enqueue implements the notify.Queue interface.
//
// The document and its pending-queue entry are written in one pipeline so
// the dispatcher never finds an ID without a body.
func (c *client) Enqueue(ctx context.Context, n notify.Notification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return err
	}

	pipe := c.conn.TxPipeline()
	pipe.Set(ctx, notifyItemKey(n.ID), payload, 0)
	pipe.ZAdd(ctx, notifyPendingKey, redis.Z{
		Score:  float64(n.CreatedAt.UnixNano()),
		Member: n.ID,
	})

	_, err = pipe.Exec(ctx)
	return err
}

// DequeuePending implements the notify.Queue interface.
//
// IDs whose document has gone missing are logged and dropped from the
// pending queue rather than poisoning every future dispatch pass.
func (c *client) DequeuePending(ctx context.Context, limit int) ([]notify.Notification, error) {
	ids, err := c.conn.ZRangeByScore(ctx, notifyPendingKey, &redis.ZRangeBy{
		Min:   "-inf",
		Max:   "+inf",
		Count: int64(limit),
	}).Result()
	if err != nil {
		return nil, err
	}

	if len(ids) == 0 {
		return nil, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = notifyItemKey(id)
	}

	payloads, err := c.conn.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	notifications := make([]notify.Notification, 0, len(ids))
	for i, payload := range payloads {
		raw, ok := payload.(string)
		if !ok {
			logger.Error(ctx, "dropping pending notification without a body", "notification_id", ids[i])
			c.conn.ZRem(ctx, notifyPendingKey, ids[i])
			continue
		}

		var n notify.Notification
		if err := json.Unmarshal([]byte(raw), &n); err != nil {
			logger.Error(ctx, "dropping corrupt pending notification", "notification_id", ids[i], "error", err)
			c.conn.ZRem(ctx, notifyPendingKey, ids[i])
			continue
		}

		notifications = append(notifications, n)
	}

	return notifications, nil
}

// MarkSent implements the notify.Queue interface.
//
// The stored document is rewritten with the send time so later
// inspection can tell delivered notifications from pending ones.
func (c *client) MarkSent(ctx context.Context, id string) error {
	sentAt := time.Now().UTC()

	pipe := c.conn.TxPipeline()
	pipe.ZRem(ctx, notifyPendingKey, id)
	pipe.ZAdd(ctx, notifySentKey, redis.Z{
		Score:  float64(sentAt.UnixNano()),
		Member: id,
	})

	raw, err := c.conn.Get(ctx, notifyItemKey(id)).Result()
	if err == nil {
		var n notify.Notification
		if err := json.Unmarshal([]byte(raw), &n); err == nil {
			n.SentAt = sentAt
			if payload, err := json.Marshal(n); err == nil {
				pipe.Set(ctx, notifyItemKey(id), payload, 0)
			}
		}
	}

	_, err = pipe.Exec(ctx)
	return err
}

// PurgeSentNotificationsBefore implements part of the maintenance.Storage
// interface. It removes sent notifications older than the cutoff along
// with their documents.
func (c *client) PurgeSentNotificationsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	maxScore := strconv.FormatInt(cutoff.UnixNano(), 10)

	stale, err := c.conn.ZRangeByScore(ctx, notifySentKey, &redis.ZRangeBy{
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
	for i, id := range stale {
		keys[i] = notifyItemKey(id)
	}

	pipe := c.conn.TxPipeline()
	pipe.Del(ctx, keys...)
	pipe.ZRemRangeByScore(ctx, notifySentKey, "-inf", maxScore)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}

	return int64(len(stale)), nil
}

// Compile-time assertion to ensure *client satisfies the notify.Queue interface
var _ notify.Queue = new(client)
