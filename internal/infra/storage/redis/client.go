// Package redis implements the storage ports of every domain service on
// top of a single Redis connection.
package redis

import (
	"context"

	redis "github.com/redis/go-redis/v9"

	"addresswatch/internal/maintenance"
)

type client struct {
	conn *redis.Client
}

func (c *client) Close() error {
	return c.conn.Close()
}

// Ping verifies the Redis connection is alive.
func (c *client) Ping(ctx context.Context) error {
	return c.conn.Ping(ctx).Err()
}

var _ maintenance.Storage = new(client)

func NewClient(ctx context.Context, addr, username, password string, db int) (*client, error) {
	conn := redis.NewClient(&redis.Options{
		Addr:     addr,
		Username: username,
		Password: password,
		DB:       db,
	})

	if err := conn.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &client{
		conn: conn,
	}, nil
}
