package config

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// NewRedis returns a client even when the first ping fails; go-redis dials
// again on every command, so callers may keep it and degrade meanwhile.
func NewRedis(ctx context.Context, c RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     c.Addr,
		Password: c.Password,
		DB:       c.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return client, fmt.Errorf("redis not reachable at %s: %w", c.Addr, err)
	}

	return client, nil
}
