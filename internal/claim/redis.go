// Package claim hands out short-lived, cross-process ownership of a key.
package claim

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrHeld is returned when another owner holds the claim.
var ErrHeld = errors.New("claim held by another request")

// delete only when the caller still owns the key
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type RedisClaims struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

func NewRedisClaims(client redis.UniversalClient, prefix string, ttl time.Duration) *RedisClaims {
	return &RedisClaims{client: client, prefix: prefix, ttl: ttl}
}

// Acquire takes the claim for key. The returned release func is safe to call once
// the work is done; the claim also lapses on its own after the TTL.
func (r *RedisClaims) Acquire(ctx context.Context, key string) (func(), error) {
	redisKey := r.prefix + key
	token := uuid.NewString()

	ok, err := r.client.SetNX(ctx, redisKey, token, r.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to claim %s: %w", redisKey, err)
	}
	if !ok {
		return nil, ErrHeld
	}

	release := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = releaseScript.Run(ctx, r.client, []string{redisKey}, token).Err()
	}

	return release, nil
}
