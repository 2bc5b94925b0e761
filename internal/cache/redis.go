package cache

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// Redis backs the Cache interface with a Redis instance so multiple API
// processes can share one response cache.
type Redis struct {
	client *redis.Client
	ctx    context.Context
}

// NewRedis creates a Redis-backed cache against addr.
func NewRedis(addr string) *Redis {
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
	})
	return &Redis{
		client: rdb,
		ctx:    context.Background(),
	}
}

// Get returns the cached value for key; a miss and a transport error both
// report not-present.
func (r *Redis) Get(key string) (string, bool) {
	val, err := r.client.Get(r.ctx, key).Result()
	if err != nil {
		return "", false
	}
	return val, true
}

// Set stores value under key without expiry.
func (r *Redis) Set(key string, value string) error {
	return r.client.Set(r.ctx, key, value, 0).Err()
}
