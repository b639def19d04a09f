package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultTTL is how long room state outlives its last write
const DefaultTTL = 24 * time.Hour

// StateCache is a Redis backed room state store
type StateCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewStateCache creates a new state cache. A non-positive ttl uses DefaultTTL.
func NewStateCache(client *redis.Client, ttl time.Duration) *StateCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &StateCache{
		client: client,
		ttl:    ttl,
	}
}

func (c *StateCache) key(scope, key string) string {
	return fmt.Sprintf("room:%s:%s", scope, key)
}

// Get returns the stored value, or nil if the key does not exist
func (c *StateCache) Get(ctx context.Context, scope, key string) ([]byte, error) {
	data, err := c.client.Get(ctx, c.key(scope, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s/%s: %w", scope, key, err)
	}
	return data, nil
}

// Put stores value and refreshes its expiry
func (c *StateCache) Put(ctx context.Context, scope, key string, value []byte) error {
	if err := c.client.Set(ctx, c.key(scope, key), value, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s/%s: %w", scope, key, err)
	}
	return nil
}

// Ping checks the connection
func (c *StateCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
