package claims

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// Cache is a read-through cache for single claim lookups. Concurrent
// misses for the same id collapse into one repository read.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
	group  singleflight.Group
}

// NewCache constructs the cache helper. A nil client disables caching.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Cache{client: client, ttl: ttl}
}

func cacheKey(id string) string {
	return "claims:claim:" + id
}

// Fetch loads a claim from cache, falling back to the loader on miss.
func (c *Cache) Fetch(ctx context.Context, id string, loader func(context.Context) (*Claim, error)) (*Claim, error) {
	if loader == nil {
		return nil, errors.New("claims cache: loader required")
	}
	if c == nil || c.client == nil {
		return loader(ctx)
	}

	key := cacheKey(id)
	payload, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		var claim Claim
		if err := json.Unmarshal(payload, &claim); err == nil {
			return &claim, nil
		}
		// Corrupt entry; drop it and reload.
		_ = c.client.Del(ctx, key).Err()
	} else if !errors.Is(err, redis.Nil) {
		return loader(ctx)
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		claim, err := loader(ctx)
		if err != nil {
			return nil, err
		}
		if raw, err := json.Marshal(claim); err == nil {
			_ = c.client.Set(ctx, key, raw, c.ttl).Err()
		}
		return claim, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Claim), nil
}

// Invalidate removes a claim from the cache after writes.
func (c *Cache) Invalidate(ctx context.Context, id string) {
	if c == nil || c.client == nil {
		return
	}
	_ = c.client.Del(ctx, cacheKey(id)).Err()
}
