package cache

import (
	"context"
	"time"
)

// remote is the shared L2 side: a cache that can report a key's remaining
// lifetime so promoted L1 copies never outlive it.
type remote interface {
	Service
	TTL(ctx context.Context, key string) (time.Duration, error)
}

// LayeredCache is a two-level cache: L1 in-process memory, L2 Redis.
// Entries survive process restarts in L2; L1 absorbs hot keys.
type LayeredCache struct {
	mem    *MemoryCache
	remote remote
}

// NewLayeredCache builds a layered cache over an existing Redis client.
func NewLayeredCache(redisCache *RedisCache, memOpts ...MemoryOption) *LayeredCache {
	return &LayeredCache{
		mem:    NewMemoryCache(memOpts...),
		remote: redisCache,
	}
}

func (lc *LayeredCache) Set(ctx context.Context, key string, value string, expiration time.Duration) error {
	// Write-through: Redis first, then memory.
	if err := lc.remote.Set(ctx, key, value, expiration); err != nil {
		return err
	}
	_ = lc.mem.Set(ctx, key, value, expiration)
	return nil
}

func (lc *LayeredCache) Get(ctx context.Context, key string) (string, error) {
	if v, err := lc.mem.Get(ctx, key); err == nil {
		return v, nil
	}
	v, err := lc.remote.Get(ctx, key)
	if err != nil {
		return "", err
	}
	// Promote bounded by the remaining L2 lifetime. -1 marks a persisted
	// key; anything below means the key vanished, so skip promotion.
	ttl, terr := lc.remote.TTL(ctx, key)
	if terr == nil && ttl >= -1 {
		if ttl < 0 {
			ttl = 0
		}
		_ = lc.mem.Set(ctx, key, v, ttl)
	}
	return v, nil
}

func (lc *LayeredCache) Delete(ctx context.Context, keys ...string) error {
	_ = lc.mem.Delete(ctx, keys...)
	return lc.remote.Delete(ctx, keys...)
}

// Close closes both layers.
func (lc *LayeredCache) Close() error {
	_ = lc.mem.Close()
	return lc.remote.Close()
}
