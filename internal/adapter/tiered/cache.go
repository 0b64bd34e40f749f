// Package tiered implements a two-level cache adapter: an in-process L1 in
// front of a durable L2 (NATS KV or PostgreSQL).
package tiered

import (
	"context"
	"time"

	"github.com/Strob0t/RentFlow/internal/port/cache"
)

// Cache combines an L1 (in-process) and L2 (durable) store.
// L2 is the source of truth: Set reaches L2 before L1, and L1 failures are
// never reported because L1 only saves round trips.
type Cache struct {
	l1       cache.Cache
	l2       cache.Cache
	l1Expire time.Duration
}

// New creates a tiered cache with the given L1 and L2 backends.
// l1Expire controls how long entries live in L1.
func New(l1, l2 cache.Cache, l1Expire time.Duration) *Cache {
	return &Cache{l1: l1, l2: l2, l1Expire: l1Expire}
}

// Get checks L1, then L2. On L2 hit, backfills L1.
func (c *Cache) Get(ctx context.Context, key string) (data []byte, ok bool, err error) {
	if val, found, err := c.l1.Get(ctx, key); err == nil && found {
		return val, true, nil
	}

	val, found, err := c.l2.Get(ctx, key)
	if err != nil {
		return nil, false, err
	}
	if !found {
		return nil, false, nil
	}
	_ = c.l1.Set(ctx, key, val, c.l1Expire)
	return val, true, nil
}

// Set writes to L2, then refreshes L1. If L2 fails, L1 is invalidated so a
// stale value is not served.
func (c *Cache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := c.l2.Set(ctx, key, value, ttl); err != nil {
		_ = c.l1.Delete(ctx, key)
		return err
	}
	_ = c.l1.Set(ctx, key, value, c.expiry(ttl))
	return nil
}

// Delete removes from both L1 and L2.
func (c *Cache) Delete(ctx context.Context, key string) error {
	_ = c.l1.Delete(ctx, key)
	return c.l2.Delete(ctx, key)
}

// expiry keeps L1 entries no longer than l1Expire.
func (c *Cache) expiry(ttl time.Duration) time.Duration {
	if ttl == 0 || (c.l1Expire > 0 && c.l1Expire < ttl) {
		return c.l1Expire
	}
	return ttl
}
