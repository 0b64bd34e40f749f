// Package cache defines the port interface for key-value storage of small
// serialized records.
package cache

import (
	"context"
	"time"
)

// Cache is the port interface for key-value storage.
//
// A zero ttl means the entry does not expire. Get reports a missing key
// as found == false with a nil error; errors are reserved for backend
// failures.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}
