// Package service contains application services.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	cfotel "github.com/Strob0t/RentFlow/internal/adapter/otel"
	"github.com/Strob0t/RentFlow/internal/domain/identity"
	"github.com/Strob0t/RentFlow/internal/port/cache"
	"github.com/Strob0t/RentFlow/internal/resilience"
)

// DefaultKeyPrefix namespaces identity records in shared storage.
const DefaultKeyPrefix = "rentflow:"

// IdentityCache remembers the last entered landlord and tenant between
// sessions. It never fails: reads fall back to empty records and writes are
// best effort.
type IdentityCache struct {
	store   cache.Cache
	prefix  string
	breaker *resilience.Breaker
}

// NewIdentityCache creates an IdentityCache over store. breaker may be nil;
// it is only worth setting for remote backends.
func NewIdentityCache(store cache.Cache, prefix string, breaker *resilience.Breaker) *IdentityCache {
	return &IdentityCache{store: store, prefix: prefix, breaker: breaker}
}

// Key returns the storage key of a record kind, e.g. "rentflow:tenant".
func (c *IdentityCache) Key(kind identity.Kind) string {
	return c.prefix + string(kind)
}

// Load returns the stored landlord and tenant. A missing, unreadable, or
// malformed entry yields the empty record for that kind.
func (c *IdentityCache) Load(ctx context.Context) (identity.Landlord, identity.Tenant) {
	ctx, span := cfotel.StartIdentityLoadSpan(ctx, c.prefix)
	defer cfotel.EndSpan(span, nil)

	var landlord identity.Landlord
	var tenant identity.Tenant
	c.load(ctx, identity.KindLandlord, &landlord)
	c.load(ctx, identity.KindTenant, &tenant)
	return landlord, tenant
}

// load decodes the entry for kind into dst, resetting dst on failure so a
// partially decoded payload never leaks through.
func (c *IdentityCache) load(ctx context.Context, kind identity.Kind, dst any) {
	key := c.Key(kind)
	data, found, err := c.store.Get(ctx, key)
	if err != nil {
		slog.WarnContext(ctx, "identity load failed", "key", key, "error", err)
		return
	}
	if !found || len(data) == 0 {
		return
	}
	if err := json.Unmarshal(data, dst); err != nil {
		slog.WarnContext(ctx, "identity payload malformed, using defaults", "key", key, "error", err)
		switch d := dst.(type) {
		case *identity.Landlord:
			*d = identity.Landlord{}
		case *identity.Tenant:
			*d = identity.Tenant{}
		}
	}
}

// Save writes rec under its key. Empty records are not written, so a fresh
// session never clobbers stored values. Failures are logged and dropped.
func (c *IdentityCache) Save(ctx context.Context, rec identity.Record) {
	if rec.IsEmpty() {
		return
	}
	key := c.Key(rec.Kind())
	data, err := json.Marshal(rec)
	if err != nil {
		slog.DebugContext(ctx, "identity encode failed", "key", key, "error", err)
		return
	}

	write := func() error { return c.store.Set(ctx, key, data, 0) }
	if c.breaker != nil {
		err = c.breaker.Execute(write)
	} else {
		err = write()
	}
	switch {
	case errors.Is(err, resilience.ErrCircuitOpen):
		slog.DebugContext(ctx, "identity save skipped, storage circuit open", "key", key)
	case err != nil:
		slog.DebugContext(ctx, "identity save failed", "key", key, "error", err)
	}
}

// Clear removes both stored records. Unlike Save it reports failures, since
// it only runs on explicit request.
func (c *IdentityCache) Clear(ctx context.Context) error {
	var errs []error
	for _, kind := range []identity.Kind{identity.KindLandlord, identity.KindTenant} {
		if err := c.store.Delete(ctx, c.Key(kind)); err != nil {
			errs = append(errs, fmt.Errorf("delete %s: %w", c.Key(kind), err))
		}
	}
	return errors.Join(errs...)
}
