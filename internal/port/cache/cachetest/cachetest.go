// Package cachetest provides a compliance suite that every cache.Cache
// implementation must pass.
package cachetest

import (
	"context"
	"testing"

	"github.com/Strob0t/RentFlow/internal/port/cache"
)

// Run executes the compliance suite against c. settle is called after each
// write for implementations that apply writes asynchronously; it may be nil.
func Run(t *testing.T, c cache.Cache, settle func()) {
	t.Helper()
	ctx := context.Background()
	if settle == nil {
		settle = func() {}
	}

	t.Run("SetAndGet", func(t *testing.T) {
		if err := c.Set(ctx, "rentflow:landlord", []byte(`{"name":"R. Sharma"}`), 0); err != nil {
			t.Fatal(err)
		}
		settle()
		val, found, err := c.Get(ctx, "rentflow:landlord")
		if err != nil {
			t.Fatal(err)
		}
		if !found {
			t.Fatal("expected found after Set")
		}
		if string(val) != `{"name":"R. Sharma"}` {
			t.Fatalf("unexpected value %s", val)
		}
	})

	t.Run("GetMiss", func(t *testing.T) {
		_, found, err := c.Get(ctx, "nonexistent-key")
		if err != nil {
			t.Fatal(err)
		}
		if found {
			t.Fatal("expected miss for nonexistent key")
		}
	})

	t.Run("Delete", func(t *testing.T) {
		if err := c.Set(ctx, "del-key", []byte(`{}`), 0); err != nil {
			t.Fatal(err)
		}
		settle()
		if err := c.Delete(ctx, "del-key"); err != nil {
			t.Fatal(err)
		}
		settle()
		_, found, err := c.Get(ctx, "del-key")
		if err != nil {
			t.Fatal(err)
		}
		if found {
			t.Fatal("expected miss after Delete")
		}
	})

	t.Run("DeleteNonexistent", func(t *testing.T) {
		if err := c.Delete(ctx, "never-existed"); err != nil {
			t.Fatal("Delete of nonexistent key should not error")
		}
	})

	t.Run("Overwrite", func(t *testing.T) {
		_ = c.Set(ctx, "ow-key", []byte(`{"v":1}`), 0)
		settle()
		_ = c.Set(ctx, "ow-key", []byte(`{"v":2}`), 0)
		settle()
		val, found, err := c.Get(ctx, "ow-key")
		if err != nil {
			t.Fatal(err)
		}
		if !found {
			t.Fatal("expected found after overwrite")
		}
		if string(val) != `{"v":2}` {
			t.Fatalf("expected last write to win, got %s", val)
		}
	})
}
