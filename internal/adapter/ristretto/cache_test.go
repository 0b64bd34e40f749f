package ristretto_test

import (
	"context"
	"testing"
	"time"

	"github.com/Strob0t/RentFlow/internal/adapter/ristretto"
	"github.com/Strob0t/RentFlow/internal/port/cache/cachetest"
)

func newCache(t *testing.T) *ristretto.Cache {
	t.Helper()
	c, err := ristretto.New(1 << 20)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(c.Close)
	return c
}

func TestCompliance(t *testing.T) {
	c := newCache(t)
	cachetest.Run(t, c, c.Wait)
}

func TestSet_CopiesValue(t *testing.T) {
	c := newCache(t)
	ctx := context.Background()

	buf := []byte(`{"name":"A"}`)
	if err := c.Set(ctx, "k", buf, 0); err != nil {
		t.Fatal(err)
	}
	c.Wait()
	buf[9] = 'B'

	got, found, err := c.Get(ctx, "k")
	if err != nil || !found {
		t.Fatalf("expected hit, got found=%v err=%v", found, err)
	}
	if string(got) != `{"name":"A"}` {
		t.Fatalf("stored value changed with caller buffer: %s", got)
	}
}

func TestSet_TTLExpires(t *testing.T) {
	c := newCache(t)
	ctx := context.Background()

	if err := c.Set(ctx, "short", []byte("x"), 10*time.Millisecond); err != nil {
		t.Fatal(err)
	}
	c.Wait()
	time.Sleep(50 * time.Millisecond)

	if _, found, _ := c.Get(ctx, "short"); found {
		t.Fatal("expected entry to expire")
	}
}
