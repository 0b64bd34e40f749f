package nats

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"
)

// testConnect connects to NATS or skips the test if NATS_URL is not set.
func testConnect(t *testing.T) *Conn {
	t.Helper()

	url := os.Getenv("NATS_URL")
	if url == "" {
		t.Skip("requires NATS_URL")
	}

	c, err := Connect(context.Background(), url)
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	t.Cleanup(func() {
		if err := c.Close(); err != nil {
			t.Errorf("Close: %v", err)
		}
	})
	return c
}

func TestKeyValue_RoundTrip(t *testing.T) {
	c := testConnect(t)
	ctx := context.Background()

	bucket := fmt.Sprintf("RENTFLOW_TEST_%d", time.Now().UnixNano())
	kv, err := c.KeyValue(ctx, bucket)
	if err != nil {
		t.Fatalf("KeyValue: %v", err)
	}
	t.Cleanup(func() { _ = c.js.DeleteKeyValue(context.Background(), bucket) })

	if _, err := kv.Put(ctx, "rentflow.tenant", []byte(`{"name":"Asha"}`)); err != nil {
		t.Fatalf("Put: %v", err)
	}
	entry, err := kv.Get(ctx, "rentflow.tenant")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(entry.Value()) != `{"name":"Asha"}` {
		t.Fatalf("unexpected value %s", entry.Value())
	}

	// Creating the same bucket again must be idempotent.
	if _, err := c.KeyValue(ctx, bucket); err != nil {
		t.Fatalf("second KeyValue: %v", err)
	}
}
