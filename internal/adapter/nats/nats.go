// Package nats manages the NATS connection and the JetStream key-value
// bucket that backs the nats storage backend.
package nats

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// Conn is a NATS connection with its JetStream context.
type Conn struct {
	nc *nats.Conn
	js jetstream.JetStream
}

// Connect establishes a connection to NATS and initialises JetStream.
func Connect(_ context.Context, url string) (*Conn, error) {
	nc, err := nats.Connect(url, nats.Name("rentflow"))
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("jetstream init: %w", err)
	}

	slog.Info("nats connected", "url", url)
	return &Conn{nc: nc, js: js}, nil
}

// KeyValue returns the named bucket, creating it if it does not exist.
// Only the latest revision of each key is kept.
func (c *Conn) KeyValue(ctx context.Context, bucket string) (jetstream.KeyValue, error) {
	kv, err := c.js.CreateOrUpdateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:      bucket,
		Description: "RentFlow identity records",
		History:     1,
	})
	if err != nil {
		return nil, fmt.Errorf("jetstream kv %s: %w", bucket, err)
	}
	return kv, nil
}

// Close drains pending writes and closes the connection.
func (c *Conn) Close() error {
	if err := c.nc.Drain(); err != nil {
		c.nc.Close()
		return fmt.Errorf("nats drain: %w", err)
	}
	return nil
}
