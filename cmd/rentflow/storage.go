package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Strob0t/RentFlow/internal/adapter/filekv"
	cfnats "github.com/Strob0t/RentFlow/internal/adapter/nats"
	"github.com/Strob0t/RentFlow/internal/adapter/natskv"
	"github.com/Strob0t/RentFlow/internal/adapter/postgres"
	"github.com/Strob0t/RentFlow/internal/adapter/ristretto"
	"github.com/Strob0t/RentFlow/internal/adapter/tiered"
	"github.com/Strob0t/RentFlow/internal/config"
	"github.com/Strob0t/RentFlow/internal/port/cache"
	"github.com/Strob0t/RentFlow/internal/resilience"
)

// storage is the identity backend selected by storage.backend together with
// the resources that must be released on exit.
type storage struct {
	store   cache.Cache
	breaker *resilience.Breaker
	closers []func()
}

// Close releases resources in reverse order of acquisition.
func (s *storage) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

func openStorage(ctx context.Context, cfg *config.Config) (_ *storage, err error) {
	st := &storage{}
	defer func() {
		if err != nil {
			st.Close()
		}
	}()

	switch cfg.Storage.Backend {
	case config.BackendMemory:
		l1, err := ristretto.New(cfg.Storage.L1SizeMB << 20)
		if err != nil {
			return nil, fmt.Errorf("memory store: %w", err)
		}
		st.closers = append(st.closers, l1.Close)
		st.store = l1

	case config.BackendFile:
		fs, err := filekv.Open(cfg.Storage.File)
		if err != nil {
			return nil, fmt.Errorf("file store: %w", err)
		}
		st.store = fs

	case config.BackendNATS:
		conn, err := cfnats.Connect(ctx, cfg.NATS.URL)
		if err != nil {
			return nil, err
		}
		st.closers = append(st.closers, func() { _ = conn.Close() })
		kv, err := conn.KeyValue(ctx, cfg.NATS.Bucket)
		if err != nil {
			return nil, err
		}
		if err := st.tier(cfg.Storage, natskv.New(kv)); err != nil {
			return nil, err
		}
		st.breaker = newBreaker(cfg.Breaker)

	case config.BackendPostgres:
		if err := postgres.RunMigrations(ctx, cfg.Postgres.DSN); err != nil {
			return nil, fmt.Errorf("migrations: %w", err)
		}
		pool, err := postgres.NewPool(ctx, cfg.Postgres)
		if err != nil {
			return nil, fmt.Errorf("postgres: %w", err)
		}
		st.closers = append(st.closers, pool.Close)
		if err := st.tier(cfg.Storage, postgres.NewKV(pool)); err != nil {
			return nil, err
		}
		st.breaker = newBreaker(cfg.Breaker)

	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}

	slog.Info("identity storage ready", "backend", cfg.Storage.Backend)
	return st, nil
}

// tier fronts a remote store with a ristretto L1.
func (s *storage) tier(cfg config.Storage, remote cache.Cache) error {
	l1, err := ristretto.New(cfg.L1SizeMB << 20)
	if err != nil {
		return fmt.Errorf("l1 cache: %w", err)
	}
	s.closers = append(s.closers, l1.Close)
	s.store = tiered.New(l1, remote, cfg.L1TTL)
	return nil
}

func newBreaker(cfg config.Breaker) *resilience.Breaker {
	b := resilience.NewBreaker(cfg.MaxFailures, cfg.Timeout)
	b.OnStateChange(func(from, to string) {
		slog.Warn("identity storage circuit changed", "from", from, "to", to)
	})
	return b
}
