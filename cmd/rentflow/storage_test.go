package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/Strob0t/RentFlow/internal/config"
)

func TestOpenStorage_Local(t *testing.T) {
	for _, backend := range []string{config.BackendMemory, config.BackendFile} {
		t.Run(backend, func(t *testing.T) {
			cfg := config.Defaults()
			cfg.Storage.Backend = backend
			cfg.Storage.File = filepath.Join(t.TempDir(), "identity.json")

			st, err := openStorage(context.Background(), &cfg)
			if err != nil {
				t.Fatalf("openStorage: %v", err)
			}
			defer st.Close()

			if st.store == nil {
				t.Fatal("expected a store")
			}
			if st.breaker != nil {
				t.Fatal("local backends should not use a breaker")
			}
		})
	}
}

func TestOpenStorage_UnknownBackend(t *testing.T) {
	cfg := config.Defaults()
	cfg.Storage.Backend = "redis"
	if _, err := openStorage(context.Background(), &cfg); err == nil {
		t.Fatal("expected error for unknown backend")
	}
}

func TestStorageCloseOrder(t *testing.T) {
	var order []int
	st := &storage{closers: []func(){
		func() { order = append(order, 1) },
		func() { order = append(order, 2) },
	}}
	st.Close()
	if len(order) != 2 || order[0] != 2 || order[1] != 1 {
		t.Fatalf("closers ran in order %v, want [2 1]", order)
	}
}
