// Package filekv implements the cache port as a single JSON file on local
// disk, the default storage backend for a single-user desktop install.
package filekv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"
)

type entry struct {
	Value     string     `json:"value"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// Store keeps every key in memory and rewrites the whole file on each
// change. Records are a few hundred bytes, so this stays cheap.
type Store struct {
	path string
	now  func() time.Time

	mu      sync.Mutex
	entries map[string]entry
}

// Open loads the file at path, creating its directory if needed. A missing
// file starts an empty store; an unreadable one is logged and replaced on
// the next write.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("filekv: create dir: %w", err)
	}
	s := &Store{path: path, now: time.Now, entries: make(map[string]entry)}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return s, nil
	case err != nil:
		return nil, fmt.Errorf("filekv: read %s: %w", path, err)
	}
	if len(data) == 0 {
		return s, nil
	}
	if err := json.Unmarshal(data, &s.entries); err != nil {
		slog.Warn("filekv: ignoring malformed store file", "path", path, "error", err)
		s.entries = make(map[string]entry)
	}
	return s, nil
}

// Get returns the value for key.
func (s *Store) Get(_ context.Context, key string) (data []byte, ok bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, found := s.entries[key]
	if !found {
		return nil, false, nil
	}
	if e.ExpiresAt != nil && s.now().After(*e.ExpiresAt) {
		return nil, false, nil
	}
	return []byte(e.Value), true, nil
}

// Set stores value and flushes the file. A zero ttl never expires.
func (s *Store) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := entry{Value: string(value)}
	if ttl > 0 {
		exp := s.now().Add(ttl).UTC()
		e.ExpiresAt = &exp
	}
	prev, had := s.entries[key]
	s.entries[key] = e
	if err := s.flush(); err != nil {
		if had {
			s.entries[key] = prev
		} else {
			delete(s.entries, key)
		}
		return err
	}
	return nil
}

// Delete removes key and flushes the file.
func (s *Store) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, had := s.entries[key]
	if !had {
		return nil
	}
	delete(s.entries, key)
	if err := s.flush(); err != nil {
		s.entries[key] = prev
		return err
	}
	return nil
}

// flush writes a temp file in the same directory and renames it over the
// store file. Caller holds mu.
func (s *Store) flush() error {
	data, err := json.MarshalIndent(s.entries, "", "  ")
	if err != nil {
		return fmt.Errorf("filekv: encode: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".filekv-*")
	if err != nil {
		return fmt.Errorf("filekv: temp file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("filekv: write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("filekv: close: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("filekv: rename: %w", err)
	}
	return nil
}
