package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// querier is the subset of *pgxpool.Pool used by KV.
type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// KV implements the cache port on the identity_records table. Values must
// be valid JSON.
type KV struct {
	db querier
}

// NewKV creates a KV over a connection pool.
func NewKV(db querier) *KV {
	return &KV{db: db}
}

// Get returns the value for key unless it is missing or expired.
func (s *KV) Get(ctx context.Context, key string) (data []byte, ok bool, err error) {
	var value string
	err = s.db.QueryRow(ctx,
		`SELECT value::text FROM identity_records
		 WHERE key = $1 AND (expires_at IS NULL OR expires_at > now())`,
		key,
	).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get identity record %s: %w", key, err)
	}
	return []byte(value), true, nil
}

// Set upserts value. A zero ttl never expires.
func (s *KV) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	var expires *time.Time
	if ttl > 0 {
		t := time.Now().Add(ttl)
		expires = &t
	}
	_, err := s.db.Exec(ctx,
		`INSERT INTO identity_records (key, value, expires_at, updated_at)
		 VALUES ($1, $2::json, $3, now())
		 ON CONFLICT (key) DO UPDATE
		 SET value = EXCLUDED.value, expires_at = EXCLUDED.expires_at, updated_at = now()`,
		key, string(value), expires,
	)
	if err != nil {
		return fmt.Errorf("set identity record %s: %w", key, err)
	}
	return nil
}

// Delete removes key; a missing key is not an error.
func (s *KV) Delete(ctx context.Context, key string) error {
	if _, err := s.db.Exec(ctx, `DELETE FROM identity_records WHERE key = $1`, key); err != nil {
		return fmt.Errorf("delete identity record %s: %w", key, err)
	}
	return nil
}
