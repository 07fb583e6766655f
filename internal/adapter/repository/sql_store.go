package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/eslsoft/lvgames/internal/repository"
)

const kvSchema = `
CREATE TABLE IF NOT EXISTS kv_entries (
	name       TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	updated_at TIMESTAMP NOT NULL
)`

// SQLStore keeps KV entries in a kv_entries table through sqlx. It works on
// SQLite and on PostgreSQL opened with lib/pq.
type SQLStore struct {
	db    *sqlx.DB
	clock func() time.Time
}

// NewSQLStore creates the kv_entries table if needed and returns a store on db.
func NewSQLStore(ctx context.Context, db *sqlx.DB) (*SQLStore, error) {
	if _, err := db.ExecContext(ctx, kvSchema); err != nil {
		return nil, fmt.Errorf("create kv_entries table: %w", err)
	}
	return &SQLStore{db: db, clock: time.Now}, nil
}

var _ repository.KVStore = (*SQLStore)(nil)

func (s *SQLStore) Get(ctx context.Context, key string) ([]byte, error) {
	var value string
	err := s.db.GetContext(ctx, &value, s.db.Rebind(`SELECT value FROM kv_entries WHERE name = ?`), key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrKeyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	return []byte(value), nil
}

func (s *SQLStore) Set(ctx context.Context, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx, s.db.Rebind(`
		INSERT INTO kv_entries (name, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT (name) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`),
		key, string(value), s.clock().UTC())
	if err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

func (s *SQLStore) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, s.db.Rebind(`DELETE FROM kv_entries WHERE name = ?`), key); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

func (s *SQLStore) Keys(ctx context.Context, prefix string) ([]string, error) {
	keys := []string{}
	err := s.db.SelectContext(ctx, &keys,
		s.db.Rebind(`SELECT name FROM kv_entries WHERE name LIKE ? ESCAPE '\' ORDER BY name`),
		likePrefix(prefix))
	if err != nil {
		return nil, fmt.Errorf("list keys %q: %w", prefix, err)
	}
	return keys, nil
}
