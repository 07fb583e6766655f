package repository

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eslsoft/lvgames/internal/repository"
)

func requireSQLite(t *testing.T) *sqlx.DB {
	t.Helper()
	dsn := "file:" + filepath.Join(t.TempDir(), "store.db") + "?_fk=1"
	db, err := sqlx.Open("sqlite3", dsn)
	if err != nil {
		t.Skipf("sqlite driver not available: %v", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		t.Skipf("skipping sqlite-dependent tests: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	return db
}

// exerciseStore runs the KVStore contract against store.
func exerciseStore(t *testing.T, store repository.KVStore) {
	t.Helper()
	ctx := context.Background()

	_, err := store.Get(ctx, "match_cursor")
	require.ErrorIs(t, err, repository.ErrKeyNotFound)

	require.NoError(t, store.Set(ctx, "match_cursor", []byte(`3`)))
	require.NoError(t, store.Set(ctx, "match_stats", []byte(`{"a":{"correct":1}}`)))
	require.NoError(t, store.Set(ctx, "matchx_cursor", []byte(`1`)))
	require.NoError(t, store.Set(ctx, "forge_cursor", []byte(`0`)))

	got, err := store.Get(ctx, "match_cursor")
	require.NoError(t, err)
	assert.JSONEq(t, `3`, string(got))

	require.NoError(t, store.Set(ctx, "match_cursor", []byte(`4`)))
	got, err = store.Get(ctx, "match_cursor")
	require.NoError(t, err)
	assert.JSONEq(t, `4`, string(got))

	keys, err := store.Keys(ctx, "match_")
	require.NoError(t, err)
	assert.Equal(t, []string{"match_cursor", "match_stats"}, keys)

	require.NoError(t, store.Delete(ctx, "match_cursor"))
	_, err = store.Get(ctx, "match_cursor")
	require.ErrorIs(t, err, repository.ErrKeyNotFound)
	require.NoError(t, store.Delete(ctx, "match_cursor"))

	keys, err = store.Keys(ctx, "none_")
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestMemoryStoreCopiesValues(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	value := []byte(`[1]`)
	require.NoError(t, store.Set(ctx, "k", value))
	value[1] = '2'
	got, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, `[1]`, string(got))
}

func TestSQLStore(t *testing.T) {
	db := requireSQLite(t)
	store, err := NewSQLStore(context.Background(), db)
	require.NoError(t, err)
	exerciseStore(t, store)
}

func TestSQLStoreEscapesLikePattern(t *testing.T) {
	db := requireSQLite(t)
	ctx := context.Background()
	store, err := NewSQLStore(ctx, db)
	require.NoError(t, err)

	require.NoError(t, store.Set(ctx, "a_b_x", []byte(`1`)))
	require.NoError(t, store.Set(ctx, "aXb_x", []byte(`1`)))
	keys, err := store.Keys(ctx, "a_b")
	require.NoError(t, err)
	assert.Equal(t, []string{"a_b_x"}, keys)
}

func TestPGStore(t *testing.T) {
	dsn := os.Getenv("LVGAMES_TEST_POSTGRES")
	if dsn == "" {
		t.Skip("LVGAMES_TEST_POSTGRES not set")
	}
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	_, err = pool.Exec(ctx, `DROP TABLE IF EXISTS kv_entries`)
	require.NoError(t, err)

	store, err := NewPGStore(ctx, pool)
	require.NoError(t, err)
	exerciseStore(t, store)
}

func TestRedisStore(t *testing.T) {
	addr := os.Getenv("LVGAMES_TEST_REDIS")
	if addr == "" {
		t.Skip("LVGAMES_TEST_REDIS not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { client.Close() })
	ctx := context.Background()
	namespace := "lvgames-test:"
	keys, err := client.Keys(ctx, namespace+"*").Result()
	require.NoError(t, err)
	if len(keys) > 0 {
		require.NoError(t, client.Del(ctx, keys...).Err())
	}

	exerciseStore(t, NewRedisStore(client, namespace))
}
