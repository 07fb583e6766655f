package repository

import (
	"context"
	"errors"
)

// ErrKeyNotFound is returned by KVStore.Get when the key holds no value.
var ErrKeyNotFound = errors.New("key not found")

// KVStore persists JSON blobs under namespaced string keys.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	// Keys lists stored keys starting with prefix, sorted ascending.
	Keys(ctx context.Context, prefix string) ([]string, error)
}
