package db

import (
	"context"
	"time"
)

// Store is the document-store facade combining all sub-interfaces.
//
//nolint:interfacebloat // repositories depend on narrow sub-interfaces
type Store interface {
	Pinger
	JSONStore
	KVStore
	KeyScanner
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// JSONStore provides JSON document operations. Documents are removed with KVStore.Del.
type JSONStore interface {
	JSONSet(ctx context.Context, key, path string, data []byte) error
	JSONGet(ctx context.Context, key string, paths ...string) ([]byte, error)
	JSONGetMulti(ctx context.Context, keys []string) ([][]byte, error)
}

// KVStore provides plain key-value operations.
// SetNX is the uniqueness primitive: it returns ErrKeyExists when the key is taken.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetNX(ctx context.Context, key string, value []byte) error
	Del(ctx context.Context, key string) error
}

// KeyScanner lists keys by glob pattern.
type KeyScanner interface {
	Scan(ctx context.Context, pattern string) ([]string, error)
}
