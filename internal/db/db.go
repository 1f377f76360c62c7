// Package db defines the key-value store contract that optional caches
// sit on. Implementations live in subpackages.
package db

import (
	"context"
	"time"
)

// Store is a connected key-value backend.
type Store interface {
	Pinger
	KV
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// KV reads and writes opaque values. A ttl <= 0 stores without expiry.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte, ttl time.Duration) error
}
