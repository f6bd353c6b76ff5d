// Package provider defines the byte stores the provider engine binds
// regions to.
//
// Implementations MUST be byte-for-byte transparent: Get returns exactly the
// []byte previously passed to Set for a key. The keyspace "l2:" is owned by
// l2cache; foreign values under it fail frame validation and are deleted.
package provider

import (
	"context"
	"time"
)

// Provider is a minimal byte store with TTLs, safe for concurrent use.
type Provider interface {
	// Get returns (value, true, nil) on hit; (nil, false, nil) on miss.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores value with the given TTL. May ignore cost if unsupported.
	// Returns ok=false when the store rejected the write under pressure.
	Set(ctx context.Context, key string, value []byte, cost int64, ttl time.Duration) (ok bool, err error)

	// Del removes a key (best-effort).
	Del(ctx context.Context, key string) error

	Close(ctx context.Context) error
}

// Adder is implemented by stores with an atomic set-if-absent. The engine
// then advertises minimal puts without taking its own lock.
type Adder interface {
	// Add stores value only when key is absent; false when it was present.
	Add(ctx context.Context, key string, value []byte, cost int64, ttl time.Duration) (bool, error)
}

// Lener is implemented by stores that can count their entries.
type Lener interface {
	Len() int64
}
