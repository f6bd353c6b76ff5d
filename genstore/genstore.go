// Package genstore keeps region epochs. Clearing a region bumps its epoch;
// frames written under an older epoch are treated as misses and deleted on
// read. A shared store (redis) makes a clear visible to every process.
package genstore

import (
	"context"
	"time"
)

// GenStore abstracts where epochs live.
// Use LocalGenStore for a single process, RedisGenStore across processes.
type GenStore interface {
	// Snapshot returns the current epoch of region; missing => 0.
	Snapshot(ctx context.Context, region string) (uint64, error)
	// Bump atomically increments and returns the new epoch.
	Bump(ctx context.Context, region string) (uint64, error)
	// Cleanup prunes epochs not bumped within retention (no-op for Redis).
	Cleanup(retention time.Duration)
	// Close releases resources (no-op ok).
	Close(context.Context) error
}
