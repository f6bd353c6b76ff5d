package l2cache

import (
	"context"
	"time"
)

// Region is a named partition of the second-level cache.
type Region interface {
	Name() string
	Kind() Kind
	// Destroy releases the engine binding. Later operations fail with
	// ErrRegionDestroyed.
	Destroy(ctx context.Context) error
	Contains(ctx context.Context, key string) bool

	SizeInMemory() int64
	ElementCountInMemory() int64
	ElementCountOnDisk() int64

	// NextTimestamp is a logical clock value for ordering cache operations
	// relative to transaction commit.
	NextTimestamp() int64
	// Timeout is how long a soft lock stays valid.
	Timeout() time.Duration
}

// TransactionalDataRegion holds data that must stay aligned with
// transactions: entity and collection state.
type TransactionalDataRegion interface {
	Region
	// IsTransactionAware is false for engines whose writes are not enlisted
	// in the database transaction; callers then stage writes until commit.
	IsTransactionAware() bool
	CacheDataDescription() CacheDataDescription
}

// GeneralDataRegion holds query results and update timestamps.
type GeneralDataRegion interface {
	Region
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Put(ctx context.Context, key string, value []byte) error
	Evict(ctx context.Context, key string) error
	EvictAll(ctx context.Context) error
}

// RegionAccessStrategy is the protocol the persistence context uses to read
// and write a transactional data region under one concurrency contract.
//
// Contract:
//   - Concurrency: safe for concurrent use; implementations hold no mutable state.
//   - Get returns (nil, false, nil) on miss. Errors are engine failures
//     wrapped in *CacheError.
//   - Unlocking with a token that does not own the lock is logged and ignored.
type RegionAccessStrategy interface {
	Region() TransactionalDataRegion
	AccessType() AccessType

	Get(ctx context.Context, key string, txTimestamp int64) ([]byte, bool, error)

	// PutFromLoad caches state read from the database, applying the region's
	// default minimal-puts setting. Reports whether the put happened.
	PutFromLoad(ctx context.Context, key string, value []byte, txTimestamp, version int64) (bool, error)
	// PutFromLoadMinimal is PutFromLoad with an explicit minimal-put choice:
	// when true, an existing entry is left untouched.
	PutFromLoadMinimal(ctx context.Context, key string, value []byte, txTimestamp, version int64, minimalPutOverride bool) (bool, error)

	LockItem(ctx context.Context, key string, version int64) (*SoftLock, error)
	LockRegion(ctx context.Context) (*SoftLock, error)
	UnlockItem(ctx context.Context, key string, lock *SoftLock) error
	UnlockRegion(ctx context.Context, lock *SoftLock) error

	// Remove and RemoveAll invalidate on deletion; Evict and EvictAll are the
	// administrative forms, not tied to a transaction.
	Remove(ctx context.Context, key string) error
	RemoveAll(ctx context.Context) error
	Evict(ctx context.Context, key string) error
	EvictAll(ctx context.Context) error
}

// CollectionRegionAccessStrategy guards cached collection state.
type CollectionRegionAccessStrategy interface {
	RegionAccessStrategy
}

// EntityRegionAccessStrategy adds the entity write path.
type EntityRegionAccessStrategy interface {
	RegionAccessStrategy

	// Insert is called inside the transaction after the row is inserted.
	Insert(ctx context.Context, key string, value []byte, version int64) (bool, error)
	// AfterInsert is called after the transaction commits.
	AfterInsert(ctx context.Context, key string, value []byte, version int64) (bool, error)
	// Update is called inside the transaction after the row is updated.
	Update(ctx context.Context, key string, value []byte, currentVersion, previousVersion int64) (bool, error)
	// AfterUpdate is called after commit with the lock from LockItem.
	AfterUpdate(ctx context.Context, key string, value []byte, currentVersion, previousVersion int64, lock *SoftLock) (bool, error)
}
