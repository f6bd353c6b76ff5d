package l2cache

import (
	"cmp"
	"context"
	"time"
)

// Kind is the category of data a region holds.
type Kind int

const (
	KindEntity Kind = iota + 1
	KindCollection
	KindQueryResults
	KindTimestamps
)

// Discriminator is the constant engines use to keep regions of different
// kinds apart in a shared namespace.
func (k Kind) Discriminator() string {
	switch k {
	case KindEntity:
		return "ENTITY"
	case KindCollection:
		return "COLL"
	case KindQueryResults:
		return "QUERY"
	case KindTimestamps:
		return "TS"
	default:
		return "UNKNOWN"
	}
}

func (k Kind) String() string {
	switch k {
	case KindEntity:
		return "entity"
	case KindCollection:
		return "collection"
	case KindQueryResults:
		return "query-results"
	case KindTimestamps:
		return "timestamps"
	default:
		return "unknown"
	}
}

// RegionSpec identifies the region an engine is built for.
type RegionSpec struct {
	Name   string
	Prefix string
	Kind   Kind
}

// QualifiedName is the region name with its prefix applied.
func (s RegionSpec) QualifiedName() string {
	if s.Prefix == "" {
		return s.Name
	}
	return s.Prefix + "." + s.Name
}

// PutOptions tune a single Engine.Put.
type PutOptions struct {
	// IfAbsent skips the write when a live entry exists (minimal put).
	IfAbsent bool
	// Versioned makes optimistic engines reject the write unless Version is
	// newer than the stored (or removed) version.
	Versioned bool
	Version   int64
	// Compare orders versions for Versioned puts; nil means numeric.
	Compare VersionComparator
}

// CompareVersions applies o.Compare, falling back to numeric order.
func (o PutOptions) CompareVersions(a, b int64) int {
	if o.Compare == nil {
		return cmp.Compare(a, b)
	}
	return o.Compare(a, b)
}

// Capabilities are fixed for the lifetime of an engine.
type Capabilities struct {
	Locking LockingScheme
	// TransactionAware engines apply writes in step with the database
	// transaction. Otherwise callers stage writes until commit (see Stage).
	TransactionAware bool
	// MinimalPuts reports an atomic PutOptions.IfAbsent.
	MinimalPuts bool
}

// Stats are best-effort engine statistics; -1 means unknown.
type Stats struct {
	SizeInMemory         int64
	ElementCountInMemory int64
	ElementCountOnDisk   int64
}

// UnknownStats is returned by engines that cannot count.
var UnknownStats = Stats{SizeInMemory: -1, ElementCountInMemory: -1, ElementCountOnDisk: -1}

// Engine binds one region to a concrete cache engine.
//
// Contract:
//   - Concurrency: safe for concurrent use.
//   - Get returns (nil, false, nil) on miss; errors are infrastructure failures.
//   - Put returns false when the engine declined the write (present entry with
//     IfAbsent, stale version, memory pressure).
//   - Lock returns a release func; engines without locking return a no-op.
type Engine interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Put(ctx context.Context, key string, value []byte, opts PutOptions) (bool, error)
	Remove(ctx context.Context, key string) error
	Clear(ctx context.Context) error
	Lock(ctx context.Context, key string) (unlock func(), err error)
	Capabilities() Capabilities
	Stats() Stats
	Close(ctx context.Context) error
}

// EngineFactory builds one Engine per region.
type EngineFactory interface {
	BuildEngine(ctx context.Context, spec RegionSpec) (Engine, error)
}

// TimeoutReporter is implemented by engines that want a soft-lock timeout
// other than the factory default.
type TimeoutReporter interface {
	Timeout() time.Duration
}
