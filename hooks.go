package l2cache

// Hooks lightweight callbacks for high-signal events.
// Implementations MUST be cheap and non-blocking.
// The cache calls them on hot paths.
type Hooks interface {
	CacheHit(region string)
	CacheMiss(region string)
	CachePut(region string)

	// A put-from-load was skipped.
	// reason ∈ {"minimal_put", "invalidated", "locked", "version", "region_locked", "rejected"}
	PutFromLoadSkipped(region, key, reason string)

	// An unlock presented a token that does not own the current lock.
	SoftLockMismatch(region, key string)

	// An entry was deleted by the cache on read.
	// reason ∈ {"corrupt", "epoch_mismatch", "decode"}
	SelfHeal(storageKey, reason string)

	// Provider returned ok=false on Set (backpressure/eviction).
	ProviderSetRejected(storageKey string)

	// Generation store errors. op ∈ {"snapshot", "bump"}.
	GenError(op string, count int, err error)

	// The engine failed an operation; the error is also returned to the caller.
	EngineError(region, op string, err error)

	// Whole-region invalidation. reason ∈ {"evict_all", "remove_all", "unlock_region", "destroy"}
	RegionInvalidated(region, reason string)

	// The engine reported a stale entry that was surfaced as a miss.
	StaleRefresh(region, key string)
}

// NopHooks is the default no-op
type NopHooks struct{}

func (NopHooks) CacheHit(string)                            {}
func (NopHooks) CacheMiss(string)                           {}
func (NopHooks) CachePut(string)                            {}
func (NopHooks) PutFromLoadSkipped(string, string, string)  {}
func (NopHooks) SoftLockMismatch(string, string)            {}
func (NopHooks) SelfHeal(string, string)                    {}
func (NopHooks) ProviderSetRejected(string)                 {}
func (NopHooks) GenError(string, int, error)                {}
func (NopHooks) EngineError(string, string, error)          {}
func (NopHooks) RegionInvalidated(string, string)           {}
func (NopHooks) StaleRefresh(string, string)                {}
