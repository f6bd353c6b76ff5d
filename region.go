package l2cache

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/unkn0wn-root/l2cache/internal/util"
)

// region is the engine-agnostic part shared by every region kind.
type region struct {
	spec    RegionSpec
	engine  Engine
	caps    Capabilities
	ts      *Timestamper
	timeout time.Duration
	owner   string
	log     Logger
	hooks   Hooks

	destroyed atomic.Bool
	onDestroy func(name string)
}

func (r *region) Name() string { return r.spec.Name }
func (r *region) Kind() Kind   { return r.spec.Kind }

func (r *region) Destroy(ctx context.Context) error {
	if !r.destroyed.CompareAndSwap(false, true) {
		return nil
	}
	if r.onDestroy != nil {
		r.onDestroy(r.spec.Name)
	}
	r.hooks.RegionInvalidated(r.spec.Name, "destroy")
	if err := r.engine.Close(ctx); err != nil {
		return r.engineErr("destroy", "", err)
	}
	r.log.Debug("region destroyed", Fields{"region": r.spec.Name, "kind": r.spec.Kind.String()})
	return nil
}

func (r *region) Contains(ctx context.Context, key string) bool {
	if r.destroyed.Load() {
		return false
	}
	_, ok, err := r.engine.Get(ctx, key)
	return err == nil && ok
}

func (r *region) SizeInMemory() int64         { return r.engine.Stats().SizeInMemory }
func (r *region) ElementCountInMemory() int64 { return r.engine.Stats().ElementCountInMemory }
func (r *region) ElementCountOnDisk() int64   { return r.engine.Stats().ElementCountOnDisk }

func (r *region) NextTimestamp() int64   { return r.ts.Next() }
func (r *region) Timeout() time.Duration { return r.timeout }

func (r *region) check(op, key string) error {
	if r.destroyed.Load() {
		return &CacheError{Op: op, Region: r.spec.Name, Key: key, Err: ErrRegionDestroyed}
	}
	if err := util.ValidateKey(key); err != nil {
		return &CacheError{Op: op, Region: r.spec.Name, Key: key, Err: ErrInvalidKey}
	}
	return nil
}

func (r *region) checkAlive(op string) error {
	if r.destroyed.Load() {
		return &CacheError{Op: op, Region: r.spec.Name, Err: ErrRegionDestroyed}
	}
	return nil
}

func (r *region) engineErr(op, key string, err error) error {
	r.hooks.EngineError(r.spec.Name, op, err)
	r.log.Warn("engine operation failed", Fields{"region": r.spec.Name, "op": op, "key": key, "err": err})
	return cacheErr(op, r.spec.Name, key, err)
}

// read loads and decodes the entry for key. Undecodable bytes are removed
// and reported as a miss.
func (r *region) read(ctx context.Context, key string) (*entry, error) {
	raw, ok, err := r.engine.Get(ctx, key)
	if err != nil {
		return nil, r.engineErr("get", key, err)
	}
	if !ok {
		return nil, nil
	}
	e, err := decodeEntry(raw)
	if err != nil {
		_ = r.engine.Remove(ctx, key) // self-heal
		r.hooks.SelfHeal(key, "decode")
		r.log.Debug("dropped undecodable entry", Fields{"region": r.spec.Name, "key": key})
		return nil, nil
	}
	return e, nil
}

func (r *region) write(ctx context.Context, key string, e *entry, opts PutOptions) (bool, error) {
	b, err := encodeEntry(e)
	if err != nil {
		return false, cacheErr("put", r.spec.Name, key, err)
	}
	ok, err := r.engine.Put(ctx, key, b, opts)
	if err != nil {
		return false, r.engineErr("put", key, err)
	}
	if ok && e.isItem() {
		r.hooks.CachePut(r.spec.Name)
	}
	return ok, nil
}

func (r *region) remove(ctx context.Context, key string) error {
	if err := r.engine.Remove(ctx, key); err != nil {
		return r.engineErr("remove", key, err)
	}
	return nil
}

func (r *region) clear(ctx context.Context, reason string) error {
	if err := r.engine.Clear(ctx); err != nil {
		return r.engineErr("clear", "", err)
	}
	r.hooks.RegionInvalidated(r.spec.Name, reason)
	return nil
}

// dataRegion backs EntityRegion and CollectionRegion.
type dataRegion struct {
	*region
	self        TransactionalDataRegion
	desc        CacheDataDescription
	minimalPuts bool
	validator   *putValidator

	lockSeq    atomic.Uint64
	regionLock atomic.Pointer[regionLock]
}

type regionLock struct {
	token *SoftLock
	until int64
}

func (r *dataRegion) IsTransactionAware() bool                  { return r.caps.TransactionAware }
func (r *dataRegion) CacheDataDescription() CacheDataDescription { return r.desc }

// Contains ignores soft locks.
func (r *dataRegion) Contains(ctx context.Context, key string) bool {
	if r.destroyed.Load() {
		return false
	}
	e, err := r.read(ctx, key)
	return err == nil && e.isItem()
}

// locked runs fn while holding the engine's lock for key.
func (r *dataRegion) locked(ctx context.Context, key string, fn func() error) error {
	unlock, err := r.engine.Lock(ctx, key)
	if err != nil {
		return r.engineErr("lock", key, err)
	}
	defer unlock()
	return fn()
}

func (r *dataRegion) regionLocked() bool {
	rl := r.regionLock.Load()
	if rl == nil {
		return false
	}
	if r.ts.Current() > rl.until {
		r.regionLock.CompareAndSwap(rl, nil)
		return false
	}
	return true
}

func (r *dataRegion) skip(key, reason string) {
	r.hooks.PutFromLoadSkipped(r.spec.Name, key, reason)
	r.log.Debug("putFromLoad skipped", Fields{"region": r.spec.Name, "key": key, "reason": reason})
}

// admit runs the checks every putFromLoad shares. It returns a reason when
// the load must not be cached.
func (r *dataRegion) admit(key string, txTimestamp int64) string {
	if r.regionLocked() {
		return "region_locked"
	}
	if !r.validator.allow(key, txTimestamp) {
		return "invalidated"
	}
	return ""
}

// lookup is the Get path shared by every strategy.
func (r *dataRegion) lookup(ctx context.Context, key string, txTimestamp int64, useTimestamp bool) ([]byte, bool, error) {
	if err := r.check("get", key); err != nil {
		return nil, false, err
	}
	if r.regionLocked() {
		r.hooks.CacheMiss(r.spec.Name)
		return nil, false, nil
	}
	e, err := r.read(ctx, key)
	if err != nil {
		return nil, false, err
	}
	if !e.isItem() || (useTimestamp && !e.readable(txTimestamp)) {
		r.hooks.CacheMiss(r.spec.Name)
		return nil, false, nil
	}
	r.hooks.CacheHit(r.spec.Name)
	return e.Value, true, nil
}

// invalidate drops key and records the invalidation for the validator.
func (r *dataRegion) invalidate(ctx context.Context, op, key string) error {
	if err := r.check(op, key); err != nil {
		return err
	}
	r.validator.invalidateKey(key, r.ts.Next())
	return r.remove(ctx, key)
}

func (r *dataRegion) invalidateAll(ctx context.Context, reason string) error {
	if err := r.checkAlive(reason); err != nil {
		return err
	}
	r.validator.invalidateRegion(r.ts.Next())
	return r.clear(ctx, reason)
}

func (r *dataRegion) newToken(key string, id uint64) *SoftLock {
	return &SoftLock{region: r.spec.Name, key: key, owner: r.owner, id: id}
}

func (r *dataRegion) lockRegion(ctx context.Context) (*SoftLock, error) {
	if err := r.checkAlive("lock_region"); err != nil {
		return nil, err
	}
	tok := &SoftLock{region: r.spec.Name, owner: r.owner, id: r.lockSeq.Add(1), wholeRegion: true}
	r.regionLock.Store(&regionLock{token: tok, until: r.ts.Next() + TimestampUnits(r.timeout)})
	r.validator.invalidateRegion(r.ts.Next())
	return tok, nil
}

func (r *dataRegion) unlockRegion(ctx context.Context, lock *SoftLock) error {
	if err := r.checkAlive("unlock_region"); err != nil {
		return err
	}
	rl := r.regionLock.Load()
	if rl == nil || rl.token != lock || !lock.consume() {
		r.mismatch("", lock)
		return nil
	}
	r.regionLock.CompareAndSwap(rl, nil)
	return r.invalidateAll(ctx, "unlock_region")
}

// mismatch records an unlock with a token that does not own the lock. The
// cache is advisory, so this never fails the caller.
func (r *dataRegion) mismatch(key string, lock *SoftLock) {
	r.hooks.SoftLockMismatch(r.spec.Name, key)
	r.log.Warn("soft lock mismatch; ignoring unlock", Fields{"region": r.spec.Name, "key": key, "lock": lock.String()})
}

// releaseForeign handles unlocks on strategies that never hand out item
// tokens: a nil token is the normal case, anything else is foreign.
func (r *dataRegion) releaseForeign(key string, lock *SoftLock) {
	if lock != nil {
		r.mismatch(key, lock)
	}
}

// EntityRegion caches entity state.
type EntityRegion struct {
	*dataRegion
}

// BuildAccessStrategy returns the strategy for at under this region's
// locking scheme, or a *CacheError wrapping ErrUnsupportedAccessType.
func (r *EntityRegion) BuildAccessStrategy(at AccessType) (EntityRegionAccessStrategy, error) {
	return buildStrategy(r, r.dataRegion, at)
}

// CollectionRegion caches collection state keyed by owner and role.
type CollectionRegion struct {
	*dataRegion
}

// BuildAccessStrategy returns the strategy for at under this region's
// locking scheme, or a *CacheError wrapping ErrUnsupportedAccessType.
func (r *CollectionRegion) BuildAccessStrategy(at AccessType) (CollectionRegionAccessStrategy, error) {
	return buildStrategy(r, r.dataRegion, at)
}

// generalRegion backs QueryResultsRegion and TimestampsRegion.
type generalRegion struct {
	*region
}

func (r *generalRegion) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := r.check("get", key); err != nil {
		return nil, false, err
	}
	e, err := r.read(ctx, key)
	if err != nil {
		return nil, false, err
	}
	if !e.isItem() {
		r.hooks.CacheMiss(r.spec.Name)
		return nil, false, nil
	}
	r.hooks.CacheHit(r.spec.Name)
	return e.Value, true, nil
}

func (r *generalRegion) Put(ctx context.Context, key string, value []byte) error {
	if err := r.check("put", key); err != nil {
		return err
	}
	ok, err := r.write(ctx, key, newItem(value, 0, r.ts.Next()), PutOptions{})
	if err != nil {
		return err
	}
	if !ok {
		r.log.Debug("put declined by engine", Fields{"region": r.spec.Name, "key": key})
	}
	return nil
}

func (r *generalRegion) Evict(ctx context.Context, key string) error {
	if err := r.check("evict", key); err != nil {
		return err
	}
	return r.remove(ctx, key)
}

func (r *generalRegion) EvictAll(ctx context.Context) error {
	if err := r.checkAlive("evict_all"); err != nil {
		return err
	}
	return r.clear(ctx, "evict_all")
}

// QueryResultsRegion caches query results.
type QueryResultsRegion struct {
	*generalRegion
}

// TimestampsRegion caches the last update timestamp per table space.
type TimestampsRegion struct {
	*generalRegion
}

var (
	_ TransactionalDataRegion = (*EntityRegion)(nil)
	_ TransactionalDataRegion = (*CollectionRegion)(nil)
	_ GeneralDataRegion       = (*QueryResultsRegion)(nil)
	_ GeneralDataRegion       = (*TimestampsRegion)(nil)
)
