package l2cache

import "context"

// strategyKey is one cell of the dispatch table: the requested access type
// crossed with the locking scheme the region's engine was built with.
type strategyKey struct {
	access  AccessType
	locking LockingScheme
}

type strategyCtor func(base baseAccess) EntityRegionAccessStrategy

// strategies maps every supported combination to its implementation.
// Missing cells are unsupported.
var strategies = map[strategyKey]strategyCtor{
	{ReadOnly, LockingNone}:        newReadOnly,
	{ReadOnly, LockingPessimistic}: newReadOnly,
	{ReadOnly, LockingOptimistic}:  newOptimisticReadOnly,

	{NonstrictReadWrite, LockingNone}: newNonstrictReadWrite,
	{ReadWrite, LockingNone}:          newReadWrite,

	{Transactional, LockingPessimistic}: newTransactional,
	{Transactional, LockingOptimistic}:  newOptimisticTransactional,
}

// Supports reports whether the table has an implementation for at under locking.
func Supports(at AccessType, locking LockingScheme) bool {
	_, ok := strategies[strategyKey{at, locking}]
	return ok
}

func buildStrategy(owner TransactionalDataRegion, r *dataRegion, at AccessType) (EntityRegionAccessStrategy, error) {
	if err := r.checkAlive("build_access_strategy"); err != nil {
		return nil, err
	}
	ctor, ok := strategies[strategyKey{at, r.caps.Locking}]
	if !ok {
		return nil, &CacheError{
			Op:     "build_access_strategy",
			Region: r.spec.Name,
			Err:    &UnsupportedError{Access: at, Locking: r.caps.Locking},
		}
	}
	s := ctor(baseAccess{owner: owner, r: r})
	r.log.Debug("built access strategy", Fields{
		"region": r.spec.Name, "access": at.String(), "locking": r.caps.Locking.String(),
	})
	return s, nil
}

// baseAccess carries the immutable region reference every strategy holds,
// plus the operations that are identical across strategies.
type baseAccess struct {
	owner TransactionalDataRegion
	r     *dataRegion
}

func (a baseAccess) Region() TransactionalDataRegion { return a.owner }

func (a baseAccess) LockRegion(ctx context.Context) (*SoftLock, error) {
	return a.r.lockRegion(ctx)
}

func (a baseAccess) UnlockRegion(ctx context.Context, lock *SoftLock) error {
	return a.r.unlockRegion(ctx, lock)
}

func (a baseAccess) Remove(ctx context.Context, key string) error {
	return a.r.invalidate(ctx, "remove", key)
}

func (a baseAccess) RemoveAll(ctx context.Context) error {
	return a.r.invalidateAll(ctx, "remove_all")
}

func (a baseAccess) Evict(ctx context.Context, key string) error {
	return a.r.invalidate(ctx, "evict", key)
}

func (a baseAccess) EvictAll(ctx context.Context) error {
	return a.r.invalidateAll(ctx, "evict_all")
}

// cacheLoad is the putFromLoad path of every strategy without soft locks.
// withLock serializes the write against other writers of key through the
// engine lock; optimistic engines rely on versions instead.
func (a baseAccess) cacheLoad(ctx context.Context, key string, value []byte, txTimestamp, version int64, minimal bool, opts PutOptions, withLock bool) (bool, error) {
	r := a.r
	if err := r.check("put_from_load", key); err != nil {
		return false, err
	}
	if reason := r.admit(key, txTimestamp); reason != "" {
		r.skip(key, reason)
		return false, nil
	}

	put := func() (bool, error) {
		if minimal && !r.caps.MinimalPuts {
			cur, err := r.read(ctx, key)
			if err != nil {
				return false, err
			}
			if cur != nil {
				r.skip(key, "minimal_put")
				return false, nil
			}
		}
		opts.IfAbsent = minimal
		ok, err := r.write(ctx, key, newItem(value, version, txTimestamp), opts)
		if err != nil || ok {
			return ok, err
		}
		switch {
		case minimal:
			r.skip(key, "minimal_put")
		case opts.Versioned:
			r.skip(key, "version")
		default:
			r.skip(key, "rejected")
		}
		return false, nil
	}

	if !withLock {
		return put()
	}
	var done bool
	err := r.locked(ctx, key, func() error {
		var err error
		done, err = put()
		return err
	})
	return done, err
}

// store writes freshly committed state, bypassing the load checks.
func (a baseAccess) store(ctx context.Context, op, key string, value []byte, version int64, opts PutOptions, withLock bool) (bool, error) {
	r := a.r
	if err := r.check(op, key); err != nil {
		return false, err
	}
	put := func() (bool, error) {
		return r.write(ctx, key, newItem(value, version, r.ts.Next()), opts)
	}
	if !withLock {
		return put()
	}
	var done bool
	err := r.locked(ctx, key, func() error {
		var err error
		done, err = put()
		return err
	})
	return done, err
}

func (a baseAccess) readOnlyUpdate(op, key string) error {
	return &CacheError{Op: op, Region: a.r.spec.Name, Key: key, Err: ErrReadOnlyUpdate}
}
