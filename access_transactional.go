package l2cache

import "context"

// TransactionalAccess targets engines with pessimistic node locking: every
// write holds the engine's per-key lock, and writes happen inside the
// transaction instead of after it.
type TransactionalAccess struct {
	baseAccess
}

var _ EntityRegionAccessStrategy = (*TransactionalAccess)(nil)

func newTransactional(b baseAccess) EntityRegionAccessStrategy { return &TransactionalAccess{b} }

func (a *TransactionalAccess) AccessType() AccessType { return Transactional }

func (a *TransactionalAccess) Get(ctx context.Context, key string, txTimestamp int64) ([]byte, bool, error) {
	return a.r.lookup(ctx, key, txTimestamp, false)
}

func (a *TransactionalAccess) PutFromLoad(ctx context.Context, key string, value []byte, txTimestamp, version int64) (bool, error) {
	return a.PutFromLoadMinimal(ctx, key, value, txTimestamp, version, a.r.minimalPuts)
}

func (a *TransactionalAccess) PutFromLoadMinimal(ctx context.Context, key string, value []byte, txTimestamp, version int64, minimalPutOverride bool) (bool, error) {
	return a.cacheLoad(ctx, key, value, txTimestamp, version, minimalPutOverride, PutOptions{}, true)
}

func (a *TransactionalAccess) LockItem(_ context.Context, key string, _ int64) (*SoftLock, error) {
	return nil, a.r.check("lock", key)
}

func (a *TransactionalAccess) UnlockItem(_ context.Context, key string, lock *SoftLock) error {
	if err := a.r.check("unlock", key); err != nil {
		return err
	}
	a.r.releaseForeign(key, lock)
	return nil
}

func (a *TransactionalAccess) Insert(ctx context.Context, key string, value []byte, version int64) (bool, error) {
	return a.store(ctx, "insert", key, value, version, PutOptions{}, true)
}

func (a *TransactionalAccess) AfterInsert(context.Context, string, []byte, int64) (bool, error) {
	return false, nil
}

func (a *TransactionalAccess) Update(ctx context.Context, key string, value []byte, currentVersion, _ int64) (bool, error) {
	return a.store(ctx, "update", key, value, currentVersion, PutOptions{}, true)
}

func (a *TransactionalAccess) AfterUpdate(_ context.Context, key string, _ []byte, _, _ int64, lock *SoftLock) (bool, error) {
	if err := a.r.check("after_update", key); err != nil {
		return false, err
	}
	a.r.releaseForeign(key, lock)
	return false, nil
}

// OptimisticTransactionalAccess targets engines with optimistic node
// locking. No locks are taken; writes carry the entity version and the
// engine refuses any write whose version is not newer than what it holds,
// including the ghost version a removal leaves behind.
type OptimisticTransactionalAccess struct {
	baseAccess
}

var _ EntityRegionAccessStrategy = (*OptimisticTransactionalAccess)(nil)

func newOptimisticTransactional(b baseAccess) EntityRegionAccessStrategy {
	return &OptimisticTransactionalAccess{b}
}

func (a *OptimisticTransactionalAccess) AccessType() AccessType { return Transactional }

func (a *OptimisticTransactionalAccess) versioned(version int64) PutOptions {
	return PutOptions{Versioned: a.r.desc.IsVersioned(), Version: version, Compare: a.r.desc.VersionComparator()}
}

func (a *OptimisticTransactionalAccess) Get(ctx context.Context, key string, txTimestamp int64) ([]byte, bool, error) {
	return a.r.lookup(ctx, key, txTimestamp, false)
}

func (a *OptimisticTransactionalAccess) PutFromLoad(ctx context.Context, key string, value []byte, txTimestamp, version int64) (bool, error) {
	return a.PutFromLoadMinimal(ctx, key, value, txTimestamp, version, a.r.minimalPuts)
}

func (a *OptimisticTransactionalAccess) PutFromLoadMinimal(ctx context.Context, key string, value []byte, txTimestamp, version int64, minimalPutOverride bool) (bool, error) {
	return a.cacheLoad(ctx, key, value, txTimestamp, version, minimalPutOverride, a.versioned(version), false)
}

func (a *OptimisticTransactionalAccess) LockItem(_ context.Context, key string, _ int64) (*SoftLock, error) {
	return nil, a.r.check("lock", key)
}

func (a *OptimisticTransactionalAccess) UnlockItem(_ context.Context, key string, lock *SoftLock) error {
	if err := a.r.check("unlock", key); err != nil {
		return err
	}
	a.r.releaseForeign(key, lock)
	return nil
}

func (a *OptimisticTransactionalAccess) Insert(ctx context.Context, key string, value []byte, version int64) (bool, error) {
	return a.store(ctx, "insert", key, value, version, a.versioned(version), false)
}

func (a *OptimisticTransactionalAccess) AfterInsert(context.Context, string, []byte, int64) (bool, error) {
	return false, nil
}

func (a *OptimisticTransactionalAccess) Update(ctx context.Context, key string, value []byte, currentVersion, _ int64) (bool, error) {
	return a.store(ctx, "update", key, value, currentVersion, a.versioned(currentVersion), false)
}

func (a *OptimisticTransactionalAccess) AfterUpdate(_ context.Context, key string, _ []byte, _, _ int64, lock *SoftLock) (bool, error) {
	if err := a.r.check("after_update", key); err != nil {
		return false, err
	}
	a.r.releaseForeign(key, lock)
	return false, nil
}

// OptimisticReadOnlyAccess is the read-only strategy for optimistic engines.
type OptimisticReadOnlyAccess struct {
	OptimisticTransactionalAccess
}

var _ EntityRegionAccessStrategy = (*OptimisticReadOnlyAccess)(nil)

func newOptimisticReadOnly(b baseAccess) EntityRegionAccessStrategy {
	return &OptimisticReadOnlyAccess{OptimisticTransactionalAccess{b}}
}

func (a *OptimisticReadOnlyAccess) AccessType() AccessType { return ReadOnly }

func (a *OptimisticReadOnlyAccess) Update(_ context.Context, key string, _ []byte, _, _ int64) (bool, error) {
	return false, a.readOnlyUpdate("update", key)
}

func (a *OptimisticReadOnlyAccess) AfterUpdate(_ context.Context, key string, _ []byte, _, _ int64, _ *SoftLock) (bool, error) {
	return false, a.readOnlyUpdate("after_update", key)
}
