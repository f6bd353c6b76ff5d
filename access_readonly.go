package l2cache

import "context"

// ReadOnlyAccess serves immutable data. Updates are rejected; soft locks
// are never handed out.
type ReadOnlyAccess struct {
	baseAccess
}

var _ EntityRegionAccessStrategy = (*ReadOnlyAccess)(nil)

func newReadOnly(b baseAccess) EntityRegionAccessStrategy { return &ReadOnlyAccess{b} }

func (a *ReadOnlyAccess) AccessType() AccessType { return ReadOnly }

func (a *ReadOnlyAccess) Get(ctx context.Context, key string, txTimestamp int64) ([]byte, bool, error) {
	return a.r.lookup(ctx, key, txTimestamp, false)
}

func (a *ReadOnlyAccess) PutFromLoad(ctx context.Context, key string, value []byte, txTimestamp, version int64) (bool, error) {
	return a.PutFromLoadMinimal(ctx, key, value, txTimestamp, version, a.r.minimalPuts)
}

func (a *ReadOnlyAccess) PutFromLoadMinimal(ctx context.Context, key string, value []byte, txTimestamp, version int64, minimalPutOverride bool) (bool, error) {
	return a.cacheLoad(ctx, key, value, txTimestamp, version, minimalPutOverride, PutOptions{}, true)
}

func (a *ReadOnlyAccess) LockItem(_ context.Context, key string, _ int64) (*SoftLock, error) {
	return nil, a.r.check("lock", key)
}

func (a *ReadOnlyAccess) UnlockItem(_ context.Context, key string, lock *SoftLock) error {
	if err := a.r.check("unlock", key); err != nil {
		return err
	}
	a.r.releaseForeign(key, lock)
	return nil
}

func (a *ReadOnlyAccess) Insert(context.Context, string, []byte, int64) (bool, error) {
	return false, nil
}

func (a *ReadOnlyAccess) AfterInsert(ctx context.Context, key string, value []byte, version int64) (bool, error) {
	return a.store(ctx, "after_insert", key, value, version, PutOptions{}, true)
}

func (a *ReadOnlyAccess) Update(_ context.Context, key string, _ []byte, _, _ int64) (bool, error) {
	return false, a.readOnlyUpdate("update", key)
}

func (a *ReadOnlyAccess) AfterUpdate(_ context.Context, key string, _ []byte, _, _ int64, _ *SoftLock) (bool, error) {
	return false, a.readOnlyUpdate("after_update", key)
}
