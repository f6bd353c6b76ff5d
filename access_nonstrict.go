package l2cache

import "context"

// NonstrictReadWriteAccess never locks. Any write to a key evicts it, so a
// reader may briefly see the previous state until the eviction lands.
type NonstrictReadWriteAccess struct {
	baseAccess
}

var _ EntityRegionAccessStrategy = (*NonstrictReadWriteAccess)(nil)

func newNonstrictReadWrite(b baseAccess) EntityRegionAccessStrategy {
	return &NonstrictReadWriteAccess{b}
}

func (a *NonstrictReadWriteAccess) AccessType() AccessType { return NonstrictReadWrite }

func (a *NonstrictReadWriteAccess) Get(ctx context.Context, key string, txTimestamp int64) ([]byte, bool, error) {
	return a.r.lookup(ctx, key, txTimestamp, false)
}

func (a *NonstrictReadWriteAccess) PutFromLoad(ctx context.Context, key string, value []byte, txTimestamp, version int64) (bool, error) {
	return a.PutFromLoadMinimal(ctx, key, value, txTimestamp, version, a.r.minimalPuts)
}

func (a *NonstrictReadWriteAccess) PutFromLoadMinimal(ctx context.Context, key string, value []byte, txTimestamp, version int64, minimalPutOverride bool) (bool, error) {
	return a.cacheLoad(ctx, key, value, txTimestamp, version, minimalPutOverride, PutOptions{}, true)
}

func (a *NonstrictReadWriteAccess) LockItem(_ context.Context, key string, _ int64) (*SoftLock, error) {
	return nil, a.r.check("lock", key)
}

// UnlockItem evicts key: the write it guarded has committed.
func (a *NonstrictReadWriteAccess) UnlockItem(ctx context.Context, key string, lock *SoftLock) error {
	if err := a.r.check("unlock", key); err != nil {
		return err
	}
	a.r.releaseForeign(key, lock)
	return a.r.invalidate(ctx, "unlock", key)
}

func (a *NonstrictReadWriteAccess) Insert(context.Context, string, []byte, int64) (bool, error) {
	return false, nil
}

func (a *NonstrictReadWriteAccess) AfterInsert(context.Context, string, []byte, int64) (bool, error) {
	return false, nil
}

func (a *NonstrictReadWriteAccess) Update(ctx context.Context, key string, _ []byte, _, _ int64) (bool, error) {
	return false, a.r.invalidate(ctx, "update", key)
}

func (a *NonstrictReadWriteAccess) AfterUpdate(ctx context.Context, key string, _ []byte, _, _ int64, lock *SoftLock) (bool, error) {
	return false, a.UnlockItem(ctx, key, lock)
}
