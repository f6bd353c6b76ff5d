package l2cache

import "context"

// ReadWriteAccess implements the soft-lock protocol. LockItem replaces the
// cached item with a lock entry so concurrent loads cannot cache state the
// writer is about to change; AfterUpdate and UnlockItem release it.
// Every read-modify-write of an entry holds the engine lock for its key.
type ReadWriteAccess struct {
	baseAccess
}

var _ EntityRegionAccessStrategy = (*ReadWriteAccess)(nil)

func newReadWrite(b baseAccess) EntityRegionAccessStrategy { return &ReadWriteAccess{b} }

func (a *ReadWriteAccess) AccessType() AccessType { return ReadWrite }

// Get returns an item only to transactions that started after it was cached.
func (a *ReadWriteAccess) Get(ctx context.Context, key string, txTimestamp int64) ([]byte, bool, error) {
	return a.r.lookup(ctx, key, txTimestamp, true)
}

func (a *ReadWriteAccess) PutFromLoad(ctx context.Context, key string, value []byte, txTimestamp, version int64) (bool, error) {
	return a.PutFromLoadMinimal(ctx, key, value, txTimestamp, version, a.r.minimalPuts)
}

func (a *ReadWriteAccess) PutFromLoadMinimal(ctx context.Context, key string, value []byte, txTimestamp, version int64, minimalPutOverride bool) (bool, error) {
	r := a.r
	if err := r.check("put_from_load", key); err != nil {
		return false, err
	}
	if reason := r.admit(key, txTimestamp); reason != "" {
		r.skip(key, reason)
		return false, nil
	}

	var done bool
	err := r.locked(ctx, key, func() error {
		cur, err := r.read(ctx, key)
		if err != nil {
			return err
		}
		if cur != nil {
			if minimalPutOverride && cur.isItem() {
				r.skip(key, "minimal_put")
				return nil
			}
			if !cur.writeable(txTimestamp, version, r.desc) {
				if cur.isLock() {
					r.skip(key, "locked")
				} else {
					r.skip(key, "version")
				}
				return nil
			}
		}
		done, err = r.write(ctx, key, newItem(value, version, txTimestamp), PutOptions{})
		return err
	})
	return done, err
}

// LockItem installs (or joins) the soft lock for key. Joining an existing
// lock marks it concurrent: no holder will then cache its own write.
func (a *ReadWriteAccess) LockItem(ctx context.Context, key string, version int64) (*SoftLock, error) {
	r := a.r
	if err := r.check("lock", key); err != nil {
		return nil, err
	}
	var tok *SoftLock
	err := r.locked(ctx, key, func() error {
		cur, err := r.read(ctx, key)
		if err != nil {
			return err
		}
		timeout := r.ts.Next() + TimestampUnits(r.timeout)

		var l *entry
		if cur.isLock() {
			l = cur
			if l.Multiplicity > 0 {
				l.Concurrent = true
			}
			l.Multiplicity++
			l.Timeout = timeout
		} else {
			v := version
			if cur.isItem() {
				v = cur.Version
			}
			l = &entry{
				Kind:         kindLock,
				Owner:        r.owner,
				LockID:       r.lockSeq.Add(1),
				Timeout:      timeout,
				Multiplicity: 1,
				Version:      v,
			}
		}
		if _, err := r.write(ctx, key, l, PutOptions{}); err != nil {
			return err
		}
		tok = &SoftLock{region: r.spec.Name, key: key, owner: l.Owner, id: l.LockID}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return tok, nil
}

func (a *ReadWriteAccess) UnlockItem(ctx context.Context, key string, lock *SoftLock) error {
	r := a.r
	if err := r.check("unlock", key); err != nil {
		return err
	}
	if lock != nil && !lock.issuedFor(r.spec.Name, key) {
		r.mismatch(key, lock)
		return nil
	}
	return r.locked(ctx, key, func() error {
		cur, err := r.read(ctx, key)
		if err != nil {
			return err
		}
		if cur.unlockable(lock) && lock.consume() {
			return a.release(ctx, key, cur)
		}
		return a.orphan(ctx, key, cur, lock)
	})
}

// Insert does nothing: the row is not visible to other transactions yet.
func (a *ReadWriteAccess) Insert(context.Context, string, []byte, int64) (bool, error) {
	return false, nil
}

// AfterInsert caches the new row unless another writer got there first.
func (a *ReadWriteAccess) AfterInsert(ctx context.Context, key string, value []byte, version int64) (bool, error) {
	r := a.r
	if err := r.check("after_insert", key); err != nil {
		return false, err
	}
	var done bool
	err := r.locked(ctx, key, func() error {
		cur, err := r.read(ctx, key)
		if err != nil {
			return err
		}
		if cur != nil {
			return nil
		}
		done, err = r.write(ctx, key, newItem(value, version, r.ts.Next()), PutOptions{})
		return err
	})
	return done, err
}

// Update does nothing: the lock taken by LockItem covers the write.
func (a *ReadWriteAccess) Update(context.Context, string, []byte, int64, int64) (bool, error) {
	return false, nil
}

// AfterUpdate caches the committed state if lock is the sole holder;
// otherwise it only releases its share of the lock.
func (a *ReadWriteAccess) AfterUpdate(ctx context.Context, key string, value []byte, currentVersion, _ int64, lock *SoftLock) (bool, error) {
	r := a.r
	if err := r.check("after_update", key); err != nil {
		return false, err
	}
	if lock != nil && !lock.issuedFor(r.spec.Name, key) {
		r.mismatch(key, lock)
		return false, nil
	}
	var done bool
	err := r.locked(ctx, key, func() error {
		cur, err := r.read(ctx, key)
		if err != nil {
			return err
		}
		if !cur.unlockable(lock) || !lock.consume() {
			return a.orphan(ctx, key, cur, lock)
		}
		if cur.Concurrent {
			return a.release(ctx, key, cur)
		}
		done, err = r.write(ctx, key, newItem(value, currentVersion, r.ts.Next()), PutOptions{})
		return err
	})
	return done, err
}

// Remove keeps an existing soft lock in place; its holder decides what
// happens to the entry.
func (a *ReadWriteAccess) Remove(ctx context.Context, key string) error {
	r := a.r
	if err := r.check("remove", key); err != nil {
		return err
	}
	return r.locked(ctx, key, func() error {
		cur, err := r.read(ctx, key)
		if err != nil {
			return err
		}
		r.validator.invalidateKey(key, r.ts.Next())
		if cur.isLock() {
			return nil
		}
		return r.remove(ctx, key)
	})
}

// release drops one holder from lock entry l.
func (a *ReadWriteAccess) release(ctx context.Context, key string, l *entry) error {
	l.Multiplicity--
	l.UnlockTimestamp = a.r.ts.Next()
	_, err := a.r.write(ctx, key, l, PutOptions{})
	return err
}

// orphan handles an unlock whose token does not own the entry. A lock held
// by someone else is left alone; anything else is replaced by a released
// lock so loads that raced the write still cannot cache stale state.
func (a *ReadWriteAccess) orphan(ctx context.Context, key string, cur *entry, lock *SoftLock) error {
	r := a.r
	r.mismatch(key, lock)
	if cur.isLock() {
		return nil
	}
	ts := r.ts.Next() + TimestampUnits(r.timeout)
	l := &entry{
		Kind:            kindLock,
		Owner:           r.owner,
		LockID:          r.lockSeq.Add(1),
		Timeout:         ts,
		UnlockTimestamp: ts,
	}
	if cur.isItem() {
		l.Version = cur.Version
	}
	_, err := r.write(ctx, key, l, PutOptions{})
	return err
}
