package l2cache

import (
	"fmt"
	"sync/atomic"
)

// SoftLock is the opaque token returned by LockItem and LockRegion.
// A token unlocks only the key (or region) it was issued for, and only once.
type SoftLock struct {
	region      string
	key         string // empty for region locks
	owner       string
	id          uint64
	wholeRegion bool

	released atomic.Bool
}

func (l *SoftLock) String() string {
	if l == nil {
		return "<nil>"
	}
	if l.wholeRegion {
		return fmt.Sprintf("SoftLock{region=%s id=%d}", l.region, l.id)
	}
	return fmt.Sprintf("SoftLock{region=%s key=%q id=%d}", l.region, l.key, l.id)
}

// issuedFor reports whether the token was issued by the named region for key.
func (l *SoftLock) issuedFor(region, key string) bool {
	return l != nil && !l.wholeRegion && l.region == region && l.key == key
}

// consume marks the token released; false when it already was.
func (l *SoftLock) consume() bool {
	return l.released.CompareAndSwap(false, true)
}
