package l2cache

import (
	"math"
	"sync"
	"sync/atomic"
)

type removal struct {
	key string
	ts  int64
}

// putValidator rejects loads that began before the latest invalidation of
// their key or region. A transaction that read the database before a
// concurrent delete must not re-populate the cache with what it read.
//
// Records live for the naked-put period; older loads are allowed through
// again, relying on the database being the source of truth.
type putValidator struct {
	period int64 // timestamp units

	mu       sync.Mutex
	removals map[string]int64
	queue    []removal

	// regionInvalidated is noInvalidation until the region is first
	// invalidated.
	regionInvalidated atomic.Int64
}

const noInvalidation = math.MinInt64

func newPutValidator(period int64) *putValidator {
	v := &putValidator{period: period, removals: make(map[string]int64)}
	v.regionInvalidated.Store(noInvalidation)
	return v
}

// allow reports whether a load started at txTimestamp may be cached.
func (v *putValidator) allow(key string, txTimestamp int64) bool {
	if ri := v.regionInvalidated.Load(); ri != noInvalidation && txTimestamp <= ri {
		return false
	}
	v.mu.Lock()
	ts, ok := v.removals[key]
	v.mu.Unlock()
	return !ok || txTimestamp > ts
}

func (v *putValidator) invalidateKey(key string, now int64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if prev, ok := v.removals[key]; !ok || now > prev {
		v.removals[key] = now
	}
	v.queue = append(v.queue, removal{key: key, ts: now})
	v.pruneLocked(now)
}

func (v *putValidator) invalidateRegion(now int64) {
	for {
		prev := v.regionInvalidated.Load()
		if now <= prev || v.regionInvalidated.CompareAndSwap(prev, now) {
			break
		}
	}
	v.mu.Lock()
	clear(v.removals)
	v.queue = v.queue[:0]
	v.mu.Unlock()
}

// pruneLocked drops records older than the naked-put period. The queue is
// ordered by insertion, which follows the logical clock.
func (v *putValidator) pruneLocked(now int64) {
	cutoff := now - v.period
	n := 0
	for n < len(v.queue) && v.queue[n].ts < cutoff {
		r := v.queue[n]
		if ts, ok := v.removals[r.key]; ok && ts == r.ts {
			delete(v.removals, r.key)
		}
		n++
	}
	if n > 0 {
		v.queue = append(v.queue[:0], v.queue[n:]...)
	}
}

func (v *putValidator) pending() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.removals)
}
