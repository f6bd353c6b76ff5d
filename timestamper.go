package l2cache

import (
	"sync/atomic"
	"time"
)

// timestampShift leaves room for 4096 distinct timestamps per millisecond.
const timestampShift = 12

// Timestamper hands out strictly increasing logical timestamps derived from
// wall-clock milliseconds. A clock that steps backwards never makes the
// sequence go backwards.
type Timestamper struct {
	last atomic.Int64
	now  func() time.Time
}

// NewTimestamper returns a Timestamper reading now (time.Now when nil).
func NewTimestamper(now func() time.Time) *Timestamper {
	if now == nil {
		now = time.Now
	}
	return &Timestamper{now: now}
}

// Next returns a timestamp greater than every previously returned one.
func (t *Timestamper) Next() int64 {
	base := t.now().UnixMilli() << timestampShift
	for {
		last := t.last.Load()
		next := base
		if next <= last {
			next = last + 1
		}
		if t.last.CompareAndSwap(last, next) {
			return next
		}
	}
}

// Current returns the clock's present value without consuming a timestamp.
func (t *Timestamper) Current() int64 {
	base := t.now().UnixMilli() << timestampShift
	if last := t.last.Load(); last > base {
		return last
	}
	return base
}

// TimestampUnits converts a duration to logical timestamp units.
func TimestampUnits(d time.Duration) int64 {
	return d.Milliseconds() << timestampShift
}
