package l2cache

import (
	"github.com/vmihailenco/msgpack/v5"
)

type entryKind uint8

const (
	kindItem entryKind = 1
	kindLock entryKind = 2
)

// entry is what strategies store in an engine: either a cached item or a
// soft lock guarding an in-flight write.
type entry struct {
	Kind entryKind `msgpack:"k"`

	// item
	Value     []byte `msgpack:"v,omitempty"`
	Version   int64  `msgpack:"ver,omitempty"`
	Timestamp int64  `msgpack:"ts,omitempty"`

	// lock
	Owner           string `msgpack:"o,omitempty"`
	LockID          uint64 `msgpack:"id,omitempty"`
	Timeout         int64  `msgpack:"to,omitempty"`
	Multiplicity    int32  `msgpack:"m,omitempty"`
	Concurrent      bool   `msgpack:"c,omitempty"`
	UnlockTimestamp int64  `msgpack:"uts,omitempty"`
}

func newItem(value []byte, version, ts int64) *entry {
	return &entry{Kind: kindItem, Value: value, Version: version, Timestamp: ts}
}

func (e *entry) isItem() bool { return e != nil && e.Kind == kindItem }
func (e *entry) isLock() bool { return e != nil && e.Kind == kindLock }

// readable: an item is visible to transactions that started at or after it
// was cached. Locks are never readable.
func (e *entry) readable(txTimestamp int64) bool {
	return e.isItem() && txTimestamp >= e.Timestamp
}

// writeable decides whether a load at txTimestamp carrying version may
// replace this entry.
func (e *entry) writeable(txTimestamp, version int64, d CacheDataDescription) bool {
	switch e.Kind {
	case kindItem:
		return d.IsVersioned() && d.newer(e.Version, version)
	case kindLock:
		if txTimestamp > e.Timeout {
			return true
		}
		if e.Multiplicity > 0 {
			return false
		}
		if d.IsVersioned() {
			return d.newer(e.Version, version)
		}
		return txTimestamp > e.UnlockTimestamp
	}
	return true
}

// unlockable reports whether lock is the token that acquired this entry and
// the entry still has holders.
func (e *entry) unlockable(lock *SoftLock) bool {
	return e.isLock() && lock != nil &&
		e.Owner == lock.owner && e.LockID == lock.id && e.Multiplicity > 0
}

func encodeEntry(e *entry) ([]byte, error) {
	return msgpack.Marshal(e)
}

func decodeEntry(b []byte) (*entry, error) {
	var e entry
	if err := msgpack.Unmarshal(b, &e); err != nil {
		return nil, err
	}
	if e.Kind != kindItem && e.Kind != kindLock {
		return nil, errCorruptEntry
	}
	return &e, nil
}
