package l2cache

import (
	"fmt"
	"strings"
)

// AccessType is a cache concurrency strategy.
type AccessType int

const (
	ReadOnly AccessType = iota + 1
	ReadWrite
	NonstrictReadWrite
	Transactional
)

func (a AccessType) String() string {
	switch a {
	case ReadOnly:
		return "read-only"
	case ReadWrite:
		return "read-write"
	case NonstrictReadWrite:
		return "nonstrict-read-write"
	case Transactional:
		return "transactional"
	default:
		return fmt.Sprintf("AccessType(%d)", int(a))
	}
}

// ParseAccessType accepts the external names ("read-write") as well as the
// enum spellings ("READ_WRITE").
func ParseAccessType(s string) (AccessType, error) {
	n := strings.ToLower(strings.TrimSpace(s))
	n = strings.ReplaceAll(n, "_", "-")
	switch n {
	case "read-only":
		return ReadOnly, nil
	case "read-write":
		return ReadWrite, nil
	case "nonstrict-read-write":
		return NonstrictReadWrite, nil
	case "transactional":
		return Transactional, nil
	}
	return 0, fmt.Errorf("l2cache: unknown access type %q", s)
}

// LockingScheme describes how an engine serializes concurrent writers.
type LockingScheme int

const (
	// LockingNone: flat engines without node locks. Atomicity comes from
	// Engine.Lock only.
	LockingNone LockingScheme = iota
	// LockingPessimistic: writers hold per-key locks.
	LockingPessimistic
	// LockingOptimistic: writers carry data versions; stale versions are rejected.
	LockingOptimistic
)

func (l LockingScheme) String() string {
	switch l {
	case LockingNone:
		return "none"
	case LockingPessimistic:
		return "pessimistic"
	case LockingOptimistic:
		return "optimistic"
	default:
		return fmt.Sprintf("LockingScheme(%d)", int(l))
	}
}
