package l2cache

import "cmp"

// VersionComparator orders version values: negative when a < b.
type VersionComparator func(a, b int64) int

// CacheDataDescription describes the mapped type cached in a transactional
// data region. It is immutable once built.
type CacheDataDescription struct {
	mutable   bool
	versioned bool
	cmp       VersionComparator
}

// NewCacheDataDescription builds a description. A nil comparator means
// numeric ordering.
func NewCacheDataDescription(mutable, versioned bool, c VersionComparator) CacheDataDescription {
	if c == nil {
		c = cmp.Compare[int64]
	}
	return CacheDataDescription{mutable: mutable, versioned: versioned, cmp: c}
}

func (d CacheDataDescription) IsMutable() bool   { return d.mutable }
func (d CacheDataDescription) IsVersioned() bool { return d.versioned }

// VersionComparator returns the comparator; never nil.
func (d CacheDataDescription) VersionComparator() VersionComparator {
	if d.cmp == nil {
		return cmp.Compare[int64]
	}
	return d.cmp
}

// newer reports whether candidate supersedes current.
func (d CacheDataDescription) newer(current, candidate int64) bool {
	return d.VersionComparator()(current, candidate) < 0
}
