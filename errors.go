package l2cache

import (
	"errors"
	"fmt"
)

var (
	ErrUnsupportedAccessType = errors.New("l2cache: unsupported access type")
	ErrReadOnlyUpdate        = errors.New("l2cache: can't update a read-only entry")
	ErrRegionDestroyed       = errors.New("l2cache: region destroyed")
	ErrRegionExists          = errors.New("l2cache: region already exists")
	ErrInvalidKey            = errors.New("l2cache: invalid key")
	ErrClosed                = errors.New("l2cache: closed")

	errCorruptEntry = errors.New("l2cache: corrupt entry")
	errNotEntity    = errors.New("l2cache: not an entity access strategy")
)

// CacheError is the failure type returned across the cache boundary.
// Err is either one of the sentinels above or the engine's own error.
type CacheError struct {
	Op     string
	Region string
	Key    string
	Err    error
}

func (e *CacheError) Error() string {
	switch {
	case e.Region != "" && e.Key != "":
		return fmt.Sprintf("l2cache: %s %s[%q]: %v", e.Op, e.Region, e.Key, e.Err)
	case e.Region != "":
		return fmt.Sprintf("l2cache: %s %s: %v", e.Op, e.Region, e.Err)
	default:
		return fmt.Sprintf("l2cache: %s: %v", e.Op, e.Err)
	}
}

func (e *CacheError) Unwrap() error { return e.Err }

// UnsupportedError reports an access type the region's engine cannot serve.
type UnsupportedError struct {
	Access  AccessType
	Locking LockingScheme
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("%s access with %s locking: %v", e.Access, e.Locking, ErrUnsupportedAccessType)
}

func (e *UnsupportedError) Unwrap() error { return ErrUnsupportedAccessType }

func cacheErr(op, region, key string, err error) error {
	if err == nil {
		return nil
	}
	var ce *CacheError
	if errors.As(err, &ce) {
		return err
	}
	return &CacheError{Op: op, Region: region, Key: key, Err: err}
}
