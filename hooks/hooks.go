// Package hooks combines l2cache.Hooks implementations. Adapters for
// logging and metrics live in the subpackages.
package hooks

import "github.com/unkn0wn-root/l2cache"

// Multi fans every event out to each of hs in order.
type Multi []l2cache.Hooks

var _ l2cache.Hooks = Multi(nil)

func (m Multi) CacheHit(region string) {
	for _, h := range m {
		h.CacheHit(region)
	}
}

func (m Multi) CacheMiss(region string) {
	for _, h := range m {
		h.CacheMiss(region)
	}
}

func (m Multi) CachePut(region string) {
	for _, h := range m {
		h.CachePut(region)
	}
}

func (m Multi) PutFromLoadSkipped(region, key, reason string) {
	for _, h := range m {
		h.PutFromLoadSkipped(region, key, reason)
	}
}

func (m Multi) SoftLockMismatch(region, key string) {
	for _, h := range m {
		h.SoftLockMismatch(region, key)
	}
}

func (m Multi) SelfHeal(storageKey, reason string) {
	for _, h := range m {
		h.SelfHeal(storageKey, reason)
	}
}

func (m Multi) ProviderSetRejected(storageKey string) {
	for _, h := range m {
		h.ProviderSetRejected(storageKey)
	}
}

func (m Multi) GenError(op string, count int, err error) {
	for _, h := range m {
		h.GenError(op, count, err)
	}
}

func (m Multi) EngineError(region, op string, err error) {
	for _, h := range m {
		h.EngineError(region, op, err)
	}
}

func (m Multi) RegionInvalidated(region, reason string) {
	for _, h := range m {
		h.RegionInvalidated(region, reason)
	}
}

func (m Multi) StaleRefresh(region, key string) {
	for _, h := range m {
		h.StaleRefresh(region, key)
	}
}
