package oscache

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/unkn0wn-root/l2cache"
	"github.com/unkn0wn-root/l2cache/internal/util"
)

const (
	lockStripes = 64
	// timeout is the soft-lock timeout regions on this engine use.
	timeout = 60 * time.Second
)

// Cache binds one region to a Store. Keys are stored as key + "." + region
// and every entry joins the region's group.
type Cache struct {
	store   *Store
	region  string
	refresh time.Duration
	sched   cron.Schedule
	hooks   l2cache.Hooks
	locks   []chan struct{}
	closed  atomic.Bool
}

var (
	_ l2cache.Engine          = (*Cache)(nil)
	_ l2cache.TimeoutReporter = (*Cache)(nil)
)

func newCache(store *Store, region string, refresh time.Duration, sched cron.Schedule, hooks l2cache.Hooks) *Cache {
	c := &Cache{
		store:   store,
		region:  region,
		refresh: refresh,
		sched:   sched,
		hooks:   hooks,
		locks:   make([]chan struct{}, lockStripes),
	}
	for i := range c.locks {
		c.locks[i] = make(chan struct{}, 1)
	}
	return c
}

func (c *Cache) RegionName() string { return c.region }

func (c *Cache) toKey(key string) string { return key + "." + c.region }

// Get reports a stale or missing entry as a miss and releases the update
// it was handed, so a following Put is never blocked.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if c.closed.Load() {
		return nil, false, l2cache.ErrClosed
	}
	k := c.toKey(key)
	v, err := c.store.GetFromCache(ctx, k, c.refresh, c.sched)
	var nre *NeedsRefreshError
	switch {
	case err == nil:
		return v, true, nil
	case errors.As(err, &nre):
		c.store.CancelUpdate(k)
		if nre.Stale != nil {
			c.hooks.StaleRefresh(c.region, key)
		}
		return nil, false, nil
	default:
		return nil, false, err
	}
}

// Put always stores; the store has no set-if-absent or versions.
func (c *Cache) Put(_ context.Context, key string, value []byte, _ l2cache.PutOptions) (bool, error) {
	if c.closed.Load() {
		return false, l2cache.ErrClosed
	}
	c.store.PutInCache(c.toKey(key), value, c.region)
	return true, nil
}

func (c *Cache) Remove(_ context.Context, key string) error {
	if c.closed.Load() {
		return l2cache.ErrClosed
	}
	c.store.FlushEntry(c.toKey(key))
	return nil
}

func (c *Cache) Clear(context.Context) error {
	if c.closed.Load() {
		return l2cache.ErrClosed
	}
	c.store.FlushGroup(c.region)
	return nil
}

// Lock serializes read-modify-write sequences on key within this process.
func (c *Cache) Lock(ctx context.Context, key string) (func(), error) {
	l := c.locks[util.Stripe(key, len(c.locks))]
	select {
	case l <- struct{}{}:
		return func() { <-l }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *Cache) Capabilities() l2cache.Capabilities {
	return l2cache.Capabilities{Locking: l2cache.LockingNone}
}

func (c *Cache) Stats() l2cache.Stats {
	s := l2cache.UnknownStats
	s.ElementCountInMemory = int64(c.store.GroupLen(c.region))
	return s
}

func (c *Cache) Timeout() time.Duration { return timeout }

// Close flushes the region's group.
func (c *Cache) Close(context.Context) error {
	if c.closed.CompareAndSwap(false, true) {
		c.store.FlushGroup(c.region)
	}
	return nil
}
