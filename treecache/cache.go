// Package treecache is an in-process hierarchical cache addressed by Fqn,
// with either pessimistic per-key locking or optimistic data versioning,
// and an l2cache.EngineFactory binding regions to subtrees of it.
package treecache

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/puzpuzpuz/xsync/v3"

	"github.com/unkn0wn-root/l2cache"
)

const lockStripes = 64

var ErrLockTimeout = errors.New("treecache: lock acquisition timed out")

type item struct {
	value   []byte
	version int64
	// ghost marks a removed entry whose version is kept so an older
	// version cannot be put back. Ghosts live for Config.GhostRetention.
	ghost     bool
	removedAt time.Time
}

type ghostRef struct {
	n   *node
	key string
	at  time.Time
}

type node struct {
	children *xsync.MapOf[string, *node]
	data     *xsync.MapOf[string, *item]
	locks    [lockStripes]chan struct{}
}

func newNode() *node {
	n := &node{
		children: xsync.NewMapOf[string, *node](),
		data:     xsync.NewMapOf[string, *item](),
	}
	for i := range n.locks {
		n.locks[i] = make(chan struct{}, 1)
	}
	return n
}

// Cache is the tree. Its locking scheme is fixed at construction.
type Cache struct {
	cfg  Config
	root *node

	mu     sync.Mutex
	ghosts []ghostRef // ordered by removal time
}

func New(cfg Config) (*Cache, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Cache{cfg: cfg.withDefaults(), root: newNode()}, nil
}

func (c *Cache) Config() Config { return c.cfg }

func (c *Cache) optimistic() bool { return c.cfg.NodeLockingScheme == l2cache.LockingOptimistic }

// node walks to fqn, creating missing nodes when create is set.
func (c *Cache) node(fqn Fqn, create bool) *node {
	n := c.root
	for _, e := range fqn {
		if !create {
			child, ok := n.children.Load(e)
			if !ok {
				return nil
			}
			n = child
			continue
		}
		n, _ = n.children.LoadOrCompute(e, newNode)
	}
	return n
}

// Get returns the live value stored under key at fqn.
func (c *Cache) Get(fqn Fqn, key string) ([]byte, bool) {
	n := c.node(fqn, false)
	if n == nil {
		return nil, false
	}
	it, ok := n.data.Load(key)
	if !ok || it.ghost {
		return nil, false
	}
	return it.value, true
}

// Put stores value under key at fqn. It declines when opts.IfAbsent finds
// a live entry, or, on an optimistic cache, when opts.Versioned carries a
// version not newer than the stored or ghost version under opts.Compare.
func (c *Cache) Put(fqn Fqn, key string, value []byte, opts l2cache.PutOptions) bool {
	n := c.node(fqn, true)
	versioned := opts.Versioned && c.optimistic()
	var stored bool
	n.data.Compute(key, func(old *item, loaded bool) (*item, bool) {
		if loaded {
			if opts.IfAbsent && !old.ghost {
				return old, false
			}
			if versioned && opts.CompareVersions(old.version, opts.Version) >= 0 {
				return old, false
			}
		}
		stored = true
		return &item{value: value, version: opts.Version}, false
	})
	return stored
}

// Remove drops key at fqn. Optimistic caches keep a ghost of its version.
func (c *Cache) Remove(fqn Fqn, key string) {
	n := c.node(fqn, false)
	if n == nil {
		return
	}
	if !c.optimistic() {
		n.data.Delete(key)
		return
	}
	now := c.cfg.Now()
	var ghosted bool
	n.data.Compute(key, func(old *item, loaded bool) (*item, bool) {
		if !loaded {
			return nil, true
		}
		ghosted = true
		return &item{version: old.version, ghost: true, removedAt: now}, false
	})
	c.mu.Lock()
	if ghosted {
		c.ghosts = append(c.ghosts, ghostRef{n: n, key: key, at: now})
	}
	c.pruneGhostsLocked(now)
	c.mu.Unlock()
}

// pruneGhostsLocked drops ghosts removed before the retention window. A
// ghost that was overwritten or re-removed since is left alone.
func (c *Cache) pruneGhostsLocked(now time.Time) {
	cutoff := now.Add(-c.cfg.GhostRetention)
	i := 0
	for ; i < len(c.ghosts) && c.ghosts[i].at.Before(cutoff); i++ {
		g := c.ghosts[i]
		g.n.data.Compute(g.key, func(old *item, loaded bool) (*item, bool) {
			if !loaded || !old.ghost || !old.removedAt.Equal(g.at) {
				return old, !loaded
			}
			return nil, true
		})
	}
	if i > 0 {
		clear(c.ghosts[:i])
		c.ghosts = append(c.ghosts[:0], c.ghosts[i:]...)
	}
}

// Ghosts returns the number of removal records awaiting expiry.
func (c *Cache) Ghosts() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.ghosts)
}

// RemoveNode drops fqn and everything below it.
func (c *Cache) RemoveNode(fqn Fqn) {
	if len(fqn) == 0 {
		c.root.children.Clear()
		c.root.data.Clear()
		c.mu.Lock()
		c.ghosts = nil
		c.mu.Unlock()
		return
	}
	if parent := c.node(fqn.Parent(), false); parent != nil {
		parent.children.Delete(fqn[len(fqn)-1])
	}
}

// Lock takes the pessimistic lock for key at fqn, waiting at most
// LockAcquisitionTimeout. Optimistic caches do not lock.
func (c *Cache) Lock(ctx context.Context, fqn Fqn, key string) (func(), error) {
	if c.optimistic() {
		return func() {}, nil
	}
	l := c.node(fqn, true).locks[xxhash.Sum64String(key)%lockStripes]
	select {
	case l <- struct{}{}:
		return func() { <-l }, nil
	default:
	}
	t := time.NewTimer(c.cfg.LockAcquisitionTimeout)
	defer t.Stop()
	select {
	case l <- struct{}{}:
		return func() { <-l }, nil
	case <-t.C:
		return nil, ErrLockTimeout
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Count returns the number of live entries at fqn and their total size.
func (c *Cache) Count(fqn Fqn) (entries, bytes int64) {
	n := c.node(fqn, false)
	if n == nil {
		return 0, 0
	}
	n.data.Range(func(_ string, it *item) bool {
		if !it.ghost {
			entries++
			bytes += int64(len(it.value))
		}
		return true
	})
	return entries, bytes
}
