package treecache

import (
	"context"
	"sync/atomic"

	"github.com/unkn0wn-root/l2cache"
)

// Factory binds each region to the subtree at its RegionFqn.
type Factory struct {
	cache *Cache
}

var _ l2cache.EngineFactory = (*Factory)(nil)

func NewFactory(cfg Config) (*Factory, error) {
	c, err := New(cfg)
	if err != nil {
		return nil, err
	}
	return &Factory{cache: c}, nil
}

// NewFactoryWithCache shares an existing tree.
func NewFactoryWithCache(c *Cache) *Factory { return &Factory{cache: c} }

func (f *Factory) Cache() *Cache { return f.cache }

// BuildEngine reads the cache's locking scheme once; the region's strategy
// family never changes afterwards.
func (f *Factory) BuildEngine(_ context.Context, spec l2cache.RegionSpec) (l2cache.Engine, error) {
	cfg := f.cache.Config()
	return &regionEngine{
		cache: f.cache,
		fqn:   RegionFqn(spec.Name, spec.Prefix, spec.Kind.Discriminator()),
		caps: l2cache.Capabilities{
			Locking:          cfg.NodeLockingScheme,
			TransactionAware: cfg.Synchronous,
			MinimalPuts:      true,
		},
	}, nil
}

type regionEngine struct {
	cache  *Cache
	fqn    Fqn
	caps   l2cache.Capabilities
	closed atomic.Bool
}

var _ l2cache.Engine = (*regionEngine)(nil)

// Fqn is the node the region's entries live under.
func (e *regionEngine) Fqn() Fqn { return e.fqn }

func (e *regionEngine) Get(_ context.Context, key string) ([]byte, bool, error) {
	if e.closed.Load() {
		return nil, false, l2cache.ErrClosed
	}
	v, ok := e.cache.Get(e.fqn, key)
	return v, ok, nil
}

func (e *regionEngine) Put(_ context.Context, key string, value []byte, opts l2cache.PutOptions) (bool, error) {
	if e.closed.Load() {
		return false, l2cache.ErrClosed
	}
	return e.cache.Put(e.fqn, key, value, opts), nil
}

func (e *regionEngine) Remove(_ context.Context, key string) error {
	if e.closed.Load() {
		return l2cache.ErrClosed
	}
	e.cache.Remove(e.fqn, key)
	return nil
}

func (e *regionEngine) Clear(context.Context) error {
	if e.closed.Load() {
		return l2cache.ErrClosed
	}
	e.cache.RemoveNode(e.fqn)
	return nil
}

func (e *regionEngine) Lock(ctx context.Context, key string) (func(), error) {
	return e.cache.Lock(ctx, e.fqn, key)
}

func (e *regionEngine) Capabilities() l2cache.Capabilities { return e.caps }

func (e *regionEngine) Stats() l2cache.Stats {
	n, size := e.cache.Count(e.fqn)
	return l2cache.Stats{SizeInMemory: size, ElementCountInMemory: n, ElementCountOnDisk: 0}
}

// Close drops the region's subtree from this process.
func (e *regionEngine) Close(context.Context) error {
	if e.closed.CompareAndSwap(false, true) {
		e.cache.RemoveNode(e.fqn)
	}
	return nil
}
