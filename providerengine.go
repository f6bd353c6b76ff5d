package l2cache

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/unkn0wn-root/l2cache/genstore"
	"github.com/unkn0wn-root/l2cache/internal/util"
	"github.com/unkn0wn-root/l2cache/internal/wire"
	"github.com/unkn0wn-root/l2cache/provider"
)

const defaultStripes = 256

type ProviderEngineOptions struct {
	// Provider stores the framed entries. Required.
	Provider provider.Provider
	// GenStore holds region epochs. Default: in-process LocalGenStore,
	// owned and closed by the factory. Use a RedisGenStore when several
	// processes share one Provider.
	GenStore genstore.GenStore
	// TTL for every entry; 0 = no expiry (or the store's own policy).
	TTL time.Duration
	// Stripes is the number of per-region key locks, rounded up to a power
	// of two (default 256).
	Stripes int
	// ComputeCost is passed to Provider.Set. Default: cost 1.
	ComputeCost func(storageKey string, frame []byte) int64

	Logger Logger
	Hooks  Hooks
}

// ProviderEngineFactory binds regions to a provider.Provider byte store.
// Engines it builds have no engine-level locking, are not transaction aware,
// and clear a region by bumping its epoch instead of scanning keys.
type ProviderEngineFactory struct {
	p       provider.Provider
	gen     genstore.GenStore
	ownsGen bool
	ttl     time.Duration
	stripes int
	cost    func(string, []byte) int64
	log     Logger
	hooks   Hooks
}

var _ EngineFactory = (*ProviderEngineFactory)(nil)

func NewProviderEngineFactory(opts ProviderEngineOptions) (*ProviderEngineFactory, error) {
	if opts.Provider == nil {
		return nil, fmt.Errorf("l2cache: provider is required")
	}
	f := &ProviderEngineFactory{
		p:   opts.Provider,
		ttl: opts.TTL,
	}
	f.log = coalesce[Logger](opts.Logger, NopLogger{})
	f.hooks = coalesce[Hooks](opts.Hooks, NopHooks{})
	f.stripes = pow2(coalesce(opts.Stripes, defaultStripes))
	if opts.ComputeCost != nil {
		f.cost = opts.ComputeCost
	} else {
		f.cost = func(string, []byte) int64 { return 1 }
	}
	if opts.GenStore != nil {
		f.gen = opts.GenStore
	} else {
		f.gen = genstore.NewLocalGenStore(0, 0)
		f.ownsGen = true
	}
	return f, nil
}

func pow2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

func (f *ProviderEngineFactory) BuildEngine(_ context.Context, spec RegionSpec) (Engine, error) {
	// prefix and name are escaped separately so no two regions share a scope
	scope := spec.Kind.Discriminator() + ":" + util.EscapeSegment(spec.Prefix) + ":" + util.EscapeSegment(spec.Name)
	e := &providerEngine{
		f:      f,
		scope:  scope,
		prefix: "l2:" + scope + ":",
		locks:  make([]chan struct{}, f.stripes),
	}
	for i := range e.locks {
		e.locks[i] = make(chan struct{}, 1)
	}
	_, e.adder = f.p.(provider.Adder)
	return e, nil
}

// Close closes the provider, and the generation store when the factory
// created it.
func (f *ProviderEngineFactory) Close(ctx context.Context) error {
	var errs []error
	if f.ownsGen {
		errs = append(errs, f.gen.Close(ctx))
	}
	errs = append(errs, f.p.Close(ctx))
	return errors.Join(errs...)
}

type providerEngine struct {
	f      *ProviderEngineFactory
	scope  string // genstore key
	prefix string // storage key prefix
	locks  []chan struct{}
	adder  bool
	closed atomic.Bool
}

var _ Engine = (*providerEngine)(nil)

func (e *providerEngine) storageKey(key string) string { return e.prefix + key }

func (e *providerEngine) epoch(ctx context.Context) (uint64, error) {
	g, err := e.f.gen.Snapshot(ctx, e.scope)
	if err != nil {
		e.f.hooks.GenError("snapshot", 1, err)
		return 0, err
	}
	return g, nil
}

// live returns the payload of a frame written under the current epoch.
// Anything else is deleted.
func (e *providerEngine) live(ctx context.Context, sk string, raw []byte, epoch uint64) ([]byte, bool) {
	g, payload, err := wire.Decode(raw)
	if err != nil {
		_ = e.f.p.Del(ctx, sk) // self-heal corrupt
		e.f.hooks.SelfHeal(sk, "corrupt")
		return nil, false
	}
	if g != epoch {
		_ = e.f.p.Del(ctx, sk)
		e.f.hooks.SelfHeal(sk, "epoch_mismatch")
		return nil, false
	}
	return payload, true
}

func (e *providerEngine) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if e.closed.Load() {
		return nil, false, ErrClosed
	}
	epoch, err := e.epoch(ctx)
	if err != nil {
		return nil, false, err
	}
	sk := e.storageKey(key)
	raw, ok, err := e.f.p.Get(ctx, sk)
	if err != nil || !ok {
		return nil, false, err
	}
	payload, ok := e.live(ctx, sk, raw, epoch)
	return payload, ok, nil
}

func (e *providerEngine) Put(ctx context.Context, key string, value []byte, opts PutOptions) (bool, error) {
	if e.closed.Load() {
		return false, ErrClosed
	}
	epoch, err := e.epoch(ctx)
	if err != nil {
		return false, err
	}
	sk := e.storageKey(key)
	frame := wire.Encode(epoch, value)
	cost := e.f.cost(sk, frame)

	if opts.IfAbsent {
		return e.putIfAbsent(ctx, sk, frame, cost, epoch)
	}
	ok, err := e.f.p.Set(ctx, sk, frame, cost, e.f.ttl)
	if err != nil {
		return false, err
	}
	if !ok {
		e.f.hooks.ProviderSetRejected(sk)
	}
	return ok, nil
}

// putIfAbsent treats frames from an older epoch as absent.
func (e *providerEngine) putIfAbsent(ctx context.Context, sk string, frame []byte, cost int64, epoch uint64) (bool, error) {
	for attempt := 0; attempt < 2; attempt++ {
		if add, ok := e.f.p.(provider.Adder); ok {
			added, err := add.Add(ctx, sk, frame, cost, e.f.ttl)
			if err != nil || added {
				return added, err
			}
		}
		raw, ok, err := e.f.p.Get(ctx, sk)
		if err != nil {
			return false, err
		}
		if ok {
			if _, live := e.live(ctx, sk, raw, epoch); live {
				return false, nil
			}
			// stale frame deleted; retry
			continue
		}
		if e.adder {
			continue
		}
		ok, err = e.f.p.Set(ctx, sk, frame, cost, e.f.ttl)
		if err == nil && !ok {
			e.f.hooks.ProviderSetRejected(sk)
		}
		return ok, err
	}
	return false, nil
}

func (e *providerEngine) Remove(ctx context.Context, key string) error {
	if e.closed.Load() {
		return ErrClosed
	}
	return e.f.p.Del(ctx, e.storageKey(key))
}

// Clear bumps the region epoch; existing frames self-heal on next read.
func (e *providerEngine) Clear(ctx context.Context) error {
	if e.closed.Load() {
		return ErrClosed
	}
	g, err := e.f.gen.Bump(ctx, e.scope)
	if err != nil {
		e.f.hooks.GenError("bump", 1, err)
		return err
	}
	e.f.log.Debug("region epoch bumped", Fields{"scope": e.scope, "epoch": g})
	return nil
}

// Lock serializes writers of key within this process.
func (e *providerEngine) Lock(ctx context.Context, key string) (func(), error) {
	l := e.locks[util.Stripe(key, len(e.locks))]
	select {
	case l <- struct{}{}:
		return func() { <-l }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (e *providerEngine) Capabilities() Capabilities {
	return Capabilities{Locking: LockingNone, MinimalPuts: e.adder}
}

// Stats reports the store-wide entry count when the provider can count.
func (e *providerEngine) Stats() Stats {
	s := UnknownStats
	if l, ok := e.f.p.(provider.Lener); ok {
		s.ElementCountInMemory = l.Len()
	}
	return s
}

// Close detaches the region. The provider is shared and stays open.
func (e *providerEngine) Close(context.Context) error {
	e.closed.Store(true)
	return nil
}
