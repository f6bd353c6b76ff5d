package l2cache

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/unkn0wn-root/l2cache/config"
)

// Property keys read by OptionsFromProperties.
const (
	PropRegionPrefix         = "l2cache.region_prefix"
	PropUseMinimalPuts       = "l2cache.use_minimal_puts"
	PropDefaultAccessType    = "l2cache.default_access_type"
	PropLockTimeout          = "l2cache.lock_timeout"
	PropNakedPutInvalidation = "l2cache.naked_put_invalidation"
)

type Options struct {
	// Engines builds one engine per region. Required.
	Engines EngineFactory

	// Prefix qualifies every region name (RegionSpec.Prefix).
	Prefix string
	// MinimalPuts is the default for PutFromLoad; PutFromLoadMinimal overrides it.
	MinimalPuts bool
	// Timeout is the soft-lock lifetime (default 60s). Engines that
	// implement TimeoutReporter override it per region.
	Timeout time.Duration
	// NakedPutInvalidation is how long invalidations are remembered
	// for rejecting stale loads (default 20s).
	NakedPutInvalidation time.Duration
	// DefaultAccessType is returned by DefaultAccessType (default ReadWrite).
	DefaultAccessType AccessType

	Logger Logger
	Hooks  Hooks
	// Clock backs the Timestamper. Default time.Now.
	Clock func() time.Time
}

// OptionsFromProperties fills the property-driven fields of base from p.
// Fields absent from p keep the value they have in base.
func OptionsFromProperties(base Options, p config.Properties) (Options, error) {
	o := base
	var err error
	o.Prefix = p.String(PropRegionPrefix, o.Prefix)
	if o.MinimalPuts, err = p.Bool(PropUseMinimalPuts, o.MinimalPuts); err != nil {
		return base, err
	}
	if o.Timeout, err = p.Duration(PropLockTimeout, o.Timeout); err != nil {
		return base, err
	}
	if o.NakedPutInvalidation, err = p.Duration(PropNakedPutInvalidation, o.NakedPutInvalidation); err != nil {
		return base, err
	}
	if v, ok := p.Lookup(PropDefaultAccessType); ok {
		at, err := ParseAccessType(v)
		if err != nil {
			return base, &config.PropertyError{Key: PropDefaultAccessType, Value: v, Err: err}
		}
		o.DefaultAccessType = at
	}
	return o, nil
}

// RegionFactory builds regions bound to engines from one EngineFactory and
// hands out the shared logical clock.
type RegionFactory struct {
	engines     EngineFactory
	prefix      string
	minimalPuts bool
	timeout     time.Duration
	nakedPut    time.Duration
	defaultAT   AccessType
	log         Logger
	hooks       Hooks
	ts          *Timestamper

	mu      sync.Mutex
	regions map[string]Region
	closed  bool
}

func NewRegionFactory(opts Options) (*RegionFactory, error) {
	if opts.Engines == nil {
		return nil, fmt.Errorf("l2cache: engine factory is required")
	}
	f := &RegionFactory{
		engines:     opts.Engines,
		prefix:      opts.Prefix,
		minimalPuts: opts.MinimalPuts,
		regions:     make(map[string]Region),
	}
	f.log = coalesce[Logger](opts.Logger, NopLogger{})
	f.hooks = coalesce[Hooks](opts.Hooks, NopHooks{})
	f.timeout = coalesce(opts.Timeout, defaultLockTimeout)
	f.nakedPut = coalesce(opts.NakedPutInvalidation, defaultNakedPutInvalidation)
	f.defaultAT = coalesce(opts.DefaultAccessType, ReadWrite)
	f.ts = NewTimestamper(opts.Clock)
	return f, nil
}

// NextTimestamp is the value callers stamp transactions with.
func (f *RegionFactory) NextTimestamp() int64 { return f.ts.Next() }

func (f *RegionFactory) DefaultAccessType() AccessType { return f.defaultAT }

func (f *RegionFactory) IsMinimalPutsEnabledByDefault() bool { return f.minimalPuts }

func (f *RegionFactory) BuildEntityRegion(ctx context.Context, name string, desc CacheDataDescription) (*EntityRegion, error) {
	dr, err := f.buildData(ctx, name, KindEntity, desc)
	if err != nil {
		return nil, err
	}
	r := &EntityRegion{dr}
	dr.self = r
	if err := f.register(ctx, name, r); err != nil {
		return nil, err
	}
	return r, nil
}

func (f *RegionFactory) BuildCollectionRegion(ctx context.Context, name string, desc CacheDataDescription) (*CollectionRegion, error) {
	dr, err := f.buildData(ctx, name, KindCollection, desc)
	if err != nil {
		return nil, err
	}
	r := &CollectionRegion{dr}
	dr.self = r
	if err := f.register(ctx, name, r); err != nil {
		return nil, err
	}
	return r, nil
}

func (f *RegionFactory) BuildQueryResultsRegion(ctx context.Context, name string) (*QueryResultsRegion, error) {
	base, err := f.build(ctx, name, KindQueryResults)
	if err != nil {
		return nil, err
	}
	r := &QueryResultsRegion{&generalRegion{base}}
	if err := f.register(ctx, name, r); err != nil {
		return nil, err
	}
	return r, nil
}

func (f *RegionFactory) BuildTimestampsRegion(ctx context.Context, name string) (*TimestampsRegion, error) {
	base, err := f.build(ctx, name, KindTimestamps)
	if err != nil {
		return nil, err
	}
	r := &TimestampsRegion{&generalRegion{base}}
	if err := f.register(ctx, name, r); err != nil {
		return nil, err
	}
	return r, nil
}

// Region returns a live region by name.
func (f *RegionFactory) Region(name string) (Region, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.regions[name]
	if _, building := r.(reserved); building {
		return nil, false
	}
	return r, ok
}

func (f *RegionFactory) buildData(ctx context.Context, name string, kind Kind, desc CacheDataDescription) (*dataRegion, error) {
	base, err := f.build(ctx, name, kind)
	if err != nil {
		return nil, err
	}
	return &dataRegion{
		region:      base,
		desc:        desc,
		minimalPuts: f.minimalPuts,
		validator:   newPutValidator(TimestampUnits(f.nakedPut)),
	}, nil
}

func (f *RegionFactory) build(ctx context.Context, name string, kind Kind) (*region, error) {
	op := "build_region"
	if name == "" {
		return nil, &CacheError{Op: op, Err: fmt.Errorf("%w: empty region name", ErrInvalidKey)}
	}

	f.mu.Lock()
	switch {
	case f.closed:
		f.mu.Unlock()
		return nil, &CacheError{Op: op, Region: name, Err: ErrClosed}
	case f.regions[name] != nil:
		f.mu.Unlock()
		return nil, &CacheError{Op: op, Region: name, Err: ErrRegionExists}
	}
	// reserve the name while the engine is built
	f.regions[name] = reserved{}
	f.mu.Unlock()

	spec := RegionSpec{Name: name, Prefix: f.prefix, Kind: kind}
	eng, err := f.engines.BuildEngine(ctx, spec)
	if err != nil {
		f.release(name)
		return nil, cacheErr(op, name, "", err)
	}

	timeout := f.timeout
	if tr, ok := eng.(TimeoutReporter); ok && tr.Timeout() > 0 {
		timeout = tr.Timeout()
	}
	r := &region{
		spec:      spec,
		engine:    eng,
		caps:      eng.Capabilities(),
		ts:        f.ts,
		timeout:   timeout,
		owner:     uuid.NewString(),
		log:       f.log,
		hooks:     f.hooks,
		onDestroy: f.release,
	}
	f.log.Info("region built", Fields{
		"region": spec.QualifiedName(), "kind": kind.String(),
		"locking": r.caps.Locking.String(), "tx_aware": r.caps.TransactionAware,
	})
	return r, nil
}

func (f *RegionFactory) register(ctx context.Context, name string, r Region) error {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		_ = r.Destroy(ctx)
		return &CacheError{Op: "build_region", Region: name, Err: ErrClosed}
	}
	f.regions[name] = r
	f.mu.Unlock()
	return nil
}

func (f *RegionFactory) release(name string) {
	f.mu.Lock()
	delete(f.regions, name)
	f.mu.Unlock()
}

// Close destroys every region concurrently, then closes the engine factory
// when it implements io.Closer or a context-aware Close.
func (f *RegionFactory) Close(ctx context.Context) error {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return nil
	}
	f.closed = true
	live := make([]Region, 0, len(f.regions))
	for _, r := range f.regions {
		if _, ok := r.(reserved); !ok {
			live = append(live, r)
		}
	}
	f.mu.Unlock()

	g, gctx := errgroup.WithContext(ctx)
	for _, r := range live {
		g.Go(func() error { return r.Destroy(gctx) })
	}
	err := g.Wait()

	switch c := f.engines.(type) {
	case interface{ Close(context.Context) error }:
		if cerr := c.Close(ctx); cerr != nil && err == nil {
			err = cerr
		}
	case io.Closer:
		if cerr := c.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}

// reserved is the placeholder held in the registry while a region's engine
// is being built.
type reserved struct{ Region }
