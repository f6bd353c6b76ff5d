package l2cache

import (
	"cmp"
	"context"
	"sync"
	"testing"
	"time"

	pr "github.com/unkn0wn-root/l2cache/provider"
)

type memEntry struct {
	v   []byte
	exp time.Time // zero => no TTL
}

type memProvider struct {
	mu      sync.Mutex
	m       map[string]memEntry
	failGet error
	failSet error
	reject  bool
}

var _ pr.Provider = (*memProvider)(nil)

func newMemProvider() *memProvider { return &memProvider{m: make(map[string]memEntry)} }

func (p *memProvider) Get(_ context.Context, key string) ([]byte, bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failGet != nil {
		return nil, false, p.failGet
	}
	e, ok := p.m[key]
	if !ok {
		return nil, false, nil
	}
	if !e.exp.IsZero() && time.Now().After(e.exp) {
		delete(p.m, key)
		return nil, false, nil
	}
	return e.v, true, nil
}

func (p *memProvider) Set(_ context.Context, key string, value []byte, _ int64, ttl time.Duration) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failSet != nil {
		return false, p.failSet
	}
	if p.reject {
		return false, nil
	}
	var exp time.Time
	if ttl > 0 {
		exp = time.Now().Add(ttl)
	}
	p.m[key] = memEntry{v: value, exp: exp}
	return true, nil
}

func (p *memProvider) Del(_ context.Context, key string) error {
	p.mu.Lock()
	delete(p.m, key)
	p.mu.Unlock()
	return nil
}

func (p *memProvider) Close(_ context.Context) error { return nil }

func (p *memProvider) raw(key string) ([]byte, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	e, ok := p.m[key]
	return e.v, ok
}

func (p *memProvider) put(key string, v []byte) {
	p.mu.Lock()
	p.m[key] = memEntry{v: v}
	p.mu.Unlock()
}

// addProvider adds an atomic set-if-absent.
type addProvider struct{ *memProvider }

func (p addProvider) Add(_ context.Context, key string, value []byte, _ int64, _ time.Duration) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.m[key]; ok {
		return false, nil
	}
	p.m[key] = memEntry{v: value}
	return true, nil
}

// schemeEngines reports a different locking scheme over the provider engine
// so the whole dispatch table can be exercised without a tree engine.
type schemeEngines struct {
	inner EngineFactory
	caps  func(Capabilities) Capabilities
}

func (f schemeEngines) BuildEngine(ctx context.Context, spec RegionSpec) (Engine, error) {
	e, err := f.inner.BuildEngine(ctx, spec)
	if err != nil {
		return nil, err
	}
	return schemeEngine{Engine: e, caps: f.caps(e.Capabilities())}, nil
}

type schemeEngine struct {
	Engine
	caps Capabilities
}

func (e schemeEngine) Capabilities() Capabilities { return e.caps }

type recordingHooks struct {
	NopHooks
	mu       sync.Mutex
	skipped  map[string]int
	mismatch int
	selfHeal map[string]int
	hits     int
	misses   int
	cleared  []string
	engErr   int
}

func newRecordingHooks() *recordingHooks {
	return &recordingHooks{skipped: map[string]int{}, selfHeal: map[string]int{}}
}

func (h *recordingHooks) PutFromLoadSkipped(_, _, reason string) {
	h.mu.Lock()
	h.skipped[reason]++
	h.mu.Unlock()
}

func (h *recordingHooks) SoftLockMismatch(string, string) {
	h.mu.Lock()
	h.mismatch++
	h.mu.Unlock()
}

func (h *recordingHooks) SelfHeal(_, reason string) {
	h.mu.Lock()
	h.selfHeal[reason]++
	h.mu.Unlock()
}

func (h *recordingHooks) CacheHit(string) {
	h.mu.Lock()
	h.hits++
	h.mu.Unlock()
}

func (h *recordingHooks) CacheMiss(string) {
	h.mu.Lock()
	h.misses++
	h.mu.Unlock()
}

func (h *recordingHooks) RegionInvalidated(_, reason string) {
	h.mu.Lock()
	h.cleared = append(h.cleared, reason)
	h.mu.Unlock()
}

func (h *recordingHooks) EngineError(string, string, error) {
	h.mu.Lock()
	h.engErr++
	h.mu.Unlock()
}

type fixture struct {
	f     *RegionFactory
	mp    *memProvider
	hooks *recordingHooks
}

type fixtureOpt func(*Options, *ProviderEngineOptions)

func newFixture(t *testing.T, opts ...fixtureOpt) *fixture {
	t.Helper()
	mp := newMemProvider()
	hooks := newRecordingHooks()
	po := ProviderEngineOptions{Provider: mp, Hooks: hooks}
	o := Options{Hooks: hooks}
	for _, fn := range opts {
		fn(&o, &po)
	}
	pf, err := NewProviderEngineFactory(po)
	if err != nil {
		t.Fatalf("NewProviderEngineFactory: %v", err)
	}
	if o.Engines == nil {
		o.Engines = pf
	}
	f, err := NewRegionFactory(o)
	if err != nil {
		t.Fatalf("NewRegionFactory: %v", err)
	}
	t.Cleanup(func() { _ = f.Close(context.Background()) })
	return &fixture{f: f, mp: mp, hooks: hooks}
}

func withScheme(locking LockingScheme) fixtureOpt {
	return func(o *Options, po *ProviderEngineOptions) {
		pf, _ := NewProviderEngineFactory(*po)
		o.Engines = schemeEngines{inner: pf, caps: func(c Capabilities) Capabilities {
			c.Locking = locking
			return c
		}}
	}
}

func (fx *fixture) entity(t *testing.T, name string, at AccessType, desc CacheDataDescription) EntityRegionAccessStrategy {
	t.Helper()
	r, err := fx.f.BuildEntityRegion(context.Background(), name, desc)
	if err != nil {
		t.Fatalf("BuildEntityRegion: %v", err)
	}
	s, err := r.BuildAccessStrategy(at)
	if err != nil {
		t.Fatalf("BuildAccessStrategy(%v): %v", at, err)
	}
	return s
}

var (
	mutable   = NewCacheDataDescription(true, false, nil)
	versioned = NewCacheDataDescription(true, true, nil)

	// descending treats smaller versions as newer.
	descending = NewCacheDataDescription(true, true, func(a, b int64) int { return cmp.Compare(b, a) })
)
