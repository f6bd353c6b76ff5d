package l2cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/unkn0wn-root/l2cache/config"
)

func TestFactoryRejectsDuplicateAndEmptyNames(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t)
	if _, err := fx.f.BuildEntityRegion(ctx, "users", mutable); err != nil {
		t.Fatal(err)
	}
	if _, err := fx.f.BuildCollectionRegion(ctx, "users", mutable); !errors.Is(err, ErrRegionExists) {
		t.Fatalf("duplicate err = %v", err)
	}
	if _, err := fx.f.BuildQueryResultsRegion(ctx, ""); !errors.Is(err, ErrInvalidKey) {
		t.Fatalf("empty name err = %v", err)
	}
}

func TestFactoryDestroyFreesName(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t)
	r, _ := fx.f.BuildEntityRegion(ctx, "users", mutable)
	if got, ok := fx.f.Region("users"); !ok || got != Region(r) {
		t.Fatal("Region lookup failed")
	}
	if err := r.Destroy(ctx); err != nil {
		t.Fatal(err)
	}
	if _, ok := fx.f.Region("users"); ok {
		t.Fatal("destroyed region still registered")
	}
	if _, err := fx.f.BuildEntityRegion(ctx, "users", mutable); err != nil {
		t.Fatalf("rebuild after destroy: %v", err)
	}
}

func TestFactoryCloseDestroysRegions(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t)
	s := fx.entity(t, "users", ReadWrite, mutable)
	q, _ := fx.f.BuildQueryResultsRegion(ctx, "queries")

	if err := fx.f.Close(ctx); err != nil {
		t.Fatal(err)
	}
	if _, _, err := s.Get(ctx, "k", 1); !errors.Is(err, ErrRegionDestroyed) {
		t.Fatalf("strategy after Close = %v", err)
	}
	if _, _, err := q.Get(ctx, "k"); !errors.Is(err, ErrRegionDestroyed) {
		t.Fatalf("query region after Close = %v", err)
	}
	if _, err := fx.f.BuildTimestampsRegion(ctx, "ts"); !errors.Is(err, ErrClosed) {
		t.Fatalf("build after Close = %v", err)
	}
	if err := fx.f.Close(ctx); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}

type timeoutEngines struct{ EngineFactory }

type timeoutEngine struct{ Engine }

func (timeoutEngine) Timeout() time.Duration { return 5 * time.Second }

func (f timeoutEngines) BuildEngine(ctx context.Context, spec RegionSpec) (Engine, error) {
	e, err := f.EngineFactory.BuildEngine(ctx, spec)
	return timeoutEngine{e}, err
}

func TestFactoryTimeouts(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t)
	r, _ := fx.f.BuildEntityRegion(ctx, "users", mutable)
	if r.Timeout() != defaultLockTimeout {
		t.Fatalf("default timeout = %v", r.Timeout())
	}

	pf, _ := NewProviderEngineFactory(ProviderEngineOptions{Provider: newMemProvider()})
	f, err := NewRegionFactory(Options{Engines: timeoutEngines{pf}})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = f.Close(ctx) })
	r2, _ := f.BuildEntityRegion(ctx, "users", mutable)
	if r2.Timeout() != 5*time.Second {
		t.Fatalf("engine timeout not applied: %v", r2.Timeout())
	}
}

func TestFactoryPrefixQualifiesEngineScope(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t, func(o *Options, _ *ProviderEngineOptions) { o.Prefix = "app" })
	s := fx.entity(t, "users", ReadOnly, mutable)
	_, _ = s.PutFromLoad(ctx, "k", []byte("v"), fx.f.NextTimestamp(), 1)
	if _, ok := fx.mp.raw("l2:ENTITY:app:users:k"); !ok {
		t.Fatal("prefix not applied to engine keys")
	}
}

func TestOptionsFromProperties(t *testing.T) {
	p := config.Properties{
		PropRegionPrefix:         "app",
		PropUseMinimalPuts:       "true",
		PropDefaultAccessType:    "NONSTRICT_READ_WRITE",
		PropLockTimeout:          "30",
		PropNakedPutInvalidation: "5s",
	}
	o, err := OptionsFromProperties(Options{Prefix: "base"}, p)
	if err != nil {
		t.Fatal(err)
	}
	if o.Prefix != "app" || !o.MinimalPuts || o.DefaultAccessType != NonstrictReadWrite ||
		o.Timeout != 30*time.Second || o.NakedPutInvalidation != 5*time.Second {
		t.Fatalf("options = %+v", o)
	}

	kept, err := OptionsFromProperties(Options{Prefix: "base"}, config.Properties{})
	if err != nil || kept.Prefix != "base" {
		t.Fatalf("absent keys must keep base: %+v, %v", kept, err)
	}

	_, err = OptionsFromProperties(Options{}, config.Properties{PropDefaultAccessType: "sometimes"})
	var pe *config.PropertyError
	if !errors.As(err, &pe) || pe.Key != PropDefaultAccessType {
		t.Fatalf("bad access type err = %v", err)
	}
}

func TestFactoryMinimalPutsDefault(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t, func(o *Options, _ *ProviderEngineOptions) { o.MinimalPuts = true })
	if !fx.f.IsMinimalPutsEnabledByDefault() || fx.f.DefaultAccessType() != ReadWrite {
		t.Fatal("factory defaults")
	}
	s := fx.entity(t, "users", NonstrictReadWrite, mutable)
	_, _ = s.PutFromLoad(ctx, "k", []byte("a"), fx.f.NextTimestamp(), 1)
	if ok, _ := s.PutFromLoad(ctx, "k", []byte("b"), fx.f.NextTimestamp(), 2); ok {
		t.Fatal("default minimal put overwrote entry")
	}
	if fx.hooks.skipped["minimal_put"] != 1 {
		t.Fatalf("skip reasons = %v", fx.hooks.skipped)
	}
}

func TestRegionNamesDoNotShareEngineKeys(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t)
	xy := fx.entity(t, "x:y", ReadOnly, mutable)
	x := fx.entity(t, "x", ReadOnly, mutable)

	if ok, err := xy.PutFromLoad(ctx, "z", []byte("from x:y"), fx.f.NextTimestamp(), 1); err != nil || !ok {
		t.Fatalf("PutFromLoad = %v, %v", ok, err)
	}
	if v, ok, err := x.Get(ctx, "y:z", fx.f.NextTimestamp()); ok || err != nil {
		t.Fatalf("region x read %q from region x:y (err %v)", v, err)
	}
	if v, ok, _ := xy.Get(ctx, "z", fx.f.NextTimestamp()); !ok || string(v) != "from x:y" {
		t.Fatalf("Get = %q, %v", v, ok)
	}
}

func TestPrefixAndNameDoNotShareEngineKeys(t *testing.T) {
	ctx := context.Background()
	mp := newMemProvider()
	build := func(prefix, name string) EntityRegionAccessStrategy {
		pf, err := NewProviderEngineFactory(ProviderEngineOptions{Provider: mp})
		if err != nil {
			t.Fatal(err)
		}
		f, err := NewRegionFactory(Options{Engines: pf, Prefix: prefix})
		if err != nil {
			t.Fatal(err)
		}
		t.Cleanup(func() { _ = f.Close(ctx) })
		r, err := f.BuildEntityRegion(ctx, name, mutable)
		if err != nil {
			t.Fatal(err)
		}
		s, err := r.BuildAccessStrategy(ReadOnly)
		if err != nil {
			t.Fatal(err)
		}
		return s
	}
	a := build("a", "b.c")
	ab := build("a.b", "c")

	if ok, _ := a.PutFromLoad(ctx, "k", []byte("v"), 1<<40, 1); !ok {
		t.Fatal("PutFromLoad not cached")
	}
	if _, ok, _ := ab.Get(ctx, "k", 1<<41); ok {
		t.Fatal("prefix a.b + c read the entry of prefix a + b.c")
	}
}
