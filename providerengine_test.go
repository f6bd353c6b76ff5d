package l2cache

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/unkn0wn-root/l2cache/genstore"
	"github.com/unkn0wn-root/l2cache/internal/wire"
	pr "github.com/unkn0wn-root/l2cache/provider"
	rp "github.com/unkn0wn-root/l2cache/provider/redis"
)

func newEngine(t *testing.T, p pr.Provider, opts ...func(*ProviderEngineOptions)) (Engine, *recordingHooks) {
	t.Helper()
	hooks := newRecordingHooks()
	o := ProviderEngineOptions{Provider: p, Hooks: hooks}
	for _, fn := range opts {
		fn(&o)
	}
	f, err := NewProviderEngineFactory(o)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = f.Close(context.Background()) })
	e, err := f.BuildEngine(context.Background(), RegionSpec{Name: "users", Prefix: "app", Kind: KindEntity})
	if err != nil {
		t.Fatal(err)
	}
	return e, hooks
}

const usersKey = "l2:ENTITY:app:users:k"

func TestProviderEngineFramesUnderEpoch(t *testing.T) {
	ctx := context.Background()
	mp := newMemProvider()
	e, _ := newEngine(t, mp)

	if ok, err := e.Put(ctx, "k", []byte("v"), PutOptions{}); err != nil || !ok {
		t.Fatalf("Put = %v, %v", ok, err)
	}
	raw, ok := mp.raw(usersKey)
	if !ok {
		t.Fatalf("frame not stored under %s", usersKey)
	}
	epoch, payload, err := wire.Decode(raw)
	if err != nil || epoch != 0 || string(payload) != "v" {
		t.Fatalf("frame = %d %q %v", epoch, payload, err)
	}
}

func TestProviderEngineClearSelfHeals(t *testing.T) {
	ctx := context.Background()
	mp := newMemProvider()
	e, hooks := newEngine(t, mp)

	_, _ = e.Put(ctx, "k", []byte("v"), PutOptions{})
	if err := e.Clear(ctx); err != nil {
		t.Fatal(err)
	}
	if _, ok := mp.raw(usersKey); !ok {
		t.Fatal("Clear must not scan the store")
	}
	if _, ok, err := e.Get(ctx, "k"); ok || err != nil {
		t.Fatalf("Get after Clear = %v, %v", ok, err)
	}
	if _, ok := mp.raw(usersKey); ok {
		t.Fatal("stale frame not deleted")
	}
	if hooks.selfHeal["epoch_mismatch"] != 1 {
		t.Fatalf("self heal = %v", hooks.selfHeal)
	}
}

func TestProviderEngineCorruptFrame(t *testing.T) {
	ctx := context.Background()
	mp := newMemProvider()
	e, hooks := newEngine(t, mp)

	mp.put(usersKey, []byte("garbage"))
	if _, ok, err := e.Get(ctx, "k"); ok || err != nil {
		t.Fatalf("Get = %v, %v", ok, err)
	}
	if _, ok := mp.raw(usersKey); ok || hooks.selfHeal["corrupt"] != 1 {
		t.Fatal("corrupt frame not healed")
	}
}

func TestProviderEngineIfAbsent(t *testing.T) {
	ctx := context.Background()
	for name, p := range map[string]pr.Provider{
		"get-then-set": newMemProvider(),
		"adder":        addProvider{newMemProvider()},
	} {
		e, _ := newEngine(t, p)
		_, isAdder := p.(pr.Adder)
		if e.Capabilities().MinimalPuts != isAdder {
			t.Fatalf("%s: MinimalPuts = %v", name, e.Capabilities().MinimalPuts)
		}
		if ok, _ := e.Put(ctx, "k", []byte("a"), PutOptions{IfAbsent: true}); !ok {
			t.Fatalf("%s: first IfAbsent put declined", name)
		}
		if ok, _ := e.Put(ctx, "k", []byte("b"), PutOptions{IfAbsent: true}); ok {
			t.Fatalf("%s: IfAbsent overwrote live entry", name)
		}
		// frames from before a clear count as absent
		_ = e.Clear(ctx)
		if ok, _ := e.Put(ctx, "k", []byte("c"), PutOptions{IfAbsent: true}); !ok {
			t.Fatalf("%s: IfAbsent blocked by stale frame", name)
		}
		if v, _, _ := e.Get(ctx, "k"); string(v) != "c" {
			t.Fatalf("%s: Get = %q", name, v)
		}
	}
}

func TestProviderEngineRejectedSet(t *testing.T) {
	ctx := context.Background()
	mp := newMemProvider()
	mp.reject = true
	e, _ := newEngine(t, mp)
	if ok, err := e.Put(ctx, "k", []byte("v"), PutOptions{}); ok || err != nil {
		t.Fatalf("Put = %v, %v", ok, err)
	}
}

type failingGen struct{ genstore.GenStore }

func (failingGen) Snapshot(context.Context, string) (uint64, error) {
	return 0, errors.New("gen down")
}

func TestProviderEngineGenError(t *testing.T) {
	ctx := context.Background()
	e, _ := newEngine(t, newMemProvider(), func(o *ProviderEngineOptions) {
		o.GenStore = failingGen{genstore.NewLocalGenStore(0, 0)}
	})
	if _, _, err := e.Get(ctx, "k"); err == nil {
		t.Fatal("expected genstore error")
	}
}

func TestProviderEngineClosed(t *testing.T) {
	ctx := context.Background()
	e, _ := newEngine(t, newMemProvider())
	if err := e.Close(ctx); err != nil {
		t.Fatal(err)
	}
	if _, _, err := e.Get(ctx, "k"); !errors.Is(err, ErrClosed) {
		t.Fatalf("Get after Close = %v", err)
	}
	if e.Stats() != UnknownStats {
		t.Fatalf("Stats = %+v", e.Stats())
	}
}

func TestProviderEngineLockHonoursContext(t *testing.T) {
	e, _ := newEngine(t, newMemProvider())
	unlock, err := e.Lock(context.Background(), "k")
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := e.Lock(ctx, "k"); !errors.Is(err, context.Canceled) {
		t.Fatalf("second Lock = %v", err)
	}
	unlock()
	if u, err := e.Lock(context.Background(), "k"); err != nil {
		t.Fatal(err)
	} else {
		u()
	}
}

// Two processes sharing one redis: a clear in one invalidates the other.
func TestProviderEngineSharedRedis(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	build := func() Engine {
		p, err := rp.New(rp.Config{Client: rdb})
		if err != nil {
			t.Fatal(err)
		}
		e, _ := newEngine(t, p, func(o *ProviderEngineOptions) {
			o.GenStore = genstore.NewRedisGenStore(rdb, "app")
		})
		return e
	}
	a, b := build(), build()

	if _, err := a.Put(ctx, "k", []byte("v"), PutOptions{}); err != nil {
		t.Fatal(err)
	}
	if v, ok, err := b.Get(ctx, "k"); err != nil || !ok || string(v) != "v" {
		t.Fatalf("peer Get = %q, %v, %v", v, ok, err)
	}
	if err := b.Clear(ctx); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := a.Get(ctx, "k"); ok {
		t.Fatal("clear not visible to peer")
	}
	if !b.Capabilities().MinimalPuts {
		t.Fatal("redis provider supports atomic adds")
	}
}
