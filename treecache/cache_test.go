package treecache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/unkn0wn-root/l2cache"
)

func newCache(t *testing.T, scheme l2cache.LockingScheme) *Cache {
	t.Helper()
	c, err := New(Config{NodeLockingScheme: scheme, LockAcquisitionTimeout: 20 * time.Millisecond})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func TestOptimisticGhostBlocksOlderVersion(t *testing.T) {
	c := newCache(t, l2cache.LockingOptimistic)
	fqn := NewFqn("p", "users", "ENTITY")
	v := func(n int64) l2cache.PutOptions { return l2cache.PutOptions{Versioned: true, Version: n} }

	if !c.Put(fqn, "1", []byte("v2"), v(2)) {
		t.Fatal("initial put rejected")
	}
	if c.Put(fqn, "1", []byte("v1"), v(1)) {
		t.Fatal("older version accepted")
	}
	c.Remove(fqn, "1")
	if _, ok := c.Get(fqn, "1"); ok {
		t.Fatal("removed entry still visible")
	}
	if c.Put(fqn, "1", []byte("v1"), v(1)) {
		t.Fatal("ghost must block an older version")
	}
	if c.Put(fqn, "1", []byte("v2"), v(2)) {
		t.Fatal("ghost must block an equal version")
	}
	if !c.Put(fqn, "1", []byte("v3"), v(3)) {
		t.Fatal("newer version rejected")
	}
	if got, _ := c.Get(fqn, "1"); string(got) != "v3" {
		t.Fatalf("got %q", got)
	}
	if n, _ := c.Count(fqn); n != 1 {
		t.Fatalf("count = %d", n)
	}
}

func TestIfAbsentTreatsGhostAsAbsent(t *testing.T) {
	c := newCache(t, l2cache.LockingOptimistic)
	fqn := NewFqn("r")
	c.Put(fqn, "k", []byte("a"), l2cache.PutOptions{})
	if c.Put(fqn, "k", []byte("b"), l2cache.PutOptions{IfAbsent: true}) {
		t.Fatal("IfAbsent overwrote a live entry")
	}
	c.Remove(fqn, "k")
	if !c.Put(fqn, "k", []byte("b"), l2cache.PutOptions{IfAbsent: true}) {
		t.Fatal("IfAbsent blocked by ghost")
	}
}

func TestPessimisticIgnoresVersionsAndDeletes(t *testing.T) {
	c := newCache(t, l2cache.LockingPessimistic)
	fqn := NewFqn("r")
	c.Put(fqn, "k", []byte("a"), l2cache.PutOptions{Versioned: true, Version: 5})
	if !c.Put(fqn, "k", []byte("b"), l2cache.PutOptions{Versioned: true, Version: 1}) {
		t.Fatal("pessimistic cache must not compare versions")
	}
	c.Remove(fqn, "k")
	if n, _ := c.Count(fqn); n != 0 {
		t.Fatalf("count = %d", n)
	}
}

func TestPessimisticLockTimeout(t *testing.T) {
	c := newCache(t, l2cache.LockingPessimistic)
	ctx := context.Background()
	fqn := NewFqn("r")

	unlock, err := c.Lock(ctx, fqn, "k")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.Lock(ctx, fqn, "k"); !errors.Is(err, ErrLockTimeout) {
		t.Fatalf("want ErrLockTimeout, got %v", err)
	}
	unlock()
	unlock2, err := c.Lock(ctx, fqn, "k")
	if err != nil {
		t.Fatalf("lock after release: %v", err)
	}
	unlock2()
}

func TestRemoveNodeDropsSubtree(t *testing.T) {
	c := newCache(t, l2cache.LockingPessimistic)
	a := NewFqn("p", "a", "ENTITY")
	b := NewFqn("p", "a", "COLL")
	c.Put(a, "k", []byte("1"), l2cache.PutOptions{})
	c.Put(b, "k", []byte("2"), l2cache.PutOptions{})

	c.RemoveNode(a)
	if _, ok := c.Get(a, "k"); ok {
		t.Fatal("entity node survived")
	}
	if _, ok := c.Get(b, "k"); !ok {
		t.Fatal("sibling node removed")
	}
	c.RemoveNode(Root)
	if _, ok := c.Get(b, "k"); ok {
		t.Fatal("root removal left data")
	}
}

func TestConfigValidate(t *testing.T) {
	var ce *ConfigError
	if err := (Config{}).Validate(); !errors.As(err, &ce) || ce.Field != "NodeLockingScheme" {
		t.Fatalf("want NodeLockingScheme error, got %v", err)
	}
	if _, err := New(Config{NodeLockingScheme: l2cache.LockingNone}); err == nil {
		t.Fatal("LockingNone must be rejected")
	}
	c, err := New(Config{NodeLockingScheme: l2cache.LockingOptimistic})
	if err != nil || c.Config().LockAcquisitionTimeout != defaultLockAcquisitionTimeout {
		t.Fatalf("defaults not applied: %+v, %v", c, err)
	}
}

func TestOptimisticPutUsesComparator(t *testing.T) {
	c := newCache(t, l2cache.LockingOptimistic)
	fqn := NewFqn("p", "users", "ENTITY")
	// smaller numbers are newer
	desc := func(a, b int64) int { return int(b - a) }
	v := func(n int64) l2cache.PutOptions {
		return l2cache.PutOptions{Versioned: true, Version: n, Compare: desc}
	}

	if !c.Put(fqn, "1", []byte("v5"), v(5)) {
		t.Fatal("initial put rejected")
	}
	if c.Put(fqn, "1", []byte("v9"), v(9)) {
		t.Fatal("version older under the comparator accepted")
	}
	if !c.Put(fqn, "1", []byte("v4"), v(4)) {
		t.Fatal("version newer under the comparator rejected")
	}
	c.Remove(fqn, "1")
	if c.Put(fqn, "1", []byte("v9"), v(9)) {
		t.Fatal("ghost must block a version older under the comparator")
	}
	if !c.Put(fqn, "1", []byte("v3"), v(3)) {
		t.Fatal("ghost blocked a newer version")
	}
	if got, _ := c.Get(fqn, "1"); string(got) != "v3" {
		t.Fatalf("got %q", got)
	}
}

func TestGhostsExpireAfterRetention(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c, err := New(Config{
		NodeLockingScheme: l2cache.LockingOptimistic,
		GhostRetention:    time.Second,
		Now:               func() time.Time { return now },
	})
	if err != nil {
		t.Fatal(err)
	}
	fqn := NewFqn("r")
	v := func(n int64) l2cache.PutOptions { return l2cache.PutOptions{Versioned: true, Version: n} }

	for _, k := range []string{"a", "b"} {
		c.Put(fqn, k, []byte("x"), v(2))
		c.Remove(fqn, k)
	}
	if c.Ghosts() != 2 {
		t.Fatalf("ghosts = %d", c.Ghosts())
	}
	if c.Put(fqn, "a", []byte("old"), v(1)) {
		t.Fatal("ghost expired early")
	}

	now = now.Add(2 * time.Second)
	c.Put(fqn, "c", []byte("x"), v(1))
	c.Remove(fqn, "c")
	if c.Ghosts() != 1 {
		t.Fatalf("ghosts after retention = %d, want 1", c.Ghosts())
	}
	if !c.Put(fqn, "a", []byte("old"), v(1)) {
		t.Fatal("expired ghost still blocks")
	}
	if c.Put(fqn, "c", []byte("old"), v(0)) {
		t.Fatal("fresh ghost must still block")
	}
}
