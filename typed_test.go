package l2cache

import (
	"context"
	"errors"
	"testing"

	"github.com/unkn0wn-root/l2cache/codec"
)

type user struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

func TestTypedRoundTrip(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t)
	s := fx.entity(t, "users", ReadWrite, mutable)
	users := NewTyped[user](s, codec.JSONCodec[user]{})

	if ok, err := users.PutFromLoad(ctx, "1", user{1, "ada"}, fx.f.NextTimestamp(), 1); err != nil || !ok {
		t.Fatalf("PutFromLoad = %v, %v", ok, err)
	}
	u, ok, err := users.Get(ctx, "1", fx.f.NextTimestamp())
	if err != nil || !ok || u.Name != "ada" {
		t.Fatalf("Get = %+v, %v, %v", u, ok, err)
	}

	lock, _ := s.LockItem(ctx, "1", 1)
	if ok, err := users.AfterUpdate(ctx, "1", user{1, "grace"}, 2, 1, lock); err != nil || !ok {
		t.Fatalf("AfterUpdate = %v, %v", ok, err)
	}
	if u, _, _ := users.Get(ctx, "1", fx.f.NextTimestamp()); u.Name != "grace" {
		t.Fatalf("Get after update = %+v", u)
	}
}

func TestTypedDecodeFailureEvicts(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t)
	s := fx.entity(t, "users", ReadOnly, mutable)
	_, _ = s.PutFromLoad(ctx, "1", []byte("not json"), fx.f.NextTimestamp(), 1)

	users := NewTyped[user](s, codec.JSONCodec[user]{})
	if _, ok, err := users.Get(ctx, "1", fx.f.NextTimestamp()); ok || err != nil {
		t.Fatalf("Get = %v, %v", ok, err)
	}
	if s.Region().Contains(ctx, "1") {
		t.Fatal("undecodable value not evicted")
	}
}

func TestTypedNeedsEntityForWrites(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t)
	r, err := fx.f.BuildCollectionRegion(ctx, "user.roles", mutable)
	if err != nil {
		t.Fatal(err)
	}
	cs, _ := r.BuildAccessStrategy(ReadWrite)
	roles := NewTyped[[]string](collectionOnly{cs}, codec.JSONCodec[[]string]{})

	if ok, err := roles.PutFromLoad(ctx, "1", []string{"admin"}, fx.f.NextTimestamp(), 1); err != nil || !ok {
		t.Fatalf("PutFromLoad = %v, %v", ok, err)
	}
	if _, err := roles.AfterInsert(ctx, "1", nil, 1); !errors.Is(err, errNotEntity) {
		t.Fatalf("AfterInsert err = %v", err)
	}
}

// collectionOnly hides the entity methods the concrete strategy has.
type collectionOnly struct{ CollectionRegionAccessStrategy }
