package l2cache

import (
	"context"

	"github.com/unkn0wn-root/l2cache/codec"
)

// Typed exposes the value-carrying operations of a strategy over V,
// encoding with a codec.Codec. Undecodable cached values are evicted and
// reported as misses.
type Typed[V any] struct {
	s     RegionAccessStrategy
	codec codec.Codec[V]
}

// NewTyped wraps an entity or collection strategy. AfterInsert and
// AfterUpdate need an entity strategy.
func NewTyped[V any](s RegionAccessStrategy, c codec.Codec[V]) *Typed[V] {
	return &Typed[V]{s: s, codec: c}
}

func (t *Typed[V]) Strategy() RegionAccessStrategy { return t.s }

func (t *Typed[V]) entity(op, key string) (EntityRegionAccessStrategy, error) {
	es, ok := t.s.(EntityRegionAccessStrategy)
	if !ok {
		return nil, cacheErr(op, t.s.Region().Name(), key, errNotEntity)
	}
	return es, nil
}

func (t *Typed[V]) Get(ctx context.Context, key string, txTimestamp int64) (V, bool, error) {
	var zero V
	b, ok, err := t.s.Get(ctx, key, txTimestamp)
	if err != nil || !ok {
		return zero, false, err
	}
	v, err := t.codec.Decode(b)
	if err != nil {
		_ = t.s.Evict(ctx, key) // self-heal
		return zero, false, nil
	}
	return v, true, nil
}

func (t *Typed[V]) PutFromLoad(ctx context.Context, key string, v V, txTimestamp, version int64) (bool, error) {
	b, err := t.codec.Encode(v)
	if err != nil {
		return false, cacheErr("encode", t.s.Region().Name(), key, err)
	}
	return t.s.PutFromLoad(ctx, key, b, txTimestamp, version)
}

func (t *Typed[V]) AfterInsert(ctx context.Context, key string, v V, version int64) (bool, error) {
	es, err := t.entity("after_insert", key)
	if err != nil {
		return false, err
	}
	b, err := t.codec.Encode(v)
	if err != nil {
		return false, cacheErr("encode", t.s.Region().Name(), key, err)
	}
	return es.AfterInsert(ctx, key, b, version)
}

func (t *Typed[V]) AfterUpdate(ctx context.Context, key string, v V, currentVersion, previousVersion int64, lock *SoftLock) (bool, error) {
	es, err := t.entity("after_update", key)
	if err != nil {
		return false, err
	}
	b, err := t.codec.Encode(v)
	if err != nil {
		return false, cacheErr("encode", t.s.Region().Name(), key, err)
	}
	return es.AfterUpdate(ctx, key, b, currentVersion, previousVersion, lock)
}
