// Package otel records cache events as OpenTelemetry counters.
package otel

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/unkn0wn-root/l2cache"
)

// Hooks records every event on one counter, l2cache.events, with the
// event name and its low-cardinality arguments as attributes. Keys are
// never recorded.
type Hooks struct {
	events metric.Int64Counter
}

var _ l2cache.Hooks = (*Hooks)(nil)

func New(meter metric.Meter) (*Hooks, error) {
	c, err := meter.Int64Counter(
		"l2cache.events",
		metric.WithDescription("Second-level cache events"),
		metric.WithUnit("{event}"),
	)
	if err != nil {
		return nil, err
	}
	return &Hooks{events: c}, nil
}

func (h *Hooks) add(n int64, event string, attrs ...attribute.KeyValue) {
	attrs = append(attrs, attribute.String("event", event))
	h.events.Add(context.Background(), n, metric.WithAttributes(attrs...))
}

func region(r string) attribute.KeyValue { return attribute.String("region", r) }
func reason(r string) attribute.KeyValue { return attribute.String("reason", r) }

func (h *Hooks) CacheHit(r string)  { h.add(1, "hit", region(r)) }
func (h *Hooks) CacheMiss(r string) { h.add(1, "miss", region(r)) }
func (h *Hooks) CachePut(r string)  { h.add(1, "put", region(r)) }

func (h *Hooks) PutFromLoadSkipped(r, _, why string) {
	h.add(1, "put_from_load_skipped", region(r), reason(why))
}

func (h *Hooks) SoftLockMismatch(r, _ string) { h.add(1, "soft_lock_mismatch", region(r)) }
func (h *Hooks) SelfHeal(_, why string)       { h.add(1, "self_heal", reason(why)) }
func (h *Hooks) ProviderSetRejected(string)   { h.add(1, "provider_set_rejected") }

func (h *Hooks) GenError(op string, count int, _ error) {
	h.add(int64(count), "gen_error", attribute.String("op", op))
}

func (h *Hooks) EngineError(r, op string, _ error) {
	h.add(1, "engine_error", region(r), attribute.String("op", op))
}

func (h *Hooks) RegionInvalidated(r, why string) {
	h.add(1, "region_invalidated", region(r), reason(why))
}

func (h *Hooks) StaleRefresh(r, _ string) { h.add(1, "stale_refresh", region(r)) }
