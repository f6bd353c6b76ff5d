// Package prom counts cache events in Prometheus.
package prom

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/unkn0wn-root/l2cache"
)

// Hooks exports l2cache_* counters labelled by region.
type Hooks struct {
	requests    *prometheus.CounterVec // region, result
	puts        *prometheus.CounterVec // region
	skipped     *prometheus.CounterVec // region, reason
	mismatches  *prometheus.CounterVec // region
	selfHeals   *prometheus.CounterVec // reason
	rejected    prometheus.Counter
	genErrors   *prometheus.CounterVec // op
	engineErrs  *prometheus.CounterVec // region, op
	invalidated *prometheus.CounterVec // region, reason
	stale       *prometheus.CounterVec // region
}

var _ l2cache.Hooks = (*Hooks)(nil)

// New registers the collectors with reg.
func New(reg prometheus.Registerer) (*Hooks, error) {
	counter := func(name, help string, labels ...string) *prometheus.CounterVec {
		return prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "l2cache",
			Name:      name,
			Help:      help,
		}, labels)
	}
	h := &Hooks{
		requests:   counter("requests_total", "Strategy reads by result.", "region", "result"),
		puts:       counter("puts_total", "Items written to a region.", "region"),
		skipped:    counter("put_from_load_skipped_total", "Loads not cached, by reason.", "region", "reason"),
		mismatches: counter("soft_lock_mismatches_total", "Unlocks with a token that did not own the lock.", "region"),
		selfHeals:  counter("self_heals_total", "Entries deleted on read.", "reason"),
		rejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "l2cache",
			Name:      "provider_set_rejected_total",
			Help:      "Writes the provider declined.",
		}),
		genErrors:   counter("gen_errors_total", "Generation store failures.", "op"),
		engineErrs:  counter("engine_errors_total", "Engine failures.", "region", "op"),
		invalidated: counter("region_invalidations_total", "Whole-region invalidations.", "region", "reason"),
		stale:       counter("stale_refreshes_total", "Stale entries read as misses.", "region"),
	}
	for _, c := range []prometheus.Collector{
		h.requests, h.puts, h.skipped, h.mismatches, h.selfHeals, h.rejected,
		h.genErrors, h.engineErrs, h.invalidated, h.stale,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return h, nil
}

func (h *Hooks) CacheHit(region string)  { h.requests.WithLabelValues(region, "hit").Inc() }
func (h *Hooks) CacheMiss(region string) { h.requests.WithLabelValues(region, "miss").Inc() }
func (h *Hooks) CachePut(region string)  { h.puts.WithLabelValues(region).Inc() }

// PutFromLoadSkipped does not label by key; keys are unbounded.
func (h *Hooks) PutFromLoadSkipped(region, _, reason string) {
	h.skipped.WithLabelValues(region, reason).Inc()
}

func (h *Hooks) SoftLockMismatch(region, _ string) { h.mismatches.WithLabelValues(region).Inc() }
func (h *Hooks) SelfHeal(_, reason string)         { h.selfHeals.WithLabelValues(reason).Inc() }
func (h *Hooks) ProviderSetRejected(string)        { h.rejected.Inc() }

func (h *Hooks) GenError(op string, count int, _ error) {
	h.genErrors.WithLabelValues(op).Add(float64(count))
}

func (h *Hooks) EngineError(region, op string, _ error) {
	h.engineErrs.WithLabelValues(region, op).Inc()
}

func (h *Hooks) RegionInvalidated(region, reason string) {
	h.invalidated.WithLabelValues(region, reason).Inc()
}

func (h *Hooks) StaleRefresh(region, _ string) { h.stale.WithLabelValues(region).Inc() }
