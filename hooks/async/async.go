// Package async moves hook delivery off the cache's hot path.
//
//	raw := sloghooks.New(slog.Default(), sloghooks.Options{SelfHealEvery: 10})
//	h := async.New(raw, 1, 1000) // 1 worker, 1000 queued events
//	defer h.Close()
//
//	f, _ := l2cache.NewRegionFactory(l2cache.Options{Engines: engines, Hooks: h})
package async

import (
	"sync"
	"sync/atomic"

	"github.com/unkn0wn-root/l2cache"
)

// Hooks queues events for inner on a bounded channel. When the queue is
// full the event is dropped and counted.
type Hooks struct {
	inner   l2cache.Hooks
	q       chan func()
	wg      sync.WaitGroup
	once    sync.Once
	mu      sync.RWMutex // guards q against send after close
	closed  bool
	dropped atomic.Uint64
}

var _ l2cache.Hooks = (*Hooks)(nil)

func New(inner l2cache.Hooks, workers, qlen int) *Hooks {
	if workers <= 0 {
		workers = 1
	}
	if qlen <= 0 {
		qlen = 1024
	}
	h := &Hooks{inner: inner, q: make(chan func(), qlen)}
	h.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer h.wg.Done()
			for f := range h.q {
				f()
			}
		}()
	}
	return h
}

// Close delivers queued events and stops the workers. Events after Close
// are dropped.
func (h *Hooks) Close() {
	h.once.Do(func() {
		h.mu.Lock()
		h.closed = true
		close(h.q)
		h.mu.Unlock()
		h.wg.Wait()
	})
}

// Dropped is the number of events lost to a full queue or a closed Hooks.
func (h *Hooks) Dropped() uint64 { return h.dropped.Load() }

func (h *Hooks) try(f func()) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		h.dropped.Add(1)
		return
	}
	select {
	case h.q <- f:
	default:
		h.dropped.Add(1)
	}
}

func (h *Hooks) CacheHit(r string)  { h.try(func() { h.inner.CacheHit(r) }) }
func (h *Hooks) CacheMiss(r string) { h.try(func() { h.inner.CacheMiss(r) }) }
func (h *Hooks) CachePut(r string)  { h.try(func() { h.inner.CachePut(r) }) }
func (h *Hooks) PutFromLoadSkipped(r, k, reason string) {
	h.try(func() { h.inner.PutFromLoadSkipped(r, k, reason) })
}
func (h *Hooks) SoftLockMismatch(r, k string) { h.try(func() { h.inner.SoftLockMismatch(r, k) }) }
func (h *Hooks) SelfHeal(k, reason string)    { h.try(func() { h.inner.SelfHeal(k, reason) }) }
func (h *Hooks) ProviderSetRejected(k string) { h.try(func() { h.inner.ProviderSetRejected(k) }) }
func (h *Hooks) GenError(op string, n int, err error) {
	h.try(func() { h.inner.GenError(op, n, err) })
}
func (h *Hooks) EngineError(r, op string, err error) {
	h.try(func() { h.inner.EngineError(r, op, err) })
}
func (h *Hooks) RegionInvalidated(r, reason string) {
	h.try(func() { h.inner.RegionInvalidated(r, reason) })
}
func (h *Hooks) StaleRefresh(r, k string) { h.try(func() { h.inner.StaleRefresh(r, k) }) }
