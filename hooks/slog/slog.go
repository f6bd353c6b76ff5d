// Package sloghooks logs high-signal cache events with log/slog. Hit, miss
// and put events are too frequent to log and are ignored; count them with
// hooks/prom or hooks/otel instead.
package sloghooks

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"sync/atomic"

	"github.com/unkn0wn-root/l2cache"
)

type Options struct {
	// Sampling to avoid floods; 0/1 = log all.
	SelfHealEvery uint64
	SkipEvery     uint64
	// Optional key redactor. Defaults to a SHA-256 prefix.
	Redact func(string) string
}

type Hooks struct {
	l2cache.NopHooks
	l    *slog.Logger
	opts Options

	selfHealCtr atomic.Uint64
	skipCtr     atomic.Uint64
}

var _ l2cache.Hooks = (*Hooks)(nil)

func New(l *slog.Logger, opts Options) *Hooks {
	return &Hooks{l: l, opts: opts}
}

func (h *Hooks) redact(k string) string {
	if h.opts.Redact != nil {
		return h.opts.Redact(k)
	}
	sum := sha256.Sum256([]byte(k))
	return hex.EncodeToString(sum[:8])
}

func sample(n uint64, ctr *atomic.Uint64) bool {
	if n <= 1 {
		return true
	}
	return ctr.Add(1)%n == 0
}

func (h *Hooks) PutFromLoadSkipped(region, key, reason string) {
	if h.l == nil || !sample(h.opts.SkipEvery, &h.skipCtr) {
		return
	}
	h.l.Debug("l2cache.put_from_load_skipped",
		"region", region,
		"key", h.redact(key),
		"reason", reason)
}

func (h *Hooks) SoftLockMismatch(region, key string) {
	if h.l == nil {
		return
	}
	h.l.Warn("l2cache.soft_lock_mismatch",
		"region", region,
		"key", h.redact(key))
}

func (h *Hooks) SelfHeal(storageKey, reason string) {
	if h.l == nil || !sample(h.opts.SelfHealEvery, &h.selfHealCtr) {
		return
	}
	h.l.Debug("l2cache.self_heal",
		"key", h.redact(storageKey),
		"reason", reason)
}

func (h *Hooks) ProviderSetRejected(storageKey string) {
	if h.l == nil {
		return
	}
	h.l.Warn("l2cache.provider_set_rejected",
		"key", h.redact(storageKey))
}

func (h *Hooks) GenError(op string, count int, err error) {
	if h.l == nil {
		return
	}
	h.l.Warn("l2cache.gen_error",
		"op", op,
		"count", count,
		"err", err)
}

func (h *Hooks) EngineError(region, op string, err error) {
	if h.l == nil {
		return
	}
	h.l.Error("l2cache.engine_error",
		"region", region,
		"op", op,
		"err", err)
}

func (h *Hooks) RegionInvalidated(region, reason string) {
	if h.l == nil {
		return
	}
	h.l.Info("l2cache.region_invalidated",
		"region", region,
		"reason", reason)
}

func (h *Hooks) StaleRefresh(region, key string) {
	if h.l == nil {
		return
	}
	h.l.Debug("l2cache.stale_refresh",
		"region", region,
		"key", h.redact(key))
}
