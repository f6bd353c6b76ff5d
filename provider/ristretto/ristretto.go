// Package ristretto is an in-process, cost-bounded provider on Ristretto's
// TinyLFU admission policy. Admission may refuse a frame; the engine then
// reports the put as declined.
package ristretto

import (
	"context"
	"time"

	rc "github.com/dgraph-io/ristretto"

	pr "github.com/unkn0wn-root/l2cache/provider"
)

type Config struct {
	// NumCounters should be about 10x the expected number of entries.
	NumCounters int64
	// MaxCost bounds the sum of entry costs (ProviderEngineOptions.ComputeCost).
	MaxCost     int64
	BufferItems int64
	// Metrics enables Ristretto's counters and Len.
	Metrics bool
	// Synchronous waits for each Set to be applied before returning, so a
	// Get right after a Set sees it. Without it such a Get may miss.
	Synchronous bool
}

// ConfigError reports an invalid Config field.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "ristretto provider: config error in field " + e.Field + ": " + e.Message
}

func (c Config) Validate() error {
	switch {
	case c.NumCounters <= 0:
		return &ConfigError{Field: "NumCounters", Message: "must be positive"}
	case c.MaxCost <= 0:
		return &ConfigError{Field: "MaxCost", Message: "must be positive"}
	case c.BufferItems <= 0:
		return &ConfigError{Field: "BufferItems", Message: "must be positive (64 is typical)"}
	}
	return nil
}

type Provider struct {
	c    *rc.Cache
	sync bool
}

var (
	_ pr.Provider = (*Provider)(nil)
	_ pr.Lener    = (*Provider)(nil)
)

func New(cfg Config) (*Provider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	c, err := rc.NewCache(&rc.Config{
		NumCounters: cfg.NumCounters,
		MaxCost:     cfg.MaxCost,
		BufferItems: cfg.BufferItems,
		Metrics:     cfg.Metrics,
	})
	if err != nil {
		return nil, err
	}
	return &Provider{c: c, sync: cfg.Synchronous}, nil
}

func (p *Provider) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := p.c.Get(key)
	if !ok {
		return nil, false, nil
	}
	b, ok := v.([]byte)
	if !ok {
		p.c.Del(key)
		return nil, false, nil
	}
	return b, true, nil
}

// Set reports admission: false when the policy dropped the frame.
func (p *Provider) Set(_ context.Context, key string, value []byte, cost int64, ttl time.Duration) (bool, error) {
	ok := p.c.SetWithTTL(key, value, cost, ttl)
	if ok && p.sync {
		p.c.Wait()
	}
	return ok, nil
}

func (p *Provider) Del(_ context.Context, key string) error {
	p.c.Del(key)
	return nil
}

// Len is keys added minus keys evicted, or -1 without Config.Metrics.
func (p *Provider) Len() int64 {
	m := p.c.Metrics
	if m == nil {
		return -1
	}
	return int64(m.KeysAdded()) - int64(m.KeysEvicted())
}

func (p *Provider) Close(_ context.Context) error {
	p.c.Wait()
	p.c.Close()
	return nil
}
