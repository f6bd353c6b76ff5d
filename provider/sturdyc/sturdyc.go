// Package sturdyc is an in-process sharded provider on sturdyc.
package sturdyc

import (
	"context"
	"time"

	"github.com/viccon/sturdyc"

	pr "github.com/unkn0wn-root/l2cache/provider"
)

type Provider struct {
	c *sturdyc.Client[[]byte]
}

var (
	_ pr.Provider = (*Provider)(nil)
	_ pr.Lener    = (*Provider)(nil)
)

type Config struct {
	Capacity           int
	NumShards          int
	TTL                time.Duration
	EvictionPercentage int
	// EvictionInterval enables background eviction of expired entries.
	EvictionInterval time.Duration
}

// ConfigError reports an invalid Config field.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "sturdyc provider: config error in field " + e.Field + ": " + e.Message
}

func (c Config) Validate() error {
	switch {
	case c.Capacity <= 0:
		return &ConfigError{Field: "Capacity", Message: "must be positive"}
	case c.NumShards <= 0 || c.NumShards > c.Capacity:
		return &ConfigError{Field: "NumShards", Message: "must be in (0, Capacity]"}
	case c.TTL <= 0:
		return &ConfigError{Field: "TTL", Message: "must be positive"}
	case c.EvictionPercentage < 0 || c.EvictionPercentage > 100:
		return &ConfigError{Field: "EvictionPercentage", Message: "must be within [0, 100]"}
	}
	return nil
}

func New(cfg Config) (*Provider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	var opts []sturdyc.Option
	if cfg.EvictionInterval > 0 {
		opts = append(opts, sturdyc.WithEvictionInterval(cfg.EvictionInterval))
	}
	c := sturdyc.New[[]byte](cfg.Capacity, cfg.NumShards, cfg.TTL, cfg.EvictionPercentage, opts...)
	return &Provider{c: c}, nil
}

func (p *Provider) Get(_ context.Context, key string) ([]byte, bool, error) {
	b, ok := p.c.Get(key)
	return b, ok, nil
}

// Set ignores ttl: sturdyc expires by the client-wide TTL.
func (p *Provider) Set(_ context.Context, key string, value []byte, _ int64, _ time.Duration) (bool, error) {
	p.c.Set(key, value)
	return true, nil
}

func (p *Provider) Del(_ context.Context, key string) error {
	p.c.Delete(key)
	return nil
}

func (p *Provider) Len() int64 { return int64(p.c.Size()) }

func (p *Provider) Close(_ context.Context) error { return nil }
