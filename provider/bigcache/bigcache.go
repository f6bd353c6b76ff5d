// Package bigcache is an in-process provider on BigCache: sharded,
// GC-friendly, with one global entry lifetime.
package bigcache

import (
	"context"
	"errors"
	"time"

	bc "github.com/allegro/bigcache/v3"

	pr "github.com/unkn0wn-root/l2cache/provider"
)

type Config struct {
	// LifeWindow is the lifetime of every entry. Per-put TTLs are ignored,
	// so set ProviderEngineOptions.TTL to match. Required.
	LifeWindow time.Duration
	// CleanWindow is how often expired entries are removed (0 = on write only).
	CleanWindow        time.Duration
	Shards             int // power of two; default 1024
	MaxEntriesInWindow int
	MaxEntrySize       int
	HardMaxCacheSizeMB int // 0 = unlimited
}

// ConfigError reports an invalid Config field.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "bigcache provider: config error in field " + e.Field + ": " + e.Message
}

func (c Config) Validate() error {
	switch {
	case c.LifeWindow <= 0:
		return &ConfigError{Field: "LifeWindow", Message: "must be positive"}
	case c.Shards < 0 || c.Shards&(c.Shards-1) != 0:
		return &ConfigError{Field: "Shards", Message: "must be a power of two"}
	case c.HardMaxCacheSizeMB < 0:
		return &ConfigError{Field: "HardMaxCacheSizeMB", Message: "must not be negative"}
	}
	return nil
}

type Provider struct {
	c *bc.BigCache
}

var (
	_ pr.Provider = (*Provider)(nil)
	_ pr.Lener    = (*Provider)(nil)
)

func New(ctx context.Context, cfg Config) (*Provider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	conf := bc.DefaultConfig(cfg.LifeWindow)
	conf.CleanWindow = cfg.CleanWindow
	conf.Verbose = false
	if cfg.Shards > 0 {
		conf.Shards = cfg.Shards
	}
	if cfg.MaxEntriesInWindow > 0 {
		conf.MaxEntriesInWindow = cfg.MaxEntriesInWindow
	}
	if cfg.MaxEntrySize > 0 {
		conf.MaxEntrySize = cfg.MaxEntrySize
	}
	conf.HardMaxCacheSize = cfg.HardMaxCacheSizeMB
	c, err := bc.New(ctx, conf)
	if err != nil {
		return nil, err
	}
	return &Provider{c: c}, nil
}

func (p *Provider) Get(_ context.Context, key string) ([]byte, bool, error) {
	b, err := p.c.Get(key)
	switch {
	case errors.Is(err, bc.ErrEntryNotFound):
		return nil, false, nil
	case err != nil:
		return nil, false, err
	}
	return b, true, nil
}

func (p *Provider) Set(_ context.Context, key string, value []byte, _ int64, _ time.Duration) (bool, error) {
	if err := p.c.Set(key, value); err != nil {
		return false, err
	}
	return true, nil
}

func (p *Provider) Del(_ context.Context, key string) error {
	if err := p.c.Delete(key); err != nil && !errors.Is(err, bc.ErrEntryNotFound) {
		return err
	}
	return nil
}

func (p *Provider) Len() int64 { return int64(p.c.Len()) }

func (p *Provider) Close(_ context.Context) error { return p.c.Close() }
