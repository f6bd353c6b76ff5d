// Package arc is an in-process provider on an adaptive replacement cache.
package arc

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/arc/v2"

	pr "github.com/unkn0wn-root/l2cache/provider"
)

type item struct {
	value    []byte
	deadline time.Time // zero = no expiry
}

// Provider keeps up to Size entries. Per-entry TTLs are checked on read.
type Provider struct {
	mu  sync.Mutex // serializes Add so it is atomic with respect to Get
	c   *arc.ARCCache[string, item]
	now func() time.Time
}

var (
	_ pr.Provider = (*Provider)(nil)
	_ pr.Adder    = (*Provider)(nil)
	_ pr.Lener    = (*Provider)(nil)
)

type Config struct {
	Size int
	// Now is the clock used for TTLs. Default time.Now.
	Now func() time.Time
}

func New(cfg Config) (*Provider, error) {
	if cfg.Size <= 0 {
		return nil, errors.New("arc: size must be positive")
	}
	c, err := arc.NewARC[string, item](cfg.Size)
	if err != nil {
		return nil, err
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Provider{c: c, now: now}, nil
}

func (p *Provider) live(key string) ([]byte, bool) {
	it, ok := p.c.Get(key)
	if !ok {
		return nil, false
	}
	if !it.deadline.IsZero() && !p.now().Before(it.deadline) {
		p.c.Remove(key)
		return nil, false
	}
	return it.value, true
}

func (p *Provider) Get(_ context.Context, key string) ([]byte, bool, error) {
	b, ok := p.live(key)
	return b, ok, nil
}

func (p *Provider) item(value []byte, ttl time.Duration) item {
	it := item{value: value}
	if ttl > 0 {
		it.deadline = p.now().Add(ttl)
	}
	return it
}

func (p *Provider) Set(_ context.Context, key string, value []byte, _ int64, ttl time.Duration) (bool, error) {
	p.mu.Lock()
	p.c.Add(key, p.item(value, ttl))
	p.mu.Unlock()
	return true, nil
}

func (p *Provider) Add(_ context.Context, key string, value []byte, _ int64, ttl time.Duration) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.live(key); ok {
		return false, nil
	}
	p.c.Add(key, p.item(value, ttl))
	return true, nil
}

func (p *Provider) Del(_ context.Context, key string) error {
	p.c.Remove(key)
	return nil
}

func (p *Provider) Len() int64 { return int64(p.c.Len()) }

func (p *Provider) Close(_ context.Context) error {
	p.c.Purge()
	return nil
}
