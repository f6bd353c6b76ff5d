package oscache

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/unkn0wn-root/l2cache"
	"github.com/unkn0wn-root/l2cache/config"
)

// Per-region property suffixes, qualified by the region name.
const (
	PropRefreshPeriod = "refresh.period" // seconds
	PropCron          = "cron"           // standard 5-field cron expression
	PropCapacity      = "capacity"       // max entries; gets the region its own store
)

type Config struct {
	// Capacity of the shared store (default 1000).
	Capacity int
	// Properties are consulted by BuildEngine; BuildCache takes its own.
	Properties config.Properties
	// Now drives entry ages. Default time.Now.
	Now func() time.Time

	Hooks  l2cache.Hooks
	Logger l2cache.Logger
}

// Provider builds region caches over a shared Store. Each Provider is
// self-contained, so differently configured providers can coexist.
type Provider struct {
	store *Store
	props config.Properties
	now   func() time.Time
	hooks l2cache.Hooks
	log   l2cache.Logger
}

var _ l2cache.EngineFactory = (*Provider)(nil)

func NewProvider(cfg Config) (*Provider, error) {
	store, err := NewStore(StoreConfig{Capacity: cfg.Capacity, Now: cfg.Now})
	if err != nil {
		return nil, err
	}
	p := &Provider{store: store, props: cfg.Properties, now: cfg.Now}
	if p.props == nil {
		p.props = config.Properties{}
	}
	p.hooks = cfg.Hooks
	if p.hooks == nil {
		p.hooks = l2cache.NopHooks{}
	}
	p.log = cfg.Logger
	if p.log == nil {
		p.log = l2cache.NopLogger{}
	}
	return p, nil
}

// Store is the shared store regions without their own capacity use.
func (p *Provider) Store() *Store { return p.store }

// BuildCache reads the region's properties once.
func (p *Provider) BuildCache(region string, props config.Properties) (*Cache, error) {
	refreshSecs, err := props.Int(config.Qualify(region, PropRefreshPeriod), 0)
	if err != nil {
		return nil, err
	}
	var sched cron.Schedule
	if expr, ok := props.Lookup(config.Qualify(region, PropCron)); ok {
		if sched, err = cron.ParseStandard(expr); err != nil {
			return nil, &config.PropertyError{Key: config.Qualify(region, PropCron), Value: expr, Err: err}
		}
	}
	store := p.store
	capacity, err := props.Int(config.Qualify(region, PropCapacity), 0)
	if err != nil {
		return nil, err
	}
	if capacity > 0 {
		if store, err = NewStore(StoreConfig{Capacity: capacity, Now: p.now}); err != nil {
			return nil, err
		}
	}
	p.log.Debug("oscache region configured", l2cache.Fields{
		"region": region, "refresh_secs": refreshSecs, "cron": sched != nil, "capacity": capacity,
	})
	return newCache(store, region, time.Duration(refreshSecs)*time.Second, sched, p.hooks), nil
}

func (p *Provider) BuildEngine(_ context.Context, spec l2cache.RegionSpec) (l2cache.Engine, error) {
	return p.BuildCache(spec.QualifiedName(), p.props)
}

// Close drops every entry of the shared store.
func (p *Provider) Close(context.Context) error {
	p.store.FlushAll()
	return nil
}
