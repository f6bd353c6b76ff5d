// Package oscache is a single-process LRU cache with refresh periods, cron
// expiry and entry groups, plus an l2cache.EngineFactory binding regions to
// it.
package oscache

import (
	"context"
	"fmt"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/robfig/cron/v3"
)

const defaultCapacity = 1000

// NeedsRefreshError is returned by GetFromCache when the entry is missing
// or stale. The caller now owns the update of Key and must call PutInCache
// or CancelUpdate; other readers of Key wait until it does.
type NeedsRefreshError struct {
	Key string
	// Stale is the outdated value, nil when the entry was missing.
	Stale []byte
}

func (e *NeedsRefreshError) Error() string {
	return fmt.Sprintf("oscache: %q needs refresh", e.Key)
}

type entry struct {
	value   []byte
	created time.Time
	groups  []string
}

type StoreConfig struct {
	// Capacity is the maximum number of entries (default 1000).
	Capacity int
	// Now is the clock entries are stamped with. Default time.Now.
	Now func() time.Time
}

// Store is safe for concurrent use.
type Store struct {
	mu       sync.Mutex
	lru      *lru.Cache[string, *entry]
	groups   map[string]map[string]struct{}
	updating map[string]chan struct{}
	now      func() time.Time
}

func NewStore(cfg StoreConfig) (*Store, error) {
	s := &Store{
		groups:   make(map[string]map[string]struct{}),
		updating: make(map[string]chan struct{}),
		now:      cfg.Now,
	}
	if s.now == nil {
		s.now = time.Now
	}
	capacity := cfg.Capacity
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	c, err := lru.NewWithEvict[string, *entry](capacity, s.evicted)
	if err != nil {
		return nil, err
	}
	s.lru = c
	return s, nil
}

// evicted runs with s.mu held: every lru call happens under it.
func (s *Store) evicted(key string, e *entry) {
	for _, g := range e.groups {
		if m := s.groups[g]; m != nil {
			delete(m, key)
			if len(m) == 0 {
				delete(s.groups, g)
			}
		}
	}
}

// stale: refresh <= 0 never expires by age; sched expires entries created
// before its latest firing.
func (s *Store) stale(e *entry, refresh time.Duration, sched cron.Schedule) bool {
	now := s.now()
	if refresh > 0 && now.Sub(e.created) >= refresh {
		return true
	}
	return sched != nil && !sched.Next(e.created).After(now)
}

// GetFromCache returns a fresh value or a *NeedsRefreshError. While another
// caller owns the update of key it blocks until that update ends or ctx is
// done.
func (s *Store) GetFromCache(ctx context.Context, key string, refresh time.Duration, sched cron.Schedule) ([]byte, error) {
	for {
		s.mu.Lock()
		e, ok := s.lru.Get(key)
		if ok && !s.stale(e, refresh, sched) {
			s.mu.Unlock()
			return e.value, nil
		}
		if wait, busy := s.updating[key]; busy {
			s.mu.Unlock()
			select {
			case <-wait:
				continue
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
		s.updating[key] = make(chan struct{})
		s.mu.Unlock()

		nre := &NeedsRefreshError{Key: key}
		if ok {
			nre.Stale = e.value
		}
		return nil, nre
	}
}

// PutInCache stores value, ending any update in progress for key.
func (s *Store) PutInCache(key string, value []byte, groups ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if old, ok := s.lru.Peek(key); ok {
		s.evicted(key, old)
	}
	s.lru.Add(key, &entry{value: value, created: s.now(), groups: groups})
	for _, g := range groups {
		m := s.groups[g]
		if m == nil {
			m = make(map[string]struct{})
			s.groups[g] = m
		}
		m[key] = struct{}{}
	}
	s.endUpdateLocked(key)
}

// CancelUpdate ends the update of key without storing anything.
func (s *Store) CancelUpdate(key string) {
	s.mu.Lock()
	s.endUpdateLocked(key)
	s.mu.Unlock()
}

func (s *Store) endUpdateLocked(key string) {
	if ch, ok := s.updating[key]; ok {
		close(ch)
		delete(s.updating, key)
	}
}

// Updating reports whether someone owns the update of key.
func (s *Store) Updating(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.updating[key]
	return ok
}

func (s *Store) FlushEntry(key string) {
	s.mu.Lock()
	s.lru.Remove(key) // eviction callback updates groups
	s.mu.Unlock()
}

func (s *Store) FlushGroup(group string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key := range s.groups[group] {
		s.lru.Remove(key)
	}
	delete(s.groups, group)
}

func (s *Store) FlushAll() {
	s.mu.Lock()
	s.lru.Purge()
	clear(s.groups)
	s.mu.Unlock()
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lru.Len()
}

func (s *Store) GroupLen(group string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.groups[group])
}
