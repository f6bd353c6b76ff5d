package genstore

import (
	"context"
	"sync"
	"time"
)

type localEpoch struct {
	Epoch     uint64
	UpdatedAt time.Time
}

// LocalGenStore keeps epochs in-process, with an optional loop pruning
// regions that have not been cleared for a long time.
type LocalGenStore struct {
	mu     sync.RWMutex
	epochs map[string]localEpoch
	now    func() time.Time
	ticker *time.Ticker
	stopCh chan struct{}
	wg     sync.WaitGroup
}

var _ GenStore = (*LocalGenStore)(nil)

func NewLocalGenStore(cleanupInterval, retention time.Duration) *LocalGenStore {
	s := &LocalGenStore{
		epochs: make(map[string]localEpoch),
		now:    time.Now,
	}
	if cleanupInterval > 0 && retention > 0 {
		s.ticker = time.NewTicker(cleanupInterval)
		s.stopCh = make(chan struct{})
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			for {
				select {
				case <-s.ticker.C:
					s.Cleanup(retention)
				case <-s.stopCh:
					return
				}
			}
		}()
	}
	return s
}

func (s *LocalGenStore) Snapshot(_ context.Context, region string) (uint64, error) {
	s.mu.RLock()
	e := s.epochs[region]
	s.mu.RUnlock()
	return e.Epoch, nil
}

func (s *LocalGenStore) Bump(_ context.Context, region string) (uint64, error) {
	now := s.now()
	s.mu.Lock()
	e := s.epochs[region]
	e.Epoch++
	e.UpdatedAt = now
	s.epochs[region] = e
	s.mu.Unlock()
	return e.Epoch, nil
}

// Cleanup forgets epochs untouched for retention. A forgotten region reads
// as epoch 0 again, so frames written under epoch 0 become live; keep
// retention longer than the provider TTL.
func (s *LocalGenStore) Cleanup(retention time.Duration) {
	if retention <= 0 {
		return
	}
	cutoff := s.now().Add(-retention)

	s.mu.Lock()
	for k, e := range s.epochs {
		if e.UpdatedAt.Before(cutoff) {
			delete(s.epochs, k)
		}
	}
	s.mu.Unlock()
}

func (s *LocalGenStore) Close(_ context.Context) error {
	if s.stopCh != nil {
		close(s.stopCh)
		s.ticker.Stop()
		s.wg.Wait()
		s.stopCh = nil
	}
	return nil
}
