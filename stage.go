package l2cache

import (
	"context"
	"errors"
	"sync"
)

// StagedOp is a cache write deferred until the database transaction ends.
type StagedOp func(ctx context.Context) error

type stagedOp struct {
	region string
	op     StagedOp
}

// Stage buffers cache writes for regions whose engine is not transaction
// aware, so they land only after commit. One Stage per transaction.
type Stage struct {
	mu  sync.Mutex
	ops []stagedOp
	log Logger
}

func NewStage(log Logger) *Stage {
	return &Stage{log: coalesce[Logger](log, NopLogger{})}
}

// Apply runs op now when r is transaction aware and defers it otherwise.
func (s *Stage) Apply(ctx context.Context, r TransactionalDataRegion, op StagedOp) error {
	if r.IsTransactionAware() {
		return op(ctx)
	}
	s.Defer(r.Name(), op)
	return nil
}

func (s *Stage) Defer(region string, op StagedOp) {
	s.mu.Lock()
	s.ops = append(s.ops, stagedOp{region: region, op: op})
	s.mu.Unlock()
}

func (s *Stage) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.ops)
}

// AfterCommit applies the staged writes in order. A failing write does not
// stop the rest; all failures are joined.
func (s *Stage) AfterCommit(ctx context.Context) error {
	ops := s.drain()
	var errs []error
	for _, o := range ops {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if err := o.op(ctx); err != nil {
			s.log.Warn("staged cache write failed", Fields{"region": o.region, "err": err})
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// AfterRollback drops the staged writes.
func (s *Stage) AfterRollback() {
	if n := len(s.drain()); n > 0 {
		s.log.Debug("staged cache writes dropped", Fields{"count": n})
	}
}

func (s *Stage) drain() []stagedOp {
	s.mu.Lock()
	ops := s.ops
	s.ops = nil
	s.mu.Unlock()
	return ops
}
