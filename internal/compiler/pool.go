package compiler

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"mosa/internal/merr"
)

// Pool runs a fixed Pipeline over a queue of methods, one worker per
// method slot, the method-level parallelism spec.md §5 describes ("a pool
// of worker threads draws methods from a queue; per-method state ... is
// thread-local"). Grounded on the teacher's (vovakirdan-surge)
// internal/driver/parallel_diagnose.go worker-pool shape: an
// errgroup.Group with SetLimit, atomic counters for aggregate metrics, and
// a shared context that a fatal error cancels, so workers that have not
// started a method yet skip it.
type Pool struct {
	Pipeline *Pipeline
	Workers  int

	Compiled int64
	Failed   int64
}

// NewPool creates a pool of workers bounded by n (clamped to at least 1)
// driving pipeline over whatever methods Run is given.
func NewPool(pipeline *Pipeline, workers int) *Pool {
	if workers < 1 {
		workers = 1
	}
	return &Pool{Pipeline: pipeline, Workers: workers}
}

// Run compiles every method in methods, up to p.Workers concurrently.
// A KindLinker/KindTypeSystem global error cancels the shared context, and
// every method whose worker has not started yet is skipped. Methods already
// in flight run all their remaining stages: Pipeline.Compile does not
// observe the cancellation. Per-method (KindInvariant/KindNotSupported)
// errors are recorded on the method itself and do not cancel the pool.
func (p *Pool) Run(ctx context.Context, methods []*Method) error {
	g, gctx := errgroup.WithContext(ctx)
	limit := p.Workers
	if limit > len(methods) && len(methods) > 0 {
		limit = len(methods)
	}
	if limit > 0 {
		g.SetLimit(limit)
	}

	var compiled, failed atomic.Int64
	for _, m := range methods {
		m := m
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			err := p.Pipeline.Compile(m)
			if m.HasCompileError {
				failed.Add(1)
			} else {
				compiled.Add(1)
			}
			if err != nil {
				if me, ok := err.(*merr.Error); ok && me.Kind.Fatal() {
					return me
				}
			}
			return nil
		})
	}

	err := g.Wait()
	p.Compiled = compiled.Load()
	p.Failed = failed.Load()
	return err
}
