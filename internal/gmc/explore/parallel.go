package explore

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Pool runs a bounded number of Driver clones concurrently, merging every
// clone's Result back into the parent (spec §5 "worker-pool clone-and-
// explore, backpressure when pending > 8 × workers").
type Pool struct {
	workers int
	pending chan func() error
	group   *errgroup.Group
	ctx     context.Context
}

// NewPool starts workers goroutines draining a job queue backed by an
// errgroup; the queue's capacity (8x workers) bounds how far ahead of the
// workers the driver's calc_revisits can branch before blocking (spec §5).
func NewPool(ctx context.Context, workers int) *Pool {
	if workers < 1 {
		workers = 1
	}
	group, gctx := errgroup.WithContext(ctx)
	p := &Pool{
		workers: workers,
		pending: make(chan func() error, 8*workers),
		group:   group,
		ctx:     gctx,
	}
	for i := 0; i < workers; i++ {
		group.Go(p.drain)
	}
	return p
}

func (p *Pool) drain() error {
	for {
		select {
		case <-p.ctx.Done():
			return p.ctx.Err()
		case job, ok := <-p.pending:
			if !ok {
				return nil
			}
			if err := job(); err != nil {
				return err
			}
		}
	}
}

// Fork returns a Driver.ForkFunc that enqueues each clone's Run onto the
// pool and folds its Result into parent once it completes.
func (p *Pool) Fork(parent *Driver) ForkFunc {
	return func(clone *Driver) {
		select {
		case p.pending <- func() error {
			err := clone.Run()
			parent.result.Merge(clone.result)
			return err
		}:
		case <-p.ctx.Done():
		}
	}
}

// Close stops accepting new jobs and waits for every queued clone to finish,
// returning the first error any of them produced.
func (p *Pool) Close() error {
	close(p.pending)
	return p.group.Wait()
}

// RunParallel explores d's program using a workers-sized pool: every
// BackwardRevisit found along the main path is branched onto the pool
// instead of deferred to the sequential worklist (Driver.branch's fork ==
// nil path), then waits for every branch to finish before returning.
func (d *Driver) RunParallel(ctx context.Context, workers int) error {
	pool := NewPool(ctx, workers)
	d.fork = pool.Fork(d)
	runErr := d.Run()
	closeErr := pool.Close()
	if runErr != nil {
		return runErr
	}
	return closeErr
}
