// Package pool provides the bounded-parallelism executor for part-copy jobs.
//
// A Runner executes a batch of independent jobs with at most maxParallel in
// flight and reports one outcome per job, in job order. It never aborts the
// batch on a job error; the caller inspects the full slate afterward so the
// checkpoint reflects maximum achieved progress before any failure surfaces.
package pool

import (
	"context"
	"sync"

	"github.com/transferkit/s3copy/copytypes"
)

// Job is one schedulable unit of work.
type Job func(ctx context.Context) error

// Runner executes batches of independent jobs with bounded parallelism.
type Runner struct {
	maxParallel int
	semaphore   chan struct{}
}

// NewRunner creates a runner with the specified parallelism limit.
// Non-positive limits fall back to the default.
func NewRunner(maxParallel int) *Runner {
	if maxParallel <= 0 {
		maxParallel = copytypes.DefaultParallel
	}
	return &Runner{
		maxParallel: maxParallel,
		semaphore:   make(chan struct{}, maxParallel),
	}
}

// MaxParallel returns the runner's parallelism bound.
func (r *Runner) MaxParallel() int {
	return r.maxParallel
}

// Run executes all jobs and returns one error-or-nil per job, aligned with
// the jobs slice. Jobs start in slice order; with maxParallel == 1 they also
// finish in slice order (sequential mode). A dead context marks the jobs not
// yet started with the context error instead of running them.
func (r *Runner) Run(ctx context.Context, jobs []Job) []error {
	if r.maxParallel == 1 {
		return r.runSequential(ctx, jobs)
	}

	errs := make([]error, len(jobs))
	var wg sync.WaitGroup

	for i, job := range jobs {
		if err := ctx.Err(); err != nil {
			errs[i] = err
			continue
		}

		// Acquire semaphore
		select {
		case r.semaphore <- struct{}{}:
		case <-ctx.Done():
			errs[i] = ctx.Err()
			continue
		}

		wg.Add(1)
		go func(i int, job Job) {
			defer func() {
				<-r.semaphore
				wg.Done()
			}()
			// Each goroutine owns exactly one slot of errs, so the slate
			// needs no lock.
			errs[i] = job(ctx)
		}(i, job)
	}

	wg.Wait()
	return errs
}

// runSequential is the single-worker mode: one job at a time, in list order,
// still collecting every outcome.
func (r *Runner) runSequential(ctx context.Context, jobs []Job) []error {
	errs := make([]error, len(jobs))
	for i, job := range jobs {
		if err := ctx.Err(); err != nil {
			errs[i] = err
			continue
		}
		errs[i] = job(ctx)
	}
	return errs
}
