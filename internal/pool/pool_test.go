package pool

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRunnerDefaults(t *testing.T) {
	assert.Equal(t, 5, NewRunner(0).MaxParallel())
	assert.Equal(t, 5, NewRunner(-3).MaxParallel())
	assert.Equal(t, 8, NewRunner(8).MaxParallel())
}

func TestRunCollectsAllOutcomesInJobOrder(t *testing.T) {
	errFirst := errors.New("first failure")
	errSecond := errors.New("second failure")

	var executed atomic.Int32
	jobs := []Job{
		func(ctx context.Context) error { executed.Add(1); return nil },
		func(ctx context.Context) error { executed.Add(1); return errFirst },
		func(ctx context.Context) error { executed.Add(1); return nil },
		func(ctx context.Context) error { executed.Add(1); return errSecond },
		func(ctx context.Context) error { executed.Add(1); return nil },
	}

	errs := NewRunner(2).Run(context.Background(), jobs)

	require.Len(t, errs, len(jobs))
	// Earlier failures must not stop later jobs.
	assert.Equal(t, int32(len(jobs)), executed.Load())
	assert.NoError(t, errs[0])
	assert.ErrorIs(t, errs[1], errFirst)
	assert.NoError(t, errs[2])
	assert.ErrorIs(t, errs[3], errSecond)
	assert.NoError(t, errs[4])
}

func TestRunBoundsParallelism(t *testing.T) {
	const maxParallel = 3
	const numJobs = 20

	var inFlight atomic.Int32
	var maxSeen atomic.Int32

	jobs := make([]Job, numJobs)
	for i := range jobs {
		jobs[i] = func(ctx context.Context) error {
			now := inFlight.Add(1)
			for {
				seen := maxSeen.Load()
				if now <= seen || maxSeen.CompareAndSwap(seen, now) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			inFlight.Add(-1)
			return nil
		}
	}

	errs := NewRunner(maxParallel).Run(context.Background(), jobs)

	for _, err := range errs {
		require.NoError(t, err)
	}
	assert.LessOrEqual(t, maxSeen.Load(), int32(maxParallel), "in-flight jobs must never exceed the bound")
	assert.Greater(t, maxSeen.Load(), int32(1), "jobs should actually overlap")
}

func TestRunSequentialFallback(t *testing.T) {
	errBoom := errors.New("boom")

	// Sequential mode runs one job at a time in list order, so recording
	// without a lock is safe.
	var order []int
	jobs := []Job{
		func(ctx context.Context) error { order = append(order, 0); return nil },
		func(ctx context.Context) error { order = append(order, 1); return errBoom },
		func(ctx context.Context) error { order = append(order, 2); return nil },
	}

	errs := NewRunner(1).Run(context.Background(), jobs)

	assert.Equal(t, []int{0, 1, 2}, order)
	require.Len(t, errs, 3)
	assert.NoError(t, errs[0])
	assert.ErrorIs(t, errs[1], errBoom)
	assert.NoError(t, errs[2])
}

func TestRunDeadContextSkipsJobs(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var executed atomic.Int32
	jobs := make([]Job, 4)
	for i := range jobs {
		jobs[i] = func(ctx context.Context) error { executed.Add(1); return nil }
	}

	for _, parallel := range []int{1, 3} {
		errs := NewRunner(parallel).Run(ctx, jobs)
		require.Len(t, errs, len(jobs))
		for _, err := range errs {
			assert.ErrorIs(t, err, context.Canceled)
		}
	}
	assert.Zero(t, executed.Load())
}

func TestRunEmptyBatch(t *testing.T) {
	errs := NewRunner(4).Run(context.Background(), nil)
	assert.Empty(t, errs)
}
