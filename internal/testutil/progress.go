// Package testutil provides test utilities for progress reporting.
package testutil

import (
	"sync"

	"github.com/aws/smithy-go/middleware"

	"github.com/transferkit/s3copy/copytypes"
)

// ProgressRecorder captures progress callback invocations for assertions.
// FailAfter, when non-nil, is returned as the callback error once the
// reported ratio reaches the given value, letting tests drive the
// stop-on-progress-failure path.
type ProgressRecorder struct {
	mu        sync.Mutex
	ratios    []float64
	snapshots []*copytypes.Checkpoint

	FailAfter *float64
	FailErr   error
}

// Func returns the recorder as a progress callback.
func (r *ProgressRecorder) Func() copytypes.ProgressFunc {
	return func(ratio float64, cp *copytypes.Checkpoint, _ middleware.Metadata) error {
		r.mu.Lock()
		r.ratios = append(r.ratios, ratio)
		r.snapshots = append(r.snapshots, cp)
		r.mu.Unlock()

		if r.FailAfter != nil && ratio >= *r.FailAfter {
			return r.FailErr
		}
		return nil
	}
}

// Ratios returns the reported ratios in call order.
func (r *ProgressRecorder) Ratios() []float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]float64, len(r.ratios))
	copy(out, r.ratios)
	return out
}

// Snapshots returns the checkpoint snapshots in call order.
func (r *ProgressRecorder) Snapshots() []*copytypes.Checkpoint {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*copytypes.Checkpoint, len(r.snapshots))
	copy(out, r.snapshots)
	return out
}

// Calls returns the number of callback invocations.
func (r *ProgressRecorder) Calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.ratios)
}

// LastRatio returns the most recently reported ratio, or zero when the
// callback never fired.
func (r *ProgressRecorder) LastRatio() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.ratios) == 0 {
		return 0
	}
	return r.ratios[len(r.ratios)-1]
}

// Nondecreasing reports whether the recorded ratios never went backwards.
func (r *ProgressRecorder) Nondecreasing() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := 1; i < len(r.ratios); i++ {
		if r.ratios[i] < r.ratios[i-1] {
			return false
		}
	}
	return true
}
