// Package density extracts per-neuron dendritic synapse counts and densities
// from a circuit, optionally in parallel over contiguous data splits.
package density

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/nvandessel/dendsyn/internal/constants"
)

// ErrTooFewSplits is returned when fewer data splits than parallel jobs are requested.
var ErrTooFewSplits = errors.New("number of data splits too low for given number of parallel jobs")

// CreateSplits divides ids into n contiguous chunks of ceil(len(ids)/n)
// elements. The last non-empty chunk holds the remainder and trailing chunks
// are empty when there are not enough ids to go around.
func CreateSplits(ids []int64, n int) ([][]int64, error) {
	if n < 1 {
		return nil, fmt.Errorf("number of data splits must be at least 1, got %d", n)
	}

	chunk := (len(ids) + n - 1) / n
	splits := make([][]int64, n)
	for i := range splits {
		lo := min(i*chunk, len(ids))
		hi := min(lo+chunk, len(ids))
		splits[i] = ids[lo:hi:hi]
	}
	return splits, nil
}

// ResolveJobs maps the job count to the number of workers. AllCPUs means one
// worker per CPU.
func ResolveJobs(jobs int) (int, error) {
	switch {
	case jobs == constants.AllCPUs:
		return runtime.NumCPU(), nil
	case jobs >= 1:
		return jobs, nil
	}
	return 0, fmt.Errorf("number of parallel jobs must be positive or %d, got %d", constants.AllCPUs, jobs)
}

// ResolvePlan returns the number of data splits and of concurrent workers
// for the requested jobs and splits. A split count of 0 defaults to one split
// per worker. At least as many splits as jobs must be requested; with
// AllCPUs the worker count is capped at the split count instead.
func ResolvePlan(jobs, splits int) (nsplits, workers int, err error) {
	workers, err = ResolveJobs(jobs)
	if err != nil {
		return 0, 0, err
	}
	switch {
	case splits == 0:
		return workers, workers, nil
	case splits < 0:
		return 0, 0, fmt.Errorf("number of data splits must be positive, got %d", splits)
	case jobs != constants.AllCPUs && splits < jobs:
		return 0, 0, fmt.Errorf("%w (%d splits, %d jobs)", ErrTooFewSplits, splits, jobs)
	}
	return splits, min(workers, splits), nil
}
