// Package workload provides the synthetic benchmark kernels. Every
// kernel runs for a requested wall-clock duration on the calling
// thread and reports how many of its iteration units it completed.
// Kernels own private buffers built and pre-warmed at construction
// time, so concurrent workers never share mutable state.
package workload

import (
	"fmt"
	"time"
)

// Kernel names, in catalog order.
const (
	NameMath   = "math"
	NameMemory = "memory"
	NameBranch = "branch"
	NameCache  = "cache"
	NameMixed  = "mixed"
)

// Weights is the composite-score weighting of the full catalog.
var Weights = map[string]float64{
	NameMath:   0.25,
	NameMemory: 0.20,
	NameBranch: 0.20,
	NameCache:  0.15,
	NameMixed:  0.20,
}

// Names returns the full kernel catalog in canonical order.
func Names() []string {
	return []string{NameMath, NameMemory, NameBranch, NameCache, NameMixed}
}

// Result is the outcome of one kernel run. Checksum folds the kernel's
// accumulator into the result so the compiler cannot discard the loop
// body.
type Result struct {
	Workload   string
	Operations uint64
	Elapsed    time.Duration
	Throughput float64 // operations per second
	Checksum   uint64
}

// Kernel runs a fixed-duration synthetic load on the calling thread.
type Kernel interface {
	Name() string
	// Run executes the kernel for roughly d of wall-clock time. The
	// deadline is polled between batches, so the actual elapsed time
	// can slightly exceed d. A non-positive d still performs setup but
	// completes zero operations.
	Run(d time.Duration) Result
}

// New constructs a fresh kernel with private, pre-warmed buffers.
func New(name string) (Kernel, error) {
	switch name {
	case NameMath:
		return newMathKernel(), nil
	case NameMemory:
		return newMemoryKernel(), nil
	case NameBranch:
		return newBranchKernel(), nil
	case NameCache:
		return newCacheKernel(), nil
	case NameMixed:
		return newMixedKernel(), nil
	default:
		return nil, fmt.Errorf("unknown workload kernel %q", name)
	}
}

// NewCatalog constructs one kernel per name, preserving order.
func NewCatalog(names []string) ([]Kernel, error) {
	kernels := make([]Kernel, 0, len(names))
	for _, name := range names {
		k, err := New(name)
		if err != nil {
			return nil, err
		}
		kernels = append(kernels, k)
	}
	return kernels, nil
}

// Validate reports an error if any name is not in the catalog.
func Validate(names []string) error {
	for _, name := range names {
		if _, ok := Weights[name]; !ok {
			return fmt.Errorf("unknown workload kernel %q", name)
		}
	}
	return nil
}

// Composite computes the weighted score over the named kernels from a
// populated result map. When only a subset of the catalog ran, the
// subset's weights are renormalized so the score stays comparable in
// magnitude to individual throughputs.
func Composite(results map[string]Result, names []string) float64 {
	var weighted, total float64
	for _, name := range names {
		res, ok := results[name]
		if !ok {
			continue
		}
		w := Weights[name]
		weighted += res.Throughput * w
		total += w
	}
	if total <= 0 {
		return 0
	}
	return weighted / total
}

// newResult finalizes a kernel run. Throughput is zero whenever no
// operations completed; otherwise the elapsed time is floored so a
// degenerate clock reading can never divide by zero.
func newResult(name string, ops, checksum uint64, elapsed time.Duration) Result {
	res := Result{
		Workload:   name,
		Operations: ops,
		Elapsed:    elapsed,
		Checksum:   checksum,
	}
	if ops == 0 {
		return res
	}
	if elapsed < time.Microsecond {
		elapsed = time.Microsecond
	}
	res.Throughput = float64(ops) / elapsed.Seconds()
	return res
}
