package workload

import "time"

const branchBatch = 1024

// branchKernel stresses the branch predictor with data-dependent
// cascades it cannot learn. One operation is one cascade over a fresh
// pseudo-random value.
type branchKernel struct {
	rnd rng
}

func newBranchKernel() *branchKernel {
	return &branchKernel{rnd: newRNG()}
}

func (k *branchKernel) Name() string { return NameBranch }

func (k *branchKernel) Run(d time.Duration) Result {
	if d <= 0 {
		return newResult(NameBranch, 0, 0, 0)
	}

	var acc int64
	var ops uint64

	start := time.Now()
	deadline := start.Add(d)
	for time.Now().Before(deadline) {
		for i := 0; i < branchBatch; i++ {
			val := int64(k.rnd.next() % 101)

			switch {
			case val < 25:
				acc += val * 3
			case val < 50:
				acc -= val * 2
			case val < 75:
				acc ^= val
			default:
				acc *= val%7 + 1
			}

			if acc&1 == 1 && val%3 == 0 {
				acc = (acc << 2) | (val & 0xF)
			} else if acc%7 == 0 {
				acc ^= val * 13
			}
		}
		ops += branchBatch
	}
	elapsed := time.Since(start)

	return newResult(NameBranch, ops, uint64(acc), elapsed)
}
