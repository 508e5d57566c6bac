package workload

import (
	"math"
	"time"
)

const (
	mixedWords = 1 << 17 // 1 MiB of float64s
	mixedBatch = 128
)

// mixedKernel combines arithmetic, memory traffic, and data-dependent
// branching in a single composite step, approximating a general-purpose
// instruction mix. One operation is one composite step.
type mixedKernel struct {
	data []float64
	mask uint64
	rnd  rng
}

func newMixedKernel() *mixedKernel {
	k := &mixedKernel{
		data: make([]float64, mixedWords),
		mask: mixedWords - 1,
		rnd:  newRNG(),
	}
	for i := range k.data {
		k.data[i] = k.rnd.float(0, 1000)
	}
	return k
}

func (k *mixedKernel) Name() string { return NameMixed }

func (k *mixedKernel) Run(d time.Duration) Result {
	if d <= 0 {
		return newResult(NameMixed, 0, 0, 0)
	}

	var ops uint64

	start := time.Now()
	deadline := start.Add(d)
	for time.Now().Before(deadline) {
		for i := 0; i < mixedBatch; i++ {
			val := k.rnd.float(0, 1000)
			idx := k.rnd.next() & k.mask

			k.data[idx] = math.Sqrt(val) * math.Sin(val)
			if idx > 0 {
				k.data[idx] += k.data[idx-1]
			}
			if val > 500 {
				k.data[idx] *= 1.1
			} else {
				k.data[idx] *= 0.9
			}
		}
		ops += mixedBatch
	}
	elapsed := time.Since(start)

	return newResult(NameMixed, ops, math.Float64bits(k.data[k.rnd.next()&k.mask]), elapsed)
}
