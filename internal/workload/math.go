package workload

import (
	"math"
	"time"
)

// mathKernel stresses scalar floating-point and transcendental
// throughput. One operation is a full chain of dependent transcendental
// calls over pseudo-random inputs.
type mathKernel struct {
	rnd rng
}

func newMathKernel() *mathKernel {
	return &mathKernel{rnd: newRNG()}
}

func (k *mathKernel) Name() string { return NameMath }

// Deadline polling granularity. One chain is a few hundred nanoseconds,
// so a batch keeps the clock reads out of the measured work while
// bounding overshoot to well under a millisecond.
const mathBatch = 256

func (k *mathKernel) Run(d time.Duration) Result {
	if d <= 0 {
		return newResult(NameMath, 0, 0, 0)
	}

	acc := 1.0
	var ops uint64

	start := time.Now()
	deadline := start.Add(d)
	for time.Now().Before(deadline) {
		for i := 0; i < mathBatch; i++ {
			a := k.rnd.float(0.1, 10.0)
			b := k.rnd.float(0.1, 10.0)
			c := k.rnd.float(0.1, 10.0)

			acc += math.Sqrt(a*b + c)
			acc *= math.Sin(a) * math.Cos(b)
			acc /= 1.0 + math.Abs(math.Tan(c))
			acc = math.Sqrt(math.Abs(acc) + 1e-12)
			acc = math.Log(math.Abs(acc)+1.0) * math.Exp(a*0.01)
			acc = math.Atan2(b, c) * math.Asin(a/10.0)
		}
		ops += mathBatch
	}
	elapsed := time.Since(start)

	return newResult(NameMath, ops, math.Float64bits(acc), elapsed)
}
