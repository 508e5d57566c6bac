package workload

import "time"

// rng is a xorshift64* generator. The kernels need cheap, data-dependent
// pseudo-random inputs inside their hot loops; a full PRNG would shift
// the measurement toward the generator itself. Seeding per kernel
// instance is deliberate: the shape of the work is deterministic, the
// exact values need not be reproducible across runs.
type rng struct {
	state uint64
}

func newRNG() rng {
	seed := uint64(time.Now().UnixNano())
	if seed == 0 {
		seed = 0x9e3779b97f4a7c15
	}
	return rng{state: seed}
}

func (r *rng) next() uint64 {
	x := r.state
	x ^= x >> 12
	x ^= x << 25
	x ^= x >> 27
	r.state = x
	return x * 0x2545f4914f6cdd1d
}

// float returns a value in [lo, hi).
func (r *rng) float(lo, hi float64) float64 {
	f := float64(r.next()>>11) / (1 << 53)
	return lo + f*(hi-lo)
}
