package workload

import (
	"time"

	"github.com/klauspost/cpuid/v2"
)

// Fallback tier sizes when cache detection reports nothing, matching
// common client parts: 32 KiB L1d, 512 KiB L2, and a working set past
// an 8 MiB L3.
const (
	cacheFallbackL1 = 32 << 10
	cacheFallbackL2 = 512 << 10
	cacheFallbackL3 = 8 << 20

	cacheLargeCap = 64 << 20
)

// cacheKernel walks three working sets sized at the L1/L2/L3 boundaries
// of the host CPU. One operation is a full pass over all three tiers:
// the small set word by word, the middle set one word per cache line,
// the large set one word per page so every access misses.
type cacheKernel struct {
	small  []uint32
	medium []uint32
	large  []uint32
}

func newCacheKernel() *cacheKernel {
	l1, l2, l3 := cacheTierSizes(cpuid.CPU.Cache.L1D, cpuid.CPU.Cache.L2, cpuid.CPU.Cache.L3)

	k := &cacheKernel{
		small:  make([]uint32, l1/4),
		medium: make([]uint32, l2/4),
		large:  make([]uint32, l3/4),
	}
	prefill(k.small)
	prefill(k.medium)
	prefill(k.large)
	return k
}

// cacheTierSizes turns detected cache sizes into working-set byte
// sizes. The large tier is twice the L3 so it always spills, capped to
// keep per-worker allocation bounded on big server parts.
func cacheTierSizes(l1d, l2, l3 int) (int, int, int) {
	if l1d <= 0 {
		l1d = cacheFallbackL1
	}
	if l2 <= 0 {
		l2 = cacheFallbackL2
	}
	if l3 <= 0 {
		l3 = cacheFallbackL3
	}
	large := 2 * l3
	if large > cacheLargeCap {
		large = cacheLargeCap
	}
	return l1d, l2, large
}

func prefill(data []uint32) {
	r := newRNG()
	for i := range data {
		data[i] = uint32(r.next())
	}
}

func (k *cacheKernel) Name() string { return NameCache }

func (k *cacheKernel) Run(d time.Duration) Result {
	if d <= 0 {
		return newResult(NameCache, 0, 0, 0)
	}

	var sum uint32
	var ops uint64

	start := time.Now()
	deadline := start.Add(d)
	for time.Now().Before(deadline) {
		for i := 0; i < len(k.small); i++ {
			sum += k.small[i]
		}
		for i := 0; i < len(k.medium); i += 16 {
			sum += k.medium[i]
		}
		for i := 0; i < len(k.large); i += 1024 {
			sum += k.large[i]
		}
		ops++
	}
	elapsed := time.Since(start)

	return newResult(NameCache, ops, uint64(sum), elapsed)
}
