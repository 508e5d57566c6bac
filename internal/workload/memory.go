package workload

import (
	"time"

	"github.com/pbnjay/memory"
)

// Working set for the random-access kernel: 16Mi 4-byte words (64 MiB)
// by default, far past any L3, shrunk on small machines so the buffers
// of one worker per logical CPU still fit comfortably in RAM.
const (
	memoryDefaultWords = 1 << 24
	memoryMinimumWords = 1 << 20
	memoryBatch        = 1024
)

// memoryKernel stresses cache-unfriendly memory bandwidth and latency.
// One operation is a single randomized read+write pair.
type memoryKernel struct {
	data []uint32
	mask uint64
	rnd  rng
}

func newMemoryKernel() *memoryKernel {
	words := memoryWorkingSetWords(memory.TotalMemory())
	k := &memoryKernel{
		data: make([]uint32, words),
		mask: uint64(words - 1),
		rnd:  newRNG(),
	}
	// Pre-warm: fault every page in before anything is timed.
	for i := range k.data {
		k.data[i] = uint32(k.rnd.next())
	}
	return k
}

// memoryWorkingSetWords picks a power-of-two word count whose byte size
// stays under 1/32 of physical memory, leaving room for one kernel per
// logical processor running concurrently.
func memoryWorkingSetWords(totalMem uint64) int {
	words := memoryDefaultWords
	if totalMem > 0 {
		for words > memoryMinimumWords && uint64(words)*4 > totalMem/32 {
			words >>= 1
		}
	}
	return words
}

func (k *memoryKernel) Name() string { return NameMemory }

func (k *memoryKernel) Run(d time.Duration) Result {
	if d <= 0 {
		return newResult(NameMemory, 0, 0, 0)
	}

	var sum uint32
	var ops uint64

	start := time.Now()
	deadline := start.Add(d)
	for time.Now().Before(deadline) {
		for i := 0; i < memoryBatch; i++ {
			idx := k.rnd.next() & k.mask
			sum += k.data[idx]
			k.data[idx] = sum ^ uint32(i*31)
		}
		ops += memoryBatch
	}
	elapsed := time.Since(start)

	return newResult(NameMemory, ops, uint64(sum), elapsed)
}
