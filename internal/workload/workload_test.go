package workload

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWeightsCoverCatalogAndSumToOne(t *testing.T) {
	t.Parallel()

	names := Names()
	require.Len(t, Weights, len(names))

	var sum float64
	for _, name := range names {
		w, ok := Weights[name]
		require.True(t, ok, "missing weight for %s", name)
		assert.Greater(t, w, 0.0)
		sum += w
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
}

func TestNewRejectsUnknownKernel(t *testing.T) {
	t.Parallel()

	k, err := New("quantum")
	assert.Error(t, err)
	assert.Nil(t, k)
}

func TestNewCatalogPreservesOrder(t *testing.T) {
	t.Parallel()

	names := []string{NameBranch, NameMath}
	kernels, err := NewCatalog(names)
	require.NoError(t, err)
	require.Len(t, kernels, 2)
	assert.Equal(t, NameBranch, kernels[0].Name())
	assert.Equal(t, NameMath, kernels[1].Name())
}

func TestValidate(t *testing.T) {
	t.Parallel()

	assert.NoError(t, Validate(Names()))
	assert.NoError(t, Validate(nil))
	assert.Error(t, Validate([]string{NameMath, "quantum"}))
}

func TestKernelsCompleteWorkInShortRun(t *testing.T) {
	t.Parallel()

	// Cache and memory kernels allocate large buffers; the cheap ones
	// are enough to exercise the run loop contract.
	for _, name := range []string{NameMath, NameBranch, NameMixed} {
		name := name
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			k, err := New(name)
			require.NoError(t, err)

			res := k.Run(5 * time.Millisecond)
			assert.Equal(t, name, res.Workload)
			assert.Greater(t, res.Operations, uint64(0))
			assert.Greater(t, res.Throughput, 0.0)
			assert.GreaterOrEqual(t, res.Elapsed, 5*time.Millisecond)
		})
	}
}

func TestZeroDurationRunIsEmpty(t *testing.T) {
	t.Parallel()

	for _, name := range []string{NameMath, NameBranch, NameMixed} {
		k, err := New(name)
		require.NoError(t, err)

		res := k.Run(0)
		assert.Zero(t, res.Operations, name)
		assert.Zero(t, res.Throughput, name)
	}
}

func TestCompositeFullCatalog(t *testing.T) {
	t.Parallel()

	results := map[string]Result{}
	for _, name := range Names() {
		results[name] = Result{Workload: name, Throughput: 100}
	}
	assert.InDelta(t, 100.0, Composite(results, Names()), 1e-9)
}

func TestCompositeRenormalizesSubset(t *testing.T) {
	t.Parallel()

	results := map[string]Result{
		NameMath:   {Workload: NameMath, Throughput: 200},
		NameMemory: {Workload: NameMemory, Throughput: 100},
	}
	// math 0.25 and memory 0.20 renormalize to 5/9 and 4/9.
	want := (200*0.25 + 100*0.20) / 0.45
	assert.InDelta(t, want, Composite(results, []string{NameMath, NameMemory}), 1e-9)
}

func TestCompositeEmptyResults(t *testing.T) {
	t.Parallel()

	assert.Zero(t, Composite(nil, Names()))
	assert.Zero(t, Composite(map[string]Result{}, []string{NameMath}))
}

func TestNewResultGuards(t *testing.T) {
	t.Parallel()

	empty := newResult(NameMath, 0, 7, 0)
	assert.Zero(t, empty.Operations)
	assert.Zero(t, empty.Throughput)
	assert.Equal(t, uint64(7), empty.Checksum)

	degenerate := newResult(NameMath, 1000, 0, 0)
	assert.Greater(t, degenerate.Throughput, 0.0)
	assert.False(t, math.IsInf(degenerate.Throughput, 1))
}

func TestMemoryWorkingSetShrinksOnSmallMachines(t *testing.T) {
	t.Parallel()

	// 64 GiB machine keeps the default working set.
	assert.Equal(t, memoryDefaultWords, memoryWorkingSetWords(64<<30))
	// 512 MiB machine shrinks below the default but not past the floor.
	small := memoryWorkingSetWords(512 << 20)
	assert.Less(t, small, memoryDefaultWords)
	assert.GreaterOrEqual(t, small, memoryMinimumWords)
	// Unknown memory keeps the default.
	assert.Equal(t, memoryDefaultWords, memoryWorkingSetWords(0))
}

func TestCacheTierSizes(t *testing.T) {
	t.Parallel()

	l1, l2, large := cacheTierSizes(48<<10, 1<<20, 16<<20)
	assert.Equal(t, 48<<10, l1)
	assert.Equal(t, 1<<20, l2)
	assert.Equal(t, 32<<20, large)

	// Undetected caches fall back to defaults; large is twice L3.
	l1, l2, large = cacheTierSizes(0, 0, 0)
	assert.Equal(t, cacheFallbackL1, l1)
	assert.Equal(t, cacheFallbackL2, l2)
	assert.Equal(t, 2*cacheFallbackL3, large)

	// Huge L3 parts hit the allocation cap.
	_, _, large = cacheTierSizes(0, 0, 96<<20)
	assert.Equal(t, cacheLargeCap, large)
}

func TestRNGIsDeterministicPerSeed(t *testing.T) {
	t.Parallel()

	a := rng{state: 42}
	b := rng{state: 42}
	for i := 0; i < 100; i++ {
		assert.Equal(t, a.next(), b.next())
	}

	f := a.float(0.1, 10.0)
	assert.GreaterOrEqual(t, f, 0.1)
	assert.Less(t, f, 10.0)
}
