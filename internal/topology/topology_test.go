package topology

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeProber returns a canned processor list or a canned error.
type fakeProber struct {
	procs []LogicalProcessor
	err   error
}

func (p *fakeProber) Probe() ([]LogicalProcessor, error) {
	return p.procs, p.err
}

func hybridProcs() []LogicalProcessor {
	return []LogicalProcessor{
		{OSID: 0, PhysicalID: 0, EfficiencyClass: 0},
		{OSID: 1, PhysicalID: 0, EfficiencyClass: 0},
		{OSID: 2, PhysicalID: 1, EfficiencyClass: 1},
		{OSID: 3, PhysicalID: 1, EfficiencyClass: 1},
	}
}

func TestDiscoverClassifiesHybridTopology(t *testing.T) {
	t.Parallel()

	descs, err := Discover(&fakeProber{procs: hybridProcs()}, PolicyZeroPerformance, zap.NewNop())
	require.NoError(t, err)
	require.Len(t, descs, 4)

	wantKinds := []CoreKind{KindPerformance, KindPerformance, KindEfficiency, KindEfficiency}
	for i, desc := range descs {
		assert.Equal(t, i, desc.ID)
		assert.Equal(t, wantKinds[i], desc.Kind, "core %d", i)
		assert.NotNil(t, desc.Results)
		assert.False(t, desc.Unavailable)
	}

	assert.Equal(t, 2, CountKind(descs, KindPerformance))
	assert.Equal(t, 2, CountKind(descs, KindEfficiency))
}

func TestDiscoverInvertedPolicy(t *testing.T) {
	t.Parallel()

	descs, err := Discover(&fakeProber{procs: hybridProcs()}, PolicyZeroEfficiency, zap.NewNop())
	require.NoError(t, err)

	assert.Equal(t, KindEfficiency, descs[0].Kind)
	assert.Equal(t, KindPerformance, descs[2].Kind)
}

func TestDiscoverAssignsDisjointSelectors(t *testing.T) {
	t.Parallel()

	// Spans a processor-group boundary: OSIDs 64 and 65 share mask bits
	// with OSIDs 0 and 1 but live in group 1.
	procs := hybridProcs()
	procs = append(procs,
		LogicalProcessor{OSID: 64, PhysicalID: 32, EfficiencyClass: 1},
		LogicalProcessor{OSID: 65, PhysicalID: 32, EfficiencyClass: 1},
	)

	descs, err := Discover(&fakeProber{procs: procs}, PolicyZeroPerformance, zap.NewNop())
	require.NoError(t, err)
	require.Len(t, descs, len(procs))

	type key struct {
		group int
		mask  uint64
	}
	seen := make(map[key]int)
	for _, desc := range descs {
		k := key{group: desc.Selector.Group, mask: desc.Selector.Mask}
		if prev, dup := seen[k]; dup {
			t.Fatalf("selector %d:%#x shared by cores %d and %d", k.group, k.mask, prev, desc.ID)
		}
		seen[k] = desc.ID
	}
}

func TestDiscoverFailures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		prober Prober
		policy ClassPolicy
	}{
		{"probe error", &fakeProber{err: errors.New("acpi says no")}, PolicyZeroPerformance},
		{"empty topology", &fakeProber{}, PolicyZeroPerformance},
		{
			"duplicate processor",
			&fakeProber{procs: []LogicalProcessor{{OSID: 0}, {OSID: 0}}},
			PolicyZeroPerformance,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			descs, err := Discover(tt.prober, tt.policy, zap.NewNop())
			assert.Nil(t, descs)
			require.Error(t, err)

			var derr *DiscoveryError
			require.ErrorAs(t, err, &derr)
			assert.ErrorIs(t, err, ErrQueryFailed)
		})
	}
}

func TestDiscoverRejectsUnknownPolicy(t *testing.T) {
	t.Parallel()

	descs, err := Discover(&fakeProber{procs: hybridProcs()}, "alphabetical", zap.NewNop())
	assert.Nil(t, descs)

	var derr *DiscoveryError
	require.ErrorAs(t, err, &derr)
	assert.NotErrorIs(t, err, ErrQueryFailed)
}

func TestClassifyIsPure(t *testing.T) {
	t.Parallel()

	assert.Equal(t, KindPerformance, PolicyZeroPerformance.Classify(0))
	assert.Equal(t, KindEfficiency, PolicyZeroPerformance.Classify(1))
	assert.Equal(t, KindEfficiency, PolicyZeroPerformance.Classify(3))

	assert.Equal(t, KindEfficiency, PolicyZeroEfficiency.Classify(0))
	assert.Equal(t, KindPerformance, PolicyZeroEfficiency.Classify(2))
}

func TestCoreKindString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "P-Core", KindPerformance.String())
	assert.Equal(t, "E-Core", KindEfficiency.String())
	assert.Equal(t, "unknown", CoreKind(9).String())
}

func TestParseCPUList(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		list    string
		want    []int
		wantErr bool
	}{
		{name: "empty", list: "", want: nil},
		{name: "single", list: "4", want: []int{4}},
		{name: "range", list: "0-3", want: []int{0, 1, 2, 3}},
		{name: "mixed", list: "0-1,8,10-11", want: []int{0, 1, 8, 10, 11}},
		{name: "trailing newline", list: "2-3\n", want: []int{2, 3}},
		{name: "reversed range", list: "3-1", wantErr: true},
		{name: "garbage", list: "a-b", wantErr: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := parseCPUList(tt.list)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Len(t, got, len(tt.want))
			for _, cpu := range tt.want {
				assert.Contains(t, got, cpu)
			}
		})
	}
}
