package commands

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mohammadamin382/Benchmarks/internal/affinity"
	"github.com/mohammadamin382/Benchmarks/internal/config"
	"github.com/mohammadamin382/Benchmarks/internal/report"
	"github.com/mohammadamin382/Benchmarks/internal/topology"
	"github.com/mohammadamin382/Benchmarks/internal/workload"
)

func TestConfirm(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  bool
	}{
		{"y\n", true},
		{"Y\n", true},
		{"yes\n", true},
		{"n\n", false},
		{"\n", false},
		{"", false},
		{"whatever\n", false},
	}

	for _, tt := range tests {
		var out bytes.Buffer
		got := confirm(strings.NewReader(tt.input), &out)
		assert.Equal(t, tt.want, got, "input %q", tt.input)
		assert.Contains(t, out.String(), "[y/N]")
	}
}

func TestProgressBar(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	bar := progressBar(&out)

	bar(0, 4)
	bar(2, 4)
	bar(4, 4)

	s := out.String()
	assert.Contains(t, s, "0/4 cores")
	assert.Contains(t, s, "2/4 cores")
	assert.Contains(t, s, "4/4 cores")
	// The finished bar ends the line instead of rewriting it.
	assert.True(t, strings.HasSuffix(s, "\n"))
}

func TestElapsedBar(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	total := 300 * time.Millisecond
	stop := elapsedBar(&out, total)
	time.Sleep(250 * time.Millisecond)
	stop()

	s := out.String()
	// Intermediate redraws happened before stop.
	assert.Greater(t, strings.Count(s, "\r"), 1)
	assert.Contains(t, s, "/"+total.String())
	// The finished bar is full width and ends the line.
	assert.Contains(t, s, "["+strings.Repeat("=", 40)+"]")
	assert.True(t, strings.HasSuffix(s, "\n"))
}

func TestRenderTopology(t *testing.T) {
	t.Parallel()

	descs := []*topology.CoreDescriptor{
		{ID: 0, Kind: topology.KindPerformance, Selector: affinity.SelectorFor(0)},
		{ID: 1, EfficiencyClass: 1, Kind: topology.KindEfficiency, Selector: affinity.SelectorFor(1)},
	}

	var out bytes.Buffer
	renderTopology(&out, descs)

	s := out.String()
	assert.Contains(t, s, "P-Core")
	assert.Contains(t, s, "E-Core")
	assert.Contains(t, s, "2 cores: 1 P-Core, 1 E-Core")
}

func TestRenderReport(t *testing.T) {
	t.Parallel()

	descs := []*topology.CoreDescriptor{
		{
			ID: 0, Kind: topology.KindPerformance, Selector: affinity.SelectorFor(0),
			Results:        map[string]workload.Result{workload.NameMath: {Workload: workload.NameMath, Throughput: 200}},
			CompositeScore: 200,
		},
		{
			ID: 1, Kind: topology.KindEfficiency, Selector: affinity.SelectorFor(1),
			Results:        map[string]workload.Result{workload.NameMath: {Workload: workload.NameMath, Throughput: 100}},
			CompositeScore: 100,
		},
		{
			ID: 2, Kind: topology.KindPerformance, Selector: affinity.SelectorFor(2),
			Unavailable: true,
		},
	}
	rep := report.Aggregate(descs)
	require.True(t, rep.KindRatioValid)

	cfg := config.Default()
	var out bytes.Buffer
	renderReport(&out, cfg, rep)

	s := out.String()
	assert.Contains(t, s, "Results (ranked by composite score)")
	assert.Contains(t, s, "unavailable")
	assert.Contains(t, s, "2.00x faster")
	assert.Contains(t, s, "Total system score")
}
