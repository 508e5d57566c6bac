// Package report turns the per-core measurements left behind by a run
// into ranked, aggregated results. Aggregation is pure: the same
// descriptor set always yields the same report, and descriptors are
// never mutated.
package report

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/mohammadamin382/Benchmarks/internal/sysinfo"
	"github.com/mohammadamin382/Benchmarks/internal/topology"
	"github.com/mohammadamin382/Benchmarks/internal/workload"
)

// CoreResult is one core's row in the ranked listing.
type CoreResult struct {
	ID             int                        `json:"id" yaml:"id"`
	PhysicalGroup  int                        `json:"physical_group" yaml:"physical_group"`
	Kind           topology.CoreKind          `json:"kind" yaml:"kind"`
	Results        map[string]workload.Result `json:"results,omitempty" yaml:"results,omitempty"`
	CompositeScore float64                    `json:"composite_score" yaml:"composite_score"`
	Unavailable    bool                       `json:"unavailable,omitempty" yaml:"unavailable,omitempty"`
}

// KindStats aggregates composite scores over one core kind.
type KindStats struct {
	Count   int     `json:"count" yaml:"count"`
	Average float64 `json:"average" yaml:"average"`
	Max     float64 `json:"max" yaml:"max"`
	Min     float64 `json:"min" yaml:"min"`
	// VariancePct is the max-to-min spread relative to the average,
	// in percent.
	VariancePct float64 `json:"variance_pct" yaml:"variance_pct"`
}

// Report is the aggregated outcome of one run.
type Report struct {
	// PerCore is sorted by composite score descending, core ID
	// ascending on ties. Unavailable cores sort last.
	PerCore []CoreResult `json:"per_core" yaml:"per_core"`
	// PerKind holds stats for each kind that measured at least one
	// core. Kinds with no measured cores are absent.
	PerKind map[topology.CoreKind]KindStats `json:"per_kind" yaml:"per_kind"`
	// KindRatio is the P-Core average over the E-Core average, valid
	// only when KindRatioValid is set.
	KindRatio      float64 `json:"kind_ratio,omitempty" yaml:"kind_ratio,omitempty"`
	KindRatioValid bool    `json:"kind_ratio_valid" yaml:"kind_ratio_valid"`
	// TotalScore is the sum of composite scores over measured cores.
	TotalScore float64 `json:"total_score" yaml:"total_score"`
}

// Aggregate builds a report from a run's descriptors. Unavailable cores
// appear in the per-core listing but contribute to no statistic.
func Aggregate(descs []*topology.CoreDescriptor) Report {
	rep := Report{
		PerKind: make(map[topology.CoreKind]KindStats),
	}

	scoresByKind := make(map[topology.CoreKind][]float64)
	for _, desc := range descs {
		rep.PerCore = append(rep.PerCore, CoreResult{
			ID:             desc.ID,
			PhysicalGroup:  desc.PhysicalGroup,
			Kind:           desc.Kind,
			Results:        desc.Results,
			CompositeScore: desc.CompositeScore,
			Unavailable:    desc.Unavailable,
		})
		if desc.Unavailable {
			continue
		}
		scoresByKind[desc.Kind] = append(scoresByKind[desc.Kind], desc.CompositeScore)
		rep.TotalScore += desc.CompositeScore
	}

	sort.SliceStable(rep.PerCore, func(i, j int) bool {
		a, b := rep.PerCore[i], rep.PerCore[j]
		if a.Unavailable != b.Unavailable {
			return !a.Unavailable
		}
		if a.CompositeScore != b.CompositeScore {
			return a.CompositeScore > b.CompositeScore
		}
		return a.ID < b.ID
	})

	for kind, scores := range scoresByKind {
		rep.PerKind[kind] = kindStats(scores)
	}

	perf, hasPerf := rep.PerKind[topology.KindPerformance]
	eff, hasEff := rep.PerKind[topology.KindEfficiency]
	if hasPerf && hasEff && perf.Average > 0 && eff.Average > 0 {
		rep.KindRatio = perf.Average / eff.Average
		rep.KindRatioValid = true
	}
	return rep
}

func kindStats(scores []float64) KindStats {
	s := KindStats{
		Count:   len(scores),
		Average: stat.Mean(scores, nil),
		Max:     floats.Max(scores),
		Min:     floats.Min(scores),
	}
	if s.Average > 0 {
		s.VariancePct = (s.Max - s.Min) / s.Average * 100
	}
	return s
}

// RunSummary wraps a report with run identity and host context. It is
// the serialized artifact of one invocation.
type RunSummary struct {
	RunID      string        `json:"run_id" yaml:"run_id"`
	Mode       string        `json:"mode" yaml:"mode"`
	StartedAt  time.Time     `json:"started_at" yaml:"started_at"`
	FinishedAt time.Time     `json:"finished_at" yaml:"finished_at"`
	System     *sysinfo.Info `json:"system,omitempty" yaml:"system,omitempty"`
	Report     Report        `json:"report" yaml:"report"`
}

// NewRunSummary stamps a report with a fresh run ID and the given
// timing and host context.
func NewRunSummary(mode string, startedAt, finishedAt time.Time, system *sysinfo.Info, rep Report) RunSummary {
	return RunSummary{
		RunID:      uuid.NewString(),
		Mode:       mode,
		StartedAt:  startedAt,
		FinishedAt: finishedAt,
		System:     system,
		Report:     rep,
	}
}
