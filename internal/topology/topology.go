// Package topology enumerates the logical processors of the machine and
// classifies each one as a performance or an efficiency core. Discovery
// is attempted exactly once per run; there is no partial fallback.
package topology

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/mohammadamin382/Benchmarks/internal/affinity"
	"github.com/mohammadamin382/Benchmarks/internal/workload"
)

// ErrQueryFailed marks fatal discovery failures: the platform query
// could not be satisfied or produced no processors.
var ErrQueryFailed = errors.New("topology query failed")

// DiscoveryError wraps a failed discovery with the operation that broke.
type DiscoveryError struct {
	Op  string
	Err error
}

func (e *DiscoveryError) Error() string {
	return fmt.Sprintf("topology discovery: %s: %v", e.Op, e.Err)
}

func (e *DiscoveryError) Unwrap() error { return e.Err }

// CoreKind is the two-valued classification of a logical processor.
type CoreKind int

const (
	KindPerformance CoreKind = iota
	KindEfficiency
)

func (k CoreKind) String() string {
	switch k {
	case KindPerformance:
		return "P-Core"
	case KindEfficiency:
		return "E-Core"
	default:
		return "unknown"
	}
}

// MarshalText serializes the kind by name, also covering JSON map keys.
func (k CoreKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// MarshalYAML serializes the kind by name.
func (k CoreKind) MarshalYAML() (interface{}, error) {
	return k.String(), nil
}

// ClassPolicy maps a platform efficiency class to a CoreKind. The
// mapping is explicit configuration because platforms disagree on the
// direction of the scale: in this model's convention class 0 is the
// highest-performance tier, and probers normalize into it, but the
// inverted policy is available for raw platform values that rank the
// other way.
type ClassPolicy string

const (
	// PolicyZeroPerformance treats class 0 as the performance tier and
	// any nonzero class as an efficiency tier. Default.
	PolicyZeroPerformance ClassPolicy = "zero-performance"
	// PolicyZeroEfficiency is the inverted reading: class 0 is the
	// efficiency tier and nonzero classes are performance tiers.
	PolicyZeroEfficiency ClassPolicy = "zero-efficiency"
)

// Valid reports whether the policy is one of the recognized values.
func (p ClassPolicy) Valid() bool {
	return p == PolicyZeroPerformance || p == PolicyZeroEfficiency
}

// Classify derives the core kind from the efficiency class alone. It is
// a pure function: measured scores never feed back into classification.
func (p ClassPolicy) Classify(efficiencyClass int) CoreKind {
	zeroIsPerformance := p != PolicyZeroEfficiency
	if (efficiencyClass == 0) == zeroIsPerformance {
		return KindPerformance
	}
	return KindEfficiency
}

// LogicalProcessor is the raw record a platform prober emits: the OS
// processor number, its physical-core grouping, and the efficiency
// class already normalized so that lower means faster.
type LogicalProcessor struct {
	OSID            int
	PhysicalID      int
	EfficiencyClass int
}

// Prober is the platform collaborator behind Discover.
type Prober interface {
	Probe() ([]LogicalProcessor, error)
}

// CoreDescriptor carries one logical processor through the whole run.
// Results is written only by the worker pinned to this core; the
// aggregator reads it after all workers have joined.
type CoreDescriptor struct {
	ID              int
	PhysicalGroup   int
	EfficiencyClass int
	Kind            CoreKind
	Selector        affinity.Selector

	Results        map[string]workload.Result
	CompositeScore float64

	// Unavailable is set when the affinity bind for this core failed;
	// the composite score is meaningless in that case.
	Unavailable bool
}

// Discover enumerates every logical processor exactly once and returns
// one descriptor per processor, IDs contiguous from 0 in probe order.
// Any failure, including an empty topology, is a *DiscoveryError
// wrapping ErrQueryFailed and is fatal to the run.
func Discover(prober Prober, policy ClassPolicy, logger *zap.Logger) ([]*CoreDescriptor, error) {
	if !policy.Valid() {
		return nil, &DiscoveryError{Op: "classify", Err: fmt.Errorf("unknown class policy %q", policy)}
	}

	procs, err := prober.Probe()
	if err != nil {
		return nil, &DiscoveryError{Op: "probe", Err: fmt.Errorf("%w: %v", ErrQueryFailed, err)}
	}
	if len(procs) == 0 {
		return nil, &DiscoveryError{Op: "probe", Err: fmt.Errorf("%w: no logical processors reported", ErrQueryFailed)}
	}

	seen := make(map[int]struct{}, len(procs))
	descs := make([]*CoreDescriptor, 0, len(procs))
	for i, p := range procs {
		if _, dup := seen[p.OSID]; dup {
			return nil, &DiscoveryError{Op: "probe", Err: fmt.Errorf("%w: duplicate logical processor %d", ErrQueryFailed, p.OSID)}
		}
		seen[p.OSID] = struct{}{}

		descs = append(descs, &CoreDescriptor{
			ID:              i,
			PhysicalGroup:   p.PhysicalID,
			EfficiencyClass: p.EfficiencyClass,
			Kind:            policy.Classify(p.EfficiencyClass),
			Selector:        affinity.SelectorFor(p.OSID),
			Results:         make(map[string]workload.Result),
		})
	}

	logger.Info("CPU topology discovered",
		zap.Int("logical_processors", len(descs)),
		zap.Int("performance_cores", CountKind(descs, KindPerformance)),
		zap.Int("efficiency_cores", CountKind(descs, KindEfficiency)),
		zap.String("class_policy", string(policy)))

	return descs, nil
}

// CountKind returns how many descriptors are of the given kind.
func CountKind(descs []*CoreDescriptor, kind CoreKind) int {
	n := 0
	for _, d := range descs {
		if d.Kind == kind {
			n++
		}
	}
	return n
}
