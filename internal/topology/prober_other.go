//go:build !linux && !windows

package topology

import (
	"fmt"
	"runtime"

	"github.com/shirou/gopsutil/v3/cpu"
)

// NewProber returns a generic prober for platforms without a native
// topology query. It enumerates runtime.NumCPU logical processors,
// derives the physical grouping from the logical/physical core ratio,
// and reports a uniform efficiency class: heterogeneous classification
// is not available here, so every core lands in the performance tier.
func NewProber() Prober {
	return &genericProber{}
}

type genericProber struct{}

func (p *genericProber) Probe() ([]LogicalProcessor, error) {
	logical := runtime.NumCPU()
	if logical <= 0 {
		return nil, fmt.Errorf("runtime reported %d CPUs", logical)
	}

	threadsPerCore := 1
	if physical, err := cpu.Counts(false); err == nil && physical > 0 && logical >= physical {
		threadsPerCore = logical / physical
		if threadsPerCore < 1 {
			threadsPerCore = 1
		}
	}

	procs := make([]LogicalProcessor, 0, logical)
	for id := 0; id < logical; id++ {
		procs = append(procs, LogicalProcessor{
			OSID:            id,
			PhysicalID:      id / threadsPerCore,
			EfficiencyClass: 0,
		})
	}
	return procs, nil
}
