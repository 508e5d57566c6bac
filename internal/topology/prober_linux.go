//go:build linux

package topology

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

const sysCPURoot = "/sys/devices/system/cpu"

var cpuDirPattern = regexp.MustCompile(`^cpu([0-9]+)$`)

// NewProber returns the sysfs-backed prober for Linux.
func NewProber() Prober {
	return &sysfsProber{root: sysCPURoot}
}

// sysfsProber reads the kernel's CPU topology tree. Efficiency classes
// come from, in order of preference: the hybrid core-type CPU lists
// that Intel exposes under /sys/devices/cpu_core and /sys/devices/
// cpu_atom, the per-CPU cpu_capacity ranking on ARM big.LITTLE, or a
// uniform class 0 when the machine is homogeneous.
type sysfsProber struct {
	root string
}

func (p *sysfsProber) Probe() ([]LogicalProcessor, error) {
	entries, err := os.ReadDir(p.root)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", p.root, err)
	}

	var ids []int
	for _, e := range entries {
		m := cpuDirPattern.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		id, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("no cpu directories under %s", p.root)
	}
	sort.Ints(ids)

	classes := p.efficiencyClasses(ids)

	procs := make([]LogicalProcessor, 0, len(ids))
	for _, id := range ids {
		procs = append(procs, LogicalProcessor{
			OSID:            id,
			PhysicalID:      p.coreID(id),
			EfficiencyClass: classes[id],
		})
	}
	return procs, nil
}

// coreID reads the physical-core number for one logical CPU. SMT
// siblings share a core_id. When the file is missing the logical
// number stands in as its own group.
func (p *sysfsProber) coreID(cpu int) int {
	raw, err := os.ReadFile(filepath.Join(p.root, fmt.Sprintf("cpu%d", cpu), "topology", "core_id"))
	if err != nil {
		return cpu
	}
	id, err := strconv.Atoi(strings.TrimSpace(string(raw)))
	if err != nil {
		return cpu
	}
	return id
}

func (p *sysfsProber) efficiencyClasses(ids []int) map[int]int {
	if classes := p.hybridClasses(ids); classes != nil {
		return classes
	}
	if classes := p.capacityClasses(ids); classes != nil {
		return classes
	}
	classes := make(map[int]int, len(ids))
	for _, id := range ids {
		classes[id] = 0
	}
	return classes
}

// hybridClasses maps Intel hybrid core types: members of the cpu_atom
// list are class 1, everything else class 0.
func (p *sysfsProber) hybridClasses(ids []int) map[int]int {
	atomRaw, err := os.ReadFile("/sys/devices/cpu_atom/cpus")
	if err != nil {
		return nil
	}
	atoms, err := parseCPUList(string(atomRaw))
	if err != nil || len(atoms) == 0 {
		return nil
	}

	classes := make(map[int]int, len(ids))
	for _, id := range ids {
		if _, efficient := atoms[id]; efficient {
			classes[id] = 1
		} else {
			classes[id] = 0
		}
	}
	return classes
}

// capacityClasses ranks distinct cpu_capacity values descending, so the
// highest-capacity tier becomes class 0. Returns nil unless capacities
// exist and actually differ.
func (p *sysfsProber) capacityClasses(ids []int) map[int]int {
	capacities := make(map[int]int, len(ids))
	distinct := make(map[int]struct{})
	for _, id := range ids {
		raw, err := os.ReadFile(filepath.Join(p.root, fmt.Sprintf("cpu%d", id), "cpu_capacity"))
		if err != nil {
			return nil
		}
		capacity, err := strconv.Atoi(strings.TrimSpace(string(raw)))
		if err != nil {
			return nil
		}
		capacities[id] = capacity
		distinct[capacity] = struct{}{}
	}
	if len(distinct) < 2 {
		return nil
	}

	tiers := make([]int, 0, len(distinct))
	for c := range distinct {
		tiers = append(tiers, c)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(tiers)))

	rank := make(map[int]int, len(tiers))
	for i, c := range tiers {
		rank[c] = i
	}

	classes := make(map[int]int, len(ids))
	for _, id := range ids {
		classes[id] = rank[capacities[id]]
	}
	return classes
}
