package topology

import (
	"fmt"
	"strconv"
	"strings"
)

// parseCPUList expands a kernel CPU list such as "0-3,8,10-11" into the
// set of processor numbers it names. This is the format sysfs uses for
// hybrid core type masks and the online CPU list.
func parseCPUList(list string) (map[int]struct{}, error) {
	cpus := make(map[int]struct{})
	list = strings.TrimSpace(list)
	if list == "" {
		return cpus, nil
	}

	for _, part := range strings.Split(list, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if lo, hi, ok := strings.Cut(part, "-"); ok {
			start, err := strconv.Atoi(lo)
			if err != nil {
				return nil, fmt.Errorf("bad CPU range %q: %w", part, err)
			}
			end, err := strconv.Atoi(hi)
			if err != nil {
				return nil, fmt.Errorf("bad CPU range %q: %w", part, err)
			}
			if end < start {
				return nil, fmt.Errorf("bad CPU range %q: end before start", part)
			}
			for cpu := start; cpu <= end; cpu++ {
				cpus[cpu] = struct{}{}
			}
			continue
		}
		cpu, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("bad CPU number %q: %w", part, err)
		}
		cpus[cpu] = struct{}{}
	}
	return cpus, nil
}
