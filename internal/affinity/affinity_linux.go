//go:build linux

package affinity

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// pinCurrentThread pins the calling thread to exactly one logical CPU
// via sched_setaffinity(2) with a single-CPU set. Pid 0 targets the
// calling thread, which is why callers must hold the OS thread.
func pinCurrentThread(sel Selector) error {
	var set unix.CPUSet
	set.Zero()
	set.Set(sel.CPU)
	if err := unix.SchedSetaffinity(0, &set); err != nil {
		return fmt.Errorf("sched_setaffinity(cpu %d): %w", sel.CPU, err)
	}
	return nil
}

// elevateCurrentThread raises the calling thread's nice value. On Linux
// setpriority with PRIO_PROCESS and pid 0 applies to the calling thread.
// Usually refused without CAP_SYS_NICE; callers ignore the error.
func elevateCurrentThread() error {
	if err := unix.Setpriority(unix.PRIO_PROCESS, 0, -10); err != nil {
		return fmt.Errorf("setpriority: %w", err)
	}
	return nil
}
