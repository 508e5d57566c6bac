//go:build windows

package affinity

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"
)

const threadPriorityHighest = 2

var (
	kernel32                   = windows.NewLazySystemDLL("kernel32.dll")
	procSetThreadGroupAffinity = kernel32.NewProc("SetThreadGroupAffinity")
	procSetThreadPriority      = kernel32.NewProc("SetThreadPriority")
)

// groupAffinity mirrors the GROUP_AFFINITY layout SetThreadGroupAffinity
// expects: KAFFINITY mask, group number, padding.
type groupAffinity struct {
	Mask     uintptr
	Group    uint16
	Reserved [3]uint16
}

// pinCurrentThread applies the selector's single-bit mask within its
// processor group. SetThreadGroupAffinity moves the thread into the
// target group when needed, so CPUs past the first 64 are addressed
// directly instead of wrapping into group 0.
func pinCurrentThread(sel Selector) error {
	ga := groupAffinity{
		Mask:  uintptr(sel.Mask),
		Group: uint16(sel.Group),
	}
	h := windows.CurrentThread()
	ok, _, err := procSetThreadGroupAffinity.Call(
		uintptr(h),
		uintptr(unsafe.Pointer(&ga)),
		0,
	)
	if ok == 0 {
		return fmt.Errorf("SetThreadGroupAffinity(cpu %d, group %d, mask %#x): %w",
			sel.CPU, sel.Group, sel.Mask, err)
	}
	return nil
}

func elevateCurrentThread() error {
	h := windows.CurrentThread()
	ok, _, err := procSetThreadPriority.Call(uintptr(h), uintptr(threadPriorityHighest))
	if ok == 0 {
		return fmt.Errorf("SetThreadPriority: %w", err)
	}
	return nil
}
