// Package affinity binds the calling OS thread to a single logical
// processor and, best effort, raises its scheduling priority. Platform
// details live in the build-tagged files; everything else in the tree
// talks to the Pinner interface.
package affinity

import (
	"errors"
	"fmt"
)

// ErrUnsupported is returned on platforms without thread pinning support.
var ErrUnsupported = errors.New("thread affinity not supported on this platform")

// Selector identifies exactly one logical processor. CPU is the OS
// processor number; Group and Mask address it on platforms that take
// processor-group bitmasks, with up to 64 logical CPUs per group.
// Selectors built by SelectorFor are pairwise disjoint for distinct
// CPUs: the (Group, Mask) pair is unique even past CPU 63.
type Selector struct {
	CPU   int
	Group int
	Mask  uint64
}

// SelectorFor builds the exclusive selector for the given logical CPU.
func SelectorFor(cpu int) Selector {
	return Selector{
		CPU:   cpu,
		Group: cpu / 64,
		Mask:  1 << (uint(cpu) % 64),
	}
}

// String renders the selector the way topology tables print it, the
// group number prefixed whenever the CPU sits outside group 0.
func (s Selector) String() string {
	if s.Group == 0 {
		return fmt.Sprintf("0x%016x", s.Mask)
	}
	return fmt.Sprintf("%d:0x%016x", s.Group, s.Mask)
}

// Pinner is the platform collaborator for worker threads. Pin must be
// called from the goroutine that already holds its OS thread via
// runtime.LockOSThread.
type Pinner interface {
	// Pin restricts the calling thread to the selector's logical CPU.
	Pin(sel Selector) error
	// Elevate requests maximum scheduling priority for the calling
	// thread. Callers treat failure as advisory.
	Elevate() error
}

type threadPinner struct{}

// NewPinner returns the Pinner for the current platform.
func NewPinner() Pinner {
	return threadPinner{}
}

func (threadPinner) Pin(sel Selector) error {
	if sel.CPU < 0 {
		return fmt.Errorf("invalid CPU %d in selector", sel.CPU)
	}
	return pinCurrentThread(sel)
}

func (threadPinner) Elevate() error {
	return elevateCurrentThread()
}
