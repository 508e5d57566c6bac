//go:build !linux && !windows

package affinity

// Exclusive thread pinning has no portable API on the remaining
// platforms (macOS offers only advisory affinity tags). Binding fails
// per core and the scheduler records those cores as unavailable.

func pinCurrentThread(sel Selector) error {
	return ErrUnsupported
}

func elevateCurrentThread() error {
	return ErrUnsupported
}
