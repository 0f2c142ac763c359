//go:build !darwin && !windows && !linux

package clip

// New returns a no-op backend; no clipboard is reachable on this platform.
func New() Backend {
	return newHeadless()
}
