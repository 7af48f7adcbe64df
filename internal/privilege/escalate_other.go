//go:build !linux
// +build !linux

package privilege

// EscalateIfNeeded is a no-op: raw device mounting is linux only.
func EscalateIfNeeded(args []string) error {
	return nil
}
