//go:build linux
// +build linux

package privilege

import (
	"fmt"
	"os"
	"os/exec"

	"golang.org/x/sys/unix"
)

// EscalateIfNeeded re-executes the current binary through sudo with args
// unless it already runs as root. On success it does not return.
//
// sudo usually resets HOME and may drop the environment, so args must carry
// every setting the privileged process needs.
func EscalateIfNeeded(args []string) error {
	if unix.Geteuid() == 0 {
		return nil
	}

	sudo, err := exec.LookPath("sudo")
	if err != nil {
		return fmt.Errorf("mounting requires root and sudo was not found: %w", err)
	}
	self, err := os.Executable()
	if err != nil {
		return fmt.Errorf("failed to get executable path: %w", err)
	}

	if err := unix.Exec(sudo, sudoArgs(self, args), os.Environ()); err != nil {
		return fmt.Errorf("failed to re-exec through sudo: %w", err)
	}
	return nil
}
