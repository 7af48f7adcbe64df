package flash

import (
	"errors"
	"fmt"

	"github.com/gajzzs/glvflash/internal/platform"
)

// ErrTimeout is returned once the scheduler has used up its attempts.
var ErrTimeout = errors.New("reached max retry count")

// EnumerationError means the OS could not be queried at all. It points at a
// missing platform feature, never at a disk that has not shown up yet.
type EnumerationError struct {
	Mode platform.Mode
	Err  error
}

func (e *EnumerationError) Error() string {
	return fmt.Sprintf("failed to enumerate %s disks: %v", e.Mode, e.Err)
}

func (e *EnumerationError) Unwrap() error { return e.Err }

// MountError covers scratch directory creation and the mount itself.
type MountError struct {
	Label  string
	Device string
	Path   string
	Err    error
}

func (e *MountError) Error() string {
	return fmt.Sprintf("%s: unable to mount %s on %s: %v", e.Label, e.Device, e.Path, e.Err)
}

func (e *MountError) Unwrap() error { return e.Err }

// CopyError is a failed firmware write. Nothing is retried or cleaned up.
type CopyError struct {
	Label string
	Dest  string
	Err   error
}

func (e *CopyError) Error() string {
	return fmt.Sprintf("%s: failed to copy firmware to %s: %v", e.Label, e.Dest, e.Err)
}

func (e *CopyError) Unwrap() error { return e.Err }
