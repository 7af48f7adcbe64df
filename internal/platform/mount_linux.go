//go:build linux
// +build linux

package platform

import (
	"fmt"

	"golang.org/x/sys/unix"
)

type linuxMounter struct{}

func newMounter() Mounter {
	return &linuxMounter{}
}

func (m *linuxMounter) Mount(device, target, fsType string) error {
	if err := unix.Mount(device, target, fsType, 0, ""); err != nil {
		return fmt.Errorf("mount %s on %s (%s): %w", device, target, fsType, err)
	}
	return nil
}

// Unmount detaches lazily: the bootloader usually resets right after the
// image lands, so the device may already be gone.
func (m *linuxMounter) Unmount(target string) error {
	if err := unix.Unmount(target, unix.MNT_DETACH); err != nil {
		return fmt.Errorf("unmount %s: %w", target, err)
	}
	return nil
}
