//go:build !linux
// +build !linux

package platform

import "errors"

var errMountUnsupported = errors.New("mounting raw devices is not supported on this platform")

type unsupportedMounter struct{}

func newMounter() Mounter {
	return unsupportedMounter{}
}

func (unsupportedMounter) Mount(device, target, fsType string) error {
	return errMountUnsupported
}

func (unsupportedMounter) Unmount(target string) error {
	return errMountUnsupported
}
