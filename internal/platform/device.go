package platform

import "fmt"

// ByLabelDir is populated by udev with one symlink per labeled block device.
const ByLabelDir = "/dev/disk/by-label"

// TargetKind tells whether a Target still needs mounting.
type TargetKind int

const (
	// TargetMountpoint is a filesystem path that is already attached and writable.
	TargetMountpoint TargetKind = iota
	// TargetDevice is a raw block device that must be mounted before writing.
	TargetDevice
)

func (k TargetKind) String() string {
	switch k {
	case TargetMountpoint:
		return "mountpoint"
	case TargetDevice:
		return "device"
	default:
		return fmt.Sprintf("TargetKind(%d)", int(k))
	}
}

// Target describes where firmware goes once a disk is matched.
type Target struct {
	Kind TargetKind
	Path string
}

// Mountpoint returns a Target for an attached volume.
func Mountpoint(path string) Target {
	return Target{Kind: TargetMountpoint, Path: path}
}

// Device returns a Target for an unattached block device.
func Device(path string) Target {
	return Target{Kind: TargetDevice, Path: path}
}

// Disk is a snapshot of one visible storage entity. It is re-derived on every
// enumeration and has no identity beyond its label.
type Disk struct {
	Target Target
	Label  string
}

// Mode selects what the enumerator reports.
type Mode int

const (
	// ModeMounted reports volumes the OS has already attached to a path.
	ModeMounted Mode = iota
	// ModeDevice reports raw block devices by label, mounted or not.
	ModeDevice
)

func (m Mode) String() string {
	switch m {
	case ModeMounted:
		return "mounted"
	case ModeDevice:
		return "device"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// Capabilities are resolved once at startup. Without DeviceMount the device
// mode is never used, so TargetDevice values are never produced.
type Capabilities struct {
	DeviceMount bool
}

// Detect returns the capabilities of the running platform.
func Detect() Capabilities {
	return capabilities
}

// DiskEnumerator provides a synchronous snapshot of visible storage.
type DiskEnumerator interface {
	Enumerate(mode Mode) ([]Disk, error)
}

// NewDiskEnumerator creates a platform-specific enumerator
func NewDiskEnumerator() DiskEnumerator {
	return newDiskEnumerator()
}

// Mounter attaches raw devices to directories.
type Mounter interface {
	Mount(device, target, fsType string) error
	Unmount(target string) error
}

// NewMounter creates a platform-specific mounter
func NewMounter() Mounter {
	return newMounter()
}
