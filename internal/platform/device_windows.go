//go:build windows
// +build windows

package platform

import (
	"fmt"

	"github.com/shirou/gopsutil/v3/disk"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sys/windows"
)

var capabilities = Capabilities{DeviceMount: false}

// windowsDiskEnumerator names volumes by their filesystem label. Drive
// letters carry no label of their own, so there is no mountpoint fallback.
type windowsDiskEnumerator struct {
	partitions func(all bool) ([]disk.PartitionStat, error)
	volumeName func(mountpoint string) (string, error)
}

func newDiskEnumerator() DiskEnumerator {
	return &windowsDiskEnumerator{
		partitions: disk.Partitions,
		volumeName: volumeInformation,
	}
}

func (e *windowsDiskEnumerator) Enumerate(mode Mode) ([]Disk, error) {
	if mode != ModeMounted {
		return nil, fmt.Errorf("enumeration mode %s is not supported on windows", mode)
	}

	partitions, err := e.partitions(false)
	if err != nil {
		return nil, fmt.Errorf("failed to list mounted volumes: %w", err)
	}

	return mountedDisks(partitions, func(p disk.PartitionStat) string {
		name, err := e.volumeName(p.Mountpoint)
		if err != nil {
			// Empty card readers and optical drives fail here.
			log.WithError(err).WithField("mountpoint", p.Mountpoint).Debug("Skipping volume without label")
			return ""
		}
		return name
	}), nil
}

func volumeInformation(mountpoint string) (string, error) {
	root, err := windows.UTF16PtrFromString(driveRoot(mountpoint))
	if err != nil {
		return "", err
	}

	name := make([]uint16, windows.MAX_PATH+1)
	if err := windows.GetVolumeInformation(root, &name[0], uint32(len(name)), nil, nil, nil, nil, 0); err != nil {
		return "", fmt.Errorf("GetVolumeInformation %s: %w", mountpoint, err)
	}
	return windows.UTF16ToString(name), nil
}
