//go:build !linux && !darwin && !windows
// +build !linux,!darwin,!windows

package platform

import (
	"fmt"

	"github.com/shirou/gopsutil/v3/disk"
)

var capabilities = Capabilities{DeviceMount: false}

type genericDiskEnumerator struct{}

func newDiskEnumerator() DiskEnumerator {
	return &genericDiskEnumerator{}
}

func (e *genericDiskEnumerator) Enumerate(mode Mode) ([]Disk, error) {
	if mode != ModeMounted {
		return nil, fmt.Errorf("enumeration mode %s is not supported on this platform", mode)
	}

	partitions, err := disk.Partitions(false)
	if err != nil {
		return nil, fmt.Errorf("failed to list mounted volumes: %w", err)
	}

	return mountedDisks(partitions, func(p disk.PartitionStat) string {
		return volumeLabel(p.Mountpoint)
	}), nil
}
