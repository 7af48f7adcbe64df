//go:build darwin
// +build darwin

package platform

import (
	"fmt"
	"os/exec"

	"github.com/shirou/gopsutil/v3/disk"
	"howett.net/plist"
)

var capabilities = Capabilities{DeviceMount: false}

type macDiskEnumerator struct {
	partitions func(all bool) ([]disk.PartitionStat, error)
	volumeName func(device string) (string, error)
}

func newDiskEnumerator() DiskEnumerator {
	return &macDiskEnumerator{
		partitions: disk.Partitions,
		volumeName: diskutilVolumeName,
	}
}

type diskutilInfo struct {
	DeviceIdentifier string `plist:"DeviceIdentifier"`
	VolumeName       string `plist:"VolumeName"`
	MountPoint       string `plist:"MountPoint"`
}

func (e *macDiskEnumerator) Enumerate(mode Mode) ([]Disk, error) {
	if mode != ModeMounted {
		return nil, fmt.Errorf("enumeration mode %s is not supported on darwin", mode)
	}

	partitions, err := e.partitions(false)
	if err != nil {
		return nil, fmt.Errorf("failed to list mounted volumes: %w", err)
	}

	return mountedDisks(partitions, func(p disk.PartitionStat) string {
		// Prefer VolumeName, fall back to the mount directory
		label, err := e.volumeName(p.Device)
		if err != nil || label == "" {
			label = volumeLabel(p.Mountpoint)
		}
		return label
	}), nil
}

func diskutilVolumeName(device string) (string, error) {
	output, err := exec.Command("diskutil", "info", "-plist", device).Output()
	if err != nil {
		return "", err
	}

	var info diskutilInfo
	if _, err := plist.Unmarshal(output, &info); err != nil {
		return "", err
	}
	return info.VolumeName, nil
}
