//go:build linux
// +build linux

package platform

import (
	"fmt"

	"github.com/shirou/gopsutil/v3/disk"
)

var capabilities = Capabilities{DeviceMount: true}

type linuxDiskEnumerator struct {
	byLabelDir string
	partitions func(all bool) ([]disk.PartitionStat, error)
}

func newDiskEnumerator() DiskEnumerator {
	return &linuxDiskEnumerator{
		byLabelDir: ByLabelDir,
		partitions: disk.Partitions,
	}
}

func (e *linuxDiskEnumerator) Enumerate(mode Mode) ([]Disk, error) {
	switch mode {
	case ModeDevice:
		return ListByLabel(e.byLabelDir)
	case ModeMounted:
		return e.listMounted()
	default:
		return nil, fmt.Errorf("unsupported enumeration mode %s", mode)
	}
}

func (e *linuxDiskEnumerator) listMounted() ([]Disk, error) {
	// Physical filesystems only; /proc/mounts is re-read on every call.
	partitions, err := e.partitions(false)
	if err != nil {
		return nil, fmt.Errorf("failed to list mounted volumes: %w", err)
	}

	index, err := labelIndex(e.byLabelDir)
	if err != nil {
		return nil, err
	}

	var disks []Disk
	for _, partition := range partitions {
		if partition.Mountpoint == "" {
			continue
		}
		label := lookupLabel(index, partition.Device)
		if label == "" {
			label = volumeLabel(partition.Mountpoint)
		}
		if label == "" {
			continue
		}
		disks = append(disks, Disk{
			Label:  label,
			Target: Mountpoint(partition.Mountpoint),
		})
	}
	return disks, nil
}
