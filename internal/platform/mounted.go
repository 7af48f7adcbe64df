package platform

import (
	"strings"

	"github.com/shirou/gopsutil/v3/disk"
)

// mountedDisks turns attached partitions into mountpoint Disks named by
// label. Partitions without a mountpoint or a label are dropped.
func mountedDisks(partitions []disk.PartitionStat, label func(disk.PartitionStat) string) []Disk {
	var disks []Disk
	for _, partition := range partitions {
		if partition.Mountpoint == "" {
			continue
		}
		name := label(partition)
		if name == "" {
			continue
		}
		disks = append(disks, Disk{
			Label:  name,
			Target: Mountpoint(partition.Mountpoint),
		})
	}
	return disks
}

// driveRoot turns a drive mountpoint such as "E:" into the root path the
// volume APIs expect ("E:\").
func driveRoot(mountpoint string) string {
	if strings.HasSuffix(mountpoint, `\`) {
		return mountpoint
	}
	return mountpoint + `\`
}
