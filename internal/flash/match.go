package flash

import "github.com/gajzzs/glvflash/internal/platform"

// Match returns the first disk, in enumeration order, whose label is pending.
// Enumeration order is whatever the OS reports, so with two ready disks either
// one may come first.
func Match(disks []platform.Disk, pending []string) (platform.Disk, bool) {
	for _, disk := range disks {
		for _, label := range pending {
			if disk.Label == label {
				return disk, true
			}
		}
	}
	return platform.Disk{}, false
}
