//go:build windows
// +build windows

package platform

import (
	"errors"
	"testing"

	"github.com/shirou/gopsutil/v3/disk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWindowsEnumerate_UsesVolumeLabel(t *testing.T) {
	e := &windowsDiskEnumerator{
		partitions: func(bool) ([]disk.PartitionStat, error) {
			return []disk.PartitionStat{
				{Device: "C:", Mountpoint: "C:"},
				{Device: "E:", Mountpoint: "E:"},
				{Device: "F:", Mountpoint: "F:"},
			}, nil
		},
		volumeName: func(mountpoint string) (string, error) {
			switch mountpoint {
			case "C:":
				return "", nil
			case "E:":
				return "GLV80RHBOOT", nil
			default:
				return "", errors.New("The device is not ready.")
			}
		},
	}

	disks, err := e.Enumerate(ModeMounted)
	require.NoError(t, err)
	assert.Equal(t, []Disk{{Label: "GLV80RHBOOT", Target: Mountpoint("E:")}}, disks)

	_, err = e.Enumerate(ModeDevice)
	assert.Error(t, err)
	assert.False(t, Detect().DeviceMount)
}
