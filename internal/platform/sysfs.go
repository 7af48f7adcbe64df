package platform

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// SysBlockDir is where the kernel exposes block device attributes.
const SysBlockDir = "/sys/block"

// BlockInfo is what sysfs knows about the disk behind a partition.
type BlockInfo struct {
	Name      string
	Model     string
	Removable bool
}

func (b BlockInfo) String() string {
	s := b.Name
	if b.Model != "" && b.Model != b.Name {
		s = fmt.Sprintf("%s, %s", b.Name, b.Model)
	}
	if b.Removable {
		s += ", removable"
	}
	return s
}

// DescribeBlock looks up the parent disk of device under SysBlockDir.
// Symlinks such as by-label entries are followed first.
func DescribeBlock(device string) (BlockInfo, bool) {
	return describeBlock(SysBlockDir, device)
}

func describeBlock(sysBlock, device string) (BlockInfo, bool) {
	if resolved, err := filepath.EvalSymlinks(device); err == nil {
		device = resolved
	}

	name := parentDisk(sysBlock, filepath.Base(device))
	dir := filepath.Join(sysBlock, name)
	if _, err := os.Stat(dir); err != nil {
		return BlockInfo{}, false
	}

	info := BlockInfo{Name: name, Model: deviceModel(dir)}
	if info.Model == "" {
		info.Model = name
	}
	if data, err := os.ReadFile(filepath.Join(dir, "removable")); err == nil {
		info.Removable = strings.TrimSpace(string(data)) == "1"
	}
	return info, true
}

// parentDisk maps sda1 to sda and nvme0n1p2 to nvme0n1. Whole disks map to
// themselves.
func parentDisk(sysBlock, part string) string {
	if _, err := os.Stat(filepath.Join(sysBlock, part)); err == nil {
		return part
	}
	base := strings.TrimRight(part, "0123456789")
	if strings.HasSuffix(base, "p") {
		trimmed := strings.TrimSuffix(base, "p")
		if _, err := os.Stat(filepath.Join(sysBlock, trimmed)); err == nil {
			return trimmed
		}
	}
	return base
}

func deviceModel(dir string) string {
	if data, err := os.ReadFile(filepath.Join(dir, "device", "model")); err == nil {
		if model := strings.TrimSpace(string(data)); model != "" {
			return model
		}
	}

	var vendor, product string
	if data, err := os.ReadFile(filepath.Join(dir, "device", "vendor")); err == nil {
		vendor = strings.TrimSpace(string(data))
	}
	if data, err := os.ReadFile(filepath.Join(dir, "device", "product")); err == nil {
		product = strings.TrimSpace(string(data))
	}
	if vendor != "" && product != "" {
		return vendor + " " + product
	}
	return ""
}
