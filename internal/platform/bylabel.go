package platform

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// ListByLabel reports every entry of a by-label directory as a device Disk.
// The device path is the symlink itself, mount(2) follows it.
func ListByLabel(dir string) ([]Disk, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", dir, err)
	}

	disks := make([]Disk, 0, len(entries))
	for _, entry := range entries {
		disks = append(disks, Disk{
			Label:  unescapeLabel(entry.Name()),
			Target: Device(filepath.Join(dir, entry.Name())),
		})
	}
	return disks, nil
}

// labelIndex maps resolved device nodes to their labels. A missing directory
// just means no labeled devices are present.
func labelIndex(dir string) (map[string]string, error) {
	index := make(map[string]string)

	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return index, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", dir, err)
	}

	for _, entry := range entries {
		if entry.Type()&os.ModeSymlink == 0 {
			continue
		}
		target, err := filepath.EvalSymlinks(filepath.Join(dir, entry.Name()))
		if err != nil {
			continue
		}
		index[filepath.Clean(target)] = unescapeLabel(entry.Name())
	}
	return index, nil
}

// lookupLabel finds the label of a device node, following the node if it is
// itself a symlink (e.g. /dev/disk/by-uuid/... in /proc/mounts).
func lookupLabel(index map[string]string, device string) string {
	if label, ok := index[filepath.Clean(device)]; ok {
		return label
	}
	if resolved, err := filepath.EvalSymlinks(device); err == nil {
		return index[filepath.Clean(resolved)]
	}
	return ""
}

// unescapeLabel decodes udev's \xNN escapes, e.g. "MY\x20DISK".
func unescapeLabel(name string) string {
	if !strings.Contains(name, `\x`) {
		return name
	}

	var b strings.Builder
	for i := 0; i < len(name); i++ {
		if name[i] == '\\' && i+3 < len(name) && name[i+1] == 'x' {
			if v, err := strconv.ParseUint(name[i+2:i+4], 16, 8); err == nil {
				b.WriteByte(byte(v))
				i += 3
				continue
			}
		}
		b.WriteByte(name[i])
	}
	return b.String()
}

// volumeLabel falls back to the last element of the mount path, which is what
// desktop automounters name their directories after.
func volumeLabel(mountpoint string) string {
	base := filepath.Base(mountpoint)
	if base == "/" || base == "." {
		return ""
	}
	return base
}
