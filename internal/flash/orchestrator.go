package flash

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"

	"github.com/gajzzs/glvflash/internal/platform"
)

// DefaultFSType is what the bootloaders expose.
const DefaultFSType = "vfat"

// Orchestrator turns a matched disk into a writable path.
type Orchestrator struct {
	Mounter   platform.Mounter
	MountRoot string
	FSType    string

	logger *log.Entry
}

// NewOrchestrator defaults MountRoot to os.TempDir() and FSType to vfat.
func NewOrchestrator(mounter platform.Mounter, mountRoot, fsType string, logger *log.Entry) *Orchestrator {
	if mountRoot == "" {
		mountRoot = os.TempDir()
	}
	if fsType == "" {
		fsType = DefaultFSType
	}
	if logger == nil {
		logger = log.NewEntry(log.StandardLogger())
	}
	return &Orchestrator{
		Mounter:   mounter,
		MountRoot: mountRoot,
		FSType:    fsType,
		logger:    logger,
	}
}

// ScratchDir is deterministic so repeated runs reuse the same directory.
func ScratchDir(root, label string) string {
	return filepath.Join(root, label+"_mnt")
}

// ResolveWritePath returns a path ready for writes and a release function
// that must be called once the copy is done, on every path. Mountpoints are
// returned untouched; devices are mounted under ScratchDir.
func (o *Orchestrator) ResolveWritePath(disk platform.Disk) (string, func(), error) {
	switch disk.Target.Kind {
	case platform.TargetMountpoint:
		return disk.Target.Path, func() {}, nil
	case platform.TargetDevice:
		return o.mountDevice(disk)
	default:
		return "", nil, fmt.Errorf("%s: unknown target kind %s", disk.Label, disk.Target.Kind)
	}
}

func (o *Orchestrator) mountDevice(disk platform.Disk) (string, func(), error) {
	mountPath := ScratchDir(o.MountRoot, disk.Label)
	logger := o.logger.WithFields(log.Fields{
		"label":  disk.Label,
		"device": disk.Target.Path,
		"path":   mountPath,
	})

	mountErr := func(err error) *MountError {
		return &MountError{Label: disk.Label, Device: disk.Target.Path, Path: mountPath, Err: err}
	}

	if o.Mounter == nil {
		return "", nil, mountErr(errors.New("no mounter available"))
	}

	if err := os.Mkdir(mountPath, 0o755); err != nil && !errors.Is(err, fs.ErrExist) {
		logger.WithError(err).Error("Failed to create mountpoint directory")
		return "", nil, mountErr(fmt.Errorf("error while creating temporary mount directory: %w", err))
	}

	if err := o.Mounter.Mount(disk.Target.Path, mountPath, o.FSType); err != nil {
		logger.WithError(err).Error("Failed to mount device")
		return "", nil, mountErr(err)
	}
	logger.Debug("Mounted device")

	release := func() {
		if err := o.Mounter.Unmount(mountPath); err != nil {
			logger.WithError(err).Warn("Failed to unmount device")
			return
		}
		logger.Debug("Unmounted device")
	}
	return mountPath, release, nil
}
