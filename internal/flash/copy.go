package flash

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/shirou/gopsutil/v3/disk"
	log "github.com/sirupsen/logrus"
)

// Copier writes the firmware image to its destination.
type Copier interface {
	Copy(src, dst string) error
}

// FileCopier copies with io.Copy and fsyncs before returning. It refuses to
// start when the target volume reports less free space than the image size.
type FileCopier struct {
	// Usage reports free space for a path; nil skips the check.
	Usage func(path string) (*disk.UsageStat, error)

	sync   func(f *os.File) error
	logger *log.Entry
}

func NewFileCopier(logger *log.Entry) *FileCopier {
	if logger == nil {
		logger = log.NewEntry(log.StandardLogger())
	}
	return &FileCopier{Usage: disk.Usage, logger: logger}
}

func (c *FileCopier) Copy(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	if err := c.checkFreeSpace(filepath.Dir(dst), uint64(info.Size())); err != nil {
		return err
	}

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}

	written, err := io.Copy(out, in)
	if err != nil {
		out.Close()
		return err
	}
	// A UF2 bootloader resets once the last block arrives, which can fail the
	// sync after the image is already in place.
	if err := c.syncFile(out); err != nil {
		c.logger.WithError(err).WithField("path", dst).Warn("Failed to sync firmware, the device may have already rebooted")
	}
	if err := out.Close(); err != nil {
		c.logger.WithError(err).WithField("path", dst).Warn("Failed to close firmware file")
	}

	c.logger.WithFields(log.Fields{"path": dst, "bytes": written}).Debug("Copied firmware")
	return nil
}

func (c *FileCopier) syncFile(f *os.File) error {
	if c.sync != nil {
		return c.sync(f)
	}
	return f.Sync()
}

func (c *FileCopier) checkFreeSpace(dir string, need uint64) error {
	if c.Usage == nil {
		return nil
	}

	usage, err := c.Usage(dir)
	if err != nil {
		// Some bootloader filesystems do not answer statfs sensibly.
		c.logger.WithError(err).WithField("path", dir).Debug("Skipping free space check")
		return nil
	}
	if usage.Free < need {
		return fmt.Errorf("not enough space on %s: need %d bytes, %d free", dir, need, usage.Free)
	}
	return nil
}
