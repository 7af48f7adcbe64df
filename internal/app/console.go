package app

import (
	"fmt"
	"io"
	"strings"

	"github.com/gajzzs/glvflash/internal/firmware"
	"github.com/gajzzs/glvflash/internal/flash"
	"github.com/gajzzs/glvflash/internal/platform"
)

// console prints one status line per flashing event.
type console struct {
	out io.Writer
}

var _ flash.Observer = (*console)(nil)

func newConsole(out io.Writer) *console {
	return &console{out: out}
}

func (c *console) Image(img *firmware.Image) {
	digest := img.Digest
	if len(digest) > 16 {
		digest = digest[:16]
	}
	fmt.Fprintf(c.out, "Firmware: %s (%d bytes, blake2b %s)\n", img.Name, img.Size, digest)
}

func (c *console) Waiting(pending []string) {
	fmt.Fprintf(c.out, "Waiting for devices... [%s]\n", strings.Join(pending, ", "))
}

func (c *console) Connected(disk platform.Disk) {
	fmt.Fprintf(c.out, "%s - Connected\n", disk.Label)
}

func (c *console) Mounting(disk platform.Disk) {
	fmt.Fprintf(c.out, "%s - Mounting device...\n", disk.Label)
}

func (c *console) Mounted(disk platform.Disk, path string) {
	fmt.Fprintf(c.out, "%s - Mounted device at %s\n", disk.Label, path)
}

func (c *console) Copied(disk platform.Disk, dest string) {
	fmt.Fprintf(c.out, "%s - Successfully copied firmware\n", disk.Label)
}

func (c *console) Failed(disk platform.Disk, err error) {
	fmt.Fprintf(c.out, "%s - Unable to flash device\n", disk.Label)
}

func (c *console) Complete() {
	fmt.Fprintln(c.out, "Firmware update complete!")
}
