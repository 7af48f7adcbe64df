package flash

import (
	"context"
	"path/filepath"

	log "github.com/sirupsen/logrus"

	"github.com/gajzzs/glvflash/internal/platform"
)

// Observer receives progress events for the console. Implementations must not
// block.
type Observer interface {
	Waiting(pending []string)
	Connected(disk platform.Disk)
	Mounting(disk platform.Disk)
	Mounted(disk platform.Disk, path string)
	Copied(disk platform.Disk, dest string)
	Failed(disk platform.Disk, err error)
	Complete()
}

// NopObserver discards every event.
type NopObserver struct{}

func (NopObserver) Waiting([]string) {}
func (NopObserver) Connected(platform.Disk) {}
func (NopObserver) Mounting(platform.Disk) {}
func (NopObserver) Mounted(platform.Disk, string) {}
func (NopObserver) Copied(platform.Disk, string) {}
func (NopObserver) Failed(platform.Disk, error) {}
func (NopObserver) Complete() {}

// Driver runs the copy-and-retire loop: wait for a pending disk, resolve a
// write path, copy, retire the label, repeat until nothing is pending.
type Driver struct {
	Scheduler    *Scheduler
	Orchestrator *Orchestrator
	Copier       Copier
	Mode         platform.Mode
	Observer     Observer

	logger *log.Entry
}

func NewDriver(scheduler *Scheduler, orchestrator *Orchestrator, copier Copier, mode platform.Mode, observer Observer, logger *log.Entry) *Driver {
	if observer == nil {
		observer = NopObserver{}
	}
	if logger == nil {
		logger = log.NewEntry(log.StandardLogger())
	}
	return &Driver{
		Scheduler:    scheduler,
		Orchestrator: orchestrator,
		Copier:       copier,
		Mode:         mode,
		Observer:     observer,
		logger:       logger,
	}
}

// Run flashes source onto every pending label. Any error aborts the run; the
// pending set then still holds the labels that were not flashed.
func (d *Driver) Run(ctx context.Context, source string, pending *Pending) error {
	for !pending.Empty() {
		d.Observer.Waiting(pending.Labels())

		disk, err := d.Scheduler.WaitForDisk(ctx, d.Mode, pending.Labels())
		if err != nil {
			return err
		}
		d.Observer.Connected(disk)

		dest, err := d.flash(source, disk)
		if err != nil {
			d.Observer.Failed(disk, err)
			return err
		}

		pending.Retire(disk.Label)
		d.Observer.Copied(disk, dest)
		d.logger.WithFields(log.Fields{
			"label":     disk.Label,
			"dest":      dest,
			"remaining": pending.Len(),
		}).Info("Firmware copied")
	}

	d.Observer.Complete()
	return nil
}

func (d *Driver) flash(source string, disk platform.Disk) (string, error) {
	if disk.Target.Kind == platform.TargetDevice {
		d.Observer.Mounting(disk)
	}

	path, release, err := d.Orchestrator.ResolveWritePath(disk)
	if err != nil {
		return "", err
	}
	defer release()

	if disk.Target.Kind == platform.TargetDevice {
		d.Observer.Mounted(disk, path)
	}

	dest := filepath.Join(path, filepath.Base(source))
	if err := d.Copier.Copy(source, dest); err != nil {
		return "", &CopyError{Label: disk.Label, Dest: dest, Err: err}
	}
	return dest, nil
}
