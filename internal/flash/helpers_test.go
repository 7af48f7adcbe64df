package flash

import (
	"context"
	"io"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/gajzzs/glvflash/internal/platform"
)

func testLogger() *log.Entry {
	logger := log.New()
	logger.SetOutput(io.Discard)
	return log.NewEntry(logger)
}

// scriptedEnumerator replays one snapshot per call and then repeats the last.
type scriptedEnumerator struct {
	snapshots [][]platform.Disk
	err       error
	calls     int
	modes     []platform.Mode
}

func (e *scriptedEnumerator) Enumerate(mode platform.Mode) ([]platform.Disk, error) {
	e.calls++
	e.modes = append(e.modes, mode)
	if e.err != nil {
		return nil, e.err
	}
	if len(e.snapshots) == 0 {
		return nil, nil
	}
	i := e.calls - 1
	if i >= len(e.snapshots) {
		i = len(e.snapshots) - 1
	}
	return e.snapshots[i], nil
}

// countingSleep records sleeps without blocking.
type countingSleep struct {
	mu    sync.Mutex
	calls int
	total time.Duration
}

func (s *countingSleep) Sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.total += d
	return ctx.Err()
}

type mountCall struct {
	device, target, fsType string
}

type fakeMounter struct {
	mountErr   error
	unmountErr error
	mounts     []mountCall
	unmounts   []string
}

func (m *fakeMounter) Mount(device, target, fsType string) error {
	m.mounts = append(m.mounts, mountCall{device, target, fsType})
	return m.mountErr
}

func (m *fakeMounter) Unmount(target string) error {
	m.unmounts = append(m.unmounts, target)
	return m.unmountErr
}

type copyCall struct {
	src, dst string
}

type fakeCopier struct {
	err   error
	calls []copyCall
}

func (c *fakeCopier) Copy(src, dst string) error {
	c.calls = append(c.calls, copyCall{src, dst})
	return c.err
}

// recordingObserver keeps the event stream as short strings.
type recordingObserver struct {
	events []string
}

func (o *recordingObserver) Waiting(pending []string) {
	o.events = append(o.events, "waiting")
}

func (o *recordingObserver) Connected(disk platform.Disk) {
	o.events = append(o.events, "connected "+disk.Label)
}

func (o *recordingObserver) Mounting(disk platform.Disk) {
	o.events = append(o.events, "mounting "+disk.Label)
}

func (o *recordingObserver) Mounted(disk platform.Disk, path string) {
	o.events = append(o.events, "mounted "+disk.Label)
}

func (o *recordingObserver) Copied(disk platform.Disk, dest string) {
	o.events = append(o.events, "copied "+disk.Label)
}

func (o *recordingObserver) Failed(disk platform.Disk, err error) {
	o.events = append(o.events, "failed "+disk.Label)
}

func (o *recordingObserver) Complete() {
	o.events = append(o.events, "complete")
}
