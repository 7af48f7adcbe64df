package flash

import (
	"context"
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/gajzzs/glvflash/internal/platform"
)

const (
	DefaultMaxAttempts = 50
	DefaultInterval    = time.Second
)

// Scheduler polls the enumerator until a pending disk shows up. There is no
// device arrival notification; latency is bounded by Interval and the total
// wait by MaxAttempts * Interval.
type Scheduler struct {
	Enumerator  platform.DiskEnumerator
	MaxAttempts int
	Interval    time.Duration

	// Sleep blocks between attempts. Replaced in tests.
	Sleep func(ctx context.Context, d time.Duration) error

	logger *log.Entry
}

// NewScheduler falls back to the defaults for non-positive values.
func NewScheduler(enumerator platform.DiskEnumerator, maxAttempts int, interval time.Duration, logger *log.Entry) *Scheduler {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	if interval <= 0 {
		interval = DefaultInterval
	}
	if logger == nil {
		logger = log.NewEntry(log.StandardLogger())
	}
	return &Scheduler{
		Enumerator:  enumerator,
		MaxAttempts: maxAttempts,
		Interval:    interval,
		Sleep:       sleepContext,
		logger:      logger,
	}
}

// WaitForDisk runs at most MaxAttempts enumerate+match cycles and returns the
// first match. Enumeration failures end the wait immediately.
func (s *Scheduler) WaitForDisk(ctx context.Context, mode platform.Mode, pending []string) (platform.Disk, error) {
	for attempt := 1; attempt <= s.MaxAttempts; attempt++ {
		disks, err := s.Enumerator.Enumerate(mode)
		if err != nil {
			return platform.Disk{}, &EnumerationError{Mode: mode, Err: err}
		}

		if disk, ok := Match(disks, pending); ok {
			s.logger.WithFields(log.Fields{
				"label":   disk.Label,
				"target":  disk.Target.Path,
				"attempt": attempt,
			}).Debug("Matched disk")
			return disk, nil
		}

		s.logger.WithFields(log.Fields{
			"attempt": attempt,
			"visible": len(disks),
			"mode":    mode.String(),
		}).Debug("No pending disk visible")

		if attempt == s.MaxAttempts {
			break
		}
		if err := s.Sleep(ctx, s.Interval); err != nil {
			return platform.Disk{}, err
		}
	}

	return platform.Disk{}, fmt.Errorf("%w: none of [%s] appeared after %d attempts",
		ErrTimeout, strings.Join(pending, ", "), s.MaxAttempts)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
