package app

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gajzzs/glvflash/internal/config"
	"github.com/gajzzs/glvflash/internal/firmware"
	"github.com/gajzzs/glvflash/internal/flash"
	"github.com/gajzzs/glvflash/internal/platform"
)

type fakeEnumerator struct {
	disks map[platform.Mode][]platform.Disk
	err   error
	calls int
}

func (e *fakeEnumerator) Enumerate(mode platform.Mode) ([]platform.Disk, error) {
	e.calls++
	return e.disks[mode], e.err
}

type fakeMounter struct {
	mounted []string
}

func (m *fakeMounter) Mount(device, target, fsType string) error {
	m.mounted = append(m.mounted, target)
	return nil
}

func (m *fakeMounter) Unmount(target string) error { return nil }

// escalations records the argv of every sudo re-exec request.
type escalations struct {
	calls [][]string
}

func testEnvironment(enum platform.DiskEnumerator, caps platform.Capabilities) (environment, *escalations) {
	esc := &escalations{}
	return environment{
		caps:       caps,
		enumerator: enum,
		mounter:    &fakeMounter{},
		escalate: func(args []string) error {
			esc.calls = append(esc.calls, args)
			return nil
		},
		describe: func(device string) (platform.BlockInfo, bool) {
			if device == "/dev/disk/by-label/GLV80LHBOOT" {
				return platform.BlockInfo{Name: "sda", Model: "nRF UF2", Removable: true}, true
			}
			return platform.BlockInfo{}, false
		},
		logOutput: io.Discard,
	}, esc
}

// isolateConfig keeps the host's config files out of the picture and returns
// the fake home directory.
func isolateConfig(t *testing.T) string {
	t.Helper()
	old := config.ConfigFile
	config.ConfigFile = filepath.Join(t.TempDir(), "absent.yaml")
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Cleanup(func() { config.ConfigFile = old })
	return home
}

func execute(t *testing.T, env environment, args ...string) (string, error) {
	t.Helper()
	isolateConfig(t)
	return run(t, env, args...)
}

func run(t *testing.T, env environment, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCommand(env)
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeFirmware(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte("UF2 image"), 0o644))
	return path
}

func TestFlash_BothHalves(t *testing.T) {
	lh, rh := t.TempDir(), t.TempDir()
	enum := &fakeEnumerator{disks: map[platform.Mode][]platform.Disk{
		platform.ModeMounted: {
			{Label: "GLV80RHBOOT", Target: platform.Mountpoint(rh)},
			{Label: "GLV80LHBOOT", Target: platform.Mountpoint(lh)},
		},
	}}
	env, esc := testEnvironment(enum, platform.Capabilities{})
	fw := writeFirmware(t, "firmware.uf2")

	out, err := execute(t, env, "-f", fw, "--interval", "1ms")
	require.NoError(t, err)

	assert.FileExists(t, filepath.Join(lh, "firmware.uf2"))
	assert.FileExists(t, filepath.Join(rh, "firmware.uf2"))
	assert.Contains(t, out, "GLV80RHBOOT - Successfully copied firmware")
	assert.Contains(t, out, "GLV80LHBOOT - Successfully copied firmware")
	assert.Contains(t, out, "Firmware update complete!")
	assert.Empty(t, esc.calls)
}

func TestFlash_WrongExtensionFailsBeforePolling(t *testing.T) {
	enum := &fakeEnumerator{}
	env, _ := testEnvironment(enum, platform.Capabilities{})

	_, err := execute(t, env, "-f", writeFirmware(t, "firmware.bin"))

	var pre *firmware.PreconditionError
	require.True(t, errors.As(err, &pre))
	assert.Zero(t, enum.calls)
}

func TestFlash_MissingFile(t *testing.T) {
	enum := &fakeEnumerator{}
	env, _ := testEnvironment(enum, platform.Capabilities{})

	_, err := execute(t, env, "-f", filepath.Join(t.TempDir(), "firmware.uf2"))
	assert.ErrorContains(t, err, "does not exist")
	assert.Zero(t, enum.calls)
}

func TestFlash_RequiresFile(t *testing.T) {
	env, _ := testEnvironment(&fakeEnumerator{}, platform.Capabilities{})

	_, err := execute(t, env)
	assert.ErrorContains(t, err, "file")
}

func TestFlash_Timeout(t *testing.T) {
	enum := &fakeEnumerator{}
	env, _ := testEnvironment(enum, platform.Capabilities{})

	_, err := execute(t, env, "-f", writeFirmware(t, "firmware.uf2"), "--attempts", "3", "--interval", "1ms")
	assert.ErrorIs(t, err, flash.ErrTimeout)
	assert.Equal(t, 3, enum.calls)
}

func TestFlash_CustomLabels(t *testing.T) {
	target := t.TempDir()
	enum := &fakeEnumerator{disks: map[platform.Mode][]platform.Disk{
		platform.ModeMounted: {{Label: "RPI-RP2", Target: platform.Mountpoint(target)}},
	}}
	env, _ := testEnvironment(enum, platform.Capabilities{})

	_, err := execute(t, env, "-f", writeFirmware(t, "pico.uf2"), "--label", "RPI-RP2", "--interval", "1ms")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(target, "pico.uf2"))
}

func TestFlash_DeviceModeMountsAndEscalates(t *testing.T) {
	root := t.TempDir()
	enum := &fakeEnumerator{disks: map[platform.Mode][]platform.Disk{
		platform.ModeDevice: {{Label: "GLV80RHBOOT", Target: platform.Device("/dev/disk/by-label/GLV80RHBOOT")}},
	}}
	env, esc := testEnvironment(enum, platform.Capabilities{DeviceMount: true})
	mounter := env.mounter.(*fakeMounter)
	fw := writeFirmware(t, "firmware.uf2")

	out, err := execute(t, env, "-f", fw, "-m", "--label", "GLV80RHBOOT",
		"--mount-root", root, "--interval", "1ms")
	require.NoError(t, err)

	scratch := filepath.Join(root, "GLV80RHBOOT_mnt")
	assert.Equal(t, [][]string{{
		"--file", fw, "--mount",
		"--label", "GLV80RHBOOT",
		"--attempts", "50", "--interval", "1ms", "--fs-type", "vfat",
		"--mount-root", root,
	}}, esc.calls)
	assert.Equal(t, []string{scratch}, mounter.mounted)
	// The fake mounter does not attach anything, so the copy lands in the scratch dir.
	assert.FileExists(t, filepath.Join(scratch, "firmware.uf2"))
	assert.Contains(t, out, "GLV80RHBOOT - Mounting device...")
}

func TestFlash_EscalationCarriesUserConfig(t *testing.T) {
	home := isolateConfig(t)
	cfgPath := filepath.Join(home, ".config", "glvflash", "config.yaml")
	require.NoError(t, os.MkdirAll(filepath.Dir(cfgPath), 0o755))
	require.NoError(t, os.WriteFile(cfgPath, []byte(`
mount: true
labels: [LEFTX, RIGHTX]
mount_root: /run/glvflash
fs_type: msdos
`), 0o644))

	root := t.TempDir()
	enum := &fakeEnumerator{disks: map[platform.Mode][]platform.Disk{
		platform.ModeDevice: {
			{Label: "LEFTX", Target: platform.Device("/dev/sda")},
		},
	}}
	env, esc := testEnvironment(enum, platform.Capabilities{DeviceMount: true})
	fw := writeFirmware(t, "firmware.uf2")

	// The re-executed process would run with root's HOME; the argv alone must
	// reproduce the user's settings.
	_, err := run(t, env, "-f", fw, "--mount-root", root, "--attempts", "2", "--interval", "1ms", "-v")
	assert.ErrorIs(t, err, flash.ErrTimeout)

	require.Len(t, esc.calls, 1)
	assert.Equal(t, []string{
		"--file", fw, "--mount",
		"--config", cfgPath,
		"--label", "LEFTX", "--label", "RIGHTX",
		"--attempts", "2", "--interval", "1ms", "--fs-type", "msdos",
		"--mount-root", root,
		"--verbose",
	}, esc.calls[0])
	assert.Equal(t, []string{filepath.Join(root, "LEFTX_mnt")}, env.mounter.(*fakeMounter).mounted)
}

func TestEscalationArgsRoundTrip(t *testing.T) {
	home := isolateConfig(t)
	fw := writeFirmware(t, "firmware.uf2")
	cfg := &config.Config{
		Labels:       []string{"A,B", "C"},
		MaxAttempts:  7,
		PollInterval: time.Millisecond,
		FSType:       "ext4",
		MountRoot:    home,
	}
	img, err := firmware.Load(fw)
	require.NoError(t, err)
	args := escalationArgs(cfg, img, false)

	enum := &fakeEnumerator{}
	env, esc := testEnvironment(enum, platform.Capabilities{DeviceMount: true})

	// Feeding the argv back in reproduces the same settings.
	_, err = run(t, env, args...)
	assert.ErrorIs(t, err, flash.ErrTimeout)
	assert.Equal(t, 7, enum.calls)
	assert.Equal(t, [][]string{args}, esc.calls)
}

func TestFlash_MountForcedOffWithoutCapability(t *testing.T) {
	target := t.TempDir()
	enum := &fakeEnumerator{disks: map[platform.Mode][]platform.Disk{
		platform.ModeMounted: {{Label: "GLV80LHBOOT", Target: platform.Mountpoint(target)}},
		platform.ModeDevice:  {{Label: "GLV80LHBOOT", Target: platform.Device("/dev/sda")}},
	}}
	env, esc := testEnvironment(enum, platform.Capabilities{DeviceMount: false})

	_, err := execute(t, env, "-f", writeFirmware(t, "firmware.uf2"), "-m", "-l", "GLV80LHBOOT",
		"--label", "GLV80LHBOOT", "--interval", "1ms")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(target, "firmware.uf2"))
	assert.Empty(t, esc.calls)
}

func TestDevices(t *testing.T) {
	enum := &fakeEnumerator{disks: map[platform.Mode][]platform.Disk{
		platform.ModeMounted: {
			{Label: "USBSTICK", Target: platform.Mountpoint("/media/usb")},
			{Label: "GLV80LHBOOT", Target: platform.Mountpoint("/media/lh")},
		},
	}}
	env, _ := testEnvironment(enum, platform.Capabilities{})

	out, err := execute(t, env, "devices")
	require.NoError(t, err)
	assert.Contains(t, out, "Visible disks (mounted):")
	assert.Contains(t, out, "1. USBSTICK\n")
	assert.Contains(t, out, "2. GLV80LHBOOT [target]")
	assert.Contains(t, out, "mountpoint: /media/lh")
}

func TestDevices_DeviceMode(t *testing.T) {
	enum := &fakeEnumerator{disks: map[platform.Mode][]platform.Disk{
		platform.ModeDevice: {
			{Label: "GLV80LHBOOT", Target: platform.Device("/dev/disk/by-label/GLV80LHBOOT")},
			{Label: "DATA", Target: platform.Device("/dev/disk/by-label/DATA")},
		},
	}}
	env, esc := testEnvironment(enum, platform.Capabilities{DeviceMount: true})

	out, err := execute(t, env, "devices", "-m")
	require.NoError(t, err)
	assert.Contains(t, out, "Visible disks (device):")
	assert.Contains(t, out, "   device: /dev/disk/by-label/GLV80LHBOOT\n   disk: sda, nRF UF2, removable\n")
	assert.Contains(t, out, "   device: /dev/disk/by-label/DATA\n\n")
	assert.Empty(t, esc.calls)
}

func TestDevices_EnumerationError(t *testing.T) {
	enum := &fakeEnumerator{err: errors.New("boom")}
	env, _ := testEnvironment(enum, platform.Capabilities{DeviceMount: true})

	_, err := execute(t, env, "devices", "--mount")

	var enumErr *flash.EnumerationError
	require.True(t, errors.As(err, &enumErr))
	assert.Equal(t, platform.ModeDevice, enumErr.Mode)
}

func TestVersion(t *testing.T) {
	env, _ := testEnvironment(&fakeEnumerator{}, platform.Capabilities{})

	out, err := execute(t, env, "version")
	require.NoError(t, err)
	assert.Equal(t, "glvflash "+Version+"\n", out)
}

func TestSetLabel(t *testing.T) {
	in := []string{"A", "B"}
	assert.Equal(t, []string{"X", "B"}, setLabel(in, 0, "X"))
	assert.Equal(t, []string{"A", "B"}, in)
	assert.Equal(t, []string{"A", "X"}, setLabel([]string{"A"}, 1, "X"))
}
