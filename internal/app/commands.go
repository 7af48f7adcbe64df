package app

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/gajzzs/glvflash/internal/config"
	"github.com/gajzzs/glvflash/internal/firmware"
	"github.com/gajzzs/glvflash/internal/flash"
	"github.com/gajzzs/glvflash/internal/platform"
	"github.com/gajzzs/glvflash/internal/privilege"
)

const Version = "0.3.0"

// environment is everything that touches the host. Tests swap it out.
type environment struct {
	caps       platform.Capabilities
	enumerator platform.DiskEnumerator
	mounter    platform.Mounter
	escalate   func(args []string) error
	describe   func(device string) (platform.BlockInfo, bool)
	logOutput  io.Writer
}

func hostEnvironment() environment {
	return environment{
		caps:       platform.Detect(),
		enumerator: platform.NewDiskEnumerator(),
		mounter:    platform.NewMounter(),
		escalate:   privilege.EscalateIfNeeded,
		describe:   platform.DescribeBlock,
		logOutput:  os.Stderr,
	}
}

type options struct {
	configPath string
	verbose    bool

	file      string
	mount     bool
	left      string
	right     string
	labels    []string
	attempts  int
	interval  time.Duration
	mountRoot string
	fsType    string
}

// NewRootCommand builds the glvflash CLI.
func NewRootCommand() *cobra.Command {
	return newRootCommand(hostEnvironment())
}

func newRootCommand(env environment) *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "glvflash -f FIRMWARE.uf2",
		Short: "Flash UF2 firmware onto both halves of a Glove80",
		Long: `glvflash waits for each half of the keyboard to show up as a bootloader
drive, copies the firmware image onto it and moves on to the next one.

Put one half into bootloader mode, start glvflash, then do the same with the
other half once the first one has rebooted. With --mount the raw devices are
mounted by glvflash itself (linux only, requires root).`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFlash(cmd, env, opts)
		},
	}
	cmd.CompletionOptions.DisableDefaultCmd = true

	pflags := cmd.PersistentFlags()
	pflags.StringVar(&opts.configPath, "config", "", "config file (default is /etc/glvflash/config.yaml)")
	pflags.BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")
	pflags.BoolVarP(&opts.mount, "mount", "m", false, "mount raw devices by label instead of waiting for mounted volumes (linux only)")

	flags := cmd.Flags()
	flags.StringVarP(&opts.file, "file", "f", "", "firmware image to flash (.uf2)")
	flags.StringVarP(&opts.left, "left-hand-destination", "l", config.DefaultLeftLabel, "volume label of the left half")
	flags.StringVarP(&opts.right, "right-hand-destination", "r", config.DefaultRightLabel, "volume label of the right half")
	flags.StringArrayVar(&opts.labels, "label", nil, "volume label to flash, repeatable; replaces --left-hand-destination/--right-hand-destination")
	flags.IntVar(&opts.attempts, "attempts", flash.DefaultMaxAttempts, "polls per device before giving up")
	flags.DurationVar(&opts.interval, "interval", flash.DefaultInterval, "delay between polls")
	flags.StringVar(&opts.mountRoot, "mount-root", "", "directory for <label>_mnt mountpoints (default is the system temp dir)")
	flags.StringVar(&opts.fsType, "fs-type", flash.DefaultFSType, "filesystem type passed to mount")
	cmd.MarkFlagRequired("file")

	cmd.AddCommand(
		newDevicesCommand(env, opts),
		newVersionCommand(),
	)
	return cmd
}

func newDevicesCommand(env environment, opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "List the disks glvflash can currently see",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			mode := resolveMode(env, cfg, newLogger(env, opts))

			disks, err := env.enumerator.Enumerate(mode)
			if err != nil {
				return &flash.EnumerationError{Mode: mode, Err: err}
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Visible disks (%s):\n", mode)
			for i, disk := range disks {
				marker := ""
				if contains(cfg.Labels, disk.Label) {
					marker = " [target]"
				}
				fmt.Fprintf(out, "%d. %s%s\n", i+1, disk.Label, marker)
				fmt.Fprintf(out, "   %s: %s\n", disk.Target.Kind, disk.Target.Path)
				if disk.Target.Kind == platform.TargetDevice {
					if info, ok := env.describe(disk.Target.Path); ok {
						fmt.Fprintf(out, "   disk: %s\n", info)
					}
				}
				fmt.Fprintln(out)
			}
			if len(disks) == 0 {
				fmt.Fprintln(out, "  none")
			}
			return nil
		},
	}
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the glvflash version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "glvflash %s\n", Version)
		},
	}
}

func runFlash(cmd *cobra.Command, env environment, opts *options) error {
	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		return err
	}

	img, err := firmware.Load(opts.file)
	if err != nil {
		return err
	}

	pending, err := flash.NewPending(cfg.Labels)
	if err != nil {
		return err
	}

	logger := newLogger(env, opts)
	if logger.Logger.IsLevelEnabled(log.DebugLevel) {
		logger.WithField("host", platform.HostSummary()).Debug("Detected platform")
	}
	mode := resolveMode(env, cfg, logger)
	if mode == platform.ModeDevice {
		if err := env.escalate(escalationArgs(cfg, img, opts.verbose)); err != nil {
			return err
		}
	}

	logger.WithFields(log.Fields{
		"file":   img.Path,
		"size":   img.Size,
		"digest": img.Digest,
		"labels": pending.Labels(),
		"mode":   mode.String(),
	}).Info("Starting firmware update")

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out := newConsole(cmd.OutOrStdout())
	out.Image(img)

	driver := flash.NewDriver(
		flash.NewScheduler(env.enumerator, cfg.MaxAttempts, cfg.PollInterval, logger),
		flash.NewOrchestrator(env.mounter, cfg.MountRoot, cfg.FSType, logger),
		flash.NewFileCopier(logger),
		mode,
		out,
		logger,
	)
	return driver.Run(ctx, img.Path, pending)
}

// loadConfig reads the config file and lets explicitly set flags win.
func loadConfig(cmd *cobra.Command, opts *options) (*config.Config, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("mount") {
		cfg.Mount = opts.mount
	}
	if flags.Lookup("label") != nil {
		switch {
		case flags.Changed("label"):
			cfg.Labels = append([]string(nil), opts.labels...)
		default:
			if flags.Changed("left-hand-destination") {
				cfg.Labels = setLabel(cfg.Labels, 0, opts.left)
			}
			if flags.Changed("right-hand-destination") {
				cfg.Labels = setLabel(cfg.Labels, 1, opts.right)
			}
		}
	}
	if flags.Changed("attempts") {
		cfg.MaxAttempts = opts.attempts
	}
	if flags.Changed("interval") {
		cfg.PollInterval = opts.interval
	}
	if flags.Changed("mount-root") {
		cfg.MountRoot = opts.mountRoot
	}
	if flags.Changed("fs-type") {
		cfg.FSType = opts.fsType
	}
	return cfg, nil
}

// escalationArgs spells out the resolved settings for the re-executed
// process, which may not see the same HOME, working directory or config.
func escalationArgs(cfg *config.Config, img *firmware.Image, verbose bool) []string {
	file := img.Path
	if abs, err := filepath.Abs(file); err == nil {
		file = abs
	}

	args := []string{"--file", file, "--mount"}
	if cfg.Source != "" {
		args = append(args, "--config", cfg.Source)
	}
	for _, label := range cfg.Labels {
		args = append(args, "--label", label)
	}
	args = append(args,
		"--attempts", strconv.Itoa(cfg.MaxAttempts),
		"--interval", cfg.PollInterval.String(),
		"--fs-type", cfg.FSType,
	)
	if cfg.MountRoot != "" {
		args = append(args, "--mount-root", cfg.MountRoot)
	}
	if verbose {
		args = append(args, "--verbose")
	}
	return args
}

// resolveMode forces the mounted view where raw mounting is unavailable.
func resolveMode(env environment, cfg *config.Config, logger *log.Entry) platform.Mode {
	if !cfg.Mount {
		return platform.ModeMounted
	}
	if !env.caps.DeviceMount {
		logger.Warn("Mounting raw devices is not supported on this platform, waiting for mounted volumes instead")
		return platform.ModeMounted
	}
	return platform.ModeDevice
}

func newLogger(env environment, opts *options) *log.Entry {
	logger := log.New()
	logger.SetOutput(env.logOutput)
	logger.SetLevel(log.WarnLevel)
	if opts.verbose {
		logger.SetLevel(log.DebugLevel)
	}
	return log.NewEntry(logger)
}

func setLabel(labels []string, i int, label string) []string {
	labels = append([]string(nil), labels...)
	if i < len(labels) {
		labels[i] = label
		return labels
	}
	return append(labels, label)
}

func contains(slice []string, item string) bool {
	for _, v := range slice {
		if v == item {
			return true
		}
	}
	return false
}
