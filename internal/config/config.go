package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/gajzzs/glvflash/internal/flash"
)

const (
	DefaultLeftLabel  = "GLV80LHBOOT"
	DefaultRightLabel = "GLV80RHBOOT"
)

type Config struct {
	// Labels are flashed in whatever order the OS reports them.
	Labels       []string      `yaml:"labels"`
	Mount        bool          `yaml:"mount"`
	MaxAttempts  int           `yaml:"max_attempts"`
	PollInterval time.Duration `yaml:"poll_interval"`
	// MountRoot holds the <label>_mnt scratch directories. Empty means os.TempDir().
	MountRoot string `yaml:"mount_root,omitempty"`
	FSType    string `yaml:"fs_type"`

	// Source is the absolute path of the file that was loaded, if any.
	Source string `yaml:"-"`
}

var (
	ConfigDir  = "/etc/glvflash"
	ConfigFile = filepath.Join(ConfigDir, "config.yaml")
)

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Labels:       []string{DefaultLeftLabel, DefaultRightLabel},
		MaxAttempts:  flash.DefaultMaxAttempts,
		PollInterval: flash.DefaultInterval,
		FSType:       flash.DefaultFSType,
	}
}

// Load reads path, or the first existing default location when path is
// empty. No file at all is fine; an explicit path that does not exist is not.
func Load(path string) (*Config, error) {
	if path == "" {
		path = findConfigFile()
	}

	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	applyDefaults(cfg)
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	cfg.Source = path
	return cfg, nil
}

func findConfigFile() string {
	candidates := []string{ConfigFile}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".config", "glvflash", "config.yaml"))
	}
	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return c
		}
	}
	return ""
}

func applyDefaults(cfg *Config) {
	defaults := Default()
	if len(cfg.Labels) == 0 {
		cfg.Labels = defaults.Labels
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = defaults.MaxAttempts
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaults.PollInterval
	}
	if cfg.FSType == "" {
		cfg.FSType = defaults.FSType
	}
}
