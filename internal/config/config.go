package config

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	appErrors "cardcopy/internal/errors"
	"cardcopy/internal/devices"
	"cardcopy/internal/logging"
)

// Config is the file-backed configuration. Flags override whatever the
// file provides.
type Config struct {
	// Destination is the backup target root. Required for backup runs.
	Destination string `yaml:"destination"`

	// LogDir overrides where session logs are written.
	LogDir string `yaml:"log_dir"`

	// MountRoots and PortableRoots replace the built-in mount scan
	// locations when set.
	MountRoots    []string `yaml:"mount_roots"`
	PortableRoots []string `yaml:"portable_roots"`

	Verbose bool `yaml:"verbose"`
}

var errNoDestination = errors.New("no destination configured")

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		LogDir:     logging.DefaultDir(),
		MountRoots: devices.DefaultRoots(),
	}
}

// DefaultPath is the conventional config file location.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "cardcopy.yaml"
	}
	return filepath.Join(home, ".config", "cardcopy", "config.yaml")
}

// Load reads a config file over the defaults. An empty path means the
// default location, where a missing file is not an error; an explicit
// path must exist.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			applyEnv(&cfg)
			return cfg, nil
		}
		return cfg, appErrors.Wrap(appErrors.InvalidConfig, "config", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, appErrors.Wrap(appErrors.InvalidConfig, "config", path, err)
	}
	if cfg.LogDir == "" {
		cfg.LogDir = logging.DefaultDir()
	}
	if len(cfg.MountRoots) == 0 {
		cfg.MountRoots = devices.DefaultRoots()
	}
	applyEnv(&cfg)
	return cfg, nil
}

// Environment overrides sit between the file and command-line flags.
func applyEnv(cfg *Config) {
	if v := os.Getenv("CARDCOPY_DESTINATION"); v != "" {
		cfg.Destination = v
	}
	if v := os.Getenv("CARDCOPY_LOG_DIR"); v != "" {
		cfg.LogDir = v
	}
}

// ValidateForBackup checks the fields a backup run depends on.
func (c Config) ValidateForBackup() error {
	if c.Destination == "" {
		return appErrors.Wrap(appErrors.InvalidConfig, "config", "", errNoDestination)
	}
	return nil
}
