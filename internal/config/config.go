package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// PathEnv overrides the config file location.
const PathEnv = "GROVE_CONFIG"

// DefaultWorkers is the enrichment pool size used when the file sets none.
const DefaultWorkers = 8

// PruneConfig holds prune-related configuration
type PruneConfig struct {
	Base string `toml:"base"` // empty resolves the remote default branch
}

// Config holds the grove configuration
type Config struct {
	Verbose bool        `toml:"verbose"`
	Workers int         `toml:"workers"`
	Prune   PruneConfig `toml:"prune"`
}

// Default returns the default configuration
func Default() Config {
	return Config{Workers: DefaultWorkers}
}

// Path returns the location of the config file. It does not check that the
// file exists.
func Path() (string, error) {
	if p := os.Getenv(PathEnv); p != "" {
		return p, nil
	}
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "grove", "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "grove", "config.toml"), nil
}

// Load reads the config file at Path.
// Returns Default() if the file doesn't exist (no error)
func Load() (Config, error) {
	path, err := Path()
	if err != nil {
		return Default(), nil
	}
	return LoadFile(path)
}

// LoadFile reads config from path. Keys the file sets override the defaults;
// unknown keys are rejected so typos don't go unnoticed.
func LoadFile(path string) (Config, error) {
	cfg := Default()

	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return Default(), fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Default(), fmt.Errorf("unknown keys in config file %s: %s", path, strings.Join(keys, ", "))
	}

	if err := cfg.Validate(); err != nil {
		return Default(), fmt.Errorf("invalid config file %s: %w", path, err)
	}

	return cfg, nil
}

func (c Config) Validate() error {
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	if strings.ContainsAny(c.Prune.Base, " \t\n") {
		return fmt.Errorf("invalid prune.base %q", c.Prune.Base)
	}
	return nil
}
