// Package config handles classview.toml configuration.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"

	"github.com/BurntSushi/toml"

	"github.com/skdltmxn/classfile-go/names"
)

// FileName is the configuration file looked up in the working directory.
const FileName = "classview.toml"

// Config represents a classview.toml file.
type Config struct {
	Scan   Scan   `toml:"scan"`
	Names  Names  `toml:"names"`
	Rename Rename `toml:"rename"`
	Log    Log    `toml:"log"`

	// Path is the file the configuration was read from, empty for defaults.
	Path string `toml:"-"`
}

// Scan configures archive processing.
type Scan struct {
	Workers int `toml:"workers"`
}

// Names configures the shared name-translation cache.
type Names struct {
	CacheSize int `toml:"cache_size"`
}

// Rename holds class renames (slash notation) applied by the rename command
// in addition to the ones given on the command line.
type Rename struct {
	Classes map[string]string `toml:"classes"`
}

// Log configures the CLI logger.
type Log struct {
	Level string `toml:"level"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Scan.Workers <= 0 {
		c.Scan.Workers = runtime.GOMAXPROCS(0)
	}
	if c.Names.CacheSize <= 0 {
		c.Names.CacheSize = names.DefaultCacheSize
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Rename.Classes == nil {
		c.Rename.Classes = make(map[string]string)
	}
}

// Parse decodes a configuration and fills in defaults.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	md, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if undec := md.Undecoded(); len(undec) > 0 {
		return nil, fmt.Errorf("config: unknown key %s", undec[0])
	}
	cfg.applyDefaults()
	return &cfg, nil
}

// Load reads the file at path. An empty path loads FileName from the
// working directory and falls back to Default when it does not exist.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = FileName
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return Default(), nil
		}
		return nil, fmt.Errorf("config: cannot read %s: %w", path, err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if cfg.Path, err = filepath.Abs(path); err != nil {
		return nil, fmt.Errorf("config: cannot resolve path %s: %w", path, err)
	}
	return cfg, nil
}
