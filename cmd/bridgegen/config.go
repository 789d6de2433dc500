package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config represents a bridgegen.toml generation config.
type Config struct {
	Meta   string       `toml:"meta"`
	OutDir string       `toml:"out-dir"`
	Emit   []EmitConfig `toml:"emit"`

	// Dir is the directory containing the config file (set at load time).
	Dir string `toml:"-"`
}

// EmitConfig configures one emitter invocation.
type EmitConfig struct {
	Target string `toml:"target"`
	File   string `toml:"file"`
}

// LoadConfig parses a bridgegen.toml file. Relative paths in the config
// resolve against the config file's directory.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	var c Config
	if err := toml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}

	c.Dir, err = filepath.Abs(filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", path, err)
	}
	if c.Meta != "" && !filepath.IsAbs(c.Meta) {
		c.Meta = filepath.Join(c.Dir, c.Meta)
	}
	if c.OutDir == "" {
		c.OutDir = c.Dir
	} else if !filepath.IsAbs(c.OutDir) {
		c.OutDir = filepath.Join(c.Dir, c.OutDir)
	}
	return &c, nil
}
