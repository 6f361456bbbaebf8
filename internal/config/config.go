// Package config handles bytestep.toml configuration.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strconv"

	"github.com/BurntSushi/toml"

	"bytestep/internal/vm"
)

// FileName is the config file looked up in the working directory.
const FileName = "bytestep.toml"

// Config represents configuration for the bytestep tool.
type Config struct {
	Debug            bool              `toml:"debug" json:"debug" jsonschema:"title=Debug,description=Enable debug logging"`
	NoColor          bool              `toml:"no-color" json:"noColor" jsonschema:"title=No Color,description=Disable listing and trace highlighting"`
	InstructionLimit int               `toml:"instruction-limit" json:"instructionLimit" jsonschema:"title=Instruction Limit,description=Pause a run after this many instructions (0 disables),minimum=0"`
	Variables        map[string]int64  `toml:"variables" json:"variables,omitempty" jsonschema:"title=Variables,description=Initial values of the variable table"`
	Theme            string            `toml:"theme" json:"theme,omitempty" jsonschema:"title=Theme,description=Chroma style used for highlighting,default=bytestep-dark"`
	Keys             map[string]string `toml:"keys" json:"keys,omitempty" jsonschema:"title=Keys,description=Overrides for interactive key bindings"`

	// Path is the file the config was read from, if any.
	Path string `toml:"-" json:"-"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Theme: "bytestep-dark",
		Variables: map[string]int64{
			"a": 5,
			"b": 10,
		},
	}
}

// Load reads path, or bytestep.toml in dir when path is empty. A missing
// default file is not an error; a missing explicit path is.
func Load(path, dir string) (*Config, error) {
	c := Default()

	explicit := path != ""
	if !explicit {
		path = filepath.Join(dir, FileName)
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, c); err != nil {
			return nil, fmt.Errorf("parse error in %s: %w", path, err)
		}
		c.Path = path
	case errors.Is(err, fs.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	c.applyEnv()

	if c.InstructionLimit < 0 {
		return nil, fmt.Errorf("instruction-limit must not be negative, got %d", c.InstructionLimit)
	}
	return c, nil
}

// applyEnv lets BYTESTEP_DEBUG and BYTESTEP_NO_COLOR override the file.
func (c *Config) applyEnv() {
	if v := os.Getenv("BYTESTEP_DEBUG"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Debug = b
		}
	}
	if os.Getenv("BYTESTEP_NO_COLOR") != "" {
		c.NoColor = true
	}
}

// Seed returns the variable table seed. a and b always come first so the
// state dump keeps its familiar order; any other names follow sorted.
func (c *Config) Seed() []vm.Variable {
	if len(c.Variables) == 0 {
		return vm.DefaultVariables()
	}

	seed := make([]vm.Variable, 0, len(c.Variables))
	for _, def := range vm.DefaultVariables() {
		v := def.Value
		if n, ok := c.Variables[def.Name]; ok {
			v = vm.IntValue(n)
		}
		seed = append(seed, vm.Variable{Name: def.Name, Value: v})
	}

	var extra []string
	for name := range c.Variables {
		if name != "a" && name != "b" {
			extra = append(extra, name)
		}
	}
	slices.Sort(extra)
	for _, name := range extra {
		seed = append(seed, vm.Variable{Name: name, Value: vm.IntValue(c.Variables[name])})
	}
	return seed
}
