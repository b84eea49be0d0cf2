// Package presets holds the named game configurations (beginner, expert, ...) and parses
// the game configuration strings given by the user.
//
// A configuration string names at most one preset and overrides any of its fields, e.g.:
//
//	expert
//	expert,bombs=80
//	width=20,height=10,bombs=30
package presets

import (
	_ "embed"
	"maps"
	"os"
	"slices"

	"github.com/dmitryrazinkov/minesweeper-app/internal/parameters"
	"github.com/dmitryrazinkov/minesweeper-app/internal/state"
	"github.com/janpfeifer/must"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// DefaultName is the preset used when the configuration string doesn't name one.
const DefaultName = "default"

//go:embed presets.yaml
var embeddedPresets []byte

// Table maps preset names to game configurations.
type Table map[string]state.Config

// Default returns the presets embedded in the program.
func Default() Table {
	return must.M1(Parse(embeddedPresets))
}

// Parse the YAML mapping of preset names to configurations. Every configuration is validated.
func Parse(data []byte) (Table, error) {
	var table Table
	if err := yaml.Unmarshal(data, &table); err != nil {
		return nil, errors.Wrap(err, "failed to parse presets")
	}
	for name, cfg := range table {
		if err := cfg.Validate(); err != nil {
			return nil, errors.WithMessagef(err, "preset %q", name)
		}
	}
	return table, nil
}

// Load the presets from the YAML file at path. They are added to the embedded ones, replacing
// those with the same name.
func Load(path string) (Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read presets from %q", path)
	}
	loaded, err := Parse(data)
	if err != nil {
		return nil, errors.WithMessagef(err, "presets file %q", path)
	}
	table := Default()
	maps.Copy(table, loaded)
	return table, nil
}

// Names returns the sorted preset names.
func (t Table) Names() []string {
	return slices.Sorted(maps.Keys(t))
}

// GameConfig parses a configuration string into a validated game configuration.
// An empty string selects the DefaultName preset, or state.DefaultConfig if the table has none.
func (t Table) GameConfig(config string) (cfg state.Config, err error) {
	params, err := parameters.NewFromConfigString(config)
	if err != nil {
		return
	}
	cfg = state.DefaultConfig
	if preset, found := t[DefaultName]; found {
		cfg = preset
	}
	var named string
	for _, key := range params.Switches() {
		preset, found := t[key]
		if !found {
			continue
		}
		if named != "" {
			err = errors.Errorf("game configuration %q names more than one preset (%q and %q)", config, named, key)
			return
		}
		named = key
		cfg = preset
		delete(params, key)
	}

	if cfg.Width, err = parameters.PopParamOr(params, "width", cfg.Width); err != nil {
		return
	}
	if cfg.Height, err = parameters.PopParamOr(params, "height", cfg.Height); err != nil {
		return
	}
	if cfg.Bombs, err = parameters.PopParamOr(params, "bombs", cfg.Bombs); err != nil {
		return
	}
	if err = params.CheckAllUsed(); err != nil {
		err = errors.WithMessagef(err, "game configuration %q (presets are %q)", config, t.Names())
		return
	}
	err = cfg.Validate()
	return
}
