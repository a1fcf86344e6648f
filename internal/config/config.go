// Package config provides build configuration loading for claybuild.
// Configurations are YAML files with environment variable expansion.
package config

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/claybuild/claybuild/internal/constants"
	"github.com/claybuild/claybuild/internal/ions"
	"github.com/claybuild/claybuild/internal/sheet"
)

// BuildConfig contains all settings for one model build.
type BuildConfig struct {
	// Name is the system name, used as the stem of every output file.
	Name string `yaml:"name"`

	// OutputDir receives the final structure/topology pairs.
	OutputDir string `yaml:"output_dir"`

	UnitCells  UnitCellConfig   `yaml:"unit_cells"`
	Interlayer InterlayerConfig `yaml:"interlayer"`
	Bulk       BulkConfig       `yaml:"bulk"`
	Engine     EngineConfig     `yaml:"engine"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// UnitCellConfig selects the unit-cell library and sheet composition.
type UnitCellConfig struct {
	// Library is the SQLite unit-cell database. When Import is set, the
	// YAML file is imported into Library first.
	Library string `yaml:"library"`
	Import  string `yaml:"import,omitempty"`

	// Stem is the residue-name prefix shared by all clay variants; clay
	// atoms are selected by this prefix downstream.
	Stem string `yaml:"stem"`

	// Composition maps variant id to its per-sheet cell count.
	Composition map[string]int `yaml:"composition"`

	XCells  int `yaml:"x_cells"`
	YCells  int `yaml:"y_cells"`
	NSheets int `yaml:"n_sheets"`
}

// InterlayerConfig controls interlayer solvation and ion placement.
type InterlayerConfig struct {
	// Solvate requests water in the interlayer spaces.
	Solvate bool `yaml:"solvate"`

	// Waters fixes the per-interlayer molecule count; Height derives the
	// count from water density instead. Exactly one must be set when
	// Solvate is true.
	Waters int     `yaml:"waters,omitempty"`
	Height float64 `yaml:"height,omitempty"`

	IonRatios []IonRatioConfig `yaml:"ion_ratios,omitempty"`
}

// BulkConfig controls the bulk region above and below the clay stack.
type BulkConfig struct {
	Solvate bool `yaml:"solvate"`

	// Height is the requested total box height in Å; the box is only
	// extended when it exceeds the stacked clay height.
	Height float64 `yaml:"height,omitempty"`

	// Margin is the z distance beyond the clay extent that still counts as
	// "inside" when selecting bulk molecules.
	Margin float64 `yaml:"margin,omitempty"`

	IonConcentrations []IonConcConfig  `yaml:"ion_concentrations,omitempty"`
	IonRatios         []IonRatioConfig `yaml:"ion_ratios,omitempty"`
}

// IonRatioConfig is one ion-ratio table entry.
type IonRatioConfig struct {
	Ion    string  `yaml:"ion"`
	Charge int     `yaml:"charge"`
	Weight float64 `yaml:"weight"`
}

// IonConcConfig is one explicit bulk ion concentration.
type IonConcConfig struct {
	Ion     string  `yaml:"ion"`
	Charge  int     `yaml:"charge"`
	MolPerL float64 `yaml:"mol_per_l"`
}

// EngineConfig configures the external relaxation/solvation engine.
type EngineConfig struct {
	// GMXAlias is the engine binary name or path.
	GMXAlias string `yaml:"gmx_alias,omitempty"`

	// MDP overrides minimization parameters.
	MDP map[string]string `yaml:"mdp,omitempty"`

	MaxWarn int `yaml:"max_warn,omitempty"`

	// ZPadding is the slab height increment per failed solvation attempt.
	ZPadding float64 `yaml:"z_padding,omitempty"`

	// FFIncludes lists the force-field include files written into every
	// topology, in order.
	FFIncludes []string `yaml:"ff_includes,omitempty"`
}

// LoggingConfig configures log verbosity: "info" (default), "debug" or
// "trace".
type LoggingConfig struct {
	Level string `yaml:"level,omitempty"`
}

// Load reads, expands and validates a build configuration.
func Load(path string) (*BuildConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	expanded := os.ExpandEnv(string(raw))
	cfg := &BuildConfig{}
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *BuildConfig) applyDefaults() {
	if c.OutputDir == "" {
		c.OutputDir = "."
	}
	if c.Engine.GMXAlias == "" {
		c.Engine.GMXAlias = "gmx"
	}
	if c.Engine.ZPadding == 0 {
		c.Engine.ZPadding = constants.DefaultPaddingIncrement
	}
	if len(c.Engine.FFIncludes) == 0 {
		c.Engine.FFIncludes = []string{
			"clayff.ff/forcefield.itp",
			"clayff.ff/spc.itp",
			"clayff.ff/ions.itp",
		}
	}
	if c.Bulk.Margin == 0 {
		c.Bulk.Margin = 1.5
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}

// Validate checks the configuration for structural errors. Library contents
// are validated separately when the library opens.
func (c *BuildConfig) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("name must be set")
	}
	if c.UnitCells.Library == "" {
		return fmt.Errorf("unit_cells.library must be set")
	}
	if c.UnitCells.Stem == "" {
		return fmt.Errorf("unit_cells.stem must be set")
	}
	if len(c.UnitCells.Composition) == 0 {
		return fmt.Errorf("unit_cells.composition must not be empty")
	}
	if c.UnitCells.NSheets <= 0 {
		return fmt.Errorf("unit_cells.n_sheets must be positive, got %d", c.UnitCells.NSheets)
	}
	if c.Interlayer.Solvate && c.Interlayer.Waters > 0 && c.Interlayer.Height > 0 {
		return fmt.Errorf("interlayer: set either waters or height, not both")
	}
	if c.Interlayer.Solvate && c.Interlayer.Waters <= 0 && c.Interlayer.Height <= 0 {
		return fmt.Errorf("interlayer: solvation requested but neither waters nor height set")
	}
	for _, r := range append(append([]IonRatioConfig{}, c.Interlayer.IonRatios...), c.Bulk.IonRatios...) {
		if !constants.IsKnownIon(r.Ion) {
			return fmt.Errorf("unknown ion species %q in ion_ratios", r.Ion)
		}
	}
	for _, conc := range c.Bulk.IonConcentrations {
		if !constants.IsKnownIon(conc.Ion) {
			return fmt.Errorf("unknown ion species %q in ion_concentrations", conc.Ion)
		}
		if conc.MolPerL < 0 {
			return fmt.Errorf("negative concentration for ion %q", conc.Ion)
		}
	}
	return c.SheetSpec().Validate()
}

// SheetSpec derives the tiling spec from the composition. Variant ids are
// sorted so the spec is independent of map iteration order.
func (c *BuildConfig) SheetSpec() sheet.Spec {
	ids := make([]string, 0, len(c.UnitCells.Composition))
	for id := range c.UnitCells.Composition {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	counts := make([]int, len(ids))
	for i, id := range ids {
		counts[i] = c.UnitCells.Composition[id]
	}
	return sheet.Spec{
		UCIDs:  ids,
		Counts: counts,
		XCells: c.UnitCells.XCells,
		YCells: c.UnitCells.YCells,
	}
}

// InterlayerRatios converts the configured interlayer ion-ratio table.
func (c *BuildConfig) InterlayerRatios() ions.Ratios {
	return toRatios(c.Interlayer.IonRatios)
}

// BulkRatios converts the configured bulk ion-ratio table.
func (c *BuildConfig) BulkRatios() ions.Ratios {
	return toRatios(c.Bulk.IonRatios)
}

func toRatios(entries []IonRatioConfig) ions.Ratios {
	out := make(ions.Ratios, len(entries))
	for i, e := range entries {
		out[i] = ions.Ratio{
			Species: ions.Species{Name: e.Ion, Charge: e.Charge},
			Weight:  e.Weight,
		}
	}
	return out
}
