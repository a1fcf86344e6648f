package unitcell

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/claybuild/claybuild/internal/structure"
)

// yamlLibrary is the on-disk bootstrap format for a unit-cell library.
type yamlLibrary struct {
	Dimensions [3]float64    `yaml:"dimensions"`
	Variants   []yamlVariant `yaml:"variants"`
}

type yamlVariant struct {
	ID     string     `yaml:"id"`
	Charge int        `yaml:"charge"`
	Atoms  []yamlAtom `yaml:"atoms"`
}

type yamlAtom struct {
	Name string  `yaml:"name"`
	X    float64 `yaml:"x"`
	Y    float64 `yaml:"y"`
	Z    float64 `yaml:"z"`
}

// ImportYAML loads a YAML unit-cell description into the library. Every
// variant in the file shares the file's lattice dimensions; a dimension
// conflict with already-imported data is a configuration error. Re-importing
// the same file is a no-op, so a build config can keep its import set across
// runs; a variant that redefines stored content is rejected.
func ImportYAML(l *Library, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read unit-cell file %s: %w", path, err)
	}
	var doc yamlLibrary
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("parse unit-cell file %s: %w", path, err)
	}
	if doc.Dimensions[0] <= 0 || doc.Dimensions[1] <= 0 || doc.Dimensions[2] <= 0 {
		return fmt.Errorf("unit-cell file %s: lattice dimensions must be positive, got %v", path, doc.Dimensions)
	}
	if err := l.SetDimensions(doc.Dimensions); err != nil {
		return fmt.Errorf("unit-cell file %s: %w", path, err)
	}
	for _, v := range doc.Variants {
		variant := Variant{ID: v.ID, Charge: v.Charge}
		for _, a := range v.Atoms {
			variant.Atoms = append(variant.Atoms, structure.Atom{
				Name: a.Name,
				Pos:  [3]float64{a.X, a.Y, a.Z},
			})
		}
		existing, err := l.Variant(v.ID)
		switch {
		case errors.Is(err, ErrUnknownVariant):
			if err := l.AddVariant(variant); err != nil {
				return fmt.Errorf("unit-cell file %s: %w", path, err)
			}
		case err != nil:
			return fmt.Errorf("unit-cell file %s: %w", path, err)
		default:
			if !sameTemplate(*existing, variant) {
				return fmt.Errorf("unit-cell file %s: variant %s conflicts with the stored template", path, v.ID)
			}
		}
	}
	return nil
}

// sameTemplate reports whether two variants carry the same charge and atom
// template. Residue names are ignored; the library stamps them on load.
func sameTemplate(a, b Variant) bool {
	if a.Charge != b.Charge || len(a.Atoms) != len(b.Atoms) {
		return false
	}
	for i := range a.Atoms {
		if a.Atoms[i].Name != b.Atoms[i].Name || a.Atoms[i].Pos != b.Atoms[i].Pos {
			return false
		}
	}
	return true
}
