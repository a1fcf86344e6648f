// Package constants defines physical constants and naming conventions shared
// across the claybuild pipeline.
package constants

const (
	// Avogadro is the Avogadro constant in mol^-1.
	Avogadro = 6.02214076e23

	// WaterMolWeight is the molecular weight of water in g/mol.
	WaterMolWeight = 18.0

	// WaterDensity is the density of liquid water in g/Å³ (1000 g/L).
	WaterDensity = 1000e-27

	// SolventResidue is the residue name the solvation engine assigns to
	// inserted water molecules.
	SolventResidue = "SOL"

	// InterlayerResidue is the residue name interlayer water is renamed to
	// so it stays distinguishable from bulk solvent downstream.
	InterlayerResidue = "iSL"

	// PaddingCeiling is the maximum accumulated z-padding in Å before a
	// solvation density search is aborted.
	PaddingCeiling = 5.0

	// DefaultPaddingIncrement is the z-padding added per failed solvation
	// attempt, in Å.
	DefaultPaddingIncrement = 0.4

	// DefaultMinHeight is the minimum solvent slab height in Å enforced
	// before each solvation attempt.
	DefaultMinHeight = 1.5
)

// KnownIons lists the ion species the default force field ships parameters for.
var KnownIons = []string{"Cl", "Na", "Ca", "K", "Mg", "Cs"}

// IsKnownIon reports whether name is one of the shipped ion species.
func IsKnownIon(name string) bool {
	for _, ion := range KnownIons {
		if ion == name {
			return true
		}
	}
	return false
}
