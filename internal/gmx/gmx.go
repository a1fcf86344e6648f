// Package gmx wraps the external GROMACS-compatible engine behind typed
// service interfaces. The assembly pipeline never sees raw command output;
// every invocation returns structured counts or a status enum parsed from
// the engine's report.
package gmx

import "context"

// SolvateRequest asks the engine to fill a box with solvent molecules.
// All lengths are in Å; conversion to engine units happens in the runner.
type SolvateRequest struct {
	// Structure is an optional existing structure to solvate into.
	Structure string
	// Topology is the topology file updated with the inserted molecules.
	Topology string
	// Output is the structure file the engine writes.
	Output string
	// Box is the target box (x, y, z) when no Structure is given.
	Box [3]float64
	// MaxSol caps the number of inserted molecules; 0 means fill the box.
	MaxSol int
	// SolventBox names the pre-equilibrated solvent configuration.
	SolventBox string
	// Scale is the van der Waals radius scaling factor.
	Scale float64
	// Radius is the default solute exclusion radius.
	Radius float64
}

// SolvateResult reports a solvation run.
type SolvateResult struct {
	// Inserted is the molecule count parsed from the engine report.
	Inserted int
	// Report is the raw engine output kept for trace logging.
	Report string
}

// InsertRequest asks the engine to place N copies of a template molecule
// inside a structure, replacing overlapping solvent.
type InsertRequest struct {
	Structure string
	Template  string
	// Positions is a file of candidate insertion positions.
	Positions string
	N         int
	Output    string
	// Replace names the residue whose molecules may be displaced.
	Replace string
	// Jitter is the random displacement applied around each position, in Å.
	Jitter [3]float64
}

// InsertResult reports an insertion run.
type InsertResult struct {
	// Inserted is the placed-copy count parsed from the engine report.
	Inserted int
	Report   string
}

// EMStatus is the outcome of an energy minimization.
type EMStatus int

const (
	// EMNotConverged means the run finished without reaching the force
	// tolerance. Recoverable by caller-level retry.
	EMNotConverged EMStatus = iota
	// EMConverged means the structure relaxed below the force tolerance.
	EMConverged
)

func (s EMStatus) String() string {
	if s == EMConverged {
		return "converged"
	}
	return "not converged"
}

// EMRequest asks the engine to relax a structure.
type EMRequest struct {
	Structure string
	Topology  string
	// OutDir receives the run artifacts; Name is their common stem.
	OutDir string
	Name   string
	// Params are MDP key/value overrides applied on top of the defaults.
	Params map[string]string
	// FreezeGroups lists residue groups to immobilize; FreezeDims selects
	// the axes frozen for each group.
	FreezeGroups []string
	FreezeDims   [3]bool
	// MaxWarn is passed through to the preprocessor.
	MaxWarn int
}

// Solvator fills boxes with solvent.
type Solvator interface {
	Solvate(ctx context.Context, req SolvateRequest) (SolvateResult, error)
}

// Inserter places molecule copies into structures.
type Inserter interface {
	InsertMolecules(ctx context.Context, req InsertRequest) (InsertResult, error)
}

// Minimizer relaxes structures. A hard engine failure is returned as an
// error; NotConverged is a valid status, not an error.
type Minimizer interface {
	Minimize(ctx context.Context, req EMRequest) (EMStatus, error)
}

// Engine bundles the three collaborator services the pipeline consumes.
type Engine interface {
	Solvator
	Inserter
	Minimizer
}
