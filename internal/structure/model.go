// Package structure provides file-backed molecular structure handles for the
// claybuild pipeline. A Handle owns one GRO-format coordinate file; mutating
// its in-memory Model and calling Write is the only path that persists
// changes. Handles are the unit of ownership passed between pipeline stages.
package structure

import (
	"math"
	"sort"
)

// Atom is one atom record: name, residue assignment and position.
// Positions are stored in Å throughout; conversion to the nm units of the
// GRO format happens only at the file boundary.
type Atom struct {
	Name    string
	Residue string
	ResID   int
	Pos     [3]float64
}

// Box holds the simulation box dimensions: three edge lengths in Å and
// three angles in degrees.
type Box struct {
	X, Y, Z            float64
	Alpha, Beta, Gamma float64
}

// Rectangular reports whether all box angles are 90°.
func (b Box) Rectangular() bool {
	return b.Alpha == 90 && b.Beta == 90 && b.Gamma == 90
}

// NewBox returns a rectangular box with the given edge lengths in Å.
func NewBox(x, y, z float64) Box {
	return Box{X: x, Y: y, Z: z, Alpha: 90, Beta: 90, Gamma: 90}
}

// Model is an in-memory structure: a title, an atom list and a box.
type Model struct {
	Title string
	Atoms []Atom
	Box   Box
}

// Copy returns a deep copy of the model.
func (m *Model) Copy() *Model {
	atoms := make([]Atom, len(m.Atoms))
	copy(atoms, m.Atoms)
	return &Model{Title: m.Title, Atoms: atoms, Box: m.Box}
}

// Translate shifts every atom position by (dx, dy, dz).
func (m *Model) Translate(dx, dy, dz float64) {
	for i := range m.Atoms {
		m.Atoms[i].Pos[0] += dx
		m.Atoms[i].Pos[1] += dy
		m.Atoms[i].Pos[2] += dz
	}
}

// Wrap folds all atom positions back into the box along each axis.
func (m *Model) Wrap() {
	dims := [3]float64{m.Box.X, m.Box.Y, m.Box.Z}
	for i := range m.Atoms {
		for ax, d := range dims {
			if d <= 0 {
				continue
			}
			p := math.Mod(m.Atoms[i].Pos[ax], d)
			if p < 0 {
				p += d
			}
			m.Atoms[i].Pos[ax] = p
		}
	}
}

// Select returns a new model holding copies of the atoms matching pred.
// The box is carried over unchanged.
func (m *Model) Select(pred func(Atom) bool) *Model {
	out := &Model{Title: m.Title, Box: m.Box}
	for _, a := range m.Atoms {
		if pred(a) {
			out.Atoms = append(out.Atoms, a)
		}
	}
	return out
}

// Count returns the number of atoms matching pred.
func (m *Model) Count(pred func(Atom) bool) int {
	n := 0
	for _, a := range m.Atoms {
		if pred(a) {
			n++
		}
	}
	return n
}

// Residue is a contiguous run of atoms sharing a residue id.
type Residue struct {
	Name  string
	ResID int
	// Atoms holds indices into the parent model's atom slice.
	Atoms []int
}

// Residues groups the model's atoms into residues. Atoms belong to the same
// residue when they are contiguous and share a ResID.
func (m *Model) Residues() []Residue {
	var out []Residue
	for i, a := range m.Atoms {
		n := len(out)
		if n == 0 || out[n-1].ResID != a.ResID || out[n-1].Name != a.Residue {
			out = append(out, Residue{Name: a.Residue, ResID: a.ResID})
			n++
		}
		out[n-1].Atoms = append(out[n-1].Atoms, i)
	}
	return out
}

// RenumberResidues reassigns sequential residue ids starting at 1, keeping
// the existing residue grouping. Merged and concatenated models call this to
// restore a consistent numbering.
func (m *Model) RenumberResidues() {
	next := 0
	lastID := math.MinInt
	lastName := ""
	for i, a := range m.Atoms {
		if a.ResID != lastID || a.Residue != lastName {
			next++
			lastID, lastName = a.ResID, a.Residue
		}
		m.Atoms[i].ResID = next
	}
}

// ZExtent returns the minimum and maximum z coordinate over atoms matching
// pred. ok is false when no atom matches.
func (m *Model) ZExtent(pred func(Atom) bool) (zmin, zmax float64, ok bool) {
	zmin, zmax = math.Inf(1), math.Inf(-1)
	for _, a := range m.Atoms {
		if !pred(a) {
			continue
		}
		ok = true
		if a.Pos[2] < zmin {
			zmin = a.Pos[2]
		}
		if a.Pos[2] > zmax {
			zmax = a.Pos[2]
		}
	}
	return zmin, zmax, ok
}

// OutsideZ returns a model holding the residues of atoms matching pred that
// lie entirely outside the z interval [lo-margin, hi+margin]. A residue with
// any atom inside the widened interval is excluded as a whole; partial
// residues never appear in the result.
func (m *Model) OutsideZ(lo, hi, margin float64, pred func(Atom) bool) *Model {
	lo -= margin
	hi += margin
	outside := func(a Atom) bool {
		return a.Pos[2] < lo || a.Pos[2] > hi
	}
	keep := make(map[int]bool)
	for _, res := range m.Residues() {
		matches := false
		whole := true
		for _, i := range res.Atoms {
			a := m.Atoms[i]
			if !pred(a) {
				whole = false
				break
			}
			matches = true
			if !outside(a) {
				whole = false
				break
			}
		}
		if matches && whole {
			for _, i := range res.Atoms {
				keep[i] = true
			}
		}
	}
	out := &Model{Title: m.Title, Box: m.Box}
	for i, a := range m.Atoms {
		if keep[i] {
			out.Atoms = append(out.Atoms, a)
		}
	}
	return out
}

// Remove returns a new model without the atoms matching pred.
func (m *Model) Remove(pred func(Atom) bool) *Model {
	return m.Select(func(a Atom) bool { return !pred(a) })
}

// RemoveResiduesOf returns a new model without any residue that contains an
// atom matching pred. Removal operates on whole residues so molecules are
// never split.
func (m *Model) RemoveResiduesOf(pred func(Atom) bool) *Model {
	drop := make(map[int]bool)
	for _, res := range m.Residues() {
		for _, i := range res.Atoms {
			if pred(m.Atoms[i]) {
				for _, j := range res.Atoms {
					drop[j] = true
				}
				break
			}
		}
	}
	out := &Model{Title: m.Title, Box: m.Box}
	for i, a := range m.Atoms {
		if !drop[i] {
			out.Atoms = append(out.Atoms, a)
		}
	}
	return out
}

// RenameResidues replaces residue name from with to on every atom.
func (m *Model) RenameResidues(from, to string) {
	for i := range m.Atoms {
		if m.Atoms[i].Residue == from {
			m.Atoms[i].Residue = to
		}
	}
}

// RollResiduePositions cyclically rotates the positions of the residues
// matching pred by one residue: residue k takes the coordinates previously
// held by residue k-1. Atom identities stay in place, so the rotation acts
// as a reproducible positional jitter.
func (m *Model) RollResiduePositions(pred func(Atom) bool) {
	var groups []Residue
	for _, res := range m.Residues() {
		if len(res.Atoms) > 0 && pred(m.Atoms[res.Atoms[0]]) {
			groups = append(groups, res)
		}
	}
	if len(groups) < 2 {
		return
	}
	saved := make([][][3]float64, len(groups))
	for gi, res := range groups {
		saved[gi] = make([][3]float64, len(res.Atoms))
		for k, i := range res.Atoms {
			saved[gi][k] = m.Atoms[i].Pos
		}
	}
	for gi, res := range groups {
		src := saved[(gi+len(groups)-1)%len(groups)]
		if len(src) != len(res.Atoms) {
			continue
		}
		for k, i := range res.Atoms {
			m.Atoms[i].Pos = src[k]
		}
	}
}

// CenterZ translates all atoms so the midpoint of the atoms matching pred
// sits at the given z coordinate.
func (m *Model) CenterZ(pred func(Atom) bool, z float64) {
	zmin, zmax, ok := m.ZExtent(pred)
	if !ok {
		return
	}
	m.Translate(0, 0, z-(zmin+zmax)/2)
}

// ResidueNames returns the sorted set of distinct residue names matching pred.
func (m *Model) ResidueNames(pred func(Atom) bool) []string {
	seen := make(map[string]bool)
	for _, a := range m.Atoms {
		if pred(a) {
			seen[a.Residue] = true
		}
	}
	names := make([]string, 0, len(seen))
	for n := range seen {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Merge concatenates the atoms of the given models after the receiver's,
// returning a new model. The receiver's title and box are kept; callers
// adjust the box and renumber residues afterwards.
func (m *Model) Merge(others ...*Model) *Model {
	out := m.Copy()
	for _, o := range others {
		out.Atoms = append(out.Atoms, o.Atoms...)
	}
	return out
}
