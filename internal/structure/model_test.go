package structure

import (
	"testing"
)

func water(resID int, z float64) []Atom {
	return []Atom{
		{Name: "OW", Residue: "SOL", ResID: resID, Pos: [3]float64{1, 1, z}},
		{Name: "HW1", Residue: "SOL", ResID: resID, Pos: [3]float64{1.5, 1, z}},
		{Name: "HW2", Residue: "SOL", ResID: resID, Pos: [3]float64{1, 1.5, z}},
	}
}

func isSOL(a Atom) bool { return a.Residue == "SOL" }

func TestWrap(t *testing.T) {
	m := &Model{
		Atoms: []Atom{
			{Name: "X", Residue: "R", ResID: 1, Pos: [3]float64{-1, 35, 12}},
		},
		Box: NewBox(30, 30, 30),
	}
	m.Wrap()
	got := m.Atoms[0].Pos
	if got[0] != 29 || got[1] != 5 || got[2] != 12 {
		t.Errorf("wrapped position = %v, want [29 5 12]", got)
	}
}

func TestRenumberResidues(t *testing.T) {
	m := &Model{}
	m.Atoms = append(m.Atoms, water(7, 1)...)
	m.Atoms = append(m.Atoms, water(7, 2)...) // same id, same name: one residue
	m.Atoms = append(m.Atoms, water(12, 3)...)
	m.Atoms = append(m.Atoms, Atom{Name: "Na", Residue: "Na", ResID: 12})

	m.RenumberResidues()

	if got := m.Atoms[0].ResID; got != 1 {
		t.Errorf("first residue id = %d, want 1", got)
	}
	if got := m.Atoms[6].ResID; got != 2 {
		t.Errorf("second residue id = %d, want 2", got)
	}
	// Same ResID but a different residue name starts a new residue.
	if got := m.Atoms[9].ResID; got != 3 {
		t.Errorf("ion residue id = %d, want 3", got)
	}
}

func TestResidues(t *testing.T) {
	m := &Model{}
	m.Atoms = append(m.Atoms, water(1, 1)...)
	m.Atoms = append(m.Atoms, water(2, 2)...)
	res := m.Residues()
	if len(res) != 2 {
		t.Fatalf("got %d residues, want 2", len(res))
	}
	if len(res[0].Atoms) != 3 || res[0].Name != "SOL" {
		t.Errorf("first residue = %+v", res[0])
	}
}

func TestOutsideZExcludesPartialResidues(t *testing.T) {
	m := &Model{Box: NewBox(30, 30, 60)}
	m.Atoms = append(m.Atoms, water(1, 50)...) // fully outside
	m.Atoms = append(m.Atoms, water(2, 20)...) // fully inside
	// Straddling residue: one atom inside the widened interval.
	m.Atoms = append(m.Atoms,
		Atom{Name: "OW", Residue: "SOL", ResID: 3, Pos: [3]float64{1, 1, 41}},
		Atom{Name: "HW1", Residue: "SOL", ResID: 3, Pos: [3]float64{1, 1, 39}},
		Atom{Name: "HW2", Residue: "SOL", ResID: 3, Pos: [3]float64{1, 1, 41.2}},
	)

	out := m.OutsideZ(10, 38, 1.5, isSOL)
	if got := len(out.Atoms); got != 3 {
		t.Fatalf("got %d atoms outside, want 3", got)
	}
	if out.Atoms[0].Pos[2] != 50 {
		t.Errorf("kept atom at z=%v, want the z=50 residue", out.Atoms[0].Pos[2])
	}
}

func TestRemoveResiduesOf(t *testing.T) {
	m := &Model{}
	m.Atoms = append(m.Atoms, water(1, 5)...)
	m.Atoms = append(m.Atoms, water(2, 50)...)
	kept := m.RemoveResiduesOf(func(a Atom) bool { return a.Pos[2] > 40 })
	if got := len(kept.Atoms); got != 3 {
		t.Fatalf("got %d atoms, want 3", got)
	}
	for _, a := range kept.Atoms {
		if a.Pos[2] > 40 {
			t.Errorf("atom at z=%v survived whole-residue removal", a.Pos[2])
		}
	}
}

func TestRollResiduePositions(t *testing.T) {
	m := &Model{
		Atoms: []Atom{
			{Name: "Na", Residue: "Na", ResID: 1, Pos: [3]float64{1, 0, 0}},
			{Name: "Na", Residue: "Na", ResID: 2, Pos: [3]float64{2, 0, 0}},
			{Name: "Na", Residue: "Na", ResID: 3, Pos: [3]float64{3, 0, 0}},
			{Name: "OW", Residue: "SOL", ResID: 4, Pos: [3]float64{9, 9, 9}},
		},
	}
	m.RollResiduePositions(func(a Atom) bool { return a.Residue == "Na" })

	want := [3]float64{3, 1, 2}
	for i := 0; i < 3; i++ {
		if m.Atoms[i].Pos[0] != want[i] {
			t.Errorf("ion %d at x=%v, want %v", i, m.Atoms[i].Pos[0], want[i])
		}
	}
	if m.Atoms[3].Pos != [3]float64{9, 9, 9} {
		t.Errorf("non-matching atom moved: %v", m.Atoms[3].Pos)
	}
}

func TestCenterZ(t *testing.T) {
	m := &Model{Box: NewBox(30, 30, 40)}
	m.Atoms = append(m.Atoms, water(1, 0)...)
	m.Atoms = append(m.Atoms, water(2, 10)...)
	m.CenterZ(isSOL, 20)
	zmin, zmax, ok := m.ZExtent(isSOL)
	if !ok {
		t.Fatal("no atoms matched")
	}
	if mid := (zmin + zmax) / 2; mid != 20 {
		t.Errorf("midpoint = %v, want 20", mid)
	}
}

func TestMergeAndResidueNames(t *testing.T) {
	a := &Model{Box: NewBox(30, 30, 30)}
	a.Atoms = append(a.Atoms, water(1, 1)...)
	b := &Model{}
	b.Atoms = append(b.Atoms, Atom{Name: "Na", Residue: "Na", ResID: 1})

	merged := a.Merge(b)
	if got := len(merged.Atoms); got != 4 {
		t.Fatalf("merged atom count = %d, want 4", got)
	}
	if got := len(a.Atoms); got != 3 {
		t.Errorf("receiver mutated: %d atoms", got)
	}
	names := merged.ResidueNames(func(Atom) bool { return true })
	if len(names) != 2 || names[0] != "Na" || names[1] != "SOL" {
		t.Errorf("ResidueNames = %v, want [Na SOL]", names)
	}
}
