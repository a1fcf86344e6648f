package sheet

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/claybuild/claybuild/internal/structure"
	"github.com/claybuild/claybuild/internal/unitcell"
)

func testLibrary(t *testing.T) *unitcell.Library {
	t.Helper()
	lib, err := unitcell.Open(filepath.Join(t.TempDir(), "cells.db"))
	if err != nil {
		t.Fatalf("open library: %v", err)
	}
	t.Cleanup(func() { lib.Close() })

	if err := lib.SetDimensions([3]float64{5.0, 9.0, 10.0}); err != nil {
		t.Fatalf("set dimensions: %v", err)
	}
	if err := lib.AddVariant(unitcell.Variant{
		ID: "D21", Charge: 0,
		Atoms: []structure.Atom{
			{Name: "ST", Pos: [3]float64{1, 1, 1}},
			{Name: "OB", Pos: [3]float64{2, 2, 9}},
		},
	}); err != nil {
		t.Fatalf("add variant: %v", err)
	}
	if err := lib.AddVariant(unitcell.Variant{
		ID: "D22", Charge: -1,
		Atoms: []structure.Atom{
			{Name: "MG", Pos: [3]float64{1.5, 1.5, 5}},
			{Name: "OB", Pos: [3]float64{2.5, 2.5, 8}},
			{Name: "HO", Pos: [3]float64{3, 3, 2}},
		},
	}); err != nil {
		t.Fatalf("add variant: %v", err)
	}
	return lib
}

func TestSpecValidate(t *testing.T) {
	tests := []struct {
		name    string
		spec    Spec
		wantErr bool
	}{
		{"fills grid", Spec{UCIDs: []string{"a", "b"}, Counts: []int{3, 1}, XCells: 2, YCells: 2}, false},
		{"under-filled", Spec{UCIDs: []string{"a"}, Counts: []int{3}, XCells: 2, YCells: 2}, true},
		{"over-filled", Spec{UCIDs: []string{"a"}, Counts: []int{5}, XCells: 2, YCells: 2}, true},
		{"no variants", Spec{XCells: 2, YCells: 2}, true},
		{"mismatched lengths", Spec{UCIDs: []string{"a", "b"}, Counts: []int{4}, XCells: 2, YCells: 2}, true},
		{"negative count", Spec{UCIDs: []string{"a", "b"}, Counts: []int{5, -1}, XCells: 2, YCells: 2}, true},
		{"zero grid", Spec{UCIDs: []string{"a"}, Counts: []int{0}, XCells: 0, YCells: 2}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.spec.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSheetDimensionsAndCharge(t *testing.T) {
	lib := testLibrary(t)
	s, err := New(lib, Spec{
		UCIDs:  []string{"D21", "D22"},
		Counts: []int{3, 1},
		XCells: 2, YCells: 2,
	}, "mmt", t.TempDir())
	if err != nil {
		t.Fatalf("New error: %v", err)
	}

	dims := s.Dimensions()
	if dims[0] != 10 || dims[1] != 18 || dims[2] != 10 {
		t.Errorf("Dimensions = %v, want [10 18 10]", dims)
	}
	if got := s.Charge(); got != -1 {
		t.Errorf("Charge = %d, want -1", got)
	}
}

func TestWriteCoordinatesComposition(t *testing.T) {
	lib := testLibrary(t)
	dir := t.TempDir()
	s, err := New(lib, Spec{
		UCIDs:  []string{"D21", "D22"},
		Counts: []int{3, 1},
		XCells: 2, YCells: 2,
	}, "mmt", dir)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}

	h, err := s.WriteCoordinates(0)
	if err != nil {
		t.Fatalf("WriteCoordinates error: %v", err)
	}
	m, err := h.Model()
	if err != nil {
		t.Fatalf("Model error: %v", err)
	}

	// 3 cells of the 2-atom variant plus 1 cell of the 3-atom variant.
	if got := len(m.Atoms); got != 9 {
		t.Fatalf("got %d atoms, want 9", got)
	}
	byVariant := map[string]int{}
	for _, res := range m.Residues() {
		byVariant[res.Name]++
	}
	if byVariant["D21"] != 3 || byVariant["D22"] != 1 {
		t.Errorf("composition = %v, want 3 D21 and 1 D22", byVariant)
	}

	// Positions stay within the tiled sheet box.
	for _, a := range m.Atoms {
		if a.Pos[0] < 0 || a.Pos[0] > m.Box.X || a.Pos[1] < 0 || a.Pos[1] > m.Box.Y {
			t.Errorf("atom outside sheet box: %+v", a)
		}
	}
}

func TestWriteCoordinatesDeterministic(t *testing.T) {
	lib := testLibrary(t)
	dir := t.TempDir()
	s, err := New(lib, Spec{
		UCIDs:  []string{"D21", "D22"},
		Counts: []int{3, 1},
		XCells: 2, YCells: 2,
	}, "mmt", dir)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}

	if _, err := s.WriteCoordinates(1); err != nil {
		t.Fatalf("WriteCoordinates error: %v", err)
	}
	first, err := os.ReadFile(s.Filename(1))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.WriteCoordinates(1); err != nil {
		t.Fatalf("WriteCoordinates error: %v", err)
	}
	second, err := os.ReadFile(s.Filename(1))
	if err != nil {
		t.Fatal(err)
	}
	if string(first) != string(second) {
		t.Error("same sheet index produced different coordinates")
	}
}

func TestUCArraySorted(t *testing.T) {
	lib := testLibrary(t)
	s, err := New(lib, Spec{
		UCIDs:  []string{"D22", "D21"},
		Counts: []int{1, 3},
		XCells: 2, YCells: 2,
	}, "mmt", t.TempDir())
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	arr := s.UCArray()
	want := []string{"D21", "D21", "D21", "D22"}
	if len(arr) != len(want) {
		t.Fatalf("UCArray length = %d, want %d", len(arr), len(want))
	}
	for i := range want {
		if arr[i] != want[i] {
			t.Errorf("UCArray[%d] = %q, want %q", i, arr[i], want[i])
		}
	}
}
