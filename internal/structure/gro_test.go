package structure

import (
	"bytes"
	"strings"
	"testing"
)

const sampleGRO = `MMT test box
6
    1SOL     OW    1   0.126   0.162   0.198
    1SOL    HW1    2   0.190   0.162   0.198
    1SOL    HW2    3   0.100   0.100   0.100
    2SOL     OW    4   1.000   1.100   1.200
    2SOL    HW1    5   1.050   1.100   1.200
    2SOL    HW2    6   1.000   1.150   1.200
   3.00000   3.00000   3.00000
`

func TestReadGRO(t *testing.T) {
	m, err := ReadGRO(strings.NewReader(sampleGRO))
	if err != nil {
		t.Fatalf("ReadGRO error: %v", err)
	}
	if m.Title != "MMT test box" {
		t.Errorf("title = %q, want %q", m.Title, "MMT test box")
	}
	if len(m.Atoms) != 6 {
		t.Fatalf("got %d atoms, want 6", len(m.Atoms))
	}
	a := m.Atoms[0]
	if a.Residue != "SOL" || a.Name != "OW" || a.ResID != 1 {
		t.Errorf("first atom = %+v", a)
	}
	// Coordinates are converted from nm to Å on read.
	want := [3]float64{1.26, 1.62, 1.98}
	for ax := range want {
		if diff := a.Pos[ax] - want[ax]; diff > 1e-9 || diff < -1e-9 {
			t.Errorf("first atom position = %v, want %v", a.Pos, want)
			break
		}
	}
	if m.Box.X != 30 || m.Box.Y != 30 || m.Box.Z != 30 {
		t.Errorf("box = %+v, want 30x30x30 Å", m.Box)
	}
}

func TestReadGRONineFieldBox(t *testing.T) {
	in := strings.Replace(sampleGRO,
		"   3.00000   3.00000   3.00000",
		"   3.00000   3.00000   3.00000   0.00000   0.00000   0.00000   0.00000   0.00000   0.00000", 1)
	m, err := ReadGRO(strings.NewReader(in))
	if err != nil {
		t.Fatalf("ReadGRO error: %v", err)
	}
	if m.Box.Z != 30 {
		t.Errorf("box z = %v, want 30", m.Box.Z)
	}
}

func TestReadGRORejectsTriclinic(t *testing.T) {
	in := strings.Replace(sampleGRO,
		"   3.00000   3.00000   3.00000",
		"   3.00000   3.00000   3.00000   0.00000   0.00000   1.50000   0.00000   0.00000   0.00000", 1)
	if _, err := ReadGRO(strings.NewReader(in)); err == nil {
		t.Fatal("triclinic box accepted, want error")
	}
}

func TestReadGROTruncated(t *testing.T) {
	lines := strings.Split(sampleGRO, "\n")
	in := strings.Join(lines[:4], "\n")
	if _, err := ReadGRO(strings.NewReader(in)); err == nil {
		t.Fatal("truncated file accepted, want error")
	}
}

func TestWriteGRORoundTrip(t *testing.T) {
	m, err := ReadGRO(strings.NewReader(sampleGRO))
	if err != nil {
		t.Fatalf("ReadGRO error: %v", err)
	}
	var buf bytes.Buffer
	if err := WriteGRO(&buf, m); err != nil {
		t.Fatalf("WriteGRO error: %v", err)
	}
	back, err := ReadGRO(&buf)
	if err != nil {
		t.Fatalf("ReadGRO of written output: %v", err)
	}
	if len(back.Atoms) != len(m.Atoms) {
		t.Fatalf("round trip lost atoms: %d != %d", len(back.Atoms), len(m.Atoms))
	}
	for i := range m.Atoms {
		if back.Atoms[i] != m.Atoms[i] {
			t.Errorf("atom %d changed: %+v != %+v", i, back.Atoms[i], m.Atoms[i])
		}
	}
	if back.Box != m.Box {
		t.Errorf("box changed: %+v != %+v", back.Box, m.Box)
	}
}
