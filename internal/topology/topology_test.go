package topology

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/claybuild/claybuild/internal/structure"
)

func TestTopPath(t *testing.T) {
	if got := TopPath("/tmp/mmt_solv.gro"); got != "/tmp/mmt_solv.top" {
		t.Errorf("TopPath = %q, want %q", got, "/tmp/mmt_solv.top")
	}
}

func TestWriteDerivesMoleculeBlocks(t *testing.T) {
	m := &structure.Model{
		Atoms: []structure.Atom{
			{Name: "ST", Residue: "D21", ResID: 1},
			{Name: "ST", Residue: "D21", ResID: 2},
			{Name: "OW", Residue: "SOL", ResID: 3},
			{Name: "OW", Residue: "SOL", ResID: 4},
			{Name: "OW", Residue: "SOL", ResID: 5},
			{Name: "Na", Residue: "Na", ResID: 6},
			{Name: "OW", Residue: "SOL", ResID: 7},
		},
	}
	path := filepath.Join(t.TempDir(), "mmt.top")
	w := NewWriter([]string{"clayff.ff/forcefield.itp", "clayff.ff/spc.itp"}, "MMT test")
	if err := w.Write(path, m); err != nil {
		t.Fatalf("Write error: %v", err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read topology: %v", err)
	}
	got := string(raw)

	for _, want := range []string{
		`#include "clayff.ff/forcefield.itp"`,
		"[ system ]",
		"MMT test",
		"[ molecules ]",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("topology missing %q:\n%s", want, got)
		}
	}

	// Consecutive same-name residues collapse into one block; the SOL run
	// after the ion starts a new block.
	idx := strings.Index(got, "[ molecules ]")
	lines := strings.Split(strings.TrimSpace(got[idx:]), "\n")[1:]
	want := []string{"D21 2", "SOL 3", "Na 1", "SOL 1"}
	if len(lines) != len(want) {
		t.Fatalf("got %d molecule blocks, want %d:\n%s", len(lines), len(want), got)
	}
	for i, ln := range lines {
		if strings.Join(strings.Fields(ln), " ") != want[i] {
			t.Errorf("block %d = %q, want %q", i, ln, want[i])
		}
	}
}
