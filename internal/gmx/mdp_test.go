package gmx

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestWriteMDPFreezeGroups(t *testing.T) {
	path := filepath.Join(t.TempDir(), "em.mdp")
	params := map[string]string{"integrator": "steep", "emtol": "100.0"}
	if err := WriteMDP(path, params, []string{"D21", "D22"}, [3]bool{true, true, true}); err != nil {
		t.Fatalf("WriteMDP error: %v", err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	got := string(raw)
	if !strings.Contains(got, "freezegrps") || !strings.Contains(got, "D21 D22") {
		t.Errorf("freeze groups missing:\n%s", got)
	}
	if !strings.Contains(got, "Y Y Y Y Y Y") {
		t.Errorf("freeze dims missing, want one YYY triple per group:\n%s", got)
	}
	// Input params must not be mutated.
	if _, ok := params["freezegrps"]; ok {
		t.Error("WriteMDP mutated the input parameter map")
	}
}

func TestWriteMDPDeterministic(t *testing.T) {
	dir := t.TempDir()
	params := EMDefaults()
	a := filepath.Join(dir, "a.mdp")
	b := filepath.Join(dir, "b.mdp")
	if err := WriteMDP(a, params, nil, [3]bool{}); err != nil {
		t.Fatal(err)
	}
	if err := WriteMDP(b, params, nil, [3]bool{}); err != nil {
		t.Fatal(err)
	}
	ra, _ := os.ReadFile(a)
	rb, _ := os.ReadFile(b)
	if string(ra) != string(rb) {
		t.Error("repeated WriteMDP produced different files")
	}
}

func TestCheckBoxLengths(t *testing.T) {
	params := map[string]string{"rlist": "1.0", "rcoulomb": "1.0", "rvdw": "1.25"}

	// Edges must exceed 2 * 1.25 nm = 25 Å.
	if err := CheckBoxLengths(params, []float64{30, 30, 40}); err != nil {
		t.Errorf("valid box rejected: %v", err)
	}
	if err := CheckBoxLengths(params, []float64{30, 24, 40}); err == nil {
		t.Error("undersized edge accepted, want error")
	}
	if err := CheckBoxLengths(map[string]string{}, []float64{1}); err != nil {
		t.Errorf("no cutoffs configured, any box should pass: %v", err)
	}
	if err := CheckBoxLengths(map[string]string{"rlist": "oops"}, []float64{30}); err == nil {
		t.Error("unparsable cutoff accepted, want error")
	}
}
