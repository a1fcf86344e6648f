package gmx

import "testing"

func TestParseSolvateCount(t *testing.T) {
	report := `Generating solvent configuration
Will generate new solvent configuration of 4x4x1 boxes
Number of solvent molecules:   2178

Output configuration contains 6534 atoms`
	n, err := ParseSolvateCount(report)
	if err != nil {
		t.Fatalf("ParseSolvateCount error: %v", err)
	}
	if n != 2178 {
		t.Errorf("got %d, want 2178", n)
	}

	if _, err := ParseSolvateCount("nothing useful"); err == nil {
		t.Error("missing count accepted, want error")
	}
}

func TestParseInsertCount(t *testing.T) {
	tests := []struct {
		name   string
		report string
		want   int
	}{
		{"added form", "Processing...\nAdded 24 molecules (out of 24 requested)\n", 24},
		{"inserted form", "Inserted 7 molecules\n", 7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := ParseInsertCount(tt.report)
			if err != nil {
				t.Fatalf("ParseInsertCount error: %v", err)
			}
			if n != tt.want {
				t.Errorf("got %d, want %d", n, tt.want)
			}
		})
	}

	if _, err := ParseInsertCount("no placements here"); err == nil {
		t.Error("missing count accepted, want error")
	}
}

func TestParseReplaceCount(t *testing.T) {
	n, ok := ParseReplaceCount("Replaced 12 residues\n")
	if !ok || n != 12 {
		t.Errorf("got %d, %v, want 12, true", n, ok)
	}
	if _, ok := ParseReplaceCount("nothing replaced"); ok {
		t.Error("got ok=true for report without replacements")
	}
}

func TestParseEMStatus(t *testing.T) {
	status, err := ParseEMStatus("Steepest Descents converged to Fmax < 100 in 893 steps\n")
	if err != nil {
		t.Fatalf("ParseEMStatus error: %v", err)
	}
	if status != EMConverged {
		t.Errorf("got %v, want converged", status)
	}

	status, err = ParseEMStatus("Steepest Descents did not converge to Fmax < 100 in 50001 steps\n")
	if err != nil {
		t.Fatalf("ParseEMStatus error: %v", err)
	}
	if status != EMNotConverged {
		t.Errorf("got %v, want not converged", status)
	}

	if _, err := ParseEMStatus("segmentation fault"); err == nil {
		t.Error("inconclusive report accepted, want error")
	}
}
