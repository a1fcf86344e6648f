package ions

import (
	"errors"
	"testing"
)

func TestNeutralizeSingleSpecies(t *testing.T) {
	table := Ratios{
		{Species: Species{Name: "Na", Charge: 1}, Weight: 1},
	}
	counts, err := table.Neutralize(-8)
	if err != nil {
		t.Fatalf("Neutralize(-8) error: %v", err)
	}
	if len(counts) != 1 || counts[0].Name != "Na" || counts[0].N != 8 {
		t.Errorf("got %+v, want 8 Na", counts)
	}
	if got := TotalCharge(counts); got != 8 {
		t.Errorf("total charge = %d, want 8", got)
	}
}

func TestNeutralizeRatioSplit(t *testing.T) {
	table := Ratios{
		{Species: Species{Name: "Na", Charge: 1}, Weight: 1},
		{Species: Species{Name: "Ca", Charge: 2}, Weight: 1},
	}
	counts, err := table.Neutralize(-20)
	if err != nil {
		t.Fatalf("Neutralize(-20) error: %v", err)
	}
	if got := TotalCharge(counts); got != 20 {
		t.Errorf("total charge = %d, want 20", got)
	}
	// Equal weights over charges 1 and 2 split as floor(20/3) each, with the
	// residual completed by a single species.
	byName := map[string]int{}
	for _, c := range counts {
		byName[c.Name] = c.N
	}
	if byName["Ca"] < 6 || byName["Na"] < 6 {
		t.Errorf("ratio split not honored: %+v", byName)
	}
}

func TestNeutralizePositiveLattice(t *testing.T) {
	table := Ratios{
		{Species: Species{Name: "Cl", Charge: -1}, Weight: 1},
	}
	counts, err := table.Neutralize(5)
	if err != nil {
		t.Fatalf("Neutralize(5) error: %v", err)
	}
	if got := TotalCharge(counts); got != -5 {
		t.Errorf("total charge = %d, want -5", got)
	}
}

func TestNeutralizeZeroTarget(t *testing.T) {
	table := Ratios{
		{Species: Species{Name: "Na", Charge: 1}, Weight: 1},
	}
	counts, err := table.Neutralize(0)
	if err != nil {
		t.Fatalf("Neutralize(0) error: %v", err)
	}
	if len(counts) != 0 {
		t.Errorf("got %+v, want empty set", counts)
	}
}

func TestNeutralizeNoMatchingSign(t *testing.T) {
	table := Ratios{
		{Species: Species{Name: "Cl", Charge: -1}, Weight: 1},
	}
	_, err := table.Neutralize(-4)
	if !errors.Is(err, ErrNoExactSolution) {
		t.Errorf("got %v, want ErrNoExactSolution", err)
	}
}

func TestNeutralizeNoExactSolution(t *testing.T) {
	// Charge 3 cannot complete a residual of 1 or 2.
	table := Ratios{
		{Species: Species{Name: "Al", Charge: 3}, Weight: 1},
	}
	_, err := table.Neutralize(-7)
	if !errors.Is(err, ErrNoExactSolution) {
		t.Errorf("got %v, want ErrNoExactSolution", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		table   Ratios
		wantErr bool
	}{
		{"empty table", Ratios{}, true},
		{"zero charge", Ratios{{Species: Species{Name: "X", Charge: 0}, Weight: 1}}, true},
		{"negative weight", Ratios{{Species: Species{Name: "Na", Charge: 1}, Weight: -1}}, true},
		{"valid", Ratios{{Species: Species{Name: "Na", Charge: 1}, Weight: 1}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.table.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLedger(t *testing.T) {
	var l Ledger
	l.Add(Species{Name: "Na", Charge: 1}, 6)
	l.Add(Species{Name: "Cl", Charge: -1}, 2)
	if got := l.Total(); got != 4 {
		t.Errorf("Total() = %d, want 4", got)
	}
	if !l.Neutral(-4) {
		t.Errorf("Neutral(-4) = false, want true")
	}
	if l.Neutral(0) {
		t.Errorf("Neutral(0) = true, want false")
	}
	if got := len(l.Entries()); got != 2 {
		t.Errorf("Entries() has %d entries, want 2", got)
	}
}
