// Package ions provides ion species bookkeeping for clay assembly: the
// configured ion-ratio table, the exact integer neutralization solver and
// the running charge ledger of a box region.
package ions

import (
	"errors"
	"fmt"
	"math"
)

// ErrNoExactSolution is returned when no integer ion combination from the
// configured table can neutralize a charge exactly. This is a fatal
// configuration error; approximate neutralization is never attempted.
var ErrNoExactSolution = errors.New("ions: charge cannot be neutralized exactly by configured species")

// Species is one ion species with its formal charge.
type Species struct {
	Name   string
	Charge int
}

// Ratio couples a species with its configured mixing weight.
type Ratio struct {
	Species
	Weight float64
}

// Ratios is an ordered ion-ratio table. Order matters: the single-species
// completion fallback walks the table front to back.
type Ratios []Ratio

// Validate checks the table for malformed entries.
func (r Ratios) Validate() error {
	if len(r) == 0 {
		return fmt.Errorf("ions: empty ion-ratio table")
	}
	for _, e := range r {
		if e.Name == "" {
			return fmt.Errorf("ions: ratio entry without species name")
		}
		if e.Charge == 0 {
			return fmt.Errorf("ions: species %s has zero charge", e.Name)
		}
		if e.Weight < 0 {
			return fmt.Errorf("ions: species %s has negative weight %v", e.Name, e.Weight)
		}
	}
	return nil
}

// Count is a species with the number of copies to insert.
type Count struct {
	Species
	N int
}

// TotalCharge sums charge × count over the set.
func TotalCharge(counts []Count) int {
	total := 0
	for _, c := range counts {
		total += c.Charge * c.N
	}
	return total
}

// Neutralize computes ion counts whose total charge equals exactly -target.
// The configured ratio weights are honored first (integer counts rounded
// down from the ideal ratio split); any remaining charge is completed with
// the first single species in table order whose charge divides the residual.
// If no exact integer combination exists, ErrNoExactSolution is returned.
//
// A zero target yields an empty set.
func (r Ratios) Neutralize(target int) ([]Count, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	want := -target
	if want == 0 {
		return nil, nil
	}

	// Only species whose charge counteracts the target can contribute.
	sign := 1
	if want < 0 {
		sign = -1
	}
	var usable Ratios
	for _, e := range r {
		if e.Charge*sign > 0 {
			usable = append(usable, e)
		}
	}
	if len(usable) == 0 {
		return nil, fmt.Errorf("%w: no species with charge sign matching %+d", ErrNoExactSolution, want)
	}

	// Ideal real-valued split along the configured weights, floored to
	// integer counts.
	var weightedCharge float64
	for _, e := range usable {
		weightedCharge += e.Weight * float64(e.Charge)
	}
	counts := make([]Count, len(usable))
	assigned := 0
	for i, e := range usable {
		n := 0
		if weightedCharge != 0 {
			n = int(math.Floor(e.Weight * float64(want) / weightedCharge))
		}
		if n < 0 {
			n = 0
		}
		counts[i] = Count{Species: e.Species, N: n}
		assigned += n * e.Charge
	}

	// Single-species completion of the residual.
	residual := want - assigned
	if residual != 0 {
		done := false
		for i := range counts {
			q := counts[i].Charge
			if residual%q == 0 && residual/q > 0 {
				counts[i].N += residual / q
				done = true
				break
			}
		}
		if !done {
			return nil, fmt.Errorf("%w: residual charge %+d after ratio split", ErrNoExactSolution, residual)
		}
	}

	out := counts[:0]
	for _, c := range counts {
		if c.N > 0 {
			out = append(out, c)
		}
	}
	if got := TotalCharge(out); got != want {
		return nil, fmt.Errorf("%w: solved %+d, want %+d", ErrNoExactSolution, got, want)
	}
	return out, nil
}

// Ledger tracks the ionic charge introduced into one box region. After a
// neutralization step, Total plus the pre-existing lattice charge must be
// zero.
type Ledger struct {
	entries []Count
}

// Add records count copies of a species.
func (l *Ledger) Add(s Species, n int) {
	l.entries = append(l.entries, Count{Species: s, N: n})
}

// Total returns the summed charge of all recorded insertions.
func (l *Ledger) Total() int {
	return TotalCharge(l.entries)
}

// Entries returns the recorded insertions in order.
func (l *Ledger) Entries() []Count {
	out := make([]Count, len(l.entries))
	copy(out, l.entries)
	return out
}

// Neutral reports whether the ledger balances the given lattice charge.
func (l *Ledger) Neutral(latticeCharge int) bool {
	return l.Total()+latticeCharge == 0
}
