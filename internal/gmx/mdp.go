package gmx

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
)

// EMDefaults are the baseline minimization parameters. Build configurations
// may override any key.
func EMDefaults() map[string]string {
	return map[string]string{
		"integrator":    "steep",
		"emtol":         "100.0",
		"emstep":        "0.01",
		"nsteps":        "50000",
		"cutoff-scheme": "Verlet",
		"nstlist":       "10",
		"rlist":         "1.0",
		"rcoulomb":      "1.0",
		"rvdw":          "1.0",
		"pbc":           "xyz",
	}
}

// WriteMDP writes a parameter file with the given settings, applying freeze
// groups on top when requested. Keys are emitted in sorted order so repeated
// runs produce byte-identical files.
func WriteMDP(path string, params map[string]string, freezeGroups []string, freezeDims [3]bool) error {
	merged := make(map[string]string, len(params)+2)
	for k, v := range params {
		merged[k] = v
	}
	if len(freezeGroups) > 0 {
		merged["freezegrps"] = strings.Join(freezeGroups, " ")
		dim := make([]string, 0, 3*len(freezeGroups))
		for range freezeGroups {
			for _, frozen := range freezeDims {
				if frozen {
					dim = append(dim, "Y")
				} else {
					dim = append(dim, "N")
				}
			}
		}
		merged["freezedim"] = strings.Join(dim, " ")
	}
	keys := make([]string, 0, len(merged))
	for k := range merged {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, "%-20s = %s\n", k, merged[k])
	}
	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("write mdp %s: %w", path, err)
	}
	return nil
}

// CheckBoxLengths verifies the box satisfies the minimum image convention
// for the configured cutoffs: every box edge must exceed twice the largest
// cutoff. Dims are in Å; cutoffs in the parameter map are in nm.
func CheckBoxLengths(params map[string]string, dims []float64) error {
	var maxCutoff float64
	for _, key := range []string{"rlist", "rcoulomb", "rvdw"} {
		v, ok := params[key]
		if !ok {
			continue
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return fmt.Errorf("invalid %s value %q: %w", key, v, err)
		}
		if f > maxCutoff {
			maxCutoff = f
		}
	}
	minEdge := 2 * maxCutoff * 10 // nm to Å
	for ax, d := range dims {
		if d < minEdge {
			return fmt.Errorf("box edge %d is %.2f Å, below the %.2f Å minimum for a %.2f nm cutoff",
				ax, d, minEdge, maxCutoff)
		}
	}
	return nil
}
