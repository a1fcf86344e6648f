package assembly

import (
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
)

// NoSheet marks a filename request without a sheet index.
const NoSheet = -1

// knownModifiers are emitted first, in this fixed order; unknown modifiers
// follow, sorted. The normalization makes filenames independent of request
// order, which idempotent re-runs and backup rotation rely on.
var knownModifiers = []string{"solv", "ions"}

// Filename derives the canonical coordinate file path for a stage artifact
// from the stem, the requested modifiers, an optional sheet index and an
// optional top/center/bottom tag.
func Filename(dir, stem string, modifiers []string, sheetNum int, tcb string) (string, error) {
	switch tcb {
	case "", "T", "C", "B":
	default:
		return "", fmt.Errorf("invalid top/center/bottom tag %q: accepted values are T, C, B", tcb)
	}

	name := stem
	if sheetNum != NoSheet {
		name += "_" + strconv.Itoa(sheetNum)
	}
	if tcb != "" {
		name += "_" + tcb
	}

	requested := make(map[string]bool, len(modifiers))
	for _, m := range modifiers {
		requested[m] = true
	}
	var ordered []string
	for _, m := range knownModifiers {
		if requested[m] {
			ordered = append(ordered, m)
			delete(requested, m)
		}
	}
	var rest []string
	for m := range requested {
		rest = append(rest, m)
	}
	sort.Strings(rest)
	ordered = append(ordered, rest...)

	for _, m := range ordered {
		name += "_" + m
	}
	return filepath.Join(dir, name+".gro"), nil
}
