package gmx

import (
	"fmt"
	"regexp"
	"strconv"
)

var (
	solvateCountRe = regexp.MustCompile(`Number of solvent molecules:\s+(\d+)`)
	insertCountRe  = regexp.MustCompile(`(?m)^\s*(?:Added|Inserted)\s+(\d+)\s+molecules?`)
	replaceCountRe = regexp.MustCompile(`(?m)^\s*Replaced\s+(\d+)\s+residues?`)
	convergedRe    = regexp.MustCompile(`converged to Fmax`)
	notConvergedRe = regexp.MustCompile(`did not converge`)
)

// ParseSolvateCount extracts the inserted solvent molecule count from a
// solvation report.
func ParseSolvateCount(report string) (int, error) {
	m := solvateCountRe.FindStringSubmatch(report)
	if m == nil {
		return 0, fmt.Errorf("no solvent molecule count in engine report")
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, fmt.Errorf("invalid solvent molecule count %q: %w", m[1], err)
	}
	return n, nil
}

// ParseInsertCount extracts the placed molecule count from an insertion
// report.
func ParseInsertCount(report string) (int, error) {
	m := insertCountRe.FindStringSubmatch(report)
	if m == nil {
		return 0, fmt.Errorf("no inserted molecule count in engine report")
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, fmt.Errorf("invalid inserted molecule count %q: %w", m[1], err)
	}
	return n, nil
}

// ParseReplaceCount extracts the replaced residue count from an insertion
// report. Zero with ok=false means the engine replaced nothing.
func ParseReplaceCount(report string) (n int, ok bool) {
	m := replaceCountRe.FindStringSubmatch(report)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

// ParseEMStatus classifies a minimization report. An empty report or one
// mentioning neither outcome is an engine failure.
func ParseEMStatus(report string) (EMStatus, error) {
	switch {
	case convergedRe.MatchString(report):
		return EMConverged, nil
	case notConvergedRe.MatchString(report):
		return EMNotConverged, nil
	default:
		return EMNotConverged, fmt.Errorf("engine report contains no minimization outcome")
	}
}
