// Package backup provides backup-before-overwrite rotation for pipeline
// output files. Existing files are renamed with numeric suffixes (.1, .2, …)
// so re-runs never destroy earlier results.
package backup

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// File rotates path out of the way before it is overwritten. The existing
// file becomes path.1; older backups shift upward (path.1 → path.2, …).
// A missing file is not an error; the returned name is empty.
func File(path string) (string, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return "", nil
	} else if err != nil {
		return "", fmt.Errorf("stat %s: %w", path, err)
	}

	backups, err := existingBackups(path)
	if err != nil {
		return "", err
	}
	// Shift from the highest index down so no backup is clobbered.
	sort.Sort(sort.Reverse(sort.IntSlice(backups)))
	for _, n := range backups {
		from := fmt.Sprintf("%s.%d", path, n)
		to := fmt.Sprintf("%s.%d", path, n+1)
		if err := os.Rename(from, to); err != nil {
			return "", fmt.Errorf("rotate backup %s: %w", from, err)
		}
	}
	dst := path + ".1"
	if err := os.Rename(path, dst); err != nil {
		return "", fmt.Errorf("back up %s: %w", path, err)
	}
	return dst, nil
}

func existingBackups(path string) ([]int, error) {
	matches, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("list backups of %s: %w", path, err)
	}
	base := filepath.Base(path)
	var out []int
	for _, e := range matches {
		name := e.Name()
		if !strings.HasPrefix(name, base+".") {
			continue
		}
		n, err := strconv.Atoi(strings.TrimPrefix(name, base+"."))
		if err != nil || n < 1 {
			continue
		}
		out = append(out, n)
	}
	return out, nil
}
