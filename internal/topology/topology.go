// Package topology writes the minimal topology files that accompany each
// structure the pipeline persists. Force-field parameterization is out of
// scope; the writer records the include chain and the molecule counts the
// engine needs to process a structure.
package topology

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/claybuild/claybuild/internal/structure"
)

// Writer emits topology files for a fixed force-field include chain and
// system name.
type Writer struct {
	includes []string
	system   string
}

// NewWriter returns a Writer with the given force-field include files and
// system name.
func NewWriter(includes []string, system string) *Writer {
	return &Writer{includes: includes, system: system}
}

// TopPath derives the topology path paired with a structure path.
func TopPath(structurePath string) string {
	ext := filepath.Ext(structurePath)
	return structurePath[:len(structurePath)-len(ext)] + ".top"
}

// Write derives molecule counts from the model's residue sequence and writes
// the topology next to the structure file. Consecutive residues of the same
// name collapse into one counted block, mirroring how the engine reads the
// molecules section.
func (w *Writer) Write(path string, m *structure.Model) error {
	var b strings.Builder
	for _, inc := range w.includes {
		fmt.Fprintf(&b, "#include \"%s\"\n", inc)
	}
	b.WriteString("\n[ system ]\n")
	fmt.Fprintf(&b, "%s\n", w.system)
	b.WriteString("\n[ molecules ]\n")
	for _, blk := range moleculeBlocks(m) {
		fmt.Fprintf(&b, "%-10s %d\n", blk.name, blk.count)
	}
	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("write topology %s: %w", path, err)
	}
	return nil
}

type block struct {
	name  string
	count int
}

func moleculeBlocks(m *structure.Model) []block {
	var out []block
	for _, res := range m.Residues() {
		n := len(out)
		if n > 0 && out[n-1].name == res.Name {
			out[n-1].count++
			continue
		}
		out = append(out, block{name: res.Name, count: 1})
	}
	return out
}
