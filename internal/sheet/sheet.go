// Package sheet tiles unit cells into planar clay layers. Placement is
// reproducible: the same sheet index always yields the same unit-cell
// arrangement, driven by a generator seeded with the index.
package sheet

import (
	"fmt"
	"math/rand"
	"path/filepath"
	"sort"

	"github.com/claybuild/claybuild/internal/structure"
	"github.com/claybuild/claybuild/internal/unitcell"
)

// Spec describes one sheet's composition: which unit-cell variants appear,
// how many of each, and the grid they tile.
type Spec struct {
	UCIDs  []string
	Counts []int
	XCells int
	YCells int
}

// Validate checks the composition invariant: the counts must fill the grid
// exactly.
func (s Spec) Validate() error {
	if len(s.UCIDs) == 0 {
		return fmt.Errorf("sheet: no unit-cell variants specified")
	}
	if len(s.UCIDs) != len(s.Counts) {
		return fmt.Errorf("sheet: %d variants but %d counts", len(s.UCIDs), len(s.Counts))
	}
	if s.XCells <= 0 || s.YCells <= 0 {
		return fmt.Errorf("sheet: grid must be positive, got %dx%d", s.XCells, s.YCells)
	}
	total := 0
	for i, n := range s.Counts {
		if n < 0 {
			return fmt.Errorf("sheet: negative count for variant %s", s.UCIDs[i])
		}
		total += n
	}
	if total != s.XCells*s.YCells {
		return fmt.Errorf("sheet: counts sum to %d, grid holds %d cells", total, s.XCells*s.YCells)
	}
	return nil
}

// Sheet tiles unit cells from a library according to a Spec and writes one
// coordinate file per sheet index.
type Sheet struct {
	spec   Spec
	stem   string
	outDir string

	latDims    [3]float64
	bboxShift  float64
	bboxHeight float64
	variants   map[string]*unitcell.Variant
}

// New builds a Sheet, loading the referenced variants from the library and
// validating the composition.
func New(lib *unitcell.Library, spec Spec, stem, outDir string) (*Sheet, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	dims, err := lib.Dimensions()
	if err != nil {
		return nil, fmt.Errorf("sheet: %w", err)
	}
	shift, err := lib.BBoxZShift()
	if err != nil {
		return nil, fmt.Errorf("sheet: %w", err)
	}
	height, err := lib.BBoxHeight()
	if err != nil {
		return nil, fmt.Errorf("sheet: %w", err)
	}
	s := &Sheet{
		spec:       spec,
		stem:       stem,
		outDir:     outDir,
		latDims:    dims,
		bboxShift:  shift,
		bboxHeight: height,
		variants:   make(map[string]*unitcell.Variant, len(spec.UCIDs)),
	}
	for _, id := range spec.UCIDs {
		v, err := lib.Variant(id)
		if err != nil {
			return nil, fmt.Errorf("sheet: %w", err)
		}
		s.variants[id] = v
	}
	return s, nil
}

// Dimensions returns the sheet box in Å: the lattice tiled over the grid
// laterally, one lattice cell high.
func (s *Sheet) Dimensions() [3]float64 {
	return [3]float64{
		s.latDims[0] * float64(s.spec.XCells),
		s.latDims[1] * float64(s.spec.YCells),
		s.latDims[2],
	}
}

// Charge returns the lattice charge of one sheet: the per-variant charge
// weighted by its count.
func (s *Sheet) Charge() int {
	total := 0
	for i, id := range s.spec.UCIDs {
		total += s.variants[id].Charge * s.spec.Counts[i]
	}
	return total
}

// UCArray replicates each variant id by its count and returns the sorted
// base sequence of length XCells*YCells.
func (s *Sheet) UCArray() []string {
	out := make([]string, 0, s.spec.XCells*s.spec.YCells)
	for i, id := range s.spec.UCIDs {
		for n := 0; n < s.spec.Counts[i]; n++ {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}

// Filename returns the coordinate file path for a sheet index.
func (s *Sheet) Filename(index int) string {
	return filepath.Join(s.outDir, fmt.Sprintf("%s_%d.gro", s.stem, index))
}

// WriteCoordinates tiles one sheet and writes its coordinate file, returning
// the handle. The unit-cell arrangement is shuffled with a generator seeded
// by the sheet index, so re-invoking with the same index reproduces the
// sheet exactly. Atom identity order and spatial shift order come from two
// independent shuffles of the same multiset.
func (s *Sheet) WriteCoordinates(index int) (*structure.Handle, error) {
	rng := rand.New(rand.NewSource(int64(index)))

	identity := s.UCArray()
	rng.Shuffle(len(identity), func(i, j int) {
		identity[i], identity[j] = identity[j], identity[i]
	})

	var atoms []structure.Atom
	for resID, id := range identity {
		for _, a := range s.variants[id].Atoms {
			a.ResID = resID + 1
			atoms = append(atoms, a)
		}
	}

	// Second, independent shuffle determines the per-cell atom counts used
	// for the cumulative grid shifts.
	shifts := s.UCArray()
	rng.Shuffle(len(shifts), func(i, j int) {
		shifts[i], shifts[j] = shifts[j], shifts[i]
	})
	pos := 0
	for cell, id := range shifts {
		i := cell / s.spec.YCells
		j := cell % s.spec.YCells
		for range s.variants[id].Atoms {
			if pos >= len(atoms) {
				return nil, fmt.Errorf("sheet %d: shift sequence exceeds atom count", index)
			}
			atoms[pos].Pos[0] += float64(i) * s.latDims[0]
			atoms[pos].Pos[1] += float64(j) * s.latDims[1]
			pos++
		}
	}
	if pos != len(atoms) {
		return nil, fmt.Errorf("sheet %d: shift sequence covered %d of %d atoms", index, pos, len(atoms))
	}

	dims := s.Dimensions()
	model := &structure.Model{
		Title: fmt.Sprintf("%s sheet %d", s.stem, index),
		Atoms: atoms,
		Box:   structure.NewBox(dims[0], dims[1], dims[2]),
	}

	// Normalize the layer to the unit cell's intrinsic bounding box so
	// stacking does not accumulate z drift.
	model.Translate(0, 0, s.bboxShift)
	model.Box.Z = s.bboxHeight

	h := structure.NewHandle(s.Filename(index))
	h.SetModel(model)
	if err := h.Write(); err != nil {
		return nil, fmt.Errorf("write sheet %d: %w", index, err)
	}
	return h, nil
}
