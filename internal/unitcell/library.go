// Package unitcell provides the unit-cell library: the per-variant atom
// templates, charges and shared lattice dimensions a clay model is tiled
// from. The library is backed by a SQLite database so large unit-cell sets
// can ship precompiled and be queried per variant.
package unitcell

import (
	"database/sql"
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"sort"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/claybuild/claybuild/internal/structure"
)

// ErrNoLattice is returned when a library has no lattice dimensions recorded.
var ErrNoLattice = errors.New("unitcell: lattice dimensions not set")

// ErrUnknownVariant is returned when a queried variant id is not stored.
var ErrUnknownVariant = errors.New("unitcell: unknown variant")

// Variant is one unit-cell composition variant: an atom template plus the
// integer lattice charge the variant carries.
type Variant struct {
	ID     string
	Charge int
	Atoms  []structure.Atom
}

// Library is a SQLite-backed unit-cell store. All variants in one library
// share the same lattice dimensions; AddVariant enforces the invariant at
// import time.
type Library struct {
	db   *sql.DB
	path string
}

const schema = `
CREATE TABLE IF NOT EXISTS lattice (
	id INTEGER PRIMARY KEY CHECK (id = 1),
	x REAL NOT NULL,
	y REAL NOT NULL,
	z REAL NOT NULL
);
CREATE TABLE IF NOT EXISTS variants (
	id TEXT PRIMARY KEY,
	charge INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS atoms (
	variant_id TEXT NOT NULL REFERENCES variants(id) ON DELETE CASCADE,
	idx INTEGER NOT NULL,
	name TEXT NOT NULL,
	x REAL NOT NULL,
	y REAL NOT NULL,
	z REAL NOT NULL,
	PRIMARY KEY (variant_id, idx)
);
`

// Open opens (or creates) a unit-cell library database at path.
func Open(path string) (*Library, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("open library %s: %w", path, err)
	}
	// SQLite works best with a single writer.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize library schema: %w", err)
	}
	return &Library{db: db, path: path}, nil
}

// Close releases the backing database.
func (l *Library) Close() error { return l.db.Close() }

// Path returns the backing database path.
func (l *Library) Path() string { return filepath.Clean(l.path) }

// SetDimensions records the shared lattice dimensions in Å. Setting
// conflicting dimensions on a populated library is an error.
func (l *Library) SetDimensions(dims [3]float64) error {
	existing, err := l.Dimensions()
	switch {
	case errors.Is(err, ErrNoLattice):
		_, err = l.db.Exec(`INSERT INTO lattice (id, x, y, z) VALUES (1, ?, ?, ?)`,
			dims[0], dims[1], dims[2])
		if err != nil {
			return fmt.Errorf("store lattice dimensions: %w", err)
		}
		return nil
	case err != nil:
		return err
	case existing != dims:
		return fmt.Errorf("lattice dimensions %v conflict with stored %v", dims, existing)
	default:
		return nil
	}
}

// Dimensions returns the shared lattice dimensions in Å.
func (l *Library) Dimensions() ([3]float64, error) {
	var dims [3]float64
	row := l.db.QueryRow(`SELECT x, y, z FROM lattice WHERE id = 1`)
	if err := row.Scan(&dims[0], &dims[1], &dims[2]); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return dims, ErrNoLattice
		}
		return dims, fmt.Errorf("query lattice dimensions: %w", err)
	}
	return dims, nil
}

// AddVariant stores a variant and its atom template.
func (l *Library) AddVariant(v Variant) error {
	if v.ID == "" {
		return fmt.Errorf("variant id must not be empty")
	}
	if len(v.Atoms) == 0 {
		return fmt.Errorf("variant %s has no atoms", v.ID)
	}
	tx, err := l.db.Begin()
	if err != nil {
		return fmt.Errorf("add variant %s: %w", v.ID, err)
	}
	defer tx.Rollback()
	if _, err := tx.Exec(`INSERT INTO variants (id, charge) VALUES (?, ?)`, v.ID, v.Charge); err != nil {
		return fmt.Errorf("add variant %s: %w", v.ID, err)
	}
	stmt, err := tx.Prepare(`INSERT INTO atoms (variant_id, idx, name, x, y, z) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("add variant %s: %w", v.ID, err)
	}
	defer stmt.Close()
	for i, a := range v.Atoms {
		if _, err := stmt.Exec(v.ID, i, a.Name, a.Pos[0], a.Pos[1], a.Pos[2]); err != nil {
			return fmt.Errorf("add variant %s atom %d: %w", v.ID, i, err)
		}
	}
	return tx.Commit()
}

// Variant returns the stored variant by id. Template atoms carry the variant
// id as their residue name so tiled sheets stay attributable per cell.
func (l *Library) Variant(id string) (*Variant, error) {
	v := &Variant{ID: id}
	row := l.db.QueryRow(`SELECT charge FROM variants WHERE id = ?`, id)
	if err := row.Scan(&v.Charge); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w %q", ErrUnknownVariant, id)
		}
		return nil, fmt.Errorf("query variant %s: %w", id, err)
	}
	rows, err := l.db.Query(`SELECT name, x, y, z FROM atoms WHERE variant_id = ? ORDER BY idx`, id)
	if err != nil {
		return nil, fmt.Errorf("query variant %s atoms: %w", id, err)
	}
	defer rows.Close()
	for rows.Next() {
		var a structure.Atom
		if err := rows.Scan(&a.Name, &a.Pos[0], &a.Pos[1], &a.Pos[2]); err != nil {
			return nil, fmt.Errorf("scan variant %s atom: %w", id, err)
		}
		a.Residue = id
		v.Atoms = append(v.Atoms, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return v, nil
}

// VariantIDs returns all stored variant ids in sorted order.
func (l *Library) VariantIDs() ([]string, error) {
	rows, err := l.db.Query(`SELECT id FROM variants`)
	if err != nil {
		return nil, fmt.Errorf("query variants: %w", err)
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	sort.Strings(ids)
	return ids, nil
}

// AtomCount returns the number of template atoms in variant id.
func (l *Library) AtomCount(id string) (int, error) {
	var n int
	row := l.db.QueryRow(`SELECT COUNT(*) FROM atoms WHERE variant_id = ?`, id)
	if err := row.Scan(&n); err != nil {
		return 0, fmt.Errorf("count atoms of %s: %w", id, err)
	}
	if n == 0 {
		return 0, fmt.Errorf("unknown unit-cell variant %q", id)
	}
	return n, nil
}

// Charge returns the lattice charge of variant id.
func (l *Library) Charge(id string) (int, error) {
	var c int
	row := l.db.QueryRow(`SELECT charge FROM variants WHERE id = ?`, id)
	if err := row.Scan(&c); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, fmt.Errorf("unknown unit-cell variant %q", id)
		}
		return 0, fmt.Errorf("query charge of %s: %w", id, err)
	}
	return c, nil
}

// ZBounds returns the z extent of the template atoms across all variants.
// Sheets use it to normalize their bounding box after tiling.
func (l *Library) ZBounds() (zmin, zmax float64, err error) {
	row := l.db.QueryRow(`SELECT MIN(z), MAX(z) FROM atoms`)
	var lo, hi sql.NullFloat64
	if err := row.Scan(&lo, &hi); err != nil {
		return 0, 0, fmt.Errorf("query atom z bounds: %w", err)
	}
	if !lo.Valid || !hi.Valid {
		return 0, 0, fmt.Errorf("library has no atoms")
	}
	return lo.Float64, hi.Float64, nil
}

// BBoxZShift returns the z translation that moves the template bounding box
// to start at z = 0.
func (l *Library) BBoxZShift() (float64, error) {
	zmin, _, err := l.ZBounds()
	if err != nil {
		return 0, err
	}
	return -zmin, nil
}

// BBoxHeight returns the intrinsic bounding-box height of the templates.
func (l *Library) BBoxHeight() (float64, error) {
	zmin, zmax, err := l.ZBounds()
	if err != nil {
		return 0, err
	}
	if h := zmax - zmin; h > 0 && !math.IsInf(h, 0) {
		return h, nil
	}
	return 0, fmt.Errorf("degenerate template bounding box")
}
