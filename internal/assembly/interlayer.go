package assembly

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/claybuild/claybuild/internal/backup"
	"github.com/claybuild/claybuild/internal/constants"
	"github.com/claybuild/claybuild/internal/gmx"
	"github.com/claybuild/claybuild/internal/ions"
	"github.com/claybuild/claybuild/internal/logging"
	"github.com/claybuild/claybuild/internal/solvent"
	"github.com/claybuild/claybuild/internal/structure"
	"github.com/claybuild/claybuild/internal/topology"
)

// WriteSheetCrds generates the coordinate file for every clay sheet.
// Re-invocable: the same sheet index always reproduces the same arrangement.
func (b *Builder) WriteSheetCrds(doBackup bool) error {
	b.log.Info(logging.Subheader("1. Generating clay sheets"))
	for i := 0; i < b.cfg.UnitCells.NSheets; i++ {
		if doBackup {
			if _, err := backup.File(b.sheet.Filename(i)); err != nil {
				return err
			}
		}
		h, err := b.sheet.WriteCoordinates(i)
		if err != nil {
			return err
		}
		b.log.Info("wrote sheet", "index", i, "path", h.Path())
	}
	return nil
}

// SolvateClaySheets generates the interlayer solvent slab via the bounded
// density-retry loop and records it as the current interlayer handle.
func (b *Builder) SolvateClaySheets(ctx context.Context, doBackup bool) error {
	b.log.Info(logging.Subheader("2. Generating interlayer solvent"))
	dims := b.sheet.Dimensions()
	opts := []solvent.Option{
		solvent.WithPaddingIncrement(b.cfg.Engine.ZPadding),
		solvent.WithLogger(b.log),
	}
	var slab *solvent.Slab
	var err error
	if b.cfg.Interlayer.Waters > 0 {
		slab, err = solvent.NewSlabByCount(dims[0], dims[1], b.cfg.Interlayer.Waters, opts...)
	} else {
		slab, err = solvent.NewSlabByHeight(dims[0], dims[1], b.cfg.Interlayer.Height, opts...)
	}
	if err != nil {
		return err
	}

	path, err := b.scratchFile("interlayer")
	if err != nil {
		return err
	}
	if doBackup {
		out := filepath.Join(b.cfg.OutputDir, filepath.Base(path))
		for _, p := range []string{out, topology.TopPath(out)} {
			if _, err := backup.File(p); err != nil {
				return err
			}
		}
	}
	// The engine appends to the topology it is given; start from an empty
	// scratch one.
	topPath := topology.TopPath(path)
	if err := os.WriteFile(topPath, nil, 0644); err != nil {
		return fmt.Errorf("prepare interlayer topology: %w", err)
	}

	inserted, err := slab.Fill(ctx, b.engine, path, topPath)
	if err != nil {
		return err
	}
	b.log.Info("interlayer solvated",
		"molecules", inserted, "height", fmt.Sprintf("%.2f Å", slab.Height()))

	h, err := structure.Load(path)
	if err != nil {
		return err
	}
	return b.setILSolv(h, doBackup)
}

// BuildInterlayer applies the interlayer branch policy: skip entirely when
// no solvation is requested and the layer charge is zero; otherwise solvate,
// add ions when the charge is nonzero, and then either strip the remaining
// solvent (ion-only interlayer) or rename it to the interlayer residue tag.
func (b *Builder) BuildInterlayer(ctx context.Context, doBackup bool) error {
	solvate := b.cfg.Interlayer.Solvate
	charge := b.InterlayerCharge()
	if !solvate && charge == 0 {
		return nil
	}
	if err := b.SolvateClaySheets(ctx, doBackup); err != nil {
		return err
	}
	if charge == 0 {
		return nil
	}
	if err := b.AddILIons(ctx); err != nil {
		return err
	}
	if !solvate {
		return b.RemoveILSolv()
	}
	return b.RenameILSolv()
}

// AddILIons computes the ion set that exactly balances the interlayer's
// lattice charge and inserts it into the interlayer slab, replacing solvent
// on overlap. A count mismatch reported by the insertion service is fatal.
func (b *Builder) AddILIons(ctx context.Context) error {
	b.log.Info("adding interlayer ions")
	if b.ilSolv == nil {
		return fmt.Errorf("add interlayer ions: no interlayer solvent generated")
	}
	counts, err := b.cfg.InterlayerRatios().Neutralize(b.InterlayerCharge())
	if err != nil {
		return fmt.Errorf("interlayer neutralization: %w", err)
	}

	work, err := b.ilSolv.CopyTo(filepath.Join(b.workDir, b.ilSolv.Stem()+"_ins.gro"))
	if err != nil {
		return err
	}
	dims := b.sheet.Dimensions()
	jitter := [3]float64{dims[0], dims[1], dims[2] * 0.4}
	for _, c := range counts {
		if c.N == 0 {
			continue
		}
		b.log.Info("inserting ions", "species", c.Name, "count", c.N)
		if err := b.insertIons(ctx, work, c, dims, jitter); err != nil {
			return err
		}
	}

	m, err := work.Model()
	if err != nil {
		return err
	}
	final := structure.NewHandle(b.ilSolv.Path())
	final.SetModel(m)
	if err := final.Write(); err != nil {
		return err
	}
	b.ilNeutralized = true
	return b.setILSolv(final, false)
}

// insertIons drives one insertion service call for a single species and
// validates the placed count against the request.
func (b *Builder) insertIons(ctx context.Context, target *structure.Handle, c ions.Count, boxDims, jitter [3]float64) error {
	template, err := b.writeIonTemplate(c.Species, boxDims)
	if err != nil {
		return err
	}
	positions, err := b.writeInsertPositions(c.N, boxDims)
	if err != nil {
		return err
	}
	res, err := b.engine.InsertMolecules(ctx, gmx.InsertRequest{
		Structure: target.Path(),
		Template:  template,
		Positions: positions,
		N:         c.N,
		Output:    target.Path(),
		Replace:   constants.SolventResidue,
		Jitter:    jitter,
	})
	if err != nil {
		return fmt.Errorf("insert %s ions: %w", c.Name, err)
	}
	if res.Inserted != c.N {
		return fmt.Errorf("insert %s ions: placed %d of %d requested molecules",
			c.Name, res.Inserted, c.N)
	}
	// The service rewrote the file; the handle must be reloaded before any
	// further use.
	return target.Reload()
}

// writeIonTemplate writes a single-atom structure for an ion species into
// the scratch workspace.
func (b *Builder) writeIonTemplate(s ions.Species, boxDims [3]float64) (string, error) {
	path := filepath.Join(b.workDir, "ion_"+s.Name+".gro")
	h := structure.NewHandle(path)
	h.SetModel(&structure.Model{
		Title: s.Name,
		Atoms: []structure.Atom{{Name: s.Name, Residue: s.Name, ResID: 1}},
		Box:   structure.NewBox(boxDims[0], boxDims[1], boxDims[2]),
	})
	if err := h.Write(); err != nil {
		return "", err
	}
	return path, nil
}

// writeInsertPositions writes n candidate positions at the box center; the
// insertion service spreads placements with the request's jitter.
func (b *Builder) writeInsertPositions(n int, boxDims [3]float64) (string, error) {
	path := filepath.Join(b.workDir, "insert_positions.dat")
	var sb strings.Builder
	for i := 0; i < n; i++ {
		fmt.Fprintf(&sb, "%.3f %.3f %.3f\n", boxDims[0]/20, boxDims[1]/20, boxDims[2]/20)
	}
	if err := os.WriteFile(path, []byte(sb.String()), 0644); err != nil {
		return "", fmt.Errorf("write insertion positions: %w", err)
	}
	return path, nil
}

// RemoveILSolv strips all remaining solvent from the interlayer, leaving an
// ion-only interlayer.
func (b *Builder) RemoveILSolv() error {
	b.log.Info("removing interlayer solvent")
	if b.ilSolv == nil {
		return fmt.Errorf("remove interlayer solvent: no interlayer generated")
	}
	m, err := b.ilSolv.Model()
	if err != nil {
		return err
	}
	stripped := m.Remove(isSolvent)
	stripped.RenumberResidues()
	b.ilSolv.SetModel(stripped)
	if err := b.ilSolv.Write(); err != nil {
		return err
	}
	return b.setILSolv(b.ilSolv, false)
}

// RenameILSolv renames leftover interlayer solvent to the interlayer residue
// tag so it stays distinguishable from bulk solvent downstream.
func (b *Builder) RenameILSolv() error {
	if b.ilSolv == nil {
		return fmt.Errorf("rename interlayer solvent: no interlayer generated")
	}
	m, err := b.ilSolv.Model()
	if err != nil {
		return err
	}
	m.RenameResidues(constants.SolventResidue, constants.InterlayerResidue)
	if err := b.ilSolv.Write(); err != nil {
		return err
	}
	return b.setILSolv(b.ilSolv, false)
}
