package assembly

import (
	"fmt"

	"github.com/claybuild/claybuild/internal/constants"
	"github.com/claybuild/claybuild/internal/gmx"
	"github.com/claybuild/claybuild/internal/logging"
	"github.com/claybuild/claybuild/internal/structure"
)

// DefaultSheetSpacing is the z headroom in Å added above each clay sheet
// when stacking.
const DefaultSheetSpacing = 2.0

// StackSheets combines the clay sheets (and, when present, one interlayer
// copy per sheet) into the periodic stack. Ion positions in each interlayer
// copy are cyclically rotated by one residue before merging so no two layers
// superpose identically; the final sheet's interlayer solvent is renamed back
// to the bulk tag so it merges with bulk solvent downstream.
func (b *Builder) StackSheets(extra float64, doBackup bool) error {
	if extra <= 0 {
		extra = DefaultSheetSpacing
	}
	var ilModel *structure.Model
	if b.ilSolv != nil {
		m, err := b.ilSolv.Model()
		if err != nil {
			return err
		}
		ilModel = m
	}
	if ilModel != nil {
		b.log.Info(logging.Subheader("3. Assembling box"))
		b.log.Info("combining clay sheets and interlayer")
	} else {
		b.log.Info(logging.Subheader("3. Assembling box"))
		b.log.Info("combining clay sheets")
	}

	nSheets := b.cfg.UnitCells.NSheets
	var slabs []*structure.Model
	var offset, total float64
	for i := 0; i < nSheets; i++ {
		h, err := structure.Load(b.sheet.Filename(i))
		if err != nil {
			return fmt.Errorf("stack sheets: %w", err)
		}
		slab, err := h.Model()
		if err != nil {
			return err
		}
		slab = slab.Copy()
		slab.Box.Z += extra
		if ilModel != nil {
			il := ilModel.Copy()
			il.RollResiduePositions(isIon)
			if i == nSheets-1 {
				il.RenameResidues(constants.InterlayerResidue, constants.SolventResidue)
			}
			il.Translate(0, 0, slab.Box.Z)
			merged := slab.Merge(il)
			merged.Box = slab.Box
			merged.Box.Z = slab.Box.Z + il.Box.Z + extra
			slab = merged
		} else {
			slab.Box.Z += extra
		}
		slab.Translate(0, 0, offset)
		offset += slab.Box.Z
		total += slab.Box.Z
		slabs = append(slabs, slab)
	}

	combined := slabs[0]
	if len(slabs) > 1 {
		combined = slabs[0].Merge(slabs[1:]...)
	}
	combined.Box = structure.NewBox(combined.Box.X, combined.Box.Y, total)
	combined.Wrap()
	combined.RenumberResidues()
	combined.Title = fmt.Sprintf("%s clay stack", b.cfg.Name)

	path, err := b.scratchFile()
	if err != nil {
		return err
	}
	h := structure.NewHandle(path)
	h.SetModel(combined)
	if err := h.Write(); err != nil {
		return err
	}
	b.log.Info("clay stack assembled", "height", fmt.Sprintf("%.2f Å", total))
	return b.setStack(h, doBackup)
}

// removeBulkSolvent strips bulk solvent residues from the current stack,
// leaving interlayer solvent in place. Applied before box extension and
// before every re-solvation.
func (b *Builder) removeBulkSolvent() error {
	m, err := b.stack.Model()
	if err != nil {
		return err
	}
	stripped := m.Remove(isBulkSolvent)
	stripped.RenumberResidues()
	b.stack.SetModel(stripped)
	return b.stack.Write()
}

// ExtendBox grows the box to the configured height when that height exceeds
// the stacked clay. Centering is re-applied after the height change because
// the clay midplane shifts relative to the box origin.
func (b *Builder) ExtendBox(doBackup bool) error {
	m, err := b.stack.Model()
	if err != nil {
		return err
	}
	if b.cfg.Bulk.Height > m.Box.Z {
		b.log.Info("extending simulation box",
			"height", fmt.Sprintf("%.1f Å", b.cfg.Bulk.Height))
		if err := b.removeBulkSolvent(); err != nil {
			return err
		}
		if err := b.CenterClayInBox(); err != nil {
			return err
		}
		b.boxExtended = true

		path, err := b.scratchFile("ext")
		if err != nil {
			return err
		}
		m, err = b.stack.Model()
		if err != nil {
			return err
		}
		ext := m.Copy()
		ext.Box.Z = b.cfg.Bulk.Height
		h := structure.NewHandle(path)
		h.SetModel(ext)
		if err := h.Write(); err != nil {
			return err
		}
		if err := b.setStack(h, doBackup); err != nil {
			return err
		}
		if err := b.CenterClayInBox(); err != nil {
			return err
		}
		b.log.Info("saved extended box", "path", b.stack.Path())
	} else {
		b.boxExtended = false
	}

	m, err = b.stack.Model()
	if err != nil {
		return err
	}
	return gmx.CheckBoxLengths(b.emParams, []float64{m.Box.X, m.Box.Y, m.Box.Z})
}

// CenterClayInBox translates the box contents so the clay midplane sits at
// the box's z midpoint, wraps all atoms back into the box and persists the
// stack.
func (b *Builder) CenterClayInBox() error {
	m, err := b.stack.Model()
	if err != nil {
		return err
	}
	m.CenterZ(b.clayAtom, m.Box.Z/2)
	m.Wrap()
	b.stack.SetModel(m)
	if err := b.stack.Write(); err != nil {
		return err
	}
	return b.setStack(b.stack, false)
}
