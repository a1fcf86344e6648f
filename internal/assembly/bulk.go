package assembly

import (
	"context"
	"fmt"
	"math"

	"github.com/claybuild/claybuild/internal/constants"
	"github.com/claybuild/claybuild/internal/gmx"
	"github.com/claybuild/claybuild/internal/ions"
	"github.com/claybuild/claybuild/internal/structure"
	"github.com/claybuild/claybuild/internal/topology"
)

// SolvateBox fills the bulk space of an extended box with solvent. Solvent
// the service placed inside the clay stack (within the configured margin of
// the clay z extent) is discarded; molecules split across the boundary are
// dropped entirely.
func (b *Builder) SolvateBox(ctx context.Context) error {
	if !b.boxExtended {
		b.log.Info("skipping bulk solvation")
		return nil
	}
	b.log.Info("adding bulk solvation")
	if err := b.removeBulkSolvent(); err != nil {
		return err
	}

	path, err := b.scratchFile("solv")
	if err != nil {
		return err
	}
	m, err := b.stack.Model()
	if err != nil {
		return err
	}
	if err := b.top.Write(topology.TopPath(path), m); err != nil {
		return err
	}
	if _, err := b.engine.Solvate(ctx, gmx.SolvateRequest{
		Structure: b.stack.Path(),
		Topology:  topology.TopPath(path),
		Output:    path,
		Box:       [3]float64{m.Box.X, m.Box.Y, m.Box.Z},
		Scale:     0.57,
		Radius:    1.05,
	}); err != nil {
		return fmt.Errorf("bulk solvation: %w", err)
	}

	h, err := structure.Load(path)
	if err != nil {
		return err
	}
	solvated, err := h.Model()
	if err != nil {
		return err
	}
	clayMin, clayMax, ok := solvated.ZExtent(b.clayAtom)
	if !ok {
		return fmt.Errorf("bulk solvation: no clay atoms in solvated box")
	}
	kept := solvated.Remove(isBulkSolvent)
	outside := solvated.OutsideZ(clayMin, clayMax, b.cfg.Bulk.Margin, isBulkSolvent)
	final := kept.Merge(outside)
	final.Box = solvated.Box
	final.RenumberResidues()
	b.log.Info("bulk solvent retained", "molecules", len(outside.Residues()))

	h.SetModel(final)
	if err := h.Write(); err != nil {
		return err
	}
	return b.setStack(h, false)
}

// removeBulkIons strips ion residues outside the clay z extent from the
// current stack model, leaving interlayer ions untouched.
func removeBulkIons(m *structure.Model, clayMin, clayMax float64) *structure.Model {
	outside := func(a structure.Atom) bool {
		return a.Pos[2] < clayMin || a.Pos[2] > clayMax
	}
	return m.RemoveResiduesOf(func(a structure.Atom) bool {
		return isIon(a) && outside(a)
	})
}

// AddBulkIons realizes the configured bulk ion concentrations and then
// neutralizes the residual system charge with an exact ion set from the bulk
// ratio table. Each insertion is validated against the service report; a
// shortfall is fatal since it would break charge neutrality.
func (b *Builder) AddBulkIons(ctx context.Context) error {
	if !b.boxExtended {
		b.log.Info("skipping bulk ion addition")
		return nil
	}
	b.log.Info("adding bulk ions")

	path, err := b.scratchFile("solv", "ions")
	if err != nil {
		return err
	}
	h, err := b.stack.CopyTo(path)
	if err != nil {
		return err
	}
	m, err := h.Model()
	if err != nil {
		return err
	}
	clayMin, clayMax, ok := m.ZExtent(b.clayAtom)
	if !ok {
		return fmt.Errorf("bulk ions: no clay atoms in box")
	}
	// Re-runs must not accumulate ions across solvation retries.
	m = removeBulkIons(m, clayMin, clayMax)
	m.RenumberResidues()
	h.SetModel(m)
	if err := h.Write(); err != nil {
		return err
	}

	boxDims := [3]float64{m.Box.X, m.Box.Y, m.Box.Z}
	bulkZ := m.Box.Z - (clayMax - clayMin)
	volume := m.Box.X * m.Box.Y * bulkZ

	b.bulkLedger = ions.Ledger{}
	jitter := [3]float64{boxDims[0], boxDims[1], bulkZ * 0.4}
	for _, conc := range b.cfg.Bulk.IonConcentrations {
		// 1 mol/L = 1e-27 mol/Å³.
		n := int(math.Round(volume * constants.Avogadro * conc.MolPerL * 1e-27))
		if n == 0 {
			continue
		}
		b.log.Info("adding bulk ions from concentration",
			"species", conc.Ion, "mol_per_l", conc.MolPerL, "count", n)
		c := ions.Count{Species: ions.Species{Name: conc.Ion, Charge: conc.Charge}, N: n}
		if err := b.insertIons(ctx, h, c, boxDims, jitter); err != nil {
			return err
		}
		b.bulkLedger.Add(c.Species, c.N)
	}

	// Whatever charge the concentration-driven insertions leave unbalanced
	// is completed here. The lattice charge only enters when interlayer
	// ions did not already neutralize it.
	residual := b.bulkLedger.Total()
	if !b.ilNeutralized {
		residual += b.LatticeCharge()
	}
	b.log.Info("neutralising bulk charge", "residual", residual)
	counts, err := b.cfg.BulkRatios().Neutralize(residual)
	if err != nil {
		return fmt.Errorf("bulk neutralization: %w", err)
	}
	for _, c := range counts {
		b.log.Info("adding neutralizing ions", "species", c.Name, "count", c.N)
		if err := b.insertIons(ctx, h, c, boxDims, jitter); err != nil {
			return err
		}
		b.bulkLedger.Add(c.Species, c.N)
	}

	m, err = h.Model()
	if err != nil {
		return err
	}
	m.RenumberResidues()
	h.SetModel(m)
	if err := h.Write(); err != nil {
		return err
	}
	b.log.Info("saved solvated box with ions", "path", h.Path())
	return b.setStack(h, false)
}

// BulkLedger exposes the charge bookkeeping of the last bulk ionization.
func (b *Builder) BulkLedger() *ions.Ledger { return &b.bulkLedger }
