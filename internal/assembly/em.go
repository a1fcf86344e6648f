package assembly

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/claybuild/claybuild/internal/gmx"
	"github.com/claybuild/claybuild/internal/logging"
	"github.com/claybuild/claybuild/internal/structure"
)

// RunEM relaxes the current box with the clay lattice frozen in place. All
// run artifacts are collected under <output_dir>/EM and the relaxed
// coordinates become the current stack. A non-converged run is reported as a
// status, not an error; the caller decides whether to re-solvate and retry.
func (b *Builder) RunEM(ctx context.Context) (gmx.EMStatus, error) {
	b.log.Info(logging.Subheader("4. Energy minimization"))
	if b.stack == nil {
		return gmx.EMNotConverged, fmt.Errorf("energy minimization: no stack assembled")
	}
	m, err := b.stack.Model()
	if err != nil {
		return gmx.EMNotConverged, err
	}
	freeze := m.ResidueNames(b.clayAtom)
	if len(freeze) == 0 {
		return gmx.EMNotConverged, fmt.Errorf("energy minimization: no clay residues to freeze")
	}

	name := b.cfg.Name + "_em"
	topPath := filepath.Join(b.workDir, name+".top")
	if err := b.top.Write(topPath, m); err != nil {
		return gmx.EMNotConverged, err
	}
	status, err := b.engine.Minimize(ctx, gmx.EMRequest{
		Structure:    b.stack.Path(),
		Topology:     topPath,
		OutDir:       b.workDir,
		Name:         name,
		Params:       b.emParams,
		FreezeGroups: freeze,
		FreezeDims:   [3]bool{true, true, true},
		MaxWarn:      b.cfg.Engine.MaxWarn,
	})
	if err != nil {
		return gmx.EMNotConverged, fmt.Errorf("energy minimization: %w", err)
	}
	b.log.Info("energy minimization finished", "status", status.String())

	emDir := filepath.Join(b.cfg.OutputDir, "EM")
	if err := b.collectEMArtifacts(name, emDir); err != nil {
		return status, err
	}

	relaxed, err := structure.Load(filepath.Join(emDir, name+".gro"))
	if err != nil {
		return status, fmt.Errorf("load minimized coordinates: %w", err)
	}
	rm, err := relaxed.Model()
	if err != nil {
		return status, err
	}
	// mdrun writes positions only; the stack keeps its canonical name so
	// later stages derive filenames from the same stem.
	b.stack.SetModel(rm)
	if err := b.stack.Write(); err != nil {
		return status, err
	}
	if err := b.setStack(b.stack, false); err != nil {
		return status, err
	}
	return status, nil
}

// collectEMArtifacts moves every minimization run file out of scratch into
// the EM output directory.
func (b *Builder) collectEMArtifacts(name, emDir string) error {
	if err := os.MkdirAll(emDir, 0755); err != nil {
		return fmt.Errorf("create EM directory: %w", err)
	}
	matches, err := filepath.Glob(filepath.Join(b.workDir, name+".*"))
	if err != nil {
		return err
	}
	for _, src := range matches {
		dst := filepath.Join(emDir, filepath.Base(src))
		if err := os.Rename(src, dst); err != nil {
			return fmt.Errorf("collect EM artifact %s: %w", src, err)
		}
		b.log.Debug("collected EM artifact", "path", dst)
	}
	return nil
}
