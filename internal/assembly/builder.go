// Package assembly orchestrates the clay model build pipeline: sheet
// generation, interlayer solvation and ion placement, stacking, box
// extension, bulk solvation/ionization and energy minimization. The Builder
// owns the current box state and a scratch workspace; every intermediate
// structure lives in scratch until a stage persists it to the output
// directory.
package assembly

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/claybuild/claybuild/internal/backup"
	"github.com/claybuild/claybuild/internal/config"
	"github.com/claybuild/claybuild/internal/constants"
	"github.com/claybuild/claybuild/internal/gmx"
	"github.com/claybuild/claybuild/internal/ions"
	"github.com/claybuild/claybuild/internal/logging"
	"github.com/claybuild/claybuild/internal/sheet"
	"github.com/claybuild/claybuild/internal/structure"
	"github.com/claybuild/claybuild/internal/topology"
	"github.com/claybuild/claybuild/internal/unitcell"
)

// Builder drives the assembly pipeline. At most one stack handle and one
// interlayer handle are live at a time; each stage replaces them wholesale
// so a failure mid-stage leaves the previous stage's file intact.
type Builder struct {
	cfg    *config.BuildConfig
	lib    *unitcell.Library
	engine gmx.Engine
	log    *slog.Logger

	sheet *sheet.Sheet
	top   *topology.Writer

	workDir   string
	emParams  map[string]string
	concluded bool

	stack       *structure.Handle
	ilSolv      *structure.Handle
	boxExtended bool

	// ilNeutralized records whether interlayer ions already balance the
	// lattice charge, so bulk neutralization does not balance it twice.
	ilNeutralized bool
	bulkLedger    ions.Ledger
}

// New constructs a Builder and its scratch workspace. The workspace is
// released exactly once, at Conclude.
func New(cfg *config.BuildConfig, lib *unitcell.Library, engine gmx.Engine, log *slog.Logger) (*Builder, error) {
	if log == nil {
		log = slog.Default()
	}
	workDir := filepath.Join(os.TempDir(), "claybuild-"+uuid.NewString())
	if err := os.MkdirAll(workDir, 0755); err != nil {
		return nil, fmt.Errorf("create scratch workspace: %w", err)
	}
	// Sheets are written into scratch; only persisted stages reach the
	// output directory.
	sh, err := sheet.New(lib, cfg.SheetSpec(), cfg.Name, workDir)
	if err != nil {
		os.RemoveAll(workDir)
		return nil, err
	}

	emParams := gmx.EMDefaults()
	for k, v := range cfg.Engine.MDP {
		emParams[k] = v
	}
	dims := sh.Dimensions()
	if err := gmx.CheckBoxLengths(emParams, dims[:2]); err != nil {
		os.RemoveAll(workDir)
		return nil, err
	}

	b := &Builder{
		cfg:      cfg,
		lib:      lib,
		engine:   engine,
		log:      log,
		sheet:    sh,
		top:      topology.NewWriter(cfg.Engine.FFIncludes, cfg.Name),
		workDir:  workDir,
		emParams: emParams,
	}
	log.Info(logging.Header(fmt.Sprintf("Building %s model", cfg.Name)))
	log.Info("sheet dimensions",
		"x", fmt.Sprintf("%.2f Å (%d cells)", dims[0], cfg.UnitCells.XCells),
		"y", fmt.Sprintf("%.2f Å (%d cells)", dims[1], cfg.UnitCells.YCells),
		"sheets", cfg.UnitCells.NSheets)
	return b, nil
}

// ExtendedBox reports whether a bulk space has been added to the clay stack.
func (b *Builder) ExtendedBox() bool { return b.boxExtended }

// WorkDir returns the scratch workspace path.
func (b *Builder) WorkDir() string { return b.workDir }

// Stack returns the current stack handle, nil before StackSheets.
func (b *Builder) Stack() *structure.Handle { return b.stack }

// InterlayerCharge is the lattice charge one interlayer must balance: the
// charge of a single sheet.
func (b *Builder) InterlayerCharge() int { return b.sheet.Charge() }

// LatticeCharge is the total lattice charge of the clay stack.
func (b *Builder) LatticeCharge() int {
	return b.sheet.Charge() * b.cfg.UnitCells.NSheets
}

// clayAtom selects atoms belonging to clay unit cells by residue prefix.
func (b *Builder) clayAtom(a structure.Atom) bool {
	return strings.HasPrefix(a.Residue, b.cfg.UnitCells.Stem)
}

func isSolvent(a structure.Atom) bool {
	return a.Residue == constants.SolventResidue || a.Residue == constants.InterlayerResidue
}

func isBulkSolvent(a structure.Atom) bool {
	return a.Residue == constants.SolventResidue
}

func isIon(a structure.Atom) bool {
	return constants.IsKnownIon(a.Residue)
}

// scratchFile derives the canonical scratch path for a stage artifact.
func (b *Builder) scratchFile(mods ...string) (string, error) {
	return Filename(b.workDir, b.cfg.Name, mods, NoSheet, "")
}

// persist copies a handle's backing file into the output directory and
// writes its paired topology there, optionally rotating existing files out
// of the way first.
func (b *Builder) persist(h *structure.Handle, doBackup bool) error {
	dst := filepath.Join(b.cfg.OutputDir, filepath.Base(h.Path()))
	topDst := topology.TopPath(dst)
	if doBackup {
		for _, p := range []string{dst, topDst} {
			if moved, err := backup.File(p); err != nil {
				return err
			} else if moved != "" {
				b.log.Debug("backed up existing file", "path", p, "backup", moved)
			}
		}
	}
	if h.Path() != dst {
		if _, err := h.CopyTo(dst); err != nil {
			return err
		}
	}
	m, err := h.Model()
	if err != nil {
		return err
	}
	if err := b.top.Write(topDst, m); err != nil {
		return err
	}
	// Keep the scratch copy's topology current as well; the engine reads it
	// on the next stage.
	return b.top.Write(topology.TopPath(h.Path()), m)
}

func (b *Builder) setStack(h *structure.Handle, doBackup bool) error {
	if err := b.persist(h, doBackup); err != nil {
		return fmt.Errorf("persist stack: %w", err)
	}
	b.stack = h
	return nil
}

func (b *Builder) setILSolv(h *structure.Handle, doBackup bool) error {
	if err := b.persist(h, doBackup); err != nil {
		return fmt.Errorf("persist interlayer: %w", err)
	}
	b.ilSolv = h
	return nil
}

// DiscardWorkspace releases the scratch workspace without persisting
// anything. Used on abort paths.
func (b *Builder) DiscardWorkspace() error {
	if b.concluded {
		return nil
	}
	b.concluded = true
	return os.RemoveAll(b.workDir)
}

// Conclude copies the final stack into the output directory, renumbers its
// residues and releases the scratch workspace. Safe to call once; repeated
// calls are no-ops.
func (b *Builder) Conclude() error {
	if b.concluded {
		return nil
	}
	b.log.Info(logging.Subheader("Finishing up"))
	if b.stack != nil {
		m, err := b.stack.Model()
		if err != nil {
			return err
		}
		m.RenumberResidues()
		final := structure.NewHandle(filepath.Join(b.cfg.OutputDir, filepath.Base(b.stack.Path())))
		final.SetModel(m)
		if err := final.Write(); err != nil {
			return err
		}
		if err := b.top.Write(topology.TopPath(final.Path()), m); err != nil {
			return err
		}
		b.stack = final
		b.log.Info("wrote final coordinates and topology",
			"structure", final.Path(), "topology", topology.TopPath(final.Path()))
	}
	if err := os.RemoveAll(b.workDir); err != nil {
		return fmt.Errorf("release scratch workspace: %w", err)
	}
	b.concluded = true
	b.log.Info(logging.Header(fmt.Sprintf("%s model setup complete", b.cfg.Name)))
	return nil
}
