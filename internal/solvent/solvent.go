// Package solvent produces solvent slabs of a target molecule count for a
// given lateral box area, driving the external solvation service through a
// bounded density-retry loop.
package solvent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/claybuild/claybuild/internal/constants"
	"github.com/claybuild/claybuild/internal/gmx"
)

// ErrPaddingCeiling is returned when the density search exceeds the maximum
// accumulated padding without reaching the target molecule count. Fatal: the
// density assumption cannot be met at any reasonable height.
var ErrPaddingCeiling = errors.New("solvent: padding ceiling exceeded")

// Slab describes one solvent slab: lateral dimensions, target molecule count
// and the height the density search is currently attempting. Either the
// height or the count is given; the other is derived from water density.
type Slab struct {
	XDim, YDim float64
	NMols      int

	zDim      float64
	padding   float64
	increment float64
	minHeight float64

	log *slog.Logger
}

// Option adjusts slab construction.
type Option func(*Slab)

// WithPaddingIncrement overrides the per-retry height increment in Å.
func WithPaddingIncrement(inc float64) Option {
	return func(s *Slab) {
		if inc > 0 {
			s.increment = inc
		}
	}
}

// WithMinHeight overrides the minimum slab height in Å.
func WithMinHeight(h float64) Option {
	return func(s *Slab) {
		if h > 0 {
			s.minHeight = h
		}
	}
}

// WithLogger attaches a logger for attempt reporting.
func WithLogger(log *slog.Logger) Option {
	return func(s *Slab) { s.log = log }
}

func newSlab(x, y float64, opts []Option) (*Slab, error) {
	if x <= 0 || y <= 0 {
		return nil, fmt.Errorf("solvent: lateral dimensions must be positive, got %.2f x %.2f", x, y)
	}
	s := &Slab{
		XDim:      x,
		YDim:      y,
		increment: constants.DefaultPaddingIncrement,
		minHeight: constants.DefaultMinHeight,
		log:       slog.Default(),
	}
	for _, o := range opts {
		o(s)
	}
	return s, nil
}

// NewSlabByCount builds a slab holding n molecules; the height is derived
// from water density.
func NewSlabByCount(x, y float64, n int, opts ...Option) (*Slab, error) {
	if n <= 0 {
		return nil, fmt.Errorf("solvent: molecule count must be positive, got %d", n)
	}
	s, err := newSlab(x, y, opts)
	if err != nil {
		return nil, err
	}
	s.NMols = n
	s.zDim = s.HeightForMols(n)
	return s, nil
}

// NewSlabByHeight builds a slab of the given height in Å; the molecule count
// is derived from water density.
func NewSlabByHeight(x, y, height float64, opts ...Option) (*Slab, error) {
	if height <= 0 {
		return nil, fmt.Errorf("solvent: height must be positive, got %.2f", height)
	}
	s, err := newSlab(x, y, opts)
	if err != nil {
		return nil, err
	}
	s.zDim = height
	s.NMols = s.MolsForHeight(height)
	return s, nil
}

// HeightForMols converts a molecule count into a slab height in Å at water
// density.
func (s *Slab) HeightForMols(n int) float64 {
	return (constants.WaterMolWeight * float64(n)) /
		(constants.Avogadro * s.XDim * s.YDim * constants.WaterDensity)
}

// MolsForHeight converts a slab height in Å into a molecule count at water
// density, rounded to the nearest integer.
func (s *Slab) MolsForHeight(height float64) int {
	return int(math.Round(height * constants.Avogadro * s.XDim * s.YDim *
		constants.WaterDensity / constants.WaterMolWeight))
}

// Height is the slab height the next solvation attempt will use, including
// any padding accumulated by failed attempts.
func (s *Slab) Height() float64 { return s.zDim + s.padding }

// Padding returns the accumulated retry padding in Å.
func (s *Slab) Padding() float64 { return s.padding }

// Fill solvates the slab into output, retrying at increasing heights until
// the service inserts at least NMols molecules. On success the inserted
// count is returned and the box height actually used is visible through
// Height. Exceeding the padding ceiling is fatal.
func (s *Slab) Fill(ctx context.Context, sv gmx.Solvator, output, topology string) (int, error) {
	for {
		if s.padding > constants.PaddingCeiling {
			return 0, fmt.Errorf("%w: unsuccessful solvation after expanding slab by %.1f Å",
				ErrPaddingCeiling, s.padding)
		}
		if s.zDim < s.minHeight {
			s.zDim = s.minHeight
		}
		s.log.Info("attempting solvation", "height", s.Height(), "target", s.NMols)
		res, err := sv.Solvate(ctx, gmx.SolvateRequest{
			Topology: topology,
			Output:   output,
			Box:      [3]float64{s.XDim, s.YDim, s.Height()},
			MaxSol:   s.NMols,
			Scale:    0.57,
		})
		if err != nil {
			return 0, fmt.Errorf("solvate slab: %w", err)
		}
		if res.Inserted < s.NMols {
			s.padding += s.increment
			s.log.Info("solvation under-filled, increasing height",
				"inserted", res.Inserted, "target", s.NMols, "padding", s.padding)
			continue
		}
		return res.Inserted, nil
	}
}
