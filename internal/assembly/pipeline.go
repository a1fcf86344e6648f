package assembly

import (
	"context"
	"fmt"

	"github.com/claybuild/claybuild/internal/gmx"
)

// RunOptions tunes a full pipeline run.
type RunOptions struct {
	// SheetSpacing is the z headroom per clay sheet in Å; zero selects the
	// default.
	SheetSpacing float64

	// Backup rotates existing output files instead of overwriting them.
	Backup bool

	// RetryEM is consulted when minimization of an extended box does not
	// converge. Returning true re-solvates and minimizes once more; a nil
	// func never retries.
	RetryEM func() bool
}

// Run executes the full build: sheet generation, interlayer preparation,
// stacking, box extension, then centering and energy minimization, with the
// bulk solvate/ionize stages added when the box was extended. The scratch
// workspace is released on every path out.
func Run(ctx context.Context, b *Builder, opts RunOptions) error {
	if err := run(ctx, b, opts); err != nil {
		// Conclude would persist a half-built stack; just drop scratch.
		if rmErr := b.DiscardWorkspace(); rmErr != nil {
			b.log.Warn("could not release scratch workspace", "error", rmErr)
		}
		return err
	}
	return b.Conclude()
}

func run(ctx context.Context, b *Builder, opts RunOptions) error {
	if err := b.WriteSheetCrds(opts.Backup); err != nil {
		return err
	}
	if err := b.BuildInterlayer(ctx, opts.Backup); err != nil {
		return err
	}
	if err := b.StackSheets(opts.SheetSpacing, opts.Backup); err != nil {
		return err
	}
	if err := b.ExtendBox(opts.Backup); err != nil {
		return err
	}

	// Centering and minimization always run; box extension only gates the
	// bulk stages and the re-solvation retry.
	retried := false
	for {
		if b.ExtendedBox() && b.cfg.Bulk.Solvate {
			if err := b.SolvateBox(ctx); err != nil {
				return err
			}
			if err := b.AddBulkIons(ctx); err != nil {
				return err
			}
		}
		if err := b.CenterClayInBox(); err != nil {
			return err
		}
		status, err := b.RunEM(ctx)
		if err != nil {
			return err
		}
		if status == gmx.EMConverged {
			return nil
		}
		if !b.ExtendedBox() || retried || opts.RetryEM == nil || !opts.RetryEM() {
			return fmt.Errorf("energy minimization did not converge")
		}
		b.log.Info("re-solvating box for minimization retry")
		retried = true
	}
}
