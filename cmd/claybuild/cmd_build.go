package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/claybuild/claybuild/internal/assembly"
	"github.com/claybuild/claybuild/internal/config"
	"github.com/claybuild/claybuild/internal/gmx"
	"github.com/claybuild/claybuild/internal/logging"
	"github.com/claybuild/claybuild/internal/unitcell"
)

func newBuildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build <config.yaml>",
		Short: "Assemble a clay model from a build configuration",
		Long: `Run the full assembly pipeline for one build configuration.

Existing output files are overwritten unless --backup is given, in which
case they are rotated to numbered copies first. When minimization of an
extended box does not converge, claybuild asks whether to re-solvate and
retry; --no-input answers no.

Example:
  claybuild build mmt_na.yaml --backup`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doBackup, _ := cmd.Flags().GetBool("backup")
			noInput, _ := cmd.Flags().GetBool("no-input")
			spacing, _ := cmd.Flags().GetFloat64("spacing")
			levelFlag, _ := cmd.Flags().GetString("log-level")
			jsonLogs, _ := cmd.Flags().GetBool("json")

			cfg, err := config.Load(args[0])
			if err != nil {
				return err
			}
			level := cfg.Logging.Level
			if cmd.Flags().Changed("log-level") {
				level = levelFlag
			}
			log := logging.NewLogger(level, os.Stderr)
			if jsonLogs {
				log = logging.NewJSONLogger(level, os.Stderr)
			}

			lib, err := openLibrary(cfg)
			if err != nil {
				return err
			}
			defer lib.Close()

			if err := os.MkdirAll(cfg.OutputDir, 0755); err != nil {
				return fmt.Errorf("create output directory: %w", err)
			}

			engine := gmx.NewRunner(cfg.Engine.GMXAlias, log)
			builder, err := assembly.New(cfg, lib, engine, log)
			if err != nil {
				return err
			}

			opts := assembly.RunOptions{
				SheetSpacing: spacing,
				Backup:       doBackup,
			}
			if !noInput {
				opts.RetryEM = func() bool {
					fmt.Fprint(os.Stderr, "Minimization did not converge. Re-solvate and retry? [y/N]: ")
					reader := bufio.NewReader(os.Stdin)
					response, _ := reader.ReadString('\n')
					response = strings.TrimSpace(strings.ToLower(response))
					return response == "y" || response == "yes"
				}
			}
			return assembly.Run(cmd.Context(), builder, opts)
		},
	}

	cmd.Flags().Bool("backup", false, "Rotate existing output files instead of overwriting")
	cmd.Flags().Bool("no-input", false, "Never prompt; failed minimizations are not retried")
	cmd.Flags().Float64("spacing", 0, "z headroom per clay sheet in Å (0 = default)")

	return cmd
}

// openLibrary opens the configured unit-cell library, importing the YAML
// bootstrap file first when one is configured.
func openLibrary(cfg *config.BuildConfig) (*unitcell.Library, error) {
	lib, err := unitcell.Open(cfg.UnitCells.Library)
	if err != nil {
		return nil, err
	}
	if cfg.UnitCells.Import != "" {
		if err := unitcell.ImportYAML(lib, cfg.UnitCells.Import); err != nil {
			lib.Close()
			return nil, err
		}
	}
	return lib, nil
}
