package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "0.1.0-dev"

func main() {
	rootCmd := &cobra.Command{
		Use:   "claybuild",
		Short: "Clay mineral simulation cell assembler",
		Long: `claybuild assembles solvated, charge-neutral clay mineral boxes for
molecular dynamics simulation.

It tiles unit cells into sheets, solvates and ionizes the interlayer
spaces, stacks the sheets into a periodic box and optionally adds a bulk
solvent region with explicit ion concentrations, finishing with a
restrained energy minimization.`,
	}

	// Global flags
	rootCmd.PersistentFlags().String("log-level", "info", "Log verbosity (info, debug, trace)")
	rootCmd.PersistentFlags().Bool("json", false, "Emit log records as JSON")

	rootCmd.AddCommand(
		newVersionCmd(),
		newBuildCmd(),
		newCheckCmd(),
		newCellsCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("claybuild version %s\n", version)
		},
	}
}
