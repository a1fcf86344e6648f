package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/claybuild/claybuild/internal/unitcell"
)

func newCellsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cells <library.db>",
		Short: "List unit-cell variants in a library",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			importPath, _ := cmd.Flags().GetString("import")

			lib, err := unitcell.Open(args[0])
			if err != nil {
				return err
			}
			defer lib.Close()

			if importPath != "" {
				if err := unitcell.ImportYAML(lib, importPath); err != nil {
					return err
				}
				fmt.Printf("Imported %s into %s\n\n", importPath, lib.Path())
			}

			dims, err := lib.Dimensions()
			if err != nil {
				return err
			}
			ids, err := lib.VariantIDs()
			if err != nil {
				return err
			}
			fmt.Printf("Library: %s\n", lib.Path())
			fmt.Printf("Lattice: %.3f x %.3f x %.3f Å\n\n", dims[0], dims[1], dims[2])
			if len(ids) == 0 {
				fmt.Println("No variants defined.")
				return nil
			}
			fmt.Printf("Variants (%d):\n", len(ids))
			for _, id := range ids {
				n, err := lib.AtomCount(id)
				if err != nil {
					return err
				}
				q, err := lib.Charge(id)
				if err != nil {
					return err
				}
				fmt.Printf("  %-8s %4d atoms, charge %+d\n", id, n, q)
			}
			return nil
		},
	}

	cmd.Flags().String("import", "", "Import a YAML unit-cell file before listing")

	return cmd
}
