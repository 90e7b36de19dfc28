package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/kahflane/naml/internal/driver"
)

var checkCmd = &cobra.Command{
	Use:   "check <files...>",
	Short: "type-check a source_set without compiling or running it",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		files, fset, err := loadSourceSet(args)
		if err != nil {
			cmd.SilenceUsage = true
			return errorf("namlc check: %w", err)
		}

		diags := driver.TypeCheck(files, driverOptions(cmd))
		printDiagnostics(cmd, fset, diags)

		if hasErrors(diags) {
			cmd.SilenceUsage = true
			cmd.SilenceErrors = true
			os.Exit(1)
		}
		cmd.Println("no errors")
		return nil
	},
}
