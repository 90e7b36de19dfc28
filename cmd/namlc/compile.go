package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/kahflane/naml/internal/driver"
)

var compileCmd = &cobra.Command{
	Use:   "compile <files...>",
	Short: "compile a source_set to a Program, reporting any diagnostics",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		files, fset, err := loadSourceSet(args)
		if err != nil {
			cmd.SilenceUsage = true
			return errorf("namlc compile: %w", err)
		}

		prog, diags := driver.Compile(files, driverOptions(cmd))
		printDiagnostics(cmd, fset, diags)
		if prog == nil {
			cmd.SilenceUsage = true
			cmd.SilenceErrors = true
			os.Exit(1)
		}
		cmd.Println("compiled ok")
		return nil
	},
}
