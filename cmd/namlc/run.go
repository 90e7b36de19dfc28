package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/kahflane/naml/internal/driver"
)

var runCmd = &cobra.Command{
	Use:   "run <files...>",
	Short: "compile and execute a source_set, exiting with its program exit code",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		unsafe, _ := cmd.Flags().GetBool("unsafe")
		workers, _ := cmd.Flags().GetInt("workers")

		files, fset, err := loadSourceSet(args)
		if err != nil {
			cmd.SilenceUsage = true
			return errorf("namlc run: %w", err)
		}

		opts := driverOptions(cmd)
		opts.Unsafe = unsafe
		opts.Workers = workers

		exitCode, diags := driver.Execute(files, opts)
		printDiagnostics(cmd, fset, diags)

		cmd.SilenceUsage = true
		cmd.SilenceErrors = true
		os.Exit(exitCode)
		return nil
	},
}

func init() {
	runCmd.Flags().Bool("unsafe", false, "skip bounds/overflow checks (§7)")
	runCmd.Flags().Int("workers", 0, "worker count for spawned tasks (0 = logical CPU count)")
}
