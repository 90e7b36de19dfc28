// Command namlc is the external CLI over internal/driver's compile/run/
// check entry points (§6.4), the same role cmd/surge plays for its own
// core: a thin cobra shell that loads a source_set from the filesystem,
// calls into the driver, and renders whatever comes back.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "namlc",
	Short: "naml language compiler and toolchain",
	Long:  "namlc compiles, runs, and type-checks naml source files (§6.4).",
}

const version = "0.1.0"

func main() {
	rootCmd.Version = version
	rootCmd.AddCommand(compileCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(checkCmd)

	rootCmd.PersistentFlags().String("color", "auto", "colorize diagnostic output (auto|on|off)")
	rootCmd.PersistentFlags().Int("max-diagnostics", 0, "maximum number of diagnostics to report (0 = unlimited)")
	rootCmd.PersistentFlags().Bool("no-cache", false, "disable the content-addressed type-check cache")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(3)
	}
}
