package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/kahflane/naml/internal/cache"
	"github.com/kahflane/naml/internal/diag"
	"github.com/kahflane/naml/internal/diagfmt"
	"github.com/kahflane/naml/internal/driver"
	"github.com/kahflane/naml/internal/source"
)

// loadSourceSet reads every path into a driver.SourceFile and builds a
// matching source.FileSet for diagnostic rendering. Both are built over
// paths in the same sorted order driver.Compile/TypeCheck/Execute use
// internally, so the FileIDs diagfmt.Renderer needs to resolve a
// diagnostic's span line up exactly with the ones the driver assigned.
func loadSourceSet(paths []string) ([]driver.SourceFile, *source.FileSet, error) {
	sorted := append([]string(nil), paths...)
	sort.Strings(sorted)

	files, err := driver.LoadSourceSet(sorted, func(p string) (string, error) {
		b, err := os.ReadFile(p)
		if err != nil {
			return "", err
		}
		return string(b), nil
	})
	if err != nil {
		return nil, nil, err
	}

	fset := source.NewFileSet()
	for _, f := range files {
		fset.AddFile(f.Path, f.Text)
	}
	return files, fset, nil
}

func driverOptions(cmd *cobra.Command) driver.Options {
	maxDiag, _ := cmd.Flags().GetInt("max-diagnostics")
	noCache, _ := cmd.Flags().GetBool("no-cache")

	opts := driver.Options{MaxDiagnostics: maxDiag}
	if !noCache {
		if c, err := cache.Open("namlc"); err == nil {
			opts.Cache = c
		}
	}
	return opts
}

// printDiagnostics renders each diagnostic through diagfmt, falling
// back to a one-line summary if color/snippet resolution can't run
// (e.g. a span from a file outside fset, which shouldn't happen but
// isn't worth a panic over).
func printDiagnostics(cmd *cobra.Command, fset *source.FileSet, diags []diag.Diagnostic) {
	if len(diags) == 0 {
		return
	}
	colorFlag, _ := cmd.Flags().GetString("color")
	r := diagfmt.NewRenderer(fset)
	switch colorFlag {
	case "on":
		t := true
		r.Color = &t
	case "off":
		f := false
		r.Color = &f
	}
	for _, d := range diags {
		r.Render(cmd.ErrOrStderr(), d)
	}
}

func hasErrors(diags []diag.Diagnostic) bool {
	for _, d := range diags {
		if d.Severity == diag.SevError {
			return true
		}
	}
	return false
}

func errorf(format string, args ...interface{}) error {
	return fmt.Errorf(format, args...)
}
