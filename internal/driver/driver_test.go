package driver

import (
	"testing"

	"github.com/kahflane/naml/internal/cache"
	"github.com/kahflane/naml/internal/diag"
)

func TestCompile_Succeeds(t *testing.T) {
	files := []SourceFile{{Path: "main.nm", Text: `
fn helper() -> int { return 41; }
fn main() -> int { return helper() + 1; }
`}}
	prog, diags := Compile(files, Options{})
	for _, d := range diags {
		if d.Severity == diag.SevError {
			t.Fatalf("unexpected error diagnostic: %+v", d)
		}
	}
	if prog == nil {
		t.Fatalf("expected a Program")
	}
	if !prog.Emitted.Finalized() {
		t.Fatalf("expected Compile to return a finalized Program")
	}
	if _, ok := prog.Emitted.Entry(); !ok {
		t.Fatalf("expected an entry function")
	}
}

func TestCompile_ReportsCheckErrorsAndReturnsNoProgram(t *testing.T) {
	files := []SourceFile{{Path: "main.nm", Text: `
fn main() {
	var x: int = y;
}
`}}
	prog, diags := Compile(files, Options{})
	if prog != nil {
		t.Fatalf("expected a nil Program on a checking error")
	}
	found := false
	for _, d := range diags {
		if d.Code == diag.TypeUndeclaredSymbol {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a TypeUndeclaredSymbol diagnostic, got %+v", diags)
	}
}

func TestCompile_MergesMultipleFilesIntoOneSourceSet(t *testing.T) {
	files := []SourceFile{
		{Path: "b_helper.nm", Text: `fn helper() -> int { return 41; }`},
		{Path: "a_main.nm", Text: `fn main() -> int { return helper() + 1; }`},
	}
	prog, diags := Compile(files, Options{})
	for _, d := range diags {
		if d.Severity == diag.SevError {
			t.Fatalf("unexpected error: %+v", d)
		}
	}
	if prog == nil {
		t.Fatalf("expected both files to merge into one compilable module")
	}
}

func TestExecute_ReturnsCleanExitCode(t *testing.T) {
	files := []SourceFile{{Path: "main.nm", Text: `fn main() -> int { return 0; }`}}
	code, diags := Execute(files, Options{})
	if code != 0 {
		t.Fatalf("expected exit code 0, got %d (diags: %+v)", code, diags)
	}
}

func TestExecute_CompileErrorIsExitCode1(t *testing.T) {
	files := []SourceFile{{Path: "main.nm", Text: `fn main() { return nonsense syntax here`}}
	code, diags := Execute(files, Options{})
	if code != 1 {
		t.Fatalf("expected exit code 1 on a compile error, got %d", code)
	}
	if len(diags) == 0 {
		t.Fatalf("expected at least one diagnostic")
	}
}

func TestExecute_UncaughtThrowIsExitCode2(t *testing.T) {
	files := []SourceFile{{Path: "main.nm", Text: `
exception Boom { msg: string }
fn main() throws Boom {
	throw Boom { msg: "boom" };
}
`}}
	code, _ := Execute(files, Options{})
	if code != 2 {
		t.Fatalf("expected exit code 2 on an uncaught exception, got %d", code)
	}
}

func TestTypeCheck_NoErrorsOnValidProgram(t *testing.T) {
	files := []SourceFile{{Path: "main.nm", Text: `fn main() {}`}}
	diags := TypeCheck(files, Options{})
	for _, d := range diags {
		if d.Severity == diag.SevError {
			t.Fatalf("unexpected error: %+v", d)
		}
	}
}

func TestTypeCheck_CachesOutcomeAcrossCalls(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", t.TempDir())

	c, err := cache.Open("namlc-test")
	if err != nil {
		t.Fatalf("open cache: %v", err)
	}

	files := []SourceFile{{Path: "main.nm", Text: `
fn main() {
	var x: int = y;
}
`}}
	opts := Options{Cache: c}

	first := TypeCheck(files, opts)
	second := TypeCheck(files, opts)
	if len(first) != len(second) {
		t.Fatalf("expected a cache hit to reproduce the same diagnostics: first=%+v second=%+v", first, second)
	}
}
