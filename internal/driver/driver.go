// Package driver ties the lex/parse/check/lower/emit phases together
// behind §6.4's three mandatory entry points. It plays the role the
// teacher's internal/driver (DiagnoseWithOptions plus cmd/surge's run.go
// pipeline) plays, simplified to match this repo's simpler front end:
// internal/sema/hir/mir operate on one module namespace at a time with
// no cross-file dependency graph, so a source_set here is flattened into
// a single synthetic file in the root module ("") rather than resolved
// into surge's per-module DAG — see DESIGN.md's "flat source_set
// compilation" entry for why that's in scope for this pass.
package driver

import (
	"fmt"
	"sort"

	"github.com/kahflane/naml/internal/ast"
	"github.com/kahflane/naml/internal/cache"
	"github.com/kahflane/naml/internal/codegen"
	"github.com/kahflane/naml/internal/diag"
	"github.com/kahflane/naml/internal/heap"
	"github.com/kahflane/naml/internal/hir"
	"github.com/kahflane/naml/internal/layout"
	"github.com/kahflane/naml/internal/lexer"
	"github.com/kahflane/naml/internal/mir"
	"github.com/kahflane/naml/internal/mono"
	"github.com/kahflane/naml/internal/parser"
	"github.com/kahflane/naml/internal/project"
	"github.com/kahflane/naml/internal/runtime"
	"github.com/kahflane/naml/internal/sema"
	"github.com/kahflane/naml/internal/source"
	"github.com/kahflane/naml/internal/symbols"
	"github.com/kahflane/naml/internal/types"
)

// CompilerVersion is folded into every cache digest (§6.5: "hash of the
// full source set + compiler version + target platform"), so a rebuild
// of this binary invalidates every prior cache entry rather than risk
// trusting a payload produced by different checking logic.
const CompilerVersion = "naml-0.1"

// SourceFile is one member of a source_set (§6.2): a path for
// diagnostics and cache-key ordering, and its already-loaded text.
type SourceFile struct {
	Path string
	Text string
}

// Options configures a compile/check/run invocation. Target defaults to
// layout.X86_64LinuxGNU() when zero.
type Options struct {
	Target layout.Target
	Cache  *cache.Disk // nil disables the §6.5 cache lookup entirely
	Unsafe bool
	Workers int
	MaxDiagnostics int // 0 = unlimited, forwarded to diag.NewBag
}

func (o Options) target() layout.Target {
	if o.Target.Triple == "" {
		return layout.X86_64LinuxGNU()
	}
	return o.Target
}

// Program is the generic "Program" object §6.4's compile() returns: a
// finalized, runnable codegen.Program plus the type-system state it was
// checked against, bundled so Execute doesn't need to re-derive either.
type Program struct {
	Emitted  *codegen.Program
	Heap     *heap.Heap
	Types    *types.Interner
	Registry *types.Registry
	Opts     Options
}

// sortedFiles returns files ordered by Path, the stable order both the
// digest and the merged synthetic file use so the same source_set
// always compiles to the same result regardless of the caller's
// enumeration order.
func sortedFiles(files []SourceFile) []SourceFile {
	out := make([]SourceFile, len(files))
	copy(out, files)
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

func digestFor(files []SourceFile, opts Options) project.Digest {
	files = sortedFiles(files)
	texts := make([]string, len(files))
	for i, f := range files {
		texts[i] = f.Path + "\x00" + f.Text
	}
	return project.HashSource(texts, CompilerVersion, opts.target().Triple)
}

// frontend runs lex+parse+check (the shared prefix of Compile, Execute,
// and TypeCheck) over the merged source_set, reporting every diagnostic
// into one bag. ok is false if any reported diagnostic is an error.
func frontend(files []SourceFile, opts Options) (res *sema.Result, bag *diag.Bag, symtab *symbols.Table, rootFile *ast.File, ok bool) {
	files = sortedFiles(files)
	bag = diag.NewBag(opts.MaxDiagnostics)
	fset := source.NewFileSet()
	in := source.NewInterner()

	merged := &ast.File{}
	for _, sf := range files {
		f := fset.AddFile(sf.Path, sf.Text)
		lx := lexer.New(sf.Text, f.ID, in, bag, lexer.Options{})
		toks := lx.Tokenize()
		parsed := parser.ParseFile(toks, f.ID, bag)
		if merged.ID == 0 {
			merged.ID = f.ID
		}
		merged.Items = append(merged.Items, parsed.Items...)
	}

	symtab = symbols.NewTable()
	typesIn := types.NewInterner()
	reg := types.NewRegistry()
	result := sema.Check(merged, sema.Options{
		Module:   "",
		Reporter: bag,
		Symbols:  symtab,
		Types:    typesIn,
		Registry: reg,
		Root:     true,
	})
	return result, bag, symtab, merged, !bag.HasErrors()
}

// TypeCheck implements §6.4's type_check(source_set) -> [Diagnostic]: it
// runs only the front end (lex/parse/check), never lowering to hir/mir/
// codegen, and consults opts.Cache first so a source_set already
// checked byte-for-identically doesn't pay for a second full pass.
func TypeCheck(files []SourceFile, opts Options) []diag.Diagnostic {
	digest := digestFor(files, opts)
	if opts.Cache != nil {
		if payload, hit := opts.Cache.Get(digest); hit {
			return payload.Diagnostics
		}
	}
	_, bag, _, _, ok := frontend(files, opts)
	diags := bag.Items()
	if opts.Cache != nil {
		_ = opts.Cache.Put(cache.Payload{Digest: [32]byte(digest), OK: ok, Diagnostics: diags})
	}
	return diags
}

// Compile implements §6.4's compile(source_set) -> Program | [Diagnostic]:
// the full lex/parse/check/lower/monomorphize/emit pipeline. On any
// checking error it returns the diagnostics and a nil Program; codegen
// faults (e.g. an unresolved host symbol) surface as a single
// diag.Diagnostic with a Codegen* code rather than a Go error, matching
// the rest of this entry point's [Diagnostic] result shape.
func Compile(files []SourceFile, opts Options) (*Program, []diag.Diagnostic) {
	res, bag, symtab, merged, ok := frontend(files, opts)
	if !ok {
		return nil, bag.Items()
	}

	mod := hir.Lower(merged, res, symtab, "")
	mod = mono.Monomorphize(mod)
	mirMod := mir.Lower(mod)
	prog, err := codegen.EmitModule(mirMod)
	if err != nil {
		return nil, append(bag.Items(), codegenErrDiagnostic(err))
	}

	h := heap.New()
	if err := prog.Finalize(runtime.HostTable(h, res.Types)); err != nil {
		return nil, append(bag.Items(), codegenErrDiagnostic(err))
	}

	return &Program{Emitted: prog, Heap: h, Types: res.Types, Registry: res.Registry, Opts: opts}, bag.Items()
}

// codegenErrDiagnostic adapts a *codegen.Error (or any other codegen
// failure) into the [Diagnostic] shape compile()/execute() report
// through, since codegen's own errors don't carry a source span.
func codegenErrDiagnostic(err error) diag.Diagnostic {
	code := diag.CodegenOutOfMemory
	if ce, ok := err.(*codegen.Error); ok {
		code = ce.Code
	}
	return diag.Diagnostic{Severity: diag.SevError, Code: code, Message: err.Error()}
}

// Execute implements §6.4's execute(program) -> exit_code: compiles
// files (if that fails, the exit code is 1, "compile error," per §6.4's
// table) and then runs the result to completion, returning the process
// exit code the embedding binary should use as-is.
//
// Exit codes mirror §6.4 exactly: 0 success, 1 compile error, 2 runtime
// error (a Fault or uncaught exception), 3 I/O or manifest error.
func Execute(files []SourceFile, opts Options) (code int, diags []diag.Diagnostic) {
	prog, diags := Compile(files, opts)
	if prog == nil {
		return 1, diags
	}
	rt := runtime.New(prog.Emitted, prog.Heap, prog.Types, prog.Registry, runtime.Options{
		Unsafe:  opts.Unsafe,
		Workers: opts.Workers,
	})
	exitCode, fault := rt.Run()
	if fault != nil {
		diags = append(diags, diag.Diagnostic{Severity: diag.SevError, Code: fault.Code, Message: fault.Message})
	}
	return exitCode, diags
}

// RunProgram re-executes an already-compiled Program, the path a caller
// that cached the Compile result (e.g. a future REPL) would use instead
// of calling Execute and paying for recompilation.
func RunProgram(prog *Program) (code int, fault *runtime.Fault) {
	rt := runtime.New(prog.Emitted, prog.Heap, prog.Types, prog.Registry, runtime.Options{
		Unsafe:  prog.Opts.Unsafe,
		Workers: prog.Opts.Workers,
	})
	return rt.Run()
}

// LoadSourceSet reads every .nm file named by paths into a SourceFile
// slice, the shape cmd/namlc's subcommands hand to Compile/Execute/
// TypeCheck. I/O failure here is §6.4's exit code 3 ("I/O ... error").
func LoadSourceSet(paths []string, readFile func(string) (string, error)) ([]SourceFile, error) {
	out := make([]SourceFile, 0, len(paths))
	for _, p := range paths {
		text, err := readFile(p)
		if err != nil {
			return nil, fmt.Errorf("read %q: %w", p, err)
		}
		out = append(out, SourceFile{Path: p, Text: text})
	}
	return out, nil
}
