package mono

import (
	"testing"

	"github.com/kahflane/naml/internal/diag"
	"github.com/kahflane/naml/internal/hir"
	"github.com/kahflane/naml/internal/lexer"
	"github.com/kahflane/naml/internal/parser"
	"github.com/kahflane/naml/internal/sema"
	"github.com/kahflane/naml/internal/source"
	"github.com/kahflane/naml/internal/symbols"
)

// monoSource runs lex -> parse -> check -> lower -> monomorphize over src,
// mirroring internal/hir's own lowerSource test helper.
func monoSource(t *testing.T, src string) *hir.Module {
	t.Helper()
	fs := source.NewFileSet()
	f := fs.AddFile("test.nm", src)
	bag := diag.NewBag(64)
	interner := source.NewInterner()
	toks := lexer.New(src, f.ID, interner, bag, lexer.Options{}).Tokenize()
	file := parser.ParseFile(toks, f.ID, bag)
	if bag.HasErrors() {
		t.Fatalf("unexpected parse errors: %+v", bag.Items())
	}

	tbl := symbols.NewTable()
	res := sema.Check(file, sema.Options{
		Module:   "test",
		Reporter: bag,
		Symbols:  tbl,
		Root:     true,
	})
	if bag.HasErrors() {
		t.Fatalf("unexpected check errors: %+v", bag.Items())
	}
	mod := hir.Lower(file, res, tbl, "test")
	return Monomorphize(mod)
}

func findFunc(mod *hir.Module, name string) *hir.Func {
	for _, f := range mod.Funcs {
		if f.Name == name {
			return f
		}
	}
	return nil
}

func TestMonomorphize_SharesOneFuncPerDistinctArgs(t *testing.T) {
	src := `
fn identity<T>(v: T) -> T {
	return v;
}
fn main() {
	var a: int = identity(1);
	var b: int = identity(2);
	var c: string = identity("hi");
}
`
	mod := monoSource(t, src)

	if findFunc(mod, "identity") != nil {
		t.Errorf("expected the unspecialized generic template to be dropped from the output")
	}
	intSpec := findFunc(mod, "identity$int")
	strSpec := findFunc(mod, "identity$string")
	if intSpec == nil {
		t.Fatalf("expected a specialization named identity$int, got %+v", funcNames(mod))
	}
	if strSpec == nil {
		t.Fatalf("expected a specialization named identity$string, got %+v", funcNames(mod))
	}

	main := findFunc(mod, "main")
	if main == nil {
		t.Fatalf("expected main to survive DCE")
	}
	var specNames []string
	for _, s := range main.Body.Stmts {
		let, ok := s.(*hir.LetStmt)
		if !ok {
			continue
		}
		call, ok := let.Value.(*hir.Call)
		if !ok {
			continue
		}
		if call.Instantiation != nil {
			t.Errorf("expected call to identity to have its Instantiation cleared after specialization")
		}
		if call.Symbol != symbols.NoSymbol {
			t.Errorf("expected call to identity to have its Symbol cleared after specialization")
		}
		specNames = append(specNames, call.SpecName)
	}
	if len(specNames) != 3 {
		t.Fatalf("expected 3 rewritten calls, got %d", len(specNames))
	}
	if specNames[0] != "identity$int" || specNames[1] != "identity$int" {
		t.Errorf("expected the two int calls to share one specialization, got %v", specNames)
	}
	if specNames[0] != specNames[1] {
		t.Errorf("expected both int calls to name the same specialization, got %q and %q", specNames[0], specNames[1])
	}
	if specNames[2] != "identity$string" {
		t.Errorf("expected the string call to name identity$string, got %q", specNames[2])
	}
}

func TestMonomorphize_UnusedGenericIsDropped(t *testing.T) {
	src := `
fn unused<T>(v: T) -> T {
	return v;
}
fn main() {
	var x: int = 1;
}
`
	mod := monoSource(t, src)
	if len(mod.Funcs) != 1 || mod.Funcs[0].Name != "main" {
		t.Fatalf("expected only main to survive when its generic sibling is never called, got %v", funcNames(mod))
	}
}

func TestMonomorphize_NestedGenericCallSpecializesThroughOuterTypeParam(t *testing.T) {
	src := `
fn inner<U>(v: U) -> U {
	return v;
}
fn outer<T>(v: T) -> T {
	return inner(v);
}
fn main() {
	var x: int = outer(1);
}
`
	mod := monoSource(t, src)
	outerSpec := findFunc(mod, "outer$int")
	if outerSpec == nil {
		t.Fatalf("expected a specialization named outer$int, got %+v", funcNames(mod))
	}
	ret, ok := outerSpec.Body.Stmts[0].(*hir.Return)
	if !ok {
		t.Fatalf("expected outer$int's body to be a single Return, got %+v", outerSpec.Body.Stmts)
	}
	call, ok := ret.Value.(*hir.Call)
	if !ok {
		t.Fatalf("expected the return value to be a Call, got %T", ret.Value)
	}
	if call.SpecName != "inner$int" {
		t.Errorf("expected the nested call to resolve to inner$int (U bound through T=int), got %q", call.SpecName)
	}
	if findFunc(mod, "inner$int") == nil {
		t.Errorf("expected inner$int to have been generated as a side effect of specializing outer$int")
	}
}

func funcNames(mod *hir.Module) []string {
	names := make([]string, len(mod.Funcs))
	for i, f := range mod.Funcs {
		names[i] = f.Name
	}
	return names
}
