package hir

import (
	"testing"

	"github.com/kahflane/naml/internal/diag"
	"github.com/kahflane/naml/internal/lexer"
	"github.com/kahflane/naml/internal/parser"
	"github.com/kahflane/naml/internal/sema"
	"github.com/kahflane/naml/internal/source"
	"github.com/kahflane/naml/internal/symbols"
	"github.com/kahflane/naml/internal/types"
)

// lowerSource runs lex -> parse -> check -> lower over src in a module
// named "test", mirroring internal/sema's checkSource test helper.
func lowerSource(t *testing.T, src string, root bool) (*Module, *sema.Result, *diag.Bag) {
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
		Root:     root,
	})
	if bag.HasErrors() {
		t.Fatalf("unexpected check errors: %+v", bag.Items())
	}
	mod := Lower(file, res, tbl, "test")
	return mod, res, bag
}

func findFunc(mod *Module, name string) *Func {
	for _, f := range mod.Funcs {
		if f.Name == name {
			return f
		}
	}
	return nil
}

func TestLower_FreeFnShape(t *testing.T) {
	src := `
fn add(a: int, b: int) -> int {
	return a + b;
}
`
	mod, _, _ := lowerSource(t, src, false)
	fn := findFunc(mod, "add")
	if fn == nil {
		t.Fatalf("expected a lowered function named add, got %+v", mod.Funcs)
	}
	if len(fn.Params) != 2 {
		t.Fatalf("expected 2 params, got %d", len(fn.Params))
	}
	if len(fn.Body.Stmts) != 1 {
		t.Fatalf("expected 1 statement in body, got %d", len(fn.Body.Stmts))
	}
	ret, ok := fn.Body.Stmts[0].(*Return)
	if !ok {
		t.Fatalf("expected a Return statement, got %T", fn.Body.Stmts[0])
	}
	if _, ok := ret.Value.(*Binary); !ok {
		t.Fatalf("expected the return value to lower to a Binary node, got %T", ret.Value)
	}
}

func TestLower_OptionLiftOnReturn(t *testing.T) {
	src := `
fn maybe() -> int? {
	return 1;
}
`
	mod, _, _ := lowerSource(t, src, false)
	fn := findFunc(mod, "maybe")
	if fn == nil {
		t.Fatalf("expected a lowered function named maybe")
	}
	ret, ok := fn.Body.Stmts[0].(*Return)
	if !ok {
		t.Fatalf("expected a Return statement, got %T", fn.Body.Stmts[0])
	}
	lift, ok := ret.Value.(*Lift)
	if !ok {
		t.Fatalf("expected the return value to be wrapped in a Lift node, got %T", ret.Value)
	}
	if _, ok := lift.Value.(*Lit); !ok {
		t.Fatalf("expected the Lift's inner value to be the literal, got %T", lift.Value)
	}
}

func TestLower_OptionLiftOnArgument(t *testing.T) {
	src := `
fn takeMaybe(x: int?) -> int? {
	return x;
}
fn main() {
	takeMaybe(1);
}
`
	mod, _, _ := lowerSource(t, src, true)
	fn := findFunc(mod, "main")
	if fn == nil {
		t.Fatalf("expected a lowered function named main")
	}
	stmt, ok := fn.Body.Stmts[0].(*ExprStmt)
	if !ok {
		t.Fatalf("expected an ExprStmt, got %T", fn.Body.Stmts[0])
	}
	call, ok := stmt.Value.(*Call)
	if !ok {
		t.Fatalf("expected a Call, got %T", stmt.Value)
	}
	if len(call.Args) != 1 {
		t.Fatalf("expected 1 argument, got %d", len(call.Args))
	}
	if _, ok := call.Args[0].(*Lift); !ok {
		t.Fatalf("expected the argument to be wrapped in a Lift node, got %T", call.Args[0])
	}
}

func TestLower_GenericCallInstantiation(t *testing.T) {
	src := `
fn identity<T>(v: T) -> T {
	return v;
}
fn main() {
	var x: int = identity(1);
	var y: string = identity("hi");
}
`
	mod, res, _ := lowerSource(t, src, true)
	if len(res.Instantiations) != 2 {
		t.Fatalf("expected 2 sema instantiations, got %d", len(res.Instantiations))
	}
	fn := findFunc(mod, "main")
	if fn == nil {
		t.Fatalf("expected a lowered function named main")
	}
	var calls []*Call
	for _, s := range fn.Body.Stmts {
		let, ok := s.(*LetStmt)
		if !ok {
			continue
		}
		if c, ok := let.Value.(*Call); ok {
			calls = append(calls, c)
		}
	}
	if len(calls) != 2 {
		t.Fatalf("expected 2 calls to identity, got %d", len(calls))
	}
	for i, c := range calls {
		if c.CalleeKind != CallFn {
			t.Fatalf("call %d: expected CallFn, got %v", i, c.CalleeKind)
		}
		if c.Instantiation == nil {
			t.Fatalf("call %d: expected a non-nil Instantiation", i)
		}
		if len(c.Instantiation.Args) != 1 {
			t.Fatalf("call %d: expected 1 instantiation arg, got %d", i, len(c.Instantiation.Args))
		}
	}
	firstKind := res.Types.Lookup(calls[0].Instantiation.Args[0]).Kind
	secondKind := res.Types.Lookup(calls[1].Instantiation.Args[0]).Kind
	if firstKind == secondKind {
		t.Errorf("expected distinct instantiation kinds for int vs string, got %s and %s", firstKind, secondKind)
	}
}

func TestLower_LocalClosureCallIsCallValue(t *testing.T) {
	src := `
fn apply(f: fn(int) -> int, x: int) -> int {
	return f(x);
}
`
	mod, _, _ := lowerSource(t, src, false)
	fn := findFunc(mod, "apply")
	if fn == nil {
		t.Fatalf("expected a lowered function named apply")
	}
	ret, ok := fn.Body.Stmts[0].(*Return)
	if !ok {
		t.Fatalf("expected a Return statement, got %T", fn.Body.Stmts[0])
	}
	call, ok := ret.Value.(*Call)
	if !ok {
		t.Fatalf("expected a Call, got %T", ret.Value)
	}
	if call.CalleeKind != CallValue {
		t.Fatalf("expected a call to a local closure-typed binding to lower as CallValue, got %v", call.CalleeKind)
	}
}

func TestLower_MethodCallIsCallMethod(t *testing.T) {
	src := `
interface Greeter {
	fn greet() -> string;
}
struct Robot { name: string }
implements Greeter for Robot {
	fn (self: Robot) greet() -> string {
		return self.name;
	}
}
fn main() {
	var r: Robot = Robot { name: "R2" };
	var s: string = r.greet();
}
`
	mod, _, bag := lowerSource(t, src, true)
	if bag.HasErrors() {
		t.Fatalf("unexpected errors: %+v", bag.Items())
	}
	fn := findFunc(mod, "main")
	if fn == nil {
		t.Fatalf("expected a lowered function named main")
	}
	greet := findFunc(mod, "greet")
	if greet == nil {
		t.Fatalf("expected a lowered method named greet")
	}
	if greet.Receiver == types.NoTypeID {
		t.Errorf("expected greet's Receiver to be set")
	}
	var call *Call
	for _, s := range fn.Body.Stmts {
		let, ok := s.(*LetStmt)
		if !ok {
			continue
		}
		if c, ok := let.Value.(*Call); ok {
			call = c
		}
	}
	if call == nil {
		t.Fatalf("expected a call to r.greet() in main's body")
	}
	if call.CalleeKind != CallMethod {
		t.Fatalf("expected CallMethod, got %v", call.CalleeKind)
	}
	if call.Method != "greet" {
		t.Errorf("expected Method to be %q, got %q", "greet", call.Method)
	}
}

func TestLower_LockedElemType(t *testing.T) {
	src := `
fn main() {
	var m: mutex<int>;
	locked (v in m) {
		v = v + 1;
	}
}
`
	mod, res, bag := lowerSource(t, src, true)
	if bag.HasErrors() {
		t.Fatalf("unexpected errors: %+v", bag.Items())
	}
	fn := findFunc(mod, "main")
	if fn == nil {
		t.Fatalf("expected a lowered function named main")
	}
	var locked *Locked
	for _, s := range fn.Body.Stmts {
		if l, ok := s.(*Locked); ok {
			locked = l
		}
	}
	if locked == nil {
		t.Fatalf("expected a Locked statement in main's body")
	}
	if locked.Elem == types.NoTypeID {
		t.Fatalf("expected Elem to be resolved to the mutex's element type")
	}
	if res.Types.Lookup(locked.Elem).Kind != types.KindInt {
		t.Errorf("expected Elem to be int, got %s", res.Types.Lookup(locked.Elem).Kind)
	}
}

func TestLower_ConstLowered(t *testing.T) {
	src := `
const Limit: int = 10;
`
	mod, _, _ := lowerSource(t, src, false)
	if len(mod.Consts) != 1 {
		t.Fatalf("expected 1 lowered const, got %d", len(mod.Consts))
	}
	if mod.Consts[0].Name != "Limit" {
		t.Errorf("expected const name Limit, got %q", mod.Consts[0].Name)
	}
	if _, ok := mod.Consts[0].Value.(*Lit); !ok {
		t.Errorf("expected const value to lower to a Lit, got %T", mod.Consts[0].Value)
	}
}
