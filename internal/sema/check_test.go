package sema

import (
	"testing"

	"github.com/kahflane/naml/internal/diag"
	"github.com/kahflane/naml/internal/lexer"
	"github.com/kahflane/naml/internal/parser"
	"github.com/kahflane/naml/internal/source"
	"github.com/kahflane/naml/internal/symbols"
)

// checkSource runs the full lex -> parse -> check pipeline over src in a
// fresh module named "test", mirroring how internal/driver will drive one
// file in isolation.
func checkSource(t *testing.T, src string, root bool) (*Result, *diag.Bag) {
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
	res := Check(file, Options{
		Module:   "test",
		Reporter: bag,
		Symbols:  tbl,
		Root:     root,
	})
	return res, bag
}

func hasCode(bag *diag.Bag, code diag.Code) bool {
	for _, d := range bag.Items() {
		if d.Code == code {
			return true
		}
	}
	return false
}

func TestCheck_StructFieldRoundTrip(t *testing.T) {
	src := `
struct Point { x: int, y: int }
fn main() {
	var p: Point = Point { x: 1, y: 2 };
	var total: int = p.x + p.y;
}
`
	_, bag := checkSource(t, src, true)
	if bag.HasErrors() {
		t.Fatalf("unexpected errors: %+v", bag.Items())
	}
}

func TestCheck_UndeclaredSymbol(t *testing.T) {
	src := `
fn main() {
	var x: int = y;
}
`
	_, bag := checkSource(t, src, true)
	if !hasCode(bag, diag.TypeUndeclaredSymbol) {
		t.Errorf("expected TypeUndeclaredSymbol, got %+v", bag.Items())
	}
}

func TestCheck_TypeMismatchOnInit(t *testing.T) {
	src := `
fn main() {
	var x: int = "hello";
}
`
	_, bag := checkSource(t, src, true)
	if !hasCode(bag, diag.TypeMismatch) {
		t.Errorf("expected TypeMismatch, got %+v", bag.Items())
	}
}

func TestCheck_NoOptionLiftInVarInit(t *testing.T) {
	// §4.3: the T -> option<T> lift applies only at return/argument
	// sites, never in var initializers.
	src := `
fn one() -> int { return 1; }
fn main() {
	var x: int? = one();
}
`
	_, bag := checkSource(t, src, true)
	if !hasCode(bag, diag.TypeMismatch) {
		t.Errorf("expected TypeMismatch rejecting the bare-to-option lift in a var initializer, got %+v", bag.Items())
	}
}

func TestCheck_OptionLiftOnReturn(t *testing.T) {
	src := `
fn maybe() -> int? {
	return 1;
}
`
	_, bag := checkSource(t, src, false)
	if bag.HasErrors() {
		t.Fatalf("expected the int -> option<int> lift to apply at a return site, got: %+v", bag.Items())
	}
}

func TestCheck_InterfaceMissingMethod(t *testing.T) {
	src := `
interface Greeter {
	fn greet() -> string;
}
struct Robot { name: string }
implements Greeter for Robot {
}
`
	_, bag := checkSource(t, src, false)
	if !hasCode(bag, diag.TypeMissingMethod) {
		t.Errorf("expected TypeMissingMethod, got %+v", bag.Items())
	}
}

func TestCheck_InterfaceSatisfied(t *testing.T) {
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
`
	_, bag := checkSource(t, src, false)
	if bag.HasErrors() {
		t.Fatalf("unexpected errors: %+v", bag.Items())
	}
}

func TestCheck_ThrowsNotDeclared(t *testing.T) {
	src := `
exception Boom { msg: string }
fn safe() {
	throw Boom { msg: "bang" };
}
`
	_, bag := checkSource(t, src, false)
	if !hasCode(bag, diag.TypeThrowsNotDeclared) {
		t.Errorf("expected TypeThrowsNotDeclared, got %+v", bag.Items())
	}
}

func TestCheck_ThrowsDeclaredOK(t *testing.T) {
	src := `
exception Boom { msg: string }
fn risky() throws Boom {
	throw Boom { msg: "bang" };
}
`
	_, bag := checkSource(t, src, false)
	if bag.HasErrors() {
		t.Fatalf("unexpected errors: %+v", bag.Items())
	}
}

func TestCheck_GenericCallInstantiation(t *testing.T) {
	src := `
fn identity<T>(v: T) -> T {
	return v;
}
fn main() {
	var x: int = identity(1);
	var y: string = identity("hi");
}
`
	res, bag := checkSource(t, src, true)
	if bag.HasErrors() {
		t.Fatalf("unexpected errors: %+v", bag.Items())
	}
	if len(res.Instantiations) != 2 {
		t.Fatalf("expected 2 recorded instantiations, got %d: %+v", len(res.Instantiations), res.Instantiations)
	}
	first := res.Types.Lookup(res.Instantiations[0].Args[0])
	second := res.Types.Lookup(res.Instantiations[1].Args[0])
	if first.Kind == second.Kind {
		t.Errorf("expected distinct instantiation kinds for int vs string, got %s and %s", first.Kind, second.Kind)
	}
}

func TestCheck_GenericBoundUnsatisfied(t *testing.T) {
	src := `
interface Greeter {
	fn greet() -> string;
}
struct Robot { name: string }
fn announce<T: Greeter>(v: T) -> string {
	return v.greet();
}
fn main() {
	var r: Robot = Robot { name: "R2" };
	var s: string = announce(r);
}
`
	_, bag := checkSource(t, src, true)
	if !hasCode(bag, diag.TypeUnsatisfiedBound) {
		t.Errorf("expected TypeUnsatisfiedBound, got %+v", bag.Items())
	}
}

func TestCheck_GenericBoundSatisfied(t *testing.T) {
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
fn announce<T: Greeter>(v: T) -> string {
	return v.greet();
}
fn main() {
	var r: Robot = Robot { name: "R2" };
	var s: string = announce(r);
}
`
	_, bag := checkSource(t, src, true)
	if bag.HasErrors() {
		t.Fatalf("unexpected errors: %+v", bag.Items())
	}
}

func TestCheck_ForceUnwrapRequiresOption(t *testing.T) {
	src := `
fn main() {
	var x: int = 1;
	var y: int = x!;
}
`
	_, bag := checkSource(t, src, true)
	if !hasCode(bag, diag.TypeOptionMisuse) {
		t.Errorf("expected TypeOptionMisuse, got %+v", bag.Items())
	}
}

func TestCheck_LockedBindingType(t *testing.T) {
	// Declaring a mutex<int> local with no initializer sidesteps the
	// lack of a mutex-literal constructor at the syntax level; checkLocked
	// only needs the declared cell type, not a runtime value.
	src := `
fn main() {
	var m: mutex<int>;
	locked (v in m) {
		v = v + 1;
	}
}
`
	_, bag := checkSource(t, src, true)
	if bag.HasErrors() {
		t.Fatalf("unexpected errors: %+v", bag.Items())
	}
}

func TestCheck_LockedWrongCellKind(t *testing.T) {
	src := `
fn main() {
	var m: rwlock<int>;
	locked (v in m) {
		v = v + 1;
	}
}
`
	_, bag := checkSource(t, src, true)
	if !hasCode(bag, diag.TypeMismatch) {
		t.Errorf("expected TypeMismatch for a locked(...) over a rwlock cell, got %+v", bag.Items())
	}
}

func TestCheck_MissingEntrypoint(t *testing.T) {
	src := `
fn helper() -> int { return 1; }
`
	_, bag := checkSource(t, src, true)
	if !hasCode(bag, diag.TypeMissingEntrypoint) {
		t.Errorf("expected TypeMissingEntrypoint, got %+v", bag.Items())
	}
}

func TestCheck_DuplicateSymbol(t *testing.T) {
	src := `
struct Point { x: int }
struct Point { y: int }
`
	_, bag := checkSource(t, src, false)
	if !hasCode(bag, diag.TypeDuplicateSymbol) {
		t.Errorf("expected TypeDuplicateSymbol, got %+v", bag.Items())
	}
}

func TestCheck_PlatformGateConflict(t *testing.T) {
	src := `
#[platforms(linux)]
fn onlyLinux() {}

#[platforms(windows)]
fn onlyWindows() {
	onlyLinux();
}
`
	_, bag := checkSource(t, src, false)
	if !hasCode(bag, diag.TypePlatformConflict) {
		t.Errorf("expected TypePlatformConflict, got %+v", bag.Items())
	}
}

func TestCheck_PlatformGateSatisfied(t *testing.T) {
	src := `
#[platforms(linux)]
fn onlyLinux() {}

#[platforms(linux, windows)]
fn both() {
	onlyLinux();
}
`
	_, bag := checkSource(t, src, false)
	if bag.HasErrors() {
		t.Fatalf("unexpected errors: %+v", bag.Items())
	}
}

func TestCheck_NumericLiteralDefaulting(t *testing.T) {
	src := `
fn main() {
	var a: int = 1;
	var b: float = 1;
	var c: float32 = 1.5;
}
`
	res, bag := checkSource(t, src, true)
	if bag.HasErrors() {
		t.Fatalf("unexpected errors: %+v", bag.Items())
	}
	_ = res
}

func TestCheck_ExprTypesRecorded(t *testing.T) {
	src := `
fn main() {
	var x: int = 1 + 2;
}
`
	res, bag := checkSource(t, src, true)
	if bag.HasErrors() {
		t.Fatalf("unexpected errors: %+v", bag.Items())
	}
	if len(res.ExprTypes) == 0 {
		t.Errorf("expected ExprTypes to be populated")
	}
}

func TestCheck_ArrayElementMismatch(t *testing.T) {
	src := `
fn main() {
	var xs: [int] = [1, "two"];
}
`
	_, bag := checkSource(t, src, true)
	if !hasCode(bag, diag.TypeMismatch) {
		t.Errorf("expected TypeMismatch, got %+v", bag.Items())
	}
}

func TestCheck_CatchBindingAndFallback(t *testing.T) {
	src := `
exception Boom { msg: string }
fn risky() -> int throws Boom {
	throw Boom { msg: "bang" };
}
fn main() {
	var x: int = risky() catch e { var ignored: int = 0; } ?? 1;
}
`
	_, bag := checkSource(t, src, true)
	if bag.HasErrors() {
		t.Fatalf("unexpected errors: %+v", bag.Items())
	}
}
