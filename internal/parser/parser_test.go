package parser

import (
	"strings"
	"testing"

	"github.com/kahflane/naml/internal/ast"
	"github.com/kahflane/naml/internal/diag"
	"github.com/kahflane/naml/internal/lexer"
	"github.com/kahflane/naml/internal/source"
)

func parseSource(t *testing.T, src string) (*ast.File, *diag.Bag) {
	t.Helper()
	fs := source.NewFileSet()
	f := fs.AddFile("test.nm", src)
	bag := diag.NewBag(64)
	interner := source.NewInterner()
	toks := lexer.New(src, f.ID, interner, bag, lexer.Options{}).Tokenize()
	return ParseFile(toks, f.ID, bag), bag
}

func TestParseLetStmt_Variants(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantMut  bool
		wantVal  bool
	}{
		{"typed_with_value", "fn f() { var x: int = 42; }", false, true},
		{"typed_no_value", "fn f() { var x: int; }", false, false},
		{"mutable", "fn f() { var mut x: int = 0; }", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			file, bag := parseSource(t, tt.input)
			if bag.HasErrors() {
				t.Fatalf("unexpected errors: %+v", bag.Items())
			}
			fn := file.Items[0].(*ast.FnItem)
			let := fn.Body.Stmts[0].(*ast.LetStmt)
			if let.Name != "x" {
				t.Errorf("name: got %q, want x", let.Name)
			}
			if let.Mut != tt.wantMut {
				t.Errorf("mut: got %v, want %v", let.Mut, tt.wantMut)
			}
			if (let.Value != nil) != tt.wantVal {
				t.Errorf("has value: got %v, want %v", let.Value != nil, tt.wantVal)
			}
		})
	}
}

func TestParseLetStmt_RequiresTypeAnnotation(t *testing.T) {
	_, bag := parseSource(t, "fn f() { var x = 1; }")
	if !bag.HasErrors() {
		t.Fatal("expected an error for a var declaration missing its type annotation")
	}
	found := false
	for _, d := range bag.Items() {
		if d.Code == diag.SynMissingTypeAnnot {
			found = true
		}
	}
	if !found {
		t.Errorf("expected SynMissingTypeAnnot, got %+v", bag.Items())
	}
}

func TestParseExpr_Precedence(t *testing.T) {
	// 1 + 2 * 3 must bind as 1 + (2 * 3), so the outer node is `+`.
	file, bag := parseSource(t, "fn f() { var x: int = 1 + 2 * 3; }")
	if bag.HasErrors() {
		t.Fatalf("unexpected errors: %+v", bag.Items())
	}
	let := file.Items[0].(*ast.FnItem).Body.Stmts[0].(*ast.LetStmt)
	bin, ok := let.Value.(*ast.Binary)
	if !ok {
		t.Fatalf("expected top-level binary, got %T", let.Value)
	}
	if bin.Op != ast.OpAdd {
		t.Fatalf("expected top-level op to be +, got %v", bin.Op)
	}
	rhs, ok := bin.Right.(*ast.Binary)
	if !ok || rhs.Op != ast.OpMul {
		t.Fatalf("expected right operand to be a multiplication, got %#v", bin.Right)
	}
}

func TestParseExpr_ElvisLowerThanOr(t *testing.T) {
	file, bag := parseSource(t, "fn f() { var x: int = a ?? b or c; }")
	if bag.HasErrors() {
		t.Fatalf("unexpected errors: %+v", bag.Items())
	}
	let := file.Items[0].(*ast.FnItem).Body.Stmts[0].(*ast.LetStmt)
	elvis, ok := let.Value.(*ast.Binary)
	if !ok || elvis.Op != ast.OpElvis {
		t.Fatalf("expected top-level elvis, got %#v", let.Value)
	}
	if _, ok := elvis.Right.(*ast.Binary); !ok {
		t.Fatalf("expected `b or c` to parse as a nested binary, got %#v", elvis.Right)
	}
}

func TestParseExpr_PostfixChain(t *testing.T) {
	file, bag := parseSource(t, "fn f() { var x: int = obj.method(1, 2)[0]!; }")
	if bag.HasErrors() {
		t.Fatalf("unexpected errors: %+v", bag.Items())
	}
	let := file.Items[0].(*ast.FnItem).Body.Stmts[0].(*ast.LetStmt)
	unary, ok := let.Value.(*ast.Unary)
	if !ok || unary.Op != ast.OpForceUnwrap {
		t.Fatalf("expected outermost node to be a force-unwrap, got %#v", let.Value)
	}
	idx, ok := unary.Operand.(*ast.Index)
	if !ok {
		t.Fatalf("expected indexing under the force-unwrap, got %#v", unary.Operand)
	}
	call, ok := idx.Object.(*ast.Call)
	if !ok {
		t.Fatalf("expected a call under the index, got %#v", idx.Object)
	}
	if len(call.Args) != 2 {
		t.Fatalf("expected 2 call args, got %d", len(call.Args))
	}
	field, ok := call.Callee.(*ast.Field)
	if !ok || field.Name != "method" {
		t.Fatalf("expected call callee to be a field access, got %#v", call.Callee)
	}
}

func TestParseIfStmt_SuppressesStructLitInCondition(t *testing.T) {
	file, bag := parseSource(t, "fn f() { if x { var y: int = 1; } }")
	if bag.HasErrors() {
		t.Fatalf("unexpected errors: %+v", bag.Items())
	}
	fn := file.Items[0].(*ast.FnItem)
	ifs := fn.Body.Stmts[0].(*ast.IfStmt)
	if _, ok := ifs.Cond.(*ast.Ident); !ok {
		t.Fatalf("expected the condition to be a bare identifier, got %#v", ifs.Cond)
	}
	if len(ifs.Then.Stmts) != 1 {
		t.Fatalf("expected 1 statement in the if body, got %d", len(ifs.Then.Stmts))
	}
}

func TestParseStructLit_OutsideCondition(t *testing.T) {
	file, bag := parseSource(t, "fn f() { var p: Point = Point { x: 1, y: 2 }; }")
	if bag.HasErrors() {
		t.Fatalf("unexpected errors: %+v", bag.Items())
	}
	let := file.Items[0].(*ast.FnItem).Body.Stmts[0].(*ast.LetStmt)
	lit, ok := let.Value.(*ast.StructLit)
	if !ok {
		t.Fatalf("expected a struct literal, got %#v", let.Value)
	}
	if lit.Type.Name != "Point" || len(lit.Fields) != 2 {
		t.Fatalf("unexpected struct literal shape: %#v", lit)
	}
}

func TestParseLockedStmt_Modes(t *testing.T) {
	tests := []struct {
		input string
		mode  ast.LockMode
	}{
		{"fn f() { locked (v in m) { v = 1; } }", ast.LockExclusive},
		{"fn f() { rlocked (v in m) { v = 1; } }", ast.LockRead},
		{"fn f() { wlocked (v in m) { v = 1; } }", ast.LockWrite},
	}
	for _, tt := range tests {
		file, bag := parseSource(t, tt.input)
		if bag.HasErrors() {
			t.Fatalf("unexpected errors for %q: %+v", tt.input, bag.Items())
		}
		fn := file.Items[0].(*ast.FnItem)
		ls := fn.Body.Stmts[0].(*ast.LockedStmt)
		if ls.Mode != tt.mode {
			t.Errorf("mode: got %v, want %v", ls.Mode, tt.mode)
		}
		if ls.Binding != "v" {
			t.Errorf("binding: got %q, want v", ls.Binding)
		}
	}
}

func TestParseThrowAndCatch(t *testing.T) {
	src := `
	fn risky() throws BoomException {
		throw BoomException { message: "boom" };
	}
	fn safe() {
		var r: int = risky() catch e { 0 } ?? -1;
	}
	`
	file, bag := parseSource(t, src)
	if bag.HasErrors() {
		t.Fatalf("unexpected errors: %+v", bag.Items())
	}
	risky := file.Items[0].(*ast.FnItem)
	if len(risky.Throws) != 1 || risky.Throws[0].Name != "BoomException" {
		t.Fatalf("expected throws set [BoomException], got %#v", risky.Throws)
	}
	safe := file.Items[1].(*ast.FnItem)
	let := safe.Body.Stmts[0].(*ast.LetStmt)
	catch, ok := let.Value.(*ast.Catch)
	if !ok {
		t.Fatalf("expected a catch expression, got %#v", let.Value)
	}
	if catch.Binding != "e" || catch.Fallback == nil {
		t.Fatalf("unexpected catch shape: %#v", catch)
	}
}

func TestParseSpawnAndJoin(t *testing.T) {
	src := `
	fn main() {
		var h: int = spawn { 1 + 1 };
		join();
	}
	`
	file, bag := parseSource(t, src)
	if bag.HasErrors() {
		t.Fatalf("unexpected errors: %+v", bag.Items())
	}
	fn := file.Items[0].(*ast.FnItem)
	let := fn.Body.Stmts[0].(*ast.LetStmt)
	if _, ok := let.Value.(*ast.SpawnExpr); !ok {
		t.Fatalf("expected a spawn expression, got %#v", let.Value)
	}
	if _, ok := fn.Body.Stmts[1].(*ast.JoinStmt); !ok {
		t.Fatalf("expected a join statement, got %#v", fn.Body.Stmts[1])
	}
}

func TestParseGenericStruct(t *testing.T) {
	src := "struct Box<T> { value: T }"
	file, bag := parseSource(t, src)
	if bag.HasErrors() {
		t.Fatalf("unexpected errors: %+v", bag.Items())
	}
	st := file.Items[0].(*ast.StructItem)
	if len(st.TypeParams) != 1 || st.TypeParams[0].Name != "T" {
		t.Fatalf("unexpected type params: %#v", st.TypeParams)
	}
	if len(st.Fields) != 1 || st.Fields[0].Type.Kind != ast.TSNamed || st.Fields[0].Type.Name != "T" {
		t.Fatalf("unexpected field type: %#v", st.Fields)
	}
}

func TestParseTypeSyntax_Wrappers(t *testing.T) {
	tests := []struct {
		name string
		src  string
		kind ast.TypeSyntaxKind
	}{
		{"array", "const c: [int] = [1];", ast.TSArray},
		{"option", "const c: int? = none;", ast.TSOption},
		{"map", "const c: map<string, int> = m;", ast.TSMap},
		{"mutex", "const c: mutex<int> = m;", ast.TSMutex},
		{"rwlock", "const c: rwlock<int> = m;", ast.TSRwLock},
		{"atomic", "const c: atomic<int> = m;", ast.TSAtomic},
		{"channel", "const c: channel<int> = m;", ast.TSChannel},
		{"decimal", "const c: decimal(10, 2) = d;", ast.TSDecimal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			file, bag := parseSource(t, tt.src)
			if bag.HasErrors() {
				t.Fatalf("unexpected errors: %+v", bag.Items())
			}
			c := file.Items[0].(*ast.ConstItem)
			if c.Type.Kind != tt.kind {
				t.Errorf("kind: got %v, want %v", c.Type.Kind, tt.kind)
			}
		})
	}
}

func TestParseUseForms(t *testing.T) {
	tests := []struct {
		name         string
		src          string
		wantWildcard bool
		wantMembers  int
		wantAlias    string
	}{
		{"wildcard", "use collections::*;", true, 0, ""},
		{"members", "use collections::{List, Map as M};", false, 2, ""},
		{"aliased_path", "use net::http as http;", false, 0, "http"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			file, bag := parseSource(t, tt.src)
			if bag.HasErrors() {
				t.Fatalf("unexpected errors: %+v", bag.Items())
			}
			u := file.Items[0].(*ast.UseItem)
			if u.Wildcard != tt.wantWildcard {
				t.Errorf("wildcard: got %v, want %v", u.Wildcard, tt.wantWildcard)
			}
			if len(u.Members) != tt.wantMembers {
				t.Errorf("members: got %d, want %d", len(u.Members), tt.wantMembers)
			}
			if u.Alias != tt.wantAlias {
				t.Errorf("alias: got %q, want %q", u.Alias, tt.wantAlias)
			}
		})
	}
}

func TestParseImplementsItem(t *testing.T) {
	src := `
	implements Shape for Circle {
		fn area() -> float { return 0.0; }
	}
	`
	file, bag := parseSource(t, src)
	if bag.HasErrors() {
		t.Fatalf("unexpected errors: %+v", bag.Items())
	}
	im := file.Items[0].(*ast.ImplementsItem)
	if im.Interface != "Shape" || im.Target != "Circle" {
		t.Fatalf("unexpected implements shape: %#v", im)
	}
	if len(im.Methods) != 1 || im.Methods[0].Name != "area" {
		t.Fatalf("unexpected methods: %#v", im.Methods)
	}
}

func TestParseMethodReceiver(t *testing.T) {
	src := "fn (self: Point) length() -> float { return 0.0; }"
	file, bag := parseSource(t, src)
	if bag.HasErrors() {
		t.Fatalf("unexpected errors: %+v", bag.Items())
	}
	fn := file.Items[0].(*ast.FnItem)
	if fn.Receiver != "Point" {
		t.Fatalf("receiver: got %q, want Point", fn.Receiver)
	}
}

func TestParsePlatformAttr(t *testing.T) {
	src := `
	#[platforms(linux, darwin)]
	extern fn native_syscall(fd: int) -> int;
	`
	file, bag := parseSource(t, src)
	if bag.HasErrors() {
		t.Fatalf("unexpected errors: %+v", bag.Items())
	}
	fn := file.Items[0].(*ast.FnItem)
	if !fn.Extern || fn.Body != nil {
		t.Fatalf("expected an extern declaration with no body, got %#v", fn)
	}
	platforms, ok := ast.Platforms(fn.Attrs)
	if !ok || len(platforms) != 2 || platforms[0] != "linux" || platforms[1] != "darwin" {
		t.Fatalf("unexpected platforms: %#v", platforms)
	}
}

// TestParse_ErrorRecovery checks that one malformed statement doesn't
// swallow the diagnostics from statements that follow it (§4.2 resync).
func TestParse_ErrorRecovery(t *testing.T) {
	src := `
	fn f() {
		var ;
		var y: int = 1 + ;
	}
	`
	_, bag := parseSource(t, src)
	if !bag.HasErrors() {
		t.Fatal("expected parse errors")
	}
	if len(bag.Items()) < 2 {
		t.Errorf("expected recovery to surface multiple diagnostics, got %d: %+v", len(bag.Items()), bag.Items())
	}
}

func TestParseFile_MultipleItems(t *testing.T) {
	src := `
	struct Point { x: int, y: int }
	enum Shape { Circle(float), Square(float) }
	interface Drawable { fn draw(); }
	exception BoomException { message: string }
	const PI: float = 3;
	type Meters = float;
	`
	file, bag := parseSource(t, src)
	if bag.HasErrors() {
		t.Fatalf("unexpected errors: %+v", bag.Items())
	}
	if len(file.Items) != 6 {
		t.Fatalf("expected 6 items, got %d", len(file.Items))
	}
	kinds := []string{}
	for _, it := range file.Items {
		kinds = append(kinds, itemKindName(it))
	}
	want := "StructItem,EnumItem,InterfaceItem,ExceptionItem,ConstItem,TypeAliasItem"
	if got := strings.Join(kinds, ","); got != want {
		t.Errorf("item kinds: got %q, want %q", got, want)
	}
}

func itemKindName(it ast.Item) string {
	switch it.(type) {
	case *ast.StructItem:
		return "StructItem"
	case *ast.EnumItem:
		return "EnumItem"
	case *ast.InterfaceItem:
		return "InterfaceItem"
	case *ast.ExceptionItem:
		return "ExceptionItem"
	case *ast.ConstItem:
		return "ConstItem"
	case *ast.TypeAliasItem:
		return "TypeAliasItem"
	default:
		return "unknown"
	}
}
