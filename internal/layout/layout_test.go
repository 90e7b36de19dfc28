package layout

import (
	"testing"

	"github.com/kahflane/naml/internal/diag"
	"github.com/kahflane/naml/internal/hir"
	"github.com/kahflane/naml/internal/lexer"
	"github.com/kahflane/naml/internal/parser"
	"github.com/kahflane/naml/internal/sema"
	"github.com/kahflane/naml/internal/source"
	"github.com/kahflane/naml/internal/symbols"
	"github.com/kahflane/naml/internal/types"
)

// layoutSource runs lex -> parse -> check -> lower over src and returns
// the checked module, mirroring internal/mono's monoSource helper one
// stage short of monomorphization (layout has no use for it).
func layoutSource(t *testing.T, src string) *hir.Module {
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
	return hir.Lower(file, res, tbl, "test")
}

func TestLayout_ScalarAndBoxedSlotSizes(t *testing.T) {
	e := New(X86_64LinuxGNU(), types.NewInterner(), types.NewRegistry())
	in := e.Types

	cases := []struct {
		name string
		id   types.TypeID
		size int
		align int
	}{
		{"bool", in.Builtins().Bool, 1, 1},
		{"unit", in.Builtins().Unit, 0, 1},
		{"int (default width)", in.Builtins().Int, 8, 8},
		{"int8", in.Intern(types.Type{Kind: types.KindInt, Width: types.Width8, Signed: true}), 1, 1},
		{"int32", in.Intern(types.Type{Kind: types.KindInt, Width: types.Width32, Signed: true}), 4, 4},
		{"string (boxed, pointer-sized)", in.Builtins().String, 8, 8},
		{"array<int> (boxed, pointer-sized)", in.Array(in.Builtins().Int), 8, 8},
	}
	for _, c := range cases {
		l, err := e.LayoutOf(c.id)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", c.name, err)
		}
		if l.Size != c.size || l.Align != c.align {
			t.Errorf("%s: got size=%d align=%d, want size=%d align=%d", c.name, l.Size, l.Align, c.size, c.align)
		}
	}
}

func TestLayout_StringPayloadIsVariableLengthPastLenField(t *testing.T) {
	e := New(X86_64LinuxGNU(), types.NewInterner(), types.NewRegistry())
	l, err := e.PayloadLayoutOf(e.Types.Builtins().String)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if l.Size != 8 || !l.Variable {
		t.Fatalf("expected an 8-byte len prefix followed by variable bytes, got %+v", l)
	}
}

func TestLayout_StructFieldsPackInDeclaredOrderAtNaturalAlignment(t *testing.T) {
	mod := layoutSource(t, `
struct Mixed { flag: bool, count: int, id: int8 }
fn take(m: Mixed) {}
`)
	structID := paramTypeID(t, mod, "take")
	e := New(X86_64LinuxGNU(), mod.Types, mod.Registry)
	l, err := e.PayloadLayoutOf(structID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// flag: bool @0 (1 byte), count: int @8 (padded up to its own
	// 8-byte alignment), id: int8 @16 (1 byte, no padding needed).
	want := []int{0, 8, 16}
	if len(l.FieldOffsets) != len(want) {
		t.Fatalf("expected %d field offsets, got %+v", len(want), l.FieldOffsets)
	}
	for i, off := range want {
		if l.FieldOffsets[i] != off {
			t.Errorf("field %d: expected offset %d, got %d", i, off, l.FieldOffsets[i])
		}
	}
	if l.Align != 8 {
		t.Errorf("expected struct alignment 8 (from its widest field), got %d", l.Align)
	}
}

func TestLayout_EnumPayloadSizedToLargestVariant(t *testing.T) {
	mod := layoutSource(t, `
enum Shape { Circle(float), Square(float), Point }
fn take(s: Shape) {}
`)
	enumID := paramTypeID(t, mod, "take")
	e := New(X86_64LinuxGNU(), mod.Types, mod.Registry)
	l, err := e.PayloadLayoutOf(enumID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if l.TagSize != 2 {
		t.Errorf("expected a 2-byte tag, got %d", l.TagSize)
	}
	// float defaults to 8 bytes; Circle/Square's payload dominates
	// the payload-less Point variant.
	if l.PayloadOffset != 8 {
		t.Errorf("expected the payload to start at offset 8 (tag padded up to float's 8-byte alignment), got %d", l.PayloadOffset)
	}
	if l.Size != 16 {
		t.Errorf("expected total size 16 (8-byte tag region + 8-byte float payload), got %d", l.Size)
	}
}

func TestLayout_OptionSharesEnumShape(t *testing.T) {
	e := New(X86_64LinuxGNU(), types.NewInterner(), types.NewRegistry())
	optID := e.Types.Option(e.Types.Builtins().Int)
	l, err := e.PayloadLayoutOf(optID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if l.TagSize != 2 || l.PayloadOffset != 8 || l.Size != 16 {
		t.Errorf("expected option<int> to lay out like enum{none, some(int)}, got %+v", l)
	}
}

func TestLayout_MutexPayloadIsLockWordPlusGuardedValue(t *testing.T) {
	e := New(X86_64LinuxGNU(), types.NewInterner(), types.NewRegistry())
	mutexID := e.Types.Mutex(e.Types.Builtins().Int)
	l, err := e.PayloadLayoutOf(mutexID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if l.PayloadOffset != 8 || l.Size != 16 {
		t.Errorf("expected an 8-byte lock word followed by an 8-byte int, got %+v", l)
	}
}

func TestLayout_MapAndChannelAreOpaque(t *testing.T) {
	e := New(X86_64LinuxGNU(), types.NewInterner(), types.NewRegistry())
	for _, id := range []types.TypeID{
		e.Types.Map(e.Types.Builtins().String, e.Types.Builtins().Int),
		e.Types.Channel(e.Types.Builtins().Int),
	} {
		l, err := e.PayloadLayoutOf(id)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !l.Opaque {
			t.Errorf("expected %+v to be opaque", l)
		}
	}
}

func TestLayout_ArrayPayloadCarriesElementSlotInfo(t *testing.T) {
	e := New(X86_64LinuxGNU(), types.NewInterner(), types.NewRegistry())
	l, err := e.PayloadLayoutOf(e.Types.Array(e.Types.Builtins().Int))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if l.ElemSize != 8 || l.ElemAlign != 8 {
		t.Errorf("expected int elements to report size/align 8, got %+v", l)
	}
	if !l.Variable {
		t.Errorf("expected an array payload to be variable-length")
	}
}

func TestLayout_UnresolvedGenericIsAnError(t *testing.T) {
	e := New(X86_64LinuxGNU(), types.NewInterner(), types.NewRegistry())
	bad := e.Types.Named(types.DefID(1), []types.TypeID{e.Types.Builtins().Int})
	if _, err := e.LayoutOf(bad); err == nil {
		t.Fatalf("expected an error laying out an unresolved generic instantiation")
	}
}

func paramTypeID(t *testing.T, mod *hir.Module, fnName string) types.TypeID {
	t.Helper()
	for _, f := range mod.Funcs {
		if f.Name == fnName {
			if len(f.Params) == 0 {
				t.Fatalf("%s has no params", fnName)
			}
			return f.Params[0].Type
		}
	}
	t.Fatalf("no func named %s", fnName)
	return types.NoTypeID
}
