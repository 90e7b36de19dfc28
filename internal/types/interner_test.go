package types

import "testing"

func TestInternerDeduplicatesStructuralShapes(t *testing.T) {
	in := NewInterner()
	a := in.Array(in.Builtins().Int)
	b := in.Array(in.Builtins().Int)
	if a != b {
		t.Fatalf("expected array<int> to intern to one TypeID, got %d and %d", a, b)
	}

	c := in.Array(in.Builtins().String)
	if a == c {
		t.Fatalf("expected array<int> and array<string> to intern to distinct TypeIDs")
	}
}

func TestNamedInstantiationUniqueness(t *testing.T) {
	in := NewInterner()
	reg := NewRegistry()
	def := reg.DefineStruct(StructInfo{Name: "Box", TypeParams: []string{"T"}})

	a := in.Named(def, []TypeID{in.Builtins().Int})
	b := in.Named(def, []TypeID{in.Builtins().Int})
	if a != b {
		t.Fatalf("expected Box<int> to monomorphize to one TypeID (property 7), got %d and %d", a, b)
	}

	c := in.Named(def, []TypeID{in.Builtins().String})
	if a == c {
		t.Fatalf("expected Box<int> and Box<string> to be distinct instantiations")
	}
}

func TestScalarVsBoxedClassification(t *testing.T) {
	in := NewInterner()
	if !in.IsScalar(in.Builtins().Int) {
		t.Fatalf("int must be scalar")
	}
	if in.IsBoxed(in.Builtins().Int) {
		t.Fatalf("int must not be boxed")
	}
	arr := in.Array(in.Builtins().Int)
	if !in.IsBoxed(arr) {
		t.Fatalf("array must be boxed")
	}
}

func TestMapKeyComparability(t *testing.T) {
	in := NewInterner()
	if !in.Comparable(in.Builtins().String) {
		t.Fatalf("string must be a valid map key")
	}
	arr := in.Array(in.Builtins().Int)
	if in.Comparable(arr) {
		t.Fatalf("array must not be a valid map key (§3.1: keys restricted to scalar or string)")
	}
}
