// Package heap implements naml's reference-counted value and object
// model (§3.1, §4.6): every value is either an unboxed scalar carried
// directly in a Value, or a boxed reference to an Object living behind
// an explicit HeapHeader.
//
// Grounded on the teacher's internal/vm/{value,heap,drop}.go (a
// handle-indexed Value/Object pair with a Kind tag per field union),
// adapted from surge's by-value-with-explicit-refs model to naml's
// pervasive-boxing one: every Object here is reached directly through
// a Go pointer rather than a Handle looked up in a side-table map, and
// retain/release walk an Object's nested Values recursively instead of
// requiring a caller to free contained handles by hand (surge's own
// Heap.Free does this walk too — see freeContainedValue — just gated by
// an explicit Free call rather than an rc reaching zero).
package heap

import (
	"github.com/kahflane/naml/internal/layout"
	"github.com/kahflane/naml/internal/types"
)

// Value is naml's runtime value representation: an unboxed scalar
// carried inline, or (when Obj != nil) a boxed reference.
type Value struct {
	Type types.TypeID

	I int64   // int/uint bit pattern
	F float64 // float
	B bool    // bool

	Obj *Object // boxed kinds (nil for unboxed scalars and unit)
}

func Unit() Value { return Value{Type: types.NoTypeID} }

func Int(t types.TypeID, v int64) Value   { return Value{Type: t, I: v} }
func Uint(t types.TypeID, v uint64) Value { return Value{Type: t, I: int64(v)} }
func Float(t types.TypeID, v float64) Value { return Value{Type: t, F: v} }
func Bool(t types.TypeID, v bool) Value   { return Value{Type: t, B: v} }
func Boxed(t types.TypeID, o *Object) Value { return Value{Type: t, Obj: o} }

// IsBoxed reports whether v carries a heap reference.
func (v Value) IsBoxed() bool { return v.Obj != nil }

// mapKey produces a Go-comparable key for using v as a naml map key.
// Map keys are restricted to scalar or string (§3.1), and two equal
// strings must hash/compare equal regardless of which distinct Object
// backs each — so a string key is keyed by its decoded Go string
// content, not by the Object pointer that happens to hold it.
func mapKey(v Value) any {
	if v.Obj != nil && v.Obj.Header.Kind == layout.ObjString {
		return v.Obj.Str
	}
	return v
}
