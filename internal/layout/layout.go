// Package layout computes the byte shape of naml's values, per §3.1:
// the fixed 8-byte HeapHeader every heap object carries, and the
// per-kind payload table that follows it (String, Bytes, Array, Map,
// Struct, Enum, Option, Mutex, RwLock, Atomic, Channel, Closure,
// Exception). internal/heap uses it to size allocations and place the
// header; internal/runtime reads an object's kind (layout.ObjMap) to
// tell a map from an array when indexing. Field and index accesses go
// through heap.Object's Fields/Elems/Entries, not computed byte offsets.
//
// Grounded on the teacher's internal/layout package (LayoutEngine,
// TypeLayout, cycle-detecting LayoutOf, a byType cache) but a great
// deal smaller: the teacher lays out a value-semantics language where
// a struct field can embed another struct inline, a tuple, or a tagged
// union, and where @packed/@align attributes can override natural
// alignment per field — none of which naml has (§3.1's IsBoxed makes
// every non-scalar kind heap-boxed unconditionally, and naml's type
// system has no tuple/union kind and no field-attribute syntax). See
// DESIGN.md for the full accounting of what that drops.
package layout

import (
	"github.com/kahflane/naml/internal/diag"
	"github.com/kahflane/naml/internal/types"
)

// HeapHeader is the fixed 8-byte prefix on every heap-allocated object
// (§3.1: "kind: u8, flags: u8, reserved: u16, rc: u32").
const (
	HeapHeaderSize  = 8
	HeapHeaderAlign = 4

	HeapHeaderKindOffset     = 0
	HeapHeaderFlagsOffset    = 1
	HeapHeaderReservedOffset = 2
	HeapHeaderRCOffset       = 4
)

// ObjKind is the value stored in a HeapHeader's kind byte, identifying
// which of §3.1's payload shapes follows the header.
type ObjKind uint8

const (
	ObjString ObjKind = iota + 1
	ObjBytes
	ObjArray
	ObjMap
	ObjStruct
	ObjEnum
	ObjOption
	ObjMutex
	ObjRwLock
	ObjAtomic
	ObjChannel
	ObjClosure
	ObjException
)

var objKindByTypeKind = map[types.Kind]ObjKind{
	types.KindString:    ObjString,
	types.KindBytes:     ObjBytes,
	types.KindArray:     ObjArray,
	types.KindMap:       ObjMap,
	types.KindStruct:    ObjStruct,
	types.KindEnum:      ObjEnum,
	types.KindOption:    ObjOption,
	types.KindMutex:     ObjMutex,
	types.KindRwLock:    ObjRwLock,
	types.KindAtomic:    ObjAtomic,
	types.KindChannel:   ObjChannel,
	types.KindClosure:   ObjClosure,
	types.KindException: ObjException,
}

// ObjKindOf maps a boxed type.Kind to the HeapHeader kind byte
// internal/heap should stamp on an object of that kind. ok is false
// for any kind types.Interner.IsBoxed doesn't report as boxed.
func ObjKindOf(k types.Kind) (ObjKind, bool) {
	v, ok := objKindByTypeKind[k]
	return v, ok
}

// TypeLayout describes the byte shape of one type, in one of two
// senses depending on which Engine method produced it:
//
//   - LayoutOf/SizeOf/AlignOf return the slot layout: how much room a
//     value of this type takes wherever it's stored by value (a local,
//     a struct field, an array element, a closure capture). Every
//     boxed kind's slot layout is just a pointer, since a boxed value
//     is always referred to indirectly.
//   - PayloadLayoutOf returns the payload layout: the shape of a boxed
//     type's heap-allocated body, following §3.1's table. Calling it
//     on a non-boxed type just returns the slot layout, since a scalar
//     has no separate boxed form.
type TypeLayout struct {
	Size  int
	Align int

	// Variable is true when real instances carry bytes beyond Size —
	// String/Bytes/Array's trailing data, Closure's captures. Size is
	// then the fixed prefix that precedes the variable-length tail.
	Variable bool

	// Opaque is true for kinds whose payload internal/codegen must
	// never compute a raw offset into: naml gives Map "open-addressed
	// hash table" and Channel "bounded ring buffer + condition
	// variables" with no further byte-level detail, so both are
	// runtime-owned and only ever touched through host calls.
	Opaque bool

	// FieldOffsets is set for a KindStruct/KindException payload: one
	// offset per types.Registry.Struct(def).Fields (or
	// Registry.Exception(def).Fields), in declared order.
	FieldOffsets []int

	// TagSize and PayloadOffset are set for a KindEnum/KindOption
	// payload: TagSize is the discriminant width (§3.1's u16 tag),
	// PayloadOffset is where the active variant's payload begins.
	TagSize       int
	PayloadOffset int

	// ElemSize and ElemAlign are set for a KindArray payload: the slot
	// layout of one element, used to compute the offset of elems[i].
	ElemSize  int
	ElemAlign int
}

// Engine computes and caches TypeLayouts against one Target, one
// Interner, and the Registry that backs its nominal types.
type Engine struct {
	Target Target
	Types  *types.Interner
	Reg    *types.Registry

	slots    *cache
	payloads *cache
}

func New(target Target, in *types.Interner, reg *types.Registry) *Engine {
	return &Engine{Target: target, Types: in, Reg: reg, slots: newCache(), payloads: newCache()}
}

// LayoutOf returns id's slot layout.
func (e *Engine) LayoutOf(id types.TypeID) (TypeLayout, error) {
	if l, ok := e.slots.get(id); ok {
		return l, nil
	}
	l, err := e.computeSlotLayout(id)
	if err != nil {
		return TypeLayout{}, err
	}
	e.slots.put(id, l)
	return l, nil
}

func (e *Engine) SizeOf(id types.TypeID) (int, error) {
	l, err := e.LayoutOf(id)
	return l.Size, err
}

func (e *Engine) AlignOf(id types.TypeID) (int, error) {
	l, err := e.LayoutOf(id)
	return l.Align, err
}

// PayloadLayoutOf returns id's payload layout. Non-boxed ids fall back
// to LayoutOf, since they have no separate boxed representation.
func (e *Engine) PayloadLayoutOf(id types.TypeID) (TypeLayout, error) {
	if !e.Types.IsBoxed(id) {
		return e.LayoutOf(id)
	}
	if l, ok := e.payloads.get(id); ok {
		return l, nil
	}
	l, err := e.computePayloadLayout(id)
	if err != nil {
		return TypeLayout{}, err
	}
	e.payloads.put(id, l)
	return l, nil
}

// FieldOffset returns the byte offset of structID's field at index,
// within structID's heap payload (i.e. after the HeapHeader).
func (e *Engine) FieldOffset(structID types.TypeID, index int) (int, error) {
	l, err := e.PayloadLayoutOf(structID)
	if err != nil {
		return 0, err
	}
	if index < 0 || index >= len(l.FieldOffsets) {
		return 0, &Error{Code: diag.CodegenUnresolvedGeneric, Type: structID}
	}
	return l.FieldOffsets[index], nil
}
