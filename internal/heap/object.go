package heap

import (
	"sync"
	"sync/atomic"

	"github.com/kahflane/naml/internal/layout"
	"github.com/kahflane/naml/internal/types"
)

// PinnedRC is the sentinel refcount (§4.6: "pinned objects via rc ==
// u32::MAX") marking an Object that Retain/Release must never touch —
// interned string/byte constants and anything else that should outlive
// every scope that references it.
const PinnedRC = ^uint32(0)

// ArenaBit marks an Object as owned by an arena rather than by
// refcounting: Release on such an Object is a no-op, since every
// allocation the arena made is reclaimed together when the arena ends
// (§4.6's arena-mode allocation, an optimization that skips individual
// retain/release bookkeeping for an entire scope's worth of temporaries).
const ArenaBit uint8 = 1 << 0

// HeapHeader is the literal Go-struct rendering of §3.1's 8-byte
// per-object prefix (kind: u8, flags: u8, reserved: u16, rc: u32) — it
// sits first in Object so its field order matches the spec's, even
// though Object's payload fields below are a typed Go union rather
// than the raw byte layout internal/layout computes. See DESIGN.md for
// why: this is the same "interpret rather than emit real machine code"
// scope decision internal/codegen makes, just applied one layer down.
type HeapHeader struct {
	Kind     layout.ObjKind
	Flags    uint8
	Reserved uint16
	RC       atomic.Uint32 // §4.6: "atomically increment/decrement rc" — objects are shared across spawned tasks
}

// Object is one heap allocation. Exactly one of the payload fields
// below is meaningful, selected by Header.Kind — mirroring the
// teacher's vm.Object, which picks among Str/Arr/Fields by
// ObjectKind the same way.
type Object struct {
	Header HeapHeader
	Type   types.TypeID // the boxed type this object's Type field records (§3.2); not part of the spec's header, since a TypeID doesn't fit in 16 reserved bits

	Str string // ObjString
	Buf []byte // ObjBytes

	Elems    []Value      // ObjArray
	ElemType types.TypeID

	Entries map[any]Value // ObjMap, keyed by mapKey(v)

	Fields []Value // ObjStruct, ObjException (declared field order)

	Tag     uint16 // ObjEnum, ObjOption (0 = none for Option)
	Payload *Value // ObjEnum's active variant payload, ObjOption's Some payload (nil for None / payload-less variants)

	Lock    *sync.RWMutex // ObjMutex, ObjRwLock, ObjAtomic (ObjMutex only ever takes the full write lock)
	Guarded Value         // the value ObjMutex/ObjRwLock/ObjAtomic currently holds

	Ch     chan Value // ObjChannel
	ChCap  int
	closed bool
	chMu   sync.Mutex // guards closed, since closing a closed Go channel panics

	ClosureFn string  // ObjClosure: the mir.Func name to invoke
	Captures  []Value // ObjClosure

	ExcDef types.DefID // ObjException's declaration
}

func newObject(kind layout.ObjKind, typ types.TypeID) *Object {
	o := &Object{Header: HeapHeader{Kind: kind}, Type: typ}
	o.Header.RC.Store(1)
	return o
}

// Pinned reports whether o's rc has been fixed at PinnedRC.
func (o *Object) Pinned() bool { return o.Header.RC.Load() == PinnedRC }

// InArena reports whether o was allocated from a bump arena and so is
// exempt from individual release bookkeeping.
func (o *Object) InArena() bool { return o.Header.Flags&ArenaBit != 0 }
