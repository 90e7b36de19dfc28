package heap

import (
	"fmt"
	"sync"

	"github.com/kahflane/naml/internal/layout"
	"github.com/kahflane/naml/internal/types"
)

// Heap allocates and reclaims Objects. It does not itself manage raw
// memory the way internal/layout's byte offsets would suggest: an
// Object's payload lives in ordinary Go-GC'd memory, and what Heap
// actually owns is the naml-level refcounting discipline (§4.6) layered
// on top — retain/release walk Object graphs and free an Object's
// naml-visible resources (closing a channel, forgetting its fields) the
// moment its rc hits zero, but the backing Go memory itself is reclaimed
// by the host runtime's GC once nothing (naml-level or Go-level) still
// points to it. See DESIGN.md for why this trade naml's own arena/pinning
// semantics stay meaningful without a from-scratch allocator.
type Heap struct {
	mu        sync.Mutex
	arenaBits []*Object // objects tagged ArenaBit since the last ResetArena
}

func New() *Heap { return &Heap{} }

func (h *Heap) track(o *Object) *Object {
	if o.InArena() {
		h.mu.Lock()
		h.arenaBits = append(h.arenaBits, o)
		h.mu.Unlock()
	}
	return o
}

// arenaFlag returns ArenaBit if arena is true, used by every Alloc*
// constructor's caller-supplied arena flag.
func arenaFlag(arena bool) uint8 {
	if arena {
		return ArenaBit
	}
	return 0
}

func (h *Heap) AllocString(typ types.TypeID, s string, arena bool) *Object {
	o := newObject(layout.ObjString, typ)
	o.Header.Flags = arenaFlag(arena)
	o.Str = s
	return h.track(o)
}

func (h *Heap) AllocBytes(typ types.TypeID, b []byte, arena bool) *Object {
	o := newObject(layout.ObjBytes, typ)
	o.Header.Flags = arenaFlag(arena)
	o.Buf = append([]byte(nil), b...)
	return h.track(o)
}

func (h *Heap) AllocArray(typ, elemType types.TypeID, elems []Value, arena bool) *Object {
	o := newObject(layout.ObjArray, typ)
	o.Header.Flags = arenaFlag(arena)
	o.ElemType = elemType
	o.Elems = append([]Value(nil), elems...)
	return h.track(o)
}

func (h *Heap) AllocMap(typ types.TypeID, arena bool) *Object {
	o := newObject(layout.ObjMap, typ)
	o.Header.Flags = arenaFlag(arena)
	o.Entries = make(map[any]Value)
	return h.track(o)
}

func (h *Heap) AllocStruct(typ types.TypeID, fields []Value, arena bool) *Object {
	o := newObject(layout.ObjStruct, typ)
	o.Header.Flags = arenaFlag(arena)
	o.Fields = append([]Value(nil), fields...)
	return h.track(o)
}

func (h *Heap) AllocException(typ types.TypeID, def types.DefID, fields []Value, arena bool) *Object {
	o := newObject(layout.ObjException, typ)
	o.Header.Flags = arenaFlag(arena)
	o.ExcDef = def
	o.Fields = append([]Value(nil), fields...)
	return h.track(o)
}

func (h *Heap) AllocEnum(typ types.TypeID, tag uint16, payload *Value, arena bool) *Object {
	o := newObject(layout.ObjEnum, typ)
	o.Header.Flags = arenaFlag(arena)
	o.Tag = tag
	o.Payload = payload
	return h.track(o)
}

// AllocNone and AllocSome construct Option's two variants, sharing
// Enum's {tag, payload} shape per §3.1.
func (h *Heap) AllocNone(typ types.TypeID, arena bool) *Object {
	o := newObject(layout.ObjOption, typ)
	o.Header.Flags = arenaFlag(arena)
	return h.track(o)
}

func (h *Heap) AllocSome(typ types.TypeID, v Value, arena bool) *Object {
	o := newObject(layout.ObjOption, typ)
	o.Header.Flags = arenaFlag(arena)
	o.Tag = 1
	o.Payload = &v
	return h.track(o)
}

func (h *Heap) AllocMutex(typ types.TypeID, initial Value, arena bool) *Object {
	o := newObject(layout.ObjMutex, typ)
	o.Header.Flags = arenaFlag(arena)
	o.Lock = &sync.RWMutex{}
	o.Guarded = initial
	return h.track(o)
}

func (h *Heap) AllocRwLock(typ types.TypeID, initial Value, arena bool) *Object {
	o := newObject(layout.ObjRwLock, typ)
	o.Header.Flags = arenaFlag(arena)
	o.Lock = &sync.RWMutex{}
	o.Guarded = initial
	return h.track(o)
}

func (h *Heap) AllocAtomic(typ types.TypeID, initial Value, arena bool) *Object {
	o := newObject(layout.ObjAtomic, typ)
	o.Header.Flags = arenaFlag(arena)
	o.Lock = &sync.RWMutex{}
	o.Guarded = initial
	return h.track(o)
}

func (h *Heap) AllocChannel(typ, elemType types.TypeID, capacity int, arena bool) *Object {
	o := newObject(layout.ObjChannel, typ)
	o.Header.Flags = arenaFlag(arena)
	o.ElemType = elemType
	o.Ch = make(chan Value, capacity)
	o.ChCap = capacity
	return h.track(o)
}

func (h *Heap) AllocClosure(typ types.TypeID, fn string, captures []Value, arena bool) *Object {
	o := newObject(layout.ObjClosure, typ)
	o.Header.Flags = arenaFlag(arena)
	o.ClosureFn = fn
	o.Captures = append([]Value(nil), captures...)
	return h.track(o)
}

// Pin fixes o's rc at PinnedRC: every future Retain/Release on o
// becomes a no-op (§4.6).
func (h *Heap) Pin(o *Object) {
	if o == nil {
		return
	}
	o.Header.RC.Store(PinnedRC)
}

// Retain increments o's rc, and transitively retains every boxed Value
// it directly holds is NOT performed here — §4.6 retains are shallow;
// only release walks an Object's graph, once its own rc reaches zero.
func (h *Heap) Retain(o *Object) {
	if o == nil || o.Pinned() {
		return
	}
	o.Header.RC.Add(1)
}

// Release decrements o's rc; at zero it recursively releases every
// boxed Value the object directly holds, then relinquishes o's own
// naml-level resources (closing a channel, forgetting a closure's
// captures). Releasing an object with rc already at zero is a release
// underflow (§7's RuntimeReleaseUnderflow) and panics, since that can
// only happen from a retain/release bookkeeping bug upstream. The
// decrement is a CAS loop rather than a plain add-then-check so that
// two goroutines racing to release the same shared object (naml
// objects are routinely shared across spawned tasks, §5) can't both
// observe rc==1 and both think they own the drop-to-zero transition.
func (h *Heap) Release(o *Object) {
	if o == nil || o.Pinned() || o.InArena() {
		return
	}
	for {
		cur := o.Header.RC.Load()
		if cur == 0 {
			panic(fmt.Sprintf("release underflow on object kind %d", o.Header.Kind))
		}
		if o.Header.RC.CompareAndSwap(cur, cur-1) {
			if cur > 1 {
				return
			}
			break
		}
	}
	h.drop(o)
}

func (h *Heap) drop(o *Object) {
	switch o.Header.Kind {
	case layout.ObjArray:
		for _, v := range o.Elems {
			h.releaseValue(v)
		}
		o.Elems = nil
	case layout.ObjMap:
		for _, v := range o.Entries {
			h.releaseValue(v)
		}
		o.Entries = nil
	case layout.ObjStruct, layout.ObjException:
		for _, v := range o.Fields {
			h.releaseValue(v)
		}
		o.Fields = nil
	case layout.ObjEnum, layout.ObjOption:
		if o.Payload != nil {
			h.releaseValue(*o.Payload)
		}
		o.Payload = nil
	case layout.ObjMutex, layout.ObjRwLock, layout.ObjAtomic:
		h.releaseValue(o.Guarded)
		o.Guarded = Value{}
	case layout.ObjClosure:
		for _, v := range o.Captures {
			h.releaseValue(v)
		}
		o.Captures = nil
	case layout.ObjChannel:
		o.ChannelClose()
	case layout.ObjString, layout.ObjBytes:
		// no nested references
	}
}

func (h *Heap) releaseValue(v Value) {
	if v.Obj != nil {
		h.Release(v.Obj)
	}
}

// ChannelSend enqueues v, blocking while the channel is full (§4.8).
// ok is false if the channel was already closed, or is closed by a
// racing ChannelClose while the send was in flight — internal/runtime
// turns either case into RuntimeSendOnClosed (§7) instead of letting a
// send on a closed Go channel panic the process.
func (o *Object) ChannelSend(v Value) (ok bool) {
	o.chMu.Lock()
	if o.closed {
		o.chMu.Unlock()
		return false
	}
	o.chMu.Unlock()
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	o.Ch <- v
	return true
}

// ChannelReceive blocks while the channel is empty and open. ok is
// false once the channel is closed and drained (§4.8: "receive on a
// closed empty channel returns none").
func (o *Object) ChannelReceive() (Value, bool) {
	v, ok := <-o.Ch
	return v, ok
}

// ChannelClose wakes every blocked sender/receiver; idempotent.
func (o *Object) ChannelClose() {
	o.chMu.Lock()
	defer o.chMu.Unlock()
	if o.closed {
		return
	}
	o.closed = true
	close(o.Ch)
}

// ChannelClosed reports whether ChannelClose has already run.
func (o *Object) ChannelClosed() bool {
	o.chMu.Lock()
	defer o.chMu.Unlock()
	return o.closed
}

// ArrayGet reads an array element by index, reporting ok=false on an
// out-of-range idx rather than panicking: internal/runtime turns that
// into a checked RuntimeIndexOutOfBounds fault (§7) instead of a Go
// panic.
func (o *Object) ArrayGet(idx int) (Value, bool) {
	if idx < 0 || idx >= len(o.Elems) {
		return Value{}, false
	}
	return o.Elems[idx], true
}

// ArraySet writes an array element by index, reporting ok=false on an
// out-of-range idx.
func (o *Object) ArraySet(idx int, v Value) bool {
	if idx < 0 || idx >= len(o.Elems) {
		return false
	}
	o.Elems[idx] = v
	return true
}

// MapGet and MapSet key a map's Entries by mapKey(key), keeping that
// string-content-vs-object-identity decision (§3.1: "keys restricted to
// scalar or string") encapsulated here instead of leaking Entries'
// storage representation to callers like internal/runtime.
func (o *Object) MapGet(key Value) (Value, bool) {
	v, ok := o.Entries[mapKey(key)]
	return v, ok
}

func (o *Object) MapSet(key, v Value) {
	o.Entries[mapKey(key)] = v
}

func (o *Object) MapDelete(key Value) {
	delete(o.Entries, mapKey(key))
}

// ResetArena forgets every Object tagged ArenaBit since the last reset.
// It performs no freeing of its own — those Objects were never
// refcounted, so the Go GC is already free to reclaim any that nothing
// else still reaches; this just drops Heap's own bookkeeping of them.
func (h *Heap) ResetArena() {
	h.mu.Lock()
	h.arenaBits = h.arenaBits[:0]
	h.mu.Unlock()
}
