package runtime

import (
	"errors"

	"github.com/kahflane/naml/internal/codegen"
	"github.com/kahflane/naml/internal/heap"
	"github.com/kahflane/naml/internal/mir"
	"github.com/kahflane/naml/internal/syncrt"
	"github.com/kahflane/naml/internal/types"
)

// errSendOnClosed is the sentinel a channel send host function returns
// on a failed send, so callHost can build a proper Fault (with the
// calling Frame's backtrace) rather than losing that context the way a
// plain *Fault built without a Frame would — see host.go's callHost for
// the paired case.
var errSendOnClosed = errors.New("send on closed channel")

// HostTable builds the runtime's concrete implementation for every
// §6.1 host symbol this package knows how to run, against one shared
// heap.Heap/types.Interner. Most entries are thin wrappers around
// internal/syncrt or heap.Object's own channel methods;
// naml_iter_has_next/naml_iter_next and naml_spawn/naml_join are never
// actually called through this table (see callHost's special-casing)
// but still need an entry here because codegen.Program.Finalize
// requires every name any CalleeHost references to resolve —
// EmitModule has no way to know callHost intercepts them first.
//
// naml_open_channel's contract, since no front-end lowering emits it
// yet (see DESIGN.md's wiring-gap entry) and so no real call site fixes
// its argument shape: args[0] is the requested capacity (an int Value);
// args[1] is a zero Value carrying the *channel*'s own TypeID (its
// payload otherwise unused) — the witness a real construction-syntax
// lowering would need to supply, since a HostFunc has no separate
// result-type parameter to consult otherwise.
//
// naml_retain/naml_release/naml_alloc/naml_throw/naml_panic have no
// entry: grepping internal/mir shows none of the five is ever emitted
// as a CalleeHost callee by the current lowering (retain/release go
// through dedicated InstrRetain/InstrRelease instructions instead; a
// struct/array/exception literal allocates via its own RValue case, not
// a host call), so Finalize never looks them up.
func HostTable(h *heap.Heap, in *types.Interner) map[string]codegen.HostFunc {
	equal := func(a, b heap.Value) bool {
		if a.Obj != nil || b.Obj != nil {
			if a.Obj == nil || b.Obj == nil {
				return false
			}
			return a.Obj.Str == b.Obj.Str
		}
		return a.I == b.I && a.F == b.F && a.B == b.B
	}

	boolType := in.Builtins().Bool

	stub := func([]heap.Value) (heap.Value, error) { return heap.Unit(), nil }

	return map[string]codegen.HostFunc{
		mir.HostMutexLock: func(args []heap.Value) (heap.Value, error) {
			syncrt.Lock(args[0].Obj)
			return heap.Unit(), nil
		},
		mir.HostMutexRead: func(args []heap.Value) (heap.Value, error) {
			return syncrt.Read(args[0].Obj), nil
		},
		mir.HostMutexWrite: func(args []heap.Value) (heap.Value, error) {
			syncrt.Write(args[0].Obj, args[1])
			return heap.Unit(), nil
		},
		mir.HostMutexUnlock: func(args []heap.Value) (heap.Value, error) {
			syncrt.Unlock(args[0].Obj)
			return heap.Unit(), nil
		},

		mir.HostRwLockRLock: func(args []heap.Value) (heap.Value, error) {
			syncrt.RLock(args[0].Obj)
			return heap.Unit(), nil
		},
		mir.HostRwLockRRead: func(args []heap.Value) (heap.Value, error) {
			return syncrt.Read(args[0].Obj), nil
		},
		mir.HostRwLockRUnlk: func(args []heap.Value) (heap.Value, error) {
			syncrt.RUnlock(args[0].Obj)
			return heap.Unit(), nil
		},
		mir.HostRwLockWLock: func(args []heap.Value) (heap.Value, error) {
			syncrt.Lock(args[0].Obj)
			return heap.Unit(), nil
		},
		mir.HostRwLockWRead: func(args []heap.Value) (heap.Value, error) {
			return syncrt.Read(args[0].Obj), nil
		},
		mir.HostRwLockWWrite: func(args []heap.Value) (heap.Value, error) {
			syncrt.Write(args[0].Obj, args[1])
			return heap.Unit(), nil
		},
		mir.HostRwLockWUnlk: func(args []heap.Value) (heap.Value, error) {
			syncrt.Unlock(args[0].Obj)
			return heap.Unit(), nil
		},

		mir.HostAtomicLoad: func(args []heap.Value) (heap.Value, error) {
			return syncrt.Load(args[0].Obj), nil
		},
		mir.HostAtomicStore: func(args []heap.Value) (heap.Value, error) {
			syncrt.Store(args[0].Obj, args[1])
			return heap.Unit(), nil
		},
		mir.HostAtomicCAS: func(args []heap.Value) (heap.Value, error) {
			ok := syncrt.CAS(args[0].Obj, args[1], args[2], equal)
			return heap.Bool(boolType, ok), nil
		},

		mir.HostChannelOpen: func(args []heap.Value) (heap.Value, error) {
			capacity := int(args[0].I)
			chanType := args[1].Type
			elemType := in.Lookup(chanType).Elem
			obj := h.AllocChannel(chanType, elemType, capacity, false)
			return heap.Boxed(chanType, obj), nil
		},
		mir.HostChannelSend: func(args []heap.Value) (heap.Value, error) {
			if !args[0].Obj.ChannelSend(args[1]) {
				return heap.Value{}, errSendOnClosed
			}
			return heap.Unit(), nil
		},
		mir.HostChannelRecv: func(args []heap.Value) (heap.Value, error) {
			optType := in.Option(args[0].Obj.ElemType)
			v, ok := args[0].Obj.ChannelReceive()
			if !ok {
				return heap.Boxed(optType, h.AllocNone(optType, false)), nil
			}
			return heap.Boxed(optType, h.AllocSome(optType, v, false)), nil
		},
		mir.HostChannelClose: func(args []heap.Value) (heap.Value, error) {
			args[0].Obj.ChannelClose()
			return heap.Unit(), nil
		},

		// naml_spawn/naml_join: resolved so Finalize is satisfied, but
		// callHost intercepts mir.HostSchedulerEnqueue/WaitAll before
		// ever consulting ResolvedHosts (it needs the calling Frame's
		// own Barrier, which this stateless shape can't carry).
		mir.HostSchedulerEnqueue: stub,
		mir.HostSchedulerWaitAll: stub,

		// Likewise intercepted directly in callHost for their Frame-
		// local cursor state.
		mir.HostIterHasNext: stub,
		mir.HostIterNext:    stub,
	}
}
