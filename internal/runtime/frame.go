package runtime

import (
	"github.com/kahflane/naml/internal/codegen"
	"github.com/kahflane/naml/internal/heap"
	"github.com/kahflane/naml/internal/mir"
	"github.com/kahflane/naml/internal/scheduler"
)

// padEntry is one active landing pad, pushed by OpPushPad and popped
// either by OpPopPad (normal completion of the guarded expression) or
// by the unwinder itself when it dispatches a throw to Handler — mirrors
// lowerCatch's doc comment in internal/mir/lower_expr.go.
type padEntry struct {
	handler int
	binding mir.LocalID
}

// lockKind distinguishes which unlock call a held lock needs when a
// frame is abandoned mid-exception-unwind.
type lockKind uint8

const (
	lockMutex lockKind = iota
	lockRLock
	lockWLock
)

// heldLock records one still-open locked/rlocked/wlocked region so an
// abandoned frame (one popped while an exception propagates through it
// with no local catch) can still release it — §4.9: "Between frames,
// active locked/rlocked/wlocked regions release their locks." mir only
// emits the matching unlock call on the *normal* exit path
// (internal/mir/lower_stmt.go's cleanupFrom runs at the statically-known
// throw/return site within the same function); it does not insert a
// check-and-unwind branch after every call that might throw, so a
// propagating exception from a callee never runs an intermediate
// frame's unlock instructions. This list is the runtime's own backstop
// for exactly that gap.
type heldLock struct {
	obj  *heap.Object
	kind lockKind
}

// iterCursor is the runtime-private iteration state a `for` loop's
// HostIterHasNext/HostIterNext calls advance. Keyed by the cursor
// operand's LocalID within a frame rather than by the iterable
// Object's identity: lowerFor materializes the cursor as a fresh copy
// of the iterable operand (internal/mir/lower_stmt.go), so two nested
// loops over the very same array share one Object pointer but get
// distinct LocalIDs — keying by LocalID keeps their cursors from
// colliding the way keying by Object pointer would.
type iterCursor struct {
	elems   []heap.Value // array snapshot, or map entries snapshotted in enumeration order
	idx     int
}

// Frame is one function activation: codegen's flattened op tape replaces
// the teacher's vm.Frame's {BB, IP} pair with a single ip into fp.Ops.
//
// parent links to the caller's Frame within the same goroutine's call
// chain, rather than Runtime holding one shared frame-stack slice: a
// spawned task runs its own call chain concurrently with its parent's
// (§4.7), so a single Runtime-wide []*Frame would need external
// synchronization on every call/return and would race under the
// scheduler's worker pool. Walking parent pointers gives fault.go's
// backtrace and the max-call-depth check the same information a flat
// stack would, per goroutine, at no shared-state cost. depth is parent's
// depth+1 (0 for a task's own root frame), checked against
// maxCallDepth before a new Frame is created.
type Frame struct {
	fp     *codegen.FuncProgram
	ip     int
	locals []heap.Value

	parent *Frame
	depth  int

	pads      []padEntry
	heldLocks []heldLock
	cursors   map[mir.LocalID]*iterCursor

	barrier_ *scheduler.Barrier // lazily created by the first naml_spawn this frame issues; see barrier()
}

func newFrame(fp *codegen.FuncProgram, parent *Frame) *Frame {
	depth := 0
	if parent != nil {
		depth = parent.depth + 1
	}
	return &Frame{fp: fp, locals: make([]heap.Value, len(fp.Locals)), parent: parent, depth: depth}
}

func (f *Frame) cursorFor(local mir.LocalID) *iterCursor {
	if f.cursors == nil {
		f.cursors = make(map[mir.LocalID]*iterCursor)
	}
	c, ok := f.cursors[local]
	if !ok {
		c = &iterCursor{}
		f.cursors[local] = c
	}
	return c
}

func (f *Frame) pushPad(handler int, binding mir.LocalID) {
	f.pads = append(f.pads, padEntry{handler: handler, binding: binding})
}

func (f *Frame) popPad() {
	if len(f.pads) == 0 {
		return
	}
	f.pads = f.pads[:len(f.pads)-1]
}

// takePad pops and returns the innermost active pad, if any. Innermost
// is always the correct (and only, since naml's `catch` has no per-type
// selectivity — ast.Catch/hir.Catch carry a single untyped Handler) match:
// any nested catch inside the guarded expression would already have
// caught and cleared its own pad via normal InstrPopPad execution before
// this throw ever runs, so whatever remains on top is the nearest
// uncaught guard.
func (f *Frame) takePad() (padEntry, bool) {
	if len(f.pads) == 0 {
		return padEntry{}, false
	}
	p := f.pads[len(f.pads)-1]
	f.pads = f.pads[:len(f.pads)-1]
	return p, true
}

func (f *Frame) pushLock(o *heap.Object, kind lockKind) {
	f.heldLocks = append(f.heldLocks, heldLock{obj: o, kind: kind})
}

// popLock removes the innermost held lock matching obj without
// unlocking it (the normal-path host unlock call already released the
// underlying sync.RWMutex; this just drops the bookkeeping entry).
func (f *Frame) popLock(o *heap.Object) {
	for i := len(f.heldLocks) - 1; i >= 0; i-- {
		if f.heldLocks[i].obj == o {
			f.heldLocks = append(f.heldLocks[:i], f.heldLocks[i+1:]...)
			return
		}
	}
}

// barrier returns this frame's spawn/join barrier, creating it on first
// use: most frames never spawn a task and so never need one.
func (f *Frame) barrier() *scheduler.Barrier {
	if f.barrier_ == nil {
		f.barrier_ = scheduler.NewBarrier()
	}
	return f.barrier_
}

// releaseHeldLocks force-unlocks every lock this frame still holds, in
// reverse acquisition order, when the frame is abandoned by a
// propagating exception.
func (f *Frame) releaseHeldLocks() {
	for i := len(f.heldLocks) - 1; i >= 0; i-- {
		hl := f.heldLocks[i]
		switch hl.kind {
		case lockMutex, lockWLock:
			hl.obj.Lock.Unlock()
		case lockRLock:
			hl.obj.Lock.RUnlock()
		}
	}
	f.heldLocks = nil
}
