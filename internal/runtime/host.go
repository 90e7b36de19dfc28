package runtime

import (
	"github.com/kahflane/naml/internal/codegen"
	"github.com/kahflane/naml/internal/diag"
	"github.com/kahflane/naml/internal/heap"
	"github.com/kahflane/naml/internal/mir"
)

// callHost dispatches one OpCallHost. HostIterHasNext/HostIterNext are
// special-cased directly here rather than routed through the generic
// stateless codegen.HostFunc table: they need the calling Frame's own
// iteration-cursor state (keyed by LocalID, see Frame.cursorFor), which
// the generic `func(args []heap.Value) (heap.Value, error)` shape has
// no way to carry. Every other host symbol (mutex/rwlock/atomic/
// channel/scheduler) goes through ResolvedHosts, with lock-acquiring
// and lock-releasing symbols additionally updating fr.heldLocks so an
// abandoned frame can still unwind them (see Frame.releaseHeldLocks).
func (rt *Runtime) callHost(fr *Frame, op *codegen.Op) (heap.Value, *signal) {
	switch op.Callee.HostSym {
	case mir.HostIterHasNext:
		return rt.iterHasNext(fr, op.Args[0]), nil
	case mir.HostIterNext:
		return rt.iterNext(fr, op.Args[0]), nil
	case mir.HostSchedulerEnqueue:
		return rt.spawnTask(fr, op.Args[0]), nil
	case mir.HostSchedulerWaitAll:
		if err := fr.barrier().Wait(); err != nil {
			return heap.Value{}, &signal{fault: rt.taskFault(fr, err)}
		}
		return heap.Unit(), nil
	}

	args := rt.evalArgs(fr, op.Args)
	fn := rt.prog.ResolvedHosts[op.Callee.Host]
	result, err := fn(args)
	if err != nil {
		if hostExc, ok := err.(*codegen.HostException); ok {
			if pad, ok := fr.takePad(); ok {
				fr.locals[pad.binding] = hostExc.Value
				fr.ip = pad.handler
				return heap.Value{}, nil
			}
			return heap.Value{}, &signal{isExc: true, exc: hostExc.Value}
		}
		if err == errSendOnClosed {
			return heap.Value{}, &signal{fault: rt.sendOnClosed(fr)}
		}
		if f, ok := err.(*Fault); ok {
			return heap.Value{}, &signal{fault: f}
		}
		return heap.Value{}, &signal{fault: rt.fault(fr, diag.UnknownCode, "host call %q failed: %v", op.Callee.HostSym, err)}
	}

	rt.trackLock(fr, op.Callee.HostSym, args)
	return result, nil
}

// spawnTask hands closureOp's evaluated closure to the scheduler against
// fr's own barrier (created lazily — most frames never spawn). It
// carries no extra call-site args: a spawn block's captures already
// flow through the closure's own Captures (mir's lowerSpawn).
func (rt *Runtime) spawnTask(fr *Frame, closureOp mir.Operand) heap.Value {
	closureVal := rt.evalOperand(fr, closureOp)
	rt.sched.Spawn(fr.barrier(), closureVal, nil)
	return heap.Unit()
}

// taskFault turns a spawned task's terminating error (already a *Fault,
// from Runtime.RunTask) into the Fault this frame's join() raises,
// falling back to a generic wrap for any other error shape.
func (rt *Runtime) taskFault(fr *Frame, err error) *Fault {
	if f, ok := err.(*Fault); ok {
		return f
	}
	return rt.fault(fr, diag.UnknownCode, "spawned task failed: %v", err)
}

func (rt *Runtime) trackLock(fr *Frame, sym string, args []heap.Value) {
	if len(args) == 0 || args[0].Obj == nil {
		return
	}
	obj := args[0].Obj
	switch sym {
	case mir.HostMutexLock:
		fr.pushLock(obj, lockMutex)
	case mir.HostMutexUnlock:
		fr.popLock(obj)
	case mir.HostRwLockRLock:
		fr.pushLock(obj, lockRLock)
	case mir.HostRwLockRUnlk:
		fr.popLock(obj)
	case mir.HostRwLockWLock:
		fr.pushLock(obj, lockWLock)
	case mir.HostRwLockWUnlk:
		fr.popLock(obj)
	}
}

func (rt *Runtime) iterHasNext(fr *Frame, cursorOp mir.Operand) heap.Value {
	cur := fr.cursorFor(cursorOp.Local)
	if cur.elems == nil {
		obj := rt.evalOperand(fr, cursorOp).Obj
		cur.elems = snapshotIterable(obj)
	}
	return heap.Bool(rt.types.Builtins().Bool, cur.idx < len(cur.elems))
}

func (rt *Runtime) iterNext(fr *Frame, cursorOp mir.Operand) heap.Value {
	cur := fr.cursorFor(cursorOp.Local)
	if cur.idx >= len(cur.elems) {
		return heap.Unit()
	}
	v := cur.elems[cur.idx]
	cur.idx++
	return v
}

// snapshotIterable captures an array's elements, or (when hir ever
// assigns a map a proper element type — today hir.lower's *ast.ForStmt
// case only computes Elem for KindArray, leaving map-iteration's
// element type unresolved) a map's values in enumeration order. Taking
// the snapshot once, on the first HostIterHasNext call, matches §5's
// "a for loop over a shared array/map sees a consistent snapshot rather
// than observing concurrent mutation mid-iteration."
func snapshotIterable(obj *heap.Object) []heap.Value {
	if obj == nil {
		return nil
	}
	if obj.Entries != nil {
		vals := make([]heap.Value, 0, len(obj.Entries))
		for _, v := range obj.Entries {
			vals = append(vals, v)
		}
		return vals
	}
	return append([]heap.Value(nil), obj.Elems...)
}
