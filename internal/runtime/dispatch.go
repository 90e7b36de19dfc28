package runtime

import (
	"github.com/kahflane/naml/internal/codegen"
	"github.com/kahflane/naml/internal/diag"
	"github.com/kahflane/naml/internal/heap"
	"github.com/kahflane/naml/internal/mir"
	"github.com/kahflane/naml/internal/types"
)

// signal is what a frame hands back to its caller when it didn't reach
// a plain OpReturn: either a non-catchable Fault, or a naml exception
// still looking for a catch pad further up the call stack. Faults and
// in-flight exceptions unwind through the same frame-pop path (call's
// fr.releaseHeldLocks backstop applies to both) but only an exception
// is ever offered to a Frame's own pad stack — §7: "Runtime faults are
// non-recoverable; they are not catchable via catch."
type signal struct {
	fault *Fault
	exc   heap.Value
	isExc bool
}

// dispatch walks fr.fp.Ops one at a time until a return, an unhandled
// throw, or a Fault ends the frame. It plays the part the teacher's
// vm.Interpreter.run plays against a {BB, IP} pair, just against a
// single flattened ip into the tape codegen already linearized.
func (rt *Runtime) dispatch(fr *Frame) (heap.Value, *signal) {
	for {
		op := &fr.fp.Ops[fr.ip]
		switch op.Kind {
		case codegen.OpNop:
			fr.ip++

		case codegen.OpAssign:
			resultType := fr.resultTypeFor(op.Assign.Dst)
			val, fault := rt.evalRValue(fr, op.Assign.Src, resultType)
			if fault != nil {
				return heap.Value{}, &signal{fault: fault}
			}
			if fault := rt.setPlace(fr, op.Assign.Dst, val); fault != nil {
				return heap.Value{}, &signal{fault: fault}
			}
			fr.ip++

		case codegen.OpRetain:
			rt.heap.Retain(rt.evalOperand(fr, op.Retain).Obj)
			fr.ip++

		case codegen.OpRelease:
			rt.heap.Release(rt.evalOperand(fr, op.Release).Obj)
			fr.ip++

		case codegen.OpPushPad:
			fr.pushPad(op.PadHandler, op.PadBinding)
			fr.ip++

		case codegen.OpPopPad:
			fr.popPad()
			fr.ip++

		case codegen.OpJump:
			fr.ip = op.Target

		case codegen.OpCondBranch:
			if rt.evalOperand(fr, op.Cond).B {
				fr.ip = op.Then
			} else {
				fr.ip = op.Else
			}

		case codegen.OpReturn:
			if op.HasValue {
				return rt.evalOperand(fr, op.Value), nil
			}
			return heap.Unit(), nil

		case codegen.OpUnreachable:
			return heap.Value{}, &signal{fault: rt.fault(fr, diag.UnknownCode, "unreachable code executed")}

		case codegen.OpThrow:
			excVal := rt.evalOperand(fr, op.Throw)
			if pad, ok := fr.takePad(); ok {
				fr.locals[pad.binding] = excVal
				fr.ip = pad.handler
				continue
			}
			return heap.Value{}, &signal{isExc: true, exc: excVal}

		case codegen.OpCallFn:
			args := rt.evalArgs(fr, op.Args)
			result, sig := rt.call(rt.prog.Funcs[op.Callee.FuncIdx], args, fr)
			if sig != nil {
				if handled, ip := rt.offerPad(fr, sig); handled {
					fr.ip = ip
					continue
				}
				return heap.Value{}, sig
			}
			if op.HasDst {
				rt.setPlace(fr, op.Dst, result)
			}
			fr.ip++

		case codegen.OpCallHost:
			result, sig := rt.callHost(fr, op)
			if sig != nil {
				if handled, ip := rt.offerPad(fr, sig); handled {
					fr.ip = ip
					continue
				}
				return heap.Value{}, sig
			}
			if op.HasDst {
				rt.setPlace(fr, op.Dst, result)
			}
			fr.ip++

		case codegen.OpCallClosure:
			args := rt.evalArgs(fr, op.Args)
			closureVal := rt.evalOperand(fr, op.Callee.Value)
			result, sig := rt.InvokeClosure(closureVal, args, fr)
			if sig != nil {
				if handled, ip := rt.offerPad(fr, sig); handled {
					fr.ip = ip
					continue
				}
				return heap.Value{}, sig
			}
			if op.HasDst {
				rt.setPlace(fr, op.Dst, result)
			}
			fr.ip++
		}
	}
}

// offerPad gives fr's own innermost pad a chance to catch a propagating
// exception arriving from a call site, binding the exception value and
// resuming at the handler block. A Fault is never offered — it keeps
// propagating regardless of any active pad.
func (rt *Runtime) offerPad(fr *Frame, sig *signal) (bool, int) {
	if sig.fault != nil || !sig.isExc {
		return false, 0
	}
	pad, ok := fr.takePad()
	if !ok {
		return false, 0
	}
	fr.locals[pad.binding] = sig.exc
	return true, pad.handler
}

func (rt *Runtime) evalArgs(fr *Frame, ops []mir.Operand) []heap.Value {
	args := make([]heap.Value, len(ops))
	for i, a := range ops {
		args[i] = rt.evalOperand(fr, a)
	}
	return args
}

// resultTypeFor returns the declared type an RValueOptionLift/
// OptionTest/Closure assignment materializes into. materialize
// (internal/mir/lower.go) always targets a freshly-created, projection-
// free Place, so a Dst with projections (an actual a[i]=v / s.f=v
// statement) never needs this — its Src is always RValueUse.
func (fr *Frame) resultTypeFor(dst mir.Place) types.TypeID {
	if len(dst.Proj) != 0 {
		return types.NoTypeID
	}
	return fr.fp.Locals[dst.Local].Type
}
