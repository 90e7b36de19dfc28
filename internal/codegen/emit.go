// Package codegen lowers one internal/mir.Func at a time into a linear
// op tape with relocated call targets (§4.5). It plays the role the
// teacher's internal/backend/llvm.Emitter plays — a per-function
// emitter tracking signatures and a relocation table — but targets an
// in-process, interpretable tape rather than textual LLVM IR: the pack
// carries no x86/arm64 assembler dependency, and hand-writing a native
// encoder from scratch is out of scope for this exercise. internal/
// runtime's dispatch loop plays the part §4.5 assigns to "finalize the
// buffer, mark executable, flush icache" — Program.Finalize resolves
// every host-call relocation against the runtime's host-function table
// before the tape is ever run, the same moment of no-more-changes a
// real JIT's mprotect(PROT_EXEC) call marks.
package codegen

import (
	"github.com/kahflane/naml/internal/mir"
	"github.com/kahflane/naml/internal/types"
)

// maxOpsPerFunc bounds one function's tape, standing in for the
// "buffer too small" OutOfMemory failure mode a real native emitter
// would hit against a fixed-size executable mapping.
const maxOpsPerFunc = 1 << 20

// maxHostSlots bounds the relocation table's addressable range,
// standing in for RelocationOverflow.
const maxHostSlots = 1 << 16

// FuncProgram is one function's emitted tape.
type FuncProgram struct {
	Name string

	Ops []Op

	Locals      []mir.Local
	ParamLocals []mir.LocalID
	Result      types.TypeID
	Throws      []types.TypeID
}

// Emitter tracks cross-function state while a Module is emitted: the
// direct-call symbol table (every mir.Func's index, known up front so
// forward references resolve) and the host-call relocation table
// (assigned lazily, in first-referenced order, mirroring how a linker
// assigns GOT slots as it encounters new external symbols).
type Emitter struct {
	mod *mir.Module

	funcIndex map[string]int

	hostSlot  map[string]int
	hostNames []string
}

// EmitModule emits every function in mod into a Program. The Program
// is not runnable until Finalize resolves its host relocations.
func EmitModule(mod *mir.Module) (*Program, error) {
	e := &Emitter{
		mod:       mod,
		funcIndex: make(map[string]int, len(mod.Funcs)),
		hostSlot:  make(map[string]int),
	}
	for i, f := range mod.Funcs {
		e.funcIndex[f.Name] = i
	}

	prog := &Program{ByName: make(map[string]*FuncProgram, len(mod.Funcs))}
	for _, f := range mod.Funcs {
		fp, err := e.emitFunc(f)
		if err != nil {
			return nil, err
		}
		prog.Funcs = append(prog.Funcs, fp)
		prog.ByName[fp.Name] = fp
	}
	prog.HostTable = e.hostNames
	prog.Consts = mod.Consts
	return prog, nil
}

func (e *Emitter) emitFunc(f *mir.Func) (*FuncProgram, error) {
	starts := make([]int, len(f.Blocks))
	offset := 0
	for i, b := range f.Blocks {
		starts[i] = offset
		offset += len(b.Instrs) + 1 // +1 for the block's terminator
	}
	if offset > maxOpsPerFunc {
		return nil, errOutOfMemory(f.Name, offset)
	}

	ops := make([]Op, 0, offset)
	for _, b := range f.Blocks {
		for _, instr := range b.Instrs {
			op, err := e.emitInstr(f, instr, starts)
			if err != nil {
				return nil, err
			}
			ops = append(ops, op)
		}
		term, err := e.emitTerm(f, b.Term, starts)
		if err != nil {
			return nil, err
		}
		ops = append(ops, term)
	}

	return &FuncProgram{
		Name:        f.Name,
		Ops:         ops,
		Locals:      f.Locals,
		ParamLocals: f.Params,
		Result:      f.Result,
		Throws:      f.Throws,
	}, nil
}

func (e *Emitter) emitInstr(f *mir.Func, instr mir.Instr, starts []int) (Op, error) {
	switch instr.Kind {
	case mir.InstrAssign:
		return Op{Kind: OpAssign, Assign: instr.Assign}, nil
	case mir.InstrCall:
		return e.emitCall(f, instr.Call)
	case mir.InstrRetain:
		return Op{Kind: OpRetain, Retain: instr.Retain}, nil
	case mir.InstrRelease:
		return Op{Kind: OpRelease, Release: instr.Release}, nil
	case mir.InstrPushPad:
		return Op{
			Kind:       OpPushPad,
			PadHandler: starts[instr.PushPad.Handler],
			PadBinding: instr.PushPad.Binding,
		}, nil
	case mir.InstrPopPad:
		return Op{Kind: OpPopPad}, nil
	default: // mir.InstrNop
		return Op{Kind: OpNop}, nil
	}
}

func (e *Emitter) emitCall(f *mir.Func, call mir.CallInstr) (Op, error) {
	slot, kind, err := e.resolveCallee(f, call)
	if err != nil {
		return Op{}, err
	}
	return Op{Kind: kind, HasDst: call.HasDst, Dst: call.Dst, Callee: slot, Args: call.Args}, nil
}

func (e *Emitter) resolveCallee(f *mir.Func, call mir.CallInstr) (CalleeSlot, OpCode, error) {
	c := call.Callee
	switch c.Kind {
	case mir.CalleeFn:
		idx, ok := e.funcIndex[c.Name]
		if !ok {
			return CalleeSlot{}, OpNop, errUnresolvedCallee(f.Name, c.Name)
		}
		callee := e.mod.Funcs[idx]
		if len(call.Args) != len(callee.Params) {
			return CalleeSlot{}, OpNop, errABIMismatch(f.Name, c.Name, len(callee.Params), len(call.Args))
		}
		return CalleeSlot{Kind: mir.CalleeFn, FuncIdx: idx}, OpCallFn, nil

	case mir.CalleeHost:
		slot, ok := e.hostSlot[c.Name]
		if !ok {
			if len(e.hostNames) >= maxHostSlots {
				return CalleeSlot{}, OpNop, errRelocationOverflow(f.Name, len(e.hostNames))
			}
			slot = len(e.hostNames)
			e.hostSlot[c.Name] = slot
			e.hostNames = append(e.hostNames, c.Name)
		}
		return CalleeSlot{Kind: mir.CalleeHost, Host: slot, HostSym: c.Name}, OpCallHost, nil

	default: // mir.CalleeValue
		return CalleeSlot{Kind: mir.CalleeValue, Value: c.Value}, OpCallClosure, nil
	}
}

func (e *Emitter) emitTerm(f *mir.Func, t mir.Terminator, starts []int) (Op, error) {
	switch t.Kind {
	case mir.TermReturn:
		return Op{Kind: OpReturn, HasValue: t.Return.HasValue, Value: t.Return.Value}, nil
	case mir.TermJump:
		return Op{Kind: OpJump, Target: starts[t.Jump.Target]}, nil
	case mir.TermCondBranch:
		return Op{
			Kind: OpCondBranch,
			Cond: t.CondBranch.Cond,
			Then: starts[t.CondBranch.Then],
			Else: starts[t.CondBranch.Else],
		}, nil
	case mir.TermThrow:
		return Op{Kind: OpThrow, Throw: t.Throw.Value}, nil
	case mir.TermUnreachable:
		return Op{Kind: OpUnreachable}, nil
	default: // mir.TermNone
		return Op{}, errUnterminatedBlock(f.Name)
	}
}
