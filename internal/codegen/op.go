package codegen

import (
	"github.com/kahflane/naml/internal/mir"
)

// OpCode enumerates the op-tape's instruction set. Each one corresponds
// 1:1 to a mir.Instr/mir.Terminator form; codegen's job is flattening
// mir's basic-block graph into a single linear tape per function and
// resolving every jump target and call to a tape-local index instead
// of a mir.BlockID or an unresolved callee name.
type OpCode uint8

const (
	OpNop OpCode = iota
	OpAssign
	OpCallFn
	OpCallHost
	OpCallClosure
	OpRetain
	OpRelease
	OpPushPad
	OpPopPad
	OpJump
	OpCondBranch
	OpReturn
	OpThrow
	OpUnreachable
)

// CalleeSlot resolves a mir.Callee once and for all: a direct call
// addresses another Func by its index in Program.Funcs, a host call
// addresses a slot in the relocation table Finalize resolves against
// the runtime's host-function table (§4.5's "indirect calls through a
// process-global function table"), and a closure call carries the
// operand holding the closure value itself — resolved to a concrete
// function only at run time, by internal/runtime reading the heap
// object's ClosureFn.
type CalleeSlot struct {
	Kind    mir.CalleeKind
	FuncIdx int         // CalleeFn: index into Program.Funcs
	Host    int         // CalleeHost: slot index into Program.HostTable/ResolvedHosts
	HostSym string      // CalleeHost: the unresolved name, kept for diagnostics
	Value   mir.Operand // CalleeValue
}

// Op is one tape slot. Only the fields relevant to Kind are populated;
// everything else mirrors mir.Instr/mir.Terminator's payload union
// rather than inventing a new op-specific encoding, since codegen's
// only real transformation here is linearization and relocation, not
// re-encoding instruction semantics.
type Op struct {
	Kind OpCode

	Assign mir.AssignInstr

	HasDst bool
	Dst    mir.Place
	Callee CalleeSlot
	Args   []mir.Operand

	Retain  mir.Operand
	Release mir.Operand

	PadHandler int // OpPushPad: tape index of the handler block
	PadBinding mir.LocalID

	Target int         // OpJump
	Then   int         // OpCondBranch
	Else   int         // OpCondBranch
	Cond   mir.Operand // OpCondBranch

	HasValue bool
	Value    mir.Operand // OpReturn

	Throw mir.Operand
}
