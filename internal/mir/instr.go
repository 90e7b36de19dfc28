package mir

import (
	"github.com/kahflane/naml/internal/ast"
	"github.com/kahflane/naml/internal/types"
)

// InstrKind enumerates mir instruction kinds. Locked regions, spawn, and
// join are deliberately NOT their own instruction kinds: §4.4 lowers them
// to ordinary calls against well-known host symbols (HostMutexLock,
// HostSchedulerEnqueue, ...), so InstrCall covers them already.
type InstrKind uint8

const (
	InstrAssign InstrKind = iota
	InstrCall
	InstrRetain
	InstrRelease
	// InstrPushPad and InstrPopPad bracket one catch frame's protected
	// region: "each catch frame sets a landing pad on entry and clears it
	// on exit" (§4.4). Handler/Binding are read by internal/runtime's
	// unwinder, which maintains the active pad stack per task.
	InstrPushPad
	InstrPopPad
	InstrNop
)

type Instr struct {
	Kind InstrKind

	Assign  AssignInstr
	Call    CallInstr
	Retain  Operand
	Release Operand
	PushPad PushPadInstr
}

type AssignInstr struct {
	Dst Place
	Src RValue
}

type CallInstr struct {
	HasDst bool
	Dst    Place
	Callee Callee
	Args   []Operand
}

type PushPadInstr struct {
	Handler BlockID
	Binding LocalID // bound to the thrown value on entry to Handler
}

// OperandKind distinguishes a use of a constant from a use of a local.
// Unlike the teacher's move-checked Operand, there's no Copy/Move/AddrOf
// distinction: naml values are either unboxed scalars (trivially copied)
// or refcounted heap values (InstrRetain/InstrRelease make ownership
// transfer explicit instead of the operand kind doing it, §4.6).
type OperandKind uint8

const (
	OperandConst OperandKind = iota
	OperandLocal
)

type Operand struct {
	Kind  OperandKind
	Type  types.TypeID
	Const Const
	Local LocalID
}

type ConstKind uint8

const (
	ConstInt ConstKind = iota
	ConstFloat
	ConstBool
	ConstString
	ConstNothing // the `none` literal / unit value
)

type Const struct {
	Kind  ConstKind
	Type  types.TypeID
	Int   int64
	Float float64
	Bool  bool
	Str   string
}

// RValueKind enumerates the value-numbered operations §4.4 names:
// arithmetic, comparison, field access, enum tag test/payload extract,
// option lift/unwrap. Load/store is InstrAssign against a Place; heap
// allocation is implicit in StructLit/ArrayLit/Closure (internal/runtime
// allocates through internal/heap when it evaluates them); retain/release
// are their own Instr kind, not an RValue, since they produce no value.
type RValueKind uint8

const (
	RValueUse RValueKind = iota
	RValueUnary
	RValueBinary
	RValueCast
	RValueStructLit
	RValueArrayLit
	RValueField
	RValueIndex
	RValueOptionLift   // T -> option<T>
	RValueOptionUnwrap // option<T> -> T; faults at runtime on none (ast.OpForceUnwrap)
	RValueOptionTest   // option<T> -> bool; true iff some
	RValueClosure
)

type RValue struct {
	Kind RValueKind

	Use          Operand
	Unary        UnaryOp
	Binary       BinaryOp
	Cast         CastOp
	StructLit    StructLit
	ArrayLit     ArrayLit
	Field        FieldAccess
	Index        IndexAccess
	OptionLift   Operand
	OptionUnwrap Operand
	OptionTest   Operand
	Closure      ClosureLit
}

type UnaryOp struct {
	Op      ast.UnaryOp
	Operand Operand
}

type BinaryOp struct {
	Op    ast.BinaryOp
	Left  Operand
	Right Operand
}

type CastOp struct {
	Value  Operand
	Target types.TypeID
}

type StructLitField struct {
	Name  string
	Value Operand
}

type StructLit struct {
	Type   types.TypeID
	Fields []StructLitField
}

type ArrayLit struct {
	Elem  types.TypeID
	Elems []Operand
}

type FieldAccess struct {
	Object   Operand
	Name     string
	FieldIdx int
}

type IndexAccess struct {
	Object Operand
	Index  Operand
}

// ClosureLit captures a func's mangled name plus the locals it closes
// over, one per spawn-block/closure-typed value literal.
type ClosureLit struct {
	FuncName string
	Captures []Operand
}
