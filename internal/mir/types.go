// Package mir implements naml's mid-level IR (§4.4): a register-based,
// typed IR with basic blocks ending in one terminator each, lowered
// directly from internal/hir's output after internal/mono has resolved
// every generic call to a concrete specialization. internal/codegen
// consumes one mir.Func at a time.
package mir

import (
	"github.com/kahflane/naml/internal/source"
	"github.com/kahflane/naml/internal/symbols"
	"github.com/kahflane/naml/internal/types"
)

type FuncID int32
type BlockID int32
type LocalID int32

const (
	NoFuncID  FuncID  = -1
	NoBlockID BlockID = -1
	NoLocalID LocalID = -1
)

// Local is one value-numbered slot: either a user binding (Name set, one
// per `let`/param) or a compiler temporary (Name empty, one per
// subexpression result).
type Local struct {
	Type types.TypeID
	Name string
	Span source.Span
}

// PlaceProjKind distinguishes the two ways a Place can be narrowed past
// its root local.
type PlaceProjKind uint8

const (
	PlaceProjField PlaceProjKind = iota
	PlaceProjIndex
)

type PlaceProj struct {
	Kind      PlaceProjKind
	FieldName string
	FieldIdx  int
	Index     Operand // valid when Kind == PlaceProjIndex
}

// Place is an assignable location: a root local plus zero or more
// field/index projections (a.b[i].c), read and written by InstrAssign.
type Place struct {
	Local LocalID
	Proj  []PlaceProj
}

// CalleeKind identifies the target of a direct call by what resolved it:
// a compiled naml function (by its mir-assigned name, post-mono
// mangling), or a host function the runtime's process-global table
// supplies (§4.5, §6.1) — mutex/rwlock/atomic/channel operations,
// scheduler enqueue/wait, and for-loop iteration.
type CalleeKind uint8

const (
	CalleeFn CalleeKind = iota
	CalleeHost
	CalleeValue
)

type Callee struct {
	Kind  CalleeKind
	Sym   symbols.SymbolID // CalleeFn, when resolvable without mono's renaming
	Name  string           // CalleeFn (mangled name) or CalleeHost (host symbol)
	Value Operand          // CalleeValue: a closure-typed operand
}
