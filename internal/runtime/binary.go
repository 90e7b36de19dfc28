package runtime

import (
	"math"

	"github.com/kahflane/naml/internal/ast"
	"github.com/kahflane/naml/internal/heap"
	"github.com/kahflane/naml/internal/mir"
	"github.com/kahflane/naml/internal/types"
)

// widthBits returns the bit width a types.Width names, defaulting int/uint's
// WidthAny ("machine word", per §3.1) to 64 for overflow-range purposes.
func widthBits(w types.Width) uint {
	switch w {
	case types.Width8:
		return 8
	case types.Width16:
		return 16
	case types.Width32:
		return 32
	default:
		return 64
	}
}

// inRange reports whether v fits in a two's-complement integer of the
// given width, signed or unsigned — used to detect the wraparound §7
// calls integer overflow.
func inRange(v int64, w types.Width, signed bool) bool {
	bits := widthBits(w)
	if bits == 64 {
		return true
	}
	if signed {
		lo := -(int64(1) << (bits - 1))
		hi := (int64(1) << (bits - 1)) - 1
		return v >= lo && v <= hi
	}
	hi := (int64(1) << bits) - 1
	return v >= 0 && v <= hi
}

// evalBinary implements sema/expr.go's checkBinary type rules (§7):
// OpOr/OpAnd on bool with no short-circuiting (mir's own lowering
// evaluates both operands unconditionally — see lower_expr.go's
// *hir.Binary case, which emits no branch instruction), OpEq..OpGtEq on
// any pair of equally-typed operands, the bitwise ops on int/uint,
// OpAdd..OpMod on any numeric kind, and OpElvis's option fallback.
func (rt *Runtime) evalBinary(fr *Frame, b mir.BinaryOp) (heap.Value, *Fault) {
	left := rt.evalOperand(fr, b.Left)

	if b.Op == ast.OpElvis {
		if left.Obj != nil && left.Obj.Tag == 1 {
			return *left.Obj.Payload, nil
		}
		return rt.evalOperand(fr, b.Right), nil
	}

	right := rt.evalOperand(fr, b.Right)
	t := rt.types.Lookup(left.Type)

	switch b.Op {
	case ast.OpOr:
		return heap.Bool(left.Type, left.B || right.B), nil
	case ast.OpAnd:
		return heap.Bool(left.Type, left.B && right.B), nil

	case ast.OpEq:
		return heap.Bool(rt.boolType(left.Type), rt.valuesEqual(left, right, t)), nil
	case ast.OpNotEq:
		return heap.Bool(rt.boolType(left.Type), !rt.valuesEqual(left, right, t)), nil

	case ast.OpLt, ast.OpGt, ast.OpLtEq, ast.OpGtEq:
		return heap.Bool(rt.boolType(left.Type), rt.compare(b.Op, left, right, t)), nil

	case ast.OpBitOr:
		return heap.Int(left.Type, left.I|right.I), nil
	case ast.OpBitXor:
		return heap.Int(left.Type, left.I^right.I), nil
	case ast.OpBitAnd:
		return heap.Int(left.Type, left.I&right.I), nil
	case ast.OpShl:
		return heap.Int(left.Type, left.I<<uint(right.I)), nil
	case ast.OpShr:
		return heap.Int(left.Type, left.I>>uint(right.I)), nil

	default: // OpAdd, OpSub, OpMul, OpDiv, OpMod
		return rt.evalArith(fr, b.Op, left, right, t)
	}
}

func (rt *Runtime) boolType(operandType types.TypeID) types.TypeID {
	return rt.types.Builtins().Bool
}

func (rt *Runtime) valuesEqual(a, b heap.Value, t types.Type) bool {
	switch t.Kind {
	case types.KindFloat:
		return a.F == b.F
	case types.KindBool:
		return a.B == b.B
	case types.KindString:
		return a.Obj.Str == b.Obj.Str
	case types.KindOption, types.KindEnum:
		return optionOrEnumEqual(a, b)
	default:
		return a.I == b.I
	}
}

func optionOrEnumEqual(a, b heap.Value) bool {
	if a.Obj == nil || b.Obj == nil {
		return a.Obj == b.Obj
	}
	if a.Obj.Tag != b.Obj.Tag {
		return false
	}
	if a.Obj.Payload == nil || b.Obj.Payload == nil {
		return a.Obj.Payload == nil && b.Obj.Payload == nil
	}
	return a.Obj.Payload.I == b.Obj.Payload.I && a.Obj.Payload.F == b.Obj.Payload.F
}

func (rt *Runtime) compare(op ast.BinaryOp, a, b heap.Value, t types.Type) bool {
	var lt, eq bool
	switch t.Kind {
	case types.KindFloat:
		lt, eq = a.F < b.F, a.F == b.F
	case types.KindUint:
		lt, eq = uint64(a.I) < uint64(b.I), a.I == b.I
	case types.KindString:
		lt, eq = a.Obj.Str < b.Obj.Str, a.Obj.Str == b.Obj.Str
	default: // int
		lt, eq = a.I < b.I, a.I == b.I
	}
	switch op {
	case ast.OpLt:
		return lt
	case ast.OpGt:
		return !lt && !eq
	case ast.OpLtEq:
		return lt || eq
	default: // ast.OpGtEq
		return !lt
	}
}

func (rt *Runtime) evalArith(fr *Frame, op ast.BinaryOp, a, b heap.Value, t types.Type) (heap.Value, *Fault) {
	if t.Kind == types.KindFloat {
		switch op {
		case ast.OpAdd:
			return heap.Float(a.Type, a.F+b.F), nil
		case ast.OpSub:
			return heap.Float(a.Type, a.F-b.F), nil
		case ast.OpMul:
			return heap.Float(a.Type, a.F*b.F), nil
		case ast.OpDiv:
			return heap.Float(a.Type, a.F/b.F), nil
		default: // ast.OpMod
			return heap.Float(a.Type, math.Mod(a.F, b.F)), nil
		}
	}

	unsigned := t.Kind == types.KindUint
	var result int64
	switch op {
	case ast.OpAdd:
		result = a.I + b.I
	case ast.OpSub:
		result = a.I - b.I
	case ast.OpMul:
		result = a.I * b.I
	case ast.OpDiv:
		if b.I == 0 {
			// §7's taxonomy has no dedicated divide-by-zero code; it
			// reuses RuntimeIntegerOverflow, the closest existing fault
			// for an arithmetically undefined integer operation.
			return heap.Value{}, rt.integerOverflow(fr, "division by zero")
		}
		if unsigned {
			result = int64(uint64(a.I) / uint64(b.I))
		} else {
			result = a.I / b.I
		}
		return heap.Int(a.Type, result), nil
	case ast.OpMod:
		if b.I == 0 {
			return heap.Value{}, rt.integerOverflow(fr, "modulo by zero")
		}
		if unsigned {
			result = int64(uint64(a.I) % uint64(b.I))
		} else {
			result = a.I % b.I
		}
		return heap.Int(a.Type, result), nil
	}

	if !rt.opts.Unsafe && !inRange(result, t.Width, !unsigned) {
		return heap.Value{}, rt.integerOverflow(fr, "arithmetic")
	}
	return heap.Int(a.Type, result), nil
}
