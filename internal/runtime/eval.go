package runtime

import (
	"strconv"

	"github.com/kahflane/naml/internal/ast"
	"github.com/kahflane/naml/internal/heap"
	"github.com/kahflane/naml/internal/layout"
	"github.com/kahflane/naml/internal/mir"
	"github.com/kahflane/naml/internal/types"
)

// evalOperand reads a mir.Operand's value: a plain store for OperandLocal,
// or either a literal scalar or a by-name global-const lookup for
// OperandConst (the two ConstNothing shapes lowerExpr's *hir.Ident and
// *hir.Lit cases produce — see internal/mir/lower.go's constValue and
// lower_expr.go's bare-identifier fallback).
func (rt *Runtime) evalOperand(fr *Frame, op mir.Operand) heap.Value {
	if op.Kind == mir.OperandLocal {
		return fr.locals[op.Local]
	}
	return rt.evalConst(op.Const)
}

func (rt *Runtime) evalConst(c mir.Const) heap.Value {
	switch c.Kind {
	case mir.ConstInt:
		return heap.Int(c.Type, c.Int)
	case mir.ConstFloat:
		return heap.Float(c.Type, c.Float)
	case mir.ConstBool:
		return heap.Bool(c.Type, c.Bool)
	case mir.ConstString:
		return heap.Boxed(c.Type, rt.heap.AllocString(c.Type, c.Str, false))
	default: // mir.ConstNothing
		if c.Str != "" {
			if v, ok := rt.consts[c.Str]; ok {
				return v
			}
			// A well-typed program never references an undeclared
			// const (sema resolves every *hir.Ident before lowering);
			// reaching here means either internal/mir or internal/
			// codegen produced a name internal/runtime's const table
			// doesn't have, a bug upstream of this package.
			return heap.Unit()
		}
		return heap.Unit()
	}
}

// evalRValue computes an RValue's result, faulting on the cases §7
// names as checked at this layer: option force-unwrap, array index out
// of bounds (inside evalIndex), and integer overflow (inside evalBinary
// and evalUnary).
func (rt *Runtime) evalRValue(fr *Frame, rv mir.RValue, resultType types.TypeID) (heap.Value, *Fault) {
	switch rv.Kind {
	case mir.RValueUse:
		return rt.evalOperand(fr, rv.Use), nil

	case mir.RValueUnary:
		return rt.evalUnary(fr, rv.Unary)

	case mir.RValueBinary:
		return rt.evalBinary(fr, rv.Binary)

	case mir.RValueCast:
		return rt.evalCast(fr, rv.Cast), nil

	case mir.RValueStructLit:
		return rt.evalStructLit(fr, rv.StructLit), nil

	case mir.RValueArrayLit:
		return rt.evalArrayLit(fr, rv.ArrayLit), nil

	case mir.RValueField:
		obj := rt.evalOperand(fr, rv.Field.Object)
		return obj.Obj.Fields[rv.Field.FieldIdx], nil

	case mir.RValueIndex:
		return rt.evalIndex(fr, rv.Index)

	case mir.RValueOptionLift:
		v := rt.evalOperand(fr, rv.OptionLift)
		return heap.Boxed(resultType, rt.heap.AllocSome(resultType, v, false)), nil

	case mir.RValueOptionUnwrap:
		v := rt.evalOperand(fr, rv.OptionUnwrap)
		if v.Obj == nil || v.Obj.Tag == 0 {
			return heap.Value{}, rt.forceUnwrapNone(fr)
		}
		return *v.Obj.Payload, nil

	case mir.RValueOptionTest:
		v := rt.evalOperand(fr, rv.OptionTest)
		return heap.Bool(resultType, v.Obj != nil && v.Obj.Tag == 1), nil

	default: // mir.RValueClosure
		captures := make([]heap.Value, len(rv.Closure.Captures))
		for i, c := range rv.Closure.Captures {
			captures[i] = rt.evalOperand(fr, c)
		}
		return heap.Boxed(resultType, rt.heap.AllocClosure(resultType, rv.Closure.FuncName, captures, false)), nil
	}
}

func (rt *Runtime) evalIndex(fr *Frame, ix mir.IndexAccess) (heap.Value, *Fault) {
	obj := rt.evalOperand(fr, ix.Object)
	key := rt.evalOperand(fr, ix.Index)
	if obj.Obj.Header.Kind == layout.ObjMap {
		v, ok := obj.Obj.MapGet(key)
		if !ok {
			return heap.Unit(), nil
		}
		return v, nil
	}
	idx := int(key.I)
	v, ok := obj.Obj.ArrayGet(idx)
	if !ok && !rt.opts.Unsafe {
		return heap.Value{}, rt.indexOutOfBounds(fr, idx, len(obj.Obj.Elems))
	}
	return v, nil
}

func (rt *Runtime) evalStructLit(fr *Frame, lit mir.StructLit) heap.Value {
	t := rt.types.Lookup(lit.Type)
	var fields []heap.Value
	var exc bool
	var excDef types.DefID
	if t.Kind == types.KindException {
		exc = true
		excDef = t.Def
		fields = make([]heap.Value, len(rt.reg.Exception(excDef).Fields))
	} else {
		fields = make([]heap.Value, len(rt.reg.Struct(t.Def).Fields))
	}
	for _, f := range lit.Fields {
		v := rt.evalOperand(fr, f.Value)
		idx, ok := fieldIndex(rt, lit.Type, exc, excDef, f.Name)
		if ok {
			fields[idx] = v
		}
	}
	if exc {
		return heap.Boxed(lit.Type, rt.heap.AllocException(lit.Type, excDef, fields, false))
	}
	return heap.Boxed(lit.Type, rt.heap.AllocStruct(lit.Type, fields, false))
}

// fieldIndex maps a StructLitField.Name to its declared index, the same
// lookup internal/mir's own fieldIdx performs for FieldAccess — repeated
// here because StructLitField, unlike FieldAccess, only ever carries the
// name (internal/mir/lower_expr.go never resolved it to an index, since
// the literal's fields may be written out of declared order).
func fieldIndex(rt *Runtime, typ types.TypeID, exc bool, excDef types.DefID, name string) (int, bool) {
	if exc {
		for i, f := range rt.reg.Exception(excDef).Fields {
			if f.Name == name {
				return i, true
			}
		}
		return 0, false
	}
	info := rt.reg.Struct(rt.types.Lookup(typ).Def)
	return info.FieldIndex(name)
}

func (rt *Runtime) evalArrayLit(fr *Frame, lit mir.ArrayLit) heap.Value {
	elems := make([]heap.Value, len(lit.Elems))
	for i, e := range lit.Elems {
		elems[i] = rt.evalOperand(fr, e)
	}
	typ := rt.types.Array(lit.Elem)
	return heap.Boxed(typ, rt.heap.AllocArray(typ, lit.Elem, elems, false))
}

func (rt *Runtime) evalCast(fr *Frame, c mir.CastOp) heap.Value {
	v := rt.evalOperand(fr, c.Value)
	from := rt.types.Lookup(v.Type)
	to := rt.types.Lookup(c.Target)

	switch to.Kind {
	case types.KindInt, types.KindUint:
		switch from.Kind {
		case types.KindFloat:
			return heap.Int(c.Target, int64(v.F))
		case types.KindBool:
			if v.B {
				return heap.Int(c.Target, 1)
			}
			return heap.Int(c.Target, 0)
		case types.KindString:
			n, _ := strconv.ParseInt(v.Obj.Str, 10, 64)
			return heap.Int(c.Target, n)
		default:
			return heap.Int(c.Target, v.I)
		}
	case types.KindFloat:
		switch from.Kind {
		case types.KindInt:
			return heap.Float(c.Target, float64(v.I))
		case types.KindUint:
			return heap.Float(c.Target, float64(uint64(v.I)))
		case types.KindString:
			f, _ := strconv.ParseFloat(v.Obj.Str, 64)
			return heap.Float(c.Target, f)
		default:
			return heap.Float(c.Target, v.F)
		}
	case types.KindString:
		return heap.Boxed(c.Target, rt.heap.AllocString(c.Target, rt.formatScalar(v, from), false))
	case types.KindBool:
		switch from.Kind {
		case types.KindInt, types.KindUint:
			return heap.Bool(c.Target, v.I != 0)
		default:
			return heap.Bool(c.Target, v.B)
		}
	default:
		return v
	}
}

func (rt *Runtime) formatScalar(v heap.Value, t types.Type) string {
	switch t.Kind {
	case types.KindInt:
		return strconv.FormatInt(v.I, 10)
	case types.KindUint:
		return strconv.FormatUint(uint64(v.I), 10)
	case types.KindFloat:
		return strconv.FormatFloat(v.F, 'g', -1, 64)
	case types.KindBool:
		return strconv.FormatBool(v.B)
	case types.KindString:
		return v.Obj.Str
	default:
		return ""
	}
}

func (rt *Runtime) evalUnary(fr *Frame, u mir.UnaryOp) (heap.Value, *Fault) {
	v := rt.evalOperand(fr, u.Operand)
	switch u.Op {
	case ast.OpNeg:
		t := rt.types.Lookup(v.Type)
		if t.Kind == types.KindFloat {
			return heap.Float(v.Type, -v.F), nil
		}
		neg := -v.I
		if !rt.opts.Unsafe && t.Kind == types.KindInt && v.I != 0 && !inRange(neg, t.Width, true) {
			return heap.Value{}, rt.integerOverflow(fr, "unary -")
		}
		return heap.Int(v.Type, neg), nil
	case ast.OpNot:
		return heap.Bool(v.Type, !v.B), nil
	case ast.OpBitNot:
		return heap.Int(v.Type, ^v.I), nil
	default: // ast.OpForceUnwrap, handled by RValueOptionUnwrap in practice,
		// kept here for a value directly carrying the unary node.
		if v.Obj == nil || v.Obj.Tag == 0 {
			return heap.Value{}, rt.forceUnwrapNone(fr)
		}
		return *v.Obj.Payload, nil
	}
}
