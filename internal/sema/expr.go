package sema

import (
	"github.com/kahflane/naml/internal/ast"
	"github.com/kahflane/naml/internal/diag"
	"github.com/kahflane/naml/internal/symbols"
	"github.com/kahflane/naml/internal/types"
)

// checkExpr type-checks e, using expected (NoTypeID if none) to resolve
// numeric-literal defaulting and the `none` literal's option shape
// (§4.3: "Numeric literals lack intrinsic type; they take the expected
// type or default to int"). The resolved type is recorded into the
// shared ExprTypes map for the lowerer to consume later.
func (fc *fnCtx) checkExpr(e ast.Expr, expected types.TypeID) types.TypeID {
	t := fc.checkExprKind(e, expected)
	fc.tc.result.ExprTypes[e] = t
	return t
}

func (fc *fnCtx) checkExprKind(e ast.Expr, expected types.TypeID) types.TypeID {
	tc := fc.tc
	in := tc.result.Types
	b := in.Builtins()

	switch v := e.(type) {
	case *ast.Lit:
		return fc.checkLit(v, expected)

	case *ast.Ident:
		if lb, ok := fc.scope.Lookup(v.Name); ok {
			return lb.Type
		}
		if sym, ok := tc.opts.Symbols.Lookup(tc.opts.Module, v.Name); ok {
			return tc.opts.Symbols.Symbol(sym).Type
		}
		tc.errorf(diag.TypeUndeclaredSymbol, v.Span(), "undeclared symbol %q", v.Name)
		return b.Invalid

	case *ast.Self:
		if fc.self == types.NoTypeID {
			tc.errorf(diag.TypeUndeclaredSymbol, v.Span(), "self used outside a method body")
			return b.Invalid
		}
		return fc.self

	case *ast.Binary:
		return fc.checkBinary(v)

	case *ast.Unary:
		return fc.checkUnary(v)

	case *ast.Ternary:
		cond := fc.checkExpr(v.Cond, b.Bool)
		if cond != b.Bool && cond != types.NoTypeID {
			tc.errorf(diag.TypeMismatch, v.Cond.Span(), "ternary condition must be bool, found %s", in.String(cond))
		}
		then := fc.checkExpr(v.Then, expected)
		els := fc.checkExpr(v.Else, then)
		if !in.Equal(then, els) {
			tc.errorf(diag.TypeMismatch, v.Span(), "ternary branches have different types: %s vs %s", in.String(then), in.String(els))
		}
		return then

	case *ast.Call:
		return fc.checkCall(v, expected)

	case *ast.Index:
		return fc.checkIndex(v)

	case *ast.Field:
		return fc.checkField(v)

	case *ast.Cast:
		fc.checkExpr(v.Value, types.NoTypeID)
		return tc.resolveType(v.Type)

	case *ast.ArrayLit:
		return fc.checkArrayLit(v, expected)

	case *ast.StructLit:
		return fc.checkStructLit(v)

	case *ast.Try:
		return fc.checkTry(v)

	case *ast.Catch:
		return fc.checkCatch(v)

	case *ast.SpawnExpr:
		fc.checkStmts(v.Body)
		return in.Intern(types.Type{Kind: types.KindClosure})

	default:
		return b.Invalid
	}
}

func (fc *fnCtx) checkLit(v *ast.Lit, expected types.TypeID) types.TypeID {
	in := fc.tc.result.Types
	b := in.Builtins()
	expKind := in.Lookup(expected).Kind

	switch v.Kind {
	case ast.LitInt:
		if expected != types.NoTypeID && (expKind == types.KindInt || expKind == types.KindUint || expKind == types.KindFloat || expKind == types.KindDecimal) {
			return expected
		}
		return b.Int
	case ast.LitFloat:
		if expected != types.NoTypeID && (expKind == types.KindFloat || expKind == types.KindDecimal) {
			return expected
		}
		return b.Float
	case ast.LitDecimal:
		if expKind == types.KindDecimal {
			return expected
		}
		return in.Decimal(18, 4)
	case ast.LitString:
		return b.String
	case ast.LitBool:
		return b.Bool
	case ast.LitNone:
		if expKind == types.KindOption {
			return expected
		}
		return in.Option(b.Nothing)
	default:
		return b.Invalid
	}
}

func (fc *fnCtx) checkBinary(v *ast.Binary) types.TypeID {
	tc := fc.tc
	in := tc.result.Types
	b := in.Builtins()

	switch v.Op {
	case ast.OpOr, ast.OpAnd:
		l := fc.checkExpr(v.Left, b.Bool)
		r := fc.checkExpr(v.Right, b.Bool)
		if l != b.Bool || r != b.Bool {
			tc.errorf(diag.TypeMismatch, v.Span(), "logical operator requires bool operands")
		}
		return b.Bool

	case ast.OpEq, ast.OpNotEq, ast.OpLt, ast.OpGt, ast.OpLtEq, ast.OpGtEq:
		l := fc.checkExpr(v.Left, types.NoTypeID)
		r := fc.checkExpr(v.Right, l)
		if !in.Equal(l, r) {
			tc.errorf(diag.TypeMismatch, v.Span(), "comparison operands have different types: %s vs %s", in.String(l), in.String(r))
		}
		return b.Bool

	case ast.OpBitOr, ast.OpBitXor, ast.OpBitAnd, ast.OpShl, ast.OpShr:
		l := fc.checkExpr(v.Left, types.NoTypeID)
		_ = fc.checkExpr(v.Right, l)
		if in.Lookup(l).Kind != types.KindInt && in.Lookup(l).Kind != types.KindUint {
			tc.errorf(diag.TypeMismatch, v.Left.Span(), "bitwise operator requires an integer operand, found %s", in.String(l))
		}
		return l

	case ast.OpAdd, ast.OpSub, ast.OpMul, ast.OpDiv, ast.OpMod:
		l := fc.checkExpr(v.Left, types.NoTypeID)
		r := fc.checkExpr(v.Right, l)
		if !in.IsNumeric(l) {
			tc.errorf(diag.TypeMismatch, v.Left.Span(), "arithmetic operator requires a numeric operand, found %s", in.String(l))
			return l
		}
		if !in.Equal(l, r) {
			tc.errorf(diag.TypeMismatch, v.Span(), "arithmetic operands have different types: %s vs %s", in.String(l), in.String(r))
		}
		return l

	case ast.OpElvis:
		l := fc.checkExpr(v.Left, types.NoTypeID)
		if in.Lookup(l).Kind != types.KindOption {
			tc.errorf(diag.TypeOptionMisuse, v.Left.Span(), "?? requires an option<T> left operand, found %s", in.String(l))
			return fc.checkExpr(v.Right, types.NoTypeID)
		}
		elem := in.Lookup(l).Elem
		return fc.checkExpr(v.Right, elem)

	default:
		return b.Invalid
	}
}

func (fc *fnCtx) checkUnary(v *ast.Unary) types.TypeID {
	tc := fc.tc
	in := tc.result.Types
	b := in.Builtins()

	switch v.Op {
	case ast.OpNeg:
		t := fc.checkExpr(v.Operand, types.NoTypeID)
		if !in.IsNumeric(t) {
			tc.errorf(diag.TypeMismatch, v.Operand.Span(), "unary - requires a numeric operand, found %s", in.String(t))
		}
		return t
	case ast.OpNot:
		t := fc.checkExpr(v.Operand, b.Bool)
		if t != b.Bool {
			tc.errorf(diag.TypeMismatch, v.Operand.Span(), "unary ! requires a bool operand, found %s", in.String(t))
		}
		return b.Bool
	case ast.OpBitNot:
		t := fc.checkExpr(v.Operand, types.NoTypeID)
		if in.Lookup(t).Kind != types.KindInt && in.Lookup(t).Kind != types.KindUint {
			tc.errorf(diag.TypeMismatch, v.Operand.Span(), "unary ^ requires an integer operand, found %s", in.String(t))
		}
		return t
	case ast.OpForceUnwrap:
		t := fc.checkExpr(v.Operand, types.NoTypeID)
		if in.Lookup(t).Kind != types.KindOption {
			tc.errorf(diag.TypeOptionMisuse, v.Operand.Span(), "! requires an option<T> operand, found %s", in.String(t))
			return b.Invalid
		}
		return in.Lookup(t).Elem
	default:
		return b.Invalid
	}
}

func (fc *fnCtx) checkIndex(v *ast.Index) types.TypeID {
	tc := fc.tc
	in := tc.result.Types
	objType := fc.checkExpr(v.Object, types.NoTypeID)
	obj := in.Lookup(objType)
	switch obj.Kind {
	case types.KindArray:
		key := fc.checkExpr(v.Key, in.Builtins().Uint)
		if !in.IsNumeric(key) {
			tc.errorf(diag.TypeMismatch, v.Key.Span(), "array index must be numeric, found %s", in.String(key))
		}
		return obj.Elem
	case types.KindMap:
		fc.checkExpr(v.Key, obj.Key)
		return obj.Val
	default:
		tc.errorf(diag.TypeMismatch, v.Object.Span(), "cannot index %s", in.String(objType))
		return in.Builtins().Invalid
	}
}

func (fc *fnCtx) checkField(v *ast.Field) types.TypeID {
	tc := fc.tc
	in := tc.result.Types
	objType := fc.checkExpr(v.Object, types.NoTypeID)
	obj := in.Lookup(objType)

	var fields []types.Field
	switch obj.Kind {
	case types.KindStruct:
		fields = tc.result.Registry.Struct(obj.Def).Fields
	case types.KindException:
		fields = tc.result.Registry.Exception(obj.Def).Fields
	default:
		tc.errorf(diag.TypeMismatch, v.Object.Span(), "%s has no fields", in.String(objType))
		return in.Builtins().Invalid
	}
	for _, f := range fields {
		if f.Name == v.Name {
			return f.Type
		}
	}
	tc.errorf(diag.TypeMismatch, v.Span(), "type %s has no field %q", in.String(objType), v.Name)
	return in.Builtins().Invalid
}

func (fc *fnCtx) checkArrayLit(v *ast.ArrayLit, expected types.TypeID) types.TypeID {
	tc := fc.tc
	in := tc.result.Types
	elemExpected := types.NoTypeID
	if in.Lookup(expected).Kind == types.KindArray {
		elemExpected = in.Lookup(expected).Elem
	}
	if len(v.Elems) == 0 {
		if elemExpected != types.NoTypeID {
			return in.Array(elemExpected)
		}
		return in.Array(in.Builtins().Invalid)
	}
	first := fc.checkExpr(v.Elems[0], elemExpected)
	for _, elem := range v.Elems[1:] {
		t := fc.checkExpr(elem, first)
		if !in.Equal(t, first) {
			tc.errorf(diag.TypeMismatch, elem.Span(), "array element type mismatch: %s vs %s", in.String(t), in.String(first))
		}
	}
	return in.Array(first)
}

func (fc *fnCtx) checkStructLit(v *ast.StructLit) types.TypeID {
	tc := fc.tc
	in := tc.result.Types
	structType := tc.resolveType(v.Type)
	st := in.Lookup(structType)
	if st.Kind != types.KindStruct {
		tc.errorf(diag.TypeMismatch, v.Span(), "%s is not a struct type", in.String(structType))
		return in.Builtins().Invalid
	}
	fields := tc.result.Registry.Struct(st.Def).Fields
	byName := make(map[string]types.TypeID, len(fields))
	for _, f := range fields {
		byName[f.Name] = f.Type
	}
	for _, lf := range v.Fields {
		want, ok := byName[lf.Name]
		if !ok {
			tc.errorf(diag.TypeMismatch, v.Span(), "%s has no field %q", in.String(structType), lf.Name)
			continue
		}
		got := fc.checkExpr(lf.Value, want)
		if !fc.assignableInit(got, want) {
			tc.errorf(diag.TypeMismatch, lf.Value.Span(), "field %q: cannot assign %s to %s", lf.Name, in.String(got), in.String(want))
		}
	}
	return structType
}

func (fc *fnCtx) checkTry(v *ast.Try) types.TypeID {
	// try expr: evaluate; on throw, re-throw into the caller's throw set
	// (§4.9, §9 Open Question 5) — no additional control-flow.
	return fc.checkExpr(v.Value, types.NoTypeID)
}

func (fc *fnCtx) checkCatch(v *ast.Catch) types.TypeID {
	tc := fc.tc
	in := tc.result.Types
	guarded := *fc
	guarded.catching = true
	valType := guarded.checkExpr(v.Value, types.NoTypeID)

	inner := fc.child()
	// def 0 is the registry's reserved empty exception slot; it stands
	// in for "any caught exception" until union types are modeled.
	inner.scope.Declare(v.Binding, symbols.LocalBinding{Type: in.ExceptionType(0)})
	for _, s := range v.Handler {
		inner.checkStmt(s)
	}
	if v.Fallback != nil {
		fb := fc.checkExpr(v.Fallback, valType)
		if !in.Equal(fb, valType) {
			tc.errorf(diag.TypeMismatch, v.Fallback.Span(), "catch fallback type %s does not match expression type %s", in.String(fb), in.String(valType))
		}
	}
	return valType
}

// assignableInit checks `var`-initializer and plain-assignment
// compatibility: exact type identity only, no option lift (§4.3: the
// non-option-to-option lift applies "only at return / argument sites,
// never in var initializers").
func (fc *fnCtx) assignableInit(got, want types.TypeID) bool {
	in := fc.tc.result.Types
	if got == types.NoTypeID || want == types.NoTypeID {
		return true
	}
	if in.Lookup(got).Kind == types.KindInvalid || in.Lookup(want).Kind == types.KindInvalid {
		return true
	}
	return in.Equal(got, want)
}

// assignableReturn additionally allows the T -> option<T> lift at return
// sites (§4.3).
func (fc *fnCtx) assignableReturn(got, want types.TypeID) bool {
	if fc.assignableInit(got, want) {
		return true
	}
	in := fc.tc.result.Types
	w := in.Lookup(want)
	return w.Kind == types.KindOption && in.Equal(w.Elem, got)
}

// assignableArg allows the same lift at call-argument sites (§4.3).
func (fc *fnCtx) assignableArg(got, want types.TypeID) bool {
	return fc.assignableReturn(got, want)
}
