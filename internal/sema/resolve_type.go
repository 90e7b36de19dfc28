package sema

import (
	"github.com/kahflane/naml/internal/ast"
	"github.com/kahflane/naml/internal/diag"
	"github.com/kahflane/naml/internal/symbols"
	"github.com/kahflane/naml/internal/types"
)

// resolveType maps a syntactic type annotation to its interned TypeID,
// per §3.2. Named references are resolved in this priority order: the
// builtin scalar names, active generic type parameters, module-local
// nominal declarations, then type aliases.
func (tc *typeChecker) resolveType(ts ast.TypeSyntax) types.TypeID {
	in := tc.result.Types
	switch ts.Kind {
	case ast.TSArray:
		return in.Array(tc.resolveType(*ts.Elem))
	case ast.TSOption:
		return in.Option(tc.resolveType(*ts.Elem))
	case ast.TSMap:
		return in.Map(tc.resolveType(*ts.Key), tc.resolveType(*ts.Val))
	case ast.TSMutex:
		return in.Mutex(tc.resolveType(*ts.Elem))
	case ast.TSRwLock:
		return in.RwLock(tc.resolveType(*ts.Elem))
	case ast.TSAtomic:
		return in.Atomic(tc.resolveType(*ts.Elem))
	case ast.TSChannel:
		return in.Channel(tc.resolveType(*ts.Elem))
	case ast.TSDecimal:
		return in.Decimal(ts.DecPrecision, ts.DecScale)
	case ast.TSFn:
		params := make([]types.TypeID, len(ts.Params))
		for i, p := range ts.Params {
			params[i] = tc.resolveType(p)
		}
		ret := in.Builtins().Unit
		if ts.Ret != nil {
			ret = tc.resolveType(*ts.Ret)
		}
		throws := make([]types.TypeID, len(ts.Throws))
		for i, e := range ts.Throws {
			throws[i] = tc.resolveType(e)
		}
		return in.Fn(params, ret, throws)
	case ast.TSNamed:
		return tc.resolveNamed(ts)
	default:
		tc.errorf(diag.TypeMismatch, ts.Span, "unrecognized type syntax")
		return in.Builtins().Invalid
	}
}

func (tc *typeChecker) resolveNamed(ts ast.TypeSyntax) types.TypeID {
	in := tc.result.Types
	b := in.Builtins()

	if id, ok := builtinScalar(in, ts.Name); ok {
		return id
	}
	if tp, ok := tc.typeParams[ts.Name]; ok {
		return tp
	}
	if def, ok := tc.defIDs[ts.Name]; ok {
		args := make([]types.TypeID, len(ts.Args))
		for i, a := range ts.Args {
			args[i] = tc.resolveType(a)
		}
		switch tc.defKinds[ts.Name] {
		case symbols.KindStruct:
			return in.StructType(def, args)
		case symbols.KindEnum:
			return in.EnumType(def, args)
		case symbols.KindInterface:
			return in.InterfaceType(def)
		case symbols.KindException:
			return in.ExceptionType(def)
		}
	}
	if target, ok := tc.aliasTargets[ts.Name]; ok {
		if resolved, done := tc.aliasResolved[ts.Name]; done {
			return resolved
		}
		resolved := tc.resolveType(target)
		tc.aliasResolved[ts.Name] = resolved
		return resolved
	}

	tc.errorf(diag.TypeUndeclaredSymbol, ts.Span, "undeclared type %q", ts.Name)
	return b.Invalid
}

// builtinScalar maps the fixed scalar type names of §3.1 to their
// interned TypeIDs, including bit-width suffixes (int8, uint32, ...).
func builtinScalar(in *types.Interner, name string) (types.TypeID, bool) {
	b := in.Builtins()
	switch name {
	case "int":
		return b.Int, true
	case "uint":
		return b.Uint, true
	case "float":
		return b.Float, true
	case "bool":
		return b.Bool, true
	case "string":
		return b.String, true
	case "bytes":
		return b.Bytes, true
	case "unit":
		return b.Unit, true
	case "nothing":
		return b.Nothing, true
	case "int8":
		return in.Intern(types.MakeInt(types.Width8, true)), true
	case "int16":
		return in.Intern(types.MakeInt(types.Width16, true)), true
	case "int32":
		return in.Intern(types.MakeInt(types.Width32, true)), true
	case "int64":
		return in.Intern(types.MakeInt(types.Width64, true)), true
	case "uint8":
		return in.Intern(types.MakeInt(types.Width8, false)), true
	case "uint16":
		return in.Intern(types.MakeInt(types.Width16, false)), true
	case "uint32":
		return in.Intern(types.MakeInt(types.Width32, false)), true
	case "uint64":
		return in.Intern(types.MakeInt(types.Width64, false)), true
	case "float32":
		return in.Intern(types.Type{Kind: types.KindFloat, Width: types.Width32}), true
	case "float64":
		return in.Intern(types.Type{Kind: types.KindFloat, Width: types.Width64}), true
	default:
		return types.NoTypeID, false
	}
}

// pushTypeParams installs params as a fresh generic-parameter scope for
// the duration of fn, restoring whatever scope was active beforehand.
// Each parameter gets its own KindTypeParam placeholder Type so that two
// uses of the same parameter name within one declaration compare equal.
func (tc *typeChecker) pushTypeParams(params []ast.TypeParam, fn func()) {
	tc.pushTypeParamsCollect(params, func([]types.DefID) { fn() })
}

// pushTypeParamsCollect is pushTypeParams plus the assigned DefIDs, in
// declaration order, so a generic function/method's call sites can later
// read each parameter's inferred binding out of a unification
// substitution keyed by DefID.
func (tc *typeChecker) pushTypeParamsCollect(params []ast.TypeParam, fn func(defs []types.DefID)) {
	saved := tc.typeParams
	scope := make(map[string]types.TypeID, len(saved)+len(params))
	for k, v := range saved {
		scope[k] = v
	}
	defs := make([]types.DefID, len(params))
	for i, p := range params {
		tc.nextTypeParamDef++
		id := tc.result.Types.Intern(types.Type{Kind: types.KindTypeParam, Def: tc.nextTypeParamDef})
		scope[p.Name] = id
		defs[i] = tc.nextTypeParamDef
		if len(p.Bounds) > 0 {
			tc.typeParamBounds[tc.nextTypeParamDef] = p.Bounds
		}
	}
	tc.typeParams = scope
	fn(defs)
	tc.typeParams = saved
}
