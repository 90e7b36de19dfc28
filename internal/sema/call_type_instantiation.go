package sema

import (
	"github.com/kahflane/naml/internal/ast"
	"github.com/kahflane/naml/internal/diag"
	"github.com/kahflane/naml/internal/source"
	"github.com/kahflane/naml/internal/symbols"
	"github.com/kahflane/naml/internal/types"
)

// checkCall resolves the callee (a free function, a method through
// `object.method(...)`, or a local closure value), checks argument
// arity/types, and — for calls to a generic function — infers the
// type-argument tuple from the call site and records an Instantiation
// request for internal/mono (§4.3: "monomorphization at call sites").
func (fc *fnCtx) checkCall(v *ast.Call, expected types.TypeID) types.TypeID {
	tc := fc.tc
	in := tc.result.Types
	b := in.Builtins()
	_ = expected

	switch callee := v.Callee.(type) {
	case *ast.Ident:
		if lb, ok := fc.scope.Lookup(callee.Name); ok {
			return fc.checkCallAgainst(v, in.Lookup(lb.Type), nil, nil, symbols.NoSymbol)
		}
		sym, ok := tc.opts.Symbols.Lookup(tc.opts.Module, callee.Name)
		if !ok {
			tc.errorf(diag.TypeUndeclaredSymbol, callee.Span(), "undeclared function %q", callee.Name)
			return b.Invalid
		}
		symbol := tc.opts.Symbols.Symbol(sym)
		fc.checkPlatformGate(symbol.Platforms, v.Span())
		return fc.checkCallAgainst(v, in.Lookup(symbol.Type), tc.fnTypeParams[sym], tc.fnTypeParamDefs[sym], sym)

	case *ast.Field:
		objType := fc.checkExpr(callee.Object, types.NoTypeID)
		obj := in.Lookup(objType)
		if obj.Kind == types.KindTypeParam {
			sig, ok := fc.resolveBoundMethod(obj.Def, callee.Name)
			if !ok {
				tc.errorf(diag.TypeMissingMethod, callee.Span(), "%s has no bound method %q", in.String(objType), callee.Name)
				return b.Invalid
			}
			return fc.checkCallAgainst(v, in.Lookup(in.Fn(sig.Params, sig.Ret, sig.Throws)), nil, nil, symbols.NoSymbol)
		}
		info, ok := tc.methodSigs[obj.Def][callee.Name]
		if !ok {
			tc.errorf(diag.TypeMissingMethod, callee.Span(), "%s has no method %q", in.String(objType), callee.Name)
			return b.Invalid
		}
		return fc.checkCallAgainst(v, in.Lookup(info.fnType), info.fn.TypeParams, info.paramDefs, symbols.NoSymbol)

	default:
		calleeType := fc.checkExpr(v.Callee, types.NoTypeID)
		return fc.checkCallAgainst(v, in.Lookup(calleeType), nil, nil, symbols.NoSymbol)
	}
}

// resolveBoundMethod looks up name on the interfaces bound to the type
// parameter identified by paramDef, for calls like `v.greet()` where
// `v: T, T: Greeter` — the concrete instantiation isn't known yet during
// bodyPass, so the call is checked against the bound interface's
// declared signature instead (§4.3: generic constraints widen the
// callee's known method set to the intersection of its bounds).
func (fc *fnCtx) resolveBoundMethod(paramDef types.DefID, name string) (types.MethodSig, bool) {
	tc := fc.tc
	for _, boundName := range tc.typeParamBounds[paramDef] {
		ifaceDef, ok := tc.defIDs[boundName]
		if !ok || tc.defKinds[boundName] != symbols.KindInterface {
			continue
		}
		for _, m := range tc.result.Registry.Interface(ifaceDef).Methods {
			if m.Name == name {
				return m, true
			}
		}
	}
	return types.MethodSig{}, false
}

func (fc *fnCtx) checkCallAgainst(v *ast.Call, fnType types.Type, typeParams []ast.TypeParam, paramDefs []types.DefID, sym symbols.SymbolID) types.TypeID {
	tc := fc.tc
	in := tc.result.Types
	b := in.Builtins()

	if fnType.Kind != types.KindFn {
		tc.errorf(diag.TypeMismatch, v.Callee.Span(), "cannot call a value of type %s", in.String(in.Intern(fnType)))
		return b.Invalid
	}
	if len(v.Args) != len(fnType.Params) {
		tc.errorf(diag.TypeMismatch, v.Span(), "expected %d arguments, found %d", len(fnType.Params), len(v.Args))
	}

	subst := make(map[types.DefID]types.TypeID, len(paramDefs))
	n := len(v.Args)
	if len(fnType.Params) < n {
		n = len(fnType.Params)
	}
	generic := len(paramDefs) > 0
	for i := 0; i < n; i++ {
		want := fnType.Params[i]
		got := fc.checkExpr(v.Args[i], want)
		if generic {
			unifyTypeParam(in, want, got, subst)
			continue
		}
		if !fc.assignableArg(got, want) {
			tc.errorf(diag.TypeMismatch, v.Args[i].Span(), "argument %d: cannot pass %s as %s", i+1, in.String(got), in.String(want))
		}
	}

	ret := fnType.Ret
	if generic {
		args := make([]types.TypeID, len(paramDefs))
		for i, def := range paramDefs {
			arg, ok := subst[def]
			if !ok {
				arg = b.Invalid
			}
			args[i] = arg
			if i < len(typeParams) {
				fc.checkBound(typeParams[i], arg, v.Span())
			}
		}
		if sym != symbols.NoSymbol {
			tc.result.Instantiations = append(tc.result.Instantiations, Instantiation{Symbol: sym, Args: args})
		}
		ret = substTypeID(in, ret, subst)
	}

	for _, ex := range fnType.Throws {
		if generic {
			ex = substTypeID(in, ex, subst)
		}
		if !fc.throws[ex] && !fc.catching {
			tc.errorf(diag.TypeThrowsNotDeclared, v.Span(), "call may throw %s, which is not in this function's throws set", in.String(ex))
		}
	}
	return ret
}

// unifyTypeParam walks want (the declared parameter type, possibly
// containing type-param placeholders) alongside got (the concrete
// argument type) and records each placeholder's inferred binding.
func unifyTypeParam(in *types.Interner, want, got types.TypeID, subst map[types.DefID]types.TypeID) {
	wt := in.Lookup(want)
	if wt.Kind == types.KindTypeParam {
		if _, bound := subst[wt.Def]; !bound {
			subst[wt.Def] = got
		}
		return
	}
	gt := in.Lookup(got)
	switch wt.Kind {
	case types.KindArray, types.KindOption, types.KindMutex, types.KindRwLock, types.KindAtomic, types.KindChannel:
		if gt.Kind == wt.Kind {
			unifyTypeParam(in, wt.Elem, gt.Elem, subst)
		}
	case types.KindMap:
		if gt.Kind == wt.Kind {
			unifyTypeParam(in, wt.Key, gt.Key, subst)
			unifyTypeParam(in, wt.Val, gt.Val, subst)
		}
	}
}

// substTypeID rewrites every type-param placeholder in t according to
// subst, rebuilding compound types as needed.
func substTypeID(in *types.Interner, t types.TypeID, subst map[types.DefID]types.TypeID) types.TypeID {
	tt := in.Lookup(t)
	switch tt.Kind {
	case types.KindTypeParam:
		if v, ok := subst[tt.Def]; ok {
			return v
		}
		return t
	case types.KindArray:
		return in.Array(substTypeID(in, tt.Elem, subst))
	case types.KindOption:
		return in.Option(substTypeID(in, tt.Elem, subst))
	case types.KindMutex:
		return in.Mutex(substTypeID(in, tt.Elem, subst))
	case types.KindRwLock:
		return in.RwLock(substTypeID(in, tt.Elem, subst))
	case types.KindAtomic:
		return in.Atomic(substTypeID(in, tt.Elem, subst))
	case types.KindChannel:
		return in.Channel(substTypeID(in, tt.Elem, subst))
	case types.KindMap:
		return in.Map(substTypeID(in, tt.Key, subst), substTypeID(in, tt.Val, subst))
	case types.KindFn:
		params := make([]types.TypeID, len(tt.Params))
		for i, p := range tt.Params {
			params[i] = substTypeID(in, p, subst)
		}
		throws := make([]types.TypeID, len(tt.Throws))
		for i, e := range tt.Throws {
			throws[i] = substTypeID(in, e, subst)
		}
		return in.Fn(params, substTypeID(in, tt.Ret, subst), throws)
	default:
		return t
	}
}

// checkBound verifies a generic parameter's inferred type argument
// satisfies every required interface bound, by checking that the
// concrete type's DefID has a registered `implements` binding at all
// (§4.3: "Constraints are checked by searching for an `implements`
// declaration of the required interface with matching type arguments").
// Full per-method verification already ran in checkInterfaceSatisfaction
// when that implements block was declared.
func (fc *fnCtx) checkBound(p ast.TypeParam, arg types.TypeID, span source.Span) bool {
	if len(p.Bounds) == 0 {
		return true
	}
	tc := fc.tc
	in := tc.result.Types
	argDef := in.Lookup(arg).Def
	for _, boundName := range p.Bounds {
		if _, ok := tc.defIDs[boundName]; !ok || tc.defKinds[boundName] != symbols.KindInterface {
			continue
		}
		if _, ok := tc.methodSigs[argDef]; !ok {
			tc.errorf(diag.TypeUnsatisfiedBound, span, "type %s does not implement required bound %s", in.String(arg), boundName)
			return false
		}
	}
	return true
}
