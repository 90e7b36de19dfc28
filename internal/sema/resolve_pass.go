package sema

import (
	"github.com/kahflane/naml/internal/ast"
	"github.com/kahflane/naml/internal/diag"
	"github.com/kahflane/naml/internal/symbols"
	"github.com/kahflane/naml/internal/types"
)

// resolvePass fills in the field/signature types that declarePass left
// unresolved, now that every sibling declaration in the module has a
// name and (for nominal kinds) a DefID (§4.3 Pass A, second sweep).
func (tc *typeChecker) resolvePass(items []ast.Item) {
	for _, it := range items {
		switch v := it.(type) {
		case *ast.StructItem:
			tc.resolveStruct(v)
		case *ast.EnumItem:
			tc.resolveEnum(v)
		case *ast.InterfaceItem:
			tc.resolveInterface(v)
		case *ast.ExceptionItem:
			tc.resolveException(v)
		case *ast.FnItem:
			if v.Receiver == "" {
				tc.resolveFnSignature(v)
			}
		case *ast.ConstItem:
			tc.resolveConstDecl(v)
		case *ast.TypeAliasItem:
			tc.pushTypeParams(v.TypeParams, func() {
				resolved := tc.resolveType(v.Target)
				tc.aliasResolved[v.Name] = resolved
			})
		case *ast.ImplementsItem:
			tc.resolveImplements(v)
		}
	}
}

func (tc *typeChecker) resolveStruct(v *ast.StructItem) {
	def := tc.defIDs[v.Name]
	tc.pushTypeParams(v.TypeParams, func() {
		fields := make([]types.Field, len(v.Fields))
		for i, f := range v.Fields {
			fields[i] = types.Field{Name: f.Name, Type: tc.resolveType(f.Type)}
		}
		names := make([]string, len(v.TypeParams))
		for i, p := range v.TypeParams {
			names[i] = p.Name
		}
		tc.result.Registry.UpdateStruct(def, types.StructInfo{Name: v.Name, Fields: fields, TypeParams: names})
	})
}

func (tc *typeChecker) resolveEnum(v *ast.EnumItem) {
	def := tc.defIDs[v.Name]
	tc.pushTypeParams(v.TypeParams, func() {
		variants := make([]types.Variant, len(v.Variants))
		for i, vv := range v.Variants {
			payload := types.NoTypeID
			if vv.Payload != nil {
				payload = tc.resolveType(*vv.Payload)
			}
			variants[i] = types.Variant{Name: vv.Name, Tag: uint16(i), Payload: payload}
		}
		names := make([]string, len(v.TypeParams))
		for i, p := range v.TypeParams {
			names[i] = p.Name
		}
		tc.result.Registry.UpdateEnum(def, types.EnumInfo{Name: v.Name, Variants: variants, TypeParams: names})
	})
}

func (tc *typeChecker) resolveInterface(v *ast.InterfaceItem) {
	def := tc.defIDs[v.Name]
	methods := make([]types.MethodSig, len(v.Methods))
	for i, m := range v.Methods {
		methods[i] = tc.resolveMethodSig(m)
	}
	tc.result.Registry.UpdateInterface(def, types.InterfaceInfo{Name: v.Name, Methods: methods})
}

func (tc *typeChecker) resolveMethodSig(m ast.FnSignature) types.MethodSig {
	params := make([]types.TypeID, len(m.Params))
	for i, p := range m.Params {
		params[i] = tc.resolveType(p.Type)
	}
	ret := tc.result.Types.Builtins().Unit
	if m.Ret != nil {
		ret = tc.resolveType(*m.Ret)
	}
	throws := make([]types.TypeID, len(m.Throws))
	for i, e := range m.Throws {
		throws[i] = tc.resolveType(e)
	}
	return types.MethodSig{Name: m.Name, Params: params, Ret: ret, Throws: throws}
}

func (tc *typeChecker) resolveException(v *ast.ExceptionItem) {
	def := tc.defIDs[v.Name]
	fields := make([]types.Field, len(v.Fields))
	for i, f := range v.Fields {
		fields[i] = types.Field{Name: f.Name, Type: tc.resolveType(f.Type)}
	}
	tc.result.Registry.UpdateException(def, types.ExceptionInfo{Name: v.Name, Fields: fields})
}

func (tc *typeChecker) resolveFnSignature(v *ast.FnItem) {
	sym, ok := tc.opts.Symbols.Lookup(tc.opts.Module, v.Name)
	if !ok {
		return
	}
	tc.fnTypeParams[sym] = v.TypeParams
	tc.pushTypeParamsCollect(v.TypeParams, func(defs []types.DefID) {
		tc.fnTypeParamDefs[sym] = defs
		params := make([]types.TypeID, len(v.Params))
		for i, p := range v.Params {
			params[i] = tc.resolveType(p.Type)
		}
		ret := tc.result.Types.Builtins().Unit
		if v.Ret != nil {
			ret = tc.resolveType(*v.Ret)
		}
		throws := make([]types.TypeID, len(v.Throws))
		for i, e := range v.Throws {
			throws[i] = tc.resolveType(e)
		}
		fnType := tc.result.Types.Fn(params, ret, throws)
		tc.opts.Symbols.SetType(sym, fnType)
	})
}

func (tc *typeChecker) resolveConstDecl(v *ast.ConstItem) {
	sym, ok := tc.opts.Symbols.Lookup(tc.opts.Module, v.Name)
	if !ok {
		return
	}
	tc.opts.Symbols.SetType(sym, tc.resolveType(v.Type))
}

// resolveImplements binds Target's method set for interface satisfaction
// and for method-call resolution (§4.3: "a struct's method set satisfies
// an interface iff every method signature ... has a corresponding method
// on the struct").
func (tc *typeChecker) resolveImplements(v *ast.ImplementsItem) {
	def, ok := tc.defIDs[v.Target]
	if !ok {
		tc.errorf(diag.TypeUndeclaredSymbol, v.Span(), "undeclared type %q in implements block", v.Target)
		return
	}
	if tc.methodSigs[def] == nil {
		tc.methodSigs[def] = make(map[string]methodInfo, len(v.Methods))
	}
	for _, m := range v.Methods {
		tc.pushTypeParamsCollect(m.TypeParams, func(defs []types.DefID) {
			params := make([]types.TypeID, len(m.Params))
			for i, p := range m.Params {
				params[i] = tc.resolveType(p.Type)
			}
			ret := tc.result.Types.Builtins().Unit
			if m.Ret != nil {
				ret = tc.resolveType(*m.Ret)
			}
			throws := make([]types.TypeID, len(m.Throws))
			for i, e := range m.Throws {
				throws[i] = tc.resolveType(e)
			}
			fnType := tc.result.Types.Fn(params, ret, throws)
			tc.methodSigs[def][m.Name] = methodInfo{fn: m, fnType: fnType, paramDefs: defs}
		})
	}
	tc.checkInterfaceSatisfaction(v)
}

// checkInterfaceSatisfaction reports TypeMissingMethod for every required
// interface method the implements block doesn't provide with an
// identical signature.
func (tc *typeChecker) checkInterfaceSatisfaction(v *ast.ImplementsItem) {
	ifaceDef, ok := tc.defIDs[v.Interface]
	if !ok || tc.defKinds[v.Interface] != symbols.KindInterface {
		return
	}
	iface := tc.result.Registry.Interface(ifaceDef)
	targetDef := tc.defIDs[v.Target]
	bound := tc.methodSigs[targetDef]
	in := tc.result.Types
	for _, want := range iface.Methods {
		got, ok := bound[want.Name]
		if !ok {
			tc.errorf(diag.TypeMissingMethod, v.Span(), "type %q does not implement method %q required by interface %q", v.Target, want.Name, v.Interface)
			continue
		}
		gotType := in.Lookup(got.fnType)
		if len(gotType.Params) != len(want.Params) || !in.Equal(gotType.Ret, want.Ret) {
			tc.errorf(diag.TypeMissingMethod, v.Span(), "method %q on %q does not match interface %q's signature", want.Name, v.Target, v.Interface)
			continue
		}
		for i, p := range want.Params {
			if !in.Equal(gotType.Params[i], p) {
				tc.errorf(diag.TypeMissingMethod, v.Span(), "method %q on %q does not match interface %q's signature", want.Name, v.Target, v.Interface)
				break
			}
		}
	}
}
