package sema

import (
	"github.com/kahflane/naml/internal/ast"
	"github.com/kahflane/naml/internal/diag"
	"github.com/kahflane/naml/internal/source"
	"github.com/kahflane/naml/internal/symbols"
	"github.com/kahflane/naml/internal/types"
)

// fnCtx carries the state that's local to one function or method body
// while Pass B walks it: the local-variable scope chain, the declared
// return type, the declared throw set, and (for methods) the receiver
// type (§4.3 Pass B: "check each function body in isolation").
type fnCtx struct {
	tc      *typeChecker
	scope   *symbols.LocalScope
	ret     types.TypeID
	throws  map[types.TypeID]bool
	self    types.TypeID
	attrs   []ast.Attr

	// catching is set while checking a `catch` expression's guarded
	// value, so a throwing call there doesn't also need its exception
	// types in the enclosing function's own throws set (§4.9: the catch
	// is itself what handles the throw).
	catching bool
}

// bodyPass is Pass B: it checks every function and method body against
// the declarations resolvePass produced.
func (tc *typeChecker) bodyPass(items []ast.Item) {
	for _, it := range items {
		switch v := it.(type) {
		case *ast.FnItem:
			if v.Receiver == "" {
				tc.checkFreeFn(v)
			}
		case *ast.ImplementsItem:
			for _, m := range v.Methods {
				tc.checkMethod(v, m)
			}
		case *ast.ConstItem:
			tc.checkConstBody(v)
		}
	}
}

func (tc *typeChecker) checkFreeFn(v *ast.FnItem) {
	if v.Extern || v.Body == nil {
		return
	}
	sym, ok := tc.opts.Symbols.Lookup(tc.opts.Module, v.Name)
	if !ok {
		return
	}
	symbol := tc.opts.Symbols.Symbol(sym)
	fnType := tc.result.Types.Lookup(symbol.Type)

	tc.pushTypeParams(v.TypeParams, func() {
		fc := &fnCtx{
			tc:     tc,
			scope:  symbols.NewLocalScope(nil),
			ret:    fnType.Ret,
			throws: throwSet(fnType.Throws),
			self:   types.NoTypeID,
			attrs:  v.Attrs,
		}
		for i, p := range v.Params {
			fc.scope.Declare(p.Name, symbols.LocalBinding{Type: fnType.Params[i]})
		}
		fc.checkBlock(v.Body)
	})
}

func (tc *typeChecker) checkMethod(impl *ast.ImplementsItem, m *ast.FnItem) {
	if m.Extern || m.Body == nil {
		return
	}
	def, ok := tc.defIDs[impl.Target]
	if !ok {
		return
	}
	info := tc.methodSigs[def][m.Name]
	fnType := tc.result.Types.Lookup(info.fnType)
	selfType := tc.namedTypeOf(impl.Target, def)

	tc.pushTypeParams(m.TypeParams, func() {
		fc := &fnCtx{
			tc:     tc,
			scope:  symbols.NewLocalScope(nil),
			ret:    fnType.Ret,
			throws: throwSet(fnType.Throws),
			self:   selfType,
			attrs:  m.Attrs,
		}
		for i, p := range m.Params {
			fc.scope.Declare(p.Name, symbols.LocalBinding{Type: fnType.Params[i]})
		}
		fc.checkBlock(m.Body)
	})
}

func (tc *typeChecker) namedTypeOf(name string, def types.DefID) types.TypeID {
	switch tc.defKinds[name] {
	case symbols.KindEnum:
		return tc.result.Types.EnumType(def, nil)
	default:
		return tc.result.Types.StructType(def, nil)
	}
}

func (tc *typeChecker) checkConstBody(v *ast.ConstItem) {
	sym, ok := tc.opts.Symbols.Lookup(tc.opts.Module, v.Name)
	if !ok {
		return
	}
	declared := tc.opts.Symbols.Symbol(sym).Type
	fc := &fnCtx{tc: tc, scope: symbols.NewLocalScope(nil), ret: declared}
	got := fc.checkExpr(v.Value, declared)
	if !fc.assignableInit(got, declared) {
		tc.errorf(diag.TypeMismatch, v.Value.Span(), "cannot assign %s to const of type %s", tc.result.Types.String(got), tc.result.Types.String(declared))
	}
}

func throwSet(ids []types.TypeID) map[types.TypeID]bool {
	m := make(map[types.TypeID]bool, len(ids))
	for _, id := range ids {
		m[id] = true
	}
	return m
}

func (tc *typeChecker) validateEntrypoint() {
	sym, ok := tc.opts.Symbols.Lookup(tc.opts.Module, "main")
	if !ok {
		tc.errorf(diag.TypeMissingEntrypoint, source.Zero, "module declares no fn main()")
		return
	}
	s := tc.opts.Symbols.Symbol(sym)
	if s.Kind != symbols.KindFn {
		tc.errorf(diag.TypeMissingEntrypoint, s.Span, "%q is not a function", "main")
		return
	}
	fnType := tc.result.Types.Lookup(s.Type)
	if len(fnType.Params) != 0 {
		tc.errorf(diag.TypeMissingEntrypoint, s.Span, "fn main() must take no parameters")
	}
}
