package sema

import (
	"github.com/kahflane/naml/internal/ast"
	"github.com/kahflane/naml/internal/diag"
	"github.com/kahflane/naml/internal/source"
	"github.com/kahflane/naml/internal/symbols"
	"github.com/kahflane/naml/internal/types"
)

// declarePass reserves a Symbol and, for nominal declarations, a
// registry DefID for every top-level item, without resolving any type
// syntax yet — so a later declaration can refer back to an earlier one
// and vice versa (§4.3 Pass A: "register every top-level item ...
// without checking bodies").
func (tc *typeChecker) declarePass(items []ast.Item) {
	for _, it := range items {
		switch v := it.(type) {
		case *ast.StructItem:
			def := tc.result.Registry.ReserveStruct(v.Name)
			tc.defKinds[v.Name] = symbols.KindStruct
			tc.defIDs[v.Name] = def
			tc.declareSymbol(v.Name, symbols.KindStruct, v.IsPub(), v.Span(), def, v.Attrs)
		case *ast.EnumItem:
			def := tc.result.Registry.ReserveEnum(v.Name)
			tc.defKinds[v.Name] = symbols.KindEnum
			tc.defIDs[v.Name] = def
			tc.declareSymbol(v.Name, symbols.KindEnum, v.IsPub(), v.Span(), def, v.Attrs)
		case *ast.InterfaceItem:
			def := tc.result.Registry.ReserveInterface(v.Name)
			tc.defKinds[v.Name] = symbols.KindInterface
			tc.defIDs[v.Name] = def
			tc.declareSymbol(v.Name, symbols.KindInterface, v.IsPub(), v.Span(), def, v.Attrs)
		case *ast.ExceptionItem:
			def := tc.result.Registry.ReserveException(v.Name)
			tc.defKinds[v.Name] = symbols.KindException
			tc.defIDs[v.Name] = def
			tc.declareSymbol(v.Name, symbols.KindException, v.IsPub(), v.Span(), def, v.Attrs)
		case *ast.TypeAliasItem:
			tc.defKinds[v.Name] = symbols.KindTypeAlias
			tc.aliasTargets[v.Name] = v.Target
			tc.declareSymbol(v.Name, symbols.KindTypeAlias, v.IsPub(), v.Span(), 0, v.Attrs)
		case *ast.FnItem:
			if v.Receiver != "" {
				// Methods are declared into the type's method table in
				// resolvePass, not the module symbol namespace.
				continue
			}
			tc.defKinds[v.Name] = symbols.KindFn
			tc.declareSymbol(v.Name, symbols.KindFn, v.IsPub(), v.Span(), 0, v.Attrs)
		case *ast.ConstItem:
			tc.defKinds[v.Name] = symbols.KindConst
			tc.declareSymbol(v.Name, symbols.KindConst, v.IsPub(), v.Span(), 0, v.Attrs)
		case *ast.ModItem:
			tc.defKinds[v.Name] = symbols.KindMod
			tc.declareSymbol(v.Name, symbols.KindMod, v.IsPub(), v.Span(), 0, v.Attrs)
		case *ast.UseItem:
			if err := symbols.ResolveUse(tc.opts.Symbols, tc.opts.Module, v); err != nil {
				tc.errorf(diag.TypeInvalidUse, v.Span(), "%v", err)
			}
		case *ast.ImplementsItem:
			// Bound in resolvePass once the target/interface defs exist.
		}
	}
}

// declareSymbol registers name in the module symbol table, unless it is
// already declared (re-declaration is diagnosed, not silently replaced),
// carrying forward its #[platforms(...)] set for later gating checks.
func (tc *typeChecker) declareSymbol(name string, kind symbols.Kind, pub bool, span source.Span, def types.DefID, attrs []ast.Attr) symbols.SymbolID {
	if _, ok := tc.opts.Symbols.Lookup(tc.opts.Module, name); ok {
		tc.errorf(diag.TypeDuplicateSymbol, span, "%q is already declared in this module", name)
	}
	vis := symbols.Private
	if pub {
		vis = symbols.Public
	}
	platforms, _ := ast.Platforms(attrs)
	return tc.opts.Symbols.Declare(symbols.Symbol{
		Module:     tc.opts.Module,
		Name:       name,
		Kind:       kind,
		Visibility: vis,
		Span:       span,
		Def:        def,
		Platforms:  platforms,
	})
}
