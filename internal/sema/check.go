// Package sema implements naml's two-pass type checker (§4.3): Pass A
// registers every top-level declaration in the module's symbol table,
// Pass B checks function bodies against those declarations.
package sema

import (
	"fmt"

	"github.com/kahflane/naml/internal/ast"
	"github.com/kahflane/naml/internal/diag"
	"github.com/kahflane/naml/internal/source"
	"github.com/kahflane/naml/internal/symbols"
	"github.com/kahflane/naml/internal/types"
)

// Options configure a checking pass over one module's file.
type Options struct {
	Module   string // module path this file declares into
	Reporter diag.Reporter
	Symbols  *symbols.Table
	Types    *types.Interner
	Registry *types.Registry
	// Root marks the module namaed "" (the compiled program's entry
	// module), which must declare `fn main()` (§6.4).
	Root bool
}

// Instantiation records a request to monomorphize a generic function at a
// concrete type-argument tuple, for internal/mono to consume (Testable
// Property 7: one compiled function per distinct instantiation).
type Instantiation struct {
	Symbol symbols.SymbolID
	Args   []types.TypeID
}

// Result stores the semantic artefacts produced by checking one file.
type Result struct {
	Types          *types.Interner
	Registry       *types.Registry
	ExprTypes      map[ast.Expr]types.TypeID
	Instantiations []Instantiation

	// LetTypes records each `var name: T = ...;` statement's declared
	// type directly, since ExprTypes only carries the initializer
	// expression's own checked type — identical to the declared type
	// whenever an initializer is present (§4.3: no lift is permitted in
	// var initializers), but otherwise unrecoverable from ExprTypes
	// alone, e.g. `var m: mutex<int>;` with no initializer.
	LetTypes map[*ast.LetStmt]types.TypeID

	// Methods exposes the method-binding table resolvePass built from
	// `implements` blocks, keyed by the implementing type's DefID then
	// method name, so internal/hir and internal/mono can resolve method
	// calls and generic method bodies without re-deriving them.
	Methods map[types.DefID]map[string]MethodInfo

	// Generics records each generic function/method symbol's declared
	// type parameters and the DefIDs minted for them, so internal/mono
	// can rebuild the same substitution internal/sema used when
	// unifying a call site's type arguments.
	Generics map[symbols.SymbolID]GenericSig

	// DefIDs/DefKinds mirror the module-local name -> registry DefID /
	// symbol kind maps declarePass built, exposed so internal/layout can
	// walk struct and enum definitions by name without re-parsing.
	DefIDs   map[string]types.DefID
	DefKinds map[string]symbols.Kind
}

// MethodInfo records one method bound to a struct/enum def via an
// `implements` block: the AST body, the interned function type, and the
// DefIDs of its own generic parameters (if the method itself is
// generic).
type MethodInfo struct {
	Fn        *ast.FnItem
	FnType    types.TypeID
	ParamDefs []types.DefID
}

// GenericSig records a generic function or method's declared type
// parameters (name + bounds) alongside the DefID minted for each, in
// declaration order.
type GenericSig struct {
	TypeParams []ast.TypeParam
	ParamDefs  []types.DefID
}

// Check runs Pass A then Pass B over file's items and returns the
// resulting expression types and instantiation requests. Diagnostics are
// reported into opts.Reporter; Check itself never aborts early so every
// error in the module is reported in one pass (§7).
func Check(file *ast.File, opts Options) *Result {
	res := &Result{
		ExprTypes: make(map[ast.Expr]types.TypeID, 64),
		LetTypes:  make(map[*ast.LetStmt]types.TypeID, 16),
	}
	if opts.Types != nil {
		res.Types = opts.Types
	} else {
		res.Types = types.NewInterner()
	}
	if opts.Registry != nil {
		res.Registry = opts.Registry
	} else {
		res.Registry = types.NewRegistry()
	}
	if file == nil {
		return res
	}

	tc := &typeChecker{
		opts:          opts,
		result:        res,
		defKinds:      make(map[string]symbols.Kind, 32),
		defIDs:        make(map[string]types.DefID, 32),
		fnTypeParams:    make(map[symbols.SymbolID][]ast.TypeParam, 8),
		fnTypeParamDefs: make(map[symbols.SymbolID][]types.DefID, 8),
		aliasTargets:  make(map[string]ast.TypeSyntax, 8),
		aliasResolved: make(map[string]types.TypeID, 8),
		methodSigs:      make(map[types.DefID]map[string]methodInfo, 8),
		typeParamBounds: make(map[types.DefID][]string, 8),
		itemAttrs:       make(map[string][]ast.Attr, 32),
		typeParams:    make(map[string]types.TypeID, 4),
	}
	tc.declarePass(file.Items)
	tc.resolvePass(file.Items)
	tc.bodyPass(file.Items)
	if opts.Root {
		tc.validateEntrypoint()
	}

	res.Methods = make(map[types.DefID]map[string]MethodInfo, len(tc.methodSigs))
	for def, methods := range tc.methodSigs {
		out := make(map[string]MethodInfo, len(methods))
		for name, info := range methods {
			out[name] = MethodInfo{Fn: info.fn, FnType: info.fnType, ParamDefs: info.paramDefs}
		}
		res.Methods[def] = out
	}
	res.Generics = make(map[symbols.SymbolID]GenericSig, len(tc.fnTypeParams))
	for sym, tps := range tc.fnTypeParams {
		res.Generics[sym] = GenericSig{TypeParams: tps, ParamDefs: tc.fnTypeParamDefs[sym]}
	}
	res.DefIDs = tc.defIDs
	res.DefKinds = tc.defKinds
	return res
}

// methodInfo records one method bound to a struct/enum def via an
// `implements` block, resolved during resolvePass.
type methodInfo struct {
	fn        *ast.FnItem
	fnType    types.TypeID
	paramDefs []types.DefID
}

type typeChecker struct {
	opts   Options
	result *Result

	// defKinds/defIDs map a module-local declared name to its symbol kind
	// and (for struct/enum/interface/exception) its registry DefID,
	// populated in declarePass so resolvePass can resolve forward
	// references between sibling declarations (§4.3 Pass A).
	defKinds map[string]symbols.Kind
	defIDs   map[string]types.DefID

	// fnTypeParams remembers each generic function's declared type
	// parameters (name + bounds) for call-site instantiation.
	fnTypeParams map[symbols.SymbolID][]ast.TypeParam
	// fnTypeParamDefs parallels fnTypeParams with the interned DefID
	// each parameter was assigned during signature resolution, so a
	// later call site can read its inferred binding back out of the
	// unification substitution.
	fnTypeParamDefs map[symbols.SymbolID][]types.DefID

	aliasTargets  map[string]ast.TypeSyntax
	aliasResolved map[string]types.TypeID

	methodSigs map[types.DefID]map[string]methodInfo

	// typeParamBounds records the interface names each minted type-param
	// placeholder DefID was declared with, so a method call on a value
	// of generic type (e.g. `v.greet()` where `v: T, T: Greeter`) can
	// resolve through the bound interface's method set during bodyPass,
	// when the concrete instantiation isn't known yet.
	typeParamBounds map[types.DefID][]string

	itemAttrs map[string][]ast.Attr

	// typeParams is the active generic type-parameter scope while
	// resolving one declaration's signature or body.
	typeParams map[string]types.TypeID

	nextTypeParamDef types.DefID
}

func (tc *typeChecker) report(d diag.Diagnostic) {
	if tc.opts.Reporter != nil {
		tc.opts.Reporter.Add(d)
	}
}

func (tc *typeChecker) errorf(code diag.Code, span source.Span, format string, args ...any) {
	tc.report(diag.Diagnostic{
		Severity: diag.SevError,
		Code:     code,
		Message:  fmt.Sprintf(format, args...),
		Primary:  span,
	})
}
