// Package hir implements naml's high-level IR: a thin, fully-typed stage
// between internal/sema and internal/mir that makes two desugarings
// explicit which the checker only decided implicitly (§4.3, §4.4):
//
//   - the T -> option<T> implicit lift at return/argument sites becomes a
//     concrete Lift node instead of a silent assignability rule;
//   - a call to a generic free function carries its resolved
//     Instantiation (symbol + concrete type arguments) so internal/mono
//     doesn't need to re-run unification.
//
// Everything else is a direct, typed mirror of internal/ast, decorated
// with the type each node resolved to during checking.
package hir

import (
	"github.com/kahflane/naml/internal/ast"
	"github.com/kahflane/naml/internal/source"
	"github.com/kahflane/naml/internal/symbols"
	"github.com/kahflane/naml/internal/types"
)

// Expr is any HIR expression node.
type Expr interface {
	Type() types.TypeID
	Span() source.Span
	hirExpr()
}

// Base is the common header every Expr embeds: its resolved type and
// source span. Exported (unlike internal/ast's private exprBase) so
// internal/mono can construct and clone hir nodes directly when
// building a monomorphized specialization's body.
type Base struct {
	Typ types.TypeID
	Sp  source.Span
}

func (b Base) Type() types.TypeID { return b.Typ }
func (b Base) Span() source.Span  { return b.Sp }
func (Base) hirExpr()             {}

type Ident struct {
	Base
	Name string
}

type Lit struct {
	Base
	Kind  ast.LitKind
	Int   int64
	Float float64
	Str   string
	Bool  bool
}

type Binary struct {
	Base
	Op          ast.BinaryOp
	Left, Right Expr
}

type Unary struct {
	Base
	Op      ast.UnaryOp
	Operand Expr
}

type Ternary struct {
	Base
	Cond, Then, Else Expr
}

// CallKind distinguishes how a Call's callee resolves, since HIR no
// longer carries a symbol-table lookup with it.
type CallKind uint8

const (
	// CallValue is a call through an arbitrary expression value (a local
	// closure-typed binding, or the result of another expression).
	CallValue CallKind = iota
	// CallFn is a direct call to a module-level function symbol.
	CallFn
	// CallMethod is `object.method(...)`.
	CallMethod
)

// Instantiation records the concrete type arguments a call to a generic
// free function was unified to, mirroring sema.Instantiation, so
// internal/mono can key its specialization cache directly.
type Instantiation struct {
	Symbol symbols.SymbolID
	Args   []types.TypeID
}

type Call struct {
	Base
	CalleeKind CallKind

	// CallValue
	Callee Expr

	// CallFn: exactly one of Symbol or SpecName identifies the callee.
	// Symbol resolves a non-generic free function directly; Instantiation
	// non-nil means the callee is still generic and internal/mono hasn't
	// run yet. Once internal/mono specializes the call, it clears Symbol
	// and Instantiation and sets SpecName to the mangled name of the
	// concrete Func it generated.
	Symbol        symbols.SymbolID
	Instantiation *Instantiation
	SpecName      string

	// CallMethod
	Object Expr
	Method string

	Args []Expr
}

type Index struct {
	Base
	Object, Key Expr
}

type Field struct {
	Base
	Object Expr
	Name   string
}

type Cast struct {
	Base
	Value Expr
}

type ArrayLit struct {
	Base
	Elems []Expr
}

type StructLitField struct {
	Name  string
	Value Expr
}

type StructLit struct {
	Base
	Fields []StructLitField
}

// Self is the implicit method receiver.
type Self struct{ Base }

// Try is `try expr` (§9 Open Question 5): evaluate, and on throw,
// re-throw into the caller's throw set. No lowering is needed beyond
// unwrapping to the inner expression; internal/mir treats it identically
// to Value since landing-pad selection is driven by the throw's dynamic
// type, not by syntax.
type Try struct {
	Base
	Value Expr
}

type Catch struct {
	Base
	Value    Expr
	Binding  string
	Handler  []Stmt
	Fallback Expr // nil when no `?? fallback` trails the catch
}

type Spawn struct {
	Base
	Body []Stmt
}

// Lift makes explicit the implicit T -> option<T> conversion sema allows
// at return/argument sites (§4.3). Value's type is the option's element
// type; the Lift's own Type() is the option type.
type Lift struct {
	Base
	Value Expr
}

// Stmt is any HIR statement node.
type Stmt interface {
	Span() source.Span
	hirStmt()
}

// StmtBase is the common header every Stmt embeds: its source span.
// Exported for the same cross-package construction reason as Base.
type StmtBase struct{ Sp source.Span }

func (s StmtBase) Span() source.Span { return s.Sp }
func (StmtBase) hirStmt()            {}

type LetStmt struct {
	StmtBase
	Name  string
	Type  types.TypeID
	Value Expr
	Mut   bool
}

type ExprStmt struct {
	StmtBase
	Value Expr
}

type AssignStmt struct {
	StmtBase
	Target Expr
	Op     ast.AssignOp
	Value  Expr
}

type Block struct {
	StmtBase
	Stmts []Stmt
}

type If struct {
	StmtBase
	Cond Expr
	Then *Block
	Else Stmt // *Block or *If, nil if no else
}

type While struct {
	StmtBase
	Cond Expr
	Body *Block
}

type For struct {
	StmtBase
	Binding  string
	Elem     types.TypeID
	Iterable Expr
	Body     *Block
}

type Break struct{ StmtBase }
type Continue struct{ StmtBase }

type Return struct {
	StmtBase
	Value Expr // nil for bare `return;`
}

type Throw struct {
	StmtBase
	Value Expr
}

type Locked struct {
	StmtBase
	Mode    ast.LockMode
	Binding string
	Elem    types.TypeID
	Cell    Expr
	Body    *Block
}

type Join struct{ StmtBase }

// Param is one function parameter, resolved to its interned type.
type Param struct {
	Name string
	Type types.TypeID
}

// Func is one free function or method body, fully typed and desugared.
type Func struct {
	Name   string
	Symbol symbols.SymbolID // NoSymbol for methods

	// Receiver/ReceiverDef/MethodName are set for methods bound via an
	// `implements` block; Receiver is NoTypeID and MethodName is "" for
	// free functions.
	Receiver    types.TypeID
	ReceiverDef types.DefID
	MethodName  string

	TypeParams []ast.TypeParam
	ParamDefs  []types.DefID

	Params []Param
	Ret    types.TypeID
	Throws []types.TypeID
	Body   *Block
}

// IsGeneric reports whether Func declares its own type parameters and so
// requires monomorphization before internal/mir can lower it.
func (f *Func) IsGeneric() bool { return len(f.TypeParams) > 0 }

// Const is a module-level `const` binding: a snapshot value emitted into
// the data section, never a mutable global (§9 Design Notes).
type Const struct {
	Name  string
	Type  types.TypeID
	Value Expr
}

// Module is one checked file's fully-lowered contents.
type Module struct {
	Path     string
	Funcs    []*Func
	Consts   []*Const
	Types    *types.Interner
	Registry *types.Registry
}

// BySymbol finds a non-generic free function or method by its resolved
// symbol. Returns nil for methods, which carry symbols.NoSymbol.
func (m *Module) BySymbol(sym symbols.SymbolID) *Func {
	if sym == symbols.NoSymbol {
		return nil
	}
	for _, f := range m.Funcs {
		if f.Symbol == sym {
			return f
		}
	}
	return nil
}

// ByName finds a function by its (possibly mangled, post-mono) name.
// Ambiguous only before monomorphization, when several instantiations of
// the same generic template share the template's Name; callers needing a
// specific one should search Funcs directly using the mangled name mono
// assigns instead.
func (m *Module) ByName(name string) *Func {
	for _, f := range m.Funcs {
		if f.Name == name {
			return f
		}
	}
	return nil
}
