// Package ast implements naml's immutable, spanned typed syntax tree
// (§4 AST component): the parser's output, consumed by the type checker
// and later dropped once lowering to HIR is complete (§3.4).
package ast

import "github.com/kahflane/naml/internal/source"

// Expr is the interface implemented by every expression node.
type Expr interface {
	exprNode()
	Span() source.Span
}

type exprBase struct{ span source.Span }

func (e exprBase) Span() source.Span        { return e.span }
func (e *exprBase) SetSpan(sp source.Span)  { e.span = sp }
func (exprBase) exprNode()                  {}

// Ident is a bare name reference, resolved against the symbol table.
type Ident struct {
	exprBase
	Name string
}

// LitKind distinguishes literal expression payloads.
type LitKind uint8

const (
	LitInt LitKind = iota
	LitFloat
	LitDecimal
	LitString
	LitBool
	LitNone
)

// Lit is a literal value; numeric literals lack intrinsic type until
// the checker unifies them with an expected type or defaults to int
// (§4.3).
type Lit struct {
	exprBase
	Kind   LitKind
	Int    int64
	Float  float64
	Str    string
	Bool   bool
}

// BinaryOp enumerates naml's binary operators. OpOr through OpMod are
// ordered by the precedence table in §4.2 (low to high is or < and <
// comparison < bit-or < bit-xor < bit-and < shift < additive <
// multiplicative); OpElvis binds looser than OpOr but comes last.
type BinaryOp uint8

const (
	OpOr BinaryOp = iota
	OpAnd
	OpEq
	OpNotEq
	OpLt
	OpGt
	OpLtEq
	OpGtEq
	OpBitOr
	OpBitXor
	OpBitAnd
	OpShl
	OpShr
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpMod
	OpElvis // ??
)

type Binary struct {
	exprBase
	Op          BinaryOp
	Left, Right Expr
}

type UnaryOp uint8

const (
	OpNeg UnaryOp = iota
	OpNot
	OpBitNot
	OpForceUnwrap // !
)

type Unary struct {
	exprBase
	Op      UnaryOp
	Operand Expr
}

// Ternary is `cond ? then : else`.
type Ternary struct {
	exprBase
	Cond, Then, Else Expr
}

type Call struct {
	exprBase
	Callee Expr
	Args   []Expr
}

type Index struct {
	exprBase
	Object, Key Expr
}

type Field struct {
	exprBase
	Object Expr
	Name   string
}

// Cast is an explicit `expr as T` conversion.
type Cast struct {
	exprBase
	Value Expr
	Type  TypeSyntax
}

// ArrayLit is `[e1, e2, ...]`.
type ArrayLit struct {
	exprBase
	Elems []Expr
}

// StructLit is `TypeName { field: value, ... }`.
type StructLit struct {
	exprBase
	Type   TypeSyntax
	Fields []StructLitField
}

type StructLitField struct {
	Name  string
	Value Expr
}

// Self is the implicit receiver inside a method body.
type Self struct{ exprBase }

// Try is `try expr`: evaluate; on throw, re-throw into the caller's
// throw set (§9 Open Question 5).
type Try struct {
	exprBase
	Value Expr
}

// Catch is `expr catch e { block } ?? fallback` (§4.9): an
// expression-level construct yielding either the non-throwing
// expression's value, or the catch block's result.
type Catch struct {
	exprBase
	Value    Expr
	Binding  string
	Handler  []Stmt
	Fallback Expr // non-nil when `?? fallback` trails the catch
}

// SpawnExpr is `spawn { body }`, producing a task handle (§4.4, §4.7).
type SpawnExpr struct {
	exprBase
	Body []Stmt
}
