package ast

import "github.com/kahflane/naml/internal/source"

// Stmt is the interface implemented by every statement node.
type Stmt interface {
	stmtNode()
	Span() source.Span
}

type stmtBase struct{ span source.Span }

func (s stmtBase) Span() source.Span       { return s.span }
func (s *stmtBase) SetSpan(sp source.Span) { s.span = sp }
func (stmtBase) stmtNode()                 {}

// LetStmt is `var name: T = expr;` — §4.2 requires the explicit type
// annotation syntactically; there is no `let` type-inference form.
type LetStmt struct {
	stmtBase
	Name  string
	Type  TypeSyntax
	Value Expr
	Mut   bool
}

type ExprStmt struct {
	stmtBase
	Value Expr
}

// AssignStmt is `place = value;` or a compound `place += value;`.
type AssignStmt struct {
	stmtBase
	Target Expr
	Op     AssignOp
	Value  Expr
}

type AssignOp uint8

const (
	AssignSet AssignOp = iota
	AssignAdd
	AssignSub
	AssignMul
	AssignDiv
)

type BlockStmt struct {
	stmtBase
	Stmts []Stmt
}

type IfStmt struct {
	stmtBase
	Cond       Expr
	Then       *BlockStmt
	Else       Stmt // *BlockStmt or *IfStmt, nil if no else
}

type WhileStmt struct {
	stmtBase
	Cond Expr
	Body *BlockStmt
}

// ForStmt is `for x in iterable { ... }`.
type ForStmt struct {
	stmtBase
	Binding  string
	Iterable Expr
	Body     *BlockStmt
}

type BreakStmt struct{ stmtBase }
type ContinueStmt struct{ stmtBase }

type ReturnStmt struct {
	stmtBase
	Value Expr // nil for bare `return;`
}

type ThrowStmt struct {
	stmtBase
	Value Expr
}

// LockedStmt covers `locked`/`rlocked`/`wlocked (v in m) { ... }`
// (§4.8): a structured acquisition region, not a dynamic drop list.
type LockedStmt struct {
	stmtBase
	Mode    LockMode
	Binding string
	Cell    Expr
	Body    *BlockStmt
}

type LockMode uint8

const (
	LockExclusive LockMode = iota // locked
	LockRead                      // rlocked
	LockWrite                     // wlocked
)

// JoinStmt is the bare `join();` call that blocks on the enclosing
// scope's spawn barrier (§4.4, §4.7).
type JoinStmt struct{ stmtBase }
