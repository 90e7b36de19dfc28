package parser

import (
	"github.com/kahflane/naml/internal/ast"
	"github.com/kahflane/naml/internal/diag"
	"github.com/kahflane/naml/internal/source"
	"github.com/kahflane/naml/internal/token"
)

// spanner is implemented by every ast.Stmt/Expr/Item node via their base
// struct's promoted SetSpan method.
type spanner interface{ SetSpan(source.Span) }

// finish stamps a node's span as start..the token just consumed, then
// returns it — lets each parse* function read as a straight-line build.
func finish[T spanner](p *Parser, start source.Span, node T) T {
	node.SetSpan(spanFrom(start, p.prevSpan()))
	return node
}

// parseBlock parses a brace-delimited statement block into *ast.BlockStmt
// (used wherever the grammar names a block: if/while/for/locked bodies,
// function bodies).
func (p *Parser) parseBlock() *ast.BlockStmt {
	start := p.cur().Span
	p.expect(token.LBrace)
	var stmts []ast.Stmt
	for !p.at(token.RBrace) && !p.atEOF() {
		if s := p.parseStmt(); s != nil {
			stmts = append(stmts, s)
		}
	}
	p.expect(token.RBrace)
	return finish(p, start, &ast.BlockStmt{Stmts: stmts})
}

// parseBlockStmts is parseBlock's flat-list counterpart, used by
// constructs that store `[]Stmt` directly rather than a *BlockStmt
// (spawn bodies, catch handlers).
func (p *Parser) parseBlockStmts() []ast.Stmt {
	return p.parseBlock().Stmts
}

func (p *Parser) parseStmt() ast.Stmt {
	start := p.cur().Span
	switch p.cur().Kind {
	case token.KwVar:
		return p.parseLetStmt(start)
	case token.KwIf:
		return p.parseIfStmt(start)
	case token.KwWhile:
		return p.parseWhileStmt(start)
	case token.KwFor:
		return p.parseForStmt(start)
	case token.KwBreak:
		p.bump()
		p.expect(token.Semicolon)
		return finish(p, start, &ast.BreakStmt{})
	case token.KwContinue:
		p.bump()
		p.expect(token.Semicolon)
		return finish(p, start, &ast.ContinueStmt{})
	case token.KwReturn:
		p.bump()
		var val ast.Expr
		if !p.at(token.Semicolon) {
			val = p.parseExpr()
		}
		p.expect(token.Semicolon)
		return finish(p, start, &ast.ReturnStmt{Value: val})
	case token.KwThrow:
		p.bump()
		val := p.parseExpr()
		p.expect(token.Semicolon)
		return finish(p, start, &ast.ThrowStmt{Value: val})
	case token.KwLocked, token.KwRlocked, token.KwWlocked:
		return p.parseLockedStmt(start)
	case token.KwJoin:
		p.bump()
		p.expect(token.LParen)
		p.expect(token.RParen)
		p.expect(token.Semicolon)
		return finish(p, start, &ast.JoinStmt{})
	case token.LBrace:
		return p.parseBlock()
	case token.Semicolon:
		p.bump()
		return nil
	default:
		return p.parseExprOrAssignStmt(start)
	}
}

func (p *Parser) parseLetStmt(start source.Span) ast.Stmt {
	p.bump() // var
	mut := false
	if p.at(token.KwMut) {
		mut = true
		p.bump()
	}
	name := p.expectIdentText()
	if _, ok := p.expect(token.Colon); !ok {
		p.errorf(diag.SynMissingTypeAnnot, "var declarations require an explicit type annotation")
	}
	ty := p.parseTypeSyntax()
	var value ast.Expr
	if p.at(token.Assign) {
		p.bump()
		value = p.parseExpr()
	}
	p.expect(token.Semicolon)
	return finish(p, start, &ast.LetStmt{Name: name, Type: ty, Value: value, Mut: mut})
}

func (p *Parser) parseIfStmt(start source.Span) ast.Stmt {
	p.bump() // if
	p.noStructLit = true
	cond := p.parseExpr()
	p.noStructLit = false
	then := p.parseBlock()
	var els ast.Stmt
	if p.at(token.KwElse) {
		p.bump()
		if p.at(token.KwIf) {
			els = p.parseIfStmt(p.cur().Span)
		} else {
			els = p.parseBlock()
		}
	}
	return finish(p, start, &ast.IfStmt{Cond: cond, Then: then, Else: els})
}

func (p *Parser) parseWhileStmt(start source.Span) ast.Stmt {
	p.bump() // while
	p.noStructLit = true
	cond := p.parseExpr()
	p.noStructLit = false
	body := p.parseBlock()
	return finish(p, start, &ast.WhileStmt{Cond: cond, Body: body})
}

func (p *Parser) parseForStmt(start source.Span) ast.Stmt {
	p.bump() // for
	binding := p.expectIdentText()
	if _, ok := p.expect(token.KwIn); !ok {
		p.errorf(diag.SynForMissingIn, "expected 'in' in for loop")
	}
	p.noStructLit = true
	iterable := p.parseExpr()
	p.noStructLit = false
	body := p.parseBlock()
	return finish(p, start, &ast.ForStmt{Binding: binding, Iterable: iterable, Body: body})
}

func (p *Parser) parseLockedStmt(start source.Span) ast.Stmt {
	var mode ast.LockMode
	switch p.cur().Kind {
	case token.KwLocked:
		mode = ast.LockExclusive
	case token.KwRlocked:
		mode = ast.LockRead
	case token.KwWlocked:
		mode = ast.LockWrite
	}
	p.bump()
	p.expect(token.LParen)
	binding := p.expectIdentText()
	p.expect(token.KwIn)
	cell := p.parseExpr()
	p.expect(token.RParen)
	body := p.parseBlock()
	return finish(p, start, &ast.LockedStmt{Mode: mode, Binding: binding, Cell: cell, Body: body})
}

// parseExprOrAssignStmt parses a bare expression statement or, when
// followed by an assignment operator, an AssignStmt (§4.2).
func (p *Parser) parseExprOrAssignStmt(start source.Span) ast.Stmt {
	expr := p.parseExpr()
	expr = p.parseCatchSuffix(expr)

	op, isAssign := assignOpFor(p.cur().Kind)
	if isAssign {
		p.bump()
		value := p.parseExpr()
		p.expect(token.Semicolon)
		return finish(p, start, &ast.AssignStmt{Target: expr, Op: op, Value: value})
	}

	// A block's last expression may omit its `;`, and a `spawn { ... }`
	// statement ends at its closing brace.
	if p.at(token.RBrace) {
		return finish(p, start, &ast.ExprStmt{Value: expr})
	}
	if _, ok := expr.(*ast.SpawnExpr); ok && !p.at(token.Semicolon) {
		return finish(p, start, &ast.ExprStmt{Value: expr})
	}
	p.expect(token.Semicolon)
	return finish(p, start, &ast.ExprStmt{Value: expr})
}

func assignOpFor(k token.Kind) (ast.AssignOp, bool) {
	switch k {
	case token.Assign:
		return ast.AssignSet, true
	case token.PlusEq:
		return ast.AssignAdd, true
	case token.MinusEq:
		return ast.AssignSub, true
	case token.StarEq:
		return ast.AssignMul, true
	case token.SlashEq:
		return ast.AssignDiv, true
	default:
		return 0, false
	}
}
