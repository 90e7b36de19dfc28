package parser

import (
	"github.com/kahflane/naml/internal/ast"
	"github.com/kahflane/naml/internal/diag"
	"github.com/kahflane/naml/internal/source"
	"github.com/kahflane/naml/internal/token"
)

// parseExpr is the entry point: assignment is handled by the statement
// parser (parseExprOrAssignStmt), so the lowest level reachable from here
// is ternary/elvis, with a trailing `catch` suffix (§4.9) applied last.
func (p *Parser) parseExpr() ast.Expr {
	return p.parseCatchSuffix(p.parseTernary())
}

func (p *Parser) parseTernary() ast.Expr {
	start := p.cur().Span
	cond := p.parseElvis()
	if !p.at(token.Question) {
		return cond
	}
	p.bump()
	then := p.parseExpr()
	if _, ok := p.expect(token.Colon); !ok {
		return cond
	}
	els := p.parseExpr()
	return finish(p, start, &ast.Ternary{Cond: cond, Then: then, Else: els})
}

func (p *Parser) parseElvis() ast.Expr {
	start := p.cur().Span
	left := p.parseBinary(1)
	for p.at(token.QQ) {
		p.bump()
		right := p.parseBinary(1)
		left = finish(p, start, &ast.Binary{Op: ast.OpElvis, Left: left, Right: right})
	}
	return left
}

// parseBinary climbs §4.2's or/and/comparison/bit-or/bit-xor/bit-and/
// shift/additive/multiplicative levels.
func (p *Parser) parseBinary(minPrec int) ast.Expr {
	start := p.cur().Span
	left := p.parseUnary()
	for {
		prec, ok := binPrec[p.cur().Kind]
		if !ok || prec < minPrec {
			return left
		}
		opTok := p.bump()
		right := p.parseBinary(prec + 1)
		left = finish(p, start, &ast.Binary{Op: binOpFor(opTok.Kind), Left: left, Right: right})
	}
}

func binOpFor(k token.Kind) ast.BinaryOp {
	switch k {
	case token.OrOr:
		return ast.OpOr
	case token.AndAnd:
		return ast.OpAnd
	case token.Eq:
		return ast.OpEq
	case token.NotEq:
		return ast.OpNotEq
	case token.Lt:
		return ast.OpLt
	case token.Gt:
		return ast.OpGt
	case token.LtEq:
		return ast.OpLtEq
	case token.GtEq:
		return ast.OpGtEq
	case token.Pipe:
		return ast.OpBitOr
	case token.Caret:
		return ast.OpBitXor
	case token.Amp:
		return ast.OpBitAnd
	case token.Shl:
		return ast.OpShl
	case token.Shr:
		return ast.OpShr
	case token.Plus:
		return ast.OpAdd
	case token.Minus:
		return ast.OpSub
	case token.Star:
		return ast.OpMul
	case token.Slash:
		return ast.OpDiv
	case token.Percent:
		return ast.OpMod
	default:
		return ast.OpAdd
	}
}

// parseUnary handles unary/cast level, then falls to postfix.
func (p *Parser) parseUnary() ast.Expr {
	start := p.cur().Span
	switch p.cur().Kind {
	case token.Minus:
		p.bump()
		return finish(p, start, &ast.Unary{Op: ast.OpNeg, Operand: p.parseUnary()})
	case token.Bang:
		p.bump()
		return finish(p, start, &ast.Unary{Op: ast.OpNot, Operand: p.parseUnary()})
	case token.Caret:
		p.bump()
		return finish(p, start, &ast.Unary{Op: ast.OpBitNot, Operand: p.parseUnary()})
	}
	expr := p.parsePostfix()
	if p.at(token.KwAs) {
		p.bump()
		ty := p.parseTypeSyntax()
		return finish(p, start, &ast.Cast{Value: expr, Type: ty})
	}
	return expr
}

// parsePostfix handles call, index, field, and force-unwrap `!` chains
// (§4.2 postfix level).
func (p *Parser) parsePostfix() ast.Expr {
	start := p.cur().Span
	expr := p.parseAtom()
	for {
		switch p.cur().Kind {
		case token.LParen:
			expr = finish(p, start, p.parseCallArgs(expr))
		case token.LBracket:
			p.bump()
			idx := p.parseExpr()
			p.expect(token.RBracket)
			expr = finish(p, start, &ast.Index{Object: expr, Key: idx})
		case token.Dot:
			p.bump()
			name := p.expectIdentText()
			expr = finish(p, start, &ast.Field{Object: expr, Name: name})
		case token.Bang:
			p.bump()
			expr = finish(p, start, &ast.Unary{Op: ast.OpForceUnwrap, Operand: expr})
		default:
			return expr
		}
	}
}

func (p *Parser) parseCallArgs(callee ast.Expr) *ast.Call {
	p.bump() // (
	var args []ast.Expr
	for !p.at(token.RParen) && !p.atEOF() {
		args = append(args, p.parseExpr())
		if !p.at(token.Comma) {
			break
		}
		p.bump()
	}
	if _, ok := p.expect(token.RParen); !ok {
		p.syncToMatchingClose(token.LParen, token.RParen)
	}
	return &ast.Call{Callee: callee, Args: args}
}

func (p *Parser) expectIdentText() string {
	t := p.cur()
	if t.Kind != token.Ident {
		p.errorf(diag.SynUnexpectedToken, "expected identifier, found %s", t.Kind)
		return ""
	}
	p.bump()
	return t.Text
}

// parseAtom handles literals, identifiers (plus trailing struct
// literals), parenthesized groups, array literals, `spawn`, and `try`
// (atom level, §4.2).
func (p *Parser) parseAtom() ast.Expr {
	start := p.cur().Span
	t := p.cur()
	switch t.Kind {
	case token.IntLit:
		p.bump()
		return finish(p, start, &ast.Lit{Kind: ast.LitInt, Int: t.IntVal})
	case token.FloatLit:
		p.bump()
		return finish(p, start, &ast.Lit{Kind: ast.LitFloat, Float: t.FloatVal})
	case token.DecimalLit:
		p.bump()
		return finish(p, start, &ast.Lit{Kind: ast.LitDecimal, Float: t.FloatVal, Str: t.Text})
	case token.StringLit:
		p.bump()
		return finish(p, start, &ast.Lit{Kind: ast.LitString, Str: t.Text})
	case token.KwTrue:
		p.bump()
		return finish(p, start, &ast.Lit{Kind: ast.LitBool, Bool: true})
	case token.KwFalse:
		p.bump()
		return finish(p, start, &ast.Lit{Kind: ast.LitBool, Bool: false})
	case token.KwNone:
		p.bump()
		return finish(p, start, &ast.Lit{Kind: ast.LitNone})
	case token.KwSelf:
		p.bump()
		return finish(p, start, &ast.Self{})
	case token.Ident:
		p.bump()
		if p.at(token.LBrace) && !p.noStructLit {
			return p.parseStructLit(start, t.Text)
		}
		return finish(p, start, &ast.Ident{Name: t.Text})
	case token.LParen:
		p.bump()
		inner := p.parseExpr()
		if _, ok := p.expect(token.RParen); !ok {
			p.syncToMatchingClose(token.LParen, token.RParen)
		}
		return inner
	case token.LBracket:
		return p.parseArrayLit(start)
	case token.KwSpawn:
		return p.parseSpawn(start)
	case token.KwTry:
		p.bump()
		return finish(p, start, &ast.Try{Value: p.parseUnary()})
	default:
		p.errorf(diag.SynUnexpectedToken, "unexpected token %s in expression", t.Kind)
		p.syncToStmtBoundary()
		return finish(p, start, &ast.Lit{Kind: ast.LitInt})
	}
}

func (p *Parser) parseStructLit(start source.Span, typeName string) ast.Expr {
	ts := ast.TypeSyntax{Kind: ast.TSNamed, Name: typeName}
	p.bump() // {
	var fields []ast.StructLitField
	for !p.at(token.RBrace) && !p.atEOF() {
		name := p.expectIdentText()
		p.expect(token.Colon)
		val := p.parseExpr()
		fields = append(fields, ast.StructLitField{Name: name, Value: val})
		if !p.at(token.Comma) {
			break
		}
		p.bump()
	}
	p.expect(token.RBrace)
	return finish(p, start, &ast.StructLit{Type: ts, Fields: fields})
}

func (p *Parser) parseArrayLit(start source.Span) ast.Expr {
	p.bump() // [
	var elems []ast.Expr
	for !p.at(token.RBracket) && !p.atEOF() {
		elems = append(elems, p.parseExpr())
		if !p.at(token.Comma) {
			break
		}
		p.bump()
	}
	p.expect(token.RBracket)
	return finish(p, start, &ast.ArrayLit{Elems: elems})
}

func (p *Parser) parseSpawn(start source.Span) ast.Expr {
	p.bump() // spawn
	body := p.parseBlockStmts()
	return finish(p, start, &ast.SpawnExpr{Body: body})
}

// parseCatchSuffix consumes a trailing `catch e { ... } ?? fallback` on
// an already-parsed expression, per §4.9.
func (p *Parser) parseCatchSuffix(value ast.Expr) ast.Expr {
	if !p.at(token.KwCatch) {
		return value
	}
	start := value.Span()
	p.bump()
	binding := p.expectIdentText()
	handler := p.parseBlockStmts()
	c := &ast.Catch{Value: value, Binding: binding, Handler: handler}
	if p.at(token.QQ) {
		p.bump()
		c.Fallback = p.parseExpr()
	}
	return finish(p, start, c)
}
