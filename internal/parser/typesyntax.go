package parser

import (
	"fortio.org/safecast"

	"github.com/kahflane/naml/internal/ast"
	"github.com/kahflane/naml/internal/diag"
	"github.com/kahflane/naml/internal/source"
	"github.com/kahflane/naml/internal/token"
)

// parseTypeSyntax parses a type annotation as written: named types
// (with optional generic args), arrays, option (`T?`), map, and the
// built-in wrapper types mutex/rwlock/atomic/channel, plus decimal(p,s)
// (§3.1, §4.2).
func (p *Parser) parseTypeSyntax() ast.TypeSyntax {
	start := p.cur().Span
	var ts ast.TypeSyntax

	switch p.cur().Kind {
	case token.LBracket:
		p.bump()
		elem := p.parseTypeSyntax()
		p.expect(token.RBracket)
		ts = ast.TypeSyntax{Kind: ast.TSArray, Elem: &elem}
	case token.Ident:
		name := p.cur().Text
		switch name {
		case "map":
			p.bump()
			p.expect(token.Lt)
			key := p.parseTypeSyntax()
			p.expect(token.Comma)
			val := p.parseTypeSyntax()
			p.expect(token.Gt)
			ts = ast.TypeSyntax{Kind: ast.TSMap, Key: &key, Val: &val}
		case "mutex":
			p.bump()
			elem := p.parseAngleElem()
			ts = ast.TypeSyntax{Kind: ast.TSMutex, Elem: &elem}
		case "rwlock":
			p.bump()
			elem := p.parseAngleElem()
			ts = ast.TypeSyntax{Kind: ast.TSRwLock, Elem: &elem}
		case "atomic":
			p.bump()
			elem := p.parseAngleElem()
			ts = ast.TypeSyntax{Kind: ast.TSAtomic, Elem: &elem}
		case "channel":
			p.bump()
			elem := p.parseAngleElem()
			ts = ast.TypeSyntax{Kind: ast.TSChannel, Elem: &elem}
		case "decimal":
			p.bump()
			ts = ast.TypeSyntax{Kind: ast.TSDecimal}
			if p.at(token.LParen) {
				p.bump()
				ts.DecPrecision = p.parseUintLit()
				p.expect(token.Comma)
				ts.DecScale = p.parseUintLit()
				p.expect(token.RParen)
			}
		case "fn":
			ts = p.parseFnTypeSyntax()
		default:
			p.bump()
			ts = ast.TypeSyntax{Kind: ast.TSNamed, Name: name}
			if p.at(token.Lt) {
				p.bump()
				for !p.at(token.Gt) && !p.atEOF() {
					ts.Args = append(ts.Args, p.parseTypeSyntax())
					if !p.at(token.Comma) {
						break
					}
					p.bump()
				}
				p.expect(token.Gt)
			}
		}
	default:
		p.errorf(diag.SynUnexpectedToken, "expected type, found %s", p.cur().Kind)
		p.bump()
		ts = ast.TypeSyntax{Kind: ast.TSNamed, Name: "<error>"}
	}

	// Option suffix: `T?`.
	if p.at(token.Question) {
		p.bump()
		elem := ts
		ts = ast.TypeSyntax{Kind: ast.TSOption, Elem: &elem}
	}

	ts.Span = spanFrom(start, p.prevSpan())
	return ts
}

func (p *Parser) parseAngleElem() ast.TypeSyntax {
	p.expect(token.Lt)
	elem := p.parseTypeSyntax()
	p.expect(token.Gt)
	return elem
}

func (p *Parser) parseFnTypeSyntax() ast.TypeSyntax {
	p.bump() // fn
	p.expect(token.LParen)
	var params []ast.TypeSyntax
	for !p.at(token.RParen) && !p.atEOF() {
		params = append(params, p.parseTypeSyntax())
		if !p.at(token.Comma) {
			break
		}
		p.bump()
	}
	p.expect(token.RParen)
	var ret *ast.TypeSyntax
	if p.at(token.Arrow) {
		p.bump()
		r := p.parseTypeSyntax()
		ret = &r
	}
	var throws []ast.TypeSyntax
	if p.at(token.KwThrows) {
		p.bump()
		throws = p.parseThrowSet()
	}
	return ast.TypeSyntax{Kind: ast.TSFn, Params: params, Ret: ret, Throws: throws}
}

// parseThrowSet parses `throws E1, E2` — a comma-separated list of
// exception type names following `throws` (§4.9).
func (p *Parser) parseThrowSet() []ast.TypeSyntax {
	var out []ast.TypeSyntax
	out = append(out, p.parseTypeSyntax())
	for p.at(token.Comma) {
		p.bump()
		out = append(out, p.parseTypeSyntax())
	}
	return out
}

func (p *Parser) parseUintLit() uint8 {
	t := p.cur()
	if t.Kind != token.IntLit {
		p.errorf(diag.SynUnexpectedToken, "expected integer literal, found %s", t.Kind)
		return 0
	}
	p.bump()
	v, err := safecast.Conv[uint8](t.IntVal)
	if err != nil {
		p.errorf(diag.SynUnexpectedToken, "precision/scale out of range: %v", err)
		return 0
	}
	return v
}

func (p *Parser) prevSpan() source.Span {
	if p.pos == 0 {
		return p.cur().Span
	}
	return p.toks[p.pos-1].Span
}
