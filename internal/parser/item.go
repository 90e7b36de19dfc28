package parser

import (
	"github.com/kahflane/naml/internal/ast"
	"github.com/kahflane/naml/internal/diag"
	"github.com/kahflane/naml/internal/source"
	"github.com/kahflane/naml/internal/token"
)

// parseItem parses one top-level (or nested-module) declaration:
// doc comment, attributes, optional `pub`, then the item keyword (§4.2).
// Returns nil and resyncs to the next statement boundary on unrecoverable
// input, so ParseFile's loop always makes progress.
func (p *Parser) parseItem() ast.Item {
	doc := p.parseDocComment()
	attrs := p.parseAttrs()
	start := p.cur().Span

	pub := false
	if p.at(token.KwPub) {
		pub = true
		p.bump()
	}

	var item ast.Item
	switch p.cur().Kind {
	case token.KwFn:
		item = p.parseFnItem(start, false)
	case token.KwExtern:
		p.bump()
		p.expect(token.KwFn)
		item = p.parseFnItem(start, true)
	case token.KwStruct:
		item = p.parseStructItem(start)
	case token.KwEnum:
		item = p.parseEnumItem(start)
	case token.KwInterface:
		item = p.parseInterfaceItem(start)
	case token.KwException:
		item = p.parseExceptionItem(start)
	case token.KwConst:
		item = p.parseConstItem(start)
	case token.KwType:
		item = p.parseTypeAliasItem(start)
	case token.KwUse:
		item = p.parseUseItem(start)
	case token.KwMod:
		item = p.parseModItem(start)
	case token.KwImplements:
		item = p.parseImplementsItem(start)
	default:
		p.errorf(diag.SynUnexpectedToken, "expected item, found %s", p.cur().Kind)
		p.syncToStmtBoundary()
		return nil
	}

	setItemMeta(item, pub, attrs, doc)
	return item
}

// itemMeta is implemented by every ast.Item's base via promoted setters.
type itemMeta interface {
	SetPub(bool)
	SetAttrs([]ast.Attr)
	SetDoc(string)
}

func setItemMeta(item ast.Item, pub bool, attrs []ast.Attr, doc string) {
	if m, ok := item.(itemMeta); ok {
		m.SetPub(pub)
		m.SetAttrs(attrs)
		m.SetDoc(doc)
	}
}

func (p *Parser) parseTypeParams() []ast.TypeParam {
	if !p.at(token.Lt) {
		return nil
	}
	p.bump()
	var params []ast.TypeParam
	for !p.at(token.Gt) && !p.atEOF() {
		name := p.expectIdentText()
		tp := ast.TypeParam{Name: name}
		if p.at(token.Colon) {
			p.bump()
			tp.Bounds = append(tp.Bounds, p.expectIdentText())
			for p.at(token.Plus) {
				p.bump()
				tp.Bounds = append(tp.Bounds, p.expectIdentText())
			}
		}
		params = append(params, tp)
		if !p.at(token.Comma) {
			break
		}
		p.bump()
	}
	p.expect(token.Gt)
	return params
}

func (p *Parser) parseParams() []ast.Param {
	p.expect(token.LParen)
	var params []ast.Param
	for !p.at(token.RParen) && !p.atEOF() {
		name := p.expectIdentText()
		p.expect(token.Colon)
		ty := p.parseTypeSyntax()
		params = append(params, ast.Param{Name: name, Type: ty})
		if !p.at(token.Comma) {
			break
		}
		p.bump()
	}
	p.expect(token.RParen)
	return params
}

func (p *Parser) parseFnItem(start source.Span, extern bool) ast.Item {
	p.bump() // fn

	receiver := ""
	if p.at(token.LParen) && p.peekAt(1).Kind == token.KwSelf {
		p.bump() // (
		p.bump() // self
		p.expect(token.Colon)
		receiver = p.expectIdentText()
		p.expect(token.RParen)
	}

	name := p.expectIdentText()
	typeParams := p.parseTypeParams()
	params := p.parseParams()

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

	fn := &ast.FnItem{
		Receiver:   receiver,
		TypeParams: typeParams,
		Params:     params,
		Ret:        ret,
		Throws:     throws,
		Extern:     extern,
	}
	fn.Name = name
	if extern {
		p.expect(token.Semicolon)
	} else {
		fn.Body = p.parseBlock()
	}
	return finish(p, start, fn)
}

func (p *Parser) parseStructItem(start source.Span) ast.Item {
	p.bump() // struct
	name := p.expectIdentText()
	typeParams := p.parseTypeParams()
	p.expect(token.LBrace)
	var fields []ast.StructField
	for !p.at(token.RBrace) && !p.atEOF() {
		fname := p.expectIdentText()
		p.expect(token.Colon)
		ty := p.parseTypeSyntax()
		fields = append(fields, ast.StructField{Name: fname, Type: ty})
		if !p.at(token.Comma) {
			break
		}
		p.bump()
	}
	p.expect(token.RBrace)
	st := &ast.StructItem{TypeParams: typeParams, Fields: fields}
	st.Name = name
	return finish(p, start, st)
}

func (p *Parser) parseEnumItem(start source.Span) ast.Item {
	p.bump() // enum
	name := p.expectIdentText()
	typeParams := p.parseTypeParams()
	p.expect(token.LBrace)
	var variants []ast.EnumVariant
	for !p.at(token.RBrace) && !p.atEOF() {
		vname := p.expectIdentText()
		var payload *ast.TypeSyntax
		if p.at(token.LParen) {
			p.bump()
			ty := p.parseTypeSyntax()
			payload = &ty
			p.expect(token.RParen)
		}
		variants = append(variants, ast.EnumVariant{Name: vname, Payload: payload})
		if !p.at(token.Comma) {
			break
		}
		p.bump()
	}
	p.expect(token.RBrace)
	en := &ast.EnumItem{TypeParams: typeParams, Variants: variants}
	en.Name = name
	return finish(p, start, en)
}

func (p *Parser) parseInterfaceItem(start source.Span) ast.Item {
	p.bump() // interface
	name := p.expectIdentText()
	p.expect(token.LBrace)
	var methods []ast.FnSignature
	for !p.at(token.RBrace) && !p.atEOF() {
		p.expect(token.KwFn)
		mname := p.expectIdentText()
		params := p.parseParams()
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
		p.expect(token.Semicolon)
		methods = append(methods, ast.FnSignature{Name: mname, Params: params, Ret: ret, Throws: throws})
	}
	p.expect(token.RBrace)
	it := &ast.InterfaceItem{Methods: methods}
	it.Name = name
	return finish(p, start, it)
}

func (p *Parser) parseExceptionItem(start source.Span) ast.Item {
	p.bump() // exception
	name := p.expectIdentText()
	p.expect(token.LBrace)
	var fields []ast.StructField
	for !p.at(token.RBrace) && !p.atEOF() {
		fname := p.expectIdentText()
		p.expect(token.Colon)
		ty := p.parseTypeSyntax()
		fields = append(fields, ast.StructField{Name: fname, Type: ty})
		if !p.at(token.Comma) {
			break
		}
		p.bump()
	}
	p.expect(token.RBrace)
	ex := &ast.ExceptionItem{Fields: fields}
	ex.Name = name
	return finish(p, start, ex)
}

func (p *Parser) parseConstItem(start source.Span) ast.Item {
	p.bump() // const
	name := p.expectIdentText()
	p.expect(token.Colon)
	ty := p.parseTypeSyntax()
	p.expect(token.Assign)
	val := p.parseExpr()
	p.expect(token.Semicolon)
	c := &ast.ConstItem{Type: ty, Value: val}
	c.Name = name
	return finish(p, start, c)
}

func (p *Parser) parseTypeAliasItem(start source.Span) ast.Item {
	p.bump() // type
	name := p.expectIdentText()
	typeParams := p.parseTypeParams()
	p.expect(token.Assign)
	target := p.parseTypeSyntax()
	p.expect(token.Semicolon)
	ta := &ast.TypeAliasItem{TypeParams: typeParams, Target: target}
	ta.Name = name
	return finish(p, start, ta)
}

func (p *Parser) parseUseItem(start source.Span) ast.Item {
	p.bump() // use
	var path []string
	path = append(path, p.expectIdentText())
	for p.at(token.ColonColon) {
		p.bump()
		if p.at(token.Star) {
			p.bump()
			p.expect(token.Semicolon)
			u := &ast.UseItem{Path: path, Wildcard: true}
			return finish(p, start, u)
		}
		if p.at(token.LBrace) {
			p.bump()
			var members []ast.UseMember
			for !p.at(token.RBrace) && !p.atEOF() {
				mname := p.expectIdentText()
				alias := ""
				if p.at(token.KwAs) {
					p.bump()
					alias = p.expectIdentText()
				}
				members = append(members, ast.UseMember{Name: mname, Alias: alias})
				if !p.at(token.Comma) {
					break
				}
				p.bump()
			}
			p.expect(token.RBrace)
			p.expect(token.Semicolon)
			u := &ast.UseItem{Path: path, Members: members}
			return finish(p, start, u)
		}
		path = append(path, p.expectIdentText())
	}
	alias := ""
	if p.at(token.KwAs) {
		p.bump()
		alias = p.expectIdentText()
	}
	p.expect(token.Semicolon)
	u := &ast.UseItem{Path: path, Alias: alias}
	return finish(p, start, u)
}

func (p *Parser) parseModItem(start source.Span) ast.Item {
	p.bump() // mod
	name := p.expectIdentText()
	p.expect(token.Semicolon)
	m := &ast.ModItem{}
	m.Name = name
	return finish(p, start, m)
}

func (p *Parser) parseImplementsItem(start source.Span) ast.Item {
	p.bump() // implements
	iface := p.expectIdentText()
	p.expect(token.KwFor)
	target := p.expectIdentText()
	p.expect(token.LBrace)
	var methods []*ast.FnItem
	for !p.at(token.RBrace) && !p.atEOF() {
		fnStart := p.cur().Span
		if !p.at(token.KwFn) {
			p.errorf(diag.SynUnexpectedToken, "expected method, found %s", p.cur().Kind)
			p.syncToStmtBoundary()
			continue
		}
		if fn, ok := p.parseFnItem(fnStart, false).(*ast.FnItem); ok {
			methods = append(methods, fn)
		}
	}
	p.expect(token.RBrace)
	im := &ast.ImplementsItem{Interface: iface, Target: target, Methods: methods}
	im.Name = iface + " for " + target
	return finish(p, start, im)
}
