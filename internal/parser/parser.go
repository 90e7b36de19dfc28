// Package parser implements naml's recursive-descent + precedence-climbing
// parser (§4.2): token stream in, typed ast.File out, with
// resync-on-error recovery so a single run reports every syntax error it
// can find rather than stopping at the first.
package parser

import (
	"fmt"

	"github.com/kahflane/naml/internal/ast"
	"github.com/kahflane/naml/internal/diag"
	"github.com/kahflane/naml/internal/source"
	"github.com/kahflane/naml/internal/token"
)

// Parser holds one file's token stream and cursor.
type Parser struct {
	toks []token.Token
	pos  int
	file source.FileID
	bag  *diag.Bag

	// noStructLit suppresses struct-literal parsing of `Ident { ... }`
	// while parsing a condition (if/while), where `{` instead opens the
	// body block (§4.2 disambiguation rule).
	noStructLit bool
}

// New constructs a Parser over an already-lexed token stream.
func New(toks []token.Token, file source.FileID, bag *diag.Bag) *Parser {
	return &Parser{toks: toks, file: file, bag: bag}
}

// ParseFile parses a full file's top-level items.
func ParseFile(toks []token.Token, file source.FileID, bag *diag.Bag) *ast.File {
	p := New(toks, file, bag)
	f := &ast.File{ID: file}
	for !p.atEOF() {
		if it := p.parseItem(); it != nil {
			f.Items = append(f.Items, it)
		}
	}
	return f
}

func (p *Parser) cur() token.Token {
	if p.pos >= len(p.toks) {
		return token.Token{Kind: token.EOF}
	}
	return p.toks[p.pos]
}

func (p *Parser) peekAt(n int) token.Token {
	idx := p.pos + n
	if idx >= len(p.toks) {
		return token.Token{Kind: token.EOF}
	}
	return p.toks[idx]
}

func (p *Parser) atEOF() bool {
	return p.cur().Kind == token.EOF
}

func (p *Parser) at(k token.Kind) bool {
	return p.cur().Kind == k
}

func (p *Parser) bump() token.Token {
	t := p.cur()
	if p.pos < len(p.toks) {
		p.pos++
	}
	return t
}

// expect consumes a token of kind k, reporting SynUnexpectedToken and
// returning a zero Token if the current token doesn't match. The caller
// still makes progress: expect never blocks the cursor.
func (p *Parser) expect(k token.Kind) (token.Token, bool) {
	if p.at(k) {
		return p.bump(), true
	}
	p.errorf(diag.SynUnexpectedToken, "expected %s, found %s", k, p.cur().Kind)
	return token.Token{}, false
}

func (p *Parser) errorf(code diag.Code, format string, args ...interface{}) {
	if p.bag == nil {
		return
	}
	p.bag.Add(diag.Diagnostic{
		Severity: diag.SevError,
		Code:     code,
		Message:  fmt.Sprintf(format, args...),
		Primary:  p.cur().Span,
	})
}

// syncToStmtBoundary implements §4.2's statement-list recovery: on an
// unexpected token, skip to the next `;` or `}`.
func (p *Parser) syncToStmtBoundary() {
	for !p.atEOF() {
		if p.at(token.Semicolon) {
			p.bump()
			return
		}
		if p.at(token.RBrace) {
			return
		}
		p.bump()
	}
}

// syncToMatchingClose implements §4.2's recovery inside a parenthesized
// expression: skip to the matching close delimiter, tracking nesting
// depth so an inner `(` doesn't terminate recovery early.
func (p *Parser) syncToMatchingClose(open, close token.Kind) {
	depth := 1
	for !p.atEOF() {
		switch p.cur().Kind {
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				p.bump()
				return
			}
		}
		p.bump()
	}
}

func spanFrom(start source.Span, end source.Span) source.Span {
	return start.Cover(end)
}

// parseAttrs consumes zero or more `#[name(arg, ...)]` attributes
// preceding an item (§4.2 platform annotations).
func (p *Parser) parseAttrs() []ast.Attr {
	var attrs []ast.Attr
	for p.at(token.Hash) {
		start := p.cur().Span
		p.bump()
		p.expect(token.LBracket)
		name := p.expectIdentText()
		var args []string
		if p.at(token.LParen) {
			p.bump()
			for !p.at(token.RParen) && !p.atEOF() {
				args = append(args, p.expectIdentText())
				if !p.at(token.Comma) {
					break
				}
				p.bump()
			}
			p.expect(token.RParen)
		}
		end := p.cur().Span
		p.expect(token.RBracket)
		attrs = append(attrs, ast.Attr{Name: name, Args: args, Span: spanFrom(start, end)})
	}
	return attrs
}

func (p *Parser) parseDocComment() string {
	doc := ""
	for p.at(token.DocComment) {
		doc += p.bump().Text + "\n"
	}
	return doc
}
