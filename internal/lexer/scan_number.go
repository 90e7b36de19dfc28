package lexer

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/kahflane/naml/internal/diag"
	"github.com/kahflane/naml/internal/token"
)

// scanNumber scans an integer, float, or decimal(p,s) literal. Numeric
// literals carry their parsed value in the token (§4.1); on malformed
// input the lexer still produces a token (an Invalid token carrying the
// raw text) and reports one diagnostic, per the total-function contract.
func (l *Lexer) scanNumber(start uint32) token.Token {
	isFloat := false
	for unicode.IsDigit(l.cur.peek()) || l.cur.peek() == '_' {
		l.cur.bump()
	}
	if l.cur.peek() == '.' && unicode.IsDigit(l.cur.peekAt(1)) {
		isFloat = true
		l.cur.bump()
		for unicode.IsDigit(l.cur.peek()) || l.cur.peek() == '_' {
			l.cur.bump()
		}
	}
	if l.cur.peek() == 'e' || l.cur.peek() == 'E' {
		isFloat = true
		l.cur.bump()
		if l.cur.peek() == '+' || l.cur.peek() == '-' {
			l.cur.bump()
		}
		for unicode.IsDigit(l.cur.peek()) {
			l.cur.bump()
		}
	}

	// decimal(p,s) suffix: a literal like 19.99d is a decimal, not a float.
	isDecimal := false
	if l.cur.peek() == 'd' {
		isDecimal = true
		l.cur.bump()
	}

	span := l.spanAt(start)
	raw := strings.ReplaceAll(l.sliceFrom(span), "_", "")

	switch {
	case isDecimal:
		text := strings.TrimSuffix(raw, "d")
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			l.report(diag.LexBadNumber, "invalid decimal literal", span)
			return token.Token{Kind: token.Invalid, Span: span, Text: text}
		}
		return token.Token{Kind: token.DecimalLit, Span: span, Text: text, FloatVal: f}
	case isFloat:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			l.report(diag.LexBadNumber, "invalid float literal", span)
			return token.Token{Kind: token.Invalid, Span: span, Text: raw}
		}
		return token.Token{Kind: token.FloatLit, Span: span, Text: raw, FloatVal: f}
	default:
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			l.report(diag.LexBadNumber, "invalid integer literal", span)
			return token.Token{Kind: token.Invalid, Span: span, Text: raw}
		}
		return token.Token{Kind: token.IntLit, Span: span, Text: raw, IntVal: n}
	}
}
