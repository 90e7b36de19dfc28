package lexer

import (
	"golang.org/x/text/unicode/norm"

	"github.com/kahflane/naml/internal/diag"
	"github.com/kahflane/naml/internal/token"
)

// scanIdent scans an identifier or keyword starting at start. Identifiers
// are interned into the shared string table (§4.1); keywords map straight
// to their token.Kind without interning.
//
// Two non-ASCII identifiers that render identically but differ in
// combining-mark ordering (e.g. precomposed "café" vs "cafe" + combining
// acute) must name the same symbol, so the text handed to the interner is
// first normalized to NFC; Text keeps the raw source slice so diagnostics
// still quote exactly what the programmer wrote.
func (l *Lexer) scanIdent(start uint32) token.Token {
	for isIdentCont(l.cur.peek()) {
		l.cur.bump()
	}
	span := l.spanAt(start)
	text := l.sliceFrom(span)

	if len(text) > l.opts.maxTokenLen() {
		l.report(diag.LexTokenTooLong, "identifier exceeds maximum token length", span)
	}

	if kind, ok := token.LookupKeyword(text); ok {
		return token.Token{Kind: kind, Span: span, Text: text}
	}
	normalized := text
	if !isASCII(text) {
		normalized = norm.NFC.String(text)
	}
	return token.Token{
		Kind:  token.Ident,
		Span:  span,
		Ident: l.interner.Intern(normalized),
		Text:  text,
	}
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return false
		}
	}
	return true
}
