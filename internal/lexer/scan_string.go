package lexer

import (
	"strings"

	"github.com/kahflane/naml/internal/diag"
	"github.com/kahflane/naml/internal/token"
)

// scanString scans a double-quoted string literal with backslash escapes.
// Unterminated strings and invalid escapes report a diagnostic and produce
// an error token, per §4.1's total-function contract — the lexer never
// aborts the run.
func (l *Lexer) scanString(start uint32) token.Token {
	l.cur.bump() // opening quote
	var sb strings.Builder
	terminated := false
	hadError := false

	for !l.cur.eof() {
		r := l.cur.peek()
		if r == '"' {
			l.cur.bump()
			terminated = true
			break
		}
		if r == '\n' {
			break // unterminated: strings don't span bare newlines
		}
		if r == '\\' {
			l.cur.bump()
			esc := l.cur.peek()
			switch esc {
			case 'n':
				sb.WriteByte('\n')
				l.cur.bump()
			case 't':
				sb.WriteByte('\t')
				l.cur.bump()
			case 'r':
				sb.WriteByte('\r')
				l.cur.bump()
			case '\\':
				sb.WriteByte('\\')
				l.cur.bump()
			case '"':
				sb.WriteByte('"')
				l.cur.bump()
			case '0':
				sb.WriteByte(0)
				l.cur.bump()
			default:
				hadError = true
				l.cur.bump()
			}
			continue
		}
		sb.WriteRune(r)
		l.cur.bump()
	}

	span := l.spanAt(start)
	if !terminated {
		l.report(diag.LexUnterminatedString, "unterminated string literal", span)
	} else if hadError {
		l.report(diag.LexInvalidEscape, "invalid escape sequence in string literal", span)
	}
	if int(span.End-span.Start) > l.opts.maxTokenLen() {
		l.report(diag.LexTokenTooLong, "string literal exceeds maximum token length", span)
	}
	kind := token.StringLit
	if !terminated || hadError {
		kind = token.Invalid
	}
	return token.Token{Kind: kind, Span: span, Text: sb.String()}
}
