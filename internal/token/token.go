package token

import (
	"github.com/kahflane/naml/internal/source"
)

// Token is one lexed unit: a kind, its span, and (for identifiers, string
// literals, and doc comments) an interned payload or literal text.
type Token struct {
	Kind Kind
	Span source.Span

	// Ident set when Kind == Ident; the interned name.
	Ident source.InternID

	// Text carries literal text for StringLit/DocComment/number kinds,
	// already unescaped for strings.
	Text string

	// IntVal/FloatVal carry the parsed numeric value for IntLit/FloatLit/
	// DecimalLit, populated by the lexer (§4.1: "numeric literals carry a
	// parsed value").
	IntVal   int64
	FloatVal float64
}

func (t Token) String() string {
	return t.Kind.String()
}
