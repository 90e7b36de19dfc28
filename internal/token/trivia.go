package token

// TriviaKind distinguishes the non-semantic byte ranges the lexer skips
// before producing the next real token (§4.1: whitespace and comments are
// discarded during tokenization).
type TriviaKind uint8

const (
	TriviaWhitespace TriviaKind = iota
	TriviaLineComment
	TriviaBlockComment
)
