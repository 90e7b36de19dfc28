package parser

import "github.com/kahflane/naml/internal/token"

// binPrec implements the precedence table of §4.2, low to high:
// assignment -> ternary/elvis -> or -> and -> comparison -> bit-or ->
// bit-xor -> bit-and -> shift -> additive -> multiplicative ->
// unary/cast -> postfix -> atom. Assignment, ternary and elvis are
// handled outside the climbing loop (parseExprOrAssignStmt, parseTernary,
// parseElvis); this table covers `or` through `multiplicative`.
var binPrec = map[token.Kind]int{
	token.OrOr:    1,
	token.AndAnd:  2,
	token.Eq:      3,
	token.NotEq:   3,
	token.Lt:      3,
	token.Gt:      3,
	token.LtEq:    3,
	token.GtEq:    3,
	token.Pipe:    4,
	token.Caret:   5,
	token.Amp:     6,
	token.Shl:     7,
	token.Shr:     7,
	token.Plus:    8,
	token.Minus:   8,
	token.Star:    9,
	token.Slash:   9,
	token.Percent: 9,
}
