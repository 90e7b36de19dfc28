package token

// Keywords maps reserved words to their token kind. The lexer consults
// this after scanning a full identifier, per §4.1.
var Keywords = map[string]Kind{
	"fn":         KwFn,
	"var":        KwVar,
	"const":      KwConst,
	"mut":        KwMut,
	"if":         KwIf,
	"else":       KwElse,
	"while":      KwWhile,
	"for":        KwFor,
	"in":         KwIn,
	"break":      KwBreak,
	"continue":   KwContinue,
	"return":     KwReturn,
	"use":        KwUse,
	"as":         KwAs,
	"type":       KwType,
	"interface":  KwInterface,
	"implements": KwImplements,
	"exception":  KwException,
	"pub":        KwPub,
	"mod":        KwMod,
	"struct":     KwStruct,
	"enum":       KwEnum,
	"throw":      KwThrow,
	"throws":     KwThrows,
	"try":        KwTry,
	"catch":      KwCatch,
	"spawn":      KwSpawn,
	"join":       KwJoin,
	"locked":     KwLocked,
	"rlocked":    KwRlocked,
	"wlocked":    KwWlocked,
	"extern":     KwExtern,
	"self":       KwSelf,
	"none":       KwNone,
	"true":       KwTrue,
	"false":      KwFalse,
	"and":        AndAnd,
	"or":         OrOr,
}

// LookupKeyword returns the keyword Kind for s, or (Ident, false) if s is a
// plain identifier.
func LookupKeyword(s string) (Kind, bool) {
	k, ok := Keywords[s]
	if !ok {
		return Ident, false
	}
	return k, true
}
