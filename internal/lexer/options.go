package lexer

// Options configures a Lexer run.
type Options struct {
	// PreserveDocComments emits DocComment tokens for `///` comments
	// instead of discarding them as trivia (§4.1: doc comments are
	// preserved for attachment to the following item).
	PreserveDocComments bool

	// MaxTokenLen caps the byte length of a single token (identifier or
	// string literal) before the lexer reports LexTokenTooLong, guarding
	// against pathological inputs. The token itself is kept whole.
	MaxTokenLen int
}

const defaultMaxTokenLen = 1 << 20 // 1 MiB

func (o Options) maxTokenLen() int {
	if o.MaxTokenLen <= 0 {
		return defaultMaxTokenLen
	}
	return o.MaxTokenLen
}
