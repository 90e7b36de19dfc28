package codegen

import (
	"fmt"

	"github.com/kahflane/naml/internal/diag"
)

// Error is one of §4.5's fatal compile-time codegen failures.
type Error struct {
	Code   diag.Code
	Func   string
	Detail string
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Func == "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Detail)
	}
	return fmt.Sprintf("%s: in %s: %s", e.Code, e.Func, e.Detail)
}

// errUnresolvedCallee covers any call whose target can't be found in
// the module being emitted or in the runtime's host table — §4.5 names
// this UnknownHostSymbol, but naml's relocation table addresses direct
// calls the same way it addresses host calls, so the same failure mode
// applies to a reference to an undefined naml function too.
func errUnresolvedCallee(fn, target string) *Error {
	return &Error{Code: diag.CodegenUnknownHostSymbol, Func: fn, Detail: fmt.Sprintf("no function or host symbol named %q", target)}
}

func errRelocationOverflow(fn string, n int) *Error {
	return &Error{Code: diag.CodegenRelocationOverflow, Func: fn, Detail: fmt.Sprintf("relocation slot %d exceeds the host table's addressable range", n)}
}

func errOutOfMemory(fn string, size int) *Error {
	return &Error{Code: diag.CodegenOutOfMemory, Func: fn, Detail: fmt.Sprintf("tape of %d ops exceeds the configured emission budget", size)}
}

func errABIMismatch(fn, callee string, want, got int) *Error {
	return &Error{Code: diag.CodegenABIMismatch, Func: fn, Detail: fmt.Sprintf("call to %s passes %d argument(s), expected %d", callee, got, want)}
}

// errUnterminatedBlock signals a mir basic block with no terminator
// reaching codegen — a bug in internal/mir's lowering, never something
// a correctly lowered program can produce.
func errUnterminatedBlock(fn string) *Error {
	return &Error{Code: diag.CodegenUnresolvedGeneric, Func: fn, Detail: "basic block has no terminator"}
}
