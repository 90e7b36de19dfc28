package codegen

import (
	"fmt"

	"github.com/kahflane/naml/internal/diag"
	"github.com/kahflane/naml/internal/heap"
	"github.com/kahflane/naml/internal/mir"
)

// HostFunc is the C-ABI shape §6.1 describes for a runtime host
// function, naml-side: a positional argument list and a single return
// value, naml exceptions surfacing as a Go error internal/runtime
// translates back into a thrown value at the call site.
type HostFunc func(args []heap.Value) (heap.Value, error)

// HostException is the error shape a HostFunc returns to signal a naml-
// level throw rather than an internal Go failure: internal/runtime's
// dispatch loop unwinds exactly as if the call site were itself a throw
// terminator when a host call's error is a *HostException, and treats
// any other error as an implementation fault instead.
type HostException struct {
	Value heap.Value
}

func (e *HostException) Error() string { return "naml exception thrown from host call" }

// Program is a fully emitted module: one FuncProgram per mir.Func, plus
// the host relocation table EmitModule built as it encountered
// CalleeHost callees. It is not runnable until Finalize resolves that
// table against the runtime's actual host-function implementations —
// mirroring §4.5's "after all functions are emitted, finalize the
// buffer" step, just substituting relocation resolution for marking
// memory executable, since this is an interpreted tape rather than
// mapped machine code.
type Program struct {
	Funcs  []*FuncProgram
	ByName map[string]*FuncProgram

	// HostTable[slot] is the host symbol name every OpCallHost with
	// Callee.Host == slot addresses. Built by EmitModule in
	// first-referenced order.
	HostTable []string

	// ResolvedHosts[slot] is the runtime's concrete implementation for
	// HostTable[slot], filled in by Finalize.
	ResolvedHosts []HostFunc

	// Consts carries mir.Module.Consts through unchanged: internal/
	// runtime resolves a bare module-level const reference against this
	// table the first time a function body evaluates one.
	Consts map[string]mir.Const

	finalized bool
}

// Finalize resolves every entry in HostTable against table, the
// runtime's process-global host-function table (§6.1). It must run
// exactly once, after EmitModule and before the program's entry point
// is ever invoked.
func (p *Program) Finalize(table map[string]HostFunc) error {
	if len(p.HostTable) > maxHostSlots {
		return &Error{Code: diag.CodegenRelocationOverflow, Detail: fmt.Sprintf("%d host relocations exceed the table's capacity", len(p.HostTable))}
	}
	resolved := make([]HostFunc, len(p.HostTable))
	for i, name := range p.HostTable {
		fn, ok := table[name]
		if !ok {
			return &Error{Code: diag.CodegenUnknownHostSymbol, Detail: fmt.Sprintf("runtime host table has no implementation for %q", name)}
		}
		resolved[i] = fn
	}
	p.ResolvedHosts = resolved
	p.finalized = true
	return nil
}

// Finalized reports whether Finalize has already run successfully.
func (p *Program) Finalized() bool { return p.finalized }

// Entry locates main by symbol, matching §4.5's "once finalized, the
// entry function (main) is located by symbol and invoked directly."
func (p *Program) Entry() (*FuncProgram, bool) {
	fp, ok := p.ByName["main"]
	return fp, ok
}
