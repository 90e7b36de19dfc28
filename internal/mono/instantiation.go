// Package mono implements naml's monomorphization pass (§4.3, §4.4):
// every call site internal/hir left carrying an unresolved Instantiation
// is rewritten to call a concrete, non-generic specialization of the
// generic template it targeted, keyed on (symbol, normalized type-
// argument tuple) so two calls with the same concrete arguments share
// one compiled function (Testable Property 7).
package mono

import (
	"fmt"
	"strings"

	"github.com/kahflane/naml/internal/symbols"
	"github.com/kahflane/naml/internal/types"
)

// key identifies one distinct specialization request. TypeIDs are
// already canonical (interned structurally, §3.2), so joining them in
// declaration order is a stable, collision-free cache key without
// needing to walk each Type's shape again.
type key struct {
	sym     symbols.SymbolID
	argsKey string
}

func argsKey(args []types.TypeID) string {
	var sb strings.Builder
	for i, a := range args {
		if i > 0 {
			sb.WriteByte(',')
		}
		fmt.Fprintf(&sb, "%d", a)
	}
	return sb.String()
}

// mangle produces the specialized function's emitted name: the
// template's name plus its concrete type arguments rendered through the
// interner, e.g. "identity$int" / "identity$string". Distinct from the
// template's own Name so internal/mir can tell a specialization apart
// from a same-named but differently-instantiated sibling.
func mangle(in *types.Interner, name string, args []types.TypeID) string {
	var sb strings.Builder
	sb.WriteString(name)
	for _, a := range args {
		sb.WriteByte('$')
		sb.WriteString(in.String(a))
	}
	return sb.String()
}
