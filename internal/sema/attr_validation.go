package sema

import (
	"github.com/kahflane/naml/internal/ast"
	"github.com/kahflane/naml/internal/diag"
	"github.com/kahflane/naml/internal/source"
)

// checkPlatformGate enforces §4.3's platform-annotation gating rule: a
// call to an item annotated `#[platforms(X, Y)]` is only allowed from an
// item annotated for a superset of that set. A caller with no platform
// annotation is treated as unrestricted (compatible with any callee
// platform set) — the spec only describes the superset relation between
// two annotated items, not the unannotated case.
func (fc *fnCtx) checkPlatformGate(calleePlatforms []string, span source.Span) {
	if len(calleePlatforms) == 0 {
		return
	}
	callerPlatforms, ok := ast.Platforms(fc.attrs)
	if !ok {
		return
	}
	have := make(map[string]bool, len(callerPlatforms))
	for _, p := range callerPlatforms {
		have[p] = true
	}
	for _, p := range calleePlatforms {
		if !have[p] {
			fc.tc.errorf(diag.TypePlatformConflict, span, "call requires platform %q, not declared by the calling item's #[platforms(...)] set", p)
			return
		}
	}
}
