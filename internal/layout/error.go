package layout

import (
	"fmt"

	"github.com/kahflane/naml/internal/diag"
	"github.com/kahflane/naml/internal/types"
)

// Error reports a failure to compute a TypeLayout. In a correctly
// monomorphized program this should never happen — it signals a
// KindNamed/KindTypeParam (or otherwise unrecognized) type id reaching
// the layout engine, which internal/mono is supposed to have already
// eliminated before mir lowering runs.
type Error struct {
	Code diag.Code
	Type types.TypeID
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%s: cannot lay out unresolved type (type#%d)", e.Code, e.Type)
}
