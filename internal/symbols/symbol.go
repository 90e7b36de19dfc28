package symbols

import (
	"github.com/kahflane/naml/internal/source"
	"github.com/kahflane/naml/internal/types"
)

// Symbol is (module_path, name, kind) per §3.3, plus the data the checker
// and lowerer need once it's resolved.
type Symbol struct {
	ID         SymbolID
	Module     string
	Name       string
	Kind       Kind
	Visibility Visibility
	Span       source.Span

	Type types.TypeID // function type, const type, or type-alias target
	Def  types.DefID  // struct/enum/interface/exception definition id

	Platforms []string // non-empty iff #[platforms(...)] is present
}

func (s Symbol) IsPub() bool { return s.Visibility == Public }

// QualifiedName returns "module::name".
func (s Symbol) QualifiedName() string {
	if s.Module == "" {
		return s.Name
	}
	return s.Module + "::" + s.Name
}
