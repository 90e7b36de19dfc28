package symbols

import (
	"fmt"

	"github.com/kahflane/naml/internal/ast"
)

// ResolveUse applies one `use` item's imports into module, per §4.2:
// `path::*` (wildcard), `path::{a, b as c}` (member list, optionally
// renamed), and `path as alias` (whole-path alias).
func ResolveUse(t *Table, module string, use *ast.UseItem) error {
	srcModule := joinPath(use.Path)

	switch {
	case use.Wildcard:
		t.ImportWildcard(module, srcModule)
		return nil
	case len(use.Members) > 0:
		for _, m := range use.Members {
			if err := t.Import(module, srcModule, m.Name, m.Alias); err != nil {
				return fmt.Errorf("use %s::{%s}: %w", srcModule, m.Name, err)
			}
		}
		return nil
	default:
		// `use path as alias` or a bare `use path` — the last path
		// segment names the imported symbol.
		if len(use.Path) == 0 {
			return fmt.Errorf("empty use path")
		}
		parent := joinPath(use.Path[:len(use.Path)-1])
		name := use.Path[len(use.Path)-1]
		return t.Import(module, parent, name, use.Alias)
	}
}

func joinPath(parts []string) string {
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += "::"
		}
		out += p
	}
	return out
}
