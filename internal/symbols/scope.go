package symbols

import "github.com/kahflane/naml/internal/types"

// LocalScope tracks function-body-local bindings (parameters, `var`
// declarations, catch bindings, loop variables) during Pass B type
// checking. Unlike module symbols, locals are never exported and never
// looked up cross-module.
type LocalScope struct {
	parent *LocalScope
	vars   map[string]LocalBinding
}

type LocalBinding struct {
	Type types.TypeID
	Mut  bool
}

func NewLocalScope(parent *LocalScope) *LocalScope {
	return &LocalScope{parent: parent, vars: make(map[string]LocalBinding, 8)}
}

func (s *LocalScope) Declare(name string, binding LocalBinding) {
	s.vars[name] = binding
}

// Lookup walks outward through enclosing scopes.
func (s *LocalScope) Lookup(name string) (LocalBinding, bool) {
	for cur := s; cur != nil; cur = cur.parent {
		if b, ok := cur.vars[name]; ok {
			return b, true
		}
	}
	return LocalBinding{}, false
}

func (s *LocalScope) Child() *LocalScope {
	return NewLocalScope(s)
}
