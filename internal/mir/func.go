package mir

import (
	"github.com/kahflane/naml/internal/symbols"
	"github.com/kahflane/naml/internal/types"
)

type Block struct {
	ID     BlockID
	Instrs []Instr
	Term   Terminator
}

func (b *Block) Terminated() bool {
	return b != nil && b.Term.Kind != TermNone
}

// Func is one free function or method's lowered body: naml's generics are
// already resolved by internal/mono before this stage, so Func is always
// concrete — Name is the specialization's mangled name where applicable.
type Func struct {
	ID   FuncID
	Sym  symbols.SymbolID
	Name string

	Params []LocalID
	Result types.TypeID
	Throws []types.TypeID

	Locals []Local
	Blocks []Block
	Entry  BlockID
}

func (f *Func) Block(id BlockID) *Block {
	if int(id) < 0 || int(id) >= len(f.Blocks) {
		return nil
	}
	return &f.Blocks[id]
}

// Module is one compilation unit's fully lowered functions, keyed for
// internal/codegen's per-function emission and internal/runtime's symbol
// resolution.
type Module struct {
	Funcs  []*Func
	ByName map[string]*Func

	// Consts holds every module-level `const` binding's snapshot value,
	// keyed by name. A bare identifier that doesn't resolve to a local
	// lowers to Operand{Const: Const{Kind: ConstNothing, Str: name}}
	// (see lowerExpr's *hir.Ident case); internal/codegen carries this
	// table through to Program unchanged, and internal/runtime resolves
	// it by name the first time a function body references it.
	Consts map[string]Const
}

func (m *Module) add(f *Func) {
	f.ID = FuncID(len(m.Funcs))
	m.Funcs = append(m.Funcs, f)
	if m.ByName == nil {
		m.ByName = make(map[string]*Func)
	}
	m.ByName[f.Name] = f
}
