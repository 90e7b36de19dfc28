// Package symbols implements naml's module/symbol resolution (§3.3,
// §4.3 Pass A): a tree of modules rooted at the project package and the
// implicit std package, each owning a flat table of its declared
// symbols plus the import aliases copied in by `use`.
package symbols

import (
	"fmt"
	"strings"

	"github.com/kahflane/naml/internal/types"
)

// Table is the whole-program symbol table: one flat SymbolID space,
// plus a per-module namespace of name -> SymbolID (including imported
// aliases).
type Table struct {
	symbols []Symbol
	modules map[string]*Module
}

// Module is one node in the module tree (§3.3).
type Module struct {
	Path     string
	Parent   *Module
	Children []*Module

	// names maps an in-scope identifier to the symbol it resolves to,
	// including both locally declared symbols and `use`-imported ones
	// (optionally renamed).
	names map[string]SymbolID
}

func NewTable() *Table {
	t := &Table{modules: make(map[string]*Module)}
	t.symbols = append(t.symbols, Symbol{}) // reserve 0 = NoSymbol
	t.modules[""] = &Module{Path: "", names: make(map[string]SymbolID)}
	return t
}

// Module returns the module at path, creating it (and any missing
// ancestors) if absent.
func (t *Table) Module(path string) *Module {
	if m, ok := t.modules[path]; ok {
		return m
	}
	m := &Module{Path: path, names: make(map[string]SymbolID)}
	t.modules[path] = m
	parentPath := ""
	if i := strings.LastIndex(path, "::"); i >= 0 {
		parentPath = path[:i]
	}
	m.Parent = t.Module(parentPath)
	m.Parent.Children = append(m.Parent.Children, m)
	return m
}

// Declare registers sym in its module's table and returns its assigned
// SymbolID. Declaring a name twice in the same module without explicit
// shadowing support is left to the caller (sema's Pass A) to diagnose.
func (t *Table) Declare(sym Symbol) SymbolID {
	id := SymbolID(len(t.symbols))
	sym.ID = id
	t.symbols = append(t.symbols, sym)
	mod := t.Module(sym.Module)
	mod.names[sym.Name] = id
	return id
}

func (t *Table) Symbol(id SymbolID) Symbol {
	if int(id) >= len(t.symbols) {
		return Symbol{}
	}
	return t.symbols[id]
}

// SetType backfills a declared symbol's resolved type, for cases (fn
// signatures, const declarations, type aliases) where the type isn't
// known until after every sibling declaration has been named (§4.3
// Pass A's forward-reference support).
func (t *Table) SetType(id SymbolID, typ types.TypeID) {
	if int(id) < len(t.symbols) {
		t.symbols[id].Type = typ
	}
}

// Lookup resolves name within module's own namespace (declared symbols
// plus `use`-imported aliases), without searching parent modules —
// naml's import model copies references into the importing scope
// rather than chaining lexical lookup (§3.3).
func (t *Table) Lookup(modulePath, name string) (SymbolID, bool) {
	mod, ok := t.modules[modulePath]
	if !ok {
		return NoSymbol, false
	}
	id, ok := mod.names[name]
	return id, ok
}

// Import copies src's binding for name into dst's namespace under alias
// (or name itself if alias is ""), per §4.2's `use` semantics.
func (t *Table) Import(dstModule, srcModule, name, alias string) error {
	id, ok := t.Lookup(srcModule, name)
	if !ok {
		return fmt.Errorf("undeclared symbol %q in module %q", name, srcModule)
	}
	if alias == "" {
		alias = name
	}
	t.Module(dstModule).names[alias] = id
	return nil
}

// ImportWildcard copies every symbol visible in srcModule into dst,
// implementing `use path::*`.
func (t *Table) ImportWildcard(dstModule, srcModule string) {
	src := t.Module(srcModule)
	dst := t.Module(dstModule)
	for name, id := range src.names {
		dst.names[name] = id
	}
}
