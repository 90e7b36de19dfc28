package mono

import (
	"github.com/kahflane/naml/internal/hir"
	"github.com/kahflane/naml/internal/symbols"
	"github.com/kahflane/naml/internal/types"
)

// monomorphizer holds the state threaded through one module's
// specialization pass: the cache that gives every (symbol, args) pair at
// most one compiled Func (Testable Property 7), plus the original module
// it's specializing against so nested generic calls can find their own
// templates by symbol.
type monomorphizer struct {
	in    *types.Interner
	mod   *hir.Module
	specs map[key]*hir.Func
	order []*hir.Func // specializations in first-requested order, for deterministic output
}

// Monomorphize rewrites mod so every call that still carries an
// Instantiation is resolved to a concrete specialization, and every
// generic template itself is dropped from the output (it was never
// directly callable; only its specializations are). Non-generic functions
// are kept, cloned through an identity substitution so any generic calls
// nested inside them still get resolved and rewritten.
func Monomorphize(mod *hir.Module) *hir.Module {
	m := &monomorphizer{in: mod.Types, mod: mod, specs: map[key]*hir.Func{}}

	out := &hir.Module{
		Path:     mod.Path,
		Consts:   mod.Consts,
		Types:    mod.Types,
		Registry: mod.Registry,
	}
	for _, f := range mod.Funcs {
		if f.IsGeneric() {
			continue
		}
		out.Funcs = append(out.Funcs, m.rewrite(f))
	}
	out.Funcs = append(out.Funcs, m.order...)
	applyDCE(out)
	return out
}

// rewrite clones f under the identity substitution: f itself isn't
// generic, but its body may still call a generic template, and that call
// needs the same Instantiation -> SpecName rewrite a specialization's body
// gets.
func (m *monomorphizer) rewrite(f *hir.Func) *hir.Func {
	out := *f
	out.Body = m.cloneBlock(f.Body, nil)
	return &out
}

// specialize returns the mangled name of sym's specialization for args,
// generating it the first time this (symbol, args) pair is requested and
// reusing the cached Func afterward. The cache entry is registered before
// the body is cloned so a self-recursive generic function terminates
// instead of re-specializing itself forever.
func (m *monomorphizer) specialize(sym symbols.SymbolID, args []types.TypeID) string {
	k := key{sym: sym, argsKey: argsKey(args)}
	if f, ok := m.specs[k]; ok {
		return f.Name
	}
	tmpl := m.mod.BySymbol(sym)
	if tmpl == nil {
		return ""
	}

	subst := make(map[types.DefID]types.TypeID, len(tmpl.ParamDefs))
	for i, def := range tmpl.ParamDefs {
		if i < len(args) {
			subst[def] = args[i]
		}
	}

	spec := &hir.Func{
		Name:        mangle(m.in, tmpl.Name, args),
		Symbol:      symbols.NoSymbol,
		Receiver:    substType(m.in, tmpl.Receiver, subst),
		ReceiverDef: tmpl.ReceiverDef,
		MethodName:  tmpl.MethodName,
		Ret:         substType(m.in, tmpl.Ret, subst),
		Throws:      substTypeSlice(m.in, tmpl.Throws, subst),
	}
	spec.Params = make([]hir.Param, len(tmpl.Params))
	for i, p := range tmpl.Params {
		spec.Params[i] = hir.Param{Name: p.Name, Type: substType(m.in, p.Type, subst)}
	}

	m.specs[k] = spec
	m.order = append(m.order, spec)
	spec.Body = m.cloneBlock(tmpl.Body, subst)
	return spec.Name
}
