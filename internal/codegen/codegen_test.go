package codegen

import (
	"testing"

	"github.com/kahflane/naml/internal/diag"
	"github.com/kahflane/naml/internal/heap"
	"github.com/kahflane/naml/internal/hir"
	"github.com/kahflane/naml/internal/lexer"
	"github.com/kahflane/naml/internal/mir"
	"github.com/kahflane/naml/internal/mono"
	"github.com/kahflane/naml/internal/parser"
	"github.com/kahflane/naml/internal/sema"
	"github.com/kahflane/naml/internal/source"
	"github.com/kahflane/naml/internal/symbols"
)

// codegenSource mirrors internal/mir's own mirSource test helper,
// running the pipeline one stage further into codegen.
func codegenSource(t *testing.T, src string) *mir.Module {
	t.Helper()
	fs := source.NewFileSet()
	f := fs.AddFile("test.nm", src)
	bag := diag.NewBag(64)
	interner := source.NewInterner()
	toks := lexer.New(src, f.ID, interner, bag, lexer.Options{}).Tokenize()
	file := parser.ParseFile(toks, f.ID, bag)
	if bag.HasErrors() {
		t.Fatalf("unexpected parse errors: %+v", bag.Items())
	}
	tbl := symbols.NewTable()
	res := sema.Check(file, sema.Options{Module: "test", Reporter: bag, Symbols: tbl, Root: true})
	if bag.HasErrors() {
		t.Fatalf("unexpected check errors: %+v", bag.Items())
	}
	hmod := hir.Lower(file, res, tbl, "test")
	hmod = mono.Monomorphize(hmod)
	return mir.Lower(hmod)
}

func findFunc(p *Program, name string) *FuncProgram {
	fp, ok := p.ByName[name]
	if !ok {
		return nil
	}
	return fp
}

func TestEmitModule_CondBranchTargetsAreValidTapeIndices(t *testing.T) {
	mod := codegenSource(t, `
fn pick(cond: bool) -> int {
	if cond {
		return 1;
	} else {
		return 2;
	}
}
`)
	prog, err := EmitModule(mod)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	fp := findFunc(prog, "pick")
	if fp == nil {
		t.Fatalf("expected pick to be emitted")
	}
	var branch *Op
	for i := range fp.Ops {
		if fp.Ops[i].Kind == OpCondBranch {
			branch = &fp.Ops[i]
		}
	}
	if branch == nil {
		t.Fatalf("expected a cond branch op")
	}
	if branch.Then < 0 || branch.Then >= len(fp.Ops) || branch.Else < 0 || branch.Else >= len(fp.Ops) {
		t.Fatalf("expected Then/Else to index within the tape, got Then=%d Else=%d (len %d)", branch.Then, branch.Else, len(fp.Ops))
	}
	if fp.Ops[branch.Then].Kind != OpReturn || fp.Ops[branch.Else].Kind != OpReturn {
		t.Fatalf("expected both branch targets to land on a return op")
	}
}

func TestEmitModule_ResolvesHostCallSlotsInFirstReferencedOrder(t *testing.T) {
	mod := codegenSource(t, `
fn bump(m: mutex<int>) {
	locked (v in m) {
		v = v + 1;
	}
}
`)
	prog, err := EmitModule(mod)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{mir.HostMutexLock, mir.HostMutexRead, mir.HostMutexWrite, mir.HostMutexUnlock}
	if len(prog.HostTable) != len(want) {
		t.Fatalf("expected host table %v, got %v", want, prog.HostTable)
	}
	for i, name := range want {
		if prog.HostTable[i] != name {
			t.Errorf("slot %d: expected %q, got %q", i, name, prog.HostTable[i])
		}
	}

	fp := findFunc(prog, "bump")
	var hostOps []Op
	for _, op := range fp.Ops {
		if op.Kind == OpCallHost {
			hostOps = append(hostOps, op)
		}
	}
	if len(hostOps) != len(want) {
		t.Fatalf("expected %d host call ops, got %d", len(want), len(hostOps))
	}
	for i, op := range hostOps {
		if op.Callee.Host != i {
			t.Errorf("call %d: expected slot %d, got %d", i, i, op.Callee.Host)
		}
	}
}

func TestFinalize_ErrorsOnMissingHostSymbol(t *testing.T) {
	mod := codegenSource(t, `
fn bump(m: mutex<int>) {
	locked (v in m) {
		v = v + 1;
	}
}
`)
	prog, err := EmitModule(mod)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err = prog.Finalize(map[string]HostFunc{
		mir.HostMutexLock: func(args []heap.Value) (heap.Value, error) { return heap.Unit(), nil },
	})
	if err == nil {
		t.Fatalf("expected Finalize to fail with a missing host symbol")
	}
	cgErr, ok := err.(*Error)
	if !ok || cgErr.Code != diag.CodegenUnknownHostSymbol {
		t.Fatalf("expected a CodegenUnknownHostSymbol error, got %v", err)
	}
	if prog.Finalized() {
		t.Fatalf("expected a failed Finalize to leave the program unfinalized")
	}
}

func TestFinalize_ResolvesEveryHostSlot(t *testing.T) {
	mod := codegenSource(t, `
fn bump(m: mutex<int>) {
	locked (v in m) {
		v = v + 1;
	}
}
`)
	prog, err := EmitModule(mod)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	table := map[string]HostFunc{}
	for _, name := range prog.HostTable {
		table[name] = func(args []heap.Value) (heap.Value, error) { return heap.Unit(), nil }
	}
	if err := prog.Finalize(table); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !prog.Finalized() {
		t.Fatalf("expected the program to be marked finalized")
	}
	if len(prog.ResolvedHosts) != len(prog.HostTable) {
		t.Fatalf("expected one resolved host per table slot")
	}
}

func TestProgram_EntryLocatesMain(t *testing.T) {
	mod := codegenSource(t, `
fn helper() -> int { return 1; }
fn main() -> int { return helper(); }
`)
	prog, err := EmitModule(mod)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	entry, ok := prog.Entry()
	if !ok || entry.Name != "main" {
		t.Fatalf("expected Entry to locate main, got %+v ok=%v", entry, ok)
	}
}

func TestEmitModule_DirectCallArgumentCountMismatchIsABIMismatch(t *testing.T) {
	mod := &mir.Module{}
	callee := &mir.Func{Name: "callee", Params: []mir.LocalID{0}, Entry: 0}
	callee.Blocks = []mir.Block{{ID: 0, Term: mir.Terminator{Kind: mir.TermReturn}}}

	caller := &mir.Func{Name: "caller", Entry: 0}
	caller.Blocks = []mir.Block{{
		ID: 0,
		Instrs: []mir.Instr{{
			Kind: mir.InstrCall,
			Call: mir.CallInstr{
				Callee: mir.Callee{Kind: mir.CalleeFn, Name: "callee"},
				Args:   []mir.Operand{{Kind: mir.OperandConst}, {Kind: mir.OperandConst}},
			},
		}},
		Term: mir.Terminator{Kind: mir.TermReturn},
	}}

	mod.Funcs = []*mir.Func{callee, caller}

	_, err := EmitModule(mod)
	if err == nil {
		t.Fatalf("expected an ABI mismatch error")
	}
	cgErr, ok := err.(*Error)
	if !ok || cgErr.Code != diag.CodegenABIMismatch {
		t.Fatalf("expected a CodegenABIMismatch error, got %v", err)
	}
}

func TestEmitModule_CallToUndefinedFunctionIsUnresolvedCallee(t *testing.T) {
	mod := &mir.Module{}
	caller := &mir.Func{Name: "caller", Entry: 0}
	caller.Blocks = []mir.Block{{
		ID: 0,
		Instrs: []mir.Instr{{
			Kind: mir.InstrCall,
			Call: mir.CallInstr{Callee: mir.Callee{Kind: mir.CalleeFn, Name: "nonexistent"}},
		}},
		Term: mir.Terminator{Kind: mir.TermReturn},
	}}
	mod.Funcs = []*mir.Func{caller}

	_, err := EmitModule(mod)
	if err == nil {
		t.Fatalf("expected an unresolved-callee error")
	}
	cgErr, ok := err.(*Error)
	if !ok || cgErr.Code != diag.CodegenUnknownHostSymbol {
		t.Fatalf("expected a CodegenUnknownHostSymbol error, got %v", err)
	}
}
