package mir

import (
	"testing"

	"github.com/kahflane/naml/internal/diag"
	"github.com/kahflane/naml/internal/hir"
	"github.com/kahflane/naml/internal/lexer"
	"github.com/kahflane/naml/internal/mono"
	"github.com/kahflane/naml/internal/parser"
	"github.com/kahflane/naml/internal/sema"
	"github.com/kahflane/naml/internal/source"
	"github.com/kahflane/naml/internal/symbols"
)

// mirSource runs the full pipeline through internal/mono and internal/mir,
// mirroring internal/mono's own monoSource test helper one stage further.
func mirSource(t *testing.T, src string) *Module {
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
	res := sema.Check(file, sema.Options{
		Module:   "test",
		Reporter: bag,
		Symbols:  tbl,
		Root:     true,
	})
	if bag.HasErrors() {
		t.Fatalf("unexpected check errors: %+v", bag.Items())
	}
	hmod := hir.Lower(file, res, tbl, "test")
	hmod = mono.Monomorphize(hmod)
	return Lower(hmod)
}

func mirFunc(mod *Module, name string) *Func {
	for _, f := range mod.Funcs {
		if f.Name == name {
			return f
		}
	}
	return nil
}

func callsTo(f *Func, wantKind InstrKind) []Instr {
	var out []Instr
	for _, b := range f.Blocks {
		for _, in := range b.Instrs {
			if in.Kind == wantKind {
				out = append(out, in)
			}
		}
	}
	return out
}

func TestLower_SimpleReturn(t *testing.T) {
	mod := mirSource(t, `
fn add(a: int, b: int) -> int {
	return a + b;
}
fn main() {
	var x: int = add(1, 2);
}
`)
	add := mirFunc(mod, "add")
	if add == nil {
		t.Fatalf("expected a compiled function named add, got %v", funcNamesIn(mod))
	}
	entry := add.Block(add.Entry)
	if entry == nil || !entry.Terminated() {
		t.Fatalf("expected add's entry block to be terminated")
	}
	if entry.Term.Kind != TermReturn || !entry.Term.Return.HasValue {
		t.Fatalf("expected a value-returning TermReturn, got %+v", entry.Term)
	}

	main := mirFunc(mod, "main")
	if main == nil {
		t.Fatalf("expected main to be compiled")
	}
	calls := callsTo(main, InstrCall)
	if len(calls) != 1 || calls[0].Call.Callee.Kind != CalleeFn || calls[0].Call.Callee.Name != "add" {
		t.Fatalf("expected main to call add by name, got %+v", calls)
	}
}

func TestLower_IfElseBothBranchesReturnDirectly(t *testing.T) {
	mod := mirSource(t, `
fn pick(cond: bool) -> int {
	if cond {
		return 1;
	} else {
		return 2;
	}
}
`)
	pick := mirFunc(mod, "pick")
	if pick == nil {
		t.Fatalf("expected pick to be compiled")
	}
	entry := pick.Block(pick.Entry)
	if entry.Term.Kind != TermCondBranch {
		t.Fatalf("expected pick's entry to end in a cond branch, got %+v", entry.Term)
	}
	thenBlk := pick.Block(entry.Term.CondBranch.Then)
	elseBlk := pick.Block(entry.Term.CondBranch.Else)
	if thenBlk.Term.Kind != TermReturn || elseBlk.Term.Kind != TermReturn {
		t.Fatalf("expected both branches of pick to return directly")
	}
}

func TestLower_WhileLoopWithBreak(t *testing.T) {
	mod := mirSource(t, `
fn count_to(n: int) -> int {
	var i: int = 0;
	while i < n {
		if i == 5 {
			break;
		}
		i = i + 1;
	}
	return i;
}
`)
	fn := mirFunc(mod, "count_to")
	if fn == nil {
		t.Fatalf("expected count_to to be compiled")
	}
	if len(fn.Blocks) < 4 {
		t.Fatalf("expected at least a head/body/exit block split, got %d blocks", len(fn.Blocks))
	}
	var sawCondBranch, sawReturn bool
	for _, b := range fn.Blocks {
		if b.Term.Kind == TermCondBranch {
			sawCondBranch = true
		}
		if b.Term.Kind == TermReturn {
			sawReturn = true
		}
	}
	if !sawCondBranch || !sawReturn {
		t.Fatalf("expected count_to's blocks to include a cond branch and a return")
	}
}

func TestLower_LockedEmitsMutexCallSequence(t *testing.T) {
	mod := mirSource(t, `
fn bump(m: mutex<int>) {
	locked (v in m) {
		v = v + 1;
	}
}
`)
	fn := mirFunc(mod, "bump")
	if fn == nil {
		t.Fatalf("expected bump to be compiled")
	}
	calls := callsTo(fn, InstrCall)
	var names []string
	for _, c := range calls {
		names = append(names, c.Call.Callee.Name)
	}
	want := []string{HostMutexLock, HostMutexRead, HostMutexWrite, HostMutexUnlock}
	if len(names) != len(want) {
		t.Fatalf("expected host calls %v, got %v", want, names)
	}
	for i, n := range want {
		if names[i] != n {
			t.Errorf("call %d: expected %q, got %q (full sequence %v)", i, n, names[i], names)
		}
	}
}

func TestLower_CatchEmitsLandingPad(t *testing.T) {
	mod := mirSource(t, `
exception Oops { msg: string }

fn risky() -> int throws Oops {
	throw Oops { msg: "bad" };
}

fn safe() -> int {
	return risky() catch e { 0 } ?? -1;
}
`)
	fn := mirFunc(mod, "safe")
	if fn == nil {
		t.Fatalf("expected safe to be compiled")
	}
	var sawPush, sawPop, sawThrow bool
	for _, b := range fn.Blocks {
		for _, in := range b.Instrs {
			if in.Kind == InstrPushPad {
				sawPush = true
			}
			if in.Kind == InstrPopPad {
				sawPop = true
			}
		}
		if b.Term.Kind == TermThrow {
			sawThrow = true
		}
	}
	if !sawPush || !sawPop {
		t.Fatalf("expected safe's call to risky to be bracketed by a landing pad push/pop")
	}
	_ = sawThrow // risky's own throw lives in a different Func

	risky := mirFunc(mod, "risky")
	if risky == nil {
		t.Fatalf("expected risky to be compiled")
	}
	var riskyThrows bool
	for _, b := range risky.Blocks {
		if b.Term.Kind == TermThrow {
			riskyThrows = true
		}
	}
	if !riskyThrows {
		t.Fatalf("expected risky to end in a TermThrow")
	}
}

func TestLower_SpawnSynthesizesTaskFuncAndEnqueues(t *testing.T) {
	mod := mirSource(t, `
fn background(n: int) {
	spawn {
		var total: int = n + 1;
	}
	join();
}
`)
	fn := mirFunc(mod, "background")
	if fn == nil {
		t.Fatalf("expected background to be compiled")
	}
	var sawEnqueue, sawWait bool
	for _, b := range fn.Blocks {
		for _, in := range b.Instrs {
			if in.Kind == InstrCall && in.Call.Callee.Kind == CalleeHost {
				switch in.Call.Callee.Name {
				case HostSchedulerEnqueue:
					sawEnqueue = true
				case HostSchedulerWaitAll:
					sawWait = true
				}
			}
		}
	}
	if !sawEnqueue {
		t.Fatalf("expected background to enqueue its spawned task")
	}
	if !sawWait {
		t.Fatalf("expected background's join() to wait on the scheduler barrier")
	}

	var sawSpawnFunc bool
	for _, f := range mod.Funcs {
		if f.Name == "spawn$1" {
			sawSpawnFunc = true
			found := false
			for _, p := range f.Params {
				if f.Locals[p].Name == "n" {
					found = true
				}
			}
			if !found {
				t.Errorf("expected spawn$1 to capture n as a parameter, got locals %+v", f.Locals)
			}
		}
	}
	if !sawSpawnFunc {
		t.Fatalf("expected a synthesized spawn$1 task function, got %v", funcNamesIn(mod))
	}
}

func TestLower_GenericCallResolvesToMangledSpecialization(t *testing.T) {
	mod := mirSource(t, `
fn identity<T>(v: T) -> T {
	return v;
}
fn main() {
	var x: int = identity(1);
}
`)
	main := mirFunc(mod, "main")
	if main == nil {
		t.Fatalf("expected main to be compiled")
	}
	calls := callsTo(main, InstrCall)
	if len(calls) != 1 || calls[0].Call.Callee.Name != "identity$int" {
		t.Fatalf("expected main to call identity$int, got %+v", calls)
	}
	if mirFunc(mod, "identity$int") == nil {
		t.Fatalf("expected identity$int to be a compiled function, got %v", funcNamesIn(mod))
	}
}

func funcNamesIn(mod *Module) []string {
	names := make([]string, len(mod.Funcs))
	for i, f := range mod.Funcs {
		names[i] = f.Name
	}
	return names
}
