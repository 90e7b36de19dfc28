package mir

import (
	"fmt"

	"github.com/kahflane/naml/internal/ast"
	"github.com/kahflane/naml/internal/hir"
	"github.com/kahflane/naml/internal/symbols"
	"github.com/kahflane/naml/internal/types"
)

// Lower turns mod (internal/hir output, already monomorphized by
// internal/mono) into a mir.Module. Two passes: first register every
// function's and method's final compiled name so forward/recursive/
// mutually-recursive calls resolve, then lower each body.
func Lower(mod *hir.Module) *Module {
	l := &lowerer{
		in:       mod.Types,
		reg:      mod.Registry,
		bySym:    make(map[symbols.SymbolID]string),
		byMethod: make(map[methodKey]string),
		out:      &Module{},
	}
	for _, f := range mod.Funcs {
		if f.MethodName != "" {
			l.byMethod[methodKey{def: f.ReceiverDef, name: f.MethodName}] = f.Name
		} else {
			l.bySym[f.Symbol] = f.Name
		}
	}
	for _, f := range mod.Funcs {
		l.out.add(l.lowerFunc(f))
	}
	for _, extra := range l.extra {
		l.out.add(extra)
	}
	if len(mod.Consts) > 0 {
		l.out.Consts = make(map[string]Const, len(mod.Consts))
		for _, c := range mod.Consts {
			l.out.Consts[c.Name] = constValue(c)
		}
	}
	return l.out
}

// constValue snapshots a module-level const's initializer. Only literal
// initializers are supported: a const is a data-section value (§9 Design
// Notes), not a deferred computation, so anything else collapses to the
// unit value rather than attempting constant folding here.
func constValue(c *hir.Const) Const {
	if lit, ok := c.Value.(*hir.Lit); ok {
		return litConst(lit)
	}
	return Const{Kind: ConstNothing, Type: c.Type}
}

type methodKey struct {
	def  types.DefID
	name string
}

type lowerer struct {
	in  *types.Interner
	reg *types.Registry

	bySym    map[symbols.SymbolID]string // hir symbol -> mir Func.Name
	byMethod map[methodKey]string

	out *Module

	extra      []*Func // task bodies synthesized while lowering `spawn` blocks
	spawnCount int
}

func (l *lowerer) freshSpawnName() string {
	l.spawnCount++
	return fmt.Sprintf("spawn$%d", l.spawnCount)
}

// funcBuilder accumulates one mir.Func's locals, blocks, and the scope/
// cleanup stack needed to release boxed locals and unlock `locked`
// regions on every exit path (§4.4, §4.6).
type funcBuilder struct {
	l   *lowerer
	f   *Func
	cur BlockID

	scopes      []*scopeFrame
	loopMarkers []int // len(scopes) at each enclosing loop's entry, for break/continue cleanup

	breakTargets    []BlockID // exit block of each enclosing loop, innermost last
	continueTargets []BlockID // head block of each enclosing loop, innermost last
}

// scopeFrame is one lexical scope's bookkeeping: the name->local bindings
// visible in it, the boxed locals it directly declared (released on
// exit), and an optional unlock callback when the frame represents an
// active `locked`/`rlocked`/`wlocked` region rather than a plain scope.
type scopeFrame struct {
	vars   map[string]LocalID
	boxed  []LocalID
	unlock func(fb *funcBuilder)
}

func (fb *funcBuilder) pushScope() {
	fb.scopes = append(fb.scopes, &scopeFrame{vars: map[string]LocalID{}})
}

func (fb *funcBuilder) pushLockRegion(unlock func(fb *funcBuilder)) {
	fb.scopes = append(fb.scopes, &scopeFrame{vars: map[string]LocalID{}, unlock: unlock})
}

// popScope runs this frame's cleanup (if the current block hasn't already
// terminated) and discards it.
func (fb *funcBuilder) popScope() {
	top := fb.scopes[len(fb.scopes)-1]
	fb.runFrameCleanup(top, NoLocalID)
	fb.scopes = fb.scopes[:len(fb.scopes)-1]
}

func (fb *funcBuilder) runFrameCleanup(sf *scopeFrame, skip LocalID) {
	if fb.f.Blocks[fb.cur].Terminated() {
		return
	}
	if sf.unlock != nil {
		sf.unlock(fb)
		return
	}
	for i := len(sf.boxed) - 1; i >= 0; i-- {
		if sf.boxed[i] == skip {
			continue
		}
		fb.emit(Instr{Kind: InstrRelease, Release: Operand{Kind: OperandLocal, Type: fb.f.Locals[sf.boxed[i]].Type, Local: sf.boxed[i]}})
	}
}

// cleanupFrom runs every active frame's cleanup from the innermost down
// to (not including) depth, without popping them — used when lowering an
// early exit (return/throw/break/continue) that doesn't actually leave
// the frames, since the statements following it in the same scope are
// unreachable but siblings in an enclosing `if` are not.
func (fb *funcBuilder) cleanupFrom(depth int, skip LocalID) {
	for i := len(fb.scopes) - 1; i >= depth; i-- {
		fb.runFrameCleanup(fb.scopes[i], skip)
	}
}

func (fb *funcBuilder) declare(name string, id LocalID) {
	top := fb.scopes[len(fb.scopes)-1]
	top.vars[name] = id
	if fb.l.in.IsBoxed(fb.f.Locals[id].Type) {
		top.boxed = append(top.boxed, id)
	}
}

func (fb *funcBuilder) lookup(name string) (LocalID, bool) {
	for i := len(fb.scopes) - 1; i >= 0; i-- {
		if id, ok := fb.scopes[i].vars[name]; ok {
			return id, true
		}
	}
	return NoLocalID, false
}

func (fb *funcBuilder) newLocal(typ types.TypeID, name string) LocalID {
	id := LocalID(len(fb.f.Locals))
	fb.f.Locals = append(fb.f.Locals, Local{Type: typ, Name: name})
	return id
}

func (fb *funcBuilder) newBlock() BlockID {
	id := BlockID(len(fb.f.Blocks))
	fb.f.Blocks = append(fb.f.Blocks, Block{ID: id})
	return id
}

func (fb *funcBuilder) switchTo(id BlockID) { fb.cur = id }

func (fb *funcBuilder) emit(i Instr) {
	b := &fb.f.Blocks[fb.cur]
	b.Instrs = append(b.Instrs, i)
}

func (fb *funcBuilder) setTerm(t Terminator) {
	b := &fb.f.Blocks[fb.cur]
	if b.Term.Kind == TermNone {
		b.Term = t
	}
}

// materialize assigns rv's result into a fresh temporary and returns an
// Operand referencing it — every RValue must be named before it can be
// used as another instruction's operand, per the register-IR model (§4.4).
func (fb *funcBuilder) materialize(typ types.TypeID, rv RValue) Operand {
	id := fb.newLocal(typ, "")
	fb.emit(Instr{Kind: InstrAssign, Assign: AssignInstr{Dst: Place{Local: id}, Src: rv}})
	return Operand{Kind: OperandLocal, Type: typ, Local: id}
}

func (l *lowerer) lowerFunc(f *hir.Func) *Func {
	mf := &Func{Sym: f.Symbol, Name: f.Name, Result: f.Ret, Throws: f.Throws}
	fb := &funcBuilder{l: l, f: mf}
	fb.pushScope()

	if f.MethodName != "" {
		selfID := fb.newLocal(f.Receiver, "self")
		fb.declare("self", selfID)
		mf.Params = append(mf.Params, selfID)
	}
	for _, p := range f.Params {
		id := fb.newLocal(p.Type, p.Name)
		fb.declare(p.Name, id)
		mf.Params = append(mf.Params, id)
	}

	mf.Entry = fb.newBlock()
	fb.switchTo(mf.Entry)
	fb.lowerBlockStmts(f.Body)
	if !mf.Blocks[fb.cur].Terminated() {
		fb.cleanupFrom(0, NoLocalID)
		fb.setTerm(Terminator{Kind: TermReturn, Return: ReturnTerm{HasValue: false}})
	}
	fb.popScope()
	return mf
}

// litConst converts a lowered hir.Lit into its mir Const.
func litConst(v *hir.Lit) Const {
	switch v.Kind {
	case ast.LitInt, ast.LitDecimal:
		// Decimal's mantissa rides the same Int field (§12): it's an
		// unboxed scalar like int, distinguished only by the interned
		// Type's DecPrecision/DecScale that internal/layout/codegen read.
		return Const{Kind: ConstInt, Type: v.Type(), Int: v.Int}
	case ast.LitFloat:
		return Const{Kind: ConstFloat, Type: v.Type(), Float: v.Float}
	case ast.LitBool:
		return Const{Kind: ConstBool, Type: v.Type(), Bool: v.Bool}
	case ast.LitString:
		return Const{Kind: ConstString, Type: v.Type(), Str: v.Str}
	default: // ast.LitNone
		return Const{Kind: ConstNothing, Type: v.Type()}
	}
}
