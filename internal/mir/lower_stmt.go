package mir

import (
	"github.com/kahflane/naml/internal/ast"
	"github.com/kahflane/naml/internal/hir"
)

func (fb *funcBuilder) lowerBlockStmts(b *hir.Block) {
	if b == nil {
		return
	}
	for _, s := range b.Stmts {
		if fb.f.Blocks[fb.cur].Terminated() {
			return
		}
		fb.lowerStmt(s)
	}
}

func (fb *funcBuilder) lowerStmt(s hir.Stmt) {
	switch v := s.(type) {
	case *hir.LetStmt:
		op := fb.lowerExpr(v.Value)
		id := fb.newLocal(v.Type, v.Name)
		fb.emit(Instr{Kind: InstrAssign, Assign: AssignInstr{Dst: Place{Local: id}, Src: RValue{Kind: RValueUse, Use: op}}})
		fb.declare(v.Name, id)

	case *hir.ExprStmt:
		fb.lowerExpr(v.Value)

	case *hir.AssignStmt:
		fb.lowerAssign(v)

	case *hir.Block:
		fb.pushScope()
		fb.lowerBlockStmts(v)
		fb.popScope()

	case *hir.If:
		fb.lowerIf(v)

	case *hir.While:
		fb.lowerWhile(v)

	case *hir.For:
		fb.lowerFor(v)

	case *hir.Break:
		depth := fb.loopMarkers[len(fb.loopMarkers)-1]
		fb.cleanupFrom(depth, NoLocalID)
		fb.setTerm(Terminator{Kind: TermJump, Jump: JumpTerm{Target: fb.breakTargets[len(fb.breakTargets)-1]}})

	case *hir.Continue:
		depth := fb.loopMarkers[len(fb.loopMarkers)-1]
		fb.cleanupFrom(depth, NoLocalID)
		fb.setTerm(Terminator{Kind: TermJump, Jump: JumpTerm{Target: fb.continueTargets[len(fb.continueTargets)-1]}})

	case *hir.Return:
		fb.lowerReturn(v)

	case *hir.Throw:
		val := fb.lowerExpr(v.Value)
		fb.cleanupFrom(0, NoLocalID)
		fb.setTerm(Terminator{Kind: TermThrow, Throw: ThrowTerm{Value: val}})

	case *hir.Locked:
		fb.lowerLocked(v)

	case *hir.Join:
		fb.emit(Instr{Kind: InstrCall, Call: CallInstr{Callee: Callee{Kind: CalleeHost, Name: HostSchedulerWaitAll}}})
	}
}

// lowerPlace resolves an assignment target to a root Local plus zero or
// more field/index projections (§4.4's Place model).
func (fb *funcBuilder) lowerPlace(e hir.Expr) Place {
	switch v := e.(type) {
	case *hir.Ident:
		id, _ := fb.lookup(v.Name)
		return Place{Local: id}
	case *hir.Self:
		id, _ := fb.lookup("self")
		return Place{Local: id}
	case *hir.Field:
		p := fb.lowerPlace(v.Object)
		p.Proj = append(p.Proj, PlaceProj{Kind: PlaceProjField, FieldName: v.Name, FieldIdx: fb.fieldIdx(v.Object.Type(), v.Name)})
		return p
	case *hir.Index:
		p := fb.lowerPlace(v.Object)
		p.Proj = append(p.Proj, PlaceProj{Kind: PlaceProjIndex, Index: fb.lowerExpr(v.Key)})
		return p
	default:
		return Place{Local: NoLocalID}
	}
}

// lowerAssign implements §4.6's store discipline for boxed types: the old
// value is read before the overwrite, the new value is retained, the
// store happens, then the old value is released — retain-before-release
// so a self-assignment (`x = x`) never drops the only live reference.
// Compound assignment re-evaluates Target as a read to get the current
// value, which double-evaluates Target's Object sub-expression for a
// field/index target; acceptable for the field/index targets this
// surface allows, since none of them carry a legal side effect naml's
// checker permits in an assignment target.
func (fb *funcBuilder) lowerAssign(v *hir.AssignStmt) {
	place := fb.lowerPlace(v.Target)
	typ := v.Target.Type()
	boxed := fb.l.in.IsBoxed(typ)

	var newVal Operand
	if v.Op == ast.AssignSet {
		newVal = fb.lowerExpr(v.Value)
	} else {
		cur := fb.lowerExpr(v.Target)
		rhs := fb.lowerExpr(v.Value)
		op := compoundBinOp(v.Op)
		newVal = fb.materialize(typ, RValue{Kind: RValueBinary, Binary: BinaryOp{Op: op, Left: cur, Right: rhs}})
	}

	if !boxed {
		fb.emit(Instr{Kind: InstrAssign, Assign: AssignInstr{Dst: place, Src: RValue{Kind: RValueUse, Use: newVal}}})
		return
	}

	old := fb.lowerExpr(v.Target)
	fb.emit(Instr{Kind: InstrRetain, Retain: newVal})
	fb.emit(Instr{Kind: InstrAssign, Assign: AssignInstr{Dst: place, Src: RValue{Kind: RValueUse, Use: newVal}}})
	fb.emit(Instr{Kind: InstrRelease, Release: old})
}

func compoundBinOp(op ast.AssignOp) ast.BinaryOp {
	switch op {
	case ast.AssignAdd:
		return ast.OpAdd
	case ast.AssignSub:
		return ast.OpSub
	case ast.AssignMul:
		return ast.OpMul
	case ast.AssignDiv:
		return ast.OpDiv
	default:
		return ast.OpAdd
	}
}

func (fb *funcBuilder) lowerIf(v *hir.If) {
	cond := fb.lowerExpr(v.Cond)
	thenBlk, joinBlk := fb.newBlock(), fb.newBlock()
	elseBlk := joinBlk
	if v.Else != nil {
		elseBlk = fb.newBlock()
	}
	fb.setTerm(Terminator{Kind: TermCondBranch, CondBranch: CondBranchTerm{Cond: cond, Then: thenBlk, Else: elseBlk}})

	fb.switchTo(thenBlk)
	fb.pushScope()
	fb.lowerBlockStmts(v.Then)
	fb.popScope()
	if !fb.f.Blocks[fb.cur].Terminated() {
		fb.setTerm(Terminator{Kind: TermJump, Jump: JumpTerm{Target: joinBlk}})
	}

	if v.Else != nil {
		fb.switchTo(elseBlk)
		fb.pushScope()
		fb.lowerStmt(v.Else)
		fb.popScope()
		if !fb.f.Blocks[fb.cur].Terminated() {
			fb.setTerm(Terminator{Kind: TermJump, Jump: JumpTerm{Target: joinBlk}})
		}
	}

	fb.switchTo(joinBlk)
}

func (fb *funcBuilder) lowerWhile(v *hir.While) {
	headBlk, bodyBlk, exitBlk := fb.newBlock(), fb.newBlock(), fb.newBlock()
	fb.setTerm(Terminator{Kind: TermJump, Jump: JumpTerm{Target: headBlk}})

	fb.switchTo(headBlk)
	cond := fb.lowerExpr(v.Cond)
	fb.setTerm(Terminator{Kind: TermCondBranch, CondBranch: CondBranchTerm{Cond: cond, Then: bodyBlk, Else: exitBlk}})

	fb.loopMarkers = append(fb.loopMarkers, len(fb.scopes))
	fb.continueTargets = append(fb.continueTargets, headBlk)
	fb.breakTargets = append(fb.breakTargets, exitBlk)

	fb.switchTo(bodyBlk)
	fb.pushScope()
	fb.lowerBlockStmts(v.Body)
	fb.popScope()
	if !fb.f.Blocks[fb.cur].Terminated() {
		fb.setTerm(Terminator{Kind: TermJump, Jump: JumpTerm{Target: headBlk}})
	}

	fb.loopMarkers = fb.loopMarkers[:len(fb.loopMarkers)-1]
	fb.continueTargets = fb.continueTargets[:len(fb.continueTargets)-1]
	fb.breakTargets = fb.breakTargets[:len(fb.breakTargets)-1]

	fb.switchTo(exitBlk)
}

// lowerFor lowers `for x in iterable { ... }` against the iteration
// protocol's host-provided cursor ops, mirroring how `locked` resolves to
// host calls rather than a dedicated Instr: the cursor's next/has-next
// step is itself just a call, with the per-element binding materialized
// from its result.
func (fb *funcBuilder) lowerFor(v *hir.For) {
	iterOp := fb.lowerExpr(v.Iterable)
	cursor := fb.materialize(iterOp.Type, RValue{Kind: RValueUse, Use: iterOp})

	headBlk, bodyBlk, exitBlk := fb.newBlock(), fb.newBlock(), fb.newBlock()
	fb.setTerm(Terminator{Kind: TermJump, Jump: JumpTerm{Target: headBlk}})

	fb.switchTo(headBlk)
	hasNext := fb.emitCall(fb.l.in.Builtins().Bool, Callee{Kind: CalleeHost, Name: HostIterHasNext}, []Operand{cursor})
	fb.setTerm(Terminator{Kind: TermCondBranch, CondBranch: CondBranchTerm{Cond: hasNext, Then: bodyBlk, Else: exitBlk}})

	fb.loopMarkers = append(fb.loopMarkers, len(fb.scopes))
	fb.continueTargets = append(fb.continueTargets, headBlk)
	fb.breakTargets = append(fb.breakTargets, exitBlk)

	fb.switchTo(bodyBlk)
	fb.pushScope()
	elemOp := fb.emitCall(v.Elem, Callee{Kind: CalleeHost, Name: HostIterNext}, []Operand{cursor})
	elemID := fb.newLocal(v.Elem, v.Binding)
	fb.emit(Instr{Kind: InstrAssign, Assign: AssignInstr{Dst: Place{Local: elemID}, Src: RValue{Kind: RValueUse, Use: elemOp}}})
	fb.declare(v.Binding, elemID)
	fb.lowerBlockStmts(v.Body)
	fb.popScope()
	if !fb.f.Blocks[fb.cur].Terminated() {
		fb.setTerm(Terminator{Kind: TermJump, Jump: JumpTerm{Target: headBlk}})
	}

	fb.loopMarkers = fb.loopMarkers[:len(fb.loopMarkers)-1]
	fb.continueTargets = fb.continueTargets[:len(fb.continueTargets)-1]
	fb.breakTargets = fb.breakTargets[:len(fb.breakTargets)-1]

	fb.switchTo(exitBlk)
}

// lowerReturn exempts the literal returned identifier from release: a
// heuristic rather than full escape analysis (§4.6 treats liveness-driven
// arena sizing as a quality knob, not a correctness requirement, but
// scope-exit release itself is load-bearing — this covers the common
// `return x;` shape without it).
func (fb *funcBuilder) lowerReturn(v *hir.Return) {
	if v.Value == nil {
		fb.cleanupFrom(0, NoLocalID)
		fb.setTerm(Terminator{Kind: TermReturn, Return: ReturnTerm{HasValue: false}})
		return
	}
	val := fb.lowerExpr(v.Value)
	skip := NoLocalID
	if ident, ok := v.Value.(*hir.Ident); ok {
		if id, ok := fb.lookup(ident.Name); ok {
			skip = id
		}
	}
	fb.cleanupFrom(0, skip)
	fb.setTerm(Terminator{Kind: TermReturn, Return: ReturnTerm{HasValue: true, Value: val}})
}

// lowerLocked implements §4.4's verbatim recipe:
//
//	mutex_lock(m); let v = mutex_read(m); <body>; mutex_write(m, v); mutex_unlock(m);
//
// with the write+unlock pair run as this region's unlock callback so it
// fires on every structural exit (fallthrough, return, break, throw),
// not just fallthrough. Read/write/rlock modes substitute the matching
// host symbol triple.
func (fb *funcBuilder) lowerLocked(v *hir.Locked) {
	cell := fb.lowerExpr(v.Cell)

	lockName, readName, writeName, unlockName := lockHostNames(v.Mode)
	fb.emit(Instr{Kind: InstrCall, Call: CallInstr{Callee: Callee{Kind: CalleeHost, Name: lockName}, Args: []Operand{cell}}})

	bindID := fb.newLocal(v.Elem, v.Binding)
	readOp := fb.emitCall(v.Elem, Callee{Kind: CalleeHost, Name: readName}, []Operand{cell})
	fb.emit(Instr{Kind: InstrAssign, Assign: AssignInstr{Dst: Place{Local: bindID}, Src: RValue{Kind: RValueUse, Use: readOp}}})

	unlock := func(fb *funcBuilder) {
		bindOp := Operand{Kind: OperandLocal, Type: v.Elem, Local: bindID}
		if writeName != "" {
			fb.emit(Instr{Kind: InstrCall, Call: CallInstr{Callee: Callee{Kind: CalleeHost, Name: writeName}, Args: []Operand{cell, bindOp}}})
		}
		fb.emit(Instr{Kind: InstrCall, Call: CallInstr{Callee: Callee{Kind: CalleeHost, Name: unlockName}, Args: []Operand{cell}}})
	}
	fb.pushLockRegion(unlock)
	fb.declare(v.Binding, bindID)
	fb.lowerBlockStmts(v.Body)
	fb.popScope()
}

func lockHostNames(mode ast.LockMode) (lock, read, write, unlock string) {
	switch mode {
	case ast.LockRead:
		return HostRwLockRLock, HostRwLockRRead, "", HostRwLockRUnlk
	case ast.LockWrite:
		return HostRwLockWLock, HostRwLockWRead, HostRwLockWWrite, HostRwLockWUnlk
	default: // ast.LockExclusive
		return HostMutexLock, HostMutexRead, HostMutexWrite, HostMutexUnlock
	}
}
