package mir

import (
	"sort"

	"github.com/kahflane/naml/internal/ast"
	"github.com/kahflane/naml/internal/hir"
	"github.com/kahflane/naml/internal/types"
)

func (fb *funcBuilder) lowerExpr(e hir.Expr) Operand {
	switch v := e.(type) {
	case *hir.Ident:
		if id, ok := fb.lookup(v.Name); ok {
			return Operand{Kind: OperandLocal, Type: v.Type(), Local: id}
		}
		// A bare reference to a module-level const, resolved by name at
		// codegen link time the same way a CalleeFn is: mir carries only
		// the name, since consts don't get their own Local.
		return Operand{Kind: OperandConst, Type: v.Type(), Const: Const{Kind: ConstNothing, Type: v.Type(), Str: v.Name}}

	case *hir.Lit:
		return Operand{Kind: OperandConst, Type: v.Type(), Const: litConst(v)}

	case *hir.Self:
		id, _ := fb.lookup("self")
		return Operand{Kind: OperandLocal, Type: v.Type(), Local: id}

	case *hir.Binary:
		left := fb.lowerExpr(v.Left)
		right := fb.lowerExpr(v.Right)
		return fb.materialize(v.Type(), RValue{Kind: RValueBinary, Binary: BinaryOp{Op: v.Op, Left: left, Right: right}})

	case *hir.Unary:
		operand := fb.lowerExpr(v.Operand)
		if v.Op == ast.OpForceUnwrap {
			return fb.materialize(v.Type(), RValue{Kind: RValueOptionUnwrap, OptionUnwrap: operand})
		}
		return fb.materialize(v.Type(), RValue{Kind: RValueUnary, Unary: UnaryOp{Op: v.Op, Operand: operand}})

	case *hir.Ternary:
		return fb.lowerTernary(v)

	case *hir.Call:
		return fb.lowerCall(v)

	case *hir.Index:
		obj := fb.lowerExpr(v.Object)
		key := fb.lowerExpr(v.Key)
		return fb.materialize(v.Type(), RValue{Kind: RValueIndex, Index: IndexAccess{Object: obj, Index: key}})

	case *hir.Field:
		obj := fb.lowerExpr(v.Object)
		return fb.materialize(v.Type(), RValue{Kind: RValueField, Field: FieldAccess{Object: obj, Name: v.Name, FieldIdx: fb.fieldIdx(v.Object.Type(), v.Name)}})

	case *hir.Cast:
		val := fb.lowerExpr(v.Value)
		return fb.materialize(v.Type(), RValue{Kind: RValueCast, Cast: CastOp{Value: val, Target: v.Type()}})

	case *hir.ArrayLit:
		elems := make([]Operand, len(v.Elems))
		for i, el := range v.Elems {
			elems[i] = fb.lowerExpr(el)
		}
		elem := types.NoTypeID
		if t := fb.l.in.Lookup(v.Type()); t.Kind == types.KindArray {
			elem = t.Elem
		}
		return fb.materialize(v.Type(), RValue{Kind: RValueArrayLit, ArrayLit: ArrayLit{Elem: elem, Elems: elems}})

	case *hir.StructLit:
		fields := make([]StructLitField, len(v.Fields))
		for i, f := range v.Fields {
			fields[i] = StructLitField{Name: f.Name, Value: fb.lowerExpr(f.Value)}
		}
		return fb.materialize(v.Type(), RValue{Kind: RValueStructLit, StructLit: StructLit{Type: v.Type(), Fields: fields}})

	case *hir.Try:
		// No lowering beyond the inner expression: an uncaught throw
		// during its evaluation propagates through this frame exactly
		// like any other call's throw would (§4.4's own note on Try).
		return fb.lowerExpr(v.Value)

	case *hir.Catch:
		return fb.lowerCatch(v)

	case *hir.Spawn:
		return fb.lowerSpawn(v)

	case *hir.Lift:
		inner := fb.lowerExpr(v.Value)
		return fb.materialize(v.Type(), RValue{Kind: RValueOptionLift, OptionLift: inner})

	default:
		return Operand{Kind: OperandConst, Type: types.NoTypeID}
	}
}

func (fb *funcBuilder) fieldIdx(objType types.TypeID, name string) int {
	t := fb.l.in.Lookup(objType)
	if t.Kind != types.KindStruct || fb.l.reg == nil {
		return -1
	}
	info := fb.l.reg.Struct(t.Def)
	for i, f := range info.Fields {
		if f.Name == name {
			return i
		}
	}
	return -1
}

func (fb *funcBuilder) lowerTernary(v *hir.Ternary) Operand {
	cond := fb.lowerExpr(v.Cond)
	result := fb.newLocal(v.Type(), "")
	thenBlk, elseBlk, joinBlk := fb.newBlock(), fb.newBlock(), fb.newBlock()
	fb.setTerm(Terminator{Kind: TermCondBranch, CondBranch: CondBranchTerm{Cond: cond, Then: thenBlk, Else: elseBlk}})

	fb.switchTo(thenBlk)
	thenOp := fb.lowerExpr(v.Then)
	fb.emit(Instr{Kind: InstrAssign, Assign: AssignInstr{Dst: Place{Local: result}, Src: RValue{Kind: RValueUse, Use: thenOp}}})
	fb.setTerm(Terminator{Kind: TermJump, Jump: JumpTerm{Target: joinBlk}})

	fb.switchTo(elseBlk)
	elseOp := fb.lowerExpr(v.Else)
	fb.emit(Instr{Kind: InstrAssign, Assign: AssignInstr{Dst: Place{Local: result}, Src: RValue{Kind: RValueUse, Use: elseOp}}})
	fb.setTerm(Terminator{Kind: TermJump, Jump: JumpTerm{Target: joinBlk}})

	fb.switchTo(joinBlk)
	return Operand{Kind: OperandLocal, Type: v.Type(), Local: result}
}

func (fb *funcBuilder) lowerCall(v *hir.Call) Operand {
	var callee Callee
	switch v.CalleeKind {
	case hir.CallValue:
		callee = Callee{Kind: CalleeValue, Value: fb.lowerExpr(v.Callee)}
	case hir.CallMethod:
		obj := fb.lowerExpr(v.Object)
		objType := fb.l.in.Lookup(v.Object.Type())
		name, _ := fb.l.byMethod[methodKey{def: objType.Def, name: v.Method}]
		args := make([]Operand, 0, len(v.Args)+1)
		args = append(args, obj)
		for _, a := range v.Args {
			args = append(args, fb.lowerExpr(a))
		}
		return fb.emitCall(v.Type(), Callee{Kind: CalleeFn, Name: name}, args)
	case hir.CallFn:
		if v.SpecName != "" {
			callee = Callee{Kind: CalleeFn, Name: v.SpecName}
		} else {
			callee = Callee{Kind: CalleeFn, Sym: v.Symbol, Name: fb.l.bySym[v.Symbol]}
		}
	}
	args := make([]Operand, len(v.Args))
	for i, a := range v.Args {
		args[i] = fb.lowerExpr(a)
	}
	return fb.emitCall(v.Type(), callee, args)
}

func (fb *funcBuilder) emitCall(result types.TypeID, callee Callee, args []Operand) Operand {
	if result == types.NoTypeID || fb.l.in.Lookup(result).Kind == types.KindUnit {
		fb.emit(Instr{Kind: InstrCall, Call: CallInstr{Callee: callee, Args: args}})
		return Operand{Kind: OperandConst, Type: result, Const: Const{Kind: ConstNothing, Type: result}}
	}
	dst := fb.newLocal(result, "")
	fb.emit(Instr{Kind: InstrCall, Call: CallInstr{HasDst: true, Dst: Place{Local: dst}, Callee: callee, Args: args}})
	return Operand{Kind: OperandLocal, Type: result, Local: dst}
}

// lowerCatch implements §4.4/§4.9's landing-pad discipline: the pad is
// pushed before evaluating Value and popped on the non-throwing path;
// internal/runtime's unwinder pops it itself when dispatching a throw to
// Handler, so InstrPopPad here only needs to cover normal completion.
func (fb *funcBuilder) lowerCatch(v *hir.Catch) Operand {
	result := fb.newLocal(v.Type(), "")
	handlerBlk := fb.newBlock()
	joinBlk := fb.newBlock()
	excLocal := fb.newLocal(types.NoTypeID, v.Binding)

	fb.emit(Instr{Kind: InstrPushPad, PushPad: PushPadInstr{Handler: handlerBlk, Binding: excLocal}})
	valOp := fb.lowerExpr(v.Value)
	fb.emit(Instr{Kind: InstrPopPad})
	fb.emit(Instr{Kind: InstrAssign, Assign: AssignInstr{Dst: Place{Local: result}, Src: RValue{Kind: RValueUse, Use: valOp}}})
	fb.setTerm(Terminator{Kind: TermJump, Jump: JumpTerm{Target: joinBlk}})

	fb.switchTo(handlerBlk)
	fb.pushScope()
	fb.declare(v.Binding, excLocal)
	for _, s := range v.Handler {
		fb.lowerStmt(s)
	}
	if !fb.f.Blocks[fb.cur].Terminated() && v.Fallback != nil {
		fallback := fb.lowerExpr(v.Fallback)
		fb.emit(Instr{Kind: InstrAssign, Assign: AssignInstr{Dst: Place{Local: result}, Src: RValue{Kind: RValueUse, Use: fallback}}})
	}
	fb.popScope()
	fb.setTerm(Terminator{Kind: TermJump, Jump: JumpTerm{Target: joinBlk}})

	fb.switchTo(joinBlk)
	return Operand{Kind: OperandLocal, Type: v.Type(), Local: result}
}

// lowerSpawn synthesizes a task-body Func for v.Body, closing over every
// free identifier it references from the enclosing scope, then enqueues
// it with the scheduler (§4.4, §4.7). The task handle itself carries no
// data in this design: `join()` waits on the whole current barrier, not
// on an individual spawned task (§4.7).
func (fb *funcBuilder) lowerSpawn(v *hir.Spawn) Operand {
	free := freeIdents(v.Body)
	var captureNames []string
	for name := range free {
		if _, ok := fb.lookup(name); ok {
			captureNames = append(captureNames, name)
		}
	}
	sort.Strings(captureNames) // deterministic Func.Params/Captures order, independent of map iteration
	captures := make([]Operand, len(captureNames))
	for i, name := range captureNames {
		id, _ := fb.lookup(name)
		captures[i] = Operand{Kind: OperandLocal, Type: fb.f.Locals[id].Type, Local: id}
	}

	task := &Func{Name: fb.l.freshSpawnName(), Result: types.NoTypeID}
	tfb := &funcBuilder{l: fb.l, f: task}
	tfb.pushScope()
	for i, name := range captureNames {
		id := tfb.newLocal(captures[i].Type, name)
		tfb.declare(name, id)
		task.Params = append(task.Params, id)
	}
	task.Entry = tfb.newBlock()
	tfb.switchTo(task.Entry)
	for _, s := range v.Body {
		tfb.lowerStmt(s)
	}
	if !task.Blocks[tfb.cur].Terminated() {
		tfb.cleanupFrom(0, NoLocalID)
		tfb.setTerm(Terminator{Kind: TermReturn})
	}
	tfb.popScope()
	fb.l.extra = append(fb.l.extra, task)

	closureOp := fb.materialize(v.Type(), RValue{Kind: RValueClosure, Closure: ClosureLit{FuncName: task.Name, Captures: captures}})
	fb.emit(Instr{Kind: InstrCall, Call: CallInstr{Callee: Callee{Kind: CalleeHost, Name: HostSchedulerEnqueue}, Args: []Operand{closureOp}}})
	return closureOp
}

// freeIdents collects every hir.Ident name referenced anywhere inside
// body, minus names that body itself binds via let/for/locked/catch —
// a conservative single-pass approximation (it doesn't model nested
// shadowing precisely) good enough to decide what a spawned task must
// capture, since over-capturing a same-named outer local that's actually
// shadowed just wastes a closure slot rather than producing wrong code.
func freeIdents(body []hir.Stmt) map[string]bool {
	free := map[string]bool{}
	bound := map[string]bool{}
	var walkExpr func(hir.Expr)
	var walkStmt func(hir.Stmt)

	walkExpr = func(e hir.Expr) {
		switch v := e.(type) {
		case nil:
		case *hir.Ident:
			if !bound[v.Name] {
				free[v.Name] = true
			}
		case *hir.Binary:
			walkExpr(v.Left)
			walkExpr(v.Right)
		case *hir.Unary:
			walkExpr(v.Operand)
		case *hir.Ternary:
			walkExpr(v.Cond)
			walkExpr(v.Then)
			walkExpr(v.Else)
		case *hir.Index:
			walkExpr(v.Object)
			walkExpr(v.Key)
		case *hir.Field:
			walkExpr(v.Object)
		case *hir.Cast:
			walkExpr(v.Value)
		case *hir.ArrayLit:
			for _, el := range v.Elems {
				walkExpr(el)
			}
		case *hir.StructLit:
			for _, f := range v.Fields {
				walkExpr(f.Value)
			}
		case *hir.Try:
			walkExpr(v.Value)
		case *hir.Catch:
			walkExpr(v.Value)
			for _, s := range v.Handler {
				walkStmt(s)
			}
			walkExpr(v.Fallback)
		case *hir.Spawn:
			for _, s := range v.Body {
				walkStmt(s)
			}
		case *hir.Lift:
			walkExpr(v.Value)
		case *hir.Call:
			walkExpr(v.Callee)
			walkExpr(v.Object)
			for _, a := range v.Args {
				walkExpr(a)
			}
		}
	}

	walkStmt = func(s hir.Stmt) {
		switch v := s.(type) {
		case nil:
		case *hir.LetStmt:
			walkExpr(v.Value)
			bound[v.Name] = true
		case *hir.ExprStmt:
			walkExpr(v.Value)
		case *hir.AssignStmt:
			walkExpr(v.Target)
			walkExpr(v.Value)
		case *hir.Block:
			for _, st := range v.Stmts {
				walkStmt(st)
			}
		case *hir.If:
			walkExpr(v.Cond)
			walkStmt(v.Then)
			walkStmt(v.Else)
		case *hir.While:
			walkExpr(v.Cond)
			walkStmt(v.Body)
		case *hir.For:
			walkExpr(v.Iterable)
			bound[v.Binding] = true
			walkStmt(v.Body)
		case *hir.Return:
			walkExpr(v.Value)
		case *hir.Throw:
			walkExpr(v.Value)
		case *hir.Locked:
			walkExpr(v.Cell)
			bound[v.Binding] = true
			walkStmt(v.Body)
		}
	}

	for _, s := range body {
		walkStmt(s)
	}
	return free
}
