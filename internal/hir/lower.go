package hir

import (
	"github.com/kahflane/naml/internal/ast"
	"github.com/kahflane/naml/internal/sema"
	"github.com/kahflane/naml/internal/symbols"
	"github.com/kahflane/naml/internal/types"
)

// Lower walks file's items alongside the sema.Result produced for it and
// builds the fully-typed, desugared Module.
//
// Instantiation matching relies on walking functions, methods, and their
// bodies in exactly the order internal/sema's bodyPass did (one pass over
// the file's items, taking each free function, `implements` block's
// methods and const as it comes; within a body, operands before the call
// they belong to) so that
// consuming sema.Result.Instantiations in encountered order lines back up
// with the call sites that produced them.
func Lower(file *ast.File, res *sema.Result, symtab *symbols.Table, module string) *Module {
	mod := &Module{Path: module, Types: res.Types, Registry: res.Registry}
	if file == nil {
		return mod
	}
	l := &lowerer{res: res, symtab: symtab, module: module, insts: res.Instantiations}
	l.pushScope()
	defer l.popScope()

	for _, it := range file.Items {
		switch v := it.(type) {
		case *ast.FnItem:
			if v.Receiver == "" && v.Body != nil {
				mod.Funcs = append(mod.Funcs, l.lowerFreeFn(v))
			}
		case *ast.ImplementsItem:
			def, ok := res.DefIDs[v.Target]
			if !ok {
				continue
			}
			for _, m := range v.Methods {
				if m.Body == nil {
					continue
				}
				mod.Funcs = append(mod.Funcs, l.lowerMethod(v, m, def))
			}
		case *ast.ConstItem:
			mod.Consts = append(mod.Consts, l.lowerConst(v))
		}
	}
	return mod
}

type lowerer struct {
	res    *sema.Result
	symtab *symbols.Table
	module string

	// insts/instPos form a read cursor over the instantiations sema
	// recorded, consumed in the same order bodyPass produced them.
	insts   []sema.Instantiation
	instPos int

	scopes []map[string]bool

	// retType is the declared return type of the function/method
	// currently being lowered, so a `return expr;` inside it can decide
	// whether an option lift applies (§4.3), mirroring fnCtx.ret.
	retType types.TypeID
}

func (l *lowerer) pushScope() { l.scopes = append(l.scopes, map[string]bool{}) }
func (l *lowerer) popScope()  { l.scopes = l.scopes[:len(l.scopes)-1] }

func (l *lowerer) declareLocal(name string) {
	l.scopes[len(l.scopes)-1][name] = true
}

func (l *lowerer) isLocal(name string) bool {
	for i := len(l.scopes) - 1; i >= 0; i-- {
		if l.scopes[i][name] {
			return true
		}
	}
	return false
}

func (l *lowerer) nextInstantiation() *sema.Instantiation {
	if l.instPos >= len(l.insts) {
		return nil
	}
	inst := l.insts[l.instPos]
	l.instPos++
	return &inst
}

func (l *lowerer) lowerFreeFn(v *ast.FnItem) *Func {
	sym, ok := l.symtab.Lookup(l.module, v.Name)
	if !ok {
		return &Func{Name: v.Name}
	}
	symbol := l.symtab.Symbol(sym)
	fnType := l.res.Types.Lookup(symbol.Type)
	gen := l.res.Generics[sym]

	f := &Func{
		Name:       v.Name,
		Symbol:     sym,
		Receiver:   types.NoTypeID,
		TypeParams: gen.TypeParams,
		ParamDefs:  gen.ParamDefs,
		Ret:        fnType.Ret,
		Throws:     fnType.Throws,
	}
	l.pushScope()
	savedRet := l.retType
	l.retType = fnType.Ret
	for i, p := range v.Params {
		pt := types.NoTypeID
		if i < len(fnType.Params) {
			pt = fnType.Params[i]
		}
		f.Params = append(f.Params, Param{Name: p.Name, Type: pt})
		l.declareLocal(p.Name)
	}
	f.Body = l.lowerBlock(v.Body)
	l.retType = savedRet
	l.popScope()
	return f
}

func (l *lowerer) lowerMethod(impl *ast.ImplementsItem, m *ast.FnItem, def types.DefID) *Func {
	info := l.res.Methods[def][m.Name]
	fnType := l.res.Types.Lookup(info.FnType)
	receiver := l.namedTypeOf(impl.Target, def)

	f := &Func{
		Name:        m.Name,
		Symbol:      symbols.NoSymbol,
		Receiver:    receiver,
		ReceiverDef: def,
		MethodName:  m.Name,
		TypeParams:  m.TypeParams,
		ParamDefs:   info.ParamDefs,
		Ret:         fnType.Ret,
		Throws:      fnType.Throws,
	}
	l.pushScope()
	savedRet := l.retType
	l.retType = fnType.Ret
	for i, p := range m.Params {
		pt := types.NoTypeID
		if i < len(fnType.Params) {
			pt = fnType.Params[i]
		}
		f.Params = append(f.Params, Param{Name: p.Name, Type: pt})
		l.declareLocal(p.Name)
	}
	f.Body = l.lowerBlock(m.Body)
	l.retType = savedRet
	l.popScope()
	return f
}

func (l *lowerer) namedTypeOf(name string, def types.DefID) types.TypeID {
	if l.res.DefKinds[name] == symbols.KindEnum {
		return l.res.Types.EnumType(def, nil)
	}
	return l.res.Types.StructType(def, nil)
}

func (l *lowerer) lowerConst(v *ast.ConstItem) *Const {
	sym, ok := l.symtab.Lookup(l.module, v.Name)
	declared := types.NoTypeID
	if ok {
		declared = l.symtab.Symbol(sym).Type
	}
	return &Const{Name: v.Name, Type: declared, Value: l.lowerExprExpected(v.Value, declared)}
}

func (l *lowerer) lowerBlock(b *ast.BlockStmt) *Block {
	if b == nil {
		return &Block{}
	}
	l.pushScope()
	out := &Block{StmtBase: StmtBase{Sp: b.Span()}}
	for _, s := range b.Stmts {
		out.Stmts = append(out.Stmts, l.lowerStmt(s))
	}
	l.popScope()
	return out
}

func (l *lowerer) lowerStmts(stmts []ast.Stmt) []Stmt {
	l.pushScope()
	out := make([]Stmt, 0, len(stmts))
	for _, s := range stmts {
		out = append(out, l.lowerStmt(s))
	}
	l.popScope()
	return out
}

func (l *lowerer) exprType(e ast.Expr) types.TypeID {
	if t, ok := l.res.ExprTypes[e]; ok {
		return t
	}
	return types.NoTypeID
}

// lowerExpr lowers e without considering it an argument/return position,
// so no implicit option lift is inserted.
func (l *lowerer) lowerExpr(e ast.Expr) Expr {
	return l.lowerExprExpected(e, types.NoTypeID)
}

// lowerExprExpected lowers e and, when expected is an option<T> and e's
// checked type is exactly T, wraps the result in an explicit Lift
// (§4.3's implicit lift at return/argument sites, mirroring
// fnCtx.assignableReturn/assignableArg).
func (l *lowerer) lowerExprExpected(e ast.Expr, expected types.TypeID) Expr {
	v := l.lowerExprKind(e)
	if expected == types.NoTypeID || v == nil {
		return v
	}
	in := l.res.Types
	exp := in.Lookup(expected)
	if exp.Kind == types.KindOption && in.Equal(exp.Elem, v.Type()) {
		return &Lift{Base: Base{Typ: expected, Sp: v.Span()}, Value: v}
	}
	return v
}

func (l *lowerer) lowerExprKind(e ast.Expr) Expr {
	if e == nil {
		return nil
	}
	typ := l.exprType(e)
	span := e.Span()

	switch v := e.(type) {
	case *ast.Lit:
		return &Lit{Base: Base{typ, span}, Kind: v.Kind, Int: v.Int, Float: v.Float, Str: v.Str, Bool: v.Bool}

	case *ast.Ident:
		return &Ident{Base: Base{typ, span}, Name: v.Name}

	case *ast.Self:
		return &Self{Base{typ, span}}

	case *ast.Binary:
		return &Binary{Base: Base{typ, span}, Op: v.Op, Left: l.lowerExpr(v.Left), Right: l.lowerExpr(v.Right)}

	case *ast.Unary:
		return &Unary{Base: Base{typ, span}, Op: v.Op, Operand: l.lowerExpr(v.Operand)}

	case *ast.Ternary:
		return &Ternary{Base: Base{typ, span}, Cond: l.lowerExpr(v.Cond), Then: l.lowerExpr(v.Then), Else: l.lowerExpr(v.Else)}

	case *ast.Call:
		return l.lowerCall(v, typ)

	case *ast.Index:
		return &Index{Base: Base{typ, span}, Object: l.lowerExpr(v.Object), Key: l.lowerExpr(v.Key)}

	case *ast.Field:
		return &Field{Base: Base{typ, span}, Object: l.lowerExpr(v.Object), Name: v.Name}

	case *ast.Cast:
		return &Cast{Base: Base{typ, span}, Value: l.lowerExpr(v.Value)}

	case *ast.ArrayLit:
		elems := make([]Expr, len(v.Elems))
		elemType := types.NoTypeID
		if in := l.res.Types; in.Lookup(typ).Kind == types.KindArray {
			elemType = in.Lookup(typ).Elem
		}
		for i, el := range v.Elems {
			elems[i] = l.lowerExprExpected(el, elemType)
		}
		return &ArrayLit{Base: Base{typ, span}, Elems: elems}

	case *ast.StructLit:
		fields := make([]StructLitField, len(v.Fields))
		var byName map[string]types.TypeID
		if l.res.Types.Lookup(typ).Kind == types.KindStruct {
			byName = make(map[string]types.TypeID, len(v.Fields))
			for _, f := range l.res.Registry.Struct(l.res.Types.Lookup(typ).Def).Fields {
				byName[f.Name] = f.Type
			}
		}
		for i, f := range v.Fields {
			fields[i] = StructLitField{Name: f.Name, Value: l.lowerExprExpected(f.Value, byName[f.Name])}
		}
		return &StructLit{Base: Base{typ, span}, Fields: fields}

	case *ast.Try:
		return &Try{Base: Base{typ, span}, Value: l.lowerExpr(v.Value)}

	case *ast.Catch:
		return &Catch{
			Base:     Base{typ, span},
			Value:    l.lowerExpr(v.Value),
			Binding:  v.Binding,
			Handler:  l.lowerCatchHandler(v),
			Fallback: l.lowerExprExpected(v.Fallback, typ),
		}

	case *ast.SpawnExpr:
		return &Spawn{Base: Base{typ, span}, Body: l.lowerStmts(v.Body)}

	default:
		return nil
	}
}

func (l *lowerer) lowerCatchHandler(v *ast.Catch) []Stmt {
	l.pushScope()
	l.declareLocal(v.Binding)
	out := make([]Stmt, 0, len(v.Handler))
	for _, s := range v.Handler {
		out = append(out, l.lowerStmt(s))
	}
	l.popScope()
	return out
}

// lowerCall resolves the callee shape the same way sema.checkCall did,
// consuming the next queued Instantiation exactly when sema would have
// recorded one: a direct call to a module-level generic function symbol
// (never a local closure call, never a method call — see
// internal/sema/call_type_instantiation.go's checkCallAgainst, which only
// appends when a non-NoSymbol callee carries type parameters).
func (l *lowerer) lowerCall(v *ast.Call, typ types.TypeID) Expr {
	c := &Call{Base: Base{typ, v.Span()}}

	switch callee := v.Callee.(type) {
	case *ast.Ident:
		if l.isLocal(callee.Name) {
			c.CalleeKind = CallValue
			c.Callee = l.lowerExpr(callee)
		} else if sym, ok := l.symtab.Lookup(l.module, callee.Name); ok {
			c.CalleeKind = CallFn
			c.Symbol = sym
			if gen, ok := l.res.Generics[sym]; ok && len(gen.TypeParams) > 0 {
				if inst := l.nextInstantiation(); inst != nil {
					c.Instantiation = &Instantiation{Symbol: inst.Symbol, Args: inst.Args}
				}
			}
		} else {
			c.CalleeKind = CallValue
			c.Callee = l.lowerExpr(callee)
		}

	case *ast.Field:
		c.CalleeKind = CallMethod
		c.Object = l.lowerExpr(callee.Object)
		c.Method = callee.Name

	default:
		c.CalleeKind = CallValue
		c.Callee = l.lowerExpr(v.Callee)
	}

	fnType := l.calleeFnType(v, c)
	c.Args = make([]Expr, len(v.Args))
	for i, a := range v.Args {
		expected := types.NoTypeID
		if fnType != nil && i < len(fnType.Params) {
			expected = fnType.Params[i]
		}
		c.Args[i] = l.lowerExprExpected(a, expected)
	}
	return c
}

// calleeFnType best-effort resolves the callee's declared signature so
// argument lowering can detect option lifts; it intentionally mirrors
// only the lookup paths checkCall itself uses, not full unification, so
// a generic parameter position (not yet substituted) is simply skipped
// (types.NoTypeID expected) rather than mis-lifted.
func (l *lowerer) calleeFnType(v *ast.Call, c *Call) *types.Type {
	in := l.res.Types
	switch c.CalleeKind {
	case CallFn:
		symbol := l.symtab.Symbol(c.Symbol)
		t := in.Lookup(symbol.Type)
		return &t
	case CallMethod:
		objType := l.exprType(fieldObject(v.Callee))
		obj := in.Lookup(objType)
		if info, ok := l.res.Methods[obj.Def][c.Method]; ok {
			t := in.Lookup(info.FnType)
			return &t
		}
		return nil
	default:
		if c.Callee != nil {
			t := in.Lookup(c.Callee.Type())
			if t.Kind == types.KindFn {
				return &t
			}
		}
		return nil
	}
}

func fieldObject(e ast.Expr) ast.Expr {
	if f, ok := e.(*ast.Field); ok {
		return f.Object
	}
	return nil
}

func (l *lowerer) lowerStmt(s ast.Stmt) Stmt {
	switch v := s.(type) {
	case *ast.LetStmt:
		declared := l.declType(v)
		l.declareLocal(v.Name)
		return &LetStmt{StmtBase: StmtBase{v.Span()}, Name: v.Name, Type: declared, Value: l.lowerExprExpected(v.Value, declared), Mut: v.Mut}

	case *ast.ExprStmt:
		return &ExprStmt{StmtBase: StmtBase{v.Span()}, Value: l.lowerExpr(v.Value)}

	case *ast.AssignStmt:
		target := l.lowerExpr(v.Target)
		return &AssignStmt{StmtBase: StmtBase{v.Span()}, Target: target, Op: v.Op, Value: l.lowerExprExpected(v.Value, target.Type())}

	case *ast.BlockStmt:
		b := l.lowerBlock(v)
		return b

	case *ast.IfStmt:
		var els Stmt
		if v.Else != nil {
			els = l.lowerStmt(v.Else)
		}
		return &If{StmtBase: StmtBase{v.Span()}, Cond: l.lowerExpr(v.Cond), Then: l.lowerBlock(v.Then), Else: els}

	case *ast.WhileStmt:
		return &While{StmtBase: StmtBase{v.Span()}, Cond: l.lowerExpr(v.Cond), Body: l.lowerBlock(v.Body)}

	case *ast.ForStmt:
		iterable := l.lowerExpr(v.Iterable)
		elem := types.NoTypeID
		if in := l.res.Types; in.Lookup(iterable.Type()).Kind == types.KindArray {
			elem = in.Lookup(iterable.Type()).Elem
		}
		l.pushScope()
		l.declareLocal(v.Binding)
		body := &Block{StmtBase: StmtBase{v.Body.Span()}}
		for _, st := range v.Body.Stmts {
			body.Stmts = append(body.Stmts, l.lowerStmt(st))
		}
		l.popScope()
		return &For{StmtBase: StmtBase{v.Span()}, Binding: v.Binding, Elem: elem, Iterable: iterable, Body: body}

	case *ast.BreakStmt:
		return &Break{StmtBase{v.Span()}}
	case *ast.ContinueStmt:
		return &Continue{StmtBase{v.Span()}}
	case *ast.JoinStmt:
		return &Join{StmtBase{v.Span()}}

	case *ast.ReturnStmt:
		if v.Value == nil {
			return &Return{StmtBase: StmtBase{v.Span()}}
		}
		return &Return{StmtBase: StmtBase{v.Span()}, Value: l.lowerExprExpected(v.Value, l.retType)}

	case *ast.ThrowStmt:
		return &Throw{StmtBase: StmtBase{v.Span()}, Value: l.lowerExpr(v.Value)}

	case *ast.LockedStmt:
		cell := l.lowerExpr(v.Cell)
		elem := types.NoTypeID
		cellT := l.res.Types.Lookup(cell.Type())
		if cellT.Kind == types.KindMutex || cellT.Kind == types.KindRwLock {
			elem = cellT.Elem
		}
		l.pushScope()
		l.declareLocal(v.Binding)
		body := &Block{StmtBase: StmtBase{v.Body.Span()}}
		for _, st := range v.Body.Stmts {
			body.Stmts = append(body.Stmts, l.lowerStmt(st))
		}
		l.popScope()
		return &Locked{StmtBase: StmtBase{v.Span()}, Mode: v.Mode, Binding: v.Binding, Elem: elem, Cell: cell, Body: body}

	default:
		return nil
	}
}

func (l *lowerer) declType(v *ast.LetStmt) types.TypeID {
	return l.res.LetTypes[v]
}
