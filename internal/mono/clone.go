package mono

import (
	"github.com/kahflane/naml/internal/hir"
	"github.com/kahflane/naml/internal/types"
)

// cloneExpr copies e, rewriting every resolved type through subst and
// recursively specializing any nested generic call it carries. Grounded on
// the teacher's cloneExpr in internal/mono/clone.go, but collapsed into one
// pass: the teacher's clone and its later instantiation-rewrite are two
// separate walks over the same tree, naml's generic surface is small enough
// that a single walk can do both at once.
func (m *monomorphizer) cloneExpr(e hir.Expr, subst map[types.DefID]types.TypeID) hir.Expr {
	if e == nil {
		return nil
	}
	base := hir.Base{Typ: substType(m.in, e.Type(), subst), Sp: e.Span()}
	switch v := e.(type) {
	case *hir.Ident:
		return &hir.Ident{Base: base, Name: v.Name}
	case *hir.Lit:
		return &hir.Lit{Base: base, Kind: v.Kind, Int: v.Int, Float: v.Float, Str: v.Str, Bool: v.Bool}
	case *hir.Self:
		return &hir.Self{Base: base}
	case *hir.Binary:
		return &hir.Binary{Base: base, Op: v.Op, Left: m.cloneExpr(v.Left, subst), Right: m.cloneExpr(v.Right, subst)}
	case *hir.Unary:
		return &hir.Unary{Base: base, Op: v.Op, Operand: m.cloneExpr(v.Operand, subst)}
	case *hir.Ternary:
		return &hir.Ternary{Base: base, Cond: m.cloneExpr(v.Cond, subst), Then: m.cloneExpr(v.Then, subst), Else: m.cloneExpr(v.Else, subst)}
	case *hir.Index:
		return &hir.Index{Base: base, Object: m.cloneExpr(v.Object, subst), Key: m.cloneExpr(v.Key, subst)}
	case *hir.Field:
		return &hir.Field{Base: base, Object: m.cloneExpr(v.Object, subst), Name: v.Name}
	case *hir.Cast:
		return &hir.Cast{Base: base, Value: m.cloneExpr(v.Value, subst)}
	case *hir.ArrayLit:
		elems := make([]hir.Expr, len(v.Elems))
		for i, el := range v.Elems {
			elems[i] = m.cloneExpr(el, subst)
		}
		return &hir.ArrayLit{Base: base, Elems: elems}
	case *hir.StructLit:
		fields := make([]hir.StructLitField, len(v.Fields))
		for i, f := range v.Fields {
			fields[i] = hir.StructLitField{Name: f.Name, Value: m.cloneExpr(f.Value, subst)}
		}
		return &hir.StructLit{Base: base, Fields: fields}
	case *hir.Try:
		return &hir.Try{Base: base, Value: m.cloneExpr(v.Value, subst)}
	case *hir.Catch:
		return &hir.Catch{
			Base:     base,
			Value:    m.cloneExpr(v.Value, subst),
			Binding:  v.Binding,
			Handler:  m.cloneStmts(v.Handler, subst),
			Fallback: m.cloneExpr(v.Fallback, subst),
		}
	case *hir.Spawn:
		return &hir.Spawn{Base: base, Body: m.cloneStmts(v.Body, subst)}
	case *hir.Lift:
		return &hir.Lift{Base: base, Value: m.cloneExpr(v.Value, subst)}
	case *hir.Call:
		return m.cloneCall(v, base, subst)
	default:
		return nil
	}
}

// cloneCall clones a Call and, when it still targets a generic template
// (Instantiation != nil), resolves the nested specialization now: the
// template's own type-argument tuple may itself reference the enclosing
// function's type params, which subst has already bound to concrete types
// by the time we get here.
func (m *monomorphizer) cloneCall(v *hir.Call, base hir.Base, subst map[types.DefID]types.TypeID) hir.Expr {
	c := &hir.Call{Base: base, CalleeKind: v.CalleeKind, Method: v.Method}
	switch v.CalleeKind {
	case hir.CallValue:
		c.Callee = m.cloneExpr(v.Callee, subst)
	case hir.CallMethod:
		c.Object = m.cloneExpr(v.Object, subst)
	case hir.CallFn:
		if v.Instantiation != nil {
			args := substTypeSlice(m.in, v.Instantiation.Args, subst)
			c.SpecName = m.specialize(v.Instantiation.Symbol, args)
		} else {
			c.Symbol = v.Symbol
		}
	}
	c.Args = make([]hir.Expr, len(v.Args))
	for i, a := range v.Args {
		c.Args[i] = m.cloneExpr(a, subst)
	}
	return c
}

func (m *monomorphizer) cloneStmt(s hir.Stmt, subst map[types.DefID]types.TypeID) hir.Stmt {
	if s == nil {
		return nil
	}
	sb := hir.StmtBase{Sp: s.Span()}
	switch v := s.(type) {
	case *hir.LetStmt:
		return &hir.LetStmt{StmtBase: sb, Name: v.Name, Type: substType(m.in, v.Type, subst), Value: m.cloneExpr(v.Value, subst), Mut: v.Mut}
	case *hir.ExprStmt:
		return &hir.ExprStmt{StmtBase: sb, Value: m.cloneExpr(v.Value, subst)}
	case *hir.AssignStmt:
		return &hir.AssignStmt{StmtBase: sb, Target: m.cloneExpr(v.Target, subst), Op: v.Op, Value: m.cloneExpr(v.Value, subst)}
	case *hir.Block:
		return m.cloneBlock(v, subst)
	case *hir.If:
		return &hir.If{StmtBase: sb, Cond: m.cloneExpr(v.Cond, subst), Then: m.cloneBlock(v.Then, subst), Else: m.cloneStmt(v.Else, subst)}
	case *hir.While:
		return &hir.While{StmtBase: sb, Cond: m.cloneExpr(v.Cond, subst), Body: m.cloneBlock(v.Body, subst)}
	case *hir.For:
		return &hir.For{StmtBase: sb, Binding: v.Binding, Elem: substType(m.in, v.Elem, subst), Iterable: m.cloneExpr(v.Iterable, subst), Body: m.cloneBlock(v.Body, subst)}
	case *hir.Break:
		return &hir.Break{StmtBase: sb}
	case *hir.Continue:
		return &hir.Continue{StmtBase: sb}
	case *hir.Join:
		return &hir.Join{StmtBase: sb}
	case *hir.Return:
		return &hir.Return{StmtBase: sb, Value: m.cloneExpr(v.Value, subst)}
	case *hir.Throw:
		return &hir.Throw{StmtBase: sb, Value: m.cloneExpr(v.Value, subst)}
	case *hir.Locked:
		return &hir.Locked{StmtBase: sb, Mode: v.Mode, Binding: v.Binding, Elem: substType(m.in, v.Elem, subst), Cell: m.cloneExpr(v.Cell, subst), Body: m.cloneBlock(v.Body, subst)}
	default:
		return nil
	}
}

func (m *monomorphizer) cloneStmts(stmts []hir.Stmt, subst map[types.DefID]types.TypeID) []hir.Stmt {
	if len(stmts) == 0 {
		return nil
	}
	out := make([]hir.Stmt, len(stmts))
	for i, s := range stmts {
		out[i] = m.cloneStmt(s, subst)
	}
	return out
}

func (m *monomorphizer) cloneBlock(b *hir.Block, subst map[types.DefID]types.TypeID) *hir.Block {
	if b == nil {
		return nil
	}
	return &hir.Block{StmtBase: hir.StmtBase{Sp: b.Span()}, Stmts: m.cloneStmts(b.Stmts, subst)}
}
