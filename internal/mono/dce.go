package mono

import "github.com/kahflane/naml/internal/hir"

// applyDCE drops every function unreachable from a root, mirroring the
// teacher's internal/mono/dce.go but with naml's much smaller root set:
// fn main() (the only entrypoint, §6.4) and every method, since a method
// call is a CallMethod that internal/mir resolves by receiver type at
// lowering time, not a named CallFn edge this pass can follow.
func applyDCE(mod *hir.Module) {
	byName := make(map[string]*hir.Func, len(mod.Funcs))
	for _, f := range mod.Funcs {
		byName[f.Name] = f
	}

	var roots []*hir.Func
	for _, f := range mod.Funcs {
		if f.Name == "main" || f.MethodName != "" {
			roots = append(roots, f)
		}
	}
	if len(roots) == 0 {
		return
	}

	reachable := make(map[string]bool, len(mod.Funcs))
	work := append([]*hir.Func(nil), roots...)
	for len(work) > 0 {
		last := len(work) - 1
		f := work[last]
		work = work[:last]
		if reachable[f.Name] {
			continue
		}
		reachable[f.Name] = true
		for _, name := range calleeNames(f.Body) {
			if callee, ok := byName[name]; ok && !reachable[callee.Name] {
				work = append(work, callee)
			}
		}
	}

	kept := mod.Funcs[:0]
	for _, f := range mod.Funcs {
		if reachable[f.Name] {
			kept = append(kept, f)
		}
	}
	mod.Funcs = kept
}

// calleeNames collects the SpecName of every direct, statically-named call
// in body: CallValue (through a closure value) and CallMethod (resolved
// by receiver type in internal/mir) callees aren't known by name here, so DCE only prunes
// what it can prove unreachable through CallFn edges.
func calleeNames(body *hir.Block) []string {
	var names []string
	var walkStmt func(hir.Stmt)
	var walkExpr func(hir.Expr)

	walkExpr = func(e hir.Expr) {
		switch v := e.(type) {
		case nil:
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
			if v.CalleeKind == hir.CallFn && v.SpecName != "" {
				names = append(names, v.SpecName)
			}
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
		case *hir.ExprStmt:
			walkExpr(v.Value)
		case *hir.AssignStmt:
			walkExpr(v.Target)
			walkExpr(v.Value)
		case *hir.Block:
			if v == nil {
				return
			}
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
			walkStmt(v.Body)
		case *hir.Return:
			walkExpr(v.Value)
		case *hir.Throw:
			walkExpr(v.Value)
		case *hir.Locked:
			walkExpr(v.Cell)
			walkStmt(v.Body)
		}
	}

	if body != nil {
		walkStmt(body)
	}
	return names
}
