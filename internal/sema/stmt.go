package sema

import (
	"github.com/kahflane/naml/internal/ast"
	"github.com/kahflane/naml/internal/diag"
	"github.com/kahflane/naml/internal/symbols"
	"github.com/kahflane/naml/internal/types"
)

func (fc *fnCtx) child() *fnCtx {
	child := *fc
	child.scope = fc.scope.Child()
	return &child
}

func (fc *fnCtx) checkBlock(b *ast.BlockStmt) {
	if b == nil {
		return
	}
	inner := fc.child()
	for _, s := range b.Stmts {
		inner.checkStmt(s)
	}
}

func (fc *fnCtx) checkStmts(stmts []ast.Stmt) {
	inner := fc.child()
	for _, s := range stmts {
		inner.checkStmt(s)
	}
}

func (fc *fnCtx) checkStmt(s ast.Stmt) {
	tc := fc.tc
	in := tc.result.Types
	switch v := s.(type) {
	case *ast.LetStmt:
		declared := tc.resolveType(v.Type)
		tc.result.LetTypes[v] = declared
		got := fc.checkExpr(v.Value, declared)
		if !fc.assignableInit(got, declared) {
			tc.errorf(diag.TypeMismatch, v.Value.Span(), "cannot assign %s to variable %q of type %s", in.String(got), v.Name, in.String(declared))
		}
		fc.scope.Declare(v.Name, symbols.LocalBinding{Type: declared, Mut: v.Mut})

	case *ast.ExprStmt:
		fc.checkExpr(v.Value, types.NoTypeID)

	case *ast.AssignStmt:
		targetType := fc.checkExpr(v.Target, types.NoTypeID)
		valType := fc.checkExpr(v.Value, targetType)
		if v.Op != ast.AssignSet && !in.IsNumeric(targetType) {
			tc.errorf(diag.TypeMismatch, v.Span(), "compound assignment requires a numeric operand")
		}
		if !fc.assignableInit(valType, targetType) {
			tc.errorf(diag.TypeMismatch, v.Value.Span(), "cannot assign %s to %s", in.String(valType), in.String(targetType))
		}

	case *ast.BlockStmt:
		fc.checkStmts(v.Stmts)

	case *ast.IfStmt:
		cond := fc.checkExpr(v.Cond, in.Builtins().Bool)
		if cond != in.Builtins().Bool && cond != types.NoTypeID {
			tc.errorf(diag.TypeMismatch, v.Cond.Span(), "if condition must be bool, found %s", in.String(cond))
		}
		fc.checkBlock(v.Then)
		if v.Else != nil {
			fc.checkStmt(v.Else)
		}

	case *ast.WhileStmt:
		cond := fc.checkExpr(v.Cond, in.Builtins().Bool)
		if cond != in.Builtins().Bool && cond != types.NoTypeID {
			tc.errorf(diag.TypeMismatch, v.Cond.Span(), "while condition must be bool, found %s", in.String(cond))
		}
		fc.checkBlock(v.Body)

	case *ast.ForStmt:
		iterType := fc.checkExpr(v.Iterable, types.NoTypeID)
		elem := types.NoTypeID
		if in.Lookup(iterType).Kind == types.KindArray {
			elem = in.Lookup(iterType).Elem
		} else if iterType != types.NoTypeID {
			tc.errorf(diag.TypeMismatch, v.Iterable.Span(), "for-loop iterable must be an array, found %s", in.String(iterType))
		}
		inner := fc.child()
		inner.scope.Declare(v.Binding, symbols.LocalBinding{Type: elem})
		inner.checkStmts(v.Body.Stmts)

	case *ast.BreakStmt, *ast.ContinueStmt, *ast.JoinStmt:
		// Structural only; nothing to type-check.

	case *ast.ReturnStmt:
		if v.Value == nil {
			if fc.ret != in.Builtins().Unit && fc.ret != types.NoTypeID {
				tc.errorf(diag.TypeMismatch, v.Span(), "missing return value of type %s", in.String(fc.ret))
			}
			return
		}
		got := fc.checkExpr(v.Value, fc.ret)
		if !fc.assignableReturn(got, fc.ret) {
			tc.errorf(diag.TypeMismatch, v.Value.Span(), "cannot return %s as %s", in.String(got), in.String(fc.ret))
		}

	case *ast.ThrowStmt:
		got := fc.checkExpr(v.Value, types.NoTypeID)
		if in.Lookup(got).Kind != types.KindException {
			tc.errorf(diag.TypeMismatch, v.Value.Span(), "throw operand must be an exception type, found %s", in.String(got))
			return
		}
		if !fc.throws[got] {
			tc.errorf(diag.TypeThrowsNotDeclared, v.Span(), "%s is not declared in this function's throws set", in.String(got))
		}

	case *ast.LockedStmt:
		fc.checkLocked(v)

	default:
		// Unreachable for a complete Stmt implementer set.
	}
}

func (fc *fnCtx) checkLocked(v *ast.LockedStmt) {
	tc := fc.tc
	in := tc.result.Types
	cellType := fc.checkExpr(v.Cell, types.NoTypeID)
	cell := in.Lookup(cellType)

	var wantKind types.Kind
	switch v.Mode {
	case ast.LockExclusive:
		wantKind = types.KindMutex
	case ast.LockRead, ast.LockWrite:
		wantKind = types.KindRwLock
	}
	if cell.Kind != wantKind {
		tc.errorf(diag.TypeMismatch, v.Cell.Span(), "locked binding requires a %s value, found %s", wantKind, in.String(cellType))
		return
	}
	inner := fc.child()
	inner.scope.Declare(v.Binding, symbols.LocalBinding{Type: cell.Elem, Mut: true})
	inner.checkStmts(v.Body.Stmts)
}
