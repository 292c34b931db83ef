// Package sem performs flow-sensitive definite-initialization analysis. The
// analysis tracks the set of variables guaranteed to be assigned at each
// program point; reads outside that set produce warnings, never errors.
//
// The analysis is deliberately conservative: a single pass, no fixed point
// for loops. A while body is checked for reads but contributes nothing to
// the set afterwards, since the loop may run zero times.
package sem

import (
	"github.com/minilab/mlc/pkg/ast"
	"github.com/minilab/mlc/pkg/config"
	"github.com/minilab/mlc/pkg/util"
)

type SymbolInfo struct {
	Name        string
	Initialized bool
}

type SymbolTable map[string]*SymbolInfo

func (t SymbolTable) Declare(name string) {
	if _, ok := t[name]; !ok {
		t[name] = &SymbolInfo{Name: name}
	}
}

func (t SymbolTable) SetInitialized(name string) {
	t.Declare(name)
	t[name].Initialized = true
}

func (t SymbolTable) IsInitialized(name string) bool {
	info, ok := t[name]
	return ok && info.Initialized
}

type Result struct {
	Table    SymbolTable
	Warnings []util.Diag
}

type Analyzer struct {
	cfg      *config.Config
	table    SymbolTable
	warnings []util.Diag
}

func NewAnalyzer(cfg *config.Config) *Analyzer {
	return &Analyzer{cfg: cfg, table: make(SymbolTable)}
}

type initSet map[string]struct{}

func (s initSet) clone() initSet {
	out := make(initSet, len(s))
	for k := range s {
		out[k] = struct{}{}
	}
	return out
}

// Analyze walks the program and returns the populated symbol table plus the
// accumulated warnings, in source order.
func (a *Analyzer) Analyze(program *ast.Node) *Result {
	init := make(initSet)
	init = a.analyzeStmts(program.Stmts(), init)
	for name := range init {
		a.table.SetInitialized(name)
	}
	return &Result{Table: a.table, Warnings: a.warnings}
}

func (a *Analyzer) analyzeStmts(stmts []*ast.Node, init initSet) initSet {
	for _, stmt := range stmts {
		init = a.analyzeStmt(stmt, init)
	}
	return init
}

func (a *Analyzer) analyzeStmt(stmt *ast.Node, init initSet) initSet {
	switch stmt.Type {
	case ast.Read:
		d := stmt.Data.(ast.ReadNode)
		a.table.Declare(d.Name)
		init[d.Name] = struct{}{}
		return init
	case ast.Print:
		a.checkExpr(stmt.Data.(ast.PrintNode).Expr, init)
		return init
	case ast.Assign:
		d := stmt.Data.(ast.AssignNode)
		a.checkExpr(d.Expr, init)
		a.table.Declare(d.Name)
		init[d.Name] = struct{}{}
		return init
	case ast.If:
		d := stmt.Data.(ast.IfNode)
		a.checkExpr(d.Cond, init)
		thenOut := a.analyzeStmts(d.ThenBody.Stmts(), init.clone())
		elseOut := a.analyzeStmts(d.ElseBody.Stmts(), init.clone())
		// Only variables assigned on both arms are definite afterwards.
		guaranteed := make(initSet)
		for name := range thenOut {
			if _, ok := elseOut[name]; ok {
				guaranteed[name] = struct{}{}
			}
		}
		return guaranteed
	case ast.While:
		d := stmt.Data.(ast.WhileNode)
		a.checkExpr(d.Cond, init)
		a.analyzeStmts(d.Body.Stmts(), init.clone())
		return init
	}
	return init
}

func (a *Analyzer) checkExpr(expr *ast.Node, init initSet) {
	switch expr.Type {
	case ast.Number:
	case ast.Ident:
		name := expr.Data.(ast.IdentNode).Name
		a.table.Declare(name)
		if _, ok := init[name]; !ok {
			if a.cfg == nil || a.cfg.IsWarningEnabled(config.WarnUninit) {
				a.warnings = append(a.warnings, util.Diag{
					Tok: expr.Tok,
					Msg: "variable '" + name + "' may be uninitialized",
				})
			}
		}
	case ast.UnaryOp:
		a.checkExpr(expr.Data.(ast.UnaryOpNode).Expr, init)
	case ast.BinaryOp:
		d := expr.Data.(ast.BinaryOpNode)
		a.checkExpr(d.Left, init)
		a.checkExpr(d.Right, init)
	}
}
