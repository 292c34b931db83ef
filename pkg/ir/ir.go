// Package ir lowers the AST to three-address code. Operands are a closed
// tagged variant (variable, temporary, literal, label) so later stages
// dispatch on kind instead of parsing strings.
package ir

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/minilab/mlc/pkg/ast"
	"github.com/minilab/mlc/pkg/token"
)

type Op int

const (
	OpAssign Op = iota
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpNeg
	OpLt
	OpGt
	OpLe
	OpGe
	OpEq
	OpNe
	OpLabel
	OpGoto
	OpIfNZ
	OpRead
	OpPrint
)

var opStrings = map[Op]string{
	OpAssign: "assign",
	OpAdd:    "+",
	OpSub:    "-",
	OpMul:    "*",
	OpDiv:    "/",
	OpNeg:    "uminus",
	OpLt:     "<",
	OpGt:     ">",
	OpLe:     "<=",
	OpGe:     ">=",
	OpEq:     "==",
	OpNe:     "!=",
	OpLabel:  "label",
	OpGoto:   "goto",
	OpIfNZ:   "ifnz",
	OpRead:   "read",
	OpPrint:  "print",
}

func (o Op) String() string { return opStrings[o] }

// IsRelational reports whether the op yields a 0/1 comparison result.
func (o Op) IsRelational() bool { return o >= OpLt && o <= OpNe }

type Operand interface {
	isOperand()
	String() string
}

type Var struct{ Name string }
type Temp struct{ ID int }
type Literal struct{ Value int64 }
type LabelRef struct{ Name string }

func (Var) isOperand()      {}
func (Temp) isOperand()     {}
func (Literal) isOperand()  {}
func (LabelRef) isOperand() {}

func (v Var) String() string      { return v.Name }
func (t Temp) String() string     { return "t" + strconv.Itoa(t.ID) }
func (l Literal) String() string  { return strconv.FormatInt(l.Value, 10) }
func (l LabelRef) String() string { return l.Name }

// EndLabel terminates every TAC program.
const EndLabel = "END"

// Instr is one TAC quadruple. Unused slots are nil.
type Instr struct {
	Op  Op
	A1  Operand
	A2  Operand
	Dst Operand
}

func (i Instr) String() string {
	parts := []string{i.Op.String()}
	for _, operand := range []Operand{i.A1, i.A2, i.Dst} {
		if operand != nil {
			parts = append(parts, operand.String())
		}
	}
	return strings.Join(parts, " ")
}

// Format renders a TAC program one instruction per line.
func Format(instrs []Instr) string {
	var sb strings.Builder
	for _, ins := range instrs {
		sb.WriteString(ins.String())
		sb.WriteByte('\n')
	}
	return sb.String()
}

// Generator lowers an AST to TAC. Temporary and label counters are scoped to
// one generator, so each compilation starts at t1/L1.
type Generator struct {
	tempCount  int
	labelCount int
	out        []Instr
}

func NewGenerator() *Generator { return &Generator{} }

func (g *Generator) newTemp() Temp {
	g.tempCount++
	return Temp{ID: g.tempCount}
}

func (g *Generator) newLabel() LabelRef {
	g.labelCount++
	return LabelRef{Name: fmt.Sprintf("L%d", g.labelCount)}
}

func (g *Generator) emit(ins Instr) { g.out = append(g.out, ins) }

// Generate lowers the program and appends the terminal END label.
func (g *Generator) Generate(program *ast.Node) []Instr {
	g.out = nil
	for _, stmt := range program.Stmts() {
		g.emitStmt(stmt)
	}
	g.emit(Instr{Op: OpLabel, A1: LabelRef{Name: EndLabel}})
	return g.out
}

func (g *Generator) emitStmt(stmt *ast.Node) {
	switch stmt.Type {
	case ast.Read:
		g.emit(Instr{Op: OpRead, A1: Var{Name: stmt.Data.(ast.ReadNode).Name}})
	case ast.Print:
		val := g.emitExpr(stmt.Data.(ast.PrintNode).Expr)
		g.emit(Instr{Op: OpPrint, A1: val})
	case ast.Assign:
		d := stmt.Data.(ast.AssignNode)
		val := g.emitExpr(d.Expr)
		g.emit(Instr{Op: OpAssign, A1: val, Dst: Var{Name: d.Name}})
	case ast.If:
		d := stmt.Data.(ast.IfNode)
		cond := g.emitExpr(d.Cond)
		lTrue := g.newLabel()
		lEnd := g.newLabel()
		g.emit(Instr{Op: OpIfNZ, A1: cond, A2: lTrue})
		for _, s := range d.ElseBody.Stmts() {
			g.emitStmt(s)
		}
		g.emit(Instr{Op: OpGoto, A1: lEnd})
		g.emit(Instr{Op: OpLabel, A1: lTrue})
		for _, s := range d.ThenBody.Stmts() {
			g.emitStmt(s)
		}
		g.emit(Instr{Op: OpLabel, A1: lEnd})
	case ast.While:
		d := stmt.Data.(ast.WhileNode)
		lStart := g.newLabel()
		lBody := g.newLabel()
		lEnd := g.newLabel()
		g.emit(Instr{Op: OpLabel, A1: lStart})
		cond := g.emitExpr(d.Cond)
		g.emit(Instr{Op: OpIfNZ, A1: cond, A2: lBody})
		g.emit(Instr{Op: OpGoto, A1: lEnd})
		g.emit(Instr{Op: OpLabel, A1: lBody})
		for _, s := range d.Body.Stmts() {
			g.emitStmt(s)
		}
		g.emit(Instr{Op: OpGoto, A1: lStart})
		g.emit(Instr{Op: OpLabel, A1: lEnd})
	case ast.Block:
		for _, s := range stmt.Stmts() {
			g.emitStmt(s)
		}
	default:
		panic(fmt.Sprintf("ir: unexpected statement node %d", stmt.Type))
	}
}

// emitExpr lowers an expression post-order and returns the operand holding
// its value. Each subexpression result lands in a fresh temporary; bare
// variable references are used directly.
func (g *Generator) emitExpr(expr *ast.Node) Operand {
	switch expr.Type {
	case ast.Number:
		t := g.newTemp()
		g.emit(Instr{Op: OpAssign, A1: Literal{Value: expr.Data.(ast.NumberNode).Value}, Dst: t})
		return t
	case ast.Ident:
		return Var{Name: expr.Data.(ast.IdentNode).Name}
	case ast.UnaryOp:
		d := expr.Data.(ast.UnaryOpNode)
		val := g.emitExpr(d.Expr)
		t := g.newTemp()
		g.emit(Instr{Op: OpNeg, A1: val, Dst: t})
		return t
	case ast.BinaryOp:
		d := expr.Data.(ast.BinaryOpNode)
		left := g.emitExpr(d.Left)
		right := g.emitExpr(d.Right)
		t := g.newTemp()
		g.emit(Instr{Op: binaryOpFor(d.Op), A1: left, A2: right, Dst: t})
		return t
	default:
		panic(fmt.Sprintf("ir: unexpected expression node %d", expr.Type))
	}
}

func binaryOpFor(op token.Type) Op {
	switch op {
	case token.Plus:
		return OpAdd
	case token.Minus:
		return OpSub
	case token.Star:
		return OpMul
	case token.Slash:
		return OpDiv
	case token.Lt:
		return OpLt
	case token.Gt:
		return OpGt
	case token.Lte:
		return OpLe
	case token.Gte:
		return OpGe
	case token.EqEq:
		return OpEq
	case token.Neq:
		return OpNe
	}
	panic(fmt.Sprintf("ir: unexpected binary operator %d", op))
}
