// Package codegen lowers TAC to accumulator assembly. Arithmetic runs
// through the single ACC register; every integer literal becomes a named
// const_<k> symbol preloaded with k at link time.
package codegen

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/minilab/mlc/pkg/ir"
)

type Mnemonic int

const (
	LOAD Mnemonic = iota
	STORE
	ADD
	SUB
	MUL
	DIV
	JMP
	JLT
	JGT
	JLE
	JGE
	JEQ
	JNE
	IN
	OUT
	LABEL
	HALT
)

var mnemonicStrings = map[Mnemonic]string{
	LOAD: "LOAD", STORE: "STORE", ADD: "ADD", SUB: "SUB", MUL: "MUL", DIV: "DIV",
	JMP: "JMP", JLT: "JLT", JGT: "JGT", JLE: "JLE", JGE: "JGE", JEQ: "JEQ", JNE: "JNE",
	IN: "IN", OUT: "OUT", LABEL: "LABEL", HALT: "HALT",
}

func (m Mnemonic) String() string { return mnemonicStrings[m] }

// Instr is one assembly line: a mnemonic and an optional operand (symbol
// name or label name; empty for HALT).
type Instr struct {
	Mn      Mnemonic
	Operand string
}

func (i Instr) String() string {
	if i.Operand == "" {
		return i.Mn.String()
	}
	return i.Mn.String() + " " + i.Operand
}

// Assembly is the generated program plus the data the linker needs: which
// symbols occupy memory and which constants must be preloaded.
type Assembly struct {
	Instrs []Instr
	Vars   map[string]struct{}
	Temps  map[int]struct{}
	Consts map[string]int64 // const_<k> -> k
}

// Format renders the assembly one instruction per line.
func (a *Assembly) Format() string {
	var sb strings.Builder
	for _, ins := range a.Instrs {
		sb.WriteString(ins.String())
		sb.WriteByte('\n')
	}
	return sb.String()
}

type Generator struct {
	out    []Instr
	vars   map[string]struct{}
	temps  map[int]struct{}
	consts map[string]int64
}

func NewGenerator() *Generator {
	return &Generator{
		vars:   make(map[string]struct{}),
		temps:  make(map[int]struct{}),
		consts: make(map[string]int64),
	}
}

func (g *Generator) emit(mn Mnemonic, operand string) {
	g.out = append(g.out, Instr{Mn: mn, Operand: operand})
}

// sym records a data operand and returns its symbol name. Literals become
// constant symbols.
func (g *Generator) sym(operand ir.Operand) string {
	switch o := operand.(type) {
	case ir.Var:
		g.vars[o.Name] = struct{}{}
		return o.Name
	case ir.Temp:
		g.temps[o.ID] = struct{}{}
		return o.String()
	case ir.Literal:
		return g.constSym(o.Value)
	}
	panic(fmt.Sprintf("codegen: operand %v cannot address memory", operand))
}

func (g *Generator) constSym(v int64) string {
	name := "const_" + strconv.FormatInt(v, 10)
	g.consts[name] = v
	return name
}

// Generate lowers a TAC program. The terminal END label becomes LABEL END
// followed by HALT.
func (g *Generator) Generate(prog []ir.Instr) *Assembly {
	for _, ins := range prog {
		g.emitInstr(ins)
	}
	return &Assembly{Instrs: g.out, Vars: g.vars, Temps: g.temps, Consts: g.consts}
}

func (g *Generator) emitInstr(ins ir.Instr) {
	switch {
	case ins.Op == ir.OpAssign:
		g.emit(LOAD, g.sym(ins.A1))
		g.emit(STORE, g.sym(ins.Dst))

	case ins.Op == ir.OpNeg:
		g.emit(LOAD, g.constSym(0))
		g.emit(SUB, g.sym(ins.A1))
		g.emit(STORE, g.sym(ins.Dst))

	case ins.Op == ir.OpAdd || ins.Op == ir.OpSub || ins.Op == ir.OpMul || ins.Op == ir.OpDiv:
		g.emit(LOAD, g.sym(ins.A1))
		g.emit(arithMnemonic(ins.Op), g.sym(ins.A2))
		g.emit(STORE, g.sym(ins.Dst))

	case ins.Op.IsRelational():
		g.emitRelational(ins)

	case ins.Op == ir.OpIfNZ:
		g.emit(LOAD, g.sym(ins.A1))
		g.emit(JNE, ins.A2.String())

	case ins.Op == ir.OpGoto:
		g.emit(JMP, ins.A1.String())

	case ins.Op == ir.OpLabel:
		name := ins.A1.String()
		g.emit(LABEL, name)
		if name == ir.EndLabel {
			g.emit(HALT, "")
		}

	case ins.Op == ir.OpRead:
		g.emit(IN, g.sym(ins.A1))

	case ins.Op == ir.OpPrint:
		g.emit(OUT, g.sym(ins.A1))

	default:
		panic(fmt.Sprintf("codegen: unsupported TAC op %s", ins.Op))
	}
}

// emitRelational materializes a 0/1 comparison result. ACC holds a-b; the
// truth jump selects the branch that stores 1. Label names derive from the
// destination temporary, which is unique per comparison.
func (g *Generator) emitRelational(ins ir.Instr) {
	dst := g.sym(ins.Dst)
	lTrue := "LBL_TRUE_" + dst
	lEnd := "LBL_END_" + dst

	g.emit(LOAD, g.sym(ins.A1))
	g.emit(SUB, g.sym(ins.A2))
	g.emit(truthJump(ins.Op), lTrue)
	g.emit(LOAD, g.constSym(0))
	g.emit(STORE, dst)
	g.emit(JMP, lEnd)
	g.emit(LABEL, lTrue)
	g.emit(LOAD, g.constSym(1))
	g.emit(STORE, dst)
	g.emit(LABEL, lEnd)
}

func arithMnemonic(op ir.Op) Mnemonic {
	switch op {
	case ir.OpAdd:
		return ADD
	case ir.OpSub:
		return SUB
	case ir.OpMul:
		return MUL
	case ir.OpDiv:
		return DIV
	}
	panic(fmt.Sprintf("codegen: %s is not an arithmetic op", op))
}

// truthJump maps a relational op to the jump taken when ACC = a-b proves
// the relation against zero.
func truthJump(op ir.Op) Mnemonic {
	switch op {
	case ir.OpLt:
		return JLT
	case ir.OpGt:
		return JGT
	case ir.OpLe:
		return JLE
	case ir.OpGe:
		return JGE
	case ir.OpEq:
		return JEQ
	case ir.OpNe:
		return JNE
	}
	panic(fmt.Sprintf("codegen: %s is not a relational op", op))
}
