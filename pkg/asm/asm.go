// Package asm assembles accumulator assembly into the flat machine program
// the VM executes. Two phases: assemble scans instructions and records the
// label map (labels occupy no code space); link lays out memory, preloads
// constants, and resolves every operand to an address or instruction index.
package asm

import (
	"fmt"
	"sort"
	"strings"

	"github.com/minilab/mlc/pkg/codegen"
	"github.com/minilab/mlc/pkg/token"
	"github.com/minilab/mlc/pkg/util"
)

// Opcode table. Part of the external contract: any VM consuming an emitted
// machine program implements exactly these values.
var Opcodes = map[codegen.Mnemonic]int64{
	codegen.LOAD:  1,
	codegen.STORE: 2,
	codegen.ADD:   3,
	codegen.SUB:   4,
	codegen.MUL:   5,
	codegen.DIV:   6,
	codegen.JMP:   7,
	codegen.JLT:   8,
	codegen.JGT:   9,
	codegen.JLE:   10,
	codegen.JGE:   11,
	codegen.JEQ:   12,
	codegen.JNE:   13,
	codegen.IN:    14,
	codegen.OUT:   15,
	codegen.HALT:  16,
}

// Program is the linked machine program: code as [opcode, operand] pairs,
// the memory address of every symbol, the constant preload map, and the
// label map kept for inspection.
type Program struct {
	Code     []int64
	SymAddrs map[string]int
	MemInit  map[int]int64
	Labels   map[string]int
}

// MemorySize returns the number of memory cells the program addresses.
func (p *Program) MemorySize() int {
	max := -1
	for _, addr := range p.SymAddrs {
		if addr > max {
			max = addr
		}
	}
	return max + 1
}

// Format serializes the program in the stable text form: the code array as
// whitespace-separated decimals, then the symbol and constant maps sorted by
// name and address.
func (p *Program) Format() string {
	var sb strings.Builder
	sb.WriteString("CODE:")
	for _, v := range p.Code {
		fmt.Fprintf(&sb, " %d", v)
	}
	sb.WriteByte('\n')

	names := make([]string, 0, len(p.SymAddrs))
	for name := range p.SymAddrs {
		names = append(names, name)
	}
	sort.Strings(names)
	sb.WriteString("SYMS:")
	for _, name := range names {
		fmt.Fprintf(&sb, " %s=%d", name, p.SymAddrs[name])
	}
	sb.WriteByte('\n')

	addrs := make([]int, 0, len(p.MemInit))
	for addr := range p.MemInit {
		addrs = append(addrs, addr)
	}
	sort.Ints(addrs)
	sb.WriteString("MEM_INIT:")
	for _, addr := range addrs {
		fmt.Fprintf(&sb, " %d=%d", addr, p.MemInit[addr])
	}
	sb.WriteByte('\n')
	return sb.String()
}

type Assembler struct {
	instrs []codegen.Instr
	labels map[string]int
}

func NewAssembler() *Assembler {
	return &Assembler{labels: make(map[string]int)}
}

// Build runs both phases over a generated assembly.
func Build(assembly *codegen.Assembly) (*Program, error) {
	a := NewAssembler()
	if err := a.Assemble(assembly.Instrs); err != nil {
		return nil, err
	}
	return a.Link(assembly)
}

// Assemble scans the instruction stream. LABEL lines map their name to the
// index of the next real instruction; everything else occupies one
// instruction slot.
func (a *Assembler) Assemble(instrs []codegen.Instr) error {
	pc := 0
	for _, ins := range instrs {
		if ins.Mn == codegen.LABEL {
			if _, exists := a.labels[ins.Operand]; exists {
				return linkErrf("duplicate label '%s'", ins.Operand)
			}
			a.labels[ins.Operand] = pc
			continue
		}
		a.instrs = append(a.instrs, ins)
		pc++
	}
	return nil
}

// Link assigns memory addresses in deterministic order (constants by value,
// then variables lexicographically, then temporaries by numeric suffix),
// builds the constant preload map, and resolves every operand.
func (a *Assembler) Link(assembly *codegen.Assembly) (*Program, error) {
	symAddrs := make(map[string]int)
	memInit := make(map[int]int64)
	addr := 0

	constNames := make([]string, 0, len(assembly.Consts))
	for name := range assembly.Consts {
		constNames = append(constNames, name)
	}
	sort.Slice(constNames, func(i, j int) bool {
		return assembly.Consts[constNames[i]] < assembly.Consts[constNames[j]]
	})
	for _, name := range constNames {
		symAddrs[name] = addr
		memInit[addr] = assembly.Consts[name]
		addr++
	}

	varNames := make([]string, 0, len(assembly.Vars))
	for name := range assembly.Vars {
		varNames = append(varNames, name)
	}
	sort.Strings(varNames)
	for _, name := range varNames {
		if _, ok := symAddrs[name]; !ok {
			symAddrs[name] = addr
			addr++
		}
	}

	tempIDs := make([]int, 0, len(assembly.Temps))
	for id := range assembly.Temps {
		tempIDs = append(tempIDs, id)
	}
	sort.Ints(tempIDs)
	for _, id := range tempIDs {
		name := fmt.Sprintf("t%d", id)
		if _, ok := symAddrs[name]; !ok {
			symAddrs[name] = addr
			addr++
		}
	}

	code := make([]int64, 0, len(a.instrs)*2)
	for _, ins := range a.instrs {
		opcode, ok := Opcodes[ins.Mn]
		if !ok {
			return nil, linkErrf("unknown mnemonic '%s'", ins.Mn)
		}
		operand, err := a.resolveOperand(ins, symAddrs)
		if err != nil {
			return nil, err
		}
		code = append(code, opcode, operand)
	}

	return &Program{Code: code, SymAddrs: symAddrs, MemInit: memInit, Labels: a.labels}, nil
}

func (a *Assembler) resolveOperand(ins codegen.Instr, symAddrs map[string]int) (int64, error) {
	switch ins.Mn {
	case codegen.HALT:
		return -1, nil
	case codegen.JMP, codegen.JLT, codegen.JGT, codegen.JLE, codegen.JGE, codegen.JEQ, codegen.JNE:
		idx, ok := a.labels[ins.Operand]
		if !ok {
			return 0, linkErrf("unresolved label '%s'", ins.Operand)
		}
		return int64(idx), nil
	default:
		addr, ok := symAddrs[ins.Operand]
		if !ok {
			return 0, linkErrf("unresolved symbol '%s'", ins.Operand)
		}
		return int64(addr), nil
	}
}

func linkErrf(format string, args ...interface{}) error {
	return util.Errf(util.LinkError, token.Token{}, format, args...)
}
