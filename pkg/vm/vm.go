// Package vm interprets linked machine programs. The machine has a single
// accumulator, a flat signed-integer memory sized at link time, and a PC
// that indexes code slots and advances by 2 per instruction; jump operands
// are instruction indices, doubled on use.
package vm

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/minilab/mlc/pkg/asm"
)

type ErrorKind int

const (
	DivideByZero ErrorKind = iota
	InputExhausted
	UnknownOpcode
)

var errorKindStrings = map[ErrorKind]string{
	DivideByZero:   "division by zero",
	InputExhausted: "input exhausted",
	UnknownOpcode:  "unknown opcode",
}

// RuntimeError is a structured VM failure, distinct from successful
// termination.
type RuntimeError struct {
	Kind ErrorKind
	PC   int
	Op   int64
}

func (e *RuntimeError) Error() string {
	msg := fmt.Sprintf("runtime error: %s at pc=%d", errorKindStrings[e.Kind], e.PC)
	if e.Kind == UnknownOpcode {
		msg += fmt.Sprintf(" (opcode %d)", e.Op)
	}
	return msg
}

// TraceEntry records the machine state after one executed instruction.
// Mem holds at most the first 32 cells.
type TraceEntry struct {
	PC  int // PC before the fetch
	Op  int64
	Arg int64
	Acc int64
	Mem []int64
}

func (t TraceEntry) String() string {
	parts := make([]string, len(t.Mem))
	for i, v := range t.Mem {
		parts[i] = strconv.FormatInt(v, 10)
	}
	return fmt.Sprintf("pc=%d op=%d arg=%d acc=%d mem=[%s]", t.PC, t.Op, t.Arg, t.Acc, strings.Join(parts, " "))
}

type Result struct {
	Outputs []int64
	Trace   []TraceEntry
}

type VM struct {
	code         []int64
	pc           int
	acc          int64
	mem          []int64
	outputs      []int64
	input        func() (int64, error)
	traceEnabled bool
	trace        []TraceEntry
}

type Option func(*VM)

// WithInputs preloads the values consumed by IN. Exhausting the batch is a
// runtime error.
func WithInputs(inputs []int64) Option {
	return func(m *VM) {
		remaining := append([]int64(nil), inputs...)
		m.input = func() (int64, error) {
			if len(remaining) == 0 {
				return 0, &RuntimeError{Kind: InputExhausted}
			}
			v := remaining[0]
			remaining = remaining[1:]
			return v, nil
		}
	}
}

// WithInputFunc installs a custom input source.
func WithInputFunc(fn func() (int64, error)) Option {
	return func(m *VM) { m.input = fn }
}

// WithTrace records a TraceEntry after every executed instruction.
func WithTrace() Option {
	return func(m *VM) { m.traceEnabled = true }
}

func New(prog *asm.Program, opts ...Option) *VM {
	size := prog.MemorySize()
	if size < 1 {
		size = 1
	}
	m := &VM{
		code: prog.Code,
		mem:  make([]int64, size),
	}
	for addr, val := range prog.MemInit {
		if addr >= 0 && addr < len(m.mem) {
			m.mem[addr] = val
		}
	}
	m.input = stdinInput
	for _, opt := range opts {
		opt(m)
	}
	return m
}

var stdinReader *bufio.Reader

func stdinInput() (int64, error) {
	if stdinReader == nil {
		stdinReader = bufio.NewReader(os.Stdin)
	}
	fmt.Print("> ")
	line, err := stdinReader.ReadString('\n')
	if err != nil && line == "" {
		return 0, &RuntimeError{Kind: InputExhausted}
	}
	v, err := strconv.ParseInt(strings.TrimSpace(line), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid input: %w", err)
	}
	return v, nil
}

// Run executes the loaded program until HALT, the end of code, or a runtime
// error. Memory is never grown during execution.
func (m *VM) Run() (*Result, error) {
	for m.pc < len(m.code) {
		pcBefore := m.pc
		op := m.code[m.pc]
		var arg int64 = -1
		if m.pc+1 < len(m.code) {
			arg = m.code[m.pc+1]
		}
		m.pc += 2

		halt, err := m.dispatch(op, arg, pcBefore)
		if err != nil {
			return nil, err
		}
		if m.traceEnabled {
			m.trace = append(m.trace, m.snapshot(pcBefore, op, arg))
		}
		if halt {
			break
		}
	}
	return &Result{Outputs: m.outputs, Trace: m.trace}, nil
}

func (m *VM) dispatch(op, arg int64, pc int) (halt bool, err error) {
	switch op {
	case 1: // LOAD
		m.acc = m.mem[arg]
	case 2: // STORE
		m.mem[arg] = m.acc
	case 3: // ADD
		m.acc += m.mem[arg]
	case 4: // SUB
		m.acc -= m.mem[arg]
	case 5: // MUL
		m.acc *= m.mem[arg]
	case 6: // DIV
		if m.mem[arg] == 0 {
			return false, &RuntimeError{Kind: DivideByZero, PC: pc}
		}
		m.acc /= m.mem[arg]
	case 7: // JMP
		m.pc = int(arg) * 2
	case 8: // JLT
		if m.acc < 0 {
			m.pc = int(arg) * 2
		}
	case 9: // JGT
		if m.acc > 0 {
			m.pc = int(arg) * 2
		}
	case 10: // JLE
		if m.acc <= 0 {
			m.pc = int(arg) * 2
		}
	case 11: // JGE
		if m.acc >= 0 {
			m.pc = int(arg) * 2
		}
	case 12: // JEQ
		if m.acc == 0 {
			m.pc = int(arg) * 2
		}
	case 13: // JNE
		if m.acc != 0 {
			m.pc = int(arg) * 2
		}
	case 14: // IN
		v, err := m.input()
		if err != nil {
			if rte, ok := err.(*RuntimeError); ok {
				rte.PC = pc
			}
			return false, err
		}
		m.mem[arg] = v
	case 15: // OUT
		m.outputs = append(m.outputs, m.mem[arg])
	case 16: // HALT
		return true, nil
	default:
		return false, &RuntimeError{Kind: UnknownOpcode, PC: pc, Op: op}
	}
	return false, nil
}

func (m *VM) snapshot(pc int, op, arg int64) TraceEntry {
	n := len(m.mem)
	if n > 32 {
		n = 32
	}
	return TraceEntry{
		PC:  pc,
		Op:  op,
		Arg: arg,
		Acc: m.acc,
		Mem: append([]int64(nil), m.mem[:n]...),
	}
}
