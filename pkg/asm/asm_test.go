package asm

import (
	"strings"
	"testing"

	"github.com/minilab/mlc/pkg/codegen"
	"github.com/minilab/mlc/pkg/ir"
	"github.com/minilab/mlc/pkg/lexer"
	"github.com/minilab/mlc/pkg/parser"
	"github.com/minilab/mlc/pkg/util"
)

func build(t *testing.T, source string) *Program {
	t.Helper()
	tokens, err := lexer.Tokenize([]rune(source))
	if err != nil {
		t.Fatalf("lexing failed: %v", err)
	}
	astProg, err := parser.NewParser(tokens).Parse()
	if err != nil {
		t.Fatalf("parsing failed: %v", err)
	}
	assembly := codegen.NewGenerator().Generate(ir.NewGenerator().Generate(astProg))
	prog, err := Build(assembly)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	return prog
}

func TestLabelsOccupyNoSpace(t *testing.T) {
	assembly := &codegen.Assembly{
		Instrs: []codegen.Instr{
			{Mn: codegen.LABEL, Operand: "start"},
			{Mn: codegen.JMP, Operand: "done"},
			{Mn: codegen.LABEL, Operand: "done"},
			{Mn: codegen.HALT},
		},
		Vars:   map[string]struct{}{},
		Temps:  map[int]struct{}{},
		Consts: map[string]int64{},
	}
	prog, err := Build(assembly)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if prog.Labels["start"] != 0 || prog.Labels["done"] != 1 {
		t.Errorf("label map wrong: %v", prog.Labels)
	}
	// JMP done resolves to instruction index 1; HALT operand is -1.
	wantCode := []int64{7, 1, 16, -1}
	if len(prog.Code) != len(wantCode) {
		t.Fatalf("code: got %v, want %v", prog.Code, wantCode)
	}
	for i := range wantCode {
		if prog.Code[i] != wantCode[i] {
			t.Errorf("code[%d]: got %d, want %d", i, prog.Code[i], wantCode[i])
		}
	}
}

func TestMemoryLayoutOrder(t *testing.T) {
	// Constants first by ascending value, then variables lexicographically,
	// then temporaries by numeric suffix.
	assembly := &codegen.Assembly{
		Instrs: []codegen.Instr{{Mn: codegen.HALT}},
		Vars:   map[string]struct{}{"zeta": {}, "alpha": {}},
		Temps:  map[int]struct{}{10: {}, 2: {}},
		Consts: map[string]int64{"const_7": 7, "const_0": 0},
	}
	prog, err := Build(assembly)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	wantAddrs := map[string]int{
		"const_0": 0, "const_7": 1,
		"alpha": 2, "zeta": 3,
		"t2": 4, "t10": 5,
	}
	for name, want := range wantAddrs {
		if got := prog.SymAddrs[name]; got != want {
			t.Errorf("%s: address %d, want %d", name, got, want)
		}
	}
	if prog.MemInit[0] != 0 || prog.MemInit[1] != 7 {
		t.Errorf("mem init wrong: %v", prog.MemInit)
	}
	if prog.MemorySize() != 6 {
		t.Errorf("memory size: got %d, want 6", prog.MemorySize())
	}
}

func TestUnresolvedLabel(t *testing.T) {
	assembly := &codegen.Assembly{
		Instrs: []codegen.Instr{{Mn: codegen.JMP, Operand: "nowhere"}},
		Vars:   map[string]struct{}{},
		Temps:  map[int]struct{}{},
		Consts: map[string]int64{},
	}
	_, err := Build(assembly)
	if err == nil || !strings.Contains(err.Error(), "unresolved label 'nowhere'") {
		t.Errorf("expected unresolved label error, got %v", err)
	}
	if linkErr, ok := err.(*util.Error); !ok || linkErr.Kind != util.LinkError {
		t.Errorf("expected LinkError, got %T", err)
	}
}

func TestUnresolvedSymbol(t *testing.T) {
	assembly := &codegen.Assembly{
		Instrs: []codegen.Instr{{Mn: codegen.LOAD, Operand: "ghost"}},
		Vars:   map[string]struct{}{},
		Temps:  map[int]struct{}{},
		Consts: map[string]int64{},
	}
	_, err := Build(assembly)
	if err == nil || !strings.Contains(err.Error(), "unresolved symbol 'ghost'") {
		t.Errorf("expected unresolved symbol error, got %v", err)
	}
}

func TestDuplicateLabel(t *testing.T) {
	assembly := &codegen.Assembly{
		Instrs: []codegen.Instr{
			{Mn: codegen.LABEL, Operand: "twice"},
			{Mn: codegen.HALT},
			{Mn: codegen.LABEL, Operand: "twice"},
		},
		Vars:   map[string]struct{}{},
		Temps:  map[int]struct{}{},
		Consts: map[string]int64{},
	}
	_, err := Build(assembly)
	if err == nil || !strings.Contains(err.Error(), "duplicate label") {
		t.Errorf("expected duplicate label error, got %v", err)
	}
}

// Every jump operand must be a valid instruction index, every data operand a
// valid memory address.
func TestLabelClosure(t *testing.T) {
	prog := build(t, `read a; read b; c = a + b * 2;
if c >= 10 { print c; } else { print 0; }
i = 0;
while i < c { print i; i = i + 1; }
end`)

	instrCount := int64(len(prog.Code) / 2)
	memSize := int64(prog.MemorySize())
	for i := 0; i < len(prog.Code); i += 2 {
		op, arg := prog.Code[i], prog.Code[i+1]
		switch op {
		case 7, 8, 9, 10, 11, 12, 13: // jumps
			if arg < 0 || arg >= instrCount {
				t.Errorf("instr %d: jump target %d out of range [0,%d)", i/2, arg, instrCount)
			}
		case 16: // HALT
			if arg != -1 {
				t.Errorf("instr %d: HALT operand %d, want -1", i/2, arg)
			}
		default:
			if arg < 0 || arg >= memSize {
				t.Errorf("instr %d: address %d out of range [0,%d)", i/2, arg, memSize)
			}
		}
	}
}

func TestFormatStable(t *testing.T) {
	prog := build(t, "x = 1; end")
	first := prog.Format()
	for i := 0; i < 10; i++ {
		if got := prog.Format(); got != first {
			t.Fatalf("Format is not deterministic:\n%s\nvs\n%s", first, got)
		}
	}
	if !strings.HasPrefix(first, "CODE:") || !strings.Contains(first, "SYMS:") || !strings.Contains(first, "MEM_INIT:") {
		t.Errorf("unexpected serialization:\n%s", first)
	}
}
