package sem

import (
	"strings"
	"testing"

	"github.com/minilab/mlc/pkg/config"
	"github.com/minilab/mlc/pkg/lexer"
	"github.com/minilab/mlc/pkg/parser"
)

func analyze(t *testing.T, source string) *Result {
	t.Helper()
	tokens, err := lexer.Tokenize([]rune(source))
	if err != nil {
		t.Fatalf("lexing failed: %v", err)
	}
	program, err := parser.NewParser(tokens).Parse()
	if err != nil {
		t.Fatalf("parsing failed: %v", err)
	}
	return NewAnalyzer(config.NewConfig()).Analyze(program)
}

func warningsFor(res *Result, name string) int {
	count := 0
	for _, w := range res.Warnings {
		if strings.Contains(w.Msg, "'"+name+"'") {
			count++
		}
	}
	return count
}

func TestStraightLine(t *testing.T) {
	res := analyze(t, "print x; x = 1; print x; end")
	if got := warningsFor(res, "x"); got != 1 {
		t.Errorf("got %d warnings for x, want 1 (only the first read)", got)
	}
	if !strings.Contains(res.Warnings[0].Msg, "may be uninitialized") {
		t.Errorf("unexpected warning text: %q", res.Warnings[0].Msg)
	}
}

func TestReadInitializes(t *testing.T) {
	res := analyze(t, "read a; print a; end")
	if len(res.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", res.Warnings)
	}
	if !res.Table.IsInitialized("a") {
		t.Error("a should be initialized after read")
	}
}

func TestAssignChecksRhsFirst(t *testing.T) {
	res := analyze(t, "x = x + 1; end")
	if got := warningsFor(res, "x"); got != 1 {
		t.Errorf("got %d warnings, want 1: rhs read precedes lhs assignment", got)
	}
}

func TestIfBranchIntersection(t *testing.T) {
	// y assigned on both arms: definite afterwards. z only on one: not.
	res := analyze(t, `read c;
if c { y = 1; z = 1; } else { y = 2; }
print y;
print z;
end`)
	if got := warningsFor(res, "y"); got != 0 {
		t.Errorf("y assigned on both arms, got %d warnings", got)
	}
	if got := warningsFor(res, "z"); got != 1 {
		t.Errorf("z assigned on one arm only, got %d warnings, want 1", got)
	}
}

func TestWhileDoesNotGuarantee(t *testing.T) {
	res := analyze(t, "read n; while n { v = 1; n = 0; } print v; end")
	if got := warningsFor(res, "v"); got != 1 {
		t.Errorf("loop may run zero times; got %d warnings for v, want 1", got)
	}
}

func TestWhileBodyIsChecked(t *testing.T) {
	res := analyze(t, "read n; while n { print w; n = 0; } end")
	if got := warningsFor(res, "w"); got != 1 {
		t.Errorf("reads inside the loop body must be checked; got %d warnings", got)
	}
}

func TestSymbolTablePopulation(t *testing.T) {
	res := analyze(t, "read a; b = a; print c; end")
	for _, name := range []string{"a", "b", "c"} {
		if _, ok := res.Table[name]; !ok {
			t.Errorf("symbol %q missing from table", name)
		}
	}
	if res.Table.IsInitialized("c") {
		t.Error("c was never assigned")
	}
}

func TestWarningDisabled(t *testing.T) {
	tokens, _ := lexer.Tokenize([]rune("print x; end"))
	program, _ := parser.NewParser(tokens).Parse()
	cfg := config.NewConfig()
	cfg.SetWarning(config.WarnUninit, false)
	res := NewAnalyzer(cfg).Analyze(program)
	if len(res.Warnings) != 0 {
		t.Errorf("warning disabled but got %v", res.Warnings)
	}
}

func TestWarningLocation(t *testing.T) {
	res := analyze(t, "read a;\nprint b;\nend")
	if len(res.Warnings) != 1 {
		t.Fatalf("want 1 warning, got %v", res.Warnings)
	}
	if res.Warnings[0].Tok.Line != 2 {
		t.Errorf("warning line: got %d, want 2", res.Warnings[0].Tok.Line)
	}
}
