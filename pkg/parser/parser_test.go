package parser

import (
	"strings"
	"testing"

	"github.com/minilab/mlc/pkg/ast"
	"github.com/minilab/mlc/pkg/lexer"
	"github.com/minilab/mlc/pkg/util"
)

func parse(t *testing.T, source string) *ast.Node {
	t.Helper()
	tokens, err := lexer.Tokenize([]rune(source))
	if err != nil {
		t.Fatalf("lexing %q failed: %v", source, err)
	}
	program, err := NewParser(tokens).Parse()
	if err != nil {
		t.Fatalf("parsing %q failed: %v", source, err)
	}
	return program
}

// parseExpr parses a lone expression by wrapping it in a print statement.
func parseExpr(t *testing.T, expr string) *ast.Node {
	t.Helper()
	program := parse(t, "print "+expr+"; end")
	return program.Stmts()[0].Data.(ast.PrintNode).Expr
}

func TestPrecedence(t *testing.T) {
	tests := []struct {
		expr string
		want string
	}{
		{"2 + 3 * 4", "(2 + (3 * 4))"},
		{"a - b - c", "((a - b) - c)"},
		{"-a * b", "((-a) * b)"},
		{"- -a", "(-(-a))"},
		{"(2 + 3) * 4", "((2 + 3) * 4)"},
		{"1 < 2 == 1", "((1 < 2) == 1)"},
		{"a + b < c * d", "((a + b) < (c * d))"},
		{"a == b != c", "((a == b) != c)"},
		{"1 <= 2 >= 0", "((1 <= 2) >= 0)"},
		{"20 / 5 / 2", "((20 / 5) / 2)"},
	}
	for _, tc := range tests {
		got := ast.ExprString(parseExpr(t, tc.expr))
		if got != tc.want {
			t.Errorf("%q: got %s, want %s", tc.expr, got, tc.want)
		}
	}
}

func TestStatements(t *testing.T) {
	program := parse(t, "read n; x = n + 1; print x; if x < 2 { print 1; } else { print 0; } while x > 0 { x = x - 1; } end")
	stmts := program.Stmts()
	want := []ast.NodeType{ast.Read, ast.Assign, ast.Print, ast.If, ast.While}
	if len(stmts) != len(want) {
		t.Fatalf("got %d statements, want %d", len(stmts), len(want))
	}
	for i, typ := range want {
		if stmts[i].Type != typ {
			t.Errorf("statement %d: got node type %d, want %d", i, stmts[i].Type, typ)
		}
	}

	ifData := stmts[3].Data.(ast.IfNode)
	if ifData.ThenBody == nil || ifData.ElseBody == nil {
		t.Error("if statement must carry both branches")
	}
	if len(ifData.ThenBody.Stmts()) != 1 || len(ifData.ElseBody.Stmts()) != 1 {
		t.Error("branch bodies lost statements")
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		source  string
		wantMsg string
	}{
		{"print 1 end", "expected ';'"},
		{"if 1 { print 1; } end", "expected 'else'"},
		{"read 5; end", "expected 'IDENT'"},
		{"x = ; end", "expected an expression"},
		{"print 1;", "expected a statement or 'end'"},
		{"while 1 { print 1; end", "expected '}'"},
		{"end print 1;", "expected end of file after 'end'"},
		{"x 5; end", "expected '='"},
		{"print (1; end", "expected ')'"},
	}
	for _, tc := range tests {
		tokens, err := lexer.Tokenize([]rune(tc.source))
		if err != nil {
			t.Fatalf("lexing %q failed: %v", tc.source, err)
		}
		_, err = NewParser(tokens).Parse()
		if err == nil {
			t.Errorf("%q: expected parse error", tc.source)
			continue
		}
		if !strings.Contains(err.Error(), tc.wantMsg) {
			t.Errorf("%q: error %q does not contain %q", tc.source, err, tc.wantMsg)
		}
		parseErr, ok := err.(*util.Error)
		if !ok || parseErr.Kind != util.ParseError {
			t.Errorf("%q: expected ParseError, got %T", tc.source, err)
		}
	}
}

func TestEmptyProgram(t *testing.T) {
	program := parse(t, "end")
	if len(program.Stmts()) != 0 {
		t.Errorf("expected empty program, got %d statements", len(program.Stmts()))
	}
}
