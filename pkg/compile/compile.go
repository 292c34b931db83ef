// Package compile composes the pipeline: source → tokens → AST → warnings
// → folded AST → TAC → assembly → machine program. Every stage produces a
// fresh artifact; nothing mutates a prior stage's output.
package compile

import (
	"fmt"
	"strings"

	"github.com/minilab/mlc/pkg/asm"
	"github.com/minilab/mlc/pkg/ast"
	"github.com/minilab/mlc/pkg/codegen"
	"github.com/minilab/mlc/pkg/config"
	"github.com/minilab/mlc/pkg/ir"
	"github.com/minilab/mlc/pkg/lexer"
	"github.com/minilab/mlc/pkg/parser"
	"github.com/minilab/mlc/pkg/sem"
	"github.com/minilab/mlc/pkg/token"
	"github.com/minilab/mlc/pkg/util"
)

// Artifacts holds every intermediate produced by one compilation.
type Artifacts struct {
	Tokens   []token.Token
	AST      *ast.Node
	Warnings []util.Diag
	SymTable sem.SymbolTable
	IR       []ir.Instr
	Asm      *codegen.Assembly
	Machine  *asm.Program
}

// Compile runs the whole pipeline. A nil cfg means default settings. The
// fileName is only used to prefix diagnostics.
func Compile(fileName, source string, cfg *config.Config) (*Artifacts, error) {
	if cfg == nil {
		cfg = config.NewConfig()
	}
	util.SetSource(fileName, []rune(source))

	tokens, err := lexer.Tokenize([]rune(source))
	if err != nil {
		return nil, err
	}

	p := parser.NewParser(tokens)
	program, err := p.Parse()
	if err != nil {
		return nil, err
	}

	// Warnings are computed on the program as written, before any folding,
	// so toggling the optimizer never changes the diagnostics.
	semRes := sem.NewAnalyzer(cfg).Analyze(program)

	if cfg.IsFeatureEnabled(config.FeatFold) {
		program = ast.FoldProgram(program, cfg.IsFeatureEnabled(config.FeatPruneBranches))
	}

	irProg := ir.NewGenerator().Generate(program)

	assembly := codegen.NewGenerator().Generate(irProg)

	machine, err := asm.Build(assembly)
	if err != nil {
		return nil, err
	}

	return &Artifacts{
		Tokens:   tokens,
		AST:      program,
		Warnings: semRes.Warnings,
		SymTable: semRes.Table,
		IR:       irProg,
		Asm:      assembly,
		Machine:  machine,
	}, nil
}

// TokensText renders the token stream one token per line with its location.
func (a *Artifacts) TokensText() string {
	var sb strings.Builder
	for _, tok := range a.Tokens {
		fmt.Fprintf(&sb, "%d:%d %s\n", tok.Line, tok.Column, tok)
	}
	return sb.String()
}

// EmitStage serializes one pipeline stage in its stable text form.
func (a *Artifacts) EmitStage(stage config.Emit) (string, error) {
	switch stage {
	case config.EmitTokens:
		return a.TokensText(), nil
	case config.EmitAST:
		return ast.Dump(a.AST), nil
	case config.EmitIR:
		return ir.Format(a.IR), nil
	case config.EmitASM:
		return a.Asm.Format(), nil
	case config.EmitMachine:
		return a.Machine.Format(), nil
	}
	return "", fmt.Errorf("unknown stage '%s'", stage)
}

// StageFiles lists the artifact files --emit-all writes, in pipeline order.
func StageFiles() []struct {
	Stage config.Emit
	Name  string
} {
	return []struct {
		Stage config.Emit
		Name  string
	}{
		{config.EmitTokens, "tokens.txt"},
		{config.EmitAST, "ast.txt"},
		{config.EmitIR, "ir.txt"},
		{config.EmitASM, "asm.txt"},
		{config.EmitMachine, "machine.txt"},
	}
}
