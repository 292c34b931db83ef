// Package util carries the source registry and the diagnostic types shared by
// every compiler stage. Stages return *Error values; only the CLI decides to
// exit. Semantic warnings are Diag values and never abort compilation.
package util

import (
	"fmt"
	"strings"

	"github.com/minilab/mlc/pkg/token"
)

type Kind int

const (
	LexError Kind = iota
	ParseError
	LinkError
)

var kindStrings = map[Kind]string{
	LexError:   "lex error",
	ParseError: "parse error",
	LinkError:  "link error",
}

func (k Kind) String() string { return kindStrings[k] }

// SourceFileRecord tracks the name and content of the source file being
// compiled, for rich error messages.
type SourceFileRecord struct {
	Name    string
	Content []rune
}

var source SourceFileRecord

// SetSource stores the source code so errors can quote the offending line.
func SetSource(name string, content []rune) {
	source = SourceFileRecord{Name: name, Content: content}
}

// Error is a structured compilation error tied to a source location.
type Error struct {
	Kind Kind
	Tok  token.Token
	Msg  string
}

func (e *Error) Error() string {
	var sb strings.Builder
	if e.Tok.Line > 0 {
		if source.Name != "" {
			sb.WriteString(source.Name)
			sb.WriteByte(':')
		}
		fmt.Fprintf(&sb, "%d:%d: ", e.Tok.Line, e.Tok.Column)
	}
	fmt.Fprintf(&sb, "%s: %s", e.Kind, e.Msg)
	if excerpt := Excerpt(e.Tok); excerpt != "" {
		sb.WriteByte('\n')
		sb.WriteString(excerpt)
	}
	return sb.String()
}

// Errf builds a located error in the standard format.
func Errf(kind Kind, tok token.Token, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Tok: tok, Msg: fmt.Sprintf(format, args...)}
}

// Diag is a non-fatal diagnostic (semantic warning).
type Diag struct {
	Tok token.Token
	Msg string
}

func (d Diag) String() string {
	var sb strings.Builder
	if source.Name != "" {
		sb.WriteString(source.Name)
		sb.WriteByte(':')
	}
	fmt.Fprintf(&sb, "%d:%d: warning: %s", d.Tok.Line, d.Tok.Column, d.Msg)
	return sb.String()
}

// Excerpt renders the source line the token points at, with a caret under the
// token's column and tildes covering the rest of the lexeme.
func Excerpt(tok token.Token) string {
	if len(source.Content) == 0 || tok.Line == 0 {
		return ""
	}

	content := source.Content
	lineNum := tok.Line
	lineStart := 0
	for i, r := range content {
		if lineNum <= 1 {
			break
		}
		if r == '\n' {
			lineNum--
			lineStart = i + 1
		}
	}
	if lineNum > 1 {
		return ""
	}

	lineEnd := len(content)
	for i := lineStart; i < len(content); i++ {
		if content[i] == '\n' {
			lineEnd = i
			break
		}
	}

	col := tok.Column
	if col < 1 {
		col = 1
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "  %s\n", string(content[lineStart:lineEnd]))
	fmt.Fprintf(&sb, "  %s^", strings.Repeat(" ", col-1))
	if tok.Len > 1 {
		sb.WriteString(strings.Repeat("~", tok.Len-1))
	}
	return sb.String()
}
