// Package ast defines the abstract syntax tree shared by the parser, the
// semantic analyzer, the optimizer, and the IR generator.
package ast

import (
	"github.com/minilab/mlc/pkg/token"
)

type NodeType int

const (
	// Expressions
	Number NodeType = iota
	Ident
	UnaryOp
	BinaryOp

	// Statements
	Read
	Print
	Assign
	If
	While
	Block
)

// Node is one AST node. Data holds the per-kind payload struct; Type selects
// which one.
type Node struct {
	Type NodeType
	Tok  token.Token
	Data interface{}
}

type NumberNode struct{ Value int64 }
type IdentNode struct{ Name string }
type UnaryOpNode struct {
	Op   token.Type
	Expr *Node
}
type BinaryOpNode struct {
	Op          token.Type
	Left, Right *Node
}
type ReadNode struct{ Name string }
type PrintNode struct{ Expr *Node }
type AssignNode struct {
	Name string
	Expr *Node
}
type IfNode struct {
	Cond               *Node
	ThenBody, ElseBody *Node
}
type WhileNode struct {
	Cond, Body *Node
}
type BlockNode struct{ Stmts []*Node }

func NewNumber(tok token.Token, value int64) *Node {
	return &Node{Type: Number, Tok: tok, Data: NumberNode{Value: value}}
}

func NewIdent(tok token.Token, name string) *Node {
	return &Node{Type: Ident, Tok: tok, Data: IdentNode{Name: name}}
}

func NewUnaryOp(tok token.Token, op token.Type, expr *Node) *Node {
	return &Node{Type: UnaryOp, Tok: tok, Data: UnaryOpNode{Op: op, Expr: expr}}
}

func NewBinaryOp(tok token.Token, op token.Type, left, right *Node) *Node {
	return &Node{Type: BinaryOp, Tok: tok, Data: BinaryOpNode{Op: op, Left: left, Right: right}}
}

func NewRead(tok token.Token, name string) *Node {
	return &Node{Type: Read, Tok: tok, Data: ReadNode{Name: name}}
}

func NewPrint(tok token.Token, expr *Node) *Node {
	return &Node{Type: Print, Tok: tok, Data: PrintNode{Expr: expr}}
}

func NewAssign(tok token.Token, name string, expr *Node) *Node {
	return &Node{Type: Assign, Tok: tok, Data: AssignNode{Name: name, Expr: expr}}
}

func NewIf(tok token.Token, cond, thenBody, elseBody *Node) *Node {
	return &Node{Type: If, Tok: tok, Data: IfNode{Cond: cond, ThenBody: thenBody, ElseBody: elseBody}}
}

func NewWhile(tok token.Token, cond, body *Node) *Node {
	return &Node{Type: While, Tok: tok, Data: WhileNode{Cond: cond, Body: body}}
}

func NewBlock(tok token.Token, stmts []*Node) *Node {
	return &Node{Type: Block, Tok: tok, Data: BlockNode{Stmts: stmts}}
}

// Stmts returns the statement list of a Block node.
func (n *Node) Stmts() []*Node { return n.Data.(BlockNode).Stmts }
