package ast

import (
	"github.com/minilab/mlc/pkg/token"
)

// FoldConstants performs compile-time constant evaluation on an expression,
// bottom-up. Arithmetic uses the same int64 truncating semantics as the VM,
// so folded programs agree with unfolded ones bit for bit. Division by a
// constant zero is left unfolded so the runtime error is preserved.
func FoldConstants(node *Node) *Node {
	if node == nil {
		return nil
	}

	switch node.Type {
	case Number, Ident:
		return node
	case UnaryOp:
		d := node.Data.(UnaryOpNode)
		inner := FoldConstants(d.Expr)
		if inner.Type == Number && d.Op == token.Minus {
			return NewNumber(node.Tok, -inner.Data.(NumberNode).Value)
		}
		return NewUnaryOp(node.Tok, d.Op, inner)
	case BinaryOp:
		d := node.Data.(BinaryOpNode)
		left, right := FoldConstants(d.Left), FoldConstants(d.Right)
		if left.Type == Number && right.Type == Number {
			a, b := left.Data.(NumberNode).Value, right.Data.(NumberNode).Value
			if res, ok := evalBinary(a, d.Op, b); ok {
				return NewNumber(node.Tok, res)
			}
		}
		return NewBinaryOp(node.Tok, d.Op, left, right)
	}
	return node
}

func evalBinary(a int64, op token.Type, b int64) (int64, bool) {
	switch op {
	case token.Plus:
		return a + b, true
	case token.Minus:
		return a - b, true
	case token.Star:
		return a * b, true
	case token.Slash:
		if b == 0 {
			return 0, false
		}
		return a / b, true
	case token.EqEq:
		return boolToInt(a == b), true
	case token.Neq:
		return boolToInt(a != b), true
	case token.Lt:
		return boolToInt(a < b), true
	case token.Gt:
		return boolToInt(a > b), true
	case token.Lte:
		return boolToInt(a <= b), true
	case token.Gte:
		return boolToInt(a >= b), true
	}
	return 0, false
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

// FoldProgram folds every expression in the program. When prune is set,
// if/else statements whose condition folds to a constant are replaced by the
// live branch, spliced in place of the statement.
func FoldProgram(program *Node, prune bool) *Node {
	return NewBlock(program.Tok, foldStmts(program.Stmts(), prune))
}

func foldStmts(stmts []*Node, prune bool) []*Node {
	var out []*Node
	for _, stmt := range stmts {
		folded := foldStmt(stmt, prune)
		if folded.Type == Block {
			out = append(out, folded.Stmts()...)
		} else {
			out = append(out, folded)
		}
	}
	return out
}

func foldStmt(stmt *Node, prune bool) *Node {
	switch stmt.Type {
	case Read:
		return stmt
	case Print:
		d := stmt.Data.(PrintNode)
		return NewPrint(stmt.Tok, FoldConstants(d.Expr))
	case Assign:
		d := stmt.Data.(AssignNode)
		return NewAssign(stmt.Tok, d.Name, FoldConstants(d.Expr))
	case If:
		d := stmt.Data.(IfNode)
		cond := FoldConstants(d.Cond)
		thenBody := NewBlock(d.ThenBody.Tok, foldStmts(d.ThenBody.Stmts(), prune))
		elseBody := NewBlock(d.ElseBody.Tok, foldStmts(d.ElseBody.Stmts(), prune))
		if prune && cond.Type == Number {
			if cond.Data.(NumberNode).Value != 0 {
				return thenBody
			}
			return elseBody
		}
		return NewIf(stmt.Tok, cond, thenBody, elseBody)
	case While:
		d := stmt.Data.(WhileNode)
		cond := FoldConstants(d.Cond)
		body := NewBlock(d.Body.Tok, foldStmts(d.Body.Stmts(), prune))
		return NewWhile(stmt.Tok, cond, body)
	}
	return stmt
}
