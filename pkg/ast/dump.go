package ast

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/minilab/mlc/pkg/token"
)

// Dump renders the tree as indented text, one node per line. Used for
// --emit ast and ast.txt.
func Dump(node *Node) string {
	var sb strings.Builder
	dumpNode(&sb, node, 0)
	return sb.String()
}

func dumpNode(sb *strings.Builder, node *Node, depth int) {
	indent := strings.Repeat("  ", depth)
	switch node.Type {
	case Block:
		fmt.Fprintf(sb, "%sProgram\n", indent)
		for _, stmt := range node.Stmts() {
			dumpStmt(sb, stmt, depth+1)
		}
	default:
		dumpStmt(sb, node, depth)
	}
}

func dumpStmt(sb *strings.Builder, stmt *Node, depth int) {
	indent := strings.Repeat("  ", depth)
	switch stmt.Type {
	case Read:
		fmt.Fprintf(sb, "%sRead %s\n", indent, stmt.Data.(ReadNode).Name)
	case Print:
		fmt.Fprintf(sb, "%sPrint %s\n", indent, ExprString(stmt.Data.(PrintNode).Expr))
	case Assign:
		d := stmt.Data.(AssignNode)
		fmt.Fprintf(sb, "%sAssign %s = %s\n", indent, d.Name, ExprString(d.Expr))
	case If:
		d := stmt.Data.(IfNode)
		fmt.Fprintf(sb, "%sIf %s\n", indent, ExprString(d.Cond))
		fmt.Fprintf(sb, "%sThen\n", indent)
		for _, s := range d.ThenBody.Stmts() {
			dumpStmt(sb, s, depth+1)
		}
		fmt.Fprintf(sb, "%sElse\n", indent)
		for _, s := range d.ElseBody.Stmts() {
			dumpStmt(sb, s, depth+1)
		}
	case While:
		d := stmt.Data.(WhileNode)
		fmt.Fprintf(sb, "%sWhile %s\n", indent, ExprString(d.Cond))
		for _, s := range d.Body.Stmts() {
			dumpStmt(sb, s, depth+1)
		}
	case Block:
		for _, s := range stmt.Stmts() {
			dumpStmt(sb, s, depth)
		}
	default:
		fmt.Fprintf(sb, "%s%s\n", indent, ExprString(stmt))
	}
}

// ExprString renders an expression fully parenthesized, making the parsed
// associativity and precedence visible.
func ExprString(expr *Node) string {
	switch expr.Type {
	case Number:
		return strconv.FormatInt(expr.Data.(NumberNode).Value, 10)
	case Ident:
		return expr.Data.(IdentNode).Name
	case UnaryOp:
		d := expr.Data.(UnaryOpNode)
		return "(" + token.TypeStrings[d.Op] + ExprString(d.Expr) + ")"
	case BinaryOp:
		d := expr.Data.(BinaryOpNode)
		return "(" + ExprString(d.Left) + " " + token.TypeStrings[d.Op] + " " + ExprString(d.Right) + ")"
	}
	return "?"
}
