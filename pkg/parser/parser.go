// Package parser builds the AST from the token stream with a recursive
// descent LL(1) parser. Binary operators are left-associative; unary minus
// binds tighter than any binary operator; the else clause is mandatory.
package parser

import (
	"strconv"

	"github.com/minilab/mlc/pkg/ast"
	"github.com/minilab/mlc/pkg/token"
	"github.com/minilab/mlc/pkg/util"
)

type Parser struct {
	tokens   []token.Token
	pos      int
	current  token.Token
	previous token.Token
}

func NewParser(tokens []token.Token) *Parser {
	p := &Parser{tokens: tokens}
	if len(tokens) > 0 {
		p.current = p.tokens[0]
	}
	return p
}

// Parse consumes statements up to the terminal 'end' keyword and returns the
// program as a Block node.
func (p *Parser) Parse() (*ast.Node, error) {
	tok := p.current
	var stmts []*ast.Node
	for !p.check(token.End) {
		if p.check(token.EOF) {
			return nil, p.errorf("expected a statement or 'end', found %s", p.current)
		}
		stmt, err := p.parseStmt()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, stmt)
	}
	p.advance() // 'end'
	if !p.check(token.EOF) {
		return nil, p.errorf("expected end of file after 'end', found %s", p.current)
	}
	return ast.NewBlock(tok, stmts), nil
}

func (p *Parser) advance() {
	if p.pos < len(p.tokens) {
		p.previous = p.current
		p.pos++
		if p.pos < len(p.tokens) {
			p.current = p.tokens[p.pos]
		}
	}
}

func (p *Parser) check(tokType token.Type) bool { return p.current.Type == tokType }

func (p *Parser) match(tokType token.Type) bool {
	if !p.check(tokType) {
		return false
	}
	p.advance()
	return true
}

func (p *Parser) expect(tokType token.Type, context string) error {
	if p.check(tokType) {
		p.advance()
		return nil
	}
	return p.errorf("expected '%s' %s, found %s", token.TypeStrings[tokType], context, p.current)
}

func (p *Parser) errorf(format string, args ...interface{}) error {
	return util.Errf(util.ParseError, p.current, format, args...)
}

func (p *Parser) parseStmt() (*ast.Node, error) {
	tok := p.current
	switch {
	case p.match(token.Read):
		if err := p.expect(token.Ident, "after 'read'"); err != nil {
			return nil, err
		}
		name := p.previous.Value
		if err := p.expect(token.Semi, "after read statement"); err != nil {
			return nil, err
		}
		return ast.NewRead(tok, name), nil

	case p.match(token.Print):
		expr, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if err := p.expect(token.Semi, "after print statement"); err != nil {
			return nil, err
		}
		return ast.NewPrint(tok, expr), nil

	case p.match(token.If):
		cond, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		thenBody, err := p.parseBlock()
		if err != nil {
			return nil, err
		}
		if err := p.expect(token.Else, "after if body"); err != nil {
			return nil, err
		}
		elseBody, err := p.parseBlock()
		if err != nil {
			return nil, err
		}
		return ast.NewIf(tok, cond, thenBody, elseBody), nil

	case p.match(token.While):
		cond, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		body, err := p.parseBlock()
		if err != nil {
			return nil, err
		}
		return ast.NewWhile(tok, cond, body), nil

	case p.match(token.Ident):
		name := p.previous.Value
		if err := p.expect(token.Assign, "after identifier"); err != nil {
			return nil, err
		}
		expr, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if err := p.expect(token.Semi, "after assignment"); err != nil {
			return nil, err
		}
		return ast.NewAssign(tok, name, expr), nil
	}
	return nil, p.errorf("expected a statement, found %s", p.current)
}

func (p *Parser) parseBlock() (*ast.Node, error) {
	tok := p.current
	if err := p.expect(token.LBrace, "to start a block"); err != nil {
		return nil, err
	}
	var stmts []*ast.Node
	for !p.check(token.RBrace) {
		if p.check(token.EOF) || p.check(token.End) {
			return nil, p.errorf("expected '}' to close block, found %s", p.current)
		}
		stmt, err := p.parseStmt()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, stmt)
	}
	p.advance() // '}'
	return ast.NewBlock(tok, stmts), nil
}

// Expression grammar, precedence climbing from equality down to primary.

func (p *Parser) parseExpr() (*ast.Node, error) { return p.parseEquality() }

func (p *Parser) parseEquality() (*ast.Node, error) {
	return p.parseBinaryLevel(p.parseComparison, token.EqEq, token.Neq)
}

func (p *Parser) parseComparison() (*ast.Node, error) {
	return p.parseBinaryLevel(p.parseTerm, token.Lt, token.Gt, token.Lte, token.Gte)
}

func (p *Parser) parseTerm() (*ast.Node, error) {
	return p.parseBinaryLevel(p.parseFactor, token.Plus, token.Minus)
}

func (p *Parser) parseFactor() (*ast.Node, error) {
	return p.parseBinaryLevel(p.parseUnary, token.Star, token.Slash)
}

func (p *Parser) parseBinaryLevel(next func() (*ast.Node, error), ops ...token.Type) (*ast.Node, error) {
	left, err := next()
	if err != nil {
		return nil, err
	}
	for {
		matched := false
		for _, op := range ops {
			if p.check(op) {
				matched = true
				break
			}
		}
		if !matched {
			return left, nil
		}
		opTok := p.current
		p.advance()
		right, err := next()
		if err != nil {
			return nil, err
		}
		left = ast.NewBinaryOp(opTok, opTok.Type, left, right)
	}
}

func (p *Parser) parseUnary() (*ast.Node, error) {
	if p.check(token.Minus) {
		opTok := p.current
		p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return ast.NewUnaryOp(opTok, token.Minus, operand), nil
	}
	return p.parsePrimary()
}

func (p *Parser) parsePrimary() (*ast.Node, error) {
	tok := p.current
	switch {
	case p.match(token.Number):
		val, err := strconv.ParseInt(p.previous.Value, 10, 64)
		if err != nil {
			return nil, util.Errf(util.ParseError, tok, "invalid integer literal '%s'", p.previous.Value)
		}
		return ast.NewNumber(tok, val), nil
	case p.match(token.Ident):
		return ast.NewIdent(tok, p.previous.Value), nil
	case p.match(token.LParen):
		expr, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if err := p.expect(token.RParen, "after expression"); err != nil {
			return nil, err
		}
		return expr, nil
	}
	return nil, p.errorf("expected an expression, found %s", p.current)
}
