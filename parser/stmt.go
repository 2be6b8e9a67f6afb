/*
 * MIT License
 *
 * Copyright (c) 2024 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

package parser

import (
	"github.com/nabbar/x0d/ast"
	"github.com/nabbar/x0d/lexer"
	"github.com/nabbar/x0d/source"
)

// parseStmt implements `stmt := if | match | compound | identStmt | ';'`.
func (p *Parser) parseStmt() ast.Statement {
	switch p.tok.Kind {
	case lexer.Semicolon:
		span := p.tok.Span
		p.advance()
		return ast.NewCompound(span, nil)
	case lexer.LBrace:
		return p.parseCompound()
	case lexer.KwIf, lexer.KwUnless:
		return p.parseCond()
	case lexer.KwMatch:
		return p.parseMatch()
	case lexer.Ident:
		return p.parseIdentStmt()
	default:
		span := p.tok.Span
		p.errorf(span, "unexpected token %q starting a statement", p.tok.Text)
		p.advance()
		return ast.NewCompound(span, nil)
	}
}

func (p *Parser) parseCompound() ast.Statement {
	begin := p.tok.Span
	p.advance() // '{'

	outer := p.scope
	p.scope = ast.NewScope(outer)
	defer func() { p.scope = outer }()

	var body []ast.Statement
	for p.tok.Kind != lexer.RBrace && p.tok.Kind != lexer.EOF {
		body = append(body, p.parseStmt())
	}
	end := p.expect(lexer.RBrace, "}")
	return ast.NewCompound(source.Span{Begin: begin.Begin, End: end.End}, body)
}

// parseCond implements `if`/`unless cond then stmt [else stmt]`, where
// 'then' is optional when followed directly by a compound statement.
func (p *Parser) parseCond() ast.Statement {
	span := p.tok.Span
	unless := p.tok.Kind == lexer.KwUnless
	p.advance()

	expr := p.parseExpr()
	if expr.Type() != ast.Boolean {
		p.errorf(expr.Span(), "if/unless condition must be bool, got %s", expr.Type())
	}
	if p.tok.Kind == lexer.KwThen {
		p.advance()
	}
	thenS := p.parseStmt()

	var elseS ast.Statement
	if p.tok.Kind == lexer.KwElse {
		p.advance()
		elseS = p.parseStmt()
	}
	return ast.NewCond(span, expr, unless, thenS, elseS)
}

// parseMatch implements:
//   'match' expr matchop '{' ('on' label[,label...] stmt)* ['else' stmt] '}'
// where matchop is inferred from which relational operator token follows
// the subject expression: '==' => Same, '=^' => Head, '=$' => Tail,
// '=~' => RegExp.
func (p *Parser) parseMatch() ast.Statement {
	span := p.tok.Span
	p.advance() // 'match'
	// The subject stops below the relational level, so the match operator
	// is left for the switch below.
	expr := p.parseAdd()

	op := ast.Same
	switch p.tok.Kind {
	case lexer.OpEq:
		op = ast.Same
		p.advance()
	case lexer.OpHeadMatch:
		op = ast.Head
		p.advance()
	case lexer.OpTailMatch:
		op = ast.Tail
		p.advance()
	case lexer.OpRegexMatch:
		op = ast.RegExpMatch
		p.advance()
	default:
		p.errorf(p.tok.Span, "expected a match operator (==, =^, =$, =~)")
	}

	p.expect(lexer.LBrace, "{")
	var cases []ast.MatchCase
	var elseS ast.Statement
	for p.tok.Kind == lexer.KwOn {
		p.advance()
		var labels []ast.Expression
		for {
			var lit ast.Expression
			if op == ast.RegExpMatch {
				lit = p.parseRegexOperand()
			} else {
				lit = p.parsePrimary()
			}
			if lit.Type() != expr.Type() && !(op == ast.RegExpMatch && lit.Type() == ast.RegExp) {
				p.errorf(lit.Span(), "match case label type %s does not match subject type %s", lit.Type(), expr.Type())
			}
			labels = append(labels, lit)
			if p.tok.Kind == lexer.Comma {
				p.advance()
				continue
			}
			break
		}
		body := p.parseStmt()
		cases = append(cases, ast.MatchCase{Labels: labels, Body: body})
	}
	if p.tok.Kind == lexer.KwElse {
		p.advance()
		elseS = p.parseStmt()
	}
	p.expect(lexer.RBrace, "}")

	return ast.NewMatch(span, expr, op, cases, elseS)
}

// parseIdentStmt implements:
//   identStmt := IDENT (callTail | '=' expr) postscript? ';'
func (p *Parser) parseIdentStmt() ast.Statement {
	span := p.tok.Span
	name := p.tok.Text
	p.advance()

	var stmt ast.Statement
	if p.tok.Kind == lexer.OpAssign {
		p.advance()
		value := p.parseExpr()
		sym, ok := p.scope.Lookup(name, ast.All)
		if !ok || sym.Kind != ast.SymVariable {
			p.errorf(span, "assignment to undeclared variable %q", name)
			stmt = ast.NewAssign(span, 0, name, value)
		} else {
			if sym.Type != value.Type() {
				p.errorf(span, "cannot assign %s to variable %q of type %s", value.Type(), name, sym.Type)
			}
			stmt = ast.NewAssign(span, sym.ID, name, value)
		}
	} else {
		expr := p.parseCallTail(span, name)
		stmt = ast.NewExprStmt(span, expr)
	}

	stmt = p.applyPostscript(span, stmt)
	p.expect(lexer.Semicolon, ";")
	return stmt
}

// applyPostscript implements `stmt if cond` -> `if cond then stmt`, and
// `stmt unless cond` -> negated via the unary-not opcode resolution
// (§4.2 "Postscript").
func (p *Parser) applyPostscript(span source.Span, stmt ast.Statement) ast.Statement {
	if p.tok.Kind != lexer.KwIf && p.tok.Kind != lexer.KwUnless {
		return stmt
	}
	unless := p.tok.Kind == lexer.KwUnless
	p.advance()
	cond := p.parseExpr()
	if cond.Type() != ast.Boolean {
		p.errorf(cond.Span(), "postscript condition must be bool, got %s", cond.Type())
	}
	return ast.NewCond(span, cond, unless, stmt, nil)
}
