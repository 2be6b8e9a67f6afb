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

// parseExpr implements `expr := logic { ('and'|'or'|'xor') logic }`.
func (p *Parser) parseExpr() ast.Expression {
	lhs := p.parseLogic()
	for p.tok.Kind == lexer.OpAnd || p.tok.Kind == lexer.OpOr || p.tok.Kind == lexer.OpXor {
		op := boolOpFor(p.tok.Kind)
		span := p.tok.Span
		p.advance()
		rhs := p.parseLogic()
		lhs = p.mkBinary(span, op, lhs, rhs)
	}
	return lhs
}

func boolOpFor(k lexer.Kind) ast.BinaryOp {
	switch k {
	case lexer.OpAnd:
		return ast.OpAnd
	case lexer.OpOr:
		return ast.OpOr
	default:
		return ast.OpXor
	}
}

// parseLogic implements `logic := ['not'] rel`.
func (p *Parser) parseLogic() ast.Expression {
	if p.tok.Kind == lexer.OpNot {
		span := p.tok.Span
		p.advance()
		sub := p.parseRel()
		return p.mkUnary(span, ast.OpNot, sub)
	}
	return p.parseRel()
}

var relOps = map[lexer.Kind]ast.BinaryOp{
	lexer.OpEq: ast.OpEq, lexer.OpNe: ast.OpNe,
	lexer.OpLe: ast.OpLe, lexer.OpGe: ast.OpGe,
	lexer.OpLt: ast.OpLt, lexer.OpGt: ast.OpGt,
	lexer.OpHeadMatch: ast.OpPrefixMatch, lexer.OpTailMatch: ast.OpSuffixMatch,
	lexer.OpRegexMatch: ast.OpRegexMatch, lexer.OpIn: ast.OpIn,
}

// parseRel implements `rel := add { relop add }`.
func (p *Parser) parseRel() ast.Expression {
	lhs := p.parseAdd()
	for {
		op, ok := relOps[p.tok.Kind]
		if !ok {
			return lhs
		}
		span := p.tok.Span
		p.advance()
		var rhs ast.Expression
		if op == ast.OpRegexMatch {
			rhs = p.parseRegexOperand()
		} else {
			rhs = p.parseAdd()
		}
		lhs = p.mkBinary(span, op, lhs, rhs)
	}
}

func (p *Parser) parseRegexOperand() ast.Expression {
	// The grammar only permits a regex literal on the right of =~; the
	// lexer must be told to read '/' as a regex start here.
	p.advanceRegex()
	if p.tok.Kind != lexer.Regex {
		p.errorf(p.tok.Span, "=~ requires a regex literal operand")
		return ast.NewLiteral(p.tok.Span, ast.RegExp, "")
	}
	lit := ast.NewLiteral(p.tok.Span, ast.RegExp, p.tok.Text)
	p.advance()
	return lit
}

// parseAdd implements `add := mul { ('+'|'-') mul }`.
func (p *Parser) parseAdd() ast.Expression {
	lhs := p.parseMul()
	for p.tok.Kind == lexer.OpPlus || p.tok.Kind == lexer.OpMinus {
		op := ast.OpAdd
		if p.tok.Kind == lexer.OpMinus {
			op = ast.OpSub
		}
		span := p.tok.Span
		p.advance()
		rhs := p.parseMul()
		lhs = p.mkBinary(span, op, lhs, rhs)
	}
	return lhs
}

var mulOps = map[lexer.Kind]ast.BinaryOp{
	lexer.OpStar: ast.OpMul, lexer.OpSlash: ast.OpDiv, lexer.OpPercent: ast.OpMod,
	lexer.OpShl: ast.OpShl, lexer.OpShr: ast.OpShr,
}

// parseMul implements `mul := pow { ('*'|'/'|'%'|'shl'|'shr') pow }`.
func (p *Parser) parseMul() ast.Expression {
	lhs := p.parsePow()
	for {
		op, ok := mulOps[p.tok.Kind]
		if !ok {
			return lhs
		}
		span := p.tok.Span
		p.advance()
		rhs := p.parsePow()
		lhs = p.mkBinary(span, op, lhs, rhs)
	}
}

// parsePow implements the right-associative `pow := unary { '**' pow }`.
func (p *Parser) parsePow() ast.Expression {
	lhs := p.parseUnary()
	if p.tok.Kind == lexer.OpPow {
		span := p.tok.Span
		p.advance()
		rhs := p.parsePow()
		return p.mkBinary(span, ast.OpPow, lhs, rhs)
	}
	return lhs
}

// parseUnary implements `unary := ['-'|'~'] primary`.
func (p *Parser) parseUnary() ast.Expression {
	switch p.tok.Kind {
	case lexer.OpMinus:
		span := p.tok.Span
		p.advance()
		sub := p.parsePrimary()
		return p.mkUnary(span, ast.OpNeg, sub)
	case lexer.OpTilde:
		span := p.tok.Span
		p.advance()
		sub := p.parsePrimary()
		return p.mkUnary(span, ast.OpBitNot, sub)
	default:
		return p.parsePrimary()
	}
}

// parsePrimary implements:
//   primary := literal | cast | interpString | IDENT [callTail] | '(' expr ')' | '[' list ']'
func (p *Parser) parsePrimary() ast.Expression {
	span := p.tok.Span
	switch p.tok.Kind {
	case lexer.Number:
		v := p.tok.Value.(int64)
		p.advance()
		return ast.NewLiteral(span, ast.Number, v)
	case lexer.Boolean:
		v := p.tok.Value.(bool)
		p.advance()
		return ast.NewLiteral(span, ast.Boolean, v)
	case lexer.String:
		v := p.tok.Value.(string)
		p.advance()
		return ast.NewLiteral(span, ast.String, v)
	case lexer.StringFragment:
		return p.parseInterpolatedString()
	case lexer.IPAddr:
		v := p.tok.Text
		p.advance()
		return ast.NewLiteral(span, ast.IPAddress, v)
	case lexer.Cidr:
		v := p.tok.Text
		p.advance()
		return ast.NewLiteral(span, ast.Cidr, v)
	case lexer.KwInt, lexer.KwBoolType, lexer.KwStringType:
		return p.parseCast()
	case lexer.LParen:
		p.advance()
		e := p.parseExpr()
		p.expect(lexer.RParen, ")")
		return e
	case lexer.LBracket:
		return p.parseArrayLiteral()
	case lexer.Ident:
		return p.parseIdentPrimary()
	default:
		p.errorf(span, "unexpected token %q in expression", p.tok.Text)
		p.advance()
		return ast.NewLiteral(span, ast.Void, nil)
	}
}

func (p *Parser) parseCast() ast.Expression {
	span := p.tok.Span
	target := p.tok.Text
	p.advance()
	p.expect(lexer.LParen, "(")
	sub := p.parseExpr()
	p.expect(lexer.RParen, ")")

	result, ok := resolveCast(sub.Type(), target)
	if !ok {
		p.errorf(span, "cannot cast %s to %s", sub.Type(), target)
		result = ast.Void
	}
	op := map[string]ast.UnaryOp{"int": ast.OpCastInt, "bool": ast.OpCastBool, "string": ast.OpCastString}[target]
	return ast.NewUnary(span, op, sub, result)
}

// parseArrayLiteral implements the homogeneous, non-empty array literal
// invariant directly: an empty `[]` is always a type error.
func (p *Parser) parseArrayLiteral() ast.Expression {
	span := p.tok.Span
	p.advance() // '['
	var elems []ast.Expression
	for p.tok.Kind != lexer.RBracket && p.tok.Kind != lexer.EOF {
		elems = append(elems, p.parseExpr())
		if p.tok.Kind == lexer.Comma {
			p.advance()
		}
	}
	p.expect(lexer.RBracket, "]")

	if len(elems) == 0 {
		p.errorf(span, "empty array literal has no type")
		return ast.NewLiteral(span, ast.Void, nil)
	}
	elemType := elems[0].Type()
	for _, e := range elems[1:] {
		if e.Type() != elemType {
			p.errorf(span, "array literal elements must share one type, got %s and %s", elemType, e.Type())
		}
	}
	arr, ok := ast.NewArray(span, elems, elemType)
	if !ok {
		p.errorf(span, "type %s has no array form", elemType)
		return ast.NewLiteral(span, ast.Void, nil)
	}
	return arr
}

// parseIdentPrimary resolves IDENT as a variable, a handler reference, a
// builtin taking no arguments (e.g. a bare `req.path`), or (with a
// callTail) a builtin/handler call; other unknown names auto-forward-declare
// a Handler per §4.2 "Symbol resolution".
func (p *Parser) parseIdentPrimary() ast.Expression {
	span := p.tok.Span
	name := p.tok.Text
	p.advance()

	if p.tok.Kind == lexer.LParen || canStartParamsNoParen(p.tok.Kind) {
		return p.parseCallTail(span, name)
	}

	if sym, ok := p.scope.Lookup(name, ast.All); ok {
		switch sym.Kind {
		case ast.SymVariable:
			return ast.NewVariableRef(span, sym.ID, name, sym.Type)
		case ast.SymHandler:
			return ast.NewHandlerRef(span, sym.ID, name)
		}
	}

	if p.builtins != nil {
		if sym, sig, ok := p.builtins.Resolve(name, nil); ok {
			kind := ast.CallBuiltinFunc
			if p.builtins.IsHandler(name) {
				kind = ast.CallBuiltinHandler
			}
			return ast.NewCall(span, sym, name, nil, sig.ReturnType, kind)
		}
	}

	sym := p.scope.ForwardDeclareHandler(name, span)
	return ast.NewHandlerRef(span, sym.ID, name)
}

// canStartParamsNoParen reports whether tok can begin a paren-less
// argument list, e.g. `echo "hi";` instead of `echo("hi");`.
func canStartParamsNoParen(k lexer.Kind) bool {
	switch k {
	case lexer.Number, lexer.Boolean, lexer.String, lexer.StringFragment,
		lexer.IPAddr, lexer.Cidr, lexer.Ident, lexer.LBracket, lexer.LParen,
		lexer.OpMinus, lexer.OpTilde:
		return true
	default:
		return false
	}
}

// parseCallTail implements `callTail := '(' params? ')' | paramsNoParen?`
// and resolves callee against the builtin catalog then the scope chain,
// performing the exact-match then reorder+defaults passes described in
// §4.2 "Symbol resolution".
func (p *Parser) parseCallTail(span source.Span, name string) ast.Expression {
	var params []ast.Expression
	if p.tok.Kind == lexer.LParen {
		p.advance()
		for p.tok.Kind != lexer.RParen && p.tok.Kind != lexer.EOF {
			params = append(params, p.parseExpr())
			if p.tok.Kind == lexer.Comma {
				p.advance()
			}
		}
		p.expect(lexer.RParen, ")")
	} else {
		for canStartParamsNoParen(p.tok.Kind) {
			params = append(params, p.parseExpr())
			if p.tok.Kind == lexer.Comma {
				p.advance()
			}
		}
	}

	argTypes := make([]ast.LiteralType, len(params))
	for i, a := range params {
		argTypes[i] = a.Type()
	}

	if p.builtins != nil {
		if sym, sig, ok := p.builtins.Resolve(name, argTypes); ok {
			kind := ast.CallBuiltinFunc
			if sig.ReturnType == ast.Void {
				kind = ast.CallBuiltinHandler
			}
			return ast.NewCall(span, sym, name, params, sig.ReturnType, kind)
		}
	}

	if sym, ok := p.scope.Lookup(name, ast.All); ok && sym.Kind == ast.SymHandler {
		return ast.NewCall(span, sym.ID, name, params, ast.Boolean, ast.CallUserHandler)
	}

	sym := p.scope.ForwardDeclareHandler(name, span)
	return ast.NewCall(span, sym.ID, name, params, ast.Boolean, ast.CallUserHandler)
}

// parseInterpolatedString implements the lexer's StringFragment/StringEnd
// protocol: concatenate fragments and embedded expressions via string
// concatenation (OpAdd over String).
func (p *Parser) parseInterpolatedString() ast.Expression {
	span := p.tok.Span
	var result ast.Expression = ast.NewLiteral(span, ast.String, p.tok.Value.(string))

	for p.tok.Kind == lexer.StringFragment {
		p.lex.EnterInterpolation()
		p.advance()
		expr := p.parseExpr()
		strExpr := p.coerceToString(expr)
		result = p.mkBinary(span, ast.OpAdd, result, strExpr)

		if p.tok.Kind != lexer.RBrace {
			p.errorf(p.tok.Span, "expected } to close interpolation")
		}
		// The lexer already stands just past the '}' held in p.tok, so the
		// string scan resumes there without another advance.
		p.tok = p.lex.ResumeStringPart()
		if p.tok.Kind == lexer.StringFragment || p.tok.Kind == lexer.StringEnd {
			frag := ast.NewLiteral(p.tok.Span, ast.String, p.tok.Value.(string))
			result = p.mkBinary(span, ast.OpAdd, result, frag)
		}
	}
	p.advance()
	return result
}

func (p *Parser) coerceToString(e ast.Expression) ast.Expression {
	if e.Type() == ast.String {
		return e
	}
	result, ok := resolveCast(e.Type(), "string")
	if !ok {
		p.errorf(e.Span(), "cannot interpolate a %s value into a string", e.Type())
		return e
	}
	return ast.NewUnary(e.Span(), ast.OpCastString, e, result)
}

func (p *Parser) mkBinary(span source.Span, op ast.BinaryOp, lhs, rhs ast.Expression) ast.Expression {
	result, ok := resolveBinary(op, lhs.Type(), rhs.Type())
	if !ok {
		p.errorf(span, "operator %v is incompatible with operand types %s and %s", op, lhs.Type(), rhs.Type())
		result = ast.Void
	}
	return ast.NewBinary(span, op, lhs, rhs, result)
}

func (p *Parser) mkUnary(span source.Span, op ast.UnaryOp, sub ast.Expression) ast.Expression {
	resultType := sub.Type()
	switch op {
	case ast.OpNot:
		if sub.Type() != ast.Boolean {
			p.errorf(span, "'not'/unary negation requires bool, got %s", sub.Type())
		}
		resultType = ast.Boolean
	case ast.OpNeg, ast.OpBitNot:
		if sub.Type() != ast.Number {
			p.errorf(span, "unary %v requires int, got %s", op, sub.Type())
		}
		resultType = ast.Number
	}
	return ast.NewUnary(span, op, sub, resultType)
}
