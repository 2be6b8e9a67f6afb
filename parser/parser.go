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

// Package parser implements the recursive-descent grammar of §4.2: it
// consumes lexer.Tokens and produces a type-checked ast.Unit, resolving
// symbols and operator overloads as it goes so that anything surviving
// Parse already carries a known ast.LiteralType on every expression.
package parser

import (
	"github.com/nabbar/x0d/ast"
	x0derr "github.com/nabbar/x0d/errors"
	"github.com/nabbar/x0d/lexer"
	"github.com/nabbar/x0d/source"
)

// BuiltinCatalog is the subset of the builtin registry the parser needs at
// parse time: resolving `name(args)` calls against native signatures.
type BuiltinCatalog interface {
	// Resolve returns the SymbolID and Signature best matching name against
	// the given argument types, first by exact match then by
	// reorder+defaults; ok is false if no candidate matches or more than
	// one does ambiguously.
	Resolve(name string, argTypes []ast.LiteralType) (ast.SymbolID, ast.Signature, bool)
	IsHandler(name string) bool
}

// Parser holds the token cursor, the current Unit/Scope, and the
// diagnostics report every error is appended to.
type Parser struct {
	lex      *lexer.Lexer
	report   *source.Report
	builtins BuiltinCatalog

	tok     lexer.Token
	lookPos int

	unit  *ast.Unit
	scope *ast.Scope
}

func New(stream *source.Stream, report *source.Report, builtins BuiltinCatalog) *Parser {
	p := &Parser{
		lex:      lexer.New(stream, report),
		report:   report,
		builtins: builtins,
		unit:     ast.NewUnit(stream.Name),
	}
	p.scope = p.unit.Global
	p.advance()
	return p
}

func (p *Parser) advance() {
	p.tok = p.lex.Next()
}

func (p *Parser) advanceRegex() {
	p.tok = p.lex.NextRegex()
}

func (p *Parser) errorf(span source.Span, format string, args ...interface{}) {
	p.report.Add(x0derr.ParseError, span, format, args...)
}

func (p *Parser) expect(k lexer.Kind, what string) source.Span {
	span := p.tok.Span
	if p.tok.Kind != k {
		p.errorf(span, "expected %s, got %q", what, p.tok.Text)
		return span
	}
	p.advance()
	return span
}

// Parse runs `unit := import* decl*` and returns the resulting Unit. Any
// diagnostics raised are appended to the Report passed to New; the caller
// should check report.HasErrors() before proceeding to IR lowering.
func (p *Parser) Parse() *ast.Unit {
	for p.tok.Kind == lexer.KwImport {
		p.parseImport()
	}
	for p.tok.Kind != lexer.EOF {
		p.parseDecl()
	}

	for _, name := range p.unit.Unimplemented() {
		p.errorf(source.Span{}, "handler %q is declared but never implemented", name)
	}
	return p.unit
}

func (p *Parser) parseImport() {
	p.advance() // 'import'
	// name-or-list: either a single identifier or a bracketed list. The
	// import target only registers a native module in the builtin
	// catalog; it is not re-entered as Flow source.
	if p.tok.Kind == lexer.LBracket {
		p.advance()
		for p.tok.Kind != lexer.RBracket && p.tok.Kind != lexer.EOF {
			p.expect(lexer.Ident, "import name")
			if p.tok.Kind == lexer.Comma {
				p.advance()
			}
		}
		p.expect(lexer.RBracket, "]")
	} else {
		p.expect(lexer.Ident, "import name")
	}
	if p.tok.Kind == lexer.KwFrom {
		p.advance()
		p.expect(lexer.String, "module path string")
	}
	p.expect(lexer.Semicolon, ";")
}

func (p *Parser) parseDecl() {
	switch p.tok.Kind {
	case lexer.KwVar:
		p.parseVarDecl()
	case lexer.KwHandler, lexer.Ident:
		p.parseHandlerDecl()
	default:
		p.errorf(p.tok.Span, "expected declaration, got %q", p.tok.Text)
		p.advance()
	}
}

func (p *Parser) parseVarDecl() {
	p.advance() // 'var'
	span := p.tok.Span
	name := p.tok.Text
	p.expect(lexer.Ident, "variable name")
	p.expect(lexer.OpAssign, "=")
	expr := p.parseExpr()
	p.expect(lexer.Semicolon, ";")

	sym := &ast.Symbol{Name: name, Kind: ast.SymVariable, Type: expr.Type(), Span: span}
	if !p.scope.Declare(sym) {
		p.errorf(span, "redeclaration of %q in this scope", name)
	}
}

func (p *Parser) parseHandlerDecl() {
	span := p.tok.Span
	if p.tok.Kind == lexer.KwHandler {
		p.advance()
	}
	name := p.tok.Text
	p.expect(lexer.Ident, "handler name")

	sym, exists := p.scope.Lookup(name, ast.Self)
	if !exists {
		sym = p.scope.ForwardDeclareHandler(name, span)
	}

	if p.tok.Kind == lexer.Semicolon {
		// forward declaration only
		p.advance()
		return
	}

	body := p.parseStmt()
	node := p.unit.AddNode(body)
	if !sym.Implement(node, span) {
		p.errorf(span, "handler %q redefined", name)
	}
}
