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

package ast

import "github.com/nabbar/x0d/source"

// MatchOp is the comparison a Match statement applies between its subject
// expression and each case's literals.
type MatchOp uint8

const (
	Same MatchOp = iota
	Head
	Tail
	RegExpMatch
)

// Statement is the tagged-sum type for every statement form.
type Statement interface {
	Node
	stmtNode()
}

type stmtBase struct {
	span source.Span
}

func (s stmtBase) Span() source.Span { return s.span }
func (stmtBase) stmtNode()           {}

// Compound is a brace-delimited sequence of statements (a handler body, or
// any `{ ... }` block).
type Compound struct {
	stmtBase
	Body []Statement
}

func NewCompound(span source.Span, body []Statement) *Compound {
	return &Compound{stmtBase: stmtBase{span: span}, Body: body}
}

// Cond is `if`/`unless` with an optional `else`. Unless is carried as a
// boolean so the IR lowering can invert the branch instead of needing a
// separate statement kind.
type Cond struct {
	stmtBase
	Expr   Expression
	Unless bool
	Then   Statement
	Else   Statement // nil if no else
}

func NewCond(span source.Span, expr Expression, unless bool, then, els Statement) *Cond {
	return &Cond{stmtBase: stmtBase{span: span}, Expr: expr, Unless: unless, Then: then, Else: els}
}

// MatchCase pairs a set of literal labels with the statement to run when
// one matches. Labels share Op's comparison semantics and must all be the
// same LiteralType as the subject expression (RegExp literals under =~).
type MatchCase struct {
	Labels []Expression
	Body   Statement
}

// Match implements `match expr op { on label[, label...] stmt; ... else stmt; }`.
type Match struct {
	stmtBase
	Expr  Expression
	Op    MatchOp
	Cases []MatchCase
	Else  Statement // nil if no else
}

func NewMatch(span source.Span, expr Expression, op MatchOp, cases []MatchCase, els Statement) *Match {
	return &Match{stmtBase: stmtBase{span: span}, Expr: expr, Op: op, Cases: cases, Else: els}
}

// Assign implements `var = expr` against an already-declared Variable.
type Assign struct {
	stmtBase
	Target SymbolID
	Name   string
	Value  Expression
}

func NewAssign(span source.Span, target SymbolID, name string, value Expression) *Assign {
	return &Assign{stmtBase: stmtBase{span: span}, Target: target, Name: name, Value: value}
}

// ExprStmt evaluates an expression for its side effect (almost always a
// builtin handler call like `echo "hi";`) and discards the result.
type ExprStmt struct {
	stmtBase
	Expr Expression
}

func NewExprStmt(span source.Span, expr Expression) *ExprStmt {
	return &ExprStmt{stmtBase: stmtBase{span: span}, Expr: expr}
}
