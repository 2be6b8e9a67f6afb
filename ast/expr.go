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

// BinaryOp is the closed set of binary operators the operator-typing table
// is keyed on.
type BinaryOp uint8

const (
	OpAdd BinaryOp = iota
	OpSub
	OpMul
	OpDiv
	OpMod
	OpPow
	OpShl
	OpShr
	OpBitAnd
	OpBitOr
	OpBitXor
	OpAnd
	OpOr
	OpXor
	OpEq
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe
	OpIn
	OpRegexMatch // =~
	OpPrefixMatch
	OpSuffixMatch
)

// UnaryOp is the closed set of unary (and cast) operators.
type UnaryOp uint8

const (
	OpNeg UnaryOp = iota
	OpNot
	OpBitNot
	OpCastInt
	OpCastBool
	OpCastString
)

// Node is the common tag every Expression/Statement implements, carrying
// the span used for diagnostics.
type Node interface {
	Span() source.Span
}

// Expression is the tagged-sum type for every expression form the parser
// produces. Concrete variants implement it by embedding exprBase.
type Expression interface {
	Node
	exprNode()
	// Type returns the LiteralType assigned by the type checker. Every
	// Expr that survives type-checking carries a known (non-Void unless
	// genuinely void) LiteralType.
	Type() LiteralType
}

type exprBase struct {
	span source.Span
	typ  LiteralType
}

func (e exprBase) Span() source.Span { return e.span }
func (e exprBase) Type() LiteralType { return e.typ }
func (exprBase) exprNode()           {}

// Literal is a compile-time constant of a known kind.
type Literal struct {
	exprBase
	Value interface{}
}

func NewLiteral(span source.Span, kind LiteralType, value interface{}) *Literal {
	return &Literal{exprBase: exprBase{span: span, typ: kind}, Value: value}
}

// VariableRef references a declared Variable symbol by resolved SymbolID.
type VariableRef struct {
	exprBase
	Symbol SymbolID
	Name   string
}

func NewVariableRef(span source.Span, sym SymbolID, name string, typ LiteralType) *VariableRef {
	return &VariableRef{exprBase: exprBase{span: span, typ: typ}, Symbol: sym, Name: name}
}

// HandlerRef references a Handler symbol as a first-class value (e.g.
// passed to a builtin expecting a handler callback).
type HandlerRef struct {
	exprBase
	Symbol SymbolID
	Name   string
}

func NewHandlerRef(span source.Span, sym SymbolID, name string) *HandlerRef {
	return &HandlerRef{exprBase: exprBase{span: span, typ: Handler}, Symbol: sym, Name: name}
}

// CallKind discriminates what Call.Callee resolved to, so the IR builder
// can pick the right instruction (CallFunc / InvokeHandler / CallHandler)
// without re-deriving it from the return type.
type CallKind uint8

const (
	CallBuiltinFunc CallKind = iota
	CallBuiltinHandler
	CallUserHandler
)

// Call is either a builtin function/handler invocation or a plain handler
// call; Callee resolves to a BuiltinFunction, BuiltinHandler, or Handler
// symbol after resolution.
type Call struct {
	exprBase
	Callee SymbolID
	Name   string
	Kind   CallKind
	Params []Expression
}

func NewCall(span source.Span, callee SymbolID, name string, params []Expression, retType LiteralType, kind CallKind) *Call {
	return &Call{exprBase: exprBase{span: span, typ: retType}, Callee: callee, Name: name, Kind: kind, Params: params}
}

// Unary applies Op to Sub; Op may be a numeric negation, boolean negation,
// bitwise complement, or an explicit cast.
type Unary struct {
	exprBase
	Op  UnaryOp
	Sub Expression
}

func NewUnary(span source.Span, op UnaryOp, sub Expression, resultType LiteralType) *Unary {
	return &Unary{exprBase: exprBase{span: span, typ: resultType}, Op: op, Sub: sub}
}

// Binary applies Op to LHS and RHS. ResultType is whatever the operator
// table resolved for (Op, LHS.Type(), RHS.Type()); typing fails before a
// Binary node with an unresolved triple is ever constructed.
type Binary struct {
	exprBase
	Op  BinaryOp
	LHS Expression
	RHS Expression
}

func NewBinary(span source.Span, op BinaryOp, lhs, rhs Expression, resultType LiteralType) *Binary {
	return &Binary{exprBase: exprBase{span: span, typ: resultType}, Op: op, LHS: lhs, RHS: rhs}
}

// Array is a homogeneous, non-empty array literal; ElemType is the scalar
// type of Elements, and Type() reports the corresponding *Array type.
type Array struct {
	exprBase
	Elements []Expression
	ElemType LiteralType
}

func NewArray(span source.Span, elements []Expression, elemType LiteralType) (*Array, bool) {
	arrType, ok := ArrayTypeOf(elemType)
	if !ok || len(elements) == 0 {
		return nil, false
	}
	return &Array{exprBase: exprBase{span: span, typ: arrType}, Elements: elements, ElemType: elemType}, true
}
