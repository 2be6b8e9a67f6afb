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

// Package ast defines the Flow language's typed AST and symbol tables: the
// closed set of literal types, the scope chain, and the tagged-sum-type
// expression/statement nodes the parser produces and the IR builder
// consumes.
//
// Cyclic references in the original C++ (AST nodes pointing at Symbols,
// Symbols pointing back at their declaring node for forward-declared
// handlers) are modeled here as indices into a per-Unit arena rather than
// pointers, so there is never a reference cycle for the garbage collector
// or for a naive recursive Drop to worry about.
package ast

import "fmt"

// LiteralType is the closed set of value kinds the language supports.
type LiteralType uint8

const (
	Void LiteralType = iota
	Boolean
	Number
	String
	IPAddress
	Cidr
	RegExp
	Handler
	IntArray
	StringArray
	IPAddrArray
	CidrArray
)

func (t LiteralType) String() string {
	switch t {
	case Void:
		return "void"
	case Boolean:
		return "bool"
	case Number:
		return "int"
	case String:
		return "string"
	case IPAddress:
		return "ip"
	case Cidr:
		return "cidr"
	case RegExp:
		return "regex"
	case Handler:
		return "handler"
	case IntArray:
		return "int[]"
	case StringArray:
		return "string[]"
	case IPAddrArray:
		return "ip[]"
	case CidrArray:
		return "cidr[]"
	default:
		return fmt.Sprintf("type(%d)", uint8(t))
	}
}

// ElementType returns the scalar element type of an array LiteralType, and
// false if t is not an array type.
func (t LiteralType) ElementType() (LiteralType, bool) {
	switch t {
	case IntArray:
		return Number, true
	case StringArray:
		return String, true
	case IPAddrArray:
		return IPAddress, true
	case CidrArray:
		return Cidr, true
	default:
		return Void, false
	}
}

// ArrayTypeOf returns the array LiteralType whose element type is t, and
// false if t has no corresponding homogeneous array type (arrays of bool,
// handler, or regex are not part of the closed set — see §3 DATA MODEL).
func ArrayTypeOf(t LiteralType) (LiteralType, bool) {
	switch t {
	case Number:
		return IntArray, true
	case String:
		return StringArray, true
	case IPAddress:
		return IPAddrArray, true
	case Cidr:
		return CidrArray, true
	default:
		return Void, false
	}
}
