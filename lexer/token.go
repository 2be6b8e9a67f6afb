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

// Package lexer tokenizes Flow source over a re-entrant source.Stream:
// identifiers, keywords, number literals with unit suffixes, raw and
// interpolated strings, regex/IP/CIDR literals, operators and punctuation.
package lexer

import "github.com/nabbar/x0d/source"

// Kind is the closed set of token kinds the parser consumes.
type Kind uint8

const (
	EOF Kind = iota
	Ident
	Number
	String
	StringFragment
	StringEnd
	Regex
	IPAddr
	Cidr
	Boolean

	// Keywords.
	KwHandler
	KwVar
	KwIf
	KwUnless
	KwThen
	KwElse
	KwMatch
	KwOn
	KwImport
	KwFrom
	KwInt
	KwBoolType
	KwStringType

	// Operators.
	OpPlus
	OpMinus
	OpStar
	OpSlash
	OpPercent
	OpPow
	OpShl
	OpShr
	OpAmp
	OpPipe
	OpCaret
	OpTilde
	OpAssign
	OpEq
	OpNe
	OpLe
	OpGe
	OpLt
	OpGt
	OpHeadMatch // =^
	OpTailMatch // =$
	OpRegexMatch // =~
	OpIn
	OpAnd
	OpOr
	OpXor
	OpNot

	// Punctuation.
	LParen
	RParen
	LBrace
	RBrace
	LBracket
	RBracket
	Comma
	Semicolon
)

var keywords = map[string]Kind{
	"handler": KwHandler,
	"var":     KwVar,
	"if":      KwIf,
	"unless":  KwUnless,
	"then":    KwThen,
	"else":    KwElse,
	"match":   KwMatch,
	"on":      KwOn,
	"import":  KwImport,
	"from":    KwFrom,
	"int":     KwInt,
	"bool":    KwBoolType,
	"string":  KwStringType,
	"and":     OpAnd,
	"or":      OpOr,
	"xor":     OpXor,
	"not":     OpNot,
	"in":      OpIn,
	"shl":     OpShl,
	"shr":     OpShr,
}

// Token is one lexed unit, spanning a contiguous range of its source
// stream, with its literal text and (for Number) a parsed multiplier value.
type Token struct {
	Kind  Kind
	Text  string
	Value interface{} // int64 for Number (post unit-suffix multiplication), bool for Boolean
	Span  source.Span
}
