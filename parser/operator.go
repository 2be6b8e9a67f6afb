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

import "github.com/nabbar/x0d/ast"

type opKey struct {
	op  ast.BinaryOp
	lhs ast.LiteralType
	rhs ast.LiteralType
}

// operatorTable is keyed by (operator, lhs-type, rhs-type) and yields the
// LiteralType of the result, or false if the triple is incompatible (§4.2
// "Operator typing"). This is the single authoritative table: arithmetic
// and bitwise operators are defined only over Number, string comparisons
// only over String, and the three match-style operators (=^, =$, =~) are
// defined only over String with a String (=^/=$) or RegExp (=~) operand.
var operatorTable = map[opKey]ast.LiteralType{
	{ast.OpAdd, ast.Number, ast.Number}: ast.Number,
	{ast.OpSub, ast.Number, ast.Number}: ast.Number,
	{ast.OpMul, ast.Number, ast.Number}: ast.Number,
	{ast.OpDiv, ast.Number, ast.Number}: ast.Number,
	{ast.OpMod, ast.Number, ast.Number}: ast.Number,
	{ast.OpPow, ast.Number, ast.Number}: ast.Number,
	{ast.OpShl, ast.Number, ast.Number}: ast.Number,
	{ast.OpShr, ast.Number, ast.Number}: ast.Number,
	{ast.OpBitAnd, ast.Number, ast.Number}: ast.Number,
	{ast.OpBitOr, ast.Number, ast.Number}:  ast.Number,
	{ast.OpBitXor, ast.Number, ast.Number}: ast.Number,

	{ast.OpAdd, ast.String, ast.String}: ast.String, // concatenation

	{ast.OpAnd, ast.Boolean, ast.Boolean}: ast.Boolean,
	{ast.OpOr, ast.Boolean, ast.Boolean}:  ast.Boolean,
	{ast.OpXor, ast.Boolean, ast.Boolean}: ast.Boolean,

	{ast.OpEq, ast.Number, ast.Number}:   ast.Boolean,
	{ast.OpNe, ast.Number, ast.Number}:   ast.Boolean,
	{ast.OpLt, ast.Number, ast.Number}:   ast.Boolean,
	{ast.OpLe, ast.Number, ast.Number}:   ast.Boolean,
	{ast.OpGt, ast.Number, ast.Number}:   ast.Boolean,
	{ast.OpGe, ast.Number, ast.Number}:   ast.Boolean,

	{ast.OpEq, ast.String, ast.String}: ast.Boolean,
	{ast.OpNe, ast.String, ast.String}: ast.Boolean,
	{ast.OpLt, ast.String, ast.String}: ast.Boolean,
	{ast.OpLe, ast.String, ast.String}: ast.Boolean,
	{ast.OpGt, ast.String, ast.String}: ast.Boolean,
	{ast.OpGe, ast.String, ast.String}: ast.Boolean,

	{ast.OpEq, ast.Boolean, ast.Boolean}: ast.Boolean,
	{ast.OpNe, ast.Boolean, ast.Boolean}: ast.Boolean,

	{ast.OpEq, ast.IPAddress, ast.IPAddress}: ast.Boolean,
	{ast.OpNe, ast.IPAddress, ast.IPAddress}: ast.Boolean,
	{ast.OpIn, ast.IPAddress, ast.Cidr}:      ast.Boolean,
	{ast.OpIn, ast.Cidr, ast.Cidr}:           ast.Boolean,

	{ast.OpIn, ast.Number, ast.IntArray}:    ast.Boolean,
	{ast.OpIn, ast.String, ast.StringArray}: ast.Boolean,

	{ast.OpPrefixMatch, ast.String, ast.String}: ast.Boolean,
	{ast.OpSuffixMatch, ast.String, ast.String}: ast.Boolean,
	{ast.OpRegexMatch, ast.String, ast.RegExp}:  ast.Boolean,
}

// resolveBinary looks up the operator table and reports ok=false if the
// (op, lhs, rhs) triple is not a defined overload.
func resolveBinary(op ast.BinaryOp, lhs, rhs ast.LiteralType) (ast.LiteralType, bool) {
	t, ok := operatorTable[opKey{op, lhs, rhs}]
	return t, ok
}

// castTable is keyed by (source-type, target-keyword-name).
var castTable = map[ast.LiteralType]map[string]bool{
	ast.Number: {"string": true, "bool": true},
	ast.String: {"int": true, "bool": true},
	ast.Boolean: {"string": true, "int": true},
}

func resolveCast(src ast.LiteralType, target string) (ast.LiteralType, bool) {
	if m, ok := castTable[src]; !ok || !m[target] {
		return ast.Void, false
	}
	switch target {
	case "int":
		return ast.Number, true
	case "bool":
		return ast.Boolean, true
	case "string":
		return ast.String, true
	}
	return ast.Void, false
}
