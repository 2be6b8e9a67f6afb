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

package ir

import (
	"fmt"

	"github.com/nabbar/x0d/ast"
)

// ValueKind discriminates what a Value refers to.
type ValueKind uint8

const (
	// ValInvalid is the zero Value; it never appears as a real operand.
	ValInvalid ValueKind = iota
	// ValConst indexes into the owning Program's ConstPool (the table
	// picked by Type).
	ValConst
	// ValGlobal indexes into Program.Globals (a top-level `var`).
	ValGlobal
	// ValTemp is the result of a prior instruction in the same Handler,
	// numbered monotonically for the life of the Handler (SSA-like: each
	// temp is assigned exactly once).
	ValTemp
)

// Value is an operand or instruction result: a typed reference to either a
// constant, a global variable slot, or a previously computed temporary.
type Value struct {
	Kind ValueKind
	Type ast.LiteralType
	Idx  int
}

func (v Value) String() string {
	switch v.Kind {
	case ValConst:
		return fmt.Sprintf("const.%s[%d]", v.Type, v.Idx)
	case ValGlobal:
		return fmt.Sprintf("g%d", v.Idx)
	case ValTemp:
		return fmt.Sprintf("%%%d", v.Idx)
	default:
		return "<invalid>"
	}
}

func (v Value) Valid() bool { return v.Kind != ValInvalid }

// ConstNum/ConstStr/... build a Value referencing a deduplicated entry in
// pool, typed accordingly.
func ConstNum(pool *ConstPool, v int64) Value {
	return Value{Kind: ValConst, Type: ast.Number, Idx: pool.number(v)}
}

func ConstBool(v bool) Value {
	idx := 0
	if v {
		idx = 1
	}
	return Value{Kind: ValConst, Type: ast.Boolean, Idx: idx}
}

func ConstStr(pool *ConstPool, v string) Value {
	return Value{Kind: ValConst, Type: ast.String, Idx: pool.str(v)}
}

func ConstIP(pool *ConstPool, v string) Value {
	return Value{Kind: ValConst, Type: ast.IPAddress, Idx: pool.ip(v)}
}

func ConstCidr(pool *ConstPool, v string) Value {
	return Value{Kind: ValConst, Type: ast.Cidr, Idx: pool.cidr(v)}
}

func ConstRegex(pool *ConstPool, v string) Value {
	return Value{Kind: ValConst, Type: ast.RegExp, Idx: pool.regex(v)}
}
