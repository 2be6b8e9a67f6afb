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

import "github.com/nabbar/x0d/ast"

// Opcode is the closed set of three-address instructions §4.3 lists,
// grouped by the operand type(s) they act on.
type Opcode uint8

const (
	// Number arithmetic/bitwise (operands and result are ValType Number
	// unless noted).
	NAdd Opcode = iota
	NSub
	NMul
	NDiv
	NRem
	NPow
	NShl
	NLshr // arithmetic right shift, masked to 6 bits — see §13 decision 1
	NAnd
	NOr
	NXor
	NNeg
	NCmpz // result Boolean: operand != 0

	// Boolean.
	BAnd
	BOr
	BXor
	BNot
	BCmpEq
	BCmpNe

	// String (comparisons are case-insensitive per §4.3).
	SCat
	SLen // result Number
	SEmpty // result Boolean
	SCmpLt
	SCmpLe
	SCmpEq
	SCmpNe
	SCmpGe
	SCmpGt
	SHeadMatch // result Boolean
	STailMatch // result Boolean
	SRegexMatch // result Boolean; sets the runner's last-match slot
	SContains  // result Boolean

	// IP / CIDR.
	IPCmpEq
	IPCmpNe
	IPInCidr   // IPAddress in Cidr -> Boolean
	CidrInCidr // Cidr in Cidr -> Boolean

	// Conversions.
	CvtNumToStr
	CvtBoolToStr
	CvtIPToStr
	CvtCidrToStr
	CvtRegexToStr
	CvtStrToNum

	// Array.
	ArrEmpty    // result: a fresh zero-length array of Result.Type
	ArrLen      // result Number
	ArrConcat   // same array type in/out
	ArrContains // elem in array -> Boolean

	// Memory.
	Load  // read a Global into a temp
	Store // write a temp into a Global (no result)

	// Control flow / calls. These are the only opcodes that may terminate
	// a BasicBlock; IsTerminator reports which.
	Br            // unconditional branch to Targets[0]
	CondBr        // Args[0] Boolean; true->Targets[0], false->Targets[1]
	Ret           // return Args[0] (Boolean "handled"); no successors
	CallFunc      // builtin function call, has a Result
	InvokeHandler // builtin handler call; Result is Boolean "handled";
	// lowered together with the synthetic done/continue split described
	// in §4.3 "Handler-call semantics" — callers see it as CondBr+Ret.
	CallHandler // user-defined handler call; Result is Boolean "handled"
	CallNoReturn // `return(status,override)`-shaped builtin call; no
	// successors, always rewritten in by the final patch pass (§4.4).
)

// IsTerminator reports whether op may be (and, for BasicBlock validity,
// must be) the last instruction of a BasicBlock.
func (op Opcode) IsTerminator() bool {
	switch op {
	case Br, CondBr, Ret, CallNoReturn:
		return true
	default:
		return false
	}
}

// Instr is one three-address instruction. Not every field is meaningful
// for every Op; which ones are is documented per opcode group above.
type Instr struct {
	Op     Opcode
	Result Value   // ValInvalid if Op produces no value (Store, Br, CondBr, Ret, CallNoReturn)
	Args   []Value // operands, in source order

	Local int // Global slot index, for Load/Store

	Targets []int // successor BasicBlock indices, for Br/CondBr

	// Call fields, for CallFunc/InvokeHandler/CallHandler/CallNoReturn.
	Callee     ast.SymbolID
	CalleeName string
}
