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

package runtime

import (
	"fmt"
	"math"
	"net"
	"regexp"
	"strconv"
	"strings"

	"github.com/nabbar/x0d/ast"
	"github.com/nabbar/x0d/builtin"
	"github.com/nabbar/x0d/ir"
)

// evalPure computes the result of every non-control-flow, non-call opcode
// from its already-resolved operands. Control flow (Br/CondBr/Ret) and
// calls (CallFunc/InvokeHandler/CallHandler/CallNoReturn) are handled
// directly by the dispatch loop in runner.go, since they need access to
// the program counter and call stack this function does not have.
//
// §13 decision 1: NPow saturates at math.MaxInt64/MinInt64 on overflow
// rather than wrapping; NShl/NLshr are signed arithmetic shifts with the
// shift count masked to 6 bits, matching Go's own int64 shift semantics.
func evalPure(op ir.Opcode, args []builtin.Value) (builtin.Value, error) {
	// The ordering opcodes are shared with Number comparisons (see
	// ir.numCompareOpcode); Number operands compare numerically.
	if len(args) == 2 && args[0].Type == ast.Number && args[1].Type == ast.Number {
		switch op {
		case ir.SCmpLt:
			return builtin.Bool(args[0].Num < args[1].Num), nil
		case ir.SCmpLe:
			return builtin.Bool(args[0].Num <= args[1].Num), nil
		case ir.SCmpGe:
			return builtin.Bool(args[0].Num >= args[1].Num), nil
		case ir.SCmpGt:
			return builtin.Bool(args[0].Num > args[1].Num), nil
		}
	}

	switch op {
	case ir.NAdd:
		return builtin.Number(args[0].Num + args[1].Num), nil
	case ir.NSub:
		return builtin.Number(args[0].Num - args[1].Num), nil
	case ir.NMul:
		return builtin.Number(args[0].Num * args[1].Num), nil
	case ir.NDiv:
		if args[1].Num == 0 {
			return builtin.Value{}, fmt.Errorf("division by zero")
		}
		return builtin.Number(args[0].Num / args[1].Num), nil
	case ir.NRem:
		if args[1].Num == 0 {
			return builtin.Value{}, fmt.Errorf("modulo by zero")
		}
		return builtin.Number(args[0].Num % args[1].Num), nil
	case ir.NPow:
		return builtin.Number(saturatingPow(args[0].Num, args[1].Num)), nil
	case ir.NShl:
		return builtin.Number(args[0].Num << (uint(args[1].Num) & 63)), nil
	case ir.NLshr:
		return builtin.Number(args[0].Num >> (uint(args[1].Num) & 63)), nil
	case ir.NAnd:
		return builtin.Number(args[0].Num & args[1].Num), nil
	case ir.NOr:
		return builtin.Number(args[0].Num | args[1].Num), nil
	case ir.NXor:
		return builtin.Number(args[0].Num ^ args[1].Num), nil
	case ir.NNeg:
		return builtin.Number(-args[0].Num), nil
	case ir.NCmpz:
		return builtin.Bool(args[0].Num != 0), nil

	case ir.BAnd:
		return builtin.Bool(args[0].IsTrue() && args[1].IsTrue()), nil
	case ir.BOr:
		return builtin.Bool(args[0].IsTrue() || args[1].IsTrue()), nil
	case ir.BXor:
		return builtin.Bool(args[0].IsTrue() != args[1].IsTrue()), nil
	case ir.BNot:
		return builtin.Bool(!args[0].IsTrue()), nil
	case ir.BCmpEq:
		return builtin.Bool(args[0].IsTrue() == args[1].IsTrue()), nil
	case ir.BCmpNe:
		return builtin.Bool(args[0].IsTrue() != args[1].IsTrue()), nil

	case ir.SCat:
		return builtin.String(args[0].Str + args[1].Str), nil
	case ir.SLen:
		return builtin.Number(int64(len(args[0].Str))), nil
	case ir.SEmpty:
		return builtin.Bool(args[0].Str == ""), nil
	case ir.SCmpLt:
		return builtin.Bool(strings.ToLower(args[0].Str) < strings.ToLower(args[1].Str)), nil
	case ir.SCmpLe:
		return builtin.Bool(strings.ToLower(args[0].Str) <= strings.ToLower(args[1].Str)), nil
	case ir.SCmpEq:
		return builtin.Bool(strings.EqualFold(args[0].Str, args[1].Str)), nil
	case ir.SCmpNe:
		return builtin.Bool(!strings.EqualFold(args[0].Str, args[1].Str)), nil
	case ir.SCmpGe:
		return builtin.Bool(strings.ToLower(args[0].Str) >= strings.ToLower(args[1].Str)), nil
	case ir.SCmpGt:
		return builtin.Bool(strings.ToLower(args[0].Str) > strings.ToLower(args[1].Str)), nil
	case ir.SHeadMatch:
		return builtin.Bool(strings.HasPrefix(strings.ToLower(args[0].Str), strings.ToLower(args[1].Str))), nil
	case ir.STailMatch:
		return builtin.Bool(strings.HasSuffix(strings.ToLower(args[0].Str), strings.ToLower(args[1].Str))), nil
	case ir.SContains:
		return builtin.Bool(strings.Contains(strings.ToLower(args[0].Str), strings.ToLower(args[1].Str))), nil

	case ir.IPCmpEq:
		return builtin.Bool(args[0].IP.Equal(args[1].IP)), nil
	case ir.IPCmpNe:
		return builtin.Bool(!args[0].IP.Equal(args[1].IP)), nil
	case ir.IPInCidr:
		return builtin.Bool(args[1].Cidr != nil && args[1].Cidr.Contains(args[0].IP)), nil
	case ir.CidrInCidr:
		return builtin.Bool(cidrContainsCidr(args[1].Cidr, args[0].Cidr)), nil

	case ir.CvtNumToStr:
		return builtin.String(strconv.FormatInt(args[0].Num, 10)), nil
	case ir.CvtBoolToStr:
		return builtin.String(fmt.Sprintf("%v", args[0].IsTrue())), nil
	case ir.CvtIPToStr:
		return builtin.String(args[0].IP.String()), nil
	case ir.CvtCidrToStr:
		return builtin.String(args[0].Cidr.String()), nil
	case ir.CvtRegexToStr:
		return builtin.String(args[0].Rx.String()), nil
	case ir.CvtStrToNum:
		n, err := strconv.ParseInt(strings.TrimSpace(args[0].Str), 10, 64)
		if err != nil {
			return builtin.Value{}, fmt.Errorf("cannot convert %q to int: %w", args[0].Str, err)
		}
		return builtin.Number(n), nil

	case ir.ArrLen:
		return builtin.Number(int64(arrayLen(args[0]))), nil
	case ir.ArrConcat:
		return concatArrays(args[0], args[1]), nil
	case ir.ArrContains:
		return builtin.Bool(arrayContains(args[1], args[0])), nil

	default:
		return builtin.Value{}, fmt.Errorf("evalPure: unsupported opcode %s", op)
	}
}

func saturatingPow(base, exp int64) int64 {
	if exp < 0 {
		return 0
	}
	result := int64(1)
	for i := int64(0); i < exp; i++ {
		next := result * base
		if base != 0 && next/base != result {
			if (result > 0) == (base > 0) {
				return math.MaxInt64
			}
			return math.MinInt64
		}
		result = next
	}
	return result
}

func cidrContainsCidr(outer, inner *net.IPNet) bool {
	if outer == nil || inner == nil {
		return false
	}
	outerOnes, _ := outer.Mask.Size()
	innerOnes, _ := inner.Mask.Size()
	return outerOnes <= innerOnes && outer.Contains(inner.IP)
}

func arrayLen(v builtin.Value) int {
	switch v.Type {
	case ast.IntArray:
		return len(v.Ints)
	case ast.StringArray:
		return len(v.Strs)
	case ast.IPAddrArray:
		return len(v.IPs)
	case ast.CidrArray:
		return len(v.Cidrs)
	default:
		return 0
	}
}

func concatArrays(a, b builtin.Value) builtin.Value {
	switch a.Type {
	case ast.IntArray:
		return builtin.IntArray(append(append([]int64{}, a.Ints...), b.Ints...))
	case ast.StringArray:
		return builtin.StringArray(append(append([]string{}, a.Strs...), b.Strs...))
	case ast.IPAddrArray:
		return builtin.IPArray(append(append([]net.IP{}, a.IPs...), b.IPs...))
	case ast.CidrArray:
		return builtin.CidrArray(append(append([]*net.IPNet{}, a.Cidrs...), b.Cidrs...))
	default:
		return a
	}
}

func arrayContains(arr, elem builtin.Value) bool {
	switch arr.Type {
	case ast.IntArray:
		for _, n := range arr.Ints {
			if n == elem.Num {
				return true
			}
		}
	case ast.StringArray:
		for _, s := range arr.Strs {
			if s == elem.Str {
				return true
			}
		}
	case ast.IPAddrArray:
		for _, ip := range arr.IPs {
			if ip.Equal(elem.IP) {
				return true
			}
		}
	case ast.CidrArray:
		for _, c := range arr.Cidrs {
			if c.String() == elem.Cidr.String() {
				return true
			}
		}
	}
	return false
}

// matchRegex runs SRegexMatch and returns both the Boolean result and the
// captured groups, which the caller (runner.go) stashes in lastMatch per
// §12's "last write wins, no stacking" capture lifetime rule.
func matchRegex(subject string, rx *regexp.Regexp) (bool, []string) {
	m := rx.FindStringSubmatch(subject)
	if m == nil {
		return false, nil
	}
	return true, m
}
