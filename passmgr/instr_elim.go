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

package passmgr

import (
	"math"
	"strconv"
	"strings"

	"github.com/nabbar/x0d/ast"
	"github.com/nabbar/x0d/ir"
)

// InstrElim folds constant-operand arithmetic/boolean/string instructions,
// forwards block-local store-to-load values (dropping the redundant
// load), and removes instructions whose result nothing in the handler
// reads. It iterates to its own fixpoint: each round can expose new dead
// code (an operand that was only live because of an instruction the prior
// round just folded away), so a handful of rounds run until nothing
// changes.
//
// Folding and forwarding are done per-block, in block-list order. The
// Flow language has no loops, so the builder always emits a definition's
// block before any block that can use it; a single forward scan per block
// is therefore enough without full dominance or liveness analysis.
func InstrElim(prog *ir.Program, h *ir.Handler) bool {
	changed := false
	for i := 0; i < 4; i++ {
		c1 := foldAndForward(prog, h)
		c2 := deadCodeElim(h)
		if !c1 && !c2 {
			break
		}
		changed = true
	}
	return changed
}

func resolveVal(subst map[int]ir.Value, v ir.Value) ir.Value {
	if v.Kind == ir.ValTemp {
		if r, ok := subst[v.Idx]; ok {
			return r
		}
	}
	return v
}

func foldAndForward(prog *ir.Program, h *ir.Handler) bool {
	changed := false
	subst := make(map[int]ir.Value)

	for _, b := range h.Blocks {
		localVal := make(map[int]ir.Value)
		newInstrs := make([]ir.Instr, 0, len(b.Instrs))

		for i, in := range b.Instrs {
			args := make([]ir.Value, len(in.Args))
			for j, a := range in.Args {
				args[j] = resolveVal(subst, a)
			}
			in.Args = args

			if i == len(b.Instrs)-1 {
				newInstrs = append(newInstrs, in)
				continue
			}

			switch in.Op {
			case ir.Load:
				if v, ok := localVal[in.Local]; ok {
					subst[in.Result.Idx] = v
					changed = true
					continue
				}
				localVal[in.Local] = in.Result
				newInstrs = append(newInstrs, in)
			case ir.Store:
				localVal[in.Local] = args[0]
				newInstrs = append(newInstrs, in)
			default:
				if folded, ok := tryFold(prog, in); ok {
					subst[in.Result.Idx] = folded
					changed = true
					continue
				}
				newInstrs = append(newInstrs, in)
			}
		}
		b.Instrs = newInstrs
	}
	return changed
}

func hasSideEffect(op ir.Opcode) bool {
	switch op {
	case ir.Store, ir.CallFunc, ir.InvokeHandler, ir.CallHandler, ir.CallNoReturn,
		ir.Br, ir.CondBr, ir.Ret:
		return true
	default:
		return false
	}
}

// deadCodeElim drops pure instructions whose result is read nowhere in
// the handler. Liveness is computed handler-wide (not just the owning
// block) since ValTemp numbering is handler-scoped: a value computed in
// one block can be consumed by any block it dominates.
func deadCodeElim(h *ir.Handler) bool {
	used := make(map[int]bool)
	for _, b := range h.Blocks {
		for _, in := range b.Instrs {
			for _, a := range in.Args {
				if a.Kind == ir.ValTemp {
					used[a.Idx] = true
				}
			}
		}
	}

	changed := false
	for _, b := range h.Blocks {
		newInstrs := make([]ir.Instr, 0, len(b.Instrs))
		for i, in := range b.Instrs {
			isLast := i == len(b.Instrs)-1
			if !isLast && !hasSideEffect(in.Op) && in.Result.Kind == ir.ValTemp && !used[in.Result.Idx] {
				changed = true
				continue
			}
			newInstrs = append(newInstrs, in)
		}
		b.Instrs = newInstrs
	}
	return changed
}

func getNum(prog *ir.Program, v ir.Value) (int64, bool) {
	if v.Kind != ir.ValConst || v.Type != ast.Number {
		return 0, false
	}
	return prog.Consts.Numbers[v.Idx], true
}

func getBool(v ir.Value) (bool, bool) {
	if v.Kind != ir.ValConst || v.Type != ast.Boolean {
		return false, false
	}
	return v.Idx == 1, true
}

func getStr(prog *ir.Program, v ir.Value) (string, bool) {
	if v.Kind != ir.ValConst || v.Type != ast.String {
		return "", false
	}
	return prog.Consts.Strings[v.Idx], true
}

// powSaturate implements §13 decision 1: integer exponentiation that
// saturates at MaxInt64/MinInt64 on overflow instead of wrapping.
func powSaturate(a, b int64) int64 {
	if b <= 0 {
		if b == 0 {
			return 1
		}
		return 0
	}
	result := int64(1)
	for i := int64(0); i < b; i++ {
		next := result * a
		if a != 0 && next/a != result {
			if (result > 0) == (a > 0) {
				return math.MaxInt64
			}
			return math.MinInt64
		}
		result = next
	}
	return result
}

func tryFold(prog *ir.Program, in ir.Instr) (ir.Value, bool) {
	switch len(in.Args) {
	case 1:
		return tryFoldUnary(prog, in)
	case 2:
		return tryFoldBinary(prog, in)
	default:
		return ir.Value{}, false
	}
}

func tryFoldUnary(prog *ir.Program, in ir.Instr) (ir.Value, bool) {
	switch in.Op {
	case ir.NNeg:
		if a, ok := getNum(prog, in.Args[0]); ok {
			return ir.ConstNum(prog.Consts, -a), true
		}
	case ir.NCmpz:
		if a, ok := getNum(prog, in.Args[0]); ok {
			return ir.ConstBool(a != 0), true
		}
	case ir.BNot:
		if a, ok := getBool(in.Args[0]); ok {
			return ir.ConstBool(!a), true
		}
	case ir.SLen:
		if a, ok := getStr(prog, in.Args[0]); ok {
			return ir.ConstNum(prog.Consts, int64(len(a))), true
		}
	case ir.SEmpty:
		if a, ok := getStr(prog, in.Args[0]); ok {
			return ir.ConstBool(len(a) == 0), true
		}
	case ir.CvtNumToStr:
		if a, ok := getNum(prog, in.Args[0]); ok {
			return ir.ConstStr(prog.Consts, strconv.FormatInt(a, 10)), true
		}
	case ir.CvtBoolToStr:
		if a, ok := getBool(in.Args[0]); ok {
			if a {
				return ir.ConstStr(prog.Consts, "true"), true
			}
			return ir.ConstStr(prog.Consts, "false"), true
		}
	}
	return ir.Value{}, false
}

func tryFoldBinary(prog *ir.Program, in ir.Instr) (ir.Value, bool) {
	if a, ok := getNum(prog, in.Args[0]); ok {
		if b, ok := getNum(prog, in.Args[1]); ok {
			switch in.Op {
			case ir.NAdd:
				return ir.ConstNum(prog.Consts, a+b), true
			case ir.NSub:
				return ir.ConstNum(prog.Consts, a-b), true
			case ir.NMul:
				return ir.ConstNum(prog.Consts, a*b), true
			case ir.NDiv:
				if b == 0 {
					return ir.Value{}, false
				}
				return ir.ConstNum(prog.Consts, a/b), true
			case ir.NRem:
				if b == 0 {
					return ir.Value{}, false
				}
				return ir.ConstNum(prog.Consts, a%b), true
			case ir.NPow:
				return ir.ConstNum(prog.Consts, powSaturate(a, b)), true
			case ir.NShl:
				return ir.ConstNum(prog.Consts, a<<(uint(b)&63)), true
			case ir.NLshr:
				return ir.ConstNum(prog.Consts, a>>(uint(b)&63)), true
			case ir.NAnd:
				return ir.ConstNum(prog.Consts, a&b), true
			case ir.NOr:
				return ir.ConstNum(prog.Consts, a|b), true
			case ir.NXor:
				return ir.ConstNum(prog.Consts, a^b), true
			}
		}
	}

	if a, ok := getBool(in.Args[0]); ok {
		if b, ok := getBool(in.Args[1]); ok {
			switch in.Op {
			case ir.BAnd:
				return ir.ConstBool(a && b), true
			case ir.BOr:
				return ir.ConstBool(a || b), true
			case ir.BXor:
				return ir.ConstBool(a != b), true
			case ir.BCmpEq:
				return ir.ConstBool(a == b), true
			case ir.BCmpNe:
				return ir.ConstBool(a != b), true
			}
		}
	}

	if a, ok := getStr(prog, in.Args[0]); ok {
		if b, ok := getStr(prog, in.Args[1]); ok {
			switch in.Op {
			case ir.SCat:
				return ir.ConstStr(prog.Consts, a+b), true
			case ir.SCmpEq:
				return ir.ConstBool(strings.EqualFold(a, b)), true
			case ir.SCmpNe:
				return ir.ConstBool(!strings.EqualFold(a, b)), true
			case ir.SCmpLt:
				return ir.ConstBool(strings.ToLower(a) < strings.ToLower(b)), true
			case ir.SCmpLe:
				return ir.ConstBool(strings.ToLower(a) <= strings.ToLower(b)), true
			case ir.SCmpGe:
				return ir.ConstBool(strings.ToLower(a) >= strings.ToLower(b)), true
			case ir.SCmpGt:
				return ir.ConstBool(strings.ToLower(a) > strings.ToLower(b)), true
			case ir.SContains:
				return ir.ConstBool(strings.Contains(strings.ToLower(a), strings.ToLower(b))), true
			}
		}
	}

	return ir.Value{}, false
}
