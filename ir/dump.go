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
	"strings"

	"github.com/nabbar/x0d/ast"
)

var opcodeName = map[Opcode]string{
	NAdd: "n.add", NSub: "n.sub", NMul: "n.mul", NDiv: "n.div", NRem: "n.rem",
	NPow: "n.pow", NShl: "n.shl", NLshr: "n.lshr", NAnd: "n.and", NOr: "n.or",
	NXor: "n.xor", NNeg: "n.neg", NCmpz: "n.cmpz",
	BAnd: "b.and", BOr: "b.or", BXor: "b.xor", BNot: "b.not", BCmpEq: "b.eq", BCmpNe: "b.ne",
	SCat: "s.cat", SLen: "s.len", SEmpty: "s.empty", SCmpLt: "s.lt", SCmpLe: "s.le",
	SCmpEq: "s.eq", SCmpNe: "s.ne", SCmpGe: "s.ge", SCmpGt: "s.gt",
	SHeadMatch: "s.head", STailMatch: "s.tail", SRegexMatch: "s.regex", SContains: "s.contains",
	IPCmpEq: "ip.eq", IPCmpNe: "ip.ne", IPInCidr: "ip.in", CidrInCidr: "cidr.in",
	CvtNumToStr: "cvt.n2s", CvtBoolToStr: "cvt.b2s", CvtIPToStr: "cvt.p2s",
	CvtCidrToStr: "cvt.c2s", CvtRegexToStr: "cvt.r2s", CvtStrToNum: "cvt.s2n",
	ArrEmpty: "arr.empty", ArrLen: "arr.len", ArrConcat: "arr.concat", ArrContains: "arr.contains",
	Load: "load", Store: "store",
	Br: "br", CondBr: "condbr", Ret: "ret",
	CallFunc: "call", InvokeHandler: "invoke", CallHandler: "call.handler", CallNoReturn: "call.noreturn",
}

func (op Opcode) String() string {
	if s, ok := opcodeName[op]; ok {
		return s
	}
	return fmt.Sprintf("op(%d)", uint8(op))
}

// Dump renders h as one instruction per line, in the format §12 of
// SPEC_FULL calls for: opcode, result, operands, with constant operands
// resolved against the owning Program's pool.
func (h *Handler) Dump(prog *Program) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "handler %s {\n", h.Name)
	for _, blk := range h.Blocks {
		fmt.Fprintf(&sb, "  bb%d:", blk.ID)
		if len(blk.Preds) > 0 {
			fmt.Fprintf(&sb, "  ; preds=%v", blk.Preds)
		}
		sb.WriteByte('\n')
		for _, in := range blk.Instrs {
			sb.WriteString("    ")
			sb.WriteString(in.dump(prog))
			sb.WriteByte('\n')
		}
	}
	sb.WriteString("}\n")
	return sb.String()
}

func (in Instr) dump(prog *Program) string {
	var sb strings.Builder
	if in.Result.Valid() {
		fmt.Fprintf(&sb, "%s = ", in.Result)
	}
	sb.WriteString(in.Op.String())
	for _, a := range in.Args {
		sb.WriteByte(' ')
		sb.WriteString(resolveOperand(prog, a))
	}
	if in.Op == Load || in.Op == Store {
		fmt.Fprintf(&sb, " g%d", in.Local)
	}
	if len(in.Targets) > 0 {
		for _, t := range in.Targets {
			fmt.Fprintf(&sb, " ->bb%d", t)
		}
	}
	if in.CalleeName != "" {
		fmt.Fprintf(&sb, " %s", in.CalleeName)
	}
	return sb.String()
}

func resolveOperand(prog *Program, v Value) string {
	if v.Kind != ValConst || prog == nil {
		return v.String()
	}
	switch v.Type {
	case ast.Number:
		return fmt.Sprintf("%d", prog.Consts.Numbers[v.Idx])
	case ast.String:
		return fmt.Sprintf("%q", prog.Consts.Strings[v.Idx])
	case ast.Boolean: // idx 0/1 encodes false/true directly, no pool entry
		return fmt.Sprintf("%v", v.Idx == 1)
	case ast.IPAddress:
		return prog.Consts.IPs[v.Idx]
	case ast.Cidr:
		return prog.Consts.Cidrs[v.Idx]
	case ast.RegExp:
		return fmt.Sprintf("/%s/", prog.Consts.Regexes[v.Idx])
	default:
		return v.String()
	}
}

// Dump renders every Handler in the Program.
func (p *Program) Dump() string {
	var sb strings.Builder
	for _, h := range p.Handlers {
		sb.WriteString(h.Dump(p))
	}
	return sb.String()
}
