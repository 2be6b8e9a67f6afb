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

package codegen

import (
	"fmt"
	"strings"
)

// Dump renders a flat, linked Program as one instruction-per-line listing
// (§12 SUPPLEMENTED FEATURES: a full disassembler, not a stub, since the
// CLI's dump-tc toggle depends on it — grounded on the original's
// FlowMachine.cpp opcode disassembly).
func (p *Program) Dump() string {
	var sb strings.Builder
	for _, h := range p.Handlers {
		fmt.Fprintf(&sb, "handler %s:\n", h.Name)
		for i, in := range h.Code {
			fmt.Fprintf(&sb, "  %4d: %s\n", i, in.dump())
		}
	}
	return sb.String()
}

func (in Instr) dump() string {
	var sb strings.Builder
	if in.Result.Valid() {
		fmt.Fprintf(&sb, "%s = ", in.Result)
	}
	sb.WriteString(in.Op.String())
	for _, a := range in.Args {
		sb.WriteByte(' ')
		sb.WriteString(a.String())
	}
	if in.Folded != nil {
		fmt.Fprintf(&sb, " [folded -> %s]", in.Folded.String())
	}
	for _, t := range in.Targets {
		fmt.Fprintf(&sb, " ->%d", t)
	}
	if in.CalleeName != "" {
		fmt.Fprintf(&sb, " %s(callee=%d)", in.CalleeName, in.Callee)
	}
	return sb.String()
}
