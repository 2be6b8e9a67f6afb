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

import "github.com/nabbar/x0d/ir"

// Generate lowers every Handler in prog into its flat instruction-stream
// form. Block boundaries are erased; each BasicBlock's instructions are
// appended in list order (the Pass Manager has already run unused-block
// elimination, so every block it sees is reachable) and Br/CondBr targets
// are rewritten from block indices to the absolute index of the target
// block's first instruction.
func Generate(prog *ir.Program) *Program {
	out := &Program{Consts: prog.Consts, Globals: prog.Globals}

	for _, h := range prog.Handlers {
		out.Handlers = append(out.Handlers, lowerHandler(h))
	}
	return out
}

func lowerHandler(h *ir.Handler) *Handler {
	// First pass: compute the absolute starting offset of every block.
	offsets := make([]int, len(h.Blocks))
	cursor := 0
	for i, bb := range h.Blocks {
		offsets[i] = cursor
		cursor += len(bb.Instrs)
	}

	out := &Handler{Name: h.Name, Entry: offsets[h.Entry]}
	maxTemp := -1

	for _, bb := range h.Blocks {
		for _, in := range bb.Instrs {
			ci := Instr{
				Op:         in.Op,
				Result:     in.Result,
				Args:       in.Args,
				Local:      in.Local,
				CalleeName: in.CalleeName,
				Callee:     -1,
			}
			for _, t := range in.Targets {
				ci.Targets = append(ci.Targets, offsets[t])
			}
			if in.Result.Kind == ir.ValTemp && in.Result.Idx > maxTemp {
				maxTemp = in.Result.Idx
			}
			for _, a := range in.Args {
				if a.Kind == ir.ValTemp && a.Idx > maxTemp {
					maxTemp = a.Idx
				}
			}
			out.Code = append(out.Code, ci)
		}
	}

	out.NumTemps = maxTemp + 1
	return out
}
