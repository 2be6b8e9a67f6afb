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

import "github.com/nabbar/x0d/ir"

// PatchMainReturn implements the §4.4 final patch: any block of `main`
// that falls off the end of the handler body (terminated by a plain Ret
// rather than an explicit `return(status, override)` call) is rewritten
// to call `return(404, 0)` instead, so a request that matches nothing
// always gets an explicit response rather than an implicit "not handled".
func PatchMainReturn(prog *ir.Program, main *ir.Handler) {
	notFound := ir.ConstNum(prog.Consts, 404)
	noOverride := ir.ConstNum(prog.Consts, 0)

	for _, b := range main.Blocks {
		term, ok := b.Terminator()
		if !ok || term.Op != ir.Ret {
			continue
		}
		*b.TerminatorPtr() = ir.Instr{
			Op:         ir.CallNoReturn,
			Args:       []ir.Value{notFound, noOverride},
			CalleeName: "return",
		}
	}
}
