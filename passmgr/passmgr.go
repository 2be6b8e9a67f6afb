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

// Package passmgr implements the ordered transformation passes of §4.4:
// a mandatory unused-block elimination that always runs, and (at
// optimization level >= 1) merge-adjacent-blocks, empty-block elimination
// and instruction elimination, followed by the final `main`-only patch
// that redirects every untouched exit to `return(404, 0)`.
package passmgr

import "github.com/nabbar/x0d/ir"

// Pass is one CFG-rewriting transform over a single Handler. It receives
// the owning Program too, since InstrElim needs the constant pool to fold
// arithmetic; prog is read-only for every pass except InstrElim.
type Pass func(prog *ir.Program, h *ir.Handler) bool

// Manager runs the mandatory pass, then — at Level >= 1 — the optional
// passes, each followed by another mandatory sweep so blocks they orphan
// are cleaned up before the next optional pass runs.
type Manager struct {
	Level int
}

func New(level int) *Manager {
	return &Manager{Level: level}
}

// Run executes the configured pass pipeline against h. Calling Run twice
// in a row on the same Handler must be a no-op the second time (§8
// "Idempotence"); every pass here is written to converge internally, so a
// second Run finds nothing left to simplify.
func (m *Manager) Run(prog *ir.Program, h *ir.Handler) {
	UnusedBlocks(prog, h)
	if m.Level < 1 {
		return
	}
	for _, p := range []Pass{MergeBlocks, EmptyBlockElim, InstrElim} {
		if p(prog, h) {
			UnusedBlocks(prog, h)
		}
	}
}

// RunAll runs Run over every Handler in prog, then applies PatchMainReturn
// to `main` once every handler's passes have converged.
func RunAll(prog *ir.Program, level int) {
	m := New(level)
	for _, h := range prog.Handlers {
		m.Run(prog, h)
	}
	if main, ok := prog.FindHandler("main"); ok {
		PatchMainReturn(prog, main)
	}
}
