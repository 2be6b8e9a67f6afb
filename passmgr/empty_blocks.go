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

// EmptyBlockElim retargets every branch that points at a trampoline block
// — one whose only instruction is an unconditional Br — directly at that
// trampoline's own target, following chains of trampolines transitively.
// Unlike MergeBlocks this applies even when the trampoline has several
// predecessors, since nothing about it is duplicated: callers just stop
// taking the detour.
func EmptyBlockElim(_ *ir.Program, h *ir.Handler) bool {
	bypass := make(map[int]int)
	for _, b := range h.Blocks {
		if len(b.Instrs) == 1 && b.Instrs[0].Op == ir.Br {
			if target := b.Instrs[0].Targets[0]; target != b.ID {
				bypass[b.ID] = target
			}
		}
	}
	if len(bypass) == 0 {
		return false
	}

	resolve := func(id int) int {
		visited := map[int]bool{id: true}
		for {
			next, ok := bypass[id]
			if !ok || visited[next] {
				return id
			}
			id = next
			visited[id] = true
		}
	}

	changed := false
	for _, b := range h.Blocks {
		term, ok := b.Terminator()
		if !ok || len(term.Targets) == 0 {
			continue
		}
		tp := b.TerminatorPtr()
		for i, t := range tp.Targets {
			if r := resolve(t); r != t {
				tp.Targets[i] = r
				changed = true
			}
		}
	}
	if r := resolve(h.Entry); r != h.Entry {
		h.Entry = r
		changed = true
	}
	return changed
}
