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

// predCount returns how many blocks in h branch to target (counting a
// block at most once even if it lists target twice, since CondBr with
// both arms equal is degenerate but legal).
func predCount(h *ir.Handler, target int) int {
	n := 0
	for _, b := range h.Blocks {
		seen := false
		for _, s := range b.Successors() {
			if s == target {
				seen = true
			}
		}
		if seen {
			n++
		}
	}
	return n
}

// MergeBlocks folds a block ending in an unconditional Br into its target
// whenever that target has exactly one predecessor — the two always run
// one after the other, so there is no reason to keep them separate blocks.
// Runs to its own fixpoint so chains of three or more blocks fully collapse
// in one call.
func MergeBlocks(_ *ir.Program, h *ir.Handler) bool {
	changed := false
	for {
		progressed := false
		for _, b := range h.Blocks {
			term, ok := b.Terminator()
			if !ok || term.Op != ir.Br {
				continue
			}
			target := term.Targets[0]
			if target == b.ID || predCount(h, target) != 1 {
				continue
			}
			tgt := h.Block(target)
			b.Instrs = append(b.Instrs[:len(b.Instrs)-1], tgt.Instrs...)
			tgt.Instrs = nil
			progressed = true
		}
		if !progressed {
			break
		}
		changed = true
	}
	return changed
}
