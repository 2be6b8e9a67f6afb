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

// UnusedBlocks removes every BasicBlock not reachable from the entry block
// (§4.4 "mandatory: unused-block elimination"), renumbering the survivors
// densely from 0 in DFS-preorder visitation order so the result is
// deterministic and a second run is a genuine no-op (§8 Idempotence).
func UnusedBlocks(_ *ir.Program, h *ir.Handler) bool {
	order := make([]int, 0, len(h.Blocks))
	visited := make([]bool, len(h.Blocks))

	var visit func(id int)
	visit = func(id int) {
		if id < 0 || id >= len(visited) || visited[id] {
			return
		}
		visited[id] = true
		order = append(order, id)
		for _, succ := range h.Block(id).Successors() {
			visit(succ)
		}
	}
	visit(h.Entry)

	changed := len(order) != len(h.Blocks)

	remap := make(map[int]int, len(order))
	for i, id := range order {
		remap[id] = i
	}

	newBlocks := make([]*ir.BasicBlock, len(order))
	for i, id := range order {
		blk := h.Block(id)
		blk.ID = i
		if term, ok := blk.Terminator(); ok && len(term.Targets) > 0 {
			tp := blk.TerminatorPtr()
			for j, t := range tp.Targets {
				tp.Targets[j] = remap[t]
			}
			_ = term
		}
		newPreds := make([]int, 0, len(blk.Preds))
		for _, p := range blk.Preds {
			if np, ok := remap[p]; ok {
				newPreds = append(newPreds, np)
			}
		}
		if len(newPreds) != len(blk.Preds) {
			changed = true
		}
		blk.Preds = newPreds
		newBlocks[i] = blk
	}

	if !changed {
		for i, id := range order {
			if i != id {
				changed = true
				break
			}
		}
	}

	h.Entry = remap[h.Entry]
	h.Blocks = newBlocks
	return changed
}
