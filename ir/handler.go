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

// Handler is one compiled Flow handler (`setup`, `main`, or a user-defined
// handler called from either): an entry block index plus the full set of
// BasicBlocks reachable (before the unused-block-elimination pass runs) or
// guaranteed reachable (after it has).
type Handler struct {
	Name   string
	Entry  int
	Blocks []*BasicBlock
}

// NewBlock appends a fresh, empty BasicBlock and returns it.
func (h *Handler) NewBlock() *BasicBlock {
	b := &BasicBlock{ID: len(h.Blocks)}
	h.Blocks = append(h.Blocks, b)
	return b
}

func (h *Handler) Block(id int) *BasicBlock { return h.Blocks[id] }

// EntryBlock returns the handler's entry BasicBlock.
func (h *Handler) EntryBlock() *BasicBlock { return h.Blocks[h.Entry] }
