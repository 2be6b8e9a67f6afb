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

// BasicBlock is a straight-line run of Instrs ending in exactly one
// terminator (§3 DATA MODEL invariant). ID is its index within the owning
// Handler's Blocks slice; Preds is maintained by the Builder and by passes
// that rewrite edges (merge/empty-block elimination) and is advisory only
// — it is not re-derived automatically on every mutation.
type BasicBlock struct {
	ID     int
	Instrs []Instr
	Preds  []int
}

// Terminator returns the block's last instruction, or false if the block
// is empty (a Builder invariant violation — every block gets a terminator
// before the Handler is considered complete).
func (b *BasicBlock) Terminator() (Instr, bool) {
	if len(b.Instrs) == 0 {
		return Instr{}, false
	}
	last := b.Instrs[len(b.Instrs)-1]
	if !last.Op.IsTerminator() {
		return Instr{}, false
	}
	return last, true
}

// Successors returns the block IDs this block's terminator can transfer
// control to.
func (b *BasicBlock) Successors() []int {
	term, ok := b.Terminator()
	if !ok {
		return nil
	}
	return term.Targets
}

// TerminatorPtr returns a mutable pointer to the block's terminator
// instruction, for passes that retarget branches in place. Panics if the
// block has no terminator yet — only call once the Builder has sealed it.
func (b *BasicBlock) TerminatorPtr() *Instr {
	return &b.Instrs[len(b.Instrs)-1]
}
