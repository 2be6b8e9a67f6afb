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

import "github.com/nabbar/x0d/ast"

// Global is a top-level `var` materialized as a program-wide slot; Init is
// the lowered initializer expression, evaluated once when the Program is
// loaded (before `setup` runs), matching "setup... materializes server
// state" and giving every `var` a value before any handler can read it.
type Global struct {
	Name string
	Type ast.LiteralType
	Init Value
	// InitOps, when non-empty, are the instructions (besides Init's own
	// terminal Value) needed to compute Init — e.g. a string built from a
	// Call. They run in program load order, once, in the synthetic init
	// sequence the Builder produces.
	InitOps []Instr
}

// Program owns the deduplicated constant pools, the Global table, and the
// full set of lowered Handlers (§3 DATA MODEL "Program (linked)" before
// the Target-Code Generator turns it into a linear bytecode Program).
type Program struct {
	Consts  *ConstPool
	Globals []Global
	Handlers []*Handler
}

func NewProgram() *Program {
	return &Program{Consts: newConstPool()}
}

// FindHandler looks up a Handler by name; §4.5 says link fails if `setup`
// is missing, so callers of this at link time should treat a missing
// "setup"/"main" as fatal.
func (p *Program) FindHandler(name string) (*Handler, bool) {
	for _, h := range p.Handlers {
		if h.Name == name {
			return h, true
		}
	}
	return nil, false
}

func (p *Program) AddHandler(h *Handler) { p.Handlers = append(p.Handlers, h) }
