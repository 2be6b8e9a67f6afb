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

package ast

// Unit is one compiled source file: the top-level scope plus the node and
// symbol arenas every Expression/Statement/Symbol in it is allocated from.
// References between them are arena indices rather than pointers, so a
// forward-declared Handler's later implementation is just overwriting the
// Node field on its existing Symbol (see Symbol.Implement) instead of
// rewriting a pointer graph.
type Unit struct {
	Name    string
	Global  *Scope
	Nodes   []Statement // index 0 is reserved/unused; handler bodies live here
	nextSym SymbolID
}

func NewUnit(name string) *Unit {
	u := &Unit{Name: name, Nodes: make([]Statement, 1)}
	u.Global = NewScope(nil)
	return u
}

// AddNode appends a statement (typically a Handler body) to the node arena
// and returns its index.
func (u *Unit) AddNode(s Statement) int {
	u.Nodes = append(u.Nodes, s)
	return len(u.Nodes) - 1
}

// Node retrieves a statement by arena index, nil if idx is out of range or
// the reserved zero index.
func (u *Unit) Node(idx int) Statement {
	if idx <= 0 || idx >= len(u.Nodes) {
		return nil
	}
	return u.Nodes[idx]
}

// NewSymbolID allocates the next unique SymbolID for this Unit.
func (u *Unit) NewSymbolID() SymbolID {
	u.nextSym++
	return u.nextSym
}

// Handlers returns every Handler symbol declared in the Unit's global
// scope, in declaration order, including forward-declared-but-unimplemented
// ones (callers check Defined).
func (u *Unit) Handlers() []*Symbol {
	var out []*Symbol
	for _, sym := range u.Global.Symbols() {
		if sym.Kind == SymHandler {
			out = append(out, sym)
		}
	}
	return out
}

// Unimplemented returns the names of handlers that were forward-declared
// (referenced) but never given a body; a non-empty result is a LinkError.
func (u *Unit) Unimplemented() []string {
	var out []string
	for _, sym := range u.Handlers() {
		if !sym.Defined {
			out = append(out, sym.Name)
		}
	}
	return out
}
