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

// Package codegen implements the Target-Code Generator (component G): it
// lowers a *ir.Program — basic blocks of three-address instructions — into
// a Program holding one flat instruction stream per handler, with branch
// targets resolved to absolute indices and native calls left as named
// placeholders until Link runs.
//
// This mirrors the "flatten the CFG into bytecode, resolve calls at link
// time" idiom rather than an AST-walking interpreter, matching the SYSTEM
// OVERVIEW's own description of the data flow: IR -> passes -> Program ->
// linked -> executed.
package codegen

import (
	"fmt"

	"github.com/nabbar/x0d/builtin"
	"github.com/nabbar/x0d/ir"
)

// Instr is one linear instruction: same opcode and operand semantics as
// ir.Instr, but Targets have been resolved to absolute indices into the
// owning Handler's Code slice instead of BasicBlock indices.
type Instr struct {
	Op     ir.Opcode
	Result ir.Value
	Args   []ir.Value
	Local  int

	Targets []int // absolute instruction indices, for Br/CondBr

	CalleeName string
	// Callee is resolved by Link: for CallFunc/InvokeHandler it indexes
	// into Program.Natives; for CallHandler it indexes into
	// Program.Handlers. -1 until resolved.
	Callee int

	// Folded is set by Link when the callee's Verifier constant-folds
	// this call (§4.6); when non-nil the Runner skips dispatch entirely
	// and loads Folded straight into Result, the "replacing it with a
	// load of a constant string" behavior §4.6 describes for sys.env.
	Folded *builtin.Value
}

// Handler is one handler's flattened, linked-ready instruction stream.
type Handler struct {
	Name     string
	Entry    int // absolute index of the first instruction (always 0)
	Code     []Instr
	NumTemps int // highest ValTemp index + 1, sizes the Runner's register file
}

// NativeRef is a resolved pointer into a builtin.Registry, recorded so the
// Runner never has to do a string lookup per call.
type NativeRef struct {
	Name string
	// Index is this entry's position in Program.Natives, assigned by
	// Link; call instructions carry the same number in Callee.
	Index int
	IsHandler bool
}

// Program is the linked, linear form §4.5 describes: an ordered
// instruction stream per handler, indexed constant pools (reused directly
// from ir.Program, since lowering to bytecode does not need to touch
// them), and a resolved native-call table.
type Program struct {
	Consts   *ir.ConstPool
	Globals  []ir.Global
	Handlers []*Handler
	Natives  []NativeRef

	linked bool
}

// FindHandler looks up a compiled Handler by name.
func (p *Program) FindHandler(name string) (*Handler, bool) {
	for _, h := range p.Handlers {
		if h.Name == name {
			return h, true
		}
	}
	return nil, false
}

func (p *Program) handlerIndex(name string) int {
	for i, h := range p.Handlers {
		if h.Name == name {
			return i
		}
	}
	return -1
}

// Linked reports whether Link has completed successfully.
func (p *Program) Linked() bool { return p.linked }

func (p *Program) String() string {
	return fmt.Sprintf("codegen.Program{handlers=%d natives=%d linked=%v}", len(p.Handlers), len(p.Natives), p.linked)
}
