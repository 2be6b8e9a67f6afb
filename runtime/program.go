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

// Package runtime implements the Runner (component H): single-threaded,
// cooperative per-request execution of a linked codegen.Program, with
// suspend/resume around native calls that need I/O (§4.6, §5).
package runtime

import (
	"sync"

	"github.com/nabbar/x0d/builtin"
	"github.com/nabbar/x0d/codegen"
	"github.com/nabbar/x0d/ir"
)

// Program pairs a linked codegen.Program with the actual builtin.Func
// implementations resolved from the host Registry, plus the materialized
// Global slot values (§3 "Program (linked)"). Building one is a one-time
// cost per compiled configuration; every request's Runner shares the same
// *Program.
type Program struct {
	CG      *codegen.Program
	Natives []builtin.Func

	mu      sync.RWMutex
	globals []builtin.Value
}

// NewProgram resolves cg's native table against host (cg.Link must have
// already succeeded against the same Registry) and evaluates every Global
// initializer once, matching "materialized... before setup runs".
func NewProgram(cg *codegen.Program, host *builtin.Registry) (*Program, error) {
	p := &Program{CG: cg}

	p.Natives = make([]builtin.Func, len(cg.Natives))
	for i, ref := range cg.Natives {
		_, fn, _, err := host.Lookup(ref.Name)
		if err != nil {
			return nil, err
		}
		p.Natives[i] = fn
	}

	p.globals = make([]builtin.Value, len(cg.Globals))
	for i, g := range cg.Globals {
		p.globals[i] = evalInitializer(cg.Consts, g)
	}

	return p, nil
}

func evalInitializer(consts *ir.ConstPool, g ir.Global) builtin.Value {
	regs := make([]builtin.Value, 0)
	for _, in := range g.InitOps {
		v, err := evalPure(in.Op, resolveArgs(consts, nil, regs, in.Args))
		if err != nil {
			continue
		}
		if in.Result.Kind == ir.ValTemp {
			for len(regs) <= in.Result.Idx {
				regs = append(regs, builtin.Value{})
			}
			regs[in.Result.Idx] = v
		}
	}
	return resolveOperand(consts, nil, regs, g.Init)
}

// Global reads the current value of the i'th top-level `var`.
func (p *Program) Global(i int) builtin.Value {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.globals[i]
}

// SetGlobal writes the i'th top-level `var`. Globals are shared across
// every request's Runner (§5 "Cluster controller state... owned by the
// cluster"; the same no-global-lock-but-affinity story does not apply to
// plain Flow `var`s, which the original treats as process-wide mutable
// state) — guarded here by a single RWMutex rather than worker affinity,
// since Flow `var` writes (via the `=` statement) are rare relative to
// reads.
func (p *Program) SetGlobal(i int, v builtin.Value) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.globals[i] = v
}
