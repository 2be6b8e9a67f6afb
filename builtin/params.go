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

package builtin

import "net"

// Params is the native-call ABI's argument carrier (§4.6 "Native-call
// ABI"): typed accessors over already-coerced arguments (coercion happens
// in the IR generator, never here) plus a reference back to the calling
// Caller so a builtin can reach the request Context.
type Params struct {
	args   []Value
	caller Caller
}

// NewParams is called by the Runner's native-call trampoline to build one
// Params per CallFunc/InvokeHandler dispatch.
func NewParams(args []Value, caller Caller) *Params {
	return &Params{args: args, caller: caller}
}

func (p *Params) Len() int { return len(p.args) }

func (p *Params) Raw(i int) Value { return p.args[i] }

func (p *Params) GetString(i int) string { return p.args[i].Str }
func (p *Params) GetInt(i int) int64     { return p.args[i].Num }
func (p *Params) GetBool(i int) bool     { return p.args[i].IsTrue() }
func (p *Params) GetIP(i int) net.IP     { return p.args[i].IP }
func (p *Params) GetCidr(i int) *net.IPNet { return p.args[i].Cidr }

func (p *Params) GetIntArray(i int) []int64       { return p.args[i].Ints }
func (p *Params) GetStringArray(i int) []string   { return p.args[i].Strs }

// Caller exposes the running request's host-visible surface to a builtin
// without exposing the Runner's internals (register file, program
// counter). A concrete implementation lives in the runtime package; this
// interface is the seam that keeps builtin free of a runtime import (the
// ABI is owned by the lower-level package, exercised by the higher-level
// one — see DESIGN.md).
type Caller interface {
	// Suspend parks the current handler; cont runs (typically on another
	// goroutine, after I/O completes) and must call SetResult or SetError
	// and then trigger the Runner's own Resume before returning.
	Suspend(cont func())
	// SetResult records the value a suspended (or synchronous) builtin
	// call produced, to be read back into the calling instruction's
	// Result register.
	SetResult(v Value)
	// SetError aborts the current handler's dispatch loop with err; the
	// dispatch-loop boundary (§7) converts it into a 500 response.
	SetError(err error)
	// Context returns the request-scoped state (component J) as an
	// opaque value — concrete builtins type-assert it to *reqctx.Context.
	Context() interface{}
	// Redirect requests an internal re-entry into `main` with a rewritten
	// path (§4.6 "Internal redirects"); returns false once
	// max_internal_redirect_count is exhausted, in which case the caller
	// must synthesize the response at the current status itself.
	Redirect(path string) bool
}
