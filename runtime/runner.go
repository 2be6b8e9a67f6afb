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

package runtime

import (
	"fmt"
	"sync"

	"github.com/nabbar/x0d/ast"
	"github.com/nabbar/x0d/builtin"
	"github.com/nabbar/x0d/codegen"
	"github.com/nabbar/x0d/ir"
	"github.com/nabbar/x0d/reqctx"
)

// State is the Runner's lifecycle per §4.6.
type State uint8

const (
	Ready State = iota
	Running
	Suspended
	Done
)

func (s State) String() string {
	switch s {
	case Ready:
		return "ready"
	case Running:
		return "running"
	case Suspended:
		return "suspended"
	case Done:
		return "done"
	default:
		return "unknown"
	}
}

// frame is a saved caller state for a nested CallHandler invocation — the
// only kind of "stack" Flow has, since it has no recursion beyond handler
// calls and no loops.
type frame struct {
	handler   *codegen.Handler
	pc        int
	regs      []builtin.Value
	resultReg ir.Value
}

// Runner executes one compiled handler per request, on the request's own
// worker, implementing builtin.Caller so native functions can suspend it,
// record a result, or request an internal redirect without reaching into
// its internals.
type Runner struct {
	mu sync.Mutex

	prog *Program
	ctx  *reqctx.Context

	handler *codegen.Handler
	pc      int
	regs    []builtin.Value
	stack   []frame

	state State
	err   error

	// lastMatch holds the capture groups of the most recent SRegexMatch,
	// valid only for instructions reachable from it without an
	// intervening match (§12 "last write wins, no stacking").
	lastMatch []string

	pendingResult   builtin.Value
	pendingRedirect bool
}

// New creates a Runner bound to ctx, ready to run the named entry handler
// (normally "main"; "setup" uses the same Runner type once, at boot).
func New(prog *Program, ctx *reqctx.Context, entry string) (*Runner, error) {
	h, ok := prog.CG.FindHandler(entry)
	if !ok {
		return nil, fmt.Errorf("runtime: no such handler %q", entry)
	}
	return &Runner{
		prog:    prog,
		ctx:     ctx,
		handler: h,
		regs:    make([]builtin.Value, h.NumTemps),
		state:   Ready,
	}, nil
}

func (r *Runner) State() State { return r.state }
func (r *Runner) Err() error   { return r.err }

// Run enters the dispatch loop. It returns once the handler completes
// (Done, with the "handled" boolean) or suspends (Suspended; the caller
// must arrange a later Resume once the pending native call's continuation
// fires).
func (r *Runner) Run() (handled bool, err error) {
	r.mu.Lock()
	r.state = Running
	r.mu.Unlock()
	return r.dispatch()
}

// Resume re-enters the dispatch loop at the same instruction after a
// suspended builtin produced its result via SetResult/SetError.
func (r *Runner) Resume() (handled bool, err error) {
	r.mu.Lock()
	if r.ctx.IsDone() {
		r.state = Done
		r.mu.Unlock()
		return false, fmt.Errorf("runtime: context closed while suspended")
	}
	r.state = Running
	r.mu.Unlock()
	return r.dispatch()
}

// --- builtin.Caller ---

func (r *Runner) Suspend(cont func()) {
	r.mu.Lock()
	r.state = Suspended
	r.mu.Unlock()
	go cont()
}

func (r *Runner) SetResult(v builtin.Value) { r.pendingResult = v }
func (r *Runner) SetError(err error)        { r.err = err }
func (r *Runner) Context() interface{}      { return r.ctx }

// Redirect requests an internal re-entry into `main` with a rewritten
// path, bounded by the Context's configured maximum (§4.6 "Internal
// redirects"). Returns false when the bound is already exhausted, in
// which case the caller (the `return` builtin) must synthesize the
// response at the current status instead of looping.
func (r *Runner) Redirect(path string) bool {
	if !r.ctx.PushRedirect(path) {
		return false
	}
	r.pendingRedirect = true
	return true
}

// dispatch is the core run-to-completion loop for one scheduling slice —
// it stops only on Done, Suspended, or error.
func (r *Runner) dispatch() (bool, error) {
	for {
		r.mu.Lock()
		state := r.state
		r.mu.Unlock()

		switch state {
		case Suspended:
			return false, nil
		case Done:
			return r.pendingResult.IsTrue(), r.err
		}

		if r.err != nil {
			r.mu.Lock()
			r.state = Done
			r.mu.Unlock()
			return false, r.err
		}

		if r.pc >= len(r.handler.Code) {
			return false, fmt.Errorf("runtime: fell off the end of handler %s (patch pass should have prevented this)", r.handler.Name)
		}

		in := &r.handler.Code[r.pc]
		if err := r.step(in); err != nil {
			r.mu.Lock()
			r.state = Done
			r.mu.Unlock()
			return false, err
		}
	}
}

// step executes one instruction, advancing r.pc (or transferring control,
// for terminators). A builtin call that suspends leaves r.pc unchanged so
// Resume re-dispatches the same instruction's continuation semantics are
// already captured in pendingResult by the time Resume runs.
func (r *Runner) step(in *codegen.Instr) error {
	switch in.Op {
	case ir.Br:
		r.pc = in.Targets[0]
		return nil

	case ir.CondBr:
		cond := r.resolve(in.Args[0])
		if cond.IsTrue() {
			r.pc = in.Targets[0]
		} else {
			r.pc = in.Targets[1]
		}
		return nil

	case ir.Ret:
		result := builtin.Bool(false)
		if len(in.Args) > 0 {
			result = r.resolve(in.Args[0])
		}
		return r.returnFromHandler(result)

	case ir.Load:
		v := r.prog.Global(in.Local)
		r.setResult(in.Result, v)
		r.pc++
		return nil

	case ir.Store:
		v := r.resolve(in.Args[0])
		r.prog.SetGlobal(in.Local, v)
		r.pc++
		return nil

	case ir.ArrEmpty:
		r.setResult(in.Result, emptyArray(in.Result.Type))
		r.pc++
		return nil

	case ir.SRegexMatch:
		subject := r.resolve(in.Args[0])
		rx := r.resolve(in.Args[1])
		ok, groups := matchRegex(subject.Str, rx.Rx)
		if ok {
			r.lastMatch = groups
		}
		r.setResult(in.Result, builtin.Bool(ok))
		r.pc++
		return nil

	case ir.CallFunc, ir.InvokeHandler, ir.CallNoReturn:
		return r.call(in)

	case ir.CallHandler:
		return r.callHandler(in)

	default:
		args := make([]builtin.Value, len(in.Args))
		for i, a := range in.Args {
			args[i] = r.resolve(a)
		}
		v, err := evalPure(in.Op, args)
		if err != nil {
			return err
		}
		r.setResult(in.Result, v)
		r.pc++
		return nil
	}
}

func (r *Runner) call(in *codegen.Instr) error {
	if in.Folded != nil {
		r.setResult(in.Result, *in.Folded)
		r.pc++
		return nil
	}

	args := make([]builtin.Value, len(in.Args))
	for i, a := range in.Args {
		args[i] = r.resolve(a)
	}

	fn := r.prog.Natives[in.Callee]
	params := builtin.NewParams(args, r)
	r.pendingResult = builtin.Value{}

	v, err := fn(params)
	if err != nil {
		return err
	}
	r.mu.Lock()
	suspended := r.state == Suspended
	r.mu.Unlock()
	if suspended {
		return nil // dispatch() returns; Resume will re-enter at r.pc (not yet advanced)
	}
	if r.err != nil {
		return r.err
	}

	if in.Op == ir.CallNoReturn {
		if r.pendingRedirect {
			r.pendingRedirect = false
			r.reenterMain()
			return nil
		}
		return r.returnFromHandler(builtin.Bool(true))
	}

	// Handler-call semantics (§4.3) are already lowered at IR-build time
	// into an explicit CondBr-to-Ret(true)-vs-continue split following
	// this instruction, so InvokeHandler needs no special case here — it
	// behaves exactly like CallFunc: write the result, advance.
	r.setResult(in.Result, v)
	r.pc++
	return nil
}

func (r *Runner) callHandler(in *codegen.Instr) error {
	if in.Callee < 0 || in.Callee >= len(r.prog.CG.Handlers) {
		return fmt.Errorf("runtime: unresolved handler call %q", in.CalleeName)
	}
	target := r.prog.CG.Handlers[in.Callee]

	r.stack = append(r.stack, frame{
		handler:   r.handler,
		pc:        r.pc + 1,
		regs:      r.regs,
		resultReg: in.Result,
	})
	r.handler = target
	r.pc = target.Entry
	r.regs = make([]builtin.Value, target.NumTemps)
	return nil
}

// returnFromHandler implements Ret: pop a caller frame if this was a
// nested CallHandler invocation (storing the boolean result into the
// caller's result register and resuming it), otherwise this was the
// top-level entry handler and the Runner is Done.
func (r *Runner) returnFromHandler(result builtin.Value) error {
	if len(r.stack) == 0 {
		r.mu.Lock()
		r.state = Done
		r.mu.Unlock()
		r.pendingResult = result
		return nil
	}

	top := r.stack[len(r.stack)-1]
	r.stack = r.stack[:len(r.stack)-1]
	r.handler = top.handler
	r.pc = top.pc
	r.regs = top.regs
	r.setResult(top.resultReg, result)
	return nil
}

// reenterMain discards any nested call stack and resets execution to
// `main`'s entry block, per §4.6 "re-enters main from its entry block".
func (r *Runner) reenterMain() {
	main, ok := r.prog.CG.FindHandler("main")
	if !ok {
		main = r.handler
	}
	r.stack = nil
	r.handler = main
	r.pc = main.Entry
	r.regs = make([]builtin.Value, main.NumTemps)
}

func (r *Runner) setResult(dst ir.Value, v builtin.Value) {
	if dst.Kind != ir.ValTemp {
		return
	}
	if dst.Idx >= len(r.regs) {
		grown := make([]builtin.Value, dst.Idx+1)
		copy(grown, r.regs)
		r.regs = grown
	}
	r.regs[dst.Idx] = v
}

func (r *Runner) resolve(v ir.Value) builtin.Value {
	return resolveOperand(r.prog.CG.Consts, r.prog, r.regs, v)
}

func resolveArgs(consts *ir.ConstPool, prog *Program, regs []builtin.Value, args []ir.Value) []builtin.Value {
	out := make([]builtin.Value, len(args))
	for i, a := range args {
		out[i] = resolveOperand(consts, prog, regs, a)
	}
	return out
}

func resolveOperand(consts *ir.ConstPool, prog *Program, regs []builtin.Value, v ir.Value) builtin.Value {
	switch v.Kind {
	case ir.ValConst:
		return constValue(consts, v)
	case ir.ValGlobal:
		if prog == nil {
			return builtin.Value{}
		}
		return prog.Global(v.Idx)
	case ir.ValTemp:
		if v.Idx < len(regs) {
			return regs[v.Idx]
		}
		return builtin.Value{}
	default:
		return builtin.Value{}
	}
}

func constValue(pool *ir.ConstPool, v ir.Value) builtin.Value {
	switch v.Type {
	case ast.Number:
		return builtin.Number(pool.Numbers[v.Idx])
	case ast.Boolean:
		return builtin.Bool(v.Idx == 1)
	case ast.String:
		return builtin.String(pool.Strings[v.Idx])
	case ast.IPAddress:
		return builtin.IPAddr(parseIP(pool.IPs[v.Idx]))
	case ast.Cidr:
		return builtin.CidrVal(parseCidr(pool.Cidrs[v.Idx]))
	case ast.RegExp:
		return builtin.Regex(mustCompile(pool.Regexes[v.Idx]))
	default:
		return builtin.Value{Type: v.Type}
	}
}

func emptyArray(t ast.LiteralType) builtin.Value {
	switch t {
	case ast.IntArray:
		return builtin.IntArray(nil)
	case ast.StringArray:
		return builtin.StringArray(nil)
	case ast.IPAddrArray:
		return builtin.IPArray(nil)
	case ast.CidrArray:
		return builtin.CidrArray(nil)
	default:
		return builtin.Value{Type: t}
	}
}
