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

package codegen

import (
	"github.com/nabbar/x0d/ast"
	"github.com/nabbar/x0d/builtin"
	x0derr "github.com/nabbar/x0d/errors"
	"github.com/nabbar/x0d/ir"
	"github.com/nabbar/x0d/source"
)

const linkErrCode = x0derr.LinkError

// Link resolves every native call against host, the Native Builtin
// Registry (§4.5 "link(host, diagnostics) -> resolves native calls by
// matching signature against the host's registry"). Missing `setup` is
// fatal, matching find_handler's documented contract; every unresolved or
// experimental-without-opt-in call is appended to diags rather than
// aborting immediately, so a single Link call surfaces every problem in
// one pass.
func (p *Program) Link(host *builtin.Registry, diags *source.Report) error {
	if _, ok := p.FindHandler("setup"); !ok {
		diags.Add(linkErrCode, source.Span{}, "missing required handler: setup")
		return diags.Err()
	}

	for _, h := range p.Handlers {
		for i := range h.Code {
			in := &h.Code[i]
			switch in.Op {
			case ir.CallFunc, ir.InvokeHandler, ir.CallNoReturn:
				p.linkNative(in, host, diags)
			case ir.CallHandler:
				p.linkHandlerCall(in, diags)
			}
		}
	}

	if diags.HasErrors() {
		return diags.Err()
	}
	p.linked = true
	return nil
}

func (p *Program) linkNative(in *Instr, host *builtin.Registry, diags *source.Report) {
	sig, fn, verifier, err := host.Lookup(in.CalleeName)
	if err != nil {
		diags.Add(linkErrCode, source.Span{}, "%s", err.Error())
		return
	}
	_ = fn // runtime.NewProgram resolves fn by name once when the Program is loaded; sig is used here only to validate arity/shape.

	idx := -1
	for i, n := range p.Natives {
		if n.Name == in.CalleeName {
			idx = i
			break
		}
	}
	if idx == -1 {
		idx = len(p.Natives)
		p.Natives = append(p.Natives, NativeRef{Name: in.CalleeName, Index: idx, IsHandler: sig.Kind == builtin.KindHandler})
	}
	in.Callee = idx

	if verifier == nil {
		return
	}

	constArgs := make([]builtin.ConstArg, len(in.Args))
	allConst := true
	for i, a := range in.Args {
		if a.Kind != ir.ValConst {
			allConst = false
			break
		}
		constArgs[i] = builtin.ConstArg{IsConst: true, Value: constToBuiltinValue(p.Consts, a)}
	}
	if !allConst {
		return
	}

	res := verifier(in.CalleeName, constArgs)
	if res.Err != nil {
		diags.Add(linkErrCode, source.Span{}, "%s: %s", in.CalleeName, res.Err.Error())
		return
	}
	if res.Folded {
		v := res.Value
		in.Folded = &v
	}
}

func (p *Program) linkHandlerCall(in *Instr, diags *source.Report) {
	idx := p.handlerIndex(in.CalleeName)
	if idx == -1 {
		diags.Add(linkErrCode, source.Span{}, "call to undefined handler: %s", in.CalleeName)
		return
	}
	in.Callee = idx
}

// constToBuiltinValue converts a compile-time ir.Value (Kind==ValConst)
// into the builtin ABI's runtime Value, for feeding a Verifier.
func constToBuiltinValue(pool *ir.ConstPool, v ir.Value) builtin.Value {
	switch v.Type {
	case ast.Number:
		return builtin.Number(pool.Numbers[v.Idx])
	case ast.Boolean:
		return builtin.Bool(v.Idx == 1)
	case ast.String:
		return builtin.String(pool.Strings[v.Idx])
	default:
		return builtin.Value{Type: v.Type}
	}
}
