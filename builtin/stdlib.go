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

import (
	"fmt"
	"net/http"
	"os"

	"github.com/nabbar/x0d/ast"
	"github.com/nabbar/x0d/reqctx"
)

// ClusterProxy is the narrow seam proxy.cluster calls through, implemented
// by cluster.Manager. Keeping it as an interface here (rather than
// importing package cluster) keeps package builtin independent of
// cluster; the host passes its Manager to RegisterStdlib at startup.
type ClusterProxy interface {
	// Schedule hands req off to the named cluster (optionally a specific
	// bucket/backend) and reports whether it was able to take ownership
	// of the response (mirrors §4.11 Controller.schedule).
	Schedule(clusterName, path, bucket, backend string, ctx *reqctx.Context) error
}

// RegisterStdlib wires the illustrative builtin surface named in §6 EXTERNAL
// INTERFACES and SPEC_FULL §14: request accessors, the terminal response
// handlers (echo/blank/return/redirect), docroot, and proxy.cluster bound
// to whatever ClusterProxy the host supplies. This is deliberately the
// small, testable slice §14's Non-goals call for, not the full out-of-scope
// module catalog (staticfile/compress/auth/… remain external collaborators).
func RegisterStdlib(reg *Registry, proxy ClusterProxy) error {
	regs := []struct {
		sig Signature
		fn  Func
		ver Verifier
	}{
		{sig: Signature{Name: "req.method", Kind: KindFunction, Scope: ScopeMainOnly, ReturnType: ast.String}, fn: fnReqMethod},
		{sig: Signature{Name: "req.path", Kind: KindFunction, Scope: ScopeMainOnly, ReturnType: ast.String}, fn: fnReqPath},
		{sig: Signature{Name: "req.query", Kind: KindFunction, Scope: ScopeMainOnly, ReturnType: ast.String}, fn: fnReqQuery},
		{sig: Signature{Name: "req.header", Kind: KindFunction, Scope: ScopeMainOnly, ArgTypes: []ast.LiteralType{ast.String}, ReturnType: ast.String}, fn: fnReqHeader},
		{sig: Signature{Name: "req.host", Kind: KindFunction, Scope: ScopeMainOnly, ReturnType: ast.String}, fn: fnReqHost},

		{sig: Signature{Name: "docroot", Kind: KindHandler, Scope: ScopeMainOnly, ArgTypes: []ast.LiteralType{ast.String}}, fn: fnDocroot},
		{sig: Signature{Name: "alias", Kind: KindHandler, Scope: ScopeMainOnly, ArgTypes: []ast.LiteralType{ast.String, ast.String}}, fn: fnAlias},
		{sig: Signature{Name: "echo", Kind: KindHandler, Scope: ScopeMainOnly, ArgTypes: []ast.LiteralType{ast.String}}, fn: fnEcho},
		{sig: Signature{Name: "blank", Kind: KindHandler, Scope: ScopeMainOnly}, fn: fnBlank},
		{sig: Signature{Name: "return", Kind: KindHandler, Scope: ScopeMainOnly, ArgTypes: []ast.LiteralType{ast.Number, ast.Number}}, fn: fnReturn},
		{sig: Signature{Name: "redirect", Kind: KindHandler, Scope: ScopeMainOnly, ArgTypes: []ast.LiteralType{ast.Number, ast.String}}, fn: fnRedirect},

		{sig: Signature{Name: "proxy.cluster", Kind: KindHandler, Scope: ScopeMainOnly, ArgTypes: []ast.LiteralType{ast.String, ast.String}, Variadic: true},
			fn: fnProxyCluster(proxy)},

		{sig: Signature{Name: "sys.env", Kind: KindFunction, Scope: ScopeShared, ArgTypes: []ast.LiteralType{ast.String}, ReturnType: ast.String}, fn: fnSysEnv, ver: VerifySysEnv},
		{sig: Signature{Name: "sys.cwd", Kind: KindFunction, Scope: ScopeShared, ReturnType: ast.String}, fn: fnSysCwd, ver: VerifySysCwd},
	}

	for _, r := range regs {
		if err := reg.Register(r.sig, r.fn, r.ver); err != nil {
			return err
		}
	}
	return nil
}

func reqCtx(p *Params) *reqctx.Context {
	return p.caller.Context().(*reqctx.Context)
}

func fnReqMethod(p *Params) (Value, error) { return String(reqCtx(p).Request.Method), nil }
func fnReqPath(p *Params) (Value, error)   { return String(reqCtx(p).Request.URL.Path), nil }
func fnReqQuery(p *Params) (Value, error)  { return String(reqCtx(p).Request.URL.RawQuery), nil }
func fnReqHost(p *Params) (Value, error)   { return String(reqCtx(p).Request.Host), nil }
func fnReqHeader(p *Params) (Value, error) {
	return String(reqCtx(p).Request.Header.Get(p.GetString(0))), nil
}

func fnDocroot(p *Params) (Value, error) {
	reqCtx(p).DocumentRoot = p.GetString(0)
	return Bool(false), nil
}

func fnAlias(p *Params) (Value, error) {
	ctx := reqCtx(p)
	if prefix, target := p.GetString(0), p.GetString(1); len(ctx.Request.URL.Path) >= len(prefix) && ctx.Request.URL.Path[:len(prefix)] == prefix {
		ctx.DocumentRoot = target
	}
	return Bool(false), nil
}

func fnEcho(p *Params) (Value, error) {
	ctx := reqCtx(p)
	ctx.SetStatus(http.StatusOK)
	_, err := ctx.Response.Write([]byte(p.GetString(0) + "\n"))
	return Bool(true), err
}

func fnBlank(p *Params) (Value, error) {
	ctx := reqCtx(p)
	ctx.SetStatus(http.StatusOK)
	return Bool(true), nil
}

// fnReturn implements the no-return `return(status, override)` builtin
// (§4.6 "Internal redirects"): consult the Context's error-page map first,
// falling back to writing the status directly when no mapping exists or
// the internal-redirect bound is already exhausted. Once an earlier
// handler has set a status, the request is answered and return leaves
// the response unchanged.
func fnReturn(p *Params) (Value, error) {
	ctx := reqCtx(p)
	if ctx.Status() != 0 {
		return Bool(true), nil
	}
	status := int(p.GetInt(0))
	if override := int(p.GetInt(1)); override != 0 {
		status = override
	}

	if target, ok := ctx.ErrorPages[status]; ok {
		if p.caller.Redirect(target) {
			return Bool(true), nil
		}
		// max_internal_redirect_count exhausted: fall through and
		// synthesize a minimal body at the status as-is.
	}

	ctx.SetStatus(status)
	ctx.Response.WriteHeader(status)
	fmt.Fprintf(ctx.Response, "%d %s\n", status, http.StatusText(status))
	return Bool(true), nil
}

func fnRedirect(p *Params) (Value, error) {
	ctx := reqCtx(p)
	status, location := int(p.GetInt(0)), p.GetString(1)
	ctx.SetStatus(status)
	ctx.Response.Header().Set("Location", location)
	ctx.Response.WriteHeader(status)
	return Bool(true), nil
}

func fnProxyCluster(proxy ClusterProxy) Func {
	return func(p *Params) (Value, error) {
		ctx := reqCtx(p)
		name := p.GetString(0)
		path, bucket, backend := "", "", ""
		if p.Len() > 1 {
			path = p.GetString(1)
		}
		if p.Len() > 2 {
			bucket = p.GetString(2)
		}
		if p.Len() > 3 {
			backend = p.GetString(3)
		}
		if proxy == nil {
			return Bool(false), fmt.Errorf("proxy.cluster: no cluster proxy wired for %q", name)
		}
		if err := proxy.Schedule(name, path, bucket, backend, ctx); err != nil {
			return Bool(false), err
		}
		return Bool(true), nil
	}
}

func fnSysEnv(p *Params) (Value, error) { return String(os.Getenv(p.GetString(0))), nil }
func fnSysCwd(p *Params) (Value, error) {
	wd, err := os.Getwd()
	return String(wd), err
}

// VerifySysEnv resolves sys.env("X") at link time into a constant load
// when X is a compile-time string constant, per §4.6's worked example.
func VerifySysEnv(name string, args []ConstArg) VerifyResult {
	if len(args) != 1 || !args[0].IsConst {
		return VerifyResult{}
	}
	return VerifyResult{Folded: true, Value: String(os.Getenv(args[0].Value.Str))}
}

// VerifySysCwd resolves sys.cwd() at link time unconditionally — it takes
// no arguments, so there is nothing for the IR to leave unresolved.
func VerifySysCwd(name string, args []ConstArg) VerifyResult {
	wd, err := os.Getwd()
	if err != nil {
		return VerifyResult{Err: err}
	}
	return VerifyResult{Folded: true, Value: String(wd)}
}
