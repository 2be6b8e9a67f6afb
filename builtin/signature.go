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

// Package builtin implements the Native Builtin Registry (component I): the
// host-side surface a Flow program links against. A module (the host
// collaborator — staticfile, compress, auth, the cluster's own
// proxy.cluster, …) calls Register at process startup; codegen.Link later
// resolves every CallFunc/InvokeHandler instruction's callee name against
// this registry, failing the link if a signature is missing or if an
// experimental builtin is used without opt-in.
//
// This replaces the original's dynamic shared-library plugin loading (see
// DESIGN NOTES "Plugin loading") with a compile-time registry populated by
// explicit Register calls — no plugin ABI, no singleton: the Registry is a
// value threaded through Link and the Runner like any other collaborator.
package builtin

import "github.com/nabbar/x0d/ast"

// Kind discriminates a function-shaped builtin (has a return value, used
// from an expression context) from a handler-shaped one (returns a
// "handled" boolean and may fully terminate the request).
type Kind uint8

const (
	KindFunction Kind = iota
	KindHandler
)

// Scope restricts when a builtin may be called: only from `setup`, only
// from `main` (or any Flow-defined handler called from it), or both.
type Scope uint8

const (
	ScopeShared Scope = iota
	ScopeSetupOnly
	ScopeMainOnly
)

// Signature is a builtin's calling convention: name(argTypes...) ->
// returnType, plus the metadata Link needs to enforce scope and
// experimental opt-in.
type Signature struct {
	Name       string
	Kind       Kind
	Scope      Scope
	ArgTypes   []ast.LiteralType
	ReturnType ast.LiteralType // Void for KindHandler

	// Variadic, when true, lets the last ArgTypes entry repeat zero or
	// more times (e.g. proxy.cluster's optional path/bucket/backend
	// tail, §6 "proxy.cluster NAME[, PATH, BUCKET, BACKEND]").
	Variadic bool

	// Experimental builtins are rejected at Link unless the host opts in
	// (CLI flag or config directive) — mirrors §4.5 "unresolved or
	// experimental-without-opt-in calls are reported".
	Experimental bool
}

func (s Signature) String() string {
	return s.Name
}
