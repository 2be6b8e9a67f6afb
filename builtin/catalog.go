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
	"sync"
	"sync/atomic"

	"github.com/nabbar/x0d/ast"
)

// nextCatalogID mints the SymbolIDs Catalog hands back to the parser for a
// resolved builtin call. Link (codegen.Program.Link) re-resolves every call
// by CalleeName against the Registry, so these IDs only need to be stable
// and non-zero for one compile — they are never persisted or compared
// across Units.
var nextCatalogID int64

// Catalog adapts a Registry to parser.BuiltinCatalog: Resolve/IsHandler
// match that interface's method set structurally, so builtin never needs
// to import parser (DESIGN NOTES "Global mutable state" — no package
// reaches across the pipeline to know its neighbor's concrete type).
type Catalog struct {
	reg *Registry

	mu  sync.Mutex
	ids map[string]ast.SymbolID
}

// NewCatalog wraps reg for use as a parser.BuiltinCatalog.
func NewCatalog(reg *Registry) *Catalog {
	return &Catalog{reg: reg, ids: make(map[string]ast.SymbolID)}
}

func (c *Catalog) idFor(name string) ast.SymbolID {
	c.mu.Lock()
	defer c.mu.Unlock()
	if id, ok := c.ids[name]; ok {
		return id
	}
	id := ast.SymbolID(atomic.AddInt64(&nextCatalogID, 1))
	c.ids[name] = id
	return id
}

// IsHandler reports whether name is a registered builtin of handler kind,
// used by the parser to recognize a bare `blank;`-style call with no
// argument list (§4.2 "Symbol resolution").
func (c *Catalog) IsHandler(name string) bool {
	sig, _, _, err := c.reg.Lookup(name)
	return err == nil && sig.Kind == KindHandler
}

// Resolve implements §4.2's "exact-match pass followed by an ordered-
// reorder+defaults pass" against the Registry's closed Signature shape.
// Since a Signature here carries only positional ArgTypes (no named
// parameters or default values to reorder among — every registered
// builtin in this repo is positional), the two passes collapse into one:
// an exact arity/type match, with a Variadic signature's trailing
// arguments all checked against its last declared type.
func (c *Catalog) Resolve(name string, argTypes []ast.LiteralType) (ast.SymbolID, ast.Signature, bool) {
	sig, _, _, err := c.reg.Lookup(name)
	if err != nil || !matchArgs(sig, argTypes) {
		return 0, ast.Signature{}, false
	}
	return c.idFor(name), ast.Signature{ArgTypes: sig.ArgTypes, ReturnType: sig.ReturnType}, true
}

func matchArgs(sig Signature, argTypes []ast.LiteralType) bool {
	if !sig.Variadic {
		if len(argTypes) != len(sig.ArgTypes) {
			return false
		}
		for i, t := range sig.ArgTypes {
			if argTypes[i] != t {
				return false
			}
		}
		return true
	}

	fixed := len(sig.ArgTypes) - 1
	if fixed < 0 || len(argTypes) < fixed {
		return false
	}
	for i := 0; i < fixed; i++ {
		if argTypes[i] != sig.ArgTypes[i] {
			return false
		}
	}
	tail := sig.ArgTypes[fixed]
	for i := fixed; i < len(argTypes); i++ {
		if argTypes[i] != tail {
			return false
		}
	}
	return true
}
