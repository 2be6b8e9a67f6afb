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

import (
	"sync/atomic"

	"github.com/nabbar/x0d/source"
)

// nextSymbolID hands out process-wide unique SymbolIDs as symbols are
// declared. A Unit-scoped counter would require threading the Unit through
// every Scope, so identity is assigned here instead; uniqueness within one
// Unit's lifetime (all that any caller relies on) still holds.
var nextSymbolID int64

// SymbolKind discriminates the closed set of names a Scope can hold.
type SymbolKind uint8

const (
	SymVariable SymbolKind = iota
	SymHandler
	SymBuiltinFunction
	SymBuiltinHandler
	SymUnit
)

// SymbolID indexes into a Unit's symbol arena. The zero value is never a
// valid symbol (arenas are 1-indexed) so a missing lookup can return 0.
type SymbolID int

// Signature describes a native callback's calling convention:
// name(argTypes...) -> returnType. BuiltinHandler leaves ReturnType as Void.
type Signature struct {
	ArgTypes   []LiteralType
	ReturnType LiteralType
}

// Symbol is one named entity in a Scope: a variable, a Flow-defined or
// forward-declared handler, or a native builtin. Node is the index of the
// declaring AST node in the owning Unit's node arena (0 if none, e.g. for
// builtins which have no Flow-level body).
type Symbol struct {
	ID   SymbolID
	Name string
	Kind SymbolKind
	Type LiteralType // for Variable; Void for Handler/BuiltinHandler

	Signature Signature // for BuiltinFunction/BuiltinHandler

	Node    int  // index into Unit.Nodes; 0 if none
	Defined bool // false while a Handler is only forward-declared

	Span source.Span
}

// LookupMode controls how far a Scope.Lookup call searches.
type LookupMode uint8

const (
	// Self restricts the search to exactly one scope, used for forward
	// declaration checks and duplicate-name diagnostics.
	Self LookupMode = iota
	// All walks outward through parent scopes until found or exhausted.
	All
)

// Scope is one link in the parent-chain of lexical scopes: the Unit
// (top-level) scope, and one per Handler body. Names are unique within a
// scope; shadowing across nested scopes is allowed.
type Scope struct {
	Parent  *Scope
	symbols map[string]*Symbol
	order   []string // insertion order, for deterministic dumps
}

func NewScope(parent *Scope) *Scope {
	return &Scope{Parent: parent, symbols: make(map[string]*Symbol)}
}

// Declare inserts sym under sym.Name. Returns false if the name already
// exists in this exact scope (redeclaration within one scope is an error;
// shadowing in a child scope is not checked here).
func (s *Scope) Declare(sym *Symbol) bool {
	if _, exists := s.symbols[sym.Name]; exists {
		return false
	}
	if sym.ID == 0 {
		sym.ID = SymbolID(atomic.AddInt64(&nextSymbolID, 1))
	}
	s.symbols[sym.Name] = sym
	s.order = append(s.order, sym.Name)
	return true
}

// Lookup searches for name per mode, returning the Symbol and whether it
// was found.
func (s *Scope) Lookup(name string, mode LookupMode) (*Symbol, bool) {
	for scope := s; scope != nil; scope = scope.Parent {
		if sym, ok := scope.symbols[name]; ok {
			return sym, true
		}
		if mode == Self {
			break
		}
	}
	return nil, false
}

// Symbols returns the scope's own symbols in declaration order (not
// including parents), for dumps and diagnostics.
func (s *Scope) Symbols() []*Symbol {
	out := make([]*Symbol, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, s.symbols[name])
	}
	return out
}

// ForwardDeclareHandler auto-declares an unimplemented Handler in the global
// (Unit) scope when a call/reference to an unknown name is encountered at
// parse time. Failing to later implement it is a link-time error (§ "Symbol
// resolution").
func (s *Scope) ForwardDeclareHandler(name string, span source.Span) *Symbol {
	sym := &Symbol{Name: name, Kind: SymHandler, Defined: false, Span: span}
	s.Declare(sym)
	return sym
}

// Implement marks a previously forward-declared Handler as defined, binding
// it to its body's AST node. Returns false if sym was already implemented
// (redeclaration with a body is an error).
func (sym *Symbol) Implement(node int, span source.Span) bool {
	if sym.Defined {
		return false
	}
	sym.Node = node
	sym.Defined = true
	sym.Span = span
	return true
}
