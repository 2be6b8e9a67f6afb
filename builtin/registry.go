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
	"sort"
	"sync"

	x0derr "github.com/nabbar/x0d/errors"
)

// Func is a native-function implementation: given its already-coerced
// arguments, produce a result Value or an error. Builtins that need to
// suspend the calling Runner (upstream I/O, sleep, …) call p's Caller
// methods instead of returning synchronously; in that case the returned
// Value is ignored.
type Func func(p *Params) (Value, error)

// entry bundles one builtin's signature, implementation, and optional
// link-time verifier.
type entry struct {
	sig      Signature
	fn       Func
	verifier Verifier
}

// Registry is the Native Builtin Registry (component I): the host's
// explicit, no-singleton collection of callable names, threaded through
// codegen.Link and the Runner. A HostRegistry is built once at process
// startup by each module's register(&registry) call (DESIGN NOTES
// "Plugin loading").
type Registry struct {
	mu       sync.RWMutex
	entries  map[string]*entry
	allowExp bool
}

// NewRegistry creates an empty Registry. allowExperimental opts every
// Signature.Experimental builtin into being resolvable at Link (§4.5).
func NewRegistry(allowExperimental bool) *Registry {
	return &Registry{entries: make(map[string]*entry), allowExp: allowExperimental}
}

// Register adds sig under sig.Name, wired to fn with an optional verifier
// (nil if the builtin has none). Returns an error if the name is already
// registered — the registry never silently shadows a prior registration.
func (r *Registry) Register(sig Signature, fn Func, verifier Verifier) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[sig.Name]; exists {
		return x0derr.New(x0derr.LinkError, "builtin.Registry", "duplicate builtin registration: %s", sig.Name)
	}
	r.entries[sig.Name] = &entry{sig: sig, fn: fn, verifier: verifier}
	return nil
}

// Lookup resolves name, enforcing the experimental opt-in policy. It
// returns the entry itself, not a handle: codegen numbers each native by
// its position in Program.Natives, and runtime.NewProgram resolves that
// table once so the Runner never looks a name up per call.
func (r *Registry) Lookup(name string) (Signature, Func, Verifier, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[name]
	if !ok {
		return Signature{}, nil, nil, x0derr.New(x0derr.LinkError, "builtin.Registry", "unresolved native call: %s", name)
	}
	if e.sig.Experimental && !r.allowExp {
		return Signature{}, nil, nil, x0derr.New(x0derr.LinkError, "builtin.Registry", "experimental builtin %s used without opt-in", name)
	}
	return e.sig, e.fn, e.verifier, nil
}

// Names returns every registered builtin name, sorted, for dumps and
// diagnostics.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.entries))
	for n := range r.entries {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

func (r *Registry) String() string {
	return fmt.Sprintf("builtin.Registry{%d builtins}", len(r.entries))
}
