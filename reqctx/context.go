/*
 * MIT License
 *
 * Copyright (c) 2019 Nicolas JUHEL
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

// Package reqctx implements the per-request scoped state described as
// "Request Context" (component J): everything a running handler needs that
// is neither global (the linked Program, the builtin registry) nor local to
// one IR value (the register file). One Context is created when the HTTP
// layer accepts a request and destroyed when the response completes.
//
// Rather than a process-wide singleton (the "Global mutable state" anti
// pattern the design notes call out), Context is an explicit object
// threaded through the Runner as userdata — the same "context object, no
// singleton" idiom the teacher's generic context.ccx[T] uses for scoped
// key/value state.
package reqctx

import (
	"context"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrorPageMap maps an HTTP status to an internal-redirect target URI.
type ErrorPageMap map[int]string

// Context is the per-request scope. It is not safe for concurrent mutation
// from more than one goroutine; by the concurrency model (§5) all access
// happens on the single worker the request is bound to.
type Context struct {
	mu sync.Mutex

	id      string
	created time.Time

	parent context.Context
	cancel context.CancelFunc

	Request  *http.Request
	Response http.ResponseWriter

	DocumentRoot string
	PathInfo     string

	PhysicalFile *os.File

	ErrorPages ErrorPageMap

	redirectCount int
	maxRedirects  int
	redirectChain []string

	status int

	values map[string]interface{}

	done bool
}

// New creates a Context bound to the inbound request/response pair. parent
// is typically the worker's own context, used so cancellation of the
// connection (client disconnect, server shutdown) propagates down.
func New(parent context.Context, req *http.Request, resp http.ResponseWriter, maxInternalRedirect int) *Context {
	ctx, cancel := context.WithCancel(parent)
	return &Context{
		id:           uuid.NewString(),
		created:      time.Now(),
		parent:       ctx,
		cancel:       cancel,
		Request:      req,
		Response:     resp,
		ErrorPages:   ErrorPageMap{},
		maxRedirects: maxInternalRedirect,
		values:       make(map[string]interface{}),
	}
}

func (c *Context) ID() string { return c.id }

func (c *Context) CreatedAt() time.Time { return c.created }

// Deadline/Done/Err/Value implement context.Context so a Context can be
// passed anywhere a context.Context is expected (builtins doing upstream
// I/O, for instance).
func (c *Context) Deadline() (time.Time, bool) { return c.parent.Deadline() }
func (c *Context) Done() <-chan struct{}       { return c.parent.Done() }
func (c *Context) Err() error                  { return c.parent.Err() }
func (c *Context) Value(key interface{}) interface{} {
	return c.parent.Value(key)
}

// Set/Get provide the typed scratch space builtins use to stash per-request
// state (e.g. the regex.group(i) result, looked up by name rather than by
// context.Context key to avoid key-collision boilerplate).
func (c *Context) Set(key string, val interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[key] = val
}

func (c *Context) Get(key string) (interface{}, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.values[key]
	return v, ok
}

// Status returns the status code set so far (0 if none has been set yet).
func (c *Context) Status() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

func (c *Context) SetStatus(code int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.status = code
}

// PushRedirect records an internal-redirect hop, rewriting PathInfo and
// bumping the bounded counter. It returns false if max_internal_redirect_count
// has been exceeded, per the Internal-redirect bound testable property.
func (c *Context) PushRedirect(newPath string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.redirectCount >= c.maxRedirects {
		return false
	}
	c.redirectCount++
	c.redirectChain = append(c.redirectChain, newPath)
	c.PathInfo = newPath
	return true
}

func (c *Context) RedirectChain() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.redirectChain))
	copy(out, c.redirectChain)
	return out
}

func (c *Context) RedirectCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.redirectCount
}

// Close cancels the Context's derived context (dropping any continuation
// holding only a weak/cancellable reference to it) and releases the
// physical file handle if one was opened. Idempotent.
func (c *Context) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.done {
		return nil
	}
	c.done = true
	c.cancel()

	if c.PhysicalFile != nil {
		return c.PhysicalFile.Close()
	}
	return nil
}

func (c *Context) IsDone() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.done
}
