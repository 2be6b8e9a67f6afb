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

package daemon

import (
	"context"
	"net/http"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/nabbar/x0d/logger"
	"github.com/nabbar/x0d/reqctx"
	"github.com/nabbar/x0d/runtime"
)

// Pool is the §5 concurrency model's fixed worker pool: N Workers, each its
// own single-threaded cooperative loop, round-robin-assigned one inbound
// request at a time. Pool itself implements http.Handler, so it drops
// straight into an *http.Server.
type Pool struct {
	workers []*Worker
	next    uint64

	log logger.Logger
	eg  *errgroup.Group
}

// NewPool builds n Workers sharing prog. maxInternalRedirect and queueLen
// are forwarded to every Worker (§4.6 max_internal_redirect_count, §5
// per-worker executor queue length).
func NewPool(n int, prog *runtime.Program, maxInternalRedirect, queueLen int, log logger.Logger) *Pool {
	if n < 1 {
		n = 1
	}
	if log == nil {
		log = logger.Discard()
	}
	ws := make([]*Worker, n)
	for i := range ws {
		ws[i] = newWorker(i, prog, maxInternalRedirect, queueLen, log)
	}
	return &Pool{workers: ws, log: log}
}

// discardResponseWriter is the minimal http.ResponseWriter `setup`'s one
// synthetic request runs against (§1 "a setup handler runs once at boot to
// materialize server state" — there is no real client connection for it to
// write to).
type discardResponseWriter struct {
	header http.Header
	status int
}

func newDiscardResponseWriter() *discardResponseWriter {
	return &discardResponseWriter{header: make(http.Header)}
}

func (w *discardResponseWriter) Header() http.Header        { return w.header }
func (w *discardResponseWriter) Write(b []byte) (int, error) { return len(b), nil }
func (w *discardResponseWriter) WriteHeader(statusCode int)  { w.status = statusCode }

// RunSetup executes the `setup` handler once, synchronously, before Start
// begins accepting connections, against a synthetic request/response pair
// (§1, §4.6 entry contract).
func (p *Pool) RunSetup(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "/", nil)
	if err != nil {
		return err
	}
	rc := reqctx.New(ctx, req, newDiscardResponseWriter(), 0)
	defer rc.Close()
	return p.workers[0].RunSetup(rc)
}

// Start launches every Worker's executor drain loop under an errgroup
// (§5 "coordinated shutdown across the per-worker executors"). Each loop
// runs until Shutdown closes its executor; cancelling ctx does not stop
// the loops by itself.
func (p *Pool) Start(ctx context.Context) {
	eg, _ := errgroup.WithContext(ctx)
	p.eg = eg
	for _, w := range p.workers {
		w := w
		eg.Go(func() error {
			w.start()
			return nil
		})
	}
}

// pick assigns the next request to a Worker by round-robin, the same
// cursor-rotation idiom cluster.RoundRobinScheduler uses over live members
// (§4.8) — here every Worker is always "live", so there is no health gate.
func (p *Pool) pick() *Worker {
	i := atomic.AddUint64(&p.next, 1)
	return p.workers[i%uint64(len(p.workers))]
}

// ServeHTTP hands req off to one Worker and blocks until that Worker has
// either finished handling it or the request's own context is done
// (client disconnect, server shutdown) — §5 "Closing the response fires an
// on-complete callback that destroys the Context".
func (p *Pool) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	done := p.pick().Post(r, w)
	select {
	case <-done:
	case <-r.Context().Done():
	}
}

// Shutdown stops accepting new work on every Worker's executor, draining
// whatever is already queued, then waits for their goroutines to exit.
func (p *Pool) Shutdown() error {
	for _, w := range p.workers {
		w.stop()
	}
	if p.eg == nil {
		return nil
	}
	return p.eg.Wait()
}
