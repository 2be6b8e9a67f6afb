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
	"net/http"

	"github.com/nabbar/x0d/logger"
	"github.com/nabbar/x0d/reqctx"
	"github.com/nabbar/x0d/runtime"
)

// Worker is one single-threaded cooperative scheduling slice (§5): a
// request is bound to exactly one Worker for its lifetime, and every
// Runner step, builtin body and response write for that request executes
// on the Worker's executor goroutine.
type Worker struct {
	id       int
	exec     *executor
	prog     *runtime.Program
	maxRedir int
	log      logger.Logger
}

func newWorker(id int, prog *runtime.Program, maxInternalRedirect, queueLen int, log logger.Logger) *Worker {
	return &Worker{
		id:       id,
		exec:     newExecutor(queueLen),
		prog:     prog,
		maxRedir: maxInternalRedirect,
		log:      log.WithFields(logger.Fields{"worker": id}),
	}
}

// Post hands req/resp to this Worker's executor; done is closed once the
// request has been fully handled (or failed), so the caller (the daemon's
// accept loop) can know when it is safe to move on.
func (w *Worker) Post(req *http.Request, resp http.ResponseWriter) <-chan struct{} {
	done := make(chan struct{})
	w.exec.post(func() {
		defer close(done)
		w.handle(req, resp)
	})
	return done
}

func (w *Worker) handle(req *http.Request, resp http.ResponseWriter) {
	ctx := reqctx.New(req.Context(), req, resp, w.maxRedir)
	defer ctx.Close()

	runner, err := runtime.New(w.prog, ctx, "main")
	if err != nil {
		w.log.WithFields(logger.Fields{"error": err.Error()}).Error("failed to start runner")
		http.Error(resp, "internal server error", http.StatusInternalServerError)
		return
	}

	if _, err := runner.Run(); err != nil {
		// Dispatch-loop boundary (§7): an error bubbling out of a builtin
		// becomes a 500 if nothing has been written to the response yet.
		w.log.WithFields(logger.Fields{"error": err.Error(), "request": ctx.ID()}).Error("handler dispatch failed")
		if ctx.Status() == 0 {
			http.Error(resp, "internal server error", http.StatusInternalServerError)
		}
	}
}

func (w *Worker) start() { w.exec.run() }
func (w *Worker) stop()  { w.exec.close() }

// RunSetup executes the `setup` handler once, synchronously, on the
// calling goroutine (not through this Worker's executor), before the
// daemon starts accepting connections (§1:
// "a setup handler runs once at boot to materialize server state").
func (w *Worker) RunSetup(ctx *reqctx.Context) error {
	runner, err := runtime.New(w.prog, ctx, "setup")
	if err != nil {
		return err
	}
	_, err = runner.Run()
	return err
}
