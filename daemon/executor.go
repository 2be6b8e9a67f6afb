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

// Package daemon implements the §5 concurrency model: a fixed pool of
// single-threaded, cooperative worker loops, each owning the requests bound
// to it for their whole lifetime, with cross-worker interaction expressed
// as message posting rather than shared mutable state.
package daemon

// executor is one worker's FIFO task queue (§5: "Cross-worker interaction
// is by message posting (post(fn) onto the target worker's executor) ...
// post(fn) preserves submission order"). It is intentionally a plain
// buffered channel plus one drain goroutine rather than a worker pool of
// its own — the whole point of a worker's executor is that exactly one
// goroutine ever runs its tasks.
type executor struct {
	tasks chan func()
	done  chan struct{}
}

func newExecutor(queueLen int) *executor {
	if queueLen <= 0 {
		queueLen = 256
	}
	return &executor{
		tasks: make(chan func(), queueLen),
		done:  make(chan struct{}),
	}
}

// run drains the queue until close is called. Intended to be the sole body
// of the worker's goroutine.
func (e *executor) run() {
	defer close(e.done)
	for fn := range e.tasks {
		fn()
	}
}

// post submits fn for execution on this executor's goroutine, preserving
// FIFO submission order. It blocks if the queue is full, providing simple
// backpressure instead of unbounded growth.
func (e *executor) post(fn func()) {
	e.tasks <- fn
}

// close stops accepting new work and waits for the drain goroutine to
// finish whatever was already queued.
func (e *executor) close() {
	close(e.tasks)
	<-e.done
}
