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

// Package cluster implements the HTTP load-balancing cluster subsystem
// (components K-O): a hierarchical token-bucket shaper, a pluggable
// scheduler, upstream members and their HTTP client, a health monitor, and
// the controller gluing all of them together with retry/queue policy and
// config persistence.
package cluster

import (
	"container/list"
	"sync"
	"time"

	x0derr "github.com/nabbar/x0d/errors"
)

const shaperErrWhere = "cluster.shaper"

// queuedRequest is one FIFO entry inside a Bucket's queue (§4.7 enqueue).
type queuedRequest struct {
	enqueuedAt time.Time
	timeout    time.Duration
	timer      *time.Timer
	done       chan struct{}
	expired    bool
}

// Bucket is one node of the hierarchical token-bucket tree (§4.7). Rate and
// Ceil are expressed as a fraction in [0,1] of the cluster's total capacity,
// matching the spec's Bucket data model; Shaper resolves them to absolute
// token counts via resize.
type Bucket struct {
	mu sync.Mutex

	name   string
	rate   float64
	ceil   float64
	parent *Bucket

	children []*Bucket

	tokens    int
	totalCap  int
	queue     *list.List
	queueTO   time.Duration
}

// NewBucket creates a root bucket; call AddChild to build the tree.
func NewBucket(name string, rate, ceil float64, queueTimeout time.Duration) *Bucket {
	return &Bucket{
		name:    name,
		rate:    rate,
		ceil:    ceil,
		queue:   list.New(),
		queueTO: queueTimeout,
	}
}

func (b *Bucket) Name() string { return b.name }

// AddChild attaches child under b, enforcing the per-bucket rate/ceil
// inheritance invariant eagerly (§12 supplement: "validates that a child
// bucket's rate fits under its parent's remaining rate budget at
// construction time, not just sum <= parent in the abstract").
func (b *Bucket) AddChild(child *Bucket) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if child.ceil < child.rate {
		return x0derr.New(x0derr.ConfigurationError, shaperErrWhere, "bucket %q: ceil %.3f < rate %.3f", child.name, child.ceil, child.rate)
	}

	sum := child.rate
	for _, c := range b.children {
		sum += c.rate
	}
	if sum > b.rate+1e-9 {
		return x0derr.New(x0derr.ConfigurationError, shaperErrWhere, "bucket %q: children rate sum %.3f exceeds parent %q rate %.3f", child.name, sum, b.name, b.rate)
	}

	child.parent = b
	b.children = append(b.children, child)
	return nil
}

// Resize recomputes the absolute token ceiling for the whole subtree rooted
// at b from totalCapacity — the sum of capacities of enabled, online
// members (§4.7: "resize(total) is called whenever member capacity/enabled
// /health changes").
func (b *Bucket) Resize(totalCapacity int) {
	b.mu.Lock()
	b.totalCap = totalCapacity
	ceil := int(b.ceil * float64(totalCapacity))
	if b.tokens > ceil {
		b.tokens = ceil
	}
	b.mu.Unlock()

	for _, c := range b.children {
		c.Resize(totalCapacity)
	}
}

func (b *Bucket) ceilTokens() int {
	return int(b.ceil * float64(b.totalCap))
}

// Exhausted reports whether b currently has a zero token ceiling — i.e. no
// enabled+online members contribute capacity to it — as opposed to merely
// being momentarily full. Callers deciding whether admission is truly
// unavailable (§4.11 "not-enabled -> immediate ServiceUnavailable") must use
// this rather than the configured rate/ceil fractions, which stay non-zero
// regardless of how much real capacity currently backs the bucket.
func (b *Bucket) Exhausted() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.ceilTokens() == 0
}

// Get tries to reserve n tokens from b, renting from the parent's
// remaining ceil budget when b's own ceil is exhausted (§4.7: "ceil rent
// from ancestors honors ancestor caps before granting").
func (b *Bucket) Get(n int) bool {
	b.mu.Lock()
	ceil := b.ceilTokens()
	if b.tokens+n <= ceil {
		b.tokens += n
		b.mu.Unlock()
		return true
	}
	b.mu.Unlock()

	if b.parent == nil {
		return false
	}
	return b.parent.Get(n)
}

// Put returns n tokens previously granted by Get.
func (b *Bucket) Put(n int) {
	b.mu.Lock()
	b.tokens -= n
	if b.tokens < 0 {
		b.tokens = 0
	}
	b.mu.Unlock()

	if b.parent != nil {
		b.parent.Put(n)
	}
}

// Tokens reports the bucket's currently outstanding token count.
func (b *Bucket) Tokens() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.tokens
}

// Ticket is a handle to one enqueued request: Done fires either when the
// request is dequeued (Expired reports false) or when its queue timeout
// elapses first (Expired reports true).
type Ticket struct {
	q *queuedRequest
}

func (t *Ticket) Done() <-chan struct{} { return t.q.done }
func (t *Ticket) Expired() bool         { return t.q.expired }

// Enqueue appends a request to the FIFO and arms a per-request timeout
// timer, evaluated monotonically from enqueue time (§4.7).
func (b *Bucket) Enqueue() *Ticket {
	q := &queuedRequest{enqueuedAt: time.Now(), timeout: b.queueTO, done: make(chan struct{})}

	b.mu.Lock()
	el := b.queue.PushBack(q)
	b.mu.Unlock()

	q.timer = time.AfterFunc(b.queueTO, func() {
		b.mu.Lock()
		if !q.expired {
			for e := b.queue.Front(); e != nil; e = e.Next() {
				if e.Value == q {
					b.queue.Remove(e)
					break
				}
			}
			q.expired = true
		}
		b.mu.Unlock()
		close(q.done)
	})

	_ = el
	return &Ticket{q: q}
}

// Cancel removes t's request from the queue without marking it expired,
// used when the caller abandons waiting for reasons other than timeout
// (e.g. the owning Context was closed).
func (t *Ticket) Cancel(b *Bucket) {
	t.q.timer.Stop()
	b.mu.Lock()
	for e := b.queue.Front(); e != nil; e = e.Next() {
		if e.Value == t.q {
			b.queue.Remove(e)
			break
		}
	}
	b.mu.Unlock()
}

// Dequeue pops the oldest queued request, stopping its timeout timer, and
// reports whether one was available. The returned bool is false on an
// empty queue; expired entries are skipped since their timer already fired.
func (b *Bucket) Dequeue() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	for {
		el := b.queue.Front()
		if el == nil {
			return false
		}
		b.queue.Remove(el)
		q := el.Value.(*queuedRequest)
		if q.expired {
			continue
		}
		q.timer.Stop()
		close(q.done)
		return true
	}
}

// QueueLen reports the number of requests currently waiting in b's FIFO,
// backing the `queued` gauge (§8).
func (b *Bucket) QueueLen() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.queue.Len()
}
