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

package cluster

import (
	"math/rand"
	"sync"
)

// SchedResult is the outcome of a scheduling attempt (§4.8).
type SchedResult int

const (
	SchedSuccess SchedResult = iota
	SchedOverloaded
	SchedUnavailable
)

// Scheduler picks a live Member for a request. Pick increments the chosen
// member's in-flight count on SchedSuccess.
type Scheduler interface {
	Name() string
	Pick(members []*Member) (*Member, SchedResult)
}

// NewScheduler resolves a scheduler by its configured name (§6: "scheduler
// name"), defaulting to round-robin for an unrecognized value.
func NewScheduler(name string) Scheduler {
	switch name {
	case "chance":
		return NewChanceScheduler()
	default:
		return NewRoundRobinScheduler()
	}
}

// RoundRobinScheduler rotates a cursor over enabled, online members in
// order, picking the first with spare capacity (§4.8).
type RoundRobinScheduler struct {
	mu     sync.Mutex
	cursor int
}

func NewRoundRobinScheduler() *RoundRobinScheduler { return &RoundRobinScheduler{} }

func (s *RoundRobinScheduler) Name() string { return "round-robin" }

func (s *RoundRobinScheduler) Pick(members []*Member) (*Member, SchedResult) {
	if len(members) == 0 {
		return nil, SchedUnavailable
	}

	s.mu.Lock()
	start := s.cursor
	s.mu.Unlock()

	anyOnline := false
	for i := 0; i < len(members); i++ {
		idx := (start + i) % len(members)
		m := members[idx]
		if !m.Usable() {
			continue
		}
		anyOnline = true
		if m.TryAcquire() {
			s.mu.Lock()
			s.cursor = (idx + 1) % len(members)
			s.mu.Unlock()
			return m, SchedSuccess
		}
	}

	if !anyOnline {
		return nil, SchedUnavailable
	}
	return nil, SchedOverloaded
}

// ChanceScheduler weights members by their remaining capacity and picks by
// a uniform random draw over that weighted distribution (§4.8).
type ChanceScheduler struct {
	mu   sync.Mutex
	rand *rand.Rand
}

func NewChanceScheduler() *ChanceScheduler {
	return &ChanceScheduler{rand: rand.New(rand.NewSource(1))}
}

func (s *ChanceScheduler) Name() string { return "chance" }

func (s *ChanceScheduler) Pick(members []*Member) (*Member, SchedResult) {
	type candidate struct {
		m       *Member
		remain  int
	}
	var candidates []candidate
	anyOnline := false
	total := 0

	for _, m := range members {
		if !m.Usable() {
			continue
		}
		anyOnline = true
		remain := m.Remaining()
		if remain <= 0 {
			continue
		}
		candidates = append(candidates, candidate{m: m, remain: remain})
		total += remain
	}

	if len(candidates) == 0 {
		if !anyOnline {
			return nil, SchedUnavailable
		}
		return nil, SchedOverloaded
	}

	s.mu.Lock()
	draw := s.rand.Intn(total)
	s.mu.Unlock()

	for _, c := range candidates {
		if draw < c.remain {
			if c.m.TryAcquire() {
				return c.m, SchedSuccess
			}
			return nil, SchedOverloaded
		}
		draw -= c.remain
	}
	return nil, SchedOverloaded
}
