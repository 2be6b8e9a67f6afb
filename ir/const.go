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

// Package ir implements the three-address intermediate representation of
// §4.3: a Program owning deduplicated constant pools and a list of
// Handlers, each owning basic blocks of typed, SSA-like instructions.
// References between IR objects are indices into their owning container
// (block indices, constant-pool indices, local slots) rather than
// pointers, so the structure can never form a reference cycle — the same
// arena-of-indices idiom ast uses for its Node/Symbol arena.
package ir

// ConstPool holds one deduplicated table per literal kind that can appear
// as a compile-time constant. Index 0 in every table is reserved so the
// zero Value (ValInvalid) can never alias a real constant.
type ConstPool struct {
	Numbers []int64
	Strings []string
	IPs     []string
	Cidrs   []string
	Regexes []string
}

func newConstPool() *ConstPool {
	return &ConstPool{
		Numbers: []int64{0},
		Strings: []string{""},
		IPs:     []string{""},
		Cidrs:   []string{""},
		Regexes: []string{""},
	}
}

func (c *ConstPool) number(v int64) int {
	for i, n := range c.Numbers {
		if i > 0 && n == v {
			return i
		}
	}
	c.Numbers = append(c.Numbers, v)
	return len(c.Numbers) - 1
}

func (c *ConstPool) str(v string) int {
	for i, s := range c.Strings {
		if i > 0 && s == v {
			return i
		}
	}
	c.Strings = append(c.Strings, v)
	return len(c.Strings) - 1
}

func (c *ConstPool) ip(v string) int {
	for i, s := range c.IPs {
		if i > 0 && s == v {
			return i
		}
	}
	c.IPs = append(c.IPs, v)
	return len(c.IPs) - 1
}

func (c *ConstPool) cidr(v string) int {
	for i, s := range c.Cidrs {
		if i > 0 && s == v {
			return i
		}
	}
	c.Cidrs = append(c.Cidrs, v)
	return len(c.Cidrs) - 1
}

func (c *ConstPool) regex(v string) int {
	for i, s := range c.Regexes {
		if i > 0 && s == v {
			return i
		}
	}
	c.Regexes = append(c.Regexes, v)
	return len(c.Regexes) - 1
}
