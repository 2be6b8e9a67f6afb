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

package runtime

import (
	"net"
	"regexp"
)

// parseIP/parseCidr/mustCompile lazily materialize the string form the IR
// constant pool stores (produced by the lexer from an IP/CIDR/regex
// literal, already validated at parse time) into the concrete net/regexp
// types the runtime ABI exchanges. A parse failure here would mean the
// parser accepted an invalid literal — a parser bug, not a runtime one —
// so these fail soft (zero value) rather than panicking a live request.
func parseIP(s string) net.IP {
	return net.ParseIP(s)
}

func parseCidr(s string) *net.IPNet {
	_, n, err := net.ParseCIDR(s)
	if err != nil {
		return nil
	}
	return n
}

func mustCompile(pattern string) *regexp.Regexp {
	rx, err := regexp.Compile(pattern)
	if err != nil {
		return regexp.MustCompile("$^") // never matches; parser should have rejected this
	}
	return rx
}
