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

// Package source tracks where bytes in a Flow program came from (file,
// in-memory string, or an include chain) and collects the diagnostics the
// lexer/parser/linker raise against those locations.
package source

import "fmt"

// Location is a single point in a named stream.
type Location struct {
	Stream string
	Line   int
	Column int
	Offset int
}

func (l Location) String() string {
	if l.Stream == "" {
		return fmt.Sprintf("%d:%d", l.Line, l.Column)
	}
	return fmt.Sprintf("%s:%d:%d", l.Stream, l.Line, l.Column)
}

// Span covers a contiguous range of source between Begin and End.
type Span struct {
	Begin Location
	End   Location
}

func (s Span) String() string {
	if s.Begin.Stream == s.End.Stream && s.Begin.Line == s.End.Line {
		return fmt.Sprintf("%s:%d:%d-%d", s.Begin.Stream, s.Begin.Line, s.Begin.Column, s.End.Column)
	}
	return fmt.Sprintf("%s - %s", s.Begin, s.End)
}
