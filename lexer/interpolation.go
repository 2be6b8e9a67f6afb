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

package lexer

import (
	"strings"

	"github.com/nabbar/x0d/source"
)

// EnterInterpolation is called by the parser right after it receives a
// StringFragment token; it consumes the `#{` marker so the parser can then
// pull ordinary expression tokens via Next/NextRegex until the matching
// `}`, at which point the parser calls ResumeStringPart to continue
// scanning string bytes.
func (l *Lexer) EnterInterpolation() {
	l.advance() // '#'
	l.advance() // '{'
}

// ResumeStringPart is called once the parser has consumed the closing '}'
// of an interpolated expression; it scans forward either to the next `#{`
// (another StringFragment) or the closing quote (StringEnd).
func (l *Lexer) ResumeStringPart() Token {
	begin := l.loc()
	var b strings.Builder
	for l.pos < len(l.src) {
		c := l.peek()
		if c == '"' {
			l.advance()
			end := l.loc()
			return Token{Kind: StringEnd, Text: b.String(), Value: b.String(), Span: source.Span{Begin: begin, End: end}}
		}
		if c == '#' && l.peekAt(1) == '{' {
			end := l.loc()
			return Token{Kind: StringFragment, Text: b.String(), Value: b.String(), Span: source.Span{Begin: begin, End: end}}
		}
		if c == '\\' {
			l.advance()
			b.WriteByte(unescape(l.advance()))
			continue
		}
		b.WriteByte(l.advance())
	}
	end := l.loc()
	return Token{Kind: StringEnd, Text: b.String(), Value: b.String(), Span: source.Span{Begin: begin, End: end}}
}
