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
	"strconv"
	"strings"

	"github.com/nabbar/x0d/duration"
	x0derr "github.com/nabbar/x0d/errors"
	"github.com/nabbar/x0d/source"
)

// Lexer scans one source.Stream into Tokens. The caller (typically the
// parser) decides whether `/` is read as a regex literal or as division:
// Lexer itself is regex-position-agnostic, Next reads division and
// NextRegex reads a regex literal.
type Lexer struct {
	stream *source.Stream
	name   string
	src    string
	pos    int
	line   int
	col    int
	report *source.Report
}

func New(stream *source.Stream, report *source.Report) *Lexer {
	return &Lexer{stream: stream, name: stream.Name, src: stream.Text, line: 1, col: 1, report: report}
}

func (l *Lexer) loc() source.Location {
	return source.Location{Stream: l.name, Line: l.line, Column: l.col, Offset: l.pos}
}

func (l *Lexer) peek() byte {
	if l.pos >= len(l.src) {
		return 0
	}
	return l.src[l.pos]
}

func (l *Lexer) peekAt(n int) byte {
	if l.pos+n >= len(l.src) {
		return 0
	}
	return l.src[l.pos+n]
}

func (l *Lexer) advance() byte {
	c := l.src[l.pos]
	l.pos++
	if c == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return c
}

func (l *Lexer) skipTrivia() {
	for l.pos < len(l.src) {
		c := l.peek()
		switch {
		case c == ' ' || c == '\t' || c == '\r' || c == '\n':
			l.advance()
		case c == '#':
			for l.pos < len(l.src) && l.peek() != '\n' {
				l.advance()
			}
		case c == '/' && l.peekAt(1) == '/':
			for l.pos < len(l.src) && l.peek() != '\n' {
				l.advance()
			}
		case c == '/' && l.peekAt(1) == '*':
			l.advance()
			l.advance()
			for l.pos < len(l.src) && !(l.peek() == '*' && l.peekAt(1) == '/') {
				l.advance()
			}
			if l.pos < len(l.src) {
				l.advance()
				l.advance()
			}
		default:
			return
		}
	}
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isHexDigit(c byte) bool {
	return isDigit(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

// Next scans the next token. Division ('/') is assumed over a regex
// literal; callers in a regex-permitting grammar position use NextRegex
// instead.
func (l *Lexer) Next() Token {
	return l.next(false)
}

// NextRegex scans the next token, reading a leading '/' as the start of a
// regex literal instead of the division operator.
func (l *Lexer) NextRegex() Token {
	return l.next(true)
}

func (l *Lexer) next(regexPosition bool) Token {
	l.skipTrivia()
	begin := l.loc()

	if l.pos >= len(l.src) {
		return Token{Kind: EOF, Span: source.Span{Begin: begin, End: begin}}
	}

	c := l.peek()
	switch {
	case isIdentStart(c):
		return l.lexIdent(begin)
	case isDigit(c):
		return l.lexNumber(begin)
	case c == '"':
		return l.lexString(begin)
	case c == '/' && regexPosition:
		return l.lexRegex(begin)
	case isIPOrCidrStart(l.src, l.pos):
		if tok, ok := l.tryLexIPOrCidr(begin); ok {
			return tok
		}
		return l.lexOperatorOrPunct(begin)
	default:
		return l.lexOperatorOrPunct(begin)
	}
}

func (l *Lexer) lexIdent(begin source.Location) Token {
	start := l.pos
	// A '.' followed by an identifier start continues the name, so dotted
	// builtin names such as req.path lex as one Ident.
	for l.pos < len(l.src) && (isIdentPart(l.peek()) || (l.peek() == '.' && isIdentStart(l.peekAt(1)))) {
		l.advance()
	}
	text := l.src[start:l.pos]
	end := l.loc()
	span := source.Span{Begin: begin, End: end}

	if text == "true" || text == "false" {
		return Token{Kind: Boolean, Text: text, Value: text == "true", Span: span}
	}
	if kw, ok := keywords[text]; ok {
		return Token{Kind: kw, Text: text, Span: span}
	}
	return Token{Kind: Ident, Text: text, Span: span}
}

func (l *Lexer) lexNumber(begin source.Location) Token {
	start := l.pos
	for l.pos < len(l.src) && isDigit(l.peek()) {
		l.advance()
	}
	numText := l.src[start:l.pos]
	n, _ := strconv.ParseInt(numText, 10, 64)

	unitStart := l.pos
	for l.pos < len(l.src) && isIdentStart(l.peek()) {
		l.advance()
	}
	unit := l.src[unitStart:l.pos]

	value := n
	if unit != "" {
		if mult, ok := duration.TimeUnit(unit); ok {
			value = n * mult
		} else if mult, ok := duration.ByteUnit(unit); ok {
			value = n * mult
		} else if mult, ok := duration.BitUnit(unit); ok {
			value = n * mult
		} else {
			l.pos = unitStart
			l.col -= len(unit)
			unit = ""
		}
	}

	end := l.loc()
	span := source.Span{Begin: begin, End: end}
	if l.report != nil && unitStart != l.pos && unit == "" {
		l.report.Add(x0derr.LexError, span, "unknown unit suffix")
	}
	return Token{Kind: Number, Text: numText + unit, Value: value, Span: span}
}

// lexString reads a double-quoted string, splitting on `#{` interpolation
// markers. A plain string with no interpolation is a single String token;
// an interpolated one must be re-entered by the parser via
// EnterInterpolation/ResumeStringPart (see interpolation.go).
func (l *Lexer) lexString(begin source.Location) Token {
	l.advance() // opening quote
	var b strings.Builder
	for l.pos < len(l.src) {
		c := l.peek()
		if c == '"' {
			l.advance()
			end := l.loc()
			return Token{Kind: String, Text: b.String(), Value: b.String(), Span: source.Span{Begin: begin, End: end}}
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
	if l.report != nil {
		l.report.Add(x0derr.LexError, source.Span{Begin: begin, End: end}, "unterminated string literal")
	}
	return Token{Kind: String, Text: b.String(), Value: b.String(), Span: source.Span{Begin: begin, End: end}}
}

func unescape(c byte) byte {
	switch c {
	case 'n':
		return '\n'
	case 't':
		return '\t'
	case 'r':
		return '\r'
	default:
		return c
	}
}

func (l *Lexer) lexRegex(begin source.Location) Token {
	l.advance() // opening slash
	start := l.pos
	for l.pos < len(l.src) && l.peek() != '/' {
		if l.peek() == '\\' {
			l.advance()
		}
		l.advance()
	}
	text := l.src[start:l.pos]
	if l.pos < len(l.src) {
		l.advance() // closing slash
	}
	end := l.loc()
	return Token{Kind: Regex, Text: text, Value: text, Span: source.Span{Begin: begin, End: end}}
}

func isIPOrCidrStart(src string, pos int) bool {
	// A conservative lookahead: digits followed eventually by '.' within a
	// short run, or hex digits/colons for IPv6, disambiguated fully by
	// tryLexIPOrCidr which backtracks on failure.
	if pos >= len(src) {
		return false
	}
	c := src[pos]
	return isDigit(c) && strings.ContainsAny(src[pos:min(pos+16, len(src))], ".")
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// tryLexIPOrCidr attempts to scan an IPv4 literal (optionally with a
// "/prefix" CIDR suffix) starting at the current position; on failure it
// rewinds pos/line/col so the caller falls through to number/operator
// lexing.
func (l *Lexer) tryLexIPOrCidr(begin source.Location) (Token, bool) {
	savePos, saveLine, saveCol := l.pos, l.line, l.col
	start := l.pos

	octets := 0
	for octets < 4 {
		digStart := l.pos
		for l.pos < len(l.src) && isDigit(l.peek()) {
			l.advance()
		}
		if l.pos == digStart {
			l.pos, l.line, l.col = savePos, saveLine, saveCol
			return Token{}, false
		}
		octets++
		if octets < 4 {
			if l.peek() != '.' {
				l.pos, l.line, l.col = savePos, saveLine, saveCol
				return Token{}, false
			}
			l.advance()
		}
	}

	addr := l.src[start:l.pos]
	if l.peek() == '/' && isDigit(l.peekAt(1)) {
		l.advance()
		prefixStart := l.pos
		for l.pos < len(l.src) && isDigit(l.peek()) {
			l.advance()
		}
		cidrText := l.src[start:l.pos]
		_ = prefixStart
		end := l.loc()
		return Token{Kind: Cidr, Text: cidrText, Value: cidrText, Span: source.Span{Begin: begin, End: end}}, true
	}

	end := l.loc()
	return Token{Kind: IPAddr, Text: addr, Value: addr, Span: source.Span{Begin: begin, End: end}}, true
}

func (l *Lexer) lexOperatorOrPunct(begin source.Location) Token {
	two := ""
	if l.pos+1 < len(l.src) {
		two = l.src[l.pos : l.pos+2]
	}

	mk := func(kind Kind, n int) Token {
		text := l.src[l.pos : l.pos+n]
		for i := 0; i < n; i++ {
			l.advance()
		}
		return Token{Kind: kind, Text: text, Span: source.Span{Begin: begin, End: l.loc()}}
	}

	switch two {
	case "**":
		return mk(OpPow, 2)
	case "==":
		return mk(OpEq, 2)
	case "!=":
		return mk(OpNe, 2)
	case "<=":
		return mk(OpLe, 2)
	case ">=":
		return mk(OpGe, 2)
	case "=^":
		return mk(OpHeadMatch, 2)
	case "=$":
		return mk(OpTailMatch, 2)
	case "=~":
		return mk(OpRegexMatch, 2)
	}

	switch l.peek() {
	case '+':
		return mk(OpPlus, 1)
	case '-':
		return mk(OpMinus, 1)
	case '*':
		return mk(OpStar, 1)
	case '/':
		return mk(OpSlash, 1)
	case '%':
		return mk(OpPercent, 1)
	case '&':
		return mk(OpAmp, 1)
	case '|':
		return mk(OpPipe, 1)
	case '^':
		return mk(OpCaret, 1)
	case '~':
		return mk(OpTilde, 1)
	case '=':
		return mk(OpAssign, 1)
	case '<':
		return mk(OpLt, 1)
	case '>':
		return mk(OpGt, 1)
	case '(':
		return mk(LParen, 1)
	case ')':
		return mk(RParen, 1)
	case '{':
		return mk(LBrace, 1)
	case '}':
		return mk(RBrace, 1)
	case '[':
		return mk(LBracket, 1)
	case ']':
		return mk(RBracket, 1)
	case ',':
		return mk(Comma, 1)
	case ';':
		return mk(Semicolon, 1)
	default:
		c := l.advance()
		span := source.Span{Begin: begin, End: l.loc()}
		if l.report != nil {
			l.report.Add(x0derr.LexError, span, "unexpected character %q", c)
		}
		return Token{Kind: EOF, Text: string(c), Span: span}
	}
}
