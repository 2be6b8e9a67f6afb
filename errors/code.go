/*
 * MIT License
 *
 * Copyright (c) 2021 Nicolas JUHEL
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

// Package errors classifies every failure mode named in the language and
// cluster error-handling design into a closed set of numeric codes, each
// carrying an optional parent error for chaining.
package errors

import (
	"fmt"
	"strings"
)

// CodeError is a numeric classification, similar in spirit to an HTTP
// status code, identifying which stage of the pipeline failed.
type CodeError uint16

const (
	UnknownError CodeError = iota

	// Compile-time errors (source -> program).
	LexError
	ParseError
	TypeError
	LinkError

	// Boot-time errors.
	ConfigurationError

	// Request-time errors.
	RuntimeError
	UpstreamError
	QueueTimeout
	RetryExhausted
	InternalRedirectLimit
)

var codeMessage = map[CodeError]string{
	UnknownError:          "unknown error",
	LexError:              "lexical error",
	ParseError:            "parse error",
	TypeError:             "type error",
	LinkError:             "link error",
	ConfigurationError:    "configuration error",
	RuntimeError:          "runtime error",
	UpstreamError:         "upstream error",
	QueueTimeout:          "queue timeout",
	RetryExhausted:        "retry budget exhausted",
	InternalRedirectLimit: "internal redirect limit exceeded",
}

// String returns the human-readable label for the code.
func (c CodeError) String() string {
	if m, ok := codeMessage[c]; ok {
		return m
	}
	return fmt.Sprintf("error code %d", uint16(c))
}

// Error is a CodeError carrying location context, an optional message and
// an optional parent chain. It implements the standard `error` interface
// and is compatible with errors.Is / errors.As via Unwrap.
type Error struct {
	code    CodeError
	message string
	where   string
	parents []error
}

// New builds an Error of the given code. where is a short static location
// tag (e.g. "lexer", "cluster.shaper"), msg is an optional format string.
func New(code CodeError, where string, msg string, args ...interface{}) *Error {
	e := &Error{code: code, where: where}
	if msg != "" {
		e.message = fmt.Sprintf(msg, args...)
	}
	return e
}

// Wrap attaches parent as the cause of a new Error of the given code.
func Wrap(code CodeError, where string, parent error, msg string, args ...interface{}) *Error {
	e := New(code, where, msg, args...)
	if parent != nil {
		e.parents = append(e.parents, parent)
	}
	return e
}

func (e *Error) Code() CodeError {
	return e.code
}

func (e *Error) Where() string {
	return e.where
}

// Add appends additional parent causes, building a hierarchy (mirrors the
// teacher's Error.Add behavior for aggregating multiple underlying causes).
func (e *Error) Add(parents ...error) *Error {
	for _, p := range parents {
		if p != nil {
			e.parents = append(e.parents, p)
		}
	}
	return e
}

func (e *Error) HasParent() bool {
	return len(e.parents) > 0
}

func (e *Error) Unwrap() error {
	if len(e.parents) == 0 {
		return nil
	}
	return e.parents[0]
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.code.String())
	if e.where != "" {
		b.WriteString(" [" + e.where + "]")
	}
	if e.message != "" {
		b.WriteString(": " + e.message)
	}
	for _, p := range e.parents {
		b.WriteString("; caused by: " + p.Error())
	}
	return b.String()
}

// Is reports whether target is an *Error with the same CodeError, enabling
// errors.Is(err, errors.New(errors.UpstreamError, "", "")) style checks
// against the sentinel-ish code rather than the full message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.code == e.code
}
