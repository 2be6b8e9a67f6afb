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

package source

import (
	"fmt"

	"github.com/hashicorp/go-multierror"

	x0derr "github.com/nabbar/x0d/errors"
)

// Diagnostic is one compile-time finding: a classified error tied to a
// source Span, with an optional free-form detail string.
type Diagnostic struct {
	Code   x0derr.CodeError
	Span   Span
	Detail string
}

func (d Diagnostic) Error() string {
	if d.Detail == "" {
		return d.Span.String() + ": " + d.Code.String()
	}
	return d.Span.String() + ": " + d.Code.String() + ": " + d.Detail
}

// Report aggregates every Diagnostic raised while compiling one Unit. Any
// entry aborts startup (§7: "any error aborts startup"); Report is what the
// lexer, parser and linker all append to, and what the CLI prints.
type Report struct {
	diags []Diagnostic
}

func NewReport() *Report {
	return &Report{}
}

func (r *Report) Add(code x0derr.CodeError, span Span, format string, args ...interface{}) {
	r.diags = append(r.diags, Diagnostic{Code: code, Span: span, Detail: sprintfOrEmpty(format, args...)})
}

func sprintfOrEmpty(format string, args ...interface{}) string {
	if format == "" {
		return ""
	}
	if len(args) == 0 {
		return format
	}
	return fmt.Sprintf(format, args...)
}

func (r *Report) HasErrors() bool {
	return len(r.diags) > 0
}

func (r *Report) Diagnostics() []Diagnostic {
	return r.diags
}

// Err folds the collected diagnostics into a single *multierror.Error, nil
// if the report is clean. This is the object handed back up to the CLI,
// matching "compile-time errors are collected into a diagnostics report".
func (r *Report) Err() error {
	if len(r.diags) == 0 {
		return nil
	}
	merr := &multierror.Error{}
	for _, d := range r.diags {
		merr = multierror.Append(merr, d)
	}
	return merr
}
