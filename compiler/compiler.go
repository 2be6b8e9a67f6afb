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

// Package compiler wires the whole SYSTEM OVERVIEW data flow end to end:
// source text -> (lexer, inside parser) tokens -> (parser) AST with
// symbols/types -> (ir.Builder) IR -> (passmgr) passes -> (codegen) linear
// Program -> linked against a *builtin.Registry -> (runtime.NewProgram) a
// request-ready Program. Nothing here duplicates pipeline-stage logic; it
// is purely the glue main (cmd/x0d) needs instead of re-deriving it inline.
package compiler

import (
	"github.com/nabbar/x0d/ast"
	"github.com/nabbar/x0d/builtin"
	"github.com/nabbar/x0d/codegen"
	"github.com/nabbar/x0d/ir"
	"github.com/nabbar/x0d/parser"
	"github.com/nabbar/x0d/passmgr"
	"github.com/nabbar/x0d/runtime"
	"github.com/nabbar/x0d/source"
)

// Options controls the optional, CLI-exposed stages of the pipeline (§6
// "dump-ast/ir/tc toggles, optimization level").
// Options.AllowExperi is intentionally absent: whether experimental
// builtins link is a property of the *builtin.Registry passed to Compile
// (NewRegistry's allowExperimental argument), not of one compile run.
type Options struct {
	OptLevel int
	DumpAST  bool
	DumpIR   bool
	DumpTC   bool
}

// Result carries the compiled artifacts plus whatever the dump toggles
// asked for, so the CLI can print them without re-running any stage.
type Result struct {
	Unit    *ast.Unit
	IR      *ir.Program
	TC      *codegen.Program
	Program *runtime.Program

	ASTDump string
	IRDump  string
	TCDump  string
}

// Compile runs the full pipeline over stream against host (already
// populated by every module's register(&host) call, per DESIGN NOTES
// "Plugin loading"). Compile-time diagnostics are collected into a fresh
// source.Report and folded into the returned error (§7 "any error aborts
// startup") — the caller never needs to inspect the Report itself, though
// it is available via the returned error's chain for richer printing.
func Compile(stream *source.Stream, host *builtin.Registry, opt Options) (*Result, error) {
	report := source.NewReport()

	catalog := builtin.NewCatalog(host)
	p := parser.New(stream, report, catalog)
	unit := p.Parse()
	if report.HasErrors() {
		return nil, report.Err()
	}

	res := &Result{Unit: unit}
	if opt.DumpAST {
		res.ASTDump = unit.Dump()
	}

	builder := ir.NewBuilder(report)
	prog := builder.Build(unit)
	if report.HasErrors() {
		return nil, report.Err()
	}

	passmgr.RunAll(prog, opt.OptLevel)
	res.IR = prog
	if opt.DumpIR {
		res.IRDump = prog.Dump()
	}

	tc := codegen.Generate(prog)
	if err := tc.Link(host, report); err != nil {
		return nil, err
	}
	if report.HasErrors() {
		return nil, report.Err()
	}
	res.TC = tc
	if opt.DumpTC {
		res.TCDump = tc.Dump()
	}

	rp, err := runtime.NewProgram(tc, host)
	if err != nil {
		return nil, err
	}
	res.Program = rp

	return res, nil
}

// CompileFile reads path and compiles it (§6 "Configuration file (Flow
// source)").
func CompileFile(path string, host *builtin.Registry, opt Options) (*Result, error) {
	stream, err := source.FromFile(path)
	if err != nil {
		return nil, err
	}
	return Compile(stream, host, opt)
}
